package server

import (
	"errors"
	"log/slog"
	"time"

	"promptgallery/internal/experience"
	"promptgallery/internal/featureflags"
	"promptgallery/internal/middleware"
	"promptgallery/internal/models"

	"github.com/gofiber/fiber/v2"
)

const idleTickWindow = time.Minute

// IdleTick handles POST /api/exp/tick. Each profile earns the idle reward at
// most once per minute.
func (s *Server) IdleTick(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	if !s.featureFlags.Enabled(featureflags.IdleExp, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", featureflags.IdleExp))
	}

	allowed, err := middleware.Allow(ctx, s.redis, "idle_tick", userID, 1, idleTickWindow)
	if err != nil {
		if !errors.Is(err, middleware.ErrNoRedis) {
			slog.WarnContext(ctx, "idle tick limiter unavailable", slog.String("error", err.Error()))
		}
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}
	if !allowed {
		return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
			Error: "Idle reward already granted this minute",
		})
	}

	user, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if err := s.tracker.Award(ctx, user, experience.ActionIdleTick); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"awarded": experience.Rewards[experience.ActionIdleTick],
		"exp":     s.tracker.Exp(ctx, user),
	})
}

// GetFeatureFlags handles GET /api/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(currentUserID(c)))
}
