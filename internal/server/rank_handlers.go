package server

import (
	"promptgallery/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetRanks handles GET /api/ranks
func (s *Server) GetRanks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"tiers":     s.rankSvc.Tiers().Tiers(),
		"anonymous": s.rankSvc.ResolveAnonymous(),
	})
}

// ReplaceRanks handles PUT /api/ranks
func (s *Server) ReplaceRanks(c *fiber.Ctx) error {
	var req struct {
		Tiers []models.RankTier `json:"tiers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	set, err := s.rankSvc.ReplaceTiers(c.UserContext(), currentUserID(c), req.Tiers)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tiers": set.Tiers()})
}

// GetLeaderboard handles GET /api/leaderboard
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	rows, err := s.leaderboardSvc.Leaderboard(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rows)
}
