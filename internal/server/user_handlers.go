package server

import (
	"promptgallery/internal/models"
	"promptgallery/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.profileSvc.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.profileSvc.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserRank handles GET /api/users/:id/rank
func (s *Server) GetUserRank(c *fiber.Ctx) error {
	info, err := s.rankSvc.ResolveUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(info)
}

// GetMyProgress handles GET /api/users/me/progress
func (s *Server) GetMyProgress(c *fiber.Ctx) error {
	progress, err := s.rankSvc.Progress(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(progress)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	user, err := s.profileSvc.UpdateOwnProfile(c.UserContext(), userID, userID, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminUpdateUser handles PUT /api/users/:id
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	var req service.AdminUpdateInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.profileSvc.AdminUpdateUser(c.UserContext(), currentUserID(c), c.Params("id"), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
