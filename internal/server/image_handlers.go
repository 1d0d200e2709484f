package server

import (
	"promptgallery/internal/models"
	"promptgallery/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetImages handles GET /api/images
func (s *Server) GetImages(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	images, err := s.imageSvc.ListImages(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(images)
}

// GetImage handles GET /api/images/:id
func (s *Server) GetImage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	img, err := s.imageSvc.GetImage(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(img)
}

// CreateImage handles POST /api/images
func (s *Server) CreateImage(c *fiber.Ctx) error {
	var req struct {
		Title      string `json:"title"`
		Prompt     string `json:"prompt"`
		ImageURL   string `json:"image_url"`
		CategoryID *uint  `json:"category_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	img, err := s.imageSvc.CreateImage(c.UserContext(), service.CreateImageInput{
		UserID:     currentUserID(c),
		Title:      req.Title,
		Prompt:     req.Prompt,
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// UpdateImage handles PUT /api/images/:id
func (s *Server) UpdateImage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Title         *string `json:"title"`
		Prompt        *string `json:"prompt"`
		CategoryID    *uint   `json:"category_id"`
		ClearCategory bool    `json:"clear_category"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	img, err := s.imageSvc.UpdateImage(c.UserContext(), currentUserID(c), id, service.UpdateImageInput{
		Title:         req.Title,
		Prompt:        req.Prompt,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(img)
}

// DeleteImage handles DELETE /api/images/:id
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	if err := s.imageSvc.DeleteImage(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserImages handles GET /api/users/:id/images
func (s *Server) GetUserImages(c *fiber.Ctx) error {
	images, err := s.imageSvc.ListUserImages(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(images)
}

// ToggleLike handles POST /api/images/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	res, err := s.imageSvc.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// RecordView handles POST /api/images/:id/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	if err := s.imageSvc.RecordView(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetComments handles GET /api/images/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	comments, err := s.imageSvc.ListComments(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/images/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.imageSvc.AddComment(c.UserContext(), id, currentUserID(c), req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetCategories handles GET /api/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.imageSvc.ListCategories(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	category, err := s.imageSvc.CreateCategory(c.UserContext(), currentUserID(c), req.Name)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// RenameCategory handles PUT /api/categories/:id
func (s *Server) RenameCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	category, err := s.imageSvc.RenameCategory(c.UserContext(), currentUserID(c), id, req.Name)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	if err := s.imageSvc.DeleteCategory(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
