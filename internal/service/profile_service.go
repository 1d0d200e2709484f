package service

import (
	"context"
	"log/slog"
	"strings"

	"promptgallery/internal/experience"
	"promptgallery/internal/models"
	"promptgallery/internal/rank"
	"promptgallery/internal/repository"
)

const (
	maxUsernameLen = 30
	maxTitleLen    = 40
)

// ProfileService reads and edits profiles and their experience.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	tracker     *experience.Tracker
}

// UpdateProfileInput holds self-service profile edits. Nil fields are left
// unchanged.
type UpdateProfileInput struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// AdminUpdateInput holds administrator-only profile edits.
type AdminUpdateInput struct {
	Role             *string `json:"role"`
	CustomTitle      *string `json:"custom_title"`
	CustomTitleColor *string `json:"custom_title_color"`
}

// NewProfileService creates a ProfileService backed by the given tracker.
func NewProfileService(profileRepo repository.ProfileRepository, tracker *experience.Tracker) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, tracker: tracker}
}

func (s *ProfileService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.tracker.Snapshot(ctx, user), nil
}

func (s *ProfileService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.profileRepo.List(ctx, limit, offset)
}

// UpdateOwnProfile applies self-service edits and awards the profile edit
// reward. The actor may only edit their own profile.
func (s *ProfileService) UpdateOwnProfile(ctx context.Context, actorID, targetID string, in UpdateProfileInput) (*models.User, error) {
	if actorID == "" {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if actorID != targetID {
		return nil, models.NewForbiddenError("You cannot edit another user's profile")
	}

	fields := map[string]any{}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, models.NewValidationError("Username cannot be empty")
		}
		if len(name) > maxUsernameLen {
			return nil, models.NewValidationError("Username too long (max 30 characters)")
		}
		fields["username"] = name
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("Nothing to update")
	}

	if err := s.profileRepo.Update(ctx, targetID, fields); err != nil {
		return nil, err
	}
	user, err := s.profileRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.Award(ctx, user, experience.ActionProfileEdit); err != nil {
		slog.WarnContext(ctx, "profile edit reward failed", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}
	return s.tracker.Snapshot(ctx, user), nil
}

// AdminUpdateUser changes role and custom title. Clearing the title also
// clears its color.
func (s *ProfileService) AdminUpdateUser(ctx context.Context, actorID, targetID string, in AdminUpdateInput) (*models.User, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("unknown actor")
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only administrators can edit other users")
	}

	fields := map[string]any{}
	if in.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*in.Role))
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, models.NewValidationError("Role must be admin or user")
		}
		if actorID == targetID && role != models.RoleAdmin {
			return nil, models.NewValidationError("Administrators cannot revoke their own role")
		}
		fields["role"] = role
	}
	if in.CustomTitle != nil {
		title := strings.TrimSpace(*in.CustomTitle)
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Custom title too long (max 40 characters)")
		}
		fields["custom_title"] = title
		if title == "" {
			fields["custom_title_color"] = ""
		}
	}
	if in.CustomTitleColor != nil {
		if _, cleared := fields["custom_title_color"]; !cleared {
			color := strings.TrimSpace(*in.CustomTitleColor)
			if color != "" && !rank.IsHexColor(color) {
				return nil, models.NewValidationError("Custom title color must be a hex color")
			}
			fields["custom_title_color"] = color
		}
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("Nothing to update")
	}

	if err := s.profileRepo.Update(ctx, targetID, fields); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "profile updated by administrator",
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID))
	return s.GetUser(ctx, targetID)
}
