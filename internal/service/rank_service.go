package service

import (
	"context"
	"log/slog"
	"sync"

	"promptgallery/internal/experience"
	"promptgallery/internal/models"
	"promptgallery/internal/rank"
	"promptgallery/internal/repository"
)

// RankService owns the active tier ladder. Readers receive a TierSet value;
// ReplaceTiers swaps it for a new snapshot.
type RankService struct {
	tierRepo    repository.RankTierRepository
	profileRepo repository.ProfileRepository
	imageRepo   repository.ImageRepository
	tracker     *experience.Tracker
	tiersFile   string

	mu    sync.RWMutex
	tiers rank.TierSet
}

// NewRankService starts with the built-in ladder until Reload runs.
func NewRankService(
	tierRepo repository.RankTierRepository,
	profileRepo repository.ProfileRepository,
	imageRepo repository.ImageRepository,
	tracker *experience.Tracker,
	tiersFile string,
) *RankService {
	return &RankService{
		tierRepo:    tierRepo,
		profileRepo: profileRepo,
		imageRepo:   imageRepo,
		tracker:     tracker,
		tiersFile:   tiersFile,
		tiers:       rank.NewTierSet(rank.DefaultTiers()),
	}
}

// Tiers returns the active ladder.
func (s *RankService) Tiers() rank.TierSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiers
}

func (s *RankService) setTiers(tiers []models.RankTier) rank.TierSet {
	set := rank.NewTierSet(tiers)
	s.mu.Lock()
	s.tiers = set
	s.mu.Unlock()
	return set
}

// Reload reads the ladder from the store. An empty store is seeded from the
// tiers file, or the built-in ladder when no file is configured. Store errors
// keep the current ladder.
func (s *RankService) Reload(ctx context.Context) (rank.TierSet, error) {
	stored, err := s.tierRepo.ListAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "rank tiers unavailable, keeping current ladder", slog.String("error", err.Error()))
		return s.Tiers(), err
	}
	if len(stored) > 0 {
		return s.setTiers(stored), nil
	}

	initial := rank.DefaultTiers()
	if s.tiersFile != "" {
		fromFile, err := rank.LoadFile(s.tiersFile)
		if err != nil {
			slog.WarnContext(ctx, "ignoring rank tiers file",
				slog.String("path", s.tiersFile),
				slog.String("error", err.Error()))
		} else {
			initial = fromFile
		}
	}

	if err := s.tierRepo.ReplaceAll(ctx, initial); err != nil {
		slog.WarnContext(ctx, "failed to seed rank tiers", slog.String("error", err.Error()))
	}
	return s.setTiers(initial), nil
}

// ReplaceTiers validates and stores a new ladder. Only administrators may
// edit tiers.
func (s *RankService) ReplaceTiers(ctx context.Context, actorID string, tiers []models.RankTier) (rank.TierSet, error) {
	actor, err := s.profileRepo.GetByID(ctx, actorID)
	if err != nil {
		return rank.TierSet{}, err
	}
	if !actor.IsAdmin() {
		return rank.TierSet{}, models.NewForbiddenError("Only administrators can edit rank tiers")
	}

	next := rank.Normalize(tiers)
	if err := rank.Validate(next); err != nil {
		return rank.TierSet{}, err
	}
	if err := s.tierRepo.ReplaceAll(ctx, next); err != nil {
		return rank.TierSet{}, err
	}
	slog.InfoContext(ctx, "rank tiers replaced", slog.String("actor_id", actorID), slog.Int("tiers", len(next)))
	return s.setTiers(next), nil
}

// ResolveAnonymous is the rank shown to signed-out viewers.
func (s *RankService) ResolveAnonymous() rank.Info {
	return rank.Resolve(nil, 0, s.Tiers())
}

// ResolveUser resolves the rank of a stored profile using its mirrored
// experience and current post count.
func (s *RankService) ResolveUser(ctx context.Context, id string) (rank.Info, error) {
	user, err := s.current(ctx, id)
	if err != nil {
		return rank.Info{}, err
	}
	posts, err := s.imageRepo.CountByUser(ctx, id)
	if err != nil {
		return rank.Info{}, err
	}
	return rank.Resolve(user, posts, s.Tiers()), nil
}

// Progress reports how far the profile is toward its next tier.
func (s *RankService) Progress(ctx context.Context, id string) (rank.Progress, error) {
	user, err := s.current(ctx, id)
	if err != nil {
		return rank.Progress{}, err
	}
	return rank.ProgressFor(user, s.Tiers()), nil
}

func (s *RankService) current(ctx context.Context, id string) (*models.User, error) {
	user, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.tracker != nil {
		user = s.tracker.Snapshot(ctx, user)
	}
	return user, nil
}
