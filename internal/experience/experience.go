// Package experience awards experience points with an optimistic local
// update that is rolled back when the store rejects the delta.
package experience

import (
	"context"
	"fmt"
	"log/slog"

	"promptgallery/internal/models"
	"promptgallery/internal/notifications"
	"promptgallery/internal/observability"
	"promptgallery/internal/optimistic"

	"go.opentelemetry.io/otel/attribute"
)

// Action is an activity that earns experience.
type Action string

const (
	ActionComment     Action = "comment"
	ActionLike        Action = "like"
	ActionPost        Action = "post"
	ActionProfileEdit Action = "profile_edit"
	ActionIdleTick    Action = "idle_tick"
	// ActionManual is used for direct AddExp calls.
	ActionManual Action = "manual"
)

// Rewards per action.
var Rewards = map[Action]int{
	ActionComment:     10,
	ActionLike:        5,
	ActionPost:        50,
	ActionProfileEdit: 20,
	ActionIdleTick:    1,
}

// DeltaSink applies a relative experience change atomically in the store.
type DeltaSink interface {
	ApplyExpDelta(ctx context.Context, userID string, amount int) error
}

// Mirror is the fast local copy of each profile's experience.
type Mirror interface {
	optimistic.Adjuster
	Seed(ctx context.Context, key string, value int64) (bool, error)
	Value(ctx context.Context, key string) (int64, bool, error)
	Forget(ctx context.Context, key string) error
}

// FailureNotifier surfaces persistence failures to the affected user.
type FailureNotifier interface {
	PublishToast(ctx context.Context, userID string, t notifications.Toast) error
}

// Tracker applies experience deltas.
type Tracker struct {
	sink     DeltaSink
	mirror   Mirror
	notifier FailureNotifier
	logger   *slog.Logger
	// degraded holds this instance's view while the shared mirror cannot
	// be seeded.
	degraded *optimistic.Counter
}

// NewTracker builds a Tracker. A nil mirror falls back to an in-process
// counter; a nil notifier disables toasts.
func NewTracker(sink DeltaSink, mirror Mirror, notifier FailureNotifier) *Tracker {
	if mirror == nil {
		mirror = optimistic.NewCounter()
	}
	return &Tracker{
		sink:     sink,
		mirror:   mirror,
		notifier: notifier,
		logger:   slog.Default(),
		degraded: optimistic.NewCounter(),
	}
}

// WithLogger returns a copy of t that logs to logger.
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	cp := *t
	if logger != nil {
		cp.logger = logger
	}
	return &cp
}

// Award adds the reward for action to user.
func (t *Tracker) Award(ctx context.Context, user *models.User, action Action) error {
	amount, ok := Rewards[action]
	if !ok {
		return fmt.Errorf("unknown experience action %q", action)
	}
	return t.add(ctx, user, amount, action)
}

// AddExp adds a signed amount to user's experience. The mirror is updated
// before the store; a store failure undoes exactly this call's amount.
func (t *Tracker) AddExp(ctx context.Context, user *models.User, amount int) error {
	return t.add(ctx, user, amount, ActionManual)
}

func (t *Tracker) add(ctx context.Context, user *models.User, amount int, action Action) error {
	if user == nil || user.ID == "" {
		return models.NewUnauthorizedError("authentication required to earn experience")
	}
	if amount == 0 {
		return nil
	}

	span, ctx := observability.NewSpan(ctx, "exp.add",
		attribute.String("gallery.user_id", user.ID),
		attribute.Int("exp.amount", amount),
		attribute.String("exp.action", string(action)),
	)
	defer span.End()

	local := t.localFor(ctx, user)
	err := optimistic.Apply(ctx, local, user.ID, int64(amount), func(ctx context.Context) error {
		return t.sink.ApplyExpDelta(ctx, user.ID, amount)
	})
	if err == nil {
		switch {
		case local.missed:
			// The store has the delta but the mirror does not.
			t.forget(ctx, user.ID)
		case local.degraded:
			// An entry the seed could not see would now lag the store.
			t.forgetShared(ctx, user.ID)
		}
	}
	if err == nil {
		observability.ExpDeltaTotal.WithLabelValues(string(action), "applied").Inc()
		return nil
	}

	span.SetError(err)
	observability.ExpDeltaTotal.WithLabelValues(string(action), "failed").Inc()
	observability.ExpRollbacksTotal.Inc()
	attrs := []any{
		slog.String("user_id", user.ID),
		slog.Int("amount", amount),
		slog.String("action", string(action)),
		slog.String("error", err.Error()),
	}
	if optimistic.IsRollbackFailure(err) {
		t.logger.ErrorContext(ctx, "experience mirror diverged from store, resetting", attrs...)
		t.forget(ctx, user.ID)
	} else {
		t.logger.WarnContext(ctx, "experience update rolled back", attrs...)
	}

	if t.notifier != nil {
		toast := notifications.Toast{
			Level:   notifications.LevelError,
			Message: "Your experience could not be saved. Please try again.",
			Data:    map[string]any{"amount": amount, "action": string(action)},
		}
		if nErr := t.notifier.PublishToast(context.WithoutCancel(ctx), user.ID, toast); nErr != nil {
			t.logger.WarnContext(ctx, "failed to publish experience toast", slog.String("user_id", user.ID), slog.String("error", nErr.Error()))
		}
	}

	return fmt.Errorf("add %d exp to user %s: %w", amount, user.ID, err)
}

// localFor picks the adjuster for one delta. When the shared mirror cannot
// be seeded an increment there would land on a missing field, so the delta
// goes to the degraded counter rebased on the caller's snapshot instead.
func (t *Tracker) localFor(ctx context.Context, user *models.User) *watchedAdjuster {
	if _, err := t.mirror.Seed(ctx, user.ID, int64(user.Exp)); err != nil {
		t.logger.WarnContext(ctx, "failed to seed experience mirror", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		_ = t.degraded.Forget(ctx, user.ID)
		_, _ = t.degraded.Seed(ctx, user.ID, int64(user.Exp))
		return &watchedAdjuster{Adjuster: t.degraded, degraded: true}
	}
	_ = t.degraded.Forget(ctx, user.ID)
	return &watchedAdjuster{Adjuster: t.mirror}
}

// forget drops user from both mirrors so the next read reseeds from a profile
// loaded from the store.
func (t *Tracker) forget(ctx context.Context, userID string) {
	t.forgetShared(ctx, userID)
	_ = t.degraded.Forget(ctx, userID)
}

func (t *Tracker) forgetShared(ctx context.Context, userID string) {
	ctx = context.WithoutCancel(ctx)
	if err := t.mirror.Forget(ctx, userID); err != nil {
		t.logger.ErrorContext(ctx, "failed to reset experience mirror", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// watchedAdjuster records whether the forward adjustment failed. A failed
// compensation is reported by optimistic.Apply itself.
type watchedAdjuster struct {
	optimistic.Adjuster
	degraded bool
	calls    int
	missed   bool
}

func (w *watchedAdjuster) Adjust(ctx context.Context, key string, delta int64) (int64, error) {
	w.calls++
	v, err := w.Adjuster.Adjust(ctx, key, delta)
	if err != nil && w.calls == 1 {
		w.missed = true
	}
	return v, err
}

// Exp returns the mirrored experience for user, seeding the mirror from the
// profile snapshot on first use.
func (t *Tracker) Exp(ctx context.Context, user *models.User) int {
	if user == nil {
		return 0
	}
	if v, ok, err := t.mirror.Value(ctx, user.ID); err == nil && ok {
		return int(v)
	}
	if _, err := t.mirror.Seed(ctx, user.ID, int64(user.Exp)); err != nil {
		if v, ok, _ := t.degraded.Value(ctx, user.ID); ok {
			return int(v)
		}
		return user.Exp
	}
	if v, ok, err := t.mirror.Value(ctx, user.ID); err == nil && ok {
		return int(v)
	}
	return user.Exp
}

// Snapshot returns a copy of user with Exp replaced by the mirrored value.
func (t *Tracker) Snapshot(ctx context.Context, user *models.User) *models.User {
	if user == nil {
		return nil
	}
	cp := *user
	cp.Exp = t.Exp(ctx, user)
	return &cp
}
