package experience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"promptgallery/internal/models"
	"promptgallery/internal/notifications"
	"promptgallery/internal/optimistic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDB = errors.New("database unavailable")

type sinkStub struct {
	mu      sync.Mutex
	deltas  []int
	applyFn func(ctx context.Context, userID string, amount int) error
}

func (s *sinkStub) ApplyExpDelta(ctx context.Context, userID string, amount int) error {
	if s.applyFn != nil {
		if err := s.applyFn(ctx, userID, amount); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.deltas = append(s.deltas, amount)
	s.mu.Unlock()
	return nil
}

type notifierStub struct {
	mu     sync.Mutex
	toasts map[string][]notifications.Toast
}

func (n *notifierStub) PublishToast(_ context.Context, userID string, t notifications.Toast) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.toasts == nil {
		n.toasts = make(map[string][]notifications.Toast)
	}
	n.toasts[userID] = append(n.toasts[userID], t)
	return nil
}

func TestTracker_AddExpSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &sinkStub{}
	tr := NewTracker(sink, nil, nil)
	user := &models.User{ID: "u1", Exp: 100}

	require.NoError(t, tr.AddExp(ctx, user, 50))
	assert.Equal(t, 150, tr.Exp(ctx, user))
	assert.Equal(t, []int{50}, sink.deltas, "only the delta is sent to the store")
}

func TestTracker_RollbackOnPersistenceFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := optimistic.NewCounter()
	notifier := &notifierStub{}
	var seenDuringCommit int64
	sink := &sinkStub{applyFn: func(ctx context.Context, userID string, _ int) error {
		seenDuringCommit, _, _ = mirror.Value(ctx, userID)
		return errDB
	}}
	tr := NewTracker(sink, mirror, notifier)
	user := &models.User{ID: "u1", Exp: 120}

	before := tr.Exp(ctx, user)
	err := tr.AddExp(ctx, user, 50)

	require.ErrorIs(t, err, errDB)
	assert.Equal(t, int64(170), seenDuringCommit)
	assert.Equal(t, before, tr.Exp(ctx, user))
	require.Len(t, notifier.toasts["u1"], 1)
	assert.Equal(t, notifications.LevelError, notifier.toasts["u1"][0].Level)
}

func TestTracker_RequiresUser(t *testing.T) {
	t.Parallel()

	tr := NewTracker(&sinkStub{}, nil, nil)
	err := tr.AddExp(context.Background(), nil, 10)
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestTracker_ZeroAmountIsNoop(t *testing.T) {
	t.Parallel()

	sink := &sinkStub{}
	tr := NewTracker(sink, nil, nil)
	require.NoError(t, tr.AddExp(context.Background(), &models.User{ID: "u1"}, 0))
	assert.Empty(t, sink.deltas)
}

func TestTracker_NegativeAmount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &sinkStub{}
	tr := NewTracker(sink, nil, nil)
	user := &models.User{ID: "u1", Exp: 30}

	require.NoError(t, tr.AddExp(ctx, user, -10))
	assert.Equal(t, 20, tr.Exp(ctx, user))
	assert.Equal(t, []int{-10}, sink.deltas)
}

func TestTracker_Award(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &sinkStub{}
	tr := NewTracker(sink, nil, nil)
	user := &models.User{ID: "u1"}

	for _, action := range []Action{ActionComment, ActionLike, ActionPost, ActionProfileEdit, ActionIdleTick} {
		require.NoError(t, tr.Award(ctx, user, action))
	}
	assert.Equal(t, []int{10, 5, 50, 20, 1}, sink.deltas)
	assert.Equal(t, 86, tr.Exp(ctx, user))

	assert.Error(t, tr.Award(ctx, user, Action("unknown")))
}

func TestTracker_ConcurrentFailuresOnlyUndoOwnDelta(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var calls int64
	sink := &sinkStub{applyFn: func(context.Context, string, int) error {
		if atomic.AddInt64(&calls, 1)%3 == 0 {
			return errDB
		}
		return nil
	}}
	tr := NewTracker(sink, nil, nil)
	user := &models.User{ID: "u1", Exp: 1000}

	const workers = 90
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.AddExp(ctx, user, 5)
		}()
	}
	wg.Wait()

	persisted := 0
	for _, d := range sink.deltas {
		persisted += d
	}
	assert.Equal(t, 1000+persisted, tr.Exp(ctx, user), "mirror matches the store after mixed outcomes")
	assert.Equal(t, (workers-workers/3)*5, persisted)
}

func TestTracker_SnapshotUsesMirror(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := NewTracker(&sinkStub{}, nil, nil)
	user := &models.User{ID: "u1", Username: "neo", Exp: 10}
	require.NoError(t, tr.AddExp(ctx, user, 5))

	snap := tr.Snapshot(ctx, user)
	assert.Equal(t, 15, snap.Exp)
	assert.Equal(t, "neo", snap.Username)
	assert.Equal(t, 10, user.Exp, "the original is untouched")
	assert.Nil(t, tr.Snapshot(ctx, nil))
}

// seedFailingMirror is a shared mirror that is reachable for reads but
// rejects seeding.
type seedFailingMirror struct {
	*optimistic.Counter
}

func (m seedFailingMirror) Seed(context.Context, string, int64) (bool, error) {
	return false, errors.New("HSETNX timed out")
}

// adjustFailingMirror rejects adjustments with the given sign.
type adjustFailingMirror struct {
	*optimistic.Counter
	failNegative bool
	failPositive bool
}

func (m adjustFailingMirror) Adjust(ctx context.Context, key string, delta int64) (int64, error) {
	if (delta < 0 && m.failNegative) || (delta > 0 && m.failPositive) {
		return 0, errors.New("HINCRBY timed out")
	}
	return m.Counter.Adjust(ctx, key, delta)
}

func TestTracker_SeedFailureDoesNotStoreBareDelta(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := optimistic.NewCounter()
	sink := &sinkStub{}
	tr := NewTracker(sink, seedFailingMirror{shared}, nil)
	user := &models.User{ID: "u1", Exp: 100}

	require.NoError(t, tr.AddExp(ctx, user, 5))
	assert.Equal(t, []int{5}, sink.deltas)

	_, tracked, _ := shared.Value(ctx, "u1")
	assert.False(t, tracked, "the shared mirror never holds the delta alone")
	assert.Equal(t, 105, tr.Exp(ctx, user))

	require.NoError(t, tr.AddExp(ctx, &models.User{ID: "u1", Exp: 105}, 5))
	assert.Equal(t, 110, tr.Exp(ctx, user))
}

func TestTracker_SeedFailureDropsStaleSharedEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := optimistic.NewCounter()
	_, _ = shared.Seed(ctx, "u1", 100)
	tr := NewTracker(&sinkStub{}, seedFailingMirror{shared}, nil)

	require.NoError(t, tr.AddExp(ctx, &models.User{ID: "u1", Exp: 100}, 5))

	_, tracked, _ := shared.Value(ctx, "u1")
	assert.False(t, tracked, "an entry that missed the delta is dropped")
}

func TestTracker_MissedAdjustIsReseededFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := adjustFailingMirror{Counter: optimistic.NewCounter(), failPositive: true}
	sink := &sinkStub{}
	tr := NewTracker(sink, mirror, nil)

	require.NoError(t, tr.AddExp(ctx, &models.User{ID: "u1", Exp: 100}, 5))
	assert.Equal(t, []int{5}, sink.deltas)

	_, tracked, _ := mirror.Value(ctx, "u1")
	assert.False(t, tracked)
	assert.Equal(t, 105, tr.Exp(ctx, &models.User{ID: "u1", Exp: 105}))
}

func TestTracker_FailedRollbackResetsMirror(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := adjustFailingMirror{Counter: optimistic.NewCounter(), failNegative: true}
	notifier := &notifierStub{}
	tr := NewTracker(&sinkStub{applyFn: func(context.Context, string, int) error { return errDB }}, mirror, notifier)
	user := &models.User{ID: "u1", Exp: 100}

	err := tr.AddExp(ctx, user, 50)
	require.ErrorIs(t, err, errDB)
	assert.True(t, optimistic.IsRollbackFailure(err))

	_, tracked, _ := mirror.Value(ctx, "u1")
	assert.False(t, tracked, "a mirror left ahead of the store is reset")
	assert.Equal(t, 100, tr.Exp(ctx, user))
	assert.Len(t, notifier.toasts["u1"], 1)
}
