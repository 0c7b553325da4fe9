package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewGuard(client, logger), mr
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestNewSessionID(t *testing.T) {
	a, err := NewSessionID()
	require.NoError(t, err)
	b, err := NewSessionID()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestGuardCheckTiming(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("too fast", func(t *testing.T) {
		guard, _ := newTestGuard(t)
		require.NoError(t, guard.MarkFormStarted(ctx, "sid", "declaration", started))
		err := guard.CheckTiming(ctx, "sid", "declaration", started.Add(1*time.Second))
		assert.ErrorIs(t, err, ErrSoumissionTropRapide)
	})

	t.Run("humane pace", func(t *testing.T) {
		guard, _ := newTestGuard(t)
		require.NoError(t, guard.MarkFormStarted(ctx, "sid", "declaration", started))
		err := guard.CheckTiming(ctx, "sid", "declaration", started.Add(2*time.Minute))
		assert.NoError(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		guard, _ := newTestGuard(t)
		require.NoError(t, guard.MarkFormStarted(ctx, "sid", "declaration", started))
		err := guard.CheckTiming(ctx, "sid", "declaration", started.Add(31*time.Minute))
		assert.ErrorIs(t, err, ErrFormulaireExpire)
	})

	t.Run("missing timer counts as expired", func(t *testing.T) {
		guard, _ := newTestGuard(t)
		err := guard.CheckTiming(ctx, "sid", "declaration", started)
		assert.ErrorIs(t, err, ErrFormulaireExpire)
	})

	t.Run("malformed timer is dropped and skipped", func(t *testing.T) {
		guard, mr := newTestGuard(t)
		mr.Set("session:sid:timer:declaration", "pas-un-timestamp")

		err := guard.CheckTiming(ctx, "sid", "declaration", started)
		assert.NoError(t, err)
		assert.False(t, mr.Exists("session:sid:timer:declaration"))
	})

	t.Run("timers are scoped per form", func(t *testing.T) {
		guard, _ := newTestGuard(t)
		require.NoError(t, guard.MarkFormStarted(ctx, "sid", "declaration", started))
		err := guard.CheckTiming(ctx, "sid", "candidature", started.Add(time.Minute))
		assert.ErrorIs(t, err, ErrFormulaireExpire)
	})
}

func TestGuardClearFormTimer(t *testing.T) {
	ctx := context.Background()
	guard, _ := newTestGuard(t)
	started := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, guard.MarkFormStarted(ctx, "sid", "declaration", started))
	require.NoError(t, guard.ClearFormTimer(ctx, "sid", "declaration"))

	err := guard.CheckTiming(ctx, "sid", "declaration", started.Add(time.Minute))
	assert.ErrorIs(t, err, ErrFormulaireExpire, "a cleared timer means the form must be reopened")
}

func TestGuardRememberedCandidatures(t *testing.T) {
	ctx := context.Background()
	guard, mr := newTestGuard(t)

	ids, err := guard.RememberedCandidatures(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, guard.RememberCandidature(ctx, "sid", 7))
	require.NoError(t, guard.RememberCandidature(ctx, "sid", 12))
	require.NoError(t, guard.RememberCandidature(ctx, "sid", 7))

	ids, err = guard.RememberedCandidatures(ctx, "sid")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{7, 12}, ids)

	// Sessions do not see each other's applications.
	autres, err := guard.RememberedCandidatures(ctx, "autre")
	require.NoError(t, err)
	assert.Empty(t, autres)

	mr.FastForward(SuiviCandidatures + time.Second)
	ids, err = guard.RememberedCandidatures(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGuardQuota(t *testing.T) {
	ctx := context.Background()
	guard, mr := newTestGuard(t)

	require.NoError(t, guard.CheckQuota(ctx, "sid", "203.0.113.9"))

	for i := 0; i < MaxSoumissions; i++ {
		require.NoError(t, guard.RecordSubmission(ctx, "sid", "203.0.113.9"))
	}
	assert.ErrorIs(t, guard.CheckQuota(ctx, "sid", "203.0.113.9"), ErrTropDeSoumissions)

	// Another IP on the same session keeps its own counter.
	assert.NoError(t, guard.CheckQuota(ctx, "sid", "203.0.113.10"))

	// The counter resets once the window elapses.
	mr.FastForward(FenetreSoumissions + time.Second)
	assert.NoError(t, guard.CheckQuota(ctx, "sid", "203.0.113.9"))
}

func TestGuardConfirmation(t *testing.T) {
	ctx := context.Background()
	guard, _ := newTestGuard(t)

	type payload struct {
		TournoiID int    `json:"tournoi_id"`
		Club      string `json:"club"`
	}
	require.NoError(t, guard.StashConfirmation(ctx, "sid", "declaration", payload{TournoiID: 3, Club: "VB Nord"}))

	var got payload
	found, err := guard.PopConfirmation(ctx, "sid", "declaration", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload{TournoiID: 3, Club: "VB Nord"}, got)

	// One shot: a refresh finds nothing.
	found, err = guard.PopConfirmation(ctx, "sid", "declaration", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
