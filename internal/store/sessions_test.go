package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bestmuadata/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.StartSession(ctx, "3f2c9a4e-run")
	require.NoError(t, err)
	assert.Equal(t, model.SessionRunning, sess.Status)
	assert.Equal(t, "3f2c9a4e-run", sess.RunID)
	assert.True(t, sess.StartedAt.Equal(testClock))
	assert.Nil(t, sess.FinishedAt)

	s.now = func() time.Time { return testClock.Add(10 * time.Minute) }
	stats := model.CrawlStats{CategoriesFound: 4, ProductsFound: 20, ProductsCreated: 15, ProductsUpdated: 3, Errors: 2}
	require.NoError(t, s.FinishSession(ctx, sess.ID, model.SessionCompleted, stats, "kem-nen: 404"))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, got.Status)
	assert.Equal(t, 4, got.CategoriesFound)
	assert.Equal(t, 20, got.ProductsFound)
	assert.Equal(t, 15, got.ProductsCreated)
	assert.Equal(t, 3, got.ProductsUpdated)
	assert.Equal(t, "kem-nen: 404", got.Errors)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(testClock.Add(10*time.Minute)))

	// Unknown ids are ignored
	assert.NoError(t, s.FinishSession(ctx, sess.ID+100, model.SessionFailed, model.CrawlStats{}, ""))

	_, err = s.GetSession(ctx, sess.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentSessionsAndCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, 2 * time.Hour} {
		s.now = func() time.Time { return testClock.Add(-age) }
		_, err := s.StartSession(ctx, "run-"+string(rune('a'+i)))
		require.NoError(t, err)
	}

	recent, err := s.RecentSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-c", recent[0].RunID)
	assert.Equal(t, "run-b", recent[1].RunID)

	s.now = func() time.Time { return testClock }
	removed, err := s.CleanupSessions(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := s.RecentSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "run-c", left[0].RunID)
}
