package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gossipgraph/backend/internal/models"
	"gossipgraph/backend/internal/relation"
	"gossipgraph/backend/internal/relationship"
	"gossipgraph/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestFeed(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Relationship{}, &models.RelationRequest{}))
	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, db.Create(&models.User{Username: name, DisplayName: name}).Error)
	}
	return NewService(db, 5*time.Millisecond, 4), db
}

func establish(t *testing.T, db *gorm.DB, from, to uint, ty relation.Type) {
	t.Helper()
	svc := relationship.NewService(db)
	require.NoError(t, svc.Propose(from, to, ty))
	var req models.RelationRequest
	require.NoError(t, db.Where("from_id = ? AND to_id = ? AND status = ?", from, to, models.RequestPending).First(&req).Error)
	require.NoError(t, svc.Accept(req.ID, to))
}

func TestCursorStableWithoutChange(t *testing.T) {
	s, _ := newTestFeed(t)

	c1, err := s.ComputeCursor(1)
	require.NoError(t, err)
	c2, err := s.ComputeCursor(1)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestCursorDiffersPerUser(t *testing.T) {
	s, _ := newTestFeed(t)

	c1, err := s.ComputeCursor(1)
	require.NoError(t, err)
	c2, err := s.ComputeCursor(2)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2, "the fingerprint is salted with the user ID")
}

func TestCursorAdvancesThroughHandshakeLifecycle(t *testing.T) {
	s, db := newTestFeed(t)
	svc := relationship.NewService(db)

	seen := map[string]bool{}
	checkpoint := func(stage string) {
		c, err := s.ComputeCursor(2)
		require.NoError(t, err)
		assert.False(t, seen[c], "cursor reused at stage %q", stage)
		seen[c] = true
	}

	checkpoint("initial")

	require.NoError(t, svc.Propose(1, 2, relation.TypeDating))
	checkpoint("pending request addressed to user")

	var req models.RelationRequest
	require.NoError(t, db.Where("status = ?", models.RequestPending).First(&req).Error)
	require.NoError(t, svc.Accept(req.ID, 2))
	checkpoint("edge materialized")

	require.NoError(t, svc.Remove(2, 1))
	checkpoint("edge tombstoned")
}

func TestCursorObservesProfileAndMessageWrites(t *testing.T) {
	s, db := newTestFeed(t)
	establish(t, db, 1, 2, relation.TypeDating)

	before, err := s.ComputeCursor(2)
	require.NoError(t, err)

	require.NoError(t, store.NewEdgeStore(db).TouchMessageCursor(1, 2, 7, time.Now()))
	afterMsg, err := s.ComputeCursor(2)
	require.NoError(t, err)
	assert.NotEqual(t, before, afterMsg, "message cursor writes must move the fingerprint")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", 3).
		Update("signature", "new gossip").Error)
	afterProfile, err := s.ComputeCursor(2)
	require.NoError(t, err)
	assert.NotEqual(t, afterMsg, afterProfile, "any profile change is visible in everyone's graph")
}

func TestSnapshotContents(t *testing.T) {
	s, db := newTestFeed(t)
	establish(t, db, 1, 2, relation.TypeDating)
	require.NoError(t, relationship.NewService(db).Propose(3, 2, relation.TypeCrush))

	update, err := s.Snapshot(2)
	require.NoError(t, err)

	assert.Len(t, update.Nodes, 3)
	require.Len(t, update.Edges, 1)
	assert.False(t, update.Edges[0].Deleted)
	require.Len(t, update.Requests, 1)
	assert.Equal(t, uint(3), update.Requests[0].FromID)
	assert.Equal(t, "carol", update.Requests[0].Username)
	assert.NotEmpty(t, update.Cursor)

	// Other users never see requests addressed to someone else.
	other, err := s.Snapshot(1)
	require.NoError(t, err)
	assert.Empty(t, other.Requests)
}

func TestSnapshotExcludesTombstones(t *testing.T) {
	s, db := newTestFeed(t)
	establish(t, db, 1, 2, relation.TypeDating)
	require.NoError(t, relationship.NewService(db).Remove(1, 2))

	update, err := s.Snapshot(1)
	require.NoError(t, err)
	assert.Empty(t, update.Edges)
}

func TestDeltaEmitsTombstoneExactlyOnce(t *testing.T) {
	s, db := newTestFeed(t)
	establish(t, db, 1, 2, relation.TypeDating)

	since := time.Now().Add(-time.Minute)
	require.NoError(t, relationship.NewService(db).Remove(1, 2))

	update, err := s.Delta(1, since)
	require.NoError(t, err)

	removed := 0
	for _, e := range update.Edges {
		if e.Deleted {
			removed++
			assert.Equal(t, uint(1), e.Source)
			assert.Equal(t, uint(2), e.Target)
		}
	}
	assert.Equal(t, 1, removed, "a removal must appear as exactly one deleted edge")
}

func TestDeltaFiltersBySince(t *testing.T) {
	s, db := newTestFeed(t)
	establish(t, db, 1, 2, relation.TypeDating)

	update, err := s.Delta(1, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, update.Nodes)
	assert.Empty(t, update.Edges)

	update, err = s.Delta(1, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, update.Nodes, 3)
	assert.Len(t, update.Edges, 1)
}

func TestAwaitChangeReturnsImmediatelyWhenCursorMoved(t *testing.T) {
	s, db := newTestFeed(t)

	stale := "not-the-current-cursor"
	establish(t, db, 1, 2, relation.TypeDating)

	start := time.Now()
	cursor, changed, err := s.AwaitChange(context.Background(), 1, stale, time.Second)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, stale, cursor)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "no wait loop when already changed")
}

func TestAwaitChangeTimesOutUnchanged(t *testing.T) {
	s, _ := newTestFeed(t)

	known, err := s.ComputeCursor(1)
	require.NoError(t, err)

	cursor, changed, err := s.AwaitChange(context.Background(), 1, known, 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, known, cursor)
}

func TestAwaitChangeDetectsConcurrentMutation(t *testing.T) {
	s, db := newTestFeed(t)

	known, err := s.ComputeCursor(2)
	require.NoError(t, err)

	go func() {
		time.Sleep(15 * time.Millisecond)
		_ = relationship.NewService(db).Propose(1, 2, relation.TypeDating)
	}()

	cursor, changed, err := s.AwaitChange(context.Background(), 2, known, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, known, cursor)
}

func TestAwaitChangeStopsOnCancel(t *testing.T) {
	s, _ := newTestFeed(t)

	known, err := s.ComputeCursor(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, changed, err := s.AwaitChange(ctx, 1, known, 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, changed)
	assert.Less(t, time.Since(start), time.Second, "the wait loop must not outlive its request context")
}

func TestAwaitChangeFallsBackAtWaiterCap(t *testing.T) {
	s, _ := newTestFeed(t)
	s.waiters = NewWaiters(0)

	known, err := s.ComputeCursor(1)
	require.NoError(t, err)

	start := time.Now()
	cursor, changed, err := s.AwaitChange(context.Background(), 1, known, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, known, cursor)
	assert.Less(t, time.Since(start), time.Second, "at the cap the call degrades to a short poll")
}
