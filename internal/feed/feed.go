package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gossipgraph/backend/internal/models"
	"gossipgraph/backend/internal/relation"

	"gorm.io/gorm"
)

// DefaultPollInterval is the recheck cadence inside AwaitChange.
const DefaultPollInterval = 500 * time.Millisecond

// Default is the process-wide feed service, wired up in main.
var Default *Service

// Init sets up the package-level service.
func Init(db *gorm.DB, interval time.Duration, maxWaiters int) {
	Default = NewService(db, interval, maxWaiters)
}

// Node is a user as seen by the graph client.
type Node struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Signature string    `json:"signature"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Edge is a relationship as seen by the graph client. Deleted marks a
// tombstone: in a delta it is an instruction to drop the edge, not state to
// render.
type Edge struct {
	Source    uint          `json:"source"`
	Target    uint          `json:"target"`
	Type      relation.Type `json:"type"`
	LastMsgID uint          `json:"last_msg_id"`
	Deleted   bool          `json:"deleted"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PendingRequest is an undecided request addressed to the polling user.
type PendingRequest struct {
	ID       uint          `json:"id"`
	FromID   uint          `json:"from_id"`
	Type     relation.Type `json:"type"`
	Username string        `json:"username"`
}

// Update is one feed response: a full snapshot or a delta since a client
// timestamp. Cursor is opaque; clients may only compare it for equality.
type Update struct {
	Nodes      []Node           `json:"nodes"`
	Edges      []Edge           `json:"edges"`
	Requests   []PendingRequest `json:"requests,omitempty"`
	Cursor     string           `json:"cursor"`
	ServerTime int64            `json:"server_time"`
}

// Service computes per-user change fingerprints and serves snapshots and
// deltas from the relational store. It holds no graph state of its own, so
// any number of handler goroutines can share one instance.
type Service struct {
	db       *gorm.DB
	interval time.Duration
	waiters  *Waiters
}

func NewService(db *gorm.DB, interval time.Duration, maxWaiters int) *Service {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Service{db: db, interval: interval, waiters: NewWaiters(maxWaiters)}
}

// ComputeCursor fingerprints everything relevant to userID: the newest
// profile change anywhere (every node is visible in everyone's graph), the
// newest write to any edge touching the user including tombstones and message
// cursors, and the pending requests addressed to the user. Cheap enough to
// run every poll tick; three indexed lookups.
func (s *Service) ComputeCursor(userID uint) (string, error) {
	var userMax time.Time
	var u models.User
	err := s.db.Select("updated_at").Order("updated_at DESC").First(&u).Error
	if err == nil {
		userMax = u.UpdatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var edgeMax time.Time
	var r models.Relationship
	err = s.db.Select("updated_at").
		Where("from_id = ? OR to_id = ?", userID, userID).
		Order("updated_at DESC").
		First(&r).Error
	if err == nil {
		edgeMax = r.UpdatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var maxReqID int64
	row := s.db.Model(&models.RelationRequest{}).
		Select("COALESCE(MAX(id), 0)").
		Where("to_id = ? AND status = ?", userID, models.RequestPending).
		Row()
	if err := row.Scan(&maxReqID); err != nil {
		return "", err
	}

	var pendingCount int64
	err = s.db.Model(&models.RelationRequest{}).
		Where("to_id = ? AND status = ?", userID, models.RequestPending).
		Count(&pendingCount).Error
	if err != nil {
		return "", err
	}

	raw := fmt.Sprintf("%d|%d|%d|%d|%d",
		userMax.UTC().UnixNano(), edgeMax.UTC().UnixNano(), maxReqID, pendingCount, userID)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}

// Snapshot returns the full state relevant to userID.
func (s *Service) Snapshot(userID uint) (*Update, error) {
	cursor, err := s.ComputeCursor(userID)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	var edges []models.Relationship
	if err := s.db.Where("deleted_at IS NULL").Order("id").Find(&edges).Error; err != nil {
		return nil, err
	}

	var reqs []models.RelationRequest
	err = s.db.Preload("FromUser").
		Where("to_id = ? AND status = ?", userID, models.RequestPending).
		Order("id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	update := &Update{
		Nodes:      make([]Node, 0, len(users)),
		Edges:      make([]Edge, 0, len(edges)),
		Requests:   make([]PendingRequest, 0, len(reqs)),
		Cursor:     cursor,
		ServerTime: time.Now().UnixMilli(),
	}
	for _, u := range users {
		update.Nodes = append(update.Nodes, toNode(u))
	}
	for _, e := range edges {
		update.Edges = append(update.Edges, toEdge(e))
	}
	for _, r := range reqs {
		update.Requests = append(update.Requests, PendingRequest{
			ID: r.ID, FromID: r.FromID, Type: r.Type, Username: r.FromUser.Username,
		})
	}
	return update, nil
}

// Delta returns the users and edges written after since. Tombstoned edges are
// included with Deleted set so removals propagate instead of silently
// vanishing; each qualifying row appears exactly once.
func (s *Service) Delta(userID uint, since time.Time) (*Update, error) {
	cursor, err := s.ComputeCursor(userID)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.Where("updated_at > ?", since).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	var edges []models.Relationship
	if err := s.db.Where("updated_at > ?", since).Order("id").Find(&edges).Error; err != nil {
		return nil, err
	}

	update := &Update{
		Nodes:      make([]Node, 0, len(users)),
		Edges:      make([]Edge, 0, len(edges)),
		Cursor:     cursor,
		ServerTime: time.Now().UnixMilli(),
	}
	for _, u := range users {
		update.Nodes = append(update.Nodes, toNode(u))
	}
	for _, e := range edges {
		update.Edges = append(update.Edges, toEdge(e))
	}
	return update, nil
}

// AwaitChange rechecks the cursor on a fixed cadence until it differs from
// known, ctx is cancelled, or maxWait elapses. The wait is a plain cancellable
// sleep/recheck loop; no transaction or lock is held while parked. When the
// waiter cap is hit the call falls back to a single immediate recheck.
func (s *Service) AwaitChange(ctx context.Context, userID uint, known string, maxWait time.Duration) (string, bool, error) {
	cursor, err := s.ComputeCursor(userID)
	if err != nil {
		return "", false, err
	}
	if cursor != known {
		return cursor, true, nil
	}

	if !s.waiters.Acquire() {
		return cursor, false, nil
	}
	defer s.waiters.Release()

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return known, false, ctx.Err()
		case <-deadline.C:
			return known, false, nil
		case <-tick.C:
			cursor, err := s.ComputeCursor(userID)
			if err != nil {
				return "", false, err
			}
			if cursor != known {
				return cursor, true, nil
			}
		}
	}
}

func toNode(u models.User) Node {
	return Node{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.DisplayName,
		Avatar:    u.Avatar,
		Signature: u.Signature,
		UpdatedAt: u.UpdatedAt,
	}
}

func toEdge(e models.Relationship) Edge {
	return Edge{
		Source:    e.FromID,
		Target:    e.ToID,
		Type:      e.Type,
		LastMsgID: e.LastMsgID,
		Deleted:   e.DeletedAt != nil,
		UpdatedAt: e.UpdatedAt,
	}
}
