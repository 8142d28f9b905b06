package models

import (
	"time"

	"gossipgraph/backend/internal/relation"
)

// Relationship represents a single logical edge between two users.
//
// For undirected types the pair is canonicalized (from_id < to_id) before
// writing, so the composite unique index guarantees at most one row per
// logical edge even under concurrent writers. Directed types keep their
// direction and both directions may exist as separate rows.
//
// DeletedAt is a plain nullable timestamp, not gorm's soft-delete type: the
// change-feed must read tombstones to emit removal deltas, so queries control
// tombstone visibility explicitly.
type Relationship struct {
	ID     uint          `gorm:"primaryKey"`
	FromID uint          `gorm:"not null;uniqueIndex:idx_relationship_pair"`
	ToID   uint          `gorm:"not null;uniqueIndex:idx_relationship_pair"`
	Type   relation.Type `gorm:"type:varchar(20);not null"`

	// Denormalized cursor into the messaging collaborator; written through
	// TouchMessageCursor, never by the edge workflow itself.
	LastMsgID   uint `gorm:"not null;default:0"`
	LastMsgTime *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time  `gorm:"index"`
	DeletedAt *time.Time `gorm:"index"`

	FromUser User `gorm:"foreignKey:FromID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToUser   User `gorm:"foreignKey:ToID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Active reports whether the edge is live (not tombstoned).
func (r *Relationship) Active() bool {
	return r.DeletedAt == nil
}
