package models

import (
	"time"

	"gossipgraph/backend/internal/relation"
)

// RequestStatus defines the state of a relation request.
type RequestStatus string

const (
	// RequestPending means the request awaits a decision by its addressee.
	RequestPending RequestStatus = "PENDING"

	// RequestAccepted and RequestRejected are terminal. A new proposal after
	// rejection creates a brand-new request row; history is never deleted.
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
)

// RelationRequest is one side's proposal of a new edge, or of a type change
// to an existing edge. Edges are only ever materialized by accepting one of
// these; removal is the single unilateral operation.
type RelationRequest struct {
	ID     uint          `gorm:"primaryKey"`
	FromID uint          `gorm:"not null;index"`
	ToID   uint          `gorm:"not null;index"`
	Type   relation.Type `gorm:"type:varchar(20);not null"`
	Status RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	FromUser User `gorm:"foreignKey:FromID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToUser   User `gorm:"foreignKey:ToID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
