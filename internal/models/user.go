package models

import "time"

// User represents a node in the social graph.
//
// Registration and credential handling live in the auth collaborator; this
// service only mutates profile fields. UpdatedAt is bumped on any profile
// change and is one of the inputs to the change-feed fingerprint.
type User struct {
	ID          uint   `gorm:"primaryKey"`
	Username    string `gorm:"size:50;unique;not null"`
	DisplayName string `gorm:"size:100;not null"`
	Avatar      string `gorm:"size:50;not null;default:'0.png'"`
	Signature   string `gorm:"size:160"`
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index"`
}
