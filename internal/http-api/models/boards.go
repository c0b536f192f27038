package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Board is a 32x32 pixel board owned by a user. Physical boards poll
// /api/log with their device secret; the stored hash is bcrypt.
type Board struct {
	ID              string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string     `gorm:"index;not null" json:"user_id"`
	Name            string     `gorm:"not null" json:"name"`
	Type            string     `gorm:"not null" json:"type"` // Stellar | Galactic | Cosmic
	SecretHash      string     `gorm:"column:secret_hash;not null" json:"-"`
	Pixels          []byte     `gorm:"type:bytea" json:"-"` // raw 3072-byte RGB canvas
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (board *Board) BeforeCreate(tx *gorm.DB) (err error) {
	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	return
}

func (Board) TableName() string {
	return "boards"
}
