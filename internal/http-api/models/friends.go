package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

type FriendRequest struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID    string    `gorm:"index;not null" json:"sender_id"`
	RecipientID string    `gorm:"index;not null" json:"recipient_id"`
	Status      string    `gorm:"default:'pending';not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (fr *FriendRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if fr.ID == "" {
		fr.ID = uuid.New().String()
	}
	return
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship rows are written in pairs on accept, one per direction, so
// "friends of X" is a single indexed lookup.
type Friendship struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"index:idx_friendship,unique;not null" json:"user_id"`
	FriendID  string    `gorm:"index:idx_friendship,unique;not null" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}

func (Friendship) TableName() string {
	return "friendships"
}
