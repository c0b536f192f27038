package dto

import "time"

type SendFriendRequestRequest struct {
	RecipientID string `json:"recipient_id" form:"recipient_id" binding:"required"`
}

type FriendRequestResponse struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type FriendResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
