package repository

import (
	"context"

	"pixelboard/internal/http-api/models"

	"gorm.io/gorm"
)

type FriendRepository interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error)
	PendingForRecipient(ctx context.Context, recipientID string) ([]models.FriendRequest, error)
	PendingFromSender(ctx context.Context, senderID string) ([]models.FriendRequest, error)
	HasPendingBetween(ctx context.Context, senderID, recipientID string) (bool, error)
	DeleteRequest(ctx context.Context, id string) error

	// Accept flips the request status and writes both friendship directions
	// in one transaction.
	Accept(ctx context.Context, req *models.FriendRequest) error
	Reject(ctx context.Context, req *models.FriendRequest) error

	FriendsOf(ctx context.Context, userID string) ([]models.User, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	DeleteFriendship(ctx context.Context, userID, friendID string) error
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	return mapWriteError(r.db.WithContext(ctx).Create(req).Error)
}

func (r *friendRepository) FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *friendRepository) PendingForRecipient(ctx context.Context, recipientID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, models.FriendRequestPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *friendRepository) PendingFromSender(ctx context.Context, senderID string) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", senderID, models.FriendRequestPending).
		Order("created_at").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *friendRepository) HasPendingBetween(ctx context.Context, senderID, recipientID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("sender_id = ? AND recipient_id = ? AND status = ?", senderID, recipientID, models.FriendRequestPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *friendRepository) DeleteRequest(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.FriendRequest{}, "id = ?", id).Error
}

func (r *friendRepository) Accept(ctx context.Context, req *models.FriendRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(req).Update("status", models.FriendRequestAccepted).Error; err != nil {
			return err
		}
		pair := []models.Friendship{
			{UserID: req.SenderID, FriendID: req.RecipientID},
			{UserID: req.RecipientID, FriendID: req.SenderID},
		}
		return mapWriteError(tx.Create(&pair).Error)
	})
}

func (r *friendRepository) Reject(ctx context.Context, req *models.FriendRequest) error {
	return r.db.WithContext(ctx).Model(req).Update("status", models.FriendRequestRejected).Error
}

func (r *friendRepository) FriendsOf(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *friendRepository) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *friendRepository) DeleteFriendship(ctx context.Context, userID, friendID string) error {
	return r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Delete(&models.Friendship{}).Error
}
