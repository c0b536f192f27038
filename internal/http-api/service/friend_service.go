package service

import (
	"context"
	"errors"
	"log/slog"

	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrAlreadyFriends  = errors.New("users are already friends")
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrRequestPending  = errors.New("a friend request is already pending")
	ErrRequestNotFound = errors.New("friend request does not exist")
	ErrNotRecipient    = errors.New("friend request is addressed to another user")
)

// Notifier sends out-of-band notifications. Implemented by internal/mailer;
// a nil Notifier disables notifications entirely.
type Notifier interface {
	SendFriendRequest(toEmail, fromUsername string) error
}

type FriendService interface {
	SendRequest(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error)
	Accept(ctx context.Context, userID, requestID string) error
	Reject(ctx context.Context, userID, requestID string) error
	Cancel(ctx context.Context, userID, requestID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
	Friends(ctx context.Context, userID string) ([]models.User, error)
	PendingReceived(ctx context.Context, userID string) ([]models.FriendRequest, error)
	PendingSent(ctx context.Context, userID string) ([]models.FriendRequest, error)
}

type friendService struct {
	friends  repository.FriendRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewFriendService(friends repository.FriendRepository, users repository.UserRepository, notifier Notifier, logger *slog.Logger) FriendService {
	return &friendService{friends: friends, users: users, notifier: notifier, logger: logger}
}

func (s *friendService) SendRequest(ctx context.Context, senderID, recipientID string) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfRequest
	}

	recipient, err := s.users.FindByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	already, err := s.friends.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyFriends
	}

	pending, err := s.friends.HasPendingBetween(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrRequestPending
	}

	req := &models.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.FriendRequestPending,
	}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	// Notification is best-effort; the request stands either way.
	if s.notifier != nil {
		sender, err := s.users.FindByID(ctx, senderID)
		if err == nil {
			if err := s.notifier.SendFriendRequest(recipient.Email, sender.Username); err != nil {
				s.logger.Warn("friend request notification failed", "recipient", recipientID, "error", err)
			}
		}
	}

	return req, nil
}

func (s *friendService) Accept(ctx context.Context, userID, requestID string) error {
	req, err := s.pendingFor(ctx, userID, requestID)
	if err != nil {
		return err
	}
	return s.friends.Accept(ctx, req)
}

func (s *friendService) Reject(ctx context.Context, userID, requestID string) error {
	req, err := s.pendingFor(ctx, userID, requestID)
	if err != nil {
		return err
	}
	return s.friends.Reject(ctx, req)
}

func (s *friendService) Cancel(ctx context.Context, userID, requestID string) error {
	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != userID {
		return ErrNotRecipient
	}
	return s.friends.DeleteRequest(ctx, requestID)
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.friends.DeleteFriendship(ctx, userID, friendID)
}

func (s *friendService) Friends(ctx context.Context, userID string) ([]models.User, error) {
	return s.friends.FriendsOf(ctx, userID)
}

func (s *friendService) PendingReceived(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return s.friends.PendingForRecipient(ctx, userID)
}

func (s *friendService) PendingSent(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return s.friends.PendingFromSender(ctx, userID)
}

func (s *friendService) findRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	req, err := s.friends.FindRequestByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *friendService) pendingFor(ctx context.Context, userID, requestID string) (*models.FriendRequest, error) {
	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != userID {
		return nil, ErrNotRecipient
	}
	if req.Status != models.FriendRequestPending {
		return nil, ErrRequestNotFound
	}
	return req, nil
}
