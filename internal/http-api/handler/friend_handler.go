package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"pixelboard/internal/http-api/dto"
	"pixelboard/internal/http-api/middleware"
	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FriendHandler struct {
	friends service.FriendService
	logger  *slog.Logger
}

func NewFriendHandler(friends service.FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friends: friends, logger: logger}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req dto.SendFriendRequestRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing recipient_id"})
		return
	}

	created, err := h.friends.SendRequest(c.Request.Context(), middleware.CurrentUserID(c), req.RecipientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyFriends),
			errors.Is(err, service.ErrSelfRequest),
			errors.Is(err, service.ErrRequestPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient does not exist"})
		default:
			h.logger.Error("friend request failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send friend request"})
		}
		return
	}

	c.JSON(http.StatusCreated, friendRequestResponse(created))
}

func (h *FriendHandler) Accept(c *gin.Context) {
	h.resolveRequest(c, h.friends.Accept)
}

func (h *FriendHandler) Reject(c *gin.Context) {
	h.resolveRequest(c, h.friends.Reject)
}

func (h *FriendHandler) Cancel(c *gin.Context) {
	h.resolveRequest(c, h.friends.Cancel)
}

func (h *FriendHandler) resolveRequest(c *gin.Context, action func(ctx context.Context, userID, requestID string) error) {
	err := action(c.Request.Context(), middleware.CurrentUserID(c), c.Param("request_id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotRecipient):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			h.logger.Error("friend request update failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update friend request"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	err := h.friends.RemoveFriend(c.Request.Context(), middleware.CurrentUserID(c), c.Param("friend_id"))
	if err != nil {
		h.logger.Error("friend removal failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove friend"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.logger.Error("friend listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list friends"})
		return
	}

	out := make([]dto.FriendResponse, 0, len(friends))
	for _, f := range friends {
		out = append(out, dto.FriendResponse{ID: f.ID, Username: f.Username})
	}
	c.JSON(http.StatusOK, gin.H{"friends": out})
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	received, err := h.friends.PendingReceived(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("request listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list friend requests"})
		return
	}
	sent, err := h.friends.PendingSent(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("request listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list friend requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": friendRequestResponses(received),
		"sent":     friendRequestResponses(sent),
	})
}

func friendRequestResponse(req *models.FriendRequest) dto.FriendRequestResponse {
	return dto.FriendRequestResponse{
		ID:          req.ID,
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
	}
}

func friendRequestResponses(reqs []models.FriendRequest) []dto.FriendRequestResponse {
	out := make([]dto.FriendRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, friendRequestResponse(&reqs[i]))
	}
	return out
}
