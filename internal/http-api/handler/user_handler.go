package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"pixelboard/internal/http-api/dto"
	"pixelboard/internal/http-api/repository"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserHandler(users repository.UserRepository, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// CheckUsername reports whether a username is free to claim.
func (h *UserHandler) CheckUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if len(username) < 4 {
		c.JSON(http.StatusBadRequest, dto.UsernameAvailabilityResponse{
			Username:  username,
			Available: false,
			Message:   "Username must be longer than 3 characters",
		})
		return
	}

	exists, err := h.users.UsernameExists(c.Request.Context(), username)
	if err != nil {
		h.logger.Error("username check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check username"})
		return
	}

	if exists {
		c.JSON(http.StatusOK, dto.UsernameAvailabilityResponse{
			Username:  username,
			Available: false,
			Message:   fmt.Sprintf("%s is not available", username),
		})
		return
	}
	c.JSON(http.StatusOK, dto.UsernameAvailabilityResponse{
		Username:  username,
		Available: true,
		Message:   fmt.Sprintf("%s is available!", username),
	})
}

// Search finds users by (partial) username, for the add-friend flow.
func (h *UserHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("username"))
	if query == "" {
		c.JSON(http.StatusOK, dto.UserSearchResponse{Users: []dto.FriendResponse{}})
		return
	}

	users, err := h.users.SearchByUsername(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("user search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search users"})
		return
	}

	out := make([]dto.FriendResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.FriendResponse{ID: u.ID, Username: u.Username})
	}
	c.JSON(http.StatusOK, dto.UserSearchResponse{Users: out})
}
