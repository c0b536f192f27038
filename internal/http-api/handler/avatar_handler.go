package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"pixelboard/internal/http-api/middleware"
	"pixelboard/internal/http-api/service"
	"pixelboard/internal/pixel"

	"github.com/gin-gonic/gin"
)

// maxAvatarUpload caps multipart reads; a valid 32x32 PNG is a few KB.
const maxAvatarUpload = 64 << 10

type AvatarHandler struct {
	avatars service.AvatarService
	logger  *slog.Logger
}

func NewAvatarHandler(avatars service.AvatarService, logger *slog.Logger) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, logger: logger}
}

// Serve returns the user's avatar PNG, falling back to the synthesized
// default. Public; cacheable.
func (h *AvatarHandler) Serve(c *gin.Context) {
	userID := c.Param("user_id")

	data, err := h.avatars.Serve(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("avatar lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load avatar"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", data)
}

// Save stores the authenticated user's avatar. mode=paint carries a base64
// (or data-URL) PNG in pixel_data; mode=upload carries a multipart PNG file.
// Validation happens before anything is persisted.
func (h *AvatarHandler) Save(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var err error
	switch mode := c.PostForm("mode"); mode {
	case "paint":
		pixelData := c.PostForm("pixel_data")
		if pixelData == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no pixel data received"})
			return
		}
		err = h.avatars.SavePaint(c.Request.Context(), userID, pixelData)

	case "upload":
		fileHeader, formErr := c.FormFile("avatar_file")
		if formErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
			return
		}
		file, openErr := fileHeader.Open()
		if openErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}
		defer file.Close()

		data, readErr := io.ReadAll(io.LimitReader(file, maxAvatarUpload))
		if readErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}
		err = h.avatars.SaveUpload(c.Request.Context(), userID, data)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	if err != nil {
		if isImageValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("avatar save failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save avatar"})
		return
	}

	c.Status(http.StatusNoContent)
}

// isImageValidationError matches the user-facing image taxonomy; everything
// else is an internal fault.
func isImageValidationError(err error) bool {
	return errors.Is(err, pixel.ErrInvalidSignature) ||
		errors.Is(err, pixel.ErrDimensionMismatch) ||
		errors.Is(err, pixel.ErrInvalidEncoding) ||
		errors.Is(err, pixel.ErrDataSizeMismatch)
}
