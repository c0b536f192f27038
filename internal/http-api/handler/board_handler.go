package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"pixelboard/internal/http-api/dto"
	"pixelboard/internal/http-api/middleware"
	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	boards service.BoardService
	logger *slog.Logger
}

func NewBoardHandler(boards service.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, logger: logger}
}

func (h *BoardHandler) Create(c *gin.Context) {
	var req dto.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, secret, err := h.boards.Create(c.Request.Context(), middleware.CurrentUserID(c), req.Type)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBoardType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("board creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create board"})
		return
	}

	c.JSON(http.StatusCreated, dto.CreateBoardResponse{
		Board:  boardResponse(board),
		Secret: secret,
	})
}

func (h *BoardHandler) List(c *gin.Context) {
	boards, err := h.boards.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.logger.Error("board listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list boards"})
		return
	}

	out := make([]dto.BoardResponse, 0, len(boards))
	for i := range boards {
		out = append(out, boardResponse(&boards[i]))
	}
	c.JSON(http.StatusOK, gin.H{"boards": out})
}

func (h *BoardHandler) Get(c *gin.Context) {
	board, err := h.boards.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("board_id"))
	if err != nil {
		h.respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, boardResponse(board))
}

func (h *BoardHandler) Rename(c *gin.Context) {
	var req dto.RenameBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := h.boards.Rename(c.Request.Context(), middleware.CurrentUserID(c), c.Param("board_id"), req.Name)
	if err != nil {
		h.respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, boardResponse(board))
}

func (h *BoardHandler) Delete(c *gin.Context) {
	if err := h.boards.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("board_id")); err != nil {
		h.respondBoardError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) Status(c *gin.Context) {
	board, active, err := h.boards.Status(c.Request.Context(), middleware.CurrentUserID(c), c.Param("board_id"))
	if err != nil {
		h.respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BoardStatusResponse{
		ID:              board.ID,
		Active:          active,
		LastConnectedAt: board.LastConnectedAt,
	})
}

// Paint accepts the base64 raw canvas (exactly 3072 RGB bytes once decoded).
func (h *BoardHandler) Paint(c *gin.Context) {
	var req dto.PaintRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.boards.Paint(c.Request.Context(), middleware.CurrentUserID(c), c.Param("board_id"), req.PixelData)
	if err != nil {
		if isImageValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondBoardError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Image renders the board canvas as a PNG. Public, like avatars.
func (h *BoardHandler) Image(c *gin.Context) {
	data, err := h.boards.Image(c.Request.Context(), c.Param("board_id"))
	if err != nil {
		h.respondBoardError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "image/png", data)
}

// DeviceLog is the physical board's check-in endpoint, authenticated by the
// board's device secret rather than a session.
func (h *BoardHandler) DeviceLog(c *gin.Context) {
	var req dto.DeviceLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.boards.DeviceLog(c.Request.Context(), req.BoardID, req.Secret, req.PixelData)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSecret):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrBoardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case isImageValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("device log failed", "board_id", req.BoardID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "device log failed"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) respondBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBoardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotBoardOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.Error("board operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "board operation failed"})
	}
}

func boardResponse(board *models.Board) dto.BoardResponse {
	return dto.BoardResponse{
		ID:              board.ID,
		Name:            board.Name,
		Type:            board.Type,
		LastConnectedAt: board.LastConnectedAt,
		CreatedAt:       board.CreatedAt,
	}
}
