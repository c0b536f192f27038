package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixelboard/internal/http-api/models"
	"pixelboard/internal/http-api/repository"
	"pixelboard/internal/pixel"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidBoardType = errors.New("invalid board type")
	ErrBoardNotFound    = errors.New("board does not exist")
	ErrNotBoardOwner    = errors.New("board belongs to another user")
	ErrInvalidSecret    = errors.New("invalid device secret")
)

// boardTypes are the sizes a physical board can be sold as. Stored
// capitalized, matched case-insensitively.
var boardTypes = []string{"Stellar", "Galactic", "Cosmic"}

// activeWindow: a board counts as active if its device checked in this recently.
const activeWindow = 5 * time.Minute

// imageCacheTTL matches the Cache-Control max-age on the image route.
const imageCacheTTL = time.Minute

type BoardService interface {
	// Create returns the board and its one-time device secret. Only the
	// bcrypt hash is stored; the plaintext is shown once for the device
	// config download.
	Create(ctx context.Context, userID, boardType string) (*models.Board, string, error)
	Get(ctx context.Context, userID, boardID string) (*models.Board, error)
	List(ctx context.Context, userID string) ([]models.Board, error)
	Rename(ctx context.Context, userID, boardID, name string) (*models.Board, error)
	Delete(ctx context.Context, userID, boardID string) error

	// Paint accepts a base64-encoded raw 3072-byte RGB canvas.
	Paint(ctx context.Context, userID, boardID, pixelData string) error
	// Image renders the board's canvas as a PNG.
	Image(ctx context.Context, boardID string) ([]byte, error)
	// Status reports whether the board's device heartbeated recently.
	Status(ctx context.Context, userID, boardID string) (*models.Board, bool, error)

	// DeviceLog is the device check-in: secret-authenticated heartbeat with
	// an optional canvas frame.
	DeviceLog(ctx context.Context, boardID, secret, pixelData string) error
}

type boardService struct {
	boards repository.BoardRepository
	rdb    *redis.Client
}

// NewBoardService builds the board service. A nil redis client disables the
// rendered-frame cache.
func NewBoardService(boards repository.BoardRepository, rdb *redis.Client) BoardService {
	return &boardService{boards: boards, rdb: rdb}
}

func (s *boardService) Create(ctx context.Context, userID, boardType string) (*models.Board, string, error) {
	var canonical string
	for _, t := range boardTypes {
		if strings.EqualFold(t, boardType) {
			canonical = t
			break
		}
	}
	if canonical == "" {
		return nil, "", fmt.Errorf("%w: %q (valid types: %s)", ErrInvalidBoardType, boardType, strings.Join(boardTypes, ", "))
	}

	secret, err := newDeviceSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	board := &models.Board{
		UserID:     userID,
		Name:       canonical + " Board",
		Type:       canonical,
		SecretHash: string(hash),
		Pixels:     pixel.BlankCanvas(),
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, "", err
	}
	return board, secret, nil
}

func (s *boardService) Get(ctx context.Context, userID, boardID string) (*models.Board, error) {
	return s.owned(ctx, userID, boardID)
}

func (s *boardService) List(ctx context.Context, userID string) ([]models.Board, error) {
	return s.boards.FindByUserID(ctx, userID)
}

func (s *boardService) Rename(ctx context.Context, userID, boardID, name string) (*models.Board, error) {
	board, err := s.owned(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.boards.UpdateName(ctx, boardID, name); err != nil {
		return nil, err
	}
	board.Name = name
	return board, nil
}

func (s *boardService) Delete(ctx context.Context, userID, boardID string) error {
	if _, err := s.owned(ctx, userID, boardID); err != nil {
		return err
	}
	if err := s.boards.Delete(ctx, boardID); err != nil {
		return err
	}
	s.invalidateImage(ctx, boardID)
	return nil
}

func (s *boardService) Paint(ctx context.Context, userID, boardID, pixelData string) error {
	if _, err := s.owned(ctx, userID, boardID); err != nil {
		return err
	}
	data, err := pixel.DecodeBase64Image(pixelData)
	if err != nil {
		return err
	}
	if err := pixel.ValidateCanvas(data); err != nil {
		return err
	}
	if err := s.boards.UpdatePixels(ctx, boardID, data); err != nil {
		return err
	}
	s.invalidateImage(ctx, boardID)
	return nil
}

func (s *boardService) Image(ctx context.Context, boardID string) ([]byte, error) {
	if s.rdb != nil {
		if data, err := s.rdb.Get(ctx, imageKey(boardID)).Bytes(); err == nil && len(data) > 0 {
			return data, nil
		}
	}

	board, err := s.find(ctx, boardID)
	if err != nil {
		return nil, err
	}
	pixels := board.Pixels
	if len(pixels) != pixel.CanvasSize {
		pixels = pixel.BlankCanvas()
	}
	data, err := pixel.EncodePNG(pixels)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		// best-effort; a failed cache write never fails the render
		s.rdb.Set(ctx, imageKey(boardID), data, imageCacheTTL)
	}
	return data, nil
}

func (s *boardService) Status(ctx context.Context, userID, boardID string) (*models.Board, bool, error) {
	board, err := s.owned(ctx, userID, boardID)
	if err != nil {
		return nil, false, err
	}
	active := board.LastConnectedAt != nil && time.Since(*board.LastConnectedAt) < activeWindow
	return board, active, nil
}

func (s *boardService) DeviceLog(ctx context.Context, boardID, secret, pixelData string) error {
	board, err := s.find(ctx, boardID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(board.SecretHash), []byte(secret)) != nil {
		return ErrInvalidSecret
	}
	if err := s.boards.Heartbeat(ctx, boardID, time.Now().UTC()); err != nil {
		return err
	}
	if pixelData == "" {
		return nil
	}
	data, err := pixel.DecodeBase64Image(pixelData)
	if err != nil {
		return err
	}
	if err := pixel.ValidateCanvas(data); err != nil {
		return err
	}
	if err := s.boards.UpdatePixels(ctx, boardID, data); err != nil {
		return err
	}
	s.invalidateImage(ctx, boardID)
	return nil
}

func (s *boardService) find(ctx context.Context, boardID string) (*models.Board, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (s *boardService) owned(ctx context.Context, userID, boardID string) (*models.Board, error) {
	board, err := s.find(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.UserID != userID {
		return nil, ErrNotBoardOwner
	}
	return board, nil
}

func (s *boardService) invalidateImage(ctx context.Context, boardID string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, imageKey(boardID))
	}
}

func imageKey(boardID string) string {
	return "board-image:" + boardID
}

func newDeviceSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate device secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
