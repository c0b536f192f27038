package repository

import (
	"context"
	"time"

	"pixelboard/internal/http-api/models"

	"gorm.io/gorm"
)

type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	FindByID(ctx context.Context, id string) (*models.Board, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Board, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdatePixels(ctx context.Context, id string, pixels []byte) error
	Heartbeat(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type boardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(ctx context.Context, board *models.Board) error {
	return mapWriteError(r.db.WithContext(ctx).Create(board).Error)
}

func (r *boardRepository) FindByID(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) FindByUserID(ctx context.Context, userID string) ([]models.Board, error) {
	var boards []models.Board
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

func (r *boardRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Update("name", name).Error
}

func (r *boardRepository) UpdatePixels(ctx context.Context, id string, pixels []byte) error {
	return r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Update("pixels", pixels).Error
}

func (r *boardRepository) Heartbeat(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Update("last_connected_at", at).Error
}

func (r *boardRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Board{}, "id = ?", id).Error
}
