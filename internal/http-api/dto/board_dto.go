package dto

import "time"

type CreateBoardRequest struct {
	Type string `json:"board_type" binding:"required"`
}

type RenameBoardRequest struct {
	Name string `json:"board_name" binding:"required"`
}

type PaintRequest struct {
	PixelData string `json:"pixel_data" form:"pixel_data" binding:"required"`
}

// DeviceLogRequest is the physical board's check-in payload; the secret is
// the one handed out at board creation.
type DeviceLogRequest struct {
	BoardID   string `json:"board_id" binding:"required"`
	Secret    string `json:"secret" binding:"required"`
	PixelData string `json:"pixel_data"`
}

type BoardResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type CreateBoardResponse struct {
	Board BoardResponse `json:"board"`
	// Secret is shown exactly once, for the device config download.
	Secret string `json:"secret"`
}

type BoardStatusResponse struct {
	ID              string     `json:"id"`
	Active          bool       `json:"active"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
}
