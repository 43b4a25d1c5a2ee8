package model

import "time"

// ParkingSlot represents a single parking space.
type ParkingSlot struct {
	ID         int64     `gorm:"primaryKey"`
	Type       string    `gorm:"size:32;not null;index"` // e.g. 2W, 4W
	IsOccupied bool      `gorm:"not null;index"`
	Location   string    `gorm:"size:256;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
