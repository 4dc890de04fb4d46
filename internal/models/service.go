package models

import "time"

// Service: labor-only line offered on quotes and work orders (e.g. mounting).
// Carries no material consumption of its own.
type Service struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:255"`
	Price       float64
	Unit        string `gorm:"size:20"` // kom, h
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
