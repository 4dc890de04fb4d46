package models

import "time"

type DeliveryNoteStatus string

const (
	DeliveryNoteStatusGenerated DeliveryNoteStatus = "generated"
	DeliveryNoteStatusArchived  DeliveryNoteStatus = "archived"
)

// DeliveryNote: shipping document derived from a work order. Items are a
// snapshot taken at generation time, not live-linked to the order.
type DeliveryNote struct {
	ID             uint   `gorm:"primaryKey"`
	DeliveryNumber string `gorm:"size:30;not null;uniqueIndex"` // DNyymmdd-NNNNNN
	WorkOrderID    uint   `gorm:"index;not null"`
	ClientID       uint   `gorm:"index;not null"`
	Client         Client
	Status         DeliveryNoteStatus `gorm:"size:20;not null;default:generated"`
	Notes          string             `gorm:"size:500"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []DeliveryNoteItem `gorm:"foreignKey:DeliveryNoteID;constraint:OnDelete:CASCADE"`
}

// DeliveryNoteItem: snapshot of one order line at generation time
type DeliveryNoteItem struct {
	ID             uint    `gorm:"primaryKey"`
	DeliveryNoteID uint    `gorm:"index;not null"`
	ProductName    string  `gorm:"size:100"`
	Quantity       int     `gorm:"not null"`
	Width          float64 // mm
	Height         float64 // mm
	Area           float64 // m2
	Materials      string  `gorm:"size:500"` // comma-joined names of materials flagged for the note
	Notes          string  `gorm:"size:500"`
	CreatedAt      time.Time
}
