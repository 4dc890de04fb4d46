package models

import "time"

type PriceType string

const (
	PriceTypePerSquareMeter PriceType = "per_m2"
	PriceTypePerLinearMeter PriceType = "per_m"
	PriceTypePerPiece       PriceType = "per_piece"
	PriceTypePerHour        PriceType = "per_hour"
)

// Process: a production operation (cutting, edging, tempering...).
// Priced either flat (Price + PriceType) or per glass thickness
// (ThicknessPrices) - never both, the handler enforces exclusivity.
type Process struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:100;not null"`
	Description       string `gorm:"size:255"`
	Order             int    `gorm:"column:sort_order;not null;default:0"` // execution/display sequence
	EstimatedDuration int    `gorm:"default:0"`                           // minutes
	Price             *float64
	PriceType         PriceType `gorm:"size:20"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	ThicknessPrices []ProcessThicknessPrice `gorm:"foreignKey:ProcessID;constraint:OnDelete:CASCADE"`
}

// ProcessThicknessPrice: price row for one glass thickness
type ProcessThicknessPrice struct {
	ID        uint    `gorm:"primaryKey"`
	ProcessID uint    `gorm:"index;not null"`
	Thickness float64 `gorm:"not null"` // mm
	Price     float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
