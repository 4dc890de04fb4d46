package models

import "time"

// InventoryItem: raw material on stock (glass sheets, fittings, consumables).
// Quantity is only ever changed together with a StockTransaction row, inside
// the same database transaction.
type InventoryItem struct {
	ID             uint     `gorm:"primaryKey"`
	Name           string   `gorm:"size:100;not null"`
	Code           string   `gorm:"size:50;index"`
	Unit           string   `gorm:"size:20;not null"` // m2, kom, kg, m
	Quantity       float64  `gorm:"not null;default:0"`
	Type           string   `gorm:"size:20"` // "glass" or empty
	GlassThickness *float64 // mm, only for glass items
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
