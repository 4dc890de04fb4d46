package models

import "time"

// Client: customer of the workshop (company or private person)
type Client struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Address   string `gorm:"size:255"`
	City      string `gorm:"size:100"`
	TaxNumber string `gorm:"size:50"` // OIB / VAT id, optional for private persons
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	Notes     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
