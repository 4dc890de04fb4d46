package models

import "time"

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusArchived QuoteStatus = "archived"
)

// Quote: price offer to a client. Line items share the dimension/material
// shape of work-order items; only the header semantics differ.
type Quote struct {
	ID            uint   `gorm:"primaryKey"`
	QuoteNumber   string `gorm:"size:30;not null;uniqueIndex"` // QT-yymmdd-NNNN
	ClientID      uint   `gorm:"index;not null"`
	Client        Client
	Status        QuoteStatus `gorm:"size:20;not null;default:draft"`
	Subtotal      float64     // before VAT
	VATRate       float64     `gorm:"default:25"` // percent
	VATAmount     float64
	Total         float64
	ValidUntil    *time.Time
	BankAccountID *uint  `gorm:"index"` // payment info shown on the document
	Notes         string `gorm:"size:1000"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// QuoteItem: one quoted line, product or service
type QuoteItem struct {
	ID          uint  `gorm:"primaryKey"`
	QuoteID     uint  `gorm:"index;not null"`
	ProductID   *uint `gorm:"index"`
	IsService   bool  `gorm:"default:false"`
	ServiceID   *uint
	ProductName string  `gorm:"size:100"`
	Quantity    int     `gorm:"not null"`
	Width       float64 // mm
	Height      float64 // mm
	Area        float64 // m2
	UnitPrice   float64
	LineTotal   float64
	Notes       string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
