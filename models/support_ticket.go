package models

import (
	"time"

	"gorm.io/gorm"
)

type TicketCategory string

const (
	TicketPayment    TicketCategory = "payment"
	TicketWithdrawal TicketCategory = "withdrawal"
	TicketTournament TicketCategory = "tournament"
	TicketAccount    TicketCategory = "account"
	TicketOther      TicketCategory = "other"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketPayment, TicketWithdrawal, TicketTournament, TicketAccount, TicketOther:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

type SupportTicket struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string         `gorm:"not null;index" json:"user_id"`
	Category    TicketCategory `gorm:"type:varchar(16);not null" json:"category"`
	Subject     string         `gorm:"not null" json:"subject"`
	Message     string         `gorm:"type:text" json:"message"`
	ReferenceID string         `json:"reference_id,omitempty"` // transaction / tournament id
	Status      TicketStatus   `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	Resolution  string         `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedBy  string         `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`

	Timestamps
}

func (t *SupportTicket) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	if t.Status == "" {
		t.Status = TicketOpen
	}
	return nil
}
