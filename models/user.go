package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type KycStatus string

const (
	KycStatusPending  KycStatus = "pending"
	KycStatusApproved KycStatus = "approved"
	KycStatusRejected KycStatus = "rejected"
)

// User is the local player record. ID is the gateway's user id (X-User-ID),
// so rows are created lazily on first authenticated request.
//
// WalletBalance is written only by the ledger; KycStatus only by KYC review.
type User struct {
	ID            string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username      string          `gorm:"index" json:"username"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"wallet_balance"`
	KycStatus     KycStatus       `gorm:"type:varchar(16);not null;default:'pending'" json:"kyc_status"`
	UpiID         string          `gorm:"type:varchar(128)" json:"upi_id,omitempty"`

	// Engagement
	XP    int64 `json:"xp" gorm:"default:0"`
	Level int   `json:"level" gorm:"default:1"`
	Rank  int   `json:"rank" gorm:"default:1"`

	IsBanned bool `json:"is_banned" gorm:"default:false"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.KycStatus == "" {
		u.KycStatus = KycStatusPending
	}
	if u.Level == 0 {
		u.Level = 1
	}
	if u.Rank == 0 {
		u.Rank = 1
	}
	return nil
}
