package models

import (
	"time"

	"gorm.io/gorm"
)

type ResultStatus string

const (
	ResultUnsubmitted ResultStatus = "unsubmitted"
	ResultSubmitted   ResultStatus = "submitted"
	ResultVerified    ResultStatus = "verified"
	ResultRejected    ResultStatus = "rejected"
)

// TournamentParticipant = join record + submitted result
type TournamentParticipant struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TournamentID string    `gorm:"not null;uniqueIndex:idx_participant_tournament_user" json:"tournament_id"`
	UserID       string    `gorm:"not null;uniqueIndex:idx_participant_tournament_user;index" json:"user_id"`
	TeamID       *string   `gorm:"index" json:"team_id,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`

	// Result (nullable until submitted / verified)
	Rank          *int       `json:"rank,omitempty"`
	Kills         *int       `json:"kills,omitempty"`
	Points        *int       `json:"points,omitempty"`
	ScreenshotURL *string    `json:"screenshot_url,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`

	ResultStatus ResultStatus `gorm:"type:varchar(16);not null;default:'unsubmitted';index" json:"result_status"`
	IsVerified   bool         `gorm:"not null;default:false" json:"is_verified"`
	Notes        string       `gorm:"type:text" json:"notes,omitempty"`
	VerifiedBy   string       `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time   `json:"verified_at,omitempty"`

	EntryFeeTxID string `json:"entry_fee_tx_id,omitempty"`
	PrizeTxID    string `json:"prize_tx_id,omitempty"`

	Tournament *Tournament `json:"tournament,omitempty" gorm:"foreignKey:TournamentID"`

	Timestamps
}

func (p *TournamentParticipant) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	if p.ResultStatus == "" {
		p.ResultStatus = ResultUnsubmitted
	}
	return nil
}
