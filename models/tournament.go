package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentLive      TournamentStatus = "live"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

// CanTransitionTo reports whether the status graph allows next.
// upcoming → live → completed; cancelled from upcoming or live.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	switch s {
	case TournamentUpcoming:
		return next == TournamentLive || next == TournamentCancelled
	case TournamentLive:
		return next == TournamentCompleted || next == TournamentCancelled
	}
	return false
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentUpcoming, TournamentLive, TournamentCompleted, TournamentCancelled:
		return true
	}
	return false
}

type TournamentFormat string

const (
	FormatSolo  TournamentFormat = "solo"
	FormatSquad TournamentFormat = "squad"
)

// Tournament is a single bracket-less battle-royale event.
type Tournament struct {
	ID                  string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name                string           `json:"name" gorm:"not null"`
	Game                string           `json:"game"`
	Description         string           `json:"description"`
	Status              TournamentStatus `json:"status" gorm:"type:varchar(16);not null;default:'upcoming';index"`
	Format              TournamentFormat `json:"format" gorm:"type:varchar(8);not null;default:'solo'"`
	MaxParticipants     int              `json:"max_participants" gorm:"not null"`
	CurrentParticipants int              `json:"current_participants" gorm:"not null;default:0"`
	EntryFee            decimal.Decimal  `json:"entry_fee" gorm:"type:numeric(14,2);not null;default:0"`
	PrizePool           decimal.Decimal  `json:"prize_pool" gorm:"type:numeric(14,2);not null;default:0"`
	// Percent of the prize pool per rank; index 0 is rank 1.
	PrizeSplit datatypes.JSONSlice[int] `json:"prize_split,omitempty"`
	StartTime  time.Time                `json:"start_time" gorm:"not null;index"`

	// Only populated once live.
	RoomID       string `json:"room_id,omitempty"`
	RoomPassword string `json:"room_password,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`

	Timestamps

	// Calculated fields (not stored in DB)
	AvailableSlots int `json:"available_slots" gorm:"-"`
}

func (t *Tournament) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

func (t *Tournament) AfterFind(tx *gorm.DB) error {
	t.AvailableSlots = t.MaxParticipants - t.CurrentParticipants
	return nil
}

// PrizeShareForRank returns the payout for a verified rank.
func (t *Tournament) PrizeShareForRank(rank int) decimal.Decimal {
	if rank < 1 {
		return decimal.Zero
	}
	if len(t.PrizeSplit) == 0 {
		if rank == 1 {
			return t.PrizePool
		}
		return decimal.Zero
	}
	if rank > len(t.PrizeSplit) {
		return decimal.Zero
	}
	pct := decimal.NewFromInt(int64(t.PrizeSplit[rank-1]))
	return t.PrizePool.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

// HideRoom clears the room credentials for viewers who may not see them.
func (t *Tournament) HideRoom() {
	t.RoomID = ""
	t.RoomPassword = ""
}
