package models

import (
	"time"

	"gorm.io/gorm"
)

// BadgeType: static definition; thresholds are checked against PlayerStats.
type BadgeType struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `json:"-"`      // e.g. {"tournaments_joined": 10}
}

// UserBadge: awarded instance
type UserBadge struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_badge" json:"code"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

// PlayerStats are the counters badge thresholds refer to.
type PlayerStats struct {
	TournamentsJoined int64 `json:"tournaments_joined"`
	TournamentsWon    int64 `json:"tournaments_won"`
	TotalKills        int64 `json:"total_kills"`
	Level             int64 `json:"level"`
}

func (s PlayerStats) Get(key string) int64 {
	switch key {
	case "tournaments_joined":
		return s.TournamentsJoined
	case "tournaments_won":
		return s.TournamentsWon
	case "total_kills":
		return s.TotalKills
	case "level":
		return s.Level
	}
	return 0
}

// Predefined badge triggers
var BadgeTriggers = []BadgeType{
	{
		Code:        "FIRST_DROP",
		Name:        "First Drop",
		Description: "Joined your first tournament",
		Rarity:      "common",
		Threshold:   map[string]int64{"tournaments_joined": 1},
	},
	{
		Code:        "REGULAR",
		Name:        "Regular",
		Description: "Joined 10 tournaments",
		Rarity:      "rare",
		Threshold:   map[string]int64{"tournaments_joined": 10},
	},
	{
		Code:        "BOOYAH",
		Name:        "Booyah!",
		Description: "Won a tournament",
		Rarity:      "epic",
		Threshold:   map[string]int64{"tournaments_won": 1},
	},
	{
		Code:        "CENTURY",
		Name:        "Century",
		Description: "100 verified kills",
		Rarity:      "epic",
		Threshold:   map[string]int64{"total_kills": 100},
	},
	{
		Code:        "LEVEL_50",
		Name:        "Halfway There",
		Description: "Reached Level 50 (Platinum!)",
		Rarity:      "legendary",
		Threshold:   map[string]int64{"level": 50},
	},
}
