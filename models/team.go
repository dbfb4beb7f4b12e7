package models

import (
	"time"

	"gorm.io/gorm"
)

type PlayerRole string

const (
	RoleCaptain PlayerRole = "captain"
	RoleIGL     PlayerRole = "igl"
	RoleEntry   PlayerRole = "entry"
	RoleSupport PlayerRole = "support"
	RoleSniper  PlayerRole = "sniper"
	RoleScout   PlayerRole = "scout"
	RoleMember  PlayerRole = "member"
)

func (r PlayerRole) Valid() bool {
	switch r {
	case RoleCaptain, RoleIGL, RoleEntry, RoleSupport, RoleSniper, RoleScout, RoleMember:
		return true
	}
	return false
}

const (
	MinRosterSize = 2
	MaxRosterSize = 6
)

type Team struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code    string `gorm:"type:varchar(9);uniqueIndex;not null" json:"code"` // FF-XXXXXX
	Slug    string `gorm:"index" json:"slug"`
	Name    string `gorm:"not null" json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
	OwnerID string `gorm:"not null;index" json:"owner_id"`

	Players []TeamPlayer `json:"players" gorm:"foreignKey:TeamID"`

	Timestamps
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// HasMember reports whether userID is on the roster.
func (t *Team) HasMember(userID string) bool {
	for _, p := range t.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type TeamPlayer struct {
	ID       string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID   string     `gorm:"not null;uniqueIndex:idx_team_player" json:"team_id"`
	UserID   string     `gorm:"not null;uniqueIndex:idx_team_player;index" json:"user_id"`
	Role     PlayerRole `gorm:"type:varchar(16);not null;default:'member'" json:"role"`
	InGameID string     `json:"in_game_id,omitempty"`
	JoinedAt time.Time  `json:"joined_at" gorm:"autoCreateTime"`
}

func (p *TeamPlayer) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}
