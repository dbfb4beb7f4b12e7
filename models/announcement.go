package models

import (
	"time"

	"gorm.io/gorm"
)

type AnnouncementKind string

const (
	AnnouncementGeneral     AnnouncementKind = "general"
	AnnouncementMaintenance AnnouncementKind = "maintenance"
	AnnouncementTournament  AnnouncementKind = "tournament"
	AnnouncementPromotion   AnnouncementKind = "promotion"
)

func (k AnnouncementKind) Valid() bool {
	switch k {
	case AnnouncementGeneral, AnnouncementMaintenance, AnnouncementTournament, AnnouncementPromotion:
		return true
	}
	return false
}

type Announcement struct {
	ID    string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title string           `gorm:"not null" json:"title"`
	Body  string           `gorm:"type:text" json:"body"`
	Kind  AnnouncementKind `gorm:"type:varchar(16);not null;default:'general'" json:"kind"`
	// Set only for kind=tournament.
	TournamentID *string `gorm:"index" json:"tournament_id,omitempty"`
	// Set only for kind=maintenance.
	MaintenanceStart *time.Time `json:"maintenance_start,omitempty"`
	MaintenanceEnd   *time.Time `json:"maintenance_end,omitempty"`
	// Set only for kind=promotion.
	PromoCode string `json:"promo_code,omitempty"`

	IsPublished bool       `gorm:"default:false;index" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorID    string     `json:"author_id"`

	Timestamps
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}
