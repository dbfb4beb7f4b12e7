package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"firefight-platform/models"

	"gorm.io/gorm"
)

type AnnouncementService struct {
	DB *gorm.DB
}

func NewAnnouncementService(db *gorm.DB) *AnnouncementService {
	return &AnnouncementService{DB: db}
}

type AnnouncementInput struct {
	Title            string
	Body             string
	Kind             models.AnnouncementKind
	TournamentID     string
	MaintenanceStart *time.Time
	MaintenanceEnd   *time.Time
	PromoCode        string
	AuthorID         string
}

// Create stores a draft. Each kind carries its own required fields.
func (s *AnnouncementService) Create(ctx context.Context, in AnnouncementInput) (*models.Announcement, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "required")
	}
	if in.Kind == "" {
		in.Kind = models.AnnouncementGeneral
	}
	if !in.Kind.Valid() {
		return nil, invalid("kind", "unknown announcement kind")
	}
	db := s.DB.WithContext(ctx)

	a := &models.Announcement{
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		Kind:     in.Kind,
		AuthorID: in.AuthorID,
	}
	switch in.Kind {
	case models.AnnouncementTournament:
		if in.TournamentID == "" {
			return nil, invalid("tournament_id", "required for tournament announcements")
		}
		var n int64
		if err := db.Model(&models.Tournament{}).Where("id = ?", in.TournamentID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check tournament: %w", err)
		}
		if n == 0 {
			return nil, &NotFoundError{Entity: "tournament", ID: in.TournamentID}
		}
		id := in.TournamentID
		a.TournamentID = &id
	case models.AnnouncementMaintenance:
		if in.MaintenanceStart == nil || in.MaintenanceEnd == nil {
			return nil, invalid("maintenance_window", "start and end required")
		}
		if !in.MaintenanceEnd.After(*in.MaintenanceStart) {
			return nil, invalid("maintenance_window", "end must be after start")
		}
		a.MaintenanceStart, a.MaintenanceEnd = in.MaintenanceStart, in.MaintenanceEnd
	case models.AnnouncementPromotion:
		code := strings.ToUpper(strings.TrimSpace(in.PromoCode))
		if code == "" {
			return nil, invalid("promo_code", "required for promotions")
		}
		a.PromoCode = code
	}

	if err := db.Create(a).Error; err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

// Publish makes a draft visible. Publishing twice is a no-op.
func (s *AnnouncementService) Publish(ctx context.Context, id string) (*models.Announcement, error) {
	db := s.DB.WithContext(ctx)
	var a models.Announcement
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "announcement", id)
	}
	if a.IsPublished {
		return &a, nil
	}
	now := time.Now()
	if err := db.Model(&a).Updates(map[string]interface{}{"is_published": true, "published_at": now}).Error; err != nil {
		return nil, fmt.Errorf("publish announcement: %w", err)
	}
	a.IsPublished, a.PublishedAt = true, &now
	log.Printf("📢 [ANNOUNCE] published %s %q", a.Kind, a.Title)
	return &a, nil
}

// Published lists visible announcements, newest first.
func (s *AnnouncementService) Published(ctx context.Context, kind models.AnnouncementKind, limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.DB.WithContext(ctx).Where("is_published = ?", true)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []models.Announcement
	if err := q.Order("published_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return out, nil
}
