package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"firefight-platform/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupportService struct {
	DB *gorm.DB
}

func NewSupportService(db *gorm.DB) *SupportService {
	return &SupportService{DB: db}
}

func (s *SupportService) Create(ctx context.Context, userID string, category models.TicketCategory, subject, message, referenceID string) (*models.SupportTicket, error) {
	if !category.Valid() {
		return nil, invalid("category", "unknown ticket category")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, invalid("subject", "required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, invalid("message", "required")
	}
	t := &models.SupportTicket{
		UserID:      userID,
		Category:    category,
		Subject:     subject,
		Message:     message,
		ReferenceID: referenceID,
		Status:      models.TicketOpen,
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	log.Printf("🎫 [SUPPORT] %s opened %s ticket %s", userID, category, t.ID)
	return t, nil
}

func (s *SupportService) ForUser(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	var out []models.SupportTicket
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return out, nil
}

// Resolve closes an open ticket with an admin response.
func (s *SupportService) Resolve(ctx context.Context, ticketID, adminID, resolution string) (*models.SupportTicket, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, ErrReasonRequired
	}
	var t models.SupportTicket
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", ticketID).Error; err != nil {
			return notFound(err, "ticket", ticketID)
		}
		if t.Status != models.TicketOpen {
			return ErrTicketClosed
		}
		now := time.Now()
		t.Status, t.Resolution, t.ResolvedBy, t.ResolvedAt = models.TicketResolved, resolution, adminID, &now
		return tx.Model(&models.SupportTicket{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"status":      t.Status,
			"resolution":  resolution,
			"resolved_by": adminID,
			"resolved_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
