package services

import (
	"context"
	"fmt"

	"firefight-platform/models"

	"gorm.io/gorm"
)

// ModerationService is the admin's read-only view of everything waiting on
// a decision. Decisions go through the owning services.
type ModerationService struct {
	DB *gorm.DB
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{DB: db}
}

// Queue is the admin inbox, each list oldest first.
type Queue struct {
	Results     []models.TournamentParticipant `json:"results"`
	Withdrawals []models.Transaction           `json:"withdrawals"`
	KycDocs     []models.KycDocument           `json:"kyc_documents"`
	Tickets     []models.SupportTicket         `json:"tickets"`
}

func (s *ModerationService) Queue(ctx context.Context) (*Queue, error) {
	results, err := s.PendingResults(ctx)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.PendingWithdrawals(ctx)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	q := &Queue{Results: results, Withdrawals: withdrawals}
	if err := db.Where("status = ?", models.KycStatusPending).Order("created_at ASC").Find(&q.KycDocs).Error; err != nil {
		return nil, fmt.Errorf("list pending kyc: %w", err)
	}
	if err := db.Where("status = ?", models.TicketOpen).Order("created_at ASC").Find(&q.Tickets).Error; err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}
	return q, nil
}

// PendingResults lists submitted, unverified results.
func (s *ModerationService) PendingResults(ctx context.Context) ([]models.TournamentParticipant, error) {
	var out []models.TournamentParticipant
	if err := s.DB.WithContext(ctx).
		Preload("Tournament").
		Where("result_status = ?", models.ResultSubmitted).
		Order("submitted_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list pending results: %w", err)
	}
	return out, nil
}

// PendingWithdrawals lists withdrawals awaiting payout.
func (s *ModerationService) PendingWithdrawals(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := s.DB.WithContext(ctx).
		Where("type = ? AND status = ?", models.TxWithdrawal, models.TxPending).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	return out, nil
}
