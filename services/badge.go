package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"firefight-platform/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// Stats computes the badge counters from verified participation.
func (s *BadgeService) Stats(tx *gorm.DB, userID string) (models.PlayerStats, error) {
	var stats models.PlayerStats
	if err := tx.Model(&models.TournamentParticipant{}).
		Where("user_id = ?", userID).
		Count(&stats.TournamentsJoined).Error; err != nil {
		return stats, fmt.Errorf("count joins: %w", err)
	}
	if err := tx.Model(&models.TournamentParticipant{}).
		Where("user_id = ? AND is_verified = ? AND rank = ?", userID, true, 1).
		Count(&stats.TournamentsWon).Error; err != nil {
		return stats, fmt.Errorf("count wins: %w", err)
	}
	if err := tx.Model(&models.TournamentParticipant{}).
		Select("COALESCE(SUM(kills), 0)").
		Where("user_id = ? AND is_verified = ?", userID, true).
		Scan(&stats.TotalKills).Error; err != nil {
		return stats, fmt.Errorf("sum kills: %w", err)
	}
	var u models.User
	if err := tx.Select("id", "level").First(&u, "id = ?", userID).Error; err != nil {
		return stats, notFound(err, "user", userID)
	}
	stats.Level = int64(u.Level)
	return stats, nil
}

// AutoAwardBadgesTx checks all badge triggers after a progress update and
// returns the codes newly awarded.
func (s *BadgeService) AutoAwardBadgesTx(tx *gorm.DB, userID string) ([]string, error) {
	stats, err := s.Stats(tx, userID)
	if err != nil {
		return nil, err
	}
	var owned []string
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("code", &owned).Error; err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}
	has := make(map[string]bool, len(owned))
	for _, code := range owned {
		has[code] = true
	}

	var awarded []string
	for _, trigger := range models.BadgeTriggers {
		if has[trigger.Code] || !meetsThreshold(stats, trigger.Threshold) {
			continue
		}
		badge := models.UserBadge{UserID: userID, Code: trigger.Code}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge).Error; err != nil {
			return nil, fmt.Errorf("award badge %s: %w", trigger.Code, err)
		}
		awarded = append(awarded, trigger.Code)
		log.Printf("🎖️ [BADGE] %s → %s", trigger.Name, userID)
	}
	return awarded, nil
}

func meetsThreshold(stats models.PlayerStats, req map[string]int64) bool {
	for key, required := range req {
		if stats.Get(key) < required {
			return false
		}
	}
	return true
}

// EarnedBadge pairs an award with its definition.
type EarnedBadge struct {
	models.BadgeType
	AwardedAt time.Time `json:"awarded_at"`
}

// ForUser lists the user's badges in award order.
func (s *BadgeService) ForUser(ctx context.Context, userID string) ([]EarnedBadge, error) {
	var rows []models.UserBadge
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("awarded_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defs := make(map[string]models.BadgeType, len(models.BadgeTriggers))
	for _, d := range models.BadgeTriggers {
		defs[d.Code] = d
	}
	out := make([]EarnedBadge, 0, len(rows))
	for _, r := range rows {
		def, ok := defs[r.Code]
		if !ok {
			continue
		}
		out = append(out, EarnedBadge{BadgeType: def, AwardedAt: r.AwardedAt})
	}
	return out, nil
}
