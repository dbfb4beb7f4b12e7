package services

import (
	"context"
	"fmt"
	"log"
	"math"

	"firefight-platform/models"

	"gorm.io/gorm"
)

// XPWeights define how much each verified activity is worth.
type XPWeights struct {
	JoinXP      int64
	KillXP      int64
	WinnerBonus int64
}

var DefaultXPWeights = XPWeights{
	JoinXP:      10,
	KillXP:      5,
	WinnerBonus: 100,
}

// ResultXP is the XP for a verified result: points plus a per-kill bonus,
// plus the winner bonus for rank 1.
func (w XPWeights) ResultXP(rank, kills, points int) int64 {
	xp := int64(points) + int64(kills)*w.KillXP
	if rank == 1 {
		xp += w.WinnerBonus
	}
	if xp < 0 {
		return 0
	}
	return xp
}

// LevelConfig: XP needed for *next* level (e.g., level 1 → 2 needs BaseXPPerLevel * 1^1.2)
const BaseXPPerLevel = 100

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(BaseXPPerLevel * n^1.2)
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// levelThreshold is the total XP at which a player at level leaves it.
func levelThreshold(level int) int64 {
	return int64(BaseXPPerLevel)*int64(level) + xpForNextLevel(level)
}

// RankThresholds: levels required before rank-up
var RankThresholds = map[int]int{ // rank → min level
	1: 1,   // Bronze
	2: 10,  // Silver
	3: 25,  // Gold
	4: 50,  // Platinum
	5: 100, // Diamond
}

var RankNames = map[int]string{
	1: "Bronze",
	2: "Silver",
	3: "Gold",
	4: "Platinum",
	5: "Diamond",
}

func determineRank(level int) int {
	for rank := 5; rank >= 1; rank-- {
		if level >= RankThresholds[rank] {
			return rank
		}
	}
	return 1
}

// LevelForXP walks the level curve from level 1.
func LevelForXP(xp int64) int {
	level := 1
	for xp >= levelThreshold(level) {
		level++
	}
	return level
}

type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// AwardXPTx adds xp to the user inside the caller's transaction and
// recomputes level and rank.
func (s *ProgressionService) AwardXPTx(tx *gorm.DB, userID string, xp int64, reason string) (*models.User, error) {
	if xp <= 0 {
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return nil, notFound(err, "user", userID)
		}
		return &u, nil
	}
	u, err := lockUser(tx, userID)
	if err != nil {
		return nil, err
	}
	oldRank := u.Rank
	u.XP += xp
	u.Level = LevelForXP(u.XP)
	u.Rank = determineRank(u.Level)

	if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{"xp": u.XP, "level": u.Level, "rank": u.Rank}).Error; err != nil {
		return nil, fmt.Errorf("award xp: %w", err)
	}
	log.Printf("🎮 [PROGRESSION] %s +%d XP → XP=%d, Lvl=%d, Rank=%d (reason: %s)", userID, xp, u.XP, u.Level, u.Rank, reason)
	if u.Rank > oldRank {
		log.Printf("🏅 [PROGRESSION] %s ranked up to %s", userID, RankNames[u.Rank])
	}

	// Auto-award badges
	if _, err := NewBadgeService(s.DB).AutoAwardBadgesTx(tx, userID); err != nil {
		return nil, err
	}
	return u, nil
}

// AwardXP is AwardXPTx in its own transaction.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, xp int64, reason string) (*models.User, error) {
	var out *models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.AwardXPTx(tx, userID, xp, reason)
		return err
	})
	return out, err
}

// Progress is a user's position on the level curve.
type Progress struct {
	XP          int64  `json:"xp"`
	Level       int    `json:"level"`
	Rank        int    `json:"rank"`
	RankName    string `json:"rank_name"`
	NextLevelXP int64  `json:"next_level_xp"`
}

func ProgressFor(u *models.User) Progress {
	return Progress{
		XP:          u.XP,
		Level:       u.Level,
		Rank:        u.Rank,
		RankName:    RankNames[u.Rank],
		NextLevelXP: levelThreshold(u.Level),
	}
}

type LeaderboardEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
	Rank     string `json:"rank"`
}

// Leaderboard returns the top limit users by XP, excluding banned users.
func (s *ProgressionService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).
		Where("is_banned = ?", false).
		Order("xp DESC").Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	out := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, LeaderboardEntry{
			Position: i + 1,
			UserID:   u.ID,
			Username: u.Username,
			XP:       u.XP,
			Level:    u.Level,
			Rank:     RankNames[u.Rank],
		})
	}
	return out, nil
}
