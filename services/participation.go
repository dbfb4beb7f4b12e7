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

// ParticipationService joins players with payment and carries their results
// from submission to verified payout.
type ParticipationService struct {
	DB          *gorm.DB
	Registry    *TournamentService
	Ledger      *LedgerService
	Progression *ProgressionService
	Store       ObjectStore
}

func NewParticipationService(db *gorm.DB, registry *TournamentService, ledger *LedgerService, progression *ProgressionService, store ObjectStore) *ParticipationService {
	return &ParticipationService{
		DB:          db,
		Registry:    registry,
		Ledger:      ledger,
		Progression: progression,
		Store:       store,
	}
}

// JoinWithPayment takes a slot and charges the entry fee in one DB
// transaction. A failed debit rolls back the slot and the participant row.
func (s *ParticipationService) JoinWithPayment(ctx context.Context, tournamentID, userID string, teamID *string) (*models.TournamentParticipant, error) {
	var p *models.TournamentParticipant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return notFound(err, "user", userID)
		}
		if u.IsBanned {
			return ErrUserBanned
		}

		var t *models.Tournament
		var err error
		p, t, err = s.Registry.JoinTx(tx, tournamentID, userID, teamID)
		if err != nil {
			return err
		}

		if t.EntryFee.IsPositive() {
			fee, err := s.Ledger.DebitTx(tx, Entry{
				UserID:      userID,
				Amount:      t.EntryFee,
				Type:        models.TxTournamentFee,
				ReferenceID: t.ID,
				Notes:       "entry fee: " + t.Name,
			})
			if err != nil {
				return err
			}
			p.EntryFeeTxID = fee.ID
			if err := tx.Model(&models.TournamentParticipant{}).Where("id = ?", p.ID).
				Update("entry_fee_tx_id", fee.ID).Error; err != nil {
				return fmt.Errorf("link entry fee: %w", err)
			}
		}

		_, err = s.Progression.AwardXPTx(tx, userID, DefaultXPWeights.JoinXP, "tournament_join")
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🎯 [PARTICIPATION] %s joined tournament %s", userID, tournamentID)
	return p, nil
}

type ResultSubmission struct {
	ParticipantID string
	UserID        string
	Kills         int
	Points        int
	// Either a fresh upload or an already stored screenshot URL.
	Screenshot    *FileUpload
	ScreenshotURL string
}

func (r *ResultSubmission) validate() error {
	if r.Kills < 0 {
		return invalid("kills", "must not be negative")
	}
	if r.Points < 0 {
		return invalid("points", "must not be negative")
	}
	if r.Screenshot != nil {
		return r.Screenshot.validate("screenshot")
	}
	if strings.TrimSpace(r.ScreenshotURL) == "" {
		return invalid("screenshot", "required")
	}
	return nil
}

// SubmitResult records (or overwrites) the caller's unverified result while
// the tournament is live.
func (s *ParticipationService) SubmitResult(ctx context.Context, sub ResultSubmission) (*models.TournamentParticipant, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	// Check before uploading so a refused submission leaves no object behind.
	p, err := s.loadSubmittable(db, sub.ParticipantID, sub.UserID, false)
	if err != nil {
		return nil, err
	}

	url := sub.ScreenshotURL
	if sub.Screenshot != nil {
		key := sub.Screenshot.objectKey("results/" + p.TournamentID)
		url, err = s.Store.Upload(ctx, key, sub.Screenshot.Body, sub.Screenshot.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload screenshot: %w", err)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		p, err = s.loadSubmittable(tx, sub.ParticipantID, sub.UserID, true)
		if err != nil {
			return err
		}
		now := time.Now()
		kills, points := sub.Kills, sub.Points
		p.Kills = &kills
		p.Points = &points
		p.ScreenshotURL = &url
		p.SubmittedAt = &now
		p.ResultStatus = models.ResultSubmitted
		return tx.Model(&models.TournamentParticipant{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"kills":          kills,
			"points":         points,
			"screenshot_url": url,
			"submitted_at":   now,
			"result_status":  models.ResultSubmitted,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("📸 [PARTICIPATION] %s submitted result for %s (kills=%d, points=%d)", sub.UserID, p.TournamentID, sub.Kills, sub.Points)
	return p, nil
}

func (s *ParticipationService) loadSubmittable(db *gorm.DB, participantID, userID string, lock bool) (*models.TournamentParticipant, error) {
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.TournamentParticipant
	if err := q.First(&p, "id = ?", participantID).Error; err != nil {
		return nil, notFound(err, "participant", participantID)
	}
	if p.UserID != userID {
		return nil, ErrNotOwner
	}
	var t models.Tournament
	if err := db.First(&t, "id = ?", p.TournamentID).Error; err != nil {
		return nil, notFound(err, "tournament", p.TournamentID)
	}
	if t.Status != models.TournamentLive {
		return nil, ErrNotLive
	}
	if p.IsVerified {
		return nil, ErrAlreadyVerified
	}
	return &p, nil
}

type Verdict struct {
	ParticipantID string
	AdminID       string
	Rank          int
	Approve       bool
	Notes         string
}

// Verify approves or rejects a submitted result. Approval fixes the rank,
// pays the rank's prize share and awards XP; rejection leaves the result
// open for resubmission.
func (s *ParticipationService) Verify(ctx context.Context, v Verdict) (*models.TournamentParticipant, error) {
	v.Notes = strings.TrimSpace(v.Notes)
	if v.Approve && v.Rank < 1 {
		return nil, invalid("rank", "must be at least 1")
	}
	if !v.Approve && v.Notes == "" {
		return nil, ErrReasonRequired
	}

	var p models.TournamentParticipant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref models.TournamentParticipant
		if err := tx.Select("id", "tournament_id").First(&ref, "id = ?", v.ParticipantID).Error; err != nil {
			return notFound(err, "participant", v.ParticipantID)
		}
		// Tournament before participant, as in joins. The tournament lock
		// also serializes rank assignment within the tournament.
		t, err := lockTournament(tx, ref.TournamentID)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", ref.ID).Error; err != nil {
			return notFound(err, "participant", ref.ID)
		}
		if p.IsVerified {
			return ErrAlreadyVerified
		}
		if t.Status == models.TournamentCancelled {
			return ErrInvalidTransition
		}
		if p.ResultStatus != models.ResultSubmitted {
			return ErrNoSubmission
		}

		now := time.Now()
		updates := map[string]interface{}{
			"notes":       v.Notes,
			"verified_by": v.AdminID,
			"verified_at": now,
		}
		p.Notes, p.VerifiedBy, p.VerifiedAt = v.Notes, v.AdminID, &now

		if !v.Approve {
			updates["result_status"] = models.ResultRejected
			p.ResultStatus = models.ResultRejected
			return tx.Model(&models.TournamentParticipant{}).Where("id = ?", p.ID).Updates(updates).Error
		}

		rank := v.Rank
		if rank > t.MaxParticipants {
			return invalid("rank", fmt.Sprintf("must be at most %d", t.MaxParticipants))
		}
		teamPayout, err := s.checkRankFree(tx, t.ID, &p, rank)
		if err != nil {
			return err
		}
		updates["rank"] = rank
		updates["is_verified"] = true
		updates["result_status"] = models.ResultVerified
		p.Rank, p.IsVerified, p.ResultStatus = &rank, true, models.ResultVerified

		if teamPayout != "" {
			// The team's share went to the first verified teammate.
			updates["prize_tx_id"] = teamPayout
			p.PrizeTxID = teamPayout
		} else if share := t.PrizeShareForRank(rank); share.IsPositive() {
			payout, err := s.Ledger.CreditTx(tx, Entry{
				UserID:      p.UserID,
				Amount:      share,
				Type:        models.TxPrizePayout,
				ReferenceID: p.ID,
				Notes:       fmt.Sprintf("%s rank #%d", t.Name, rank),
			})
			if err != nil {
				return err
			}
			updates["prize_tx_id"] = payout.ID
			p.PrizeTxID = payout.ID
		}
		if err := tx.Model(&models.TournamentParticipant{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update participant: %w", err)
		}

		var kills, points int
		if p.Kills != nil {
			kills = *p.Kills
		}
		if p.Points != nil {
			points = *p.Points
		}
		_, err = s.Progression.AwardXPTx(tx, p.UserID, DefaultXPWeights.ResultXP(rank, kills, points), "verified_result")
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [PARTICIPATION] result %s reviewed by %s (approve=%v)", p.ID, v.AdminID, v.Approve)
	return &p, nil
}

// checkRankFree makes sure rank is not already held by another verified
// participant. Squad teammates share their team's rank; it returns the
// prize transaction a teammate already collected for it, if any.
func (s *ParticipationService) checkRankFree(tx *gorm.DB, tournamentID string, p *models.TournamentParticipant, rank int) (string, error) {
	var verified []models.TournamentParticipant
	if err := tx.Where("tournament_id = ? AND is_verified = ? AND id <> ?", tournamentID, true, p.ID).
		Find(&verified).Error; err != nil {
		return "", fmt.Errorf("load verified results: %w", err)
	}
	teamPayout := ""
	for _, other := range verified {
		if p.TeamID != nil && other.TeamID != nil && *other.TeamID == *p.TeamID {
			if other.Rank == nil || *other.Rank != rank {
				return "", invalid("rank", "must match the team's verified rank")
			}
			if other.PrizeTxID != "" {
				teamPayout = other.PrizeTxID
			}
			continue
		}
		if other.Rank != nil && *other.Rank == rank {
			return "", ErrRankTaken
		}
	}
	return teamPayout, nil
}

// ForUser lists a user's tournament entries, newest first.
func (s *ParticipationService) ForUser(ctx context.Context, userID string) ([]models.TournamentParticipant, error) {
	var ps []models.TournamentParticipant
	if err := s.DB.WithContext(ctx).
		Preload("Tournament").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("list user entries: %w", err)
	}
	for i := range ps {
		if ps[i].Tournament != nil && ps[i].Tournament.Status != models.TournamentLive {
			ps[i].Tournament.HideRoom()
		}
	}
	return ps, nil
}

// ParticipantFor returns userID's entry in a tournament.
func (s *ParticipationService) ParticipantFor(ctx context.Context, tournamentID, userID string) (*models.TournamentParticipant, error) {
	var p models.TournamentParticipant
	if err := s.DB.WithContext(ctx).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "participant", userID)
	}
	return &p, nil
}
