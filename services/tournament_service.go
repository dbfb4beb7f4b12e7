package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"firefight-platform/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TournamentService is the tournament registry: lifecycle and slot counts.
type TournamentService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewTournamentService(db *gorm.DB, ledger *LedgerService) *TournamentService {
	return &TournamentService{DB: db, Ledger: ledger}
}

type CreateTournamentInput struct {
	Name            string
	Game            string
	Description     string
	Format          models.TournamentFormat
	MaxParticipants int
	EntryFee        decimal.Decimal
	PrizePool       decimal.Decimal
	PrizeSplit      []int
	StartTime       time.Time
	CreatedBy       string
}

func (in *CreateTournamentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "required")
	}
	if in.Format != models.FormatSolo && in.Format != models.FormatSquad {
		return invalid("format", "must be solo or squad")
	}
	if in.MaxParticipants < 1 {
		return invalid("max_participants", "must be at least 1")
	}
	if in.EntryFee.IsNegative() {
		return invalid("entry_fee", "must not be negative")
	}
	if in.PrizePool.IsNegative() {
		return invalid("prize_pool", "must not be negative")
	}
	total := 0
	for _, pct := range in.PrizeSplit {
		if pct < 0 {
			return invalid("prize_split", "percentages must not be negative")
		}
		total += pct
	}
	if total > 100 {
		return invalid("prize_split", "percentages exceed 100")
	}
	if in.StartTime.IsZero() {
		return invalid("start_time", "required")
	}
	return nil
}

// Create registers an upcoming tournament.
func (s *TournamentService) Create(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &models.Tournament{
		Name:            strings.TrimSpace(in.Name),
		Game:            in.Game,
		Description:     in.Description,
		Status:          models.TournamentUpcoming,
		Format:          in.Format,
		MaxParticipants: in.MaxParticipants,
		EntryFee:        in.EntryFee,
		PrizePool:       in.PrizePool,
		PrizeSplit:      in.PrizeSplit,
		StartTime:       in.StartTime,
		CreatedBy:       in.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	t.AvailableSlots = t.MaxParticipants
	log.Printf("🏆 [REGISTRY] created %s tournament %s (%d slots, fee %s)", t.Format, t.ID, t.MaxParticipants, t.EntryFee)
	return t, nil
}

func (s *TournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := s.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "tournament", id)
	}
	return &t, nil
}

type TournamentFilter struct {
	Status models.TournamentStatus
	Format models.TournamentFormat
	Page   int
	Size   int
}

// List returns tournaments by start time, soonest first.
func (s *TournamentService) List(ctx context.Context, f TournamentFilter) ([]models.Tournament, int64, error) {
	page, size := normalizePage(f.Page, f.Size)
	q := s.DB.WithContext(ctx).Model(&models.Tournament{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Format != "" {
		q = q.Where("format = ?", f.Format)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tournaments: %w", err)
	}
	var ts []models.Tournament
	if err := q.Order("start_time ASC").Offset((page - 1) * size).Limit(size).Find(&ts).Error; err != nil {
		return nil, 0, fmt.Errorf("list tournaments: %w", err)
	}
	return ts, total, nil
}

// Participants lists a tournament's join records in join order.
func (s *TournamentService) Participants(ctx context.Context, tournamentID string) ([]models.TournamentParticipant, error) {
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	var ps []models.TournamentParticipant
	if err := s.DB.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("joined_at ASC").
		Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return ps, nil
}

// IsParticipant reports whether userID joined the tournament.
func (s *TournamentService) IsParticipant(ctx context.Context, tournamentID, userID string) (bool, error) {
	joined, err := s.JoinedAmong(ctx, userID, []string{tournamentID})
	if err != nil {
		return false, err
	}
	return joined[tournamentID], nil
}

// JoinedAmong returns the subset of tournamentIDs userID has joined, in one
// query.
func (s *TournamentService) JoinedAmong(ctx context.Context, userID string, tournamentIDs []string) (map[string]bool, error) {
	joined := make(map[string]bool, len(tournamentIDs))
	if len(tournamentIDs) == 0 || userID == "" {
		return joined, nil
	}
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.TournamentParticipant{}).
		Where("user_id = ? AND tournament_id IN ?", userID, tournamentIDs).
		Pluck("tournament_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load joined tournaments: %w", err)
	}
	for _, id := range ids {
		joined[id] = true
	}
	return joined, nil
}

// Join takes a slot without touching the wallet.
func (s *TournamentService) Join(ctx context.Context, tournamentID, userID string, teamID *string) (*models.TournamentParticipant, error) {
	var p *models.TournamentParticipant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, _, err = s.JoinTx(tx, tournamentID, userID, teamID)
		return err
	})
	return p, err
}

// JoinTx checks the join preconditions in order (status, slots, duplicate,
// team) against the locked tournament row and increments the slot count in
// the caller's transaction.
func (s *TournamentService) JoinTx(tx *gorm.DB, tournamentID, userID string, teamID *string) (*models.TournamentParticipant, *models.Tournament, error) {
	t, err := lockTournament(tx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != models.TournamentUpcoming {
		return nil, nil, ErrNotUpcoming
	}
	if t.CurrentParticipants >= t.MaxParticipants {
		return nil, nil, ErrSlotsFull
	}
	var existing int64
	if err := tx.Model(&models.TournamentParticipant{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Count(&existing).Error; err != nil {
		return nil, nil, fmt.Errorf("check existing participant: %w", err)
	}
	if existing > 0 {
		return nil, nil, ErrAlreadyJoined
	}
	if t.Format == models.FormatSquad {
		if teamID == nil || *teamID == "" {
			return nil, nil, ErrTeamRequired
		}
		if err := checkSquadTeam(tx, *teamID, userID); err != nil {
			return nil, nil, err
		}
	} else {
		teamID = nil
	}

	// Guarded increment; the WHERE repeats the slot check so the row can
	// never exceed max even without the row lock.
	res := tx.Model(&models.Tournament{}).
		Where("id = ? AND current_participants < max_participants", t.ID).
		Update("current_participants", gorm.Expr("current_participants + 1"))
	if res.Error != nil {
		return nil, nil, fmt.Errorf("increment participants: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, ErrSlotsFull
	}
	t.CurrentParticipants++
	t.AvailableSlots = t.MaxParticipants - t.CurrentParticipants

	p := &models.TournamentParticipant{
		TournamentID: t.ID,
		UserID:       userID,
		TeamID:       teamID,
		JoinedAt:     time.Now(),
		ResultStatus: models.ResultUnsubmitted,
	}
	if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
		return nil, nil, fmt.Errorf("create participant: %w", err)
	}
	return p, t, nil
}

func checkSquadTeam(tx *gorm.DB, teamID, userID string) error {
	var team models.Team
	if err := tx.Preload("Players").First(&team, "id = ?", teamID).Error; err != nil {
		return notFound(err, "team", teamID)
	}
	if !team.HasMember(userID) {
		return ErrNotTeamMember
	}
	if len(team.Players) < models.MinRosterSize {
		return ErrRosterTooSmall
	}
	return nil
}

func lockTournament(tx *gorm.DB, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "tournament", id)
	}
	return &t, nil
}

// Room holds the lobby credentials handed to participants once live.
type Room struct {
	ID       string
	Password string
}

// Transition moves the tournament along upcoming → live → completed, or to
// cancelled from upcoming/live. Cancelling refunds every paid entry fee in
// the same transaction.
func (s *TournamentService) Transition(ctx context.Context, id string, next models.TournamentStatus, room *Room) (*models.Tournament, error) {
	if !next.Valid() {
		return nil, invalid("status", "unknown tournament status")
	}
	var t *models.Tournament
	var refunded int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = lockTournament(tx, id)
		if err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(next) {
			return ErrInvalidTransition
		}
		now := time.Now()
		updates := map[string]interface{}{"status": next}
		switch next {
		case models.TournamentLive:
			updates["started_at"] = now
			t.StartedAt = &now
			if room != nil {
				updates["room_id"] = room.ID
				updates["room_password"] = room.Password
				t.RoomID, t.RoomPassword = room.ID, room.Password
			}
		case models.TournamentCompleted:
			updates["completed_at"] = now
			t.CompletedAt = &now
		case models.TournamentCancelled:
			updates["cancelled_at"] = now
			t.CancelledAt = &now
			refunded, err = s.refundEntries(tx, t)
			if err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Tournament{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update tournament status: %w", err)
		}
		t.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🏆 [REGISTRY] tournament %s → %s (refunds: %d)", t.ID, next, refunded)
	return t, nil
}

func (s *TournamentService) refundEntries(tx *gorm.DB, t *models.Tournament) (int, error) {
	var paid []models.TournamentParticipant
	if err := tx.Where("tournament_id = ? AND entry_fee_tx_id <> ''", t.ID).Find(&paid).Error; err != nil {
		return 0, fmt.Errorf("load paid participants: %w", err)
	}
	for _, p := range paid {
		var fee models.Transaction
		if err := tx.First(&fee, "id = ?", p.EntryFeeTxID).Error; err != nil {
			return 0, notFound(err, "transaction", p.EntryFeeTxID)
		}
		if _, err := s.Ledger.CreditTx(tx, Entry{
			UserID:      p.UserID,
			Amount:      fee.Amount,
			Type:        models.TxRefund,
			ReferenceID: t.ID,
			Notes:       "tournament cancelled",
		}); err != nil {
			return 0, fmt.Errorf("refund participant %s: %w", p.ID, err)
		}
	}
	return len(paid), nil
}

// SetRoom updates lobby credentials of a live tournament.
func (s *TournamentService) SetRoom(ctx context.Context, id string, room Room) (*models.Tournament, error) {
	if strings.TrimSpace(room.ID) == "" {
		return nil, invalid("room_id", "required")
	}
	var t *models.Tournament
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = lockTournament(tx, id)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentLive {
			return ErrNotLive
		}
		t.RoomID, t.RoomPassword = room.ID, room.Password
		return tx.Model(&models.Tournament{}).Where("id = ?", id).
			Updates(map[string]interface{}{"room_id": room.ID, "room_password": room.Password}).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// StartDue moves upcoming tournaments whose start time has passed to live.
func (s *TournamentService) StartDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.Tournament
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND start_time <= ?", models.TournamentUpcoming, now).
		Find(&due).Error; err != nil {
		return 0, fmt.Errorf("find due tournaments: %w", err)
	}
	started := 0
	for _, t := range due {
		if _, err := s.Transition(ctx, t.ID, models.TournamentLive, nil); err != nil {
			// Another admin or scheduler run got there first.
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return started, err
		}
		started++
	}
	return started, nil
}
