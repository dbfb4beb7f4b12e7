package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"firefight-platform/database"
	"firefight-platform/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// memStore is an ObjectStore kept in memory.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type testEnv struct {
	DB            *gorm.DB
	Store         *memStore
	Users         *UserService
	Ledger        *LedgerService
	Kyc           *KycService
	Tournaments   *TournamentService
	Participation *ParticipationService
	Withdrawals   *WithdrawalService
	Teams         *TeamService
	Progression   *ProgressionService
	Moderation    *ModerationService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	store := newMemStore()
	ledger := NewLedgerService(db)
	progression := NewProgressionService(db)
	tournaments := NewTournamentService(db, ledger)
	return &testEnv{
		DB:            db,
		Store:         store,
		Users:         NewUserService(db),
		Ledger:        ledger,
		Kyc:           NewKycService(db, store),
		Tournaments:   tournaments,
		Participation: NewParticipationService(db, tournaments, ledger, progression, store),
		Withdrawals:   NewWithdrawalService(db, ledger, decimal.NewFromInt(100)),
		Teams:         NewTeamService(db),
		Progression:   progression,
		Moderation:    NewModerationService(db),
	}
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newUser creates a user funded through a deposit so the ledger stays consistent.
func (e *testEnv) newUser(t *testing.T, id string, balance string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := e.Users.EnsureUser(ctx, id, id)
	require.NoError(t, err)
	if b := amount(balance); b.IsPositive() {
		_, err := e.Ledger.Credit(ctx, id, b, models.TxDeposit, "seed-"+id)
		require.NoError(t, err)
	}
	u, err := e.Users.Get(ctx, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) approveKyc(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, e.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("kyc_status", models.KycStatusApproved).Error)
}

type tournamentOpt func(*CreateTournamentInput)

func withFee(fee string) tournamentOpt {
	return func(in *CreateTournamentInput) { in.EntryFee = amount(fee) }
}

func withSlots(n int) tournamentOpt {
	return func(in *CreateTournamentInput) { in.MaxParticipants = n }
}

func withPrize(pool string, split ...int) tournamentOpt {
	return func(in *CreateTournamentInput) {
		in.PrizePool = amount(pool)
		in.PrizeSplit = split
	}
}

func squad() tournamentOpt {
	return func(in *CreateTournamentInput) { in.Format = models.FormatSquad }
}

func (e *testEnv) newTournament(t *testing.T, opts ...tournamentOpt) *models.Tournament {
	t.Helper()
	in := CreateTournamentInput{
		Name:            "Bermuda Clash",
		Game:            "Free Fire",
		Format:          models.FormatSolo,
		MaxParticipants: 48,
		StartTime:       time.Now().Add(time.Hour),
		CreatedBy:       "admin-1",
	}
	for _, opt := range opts {
		opt(&in)
	}
	tr, err := e.Tournaments.Create(context.Background(), in)
	require.NoError(t, err)
	return tr
}

func (e *testEnv) goLive(t *testing.T, id string) {
	t.Helper()
	_, err := e.Tournaments.Transition(context.Background(), id, models.TournamentLive, &Room{ID: "R-1", Password: "pw"})
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	b, err := e.Ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, amount(want).Equal(got), "want %s, got %s", want, got)
}

func assertConsistent(t *testing.T, e *testEnv, userID string) {
	t.Helper()
	r, err := e.Ledger.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.Truef(t, r.Consistent, "balance %s drifted from ledger %s", r.Balance, r.LedgerSum)
}

func pngUpload(name string) *FileUpload {
	return &FileUpload{Filename: name, ContentType: "image/png", Body: bytes.NewReader([]byte("\x89PNG fake"))}
}

// traceRecorder counts the statements gorm runs and keeps the errors it
// would log.
type traceRecorder struct {
	logger.Interface
	mu         sync.Mutex
	statements int
	errs       []error
}

func newTraceRecorder() *traceRecorder {
	return &traceRecorder{Interface: logger.Discard}
}

func (r *traceRecorder) attach(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: r})
}

func (r *traceRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements++
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *traceRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statements
}

func (r *traceRecorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}
