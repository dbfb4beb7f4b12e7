package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"firefight-platform/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournamentValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	base := func() CreateTournamentInput {
		return CreateTournamentInput{
			Name:            "Kalahari Cup",
			Format:          models.FormatSolo,
			MaxParticipants: 10,
			StartTime:       time.Now().Add(time.Hour),
		}
	}

	cases := map[string]func(*CreateTournamentInput){
		"no slots":       func(in *CreateTournamentInput) { in.MaxParticipants = 0 },
		"negative fee":   func(in *CreateTournamentInput) { in.EntryFee = decimal.NewFromInt(-1) },
		"split over 100": func(in *CreateTournamentInput) { in.PrizeSplit = []int{60, 30, 20} },
		"unknown format": func(in *CreateTournamentInput) { in.Format = "duo" },
		"blank name":     func(in *CreateTournamentInput) { in.Name = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base()
			mutate(&in)
			_, err := e.Tournaments.Create(ctx, in)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}

	tr, err := e.Tournaments.Create(ctx, base())
	require.NoError(t, err)
	assert.Equal(t, models.TournamentUpcoming, tr.Status)
	assert.Equal(t, 10, tr.AvailableSlots)
}

func TestJoinPreconditionsInOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")
	e.newUser(t, "u2", "0")

	tr := e.newTournament(t, withSlots(1))
	_, err := e.Tournaments.Join(ctx, tr.ID, "u1", nil)
	require.NoError(t, err)

	// Full and already joined: the slot check comes first.
	_, err = e.Tournaments.Join(ctx, tr.ID, "u1", nil)
	assert.True(t, errors.Is(err, ErrSlotsFull))
	_, err = e.Tournaments.Join(ctx, tr.ID, "u2", nil)
	assert.True(t, errors.Is(err, ErrSlotsFull))

	open := e.newTournament(t, withSlots(5))
	_, err = e.Tournaments.Join(ctx, open.ID, "u1", nil)
	require.NoError(t, err)
	_, err = e.Tournaments.Join(ctx, open.ID, "u1", nil)
	assert.True(t, errors.Is(err, ErrAlreadyJoined))

	// Not upcoming wins over everything else.
	e.goLive(t, tr.ID)
	_, err = e.Tournaments.Join(ctx, tr.ID, "u2", nil)
	assert.True(t, errors.Is(err, ErrNotUpcoming))

	_, err = e.Tournaments.Join(ctx, "missing", "u2", nil)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestSquadJoinNeedsTeam(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "cap", "0")
	e.newUser(t, "mate", "0")
	e.newUser(t, "stranger", "0")

	tr := e.newTournament(t, squad())

	_, err := e.Tournaments.Join(ctx, tr.ID, "cap", nil)
	assert.True(t, errors.Is(err, ErrTeamRequired))
	empty := ""
	_, err = e.Tournaments.Join(ctx, tr.ID, "cap", &empty)
	assert.True(t, errors.Is(err, ErrTeamRequired))

	team, err := e.Teams.Create(ctx, "cap", "Night Owls", "", "")
	require.NoError(t, err)

	_, err = e.Tournaments.Join(ctx, tr.ID, "cap", &team.ID)
	assert.True(t, errors.Is(err, ErrRosterTooSmall))

	_, err = e.Teams.JoinByCode(ctx, "mate", team.Code, models.RoleSniper, "")
	require.NoError(t, err)

	_, err = e.Tournaments.Join(ctx, tr.ID, "stranger", &team.ID)
	assert.True(t, errors.Is(err, ErrNotTeamMember))

	p, err := e.Tournaments.Join(ctx, tr.ID, "cap", &team.ID)
	require.NoError(t, err)
	require.NotNil(t, p.TeamID)
	assert.Equal(t, team.ID, *p.TeamID)

	_, err = e.Tournaments.Join(ctx, tr.ID, "cap", &team.ID)
	assert.True(t, errors.Is(err, ErrAlreadyJoined))
}

func TestSoloJoinIgnoresTeam(t *testing.T) {
	e := newTestEnv(t)
	e.newUser(t, "u1", "0")
	tr := e.newTournament(t)
	team := "whatever"

	p, err := e.Tournaments.Join(context.Background(), tr.ID, "u1", &team)
	require.NoError(t, err)
	assert.Nil(t, p.TeamID)
}

func TestConcurrentJoinsForLastSlot(t *testing.T) {
	e := newTestEnv(t)
	tr := e.newTournament(t, withSlots(1), withFee("10"))
	const players = 8
	for i := 0; i < players; i++ {
		e.newUser(t, fmt.Sprintf("p%d", i), "50")
	}

	var wg sync.WaitGroup
	errs := make(chan error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Participation.JoinWithPayment(context.Background(), tr.ID, fmt.Sprintf("p%d", i), nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotsFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, players-1, full)

	got, err := e.Tournaments.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)

	// Exactly one fee was charged.
	var fees int64
	require.NoError(t, e.DB.Model(&models.Transaction{}).Where("type = ?", models.TxTournamentFee).Count(&fees).Error)
	assert.EqualValues(t, 1, fees)
}

func TestTransitions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tr := e.newTournament(t)

	_, err := e.Tournaments.Transition(ctx, tr.ID, models.TournamentCompleted, nil)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	live, err := e.Tournaments.Transition(ctx, tr.ID, models.TournamentLive, &Room{ID: "9981", Password: "ff"})
	require.NoError(t, err)
	assert.Equal(t, "9981", live.RoomID)
	assert.NotNil(t, live.StartedAt)

	_, err = e.Tournaments.Transition(ctx, tr.ID, models.TournamentUpcoming, nil)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	done, err := e.Tournaments.Transition(ctx, tr.ID, models.TournamentCompleted, nil)
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)

	_, err = e.Tournaments.Transition(ctx, tr.ID, models.TournamentCancelled, nil)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = e.Tournaments.Transition(ctx, tr.ID, "paused", nil)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCancelRefundsPaidEntries(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "100")
	e.newUser(t, "u2", "100")
	tr := e.newTournament(t, withFee("30"))

	for _, id := range []string{"u1", "u2"} {
		_, err := e.Participation.JoinWithPayment(ctx, tr.ID, id, nil)
		require.NoError(t, err)
		assertAmount(t, "70", e.balance(t, id))
	}

	cancelled, err := e.Tournaments.Transition(ctx, tr.ID, models.TournamentCancelled, nil)
	require.NoError(t, err)
	assert.NotNil(t, cancelled.CancelledAt)

	for _, id := range []string{"u1", "u2"} {
		assertAmount(t, "100", e.balance(t, id))
		assertConsistent(t, e, id)
		txs, _, err := e.Ledger.History(ctx, id, HistoryFilter{Type: models.TxRefund})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, tr.ID, txs[0].ReferenceID)
	}
}

func TestSetRoomOnlyWhileLive(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	tr := e.newTournament(t)

	_, err := e.Tournaments.SetRoom(ctx, tr.ID, Room{ID: "1", Password: "x"})
	assert.True(t, errors.Is(err, ErrNotLive))

	e.goLive(t, tr.ID)
	updated, err := e.Tournaments.SetRoom(ctx, tr.ID, Room{ID: "2", Password: "y"})
	require.NoError(t, err)
	assert.Equal(t, "2", updated.RoomID)

	got, err := e.Tournaments.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.RoomPassword)
}

func TestStartDue(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	past := e.newTournament(t)
	future := e.newTournament(t)
	require.NoError(t, e.DB.Model(&models.Tournament{}).Where("id = ?", past.ID).
		Update("start_time", time.Now().Add(-time.Minute)).Error)

	started, err := e.Tournaments.StartDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, started)

	got, err := e.Tournaments.Get(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentLive, got.Status)
	got, err = e.Tournaments.Get(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentUpcoming, got.Status)

	started, err = e.Tournaments.StartDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, started)
}

func TestListFiltersByStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.newTournament(t)
	e.newTournament(t)
	e.newTournament(t, squad())
	e.goLive(t, a.ID)

	list, total, err := e.Tournaments.List(ctx, TournamentFilter{Status: models.TournamentUpcoming})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, total, err = e.Tournaments.List(ctx, TournamentFilter{Format: models.FormatSquad})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestPrizeShareForRank(t *testing.T) {
	tr := models.Tournament{PrizePool: amount("1000")}
	assertAmount(t, "1000", tr.PrizeShareForRank(1))
	assertAmount(t, "0", tr.PrizeShareForRank(2))

	tr.PrizeSplit = []int{50, 30, 20}
	assertAmount(t, "500", tr.PrizeShareForRank(1))
	assertAmount(t, "300", tr.PrizeShareForRank(2))
	assertAmount(t, "200", tr.PrizeShareForRank(3))
	assertAmount(t, "0", tr.PrizeShareForRank(4))
	assertAmount(t, "0", tr.PrizeShareForRank(0))
}

func TestJoinedAmongUsesOneQuery(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")
	a := e.newTournament(t)
	b := e.newTournament(t)
	c := e.newTournament(t)
	_, err := e.Tournaments.Join(ctx, a.ID, "u1", nil)
	require.NoError(t, err)
	_, err = e.Tournaments.Join(ctx, c.ID, "u1", nil)
	require.NoError(t, err)

	rec := newTraceRecorder()
	svc := NewTournamentService(rec.attach(e.DB), e.Ledger)
	joined, err := svc.JoinedAmong(ctx, "u1", []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{a.ID: true, c.ID: true}, joined)
	assert.Equal(t, 1, rec.count())

	none, err := svc.JoinedAmong(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 1, rec.count(), "no query for an empty page")

	ok, err := svc.IsParticipant(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
