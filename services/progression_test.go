package services

import (
	"context"
	"testing"

	"firefight-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelCurve(t *testing.T) {
	assert.Equal(t, int64(100), xpForNextLevel(1))
	assert.Equal(t, int64(200), levelThreshold(1))

	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(199))
	assert.Equal(t, 2, LevelForXP(200))

	prev := 1
	for xp := int64(0); xp < 200000; xp += 997 {
		level := LevelForXP(xp)
		assert.GreaterOrEqual(t, level, prev, "levels never go down")
		prev = level
	}
}

func TestDetermineRank(t *testing.T) {
	assert.Equal(t, 1, determineRank(1))
	assert.Equal(t, 1, determineRank(9))
	assert.Equal(t, 2, determineRank(10))
	assert.Equal(t, 3, determineRank(25))
	assert.Equal(t, 4, determineRank(50))
	assert.Equal(t, 5, determineRank(150))
}

func TestResultXP(t *testing.T) {
	w := DefaultXPWeights
	assert.EqualValues(t, 30+3*5, w.ResultXP(4, 3, 30))
	assert.EqualValues(t, 30+3*5+100, w.ResultXP(1, 3, 30))
	assert.EqualValues(t, 0, w.ResultXP(10, 0, 0))
}

func TestAwardXPLevelsUpAndRanks(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")

	u, err := e.Progression.AwardXP(ctx, "u1", 250, "test")
	require.NoError(t, err)
	assert.EqualValues(t, 250, u.XP)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, 1, u.Rank)

	stored, err := e.Users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Level)

	p := ProgressFor(stored)
	assert.Equal(t, "Bronze", p.RankName)
	assert.Greater(t, p.NextLevelXP, p.XP)
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for id, xp := range map[string]int64{"a": 50, "b": 500, "c": 5, "banned": 9000} {
		e.newUser(t, id, "0")
		_, err := e.Progression.AwardXP(ctx, id, xp, "seed")
		require.NoError(t, err)
	}
	require.NoError(t, e.DB.Model(&models.User{}).Where("id = ?", "banned").Update("is_banned", true).Error)

	board, err := e.Progression.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "b", board[0].UserID)
	assert.Equal(t, 1, board[0].Position)
	assert.Equal(t, "a", board[1].UserID)
}

func TestBadgesAwardedOnJoinAndWin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.newUser(t, "u1", "0")
	badges := NewBadgeService(e.DB)
	tr := e.newTournament(t)

	p, err := e.Participation.JoinWithPayment(ctx, tr.ID, "u1", nil)
	require.NoError(t, err)

	earned, err := badges.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "FIRST_DROP", earned[0].Code)

	e.goLive(t, tr.ID)
	_, err = submit(t, e, p, 2, 10)
	require.NoError(t, err)
	_, err = e.Participation.Verify(ctx, Verdict{ParticipantID: p.ID, AdminID: "admin", Approve: true, Rank: 1})
	require.NoError(t, err)

	earned, err = badges.ForUser(ctx, "u1")
	require.NoError(t, err)
	codes := make([]string, 0, len(earned))
	for _, b := range earned {
		codes = append(codes, b.Code)
	}
	assert.ElementsMatch(t, []string{"FIRST_DROP", "BOOYAH"}, codes)

	stats, err := badges.Stats(e.DB, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TournamentsJoined)
	assert.EqualValues(t, 1, stats.TournamentsWon)
	assert.EqualValues(t, 2, stats.TotalKills)

	// Awarding again is a no-op.
	again, err := badges.AutoAwardBadgesTx(e.DB, "u1")
	require.NoError(t, err)
	assert.Empty(t, again)
}
