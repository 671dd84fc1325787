package ranking

import (
	"testing"

	"github.com/game-leaderboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTally(t *testing.T) {
	tests := []struct {
		name   string
		scores []domain.ScoreSubmission
		want   []Total
	}{
		{
			name:   "empty ledger",
			scores: nil,
			want:   []Total{},
		},
		{
			name: "scores accumulate per player",
			scores: []domain.ScoreSubmission{
				{PlayerID: 1, Score: 10},
				{PlayerID: 1, Score: 15},
			},
			want: []Total{{PlayerID: 1, Score: 25}},
		},
		{
			name: "descending by total",
			scores: []domain.ScoreSubmission{
				{PlayerID: 1, Score: 50},
				{PlayerID: 2, Score: 30},
				{PlayerID: 3, Score: 20},
				{PlayerID: 2, Score: 50},
			},
			want: []Total{
				{PlayerID: 2, Score: 80},
				{PlayerID: 1, Score: 50},
				{PlayerID: 3, Score: 20},
			},
		},
		{
			name: "ties broken by player id",
			scores: []domain.ScoreSubmission{
				{PlayerID: 9, Score: 40},
				{PlayerID: 4, Score: 40},
				{PlayerID: 6, Score: 40},
			},
			want: []Total{
				{PlayerID: 4, Score: 40},
				{PlayerID: 6, Score: 40},
				{PlayerID: 9, Score: 40},
			},
		},
		{
			name: "negative and zero scores",
			scores: []domain.ScoreSubmission{
				{PlayerID: 1, Score: -10},
				{PlayerID: 2, Score: 0},
				{PlayerID: 1, Score: 3},
			},
			want: []Total{
				{PlayerID: 2, Score: 0},
				{PlayerID: 1, Score: -7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tally(tt.scores))
		})
	}
}

func TestCompute(t *testing.T) {
	players := []domain.Player{
		{ID: 1, Username: "A"},
		{ID: 2, Username: "B"},
		{ID: 3, Username: "C"},
	}

	t.Run("no scores", func(t *testing.T) {
		entries, err := Compute(players, nil)
		assert.ErrorIs(t, err, domain.ErrNoScores)
		assert.Nil(t, entries)
	})

	t.Run("ranked by total", func(t *testing.T) {
		scores := []domain.ScoreSubmission{
			{PlayerID: 1, Score: 50},
			{PlayerID: 2, Score: 80},
			{PlayerID: 3, Score: 20},
		}

		entries, err := Compute(players, scores)
		require.NoError(t, err)
		assert.Equal(t, []domain.LeaderboardEntry{
			{Username: "B", Score: 80},
			{Username: "A", Score: 50},
			{Username: "C", Score: 20},
		}, entries)
	})

	t.Run("unknown player is dropped", func(t *testing.T) {
		scores := []domain.ScoreSubmission{
			{PlayerID: 1, Score: 10},
			{PlayerID: 99, Score: 100},
		}

		entries, err := Compute(players, scores)
		require.NoError(t, err)
		assert.Equal(t, []domain.LeaderboardEntry{{Username: "A", Score: 10}}, entries)
	})

	t.Run("every total dropped yields empty board", func(t *testing.T) {
		entries, err := Compute(nil, []domain.ScoreSubmission{{PlayerID: 5, Score: 1}})
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NotNil(t, entries)
	})
}

func TestStandings(t *testing.T) {
	players := []domain.Player{
		{ID: 1, Username: "alice"},
		{ID: 3, Username: "carol"},
	}
	scores := []domain.ScoreSubmission{
		{PlayerID: 1, Score: 30},
		{PlayerID: 2, Score: 90},
		{PlayerID: 3, Score: 45},
		{PlayerID: 1, Score: 20},
	}

	standings, err := Standings(players, scores)
	require.NoError(t, err)

	// player 2 is unregistered and dropped, ranks close the gap
	assert.Equal(t, []Standing{
		{Rank: 1, PlayerID: 1, Username: "alice", Score: 50},
		{Rank: 2, PlayerID: 3, Username: "carol", Score: 45},
	}, standings)
}
