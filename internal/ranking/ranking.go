// Package ranking folds the score ledger into per-player totals and joins
// them against the player registry to produce the leaderboard.
package ranking

import (
	"cmp"
	"slices"

	"github.com/game-leaderboard/internal/domain"
)

// Total is the summed score of one player
type Total struct {
	PlayerID int64
	Score    int64
}

// Tally sums scores per player in a single pass over the ledger.
// Totals are ordered by score descending; equal totals are ordered by
// player id ascending so the ranking is reproducible.
func Tally(scores []domain.ScoreSubmission) []Total {
	sums := make(map[int64]int64)
	for _, s := range scores {
		sums[s.PlayerID] += s.Score
	}

	totals := make([]Total, 0, len(sums))
	for playerID, score := range sums {
		totals = append(totals, Total{PlayerID: playerID, Score: score})
	}

	slices.SortFunc(totals, func(a, b Total) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})
	return totals
}

// Standing is a resolved, ranked leaderboard row
type Standing struct {
	Rank     int
	PlayerID int64
	Username string
	Score    int64
}

// Standings tallies the ledger and resolves each total against the
// registry. Returns ErrNoScores when the ledger is empty.
//
// A total whose player is missing from the registry is dropped without
// an error. The ledger never references unknown players, so this only
// matters if that invariant is broken.
func Standings(players []domain.Player, scores []domain.ScoreSubmission) ([]Standing, error) {
	if len(scores) == 0 {
		return nil, domain.ErrNoScores
	}

	usernames := make(map[int64]string, len(players))
	for _, p := range players {
		usernames[p.ID] = p.Username
	}

	totals := Tally(scores)
	standings := make([]Standing, 0, len(totals))
	for _, t := range totals {
		username, ok := usernames[t.PlayerID]
		if !ok {
			continue
		}
		standings = append(standings, Standing{
			Rank:     len(standings) + 1,
			PlayerID: t.PlayerID,
			Username: username,
			Score:    t.Score,
		})
	}
	return standings, nil
}

// Compute builds the public leaderboard view
func Compute(players []domain.Player, scores []domain.ScoreSubmission) ([]domain.LeaderboardEntry, error) {
	standings, err := Standings(players, scores)
	if err != nil {
		return nil, err
	}
	return Entries(standings), nil
}

// Entries strips standings down to username and score
func Entries(standings []Standing) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, len(standings))
	for i, s := range standings {
		entries[i] = domain.LeaderboardEntry{Username: s.Username, Score: s.Score}
	}
	return entries
}
