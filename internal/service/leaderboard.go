package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/game-leaderboard/internal/domain"
	"github.com/game-leaderboard/internal/ranking"
	"github.com/game-leaderboard/internal/store"
)

// EventRecorder archives accepted registrations and submissions
type EventRecorder interface {
	RecordPlayer(ctx context.Context, player domain.Player) error
	RecordScore(ctx context.Context, event domain.ScoreEvent) error
}

// Broadcaster pushes changes to live subscribers
type Broadcaster interface {
	BroadcastPlayerRegistered(player domain.Player)
	BroadcastLeaderboardUpdate(entries []domain.LeaderboardEntry, totalPlayers int)
	GetTotalConnections() int
}

// LeaderboardService provides business logic for the registry, the ledger
// and the derived leaderboard
type LeaderboardService struct {
	store   *store.Memory
	archive EventRecorder
	hub     Broadcaster
	logger  *slog.Logger
	now     func() time.Time

	// feedMu orders leaderboard broadcasts so the last queued board is the newest
	feedMu sync.Mutex
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(store *store.Memory, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetArchive sets the event archive
func (s *LeaderboardService) SetArchive(archive EventRecorder) {
	s.archive = archive
}

// SetHub sets the live feed used for broadcasting
func (s *LeaderboardService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// RegisterPlayer adds a player to the registry
func (s *LeaderboardService) RegisterPlayer(ctx context.Context, player domain.Player) error {
	if err := s.store.RegisterPlayer(player); err != nil {
		return fmt.Errorf("registering player %d: %w", player.ID, err)
	}

	s.logger.Debug("player registered", "player_id", player.ID, "username", player.Username)

	if s.archive != nil {
		if err := s.archive.RecordPlayer(ctx, player); err != nil {
			s.logger.Warn("failed to archive player", "player_id", player.ID, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastPlayerRegistered(player)
	}

	return nil
}

// ListPlayers returns all players in registration order
func (s *LeaderboardService) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	return s.store.ListPlayers()
}

// SubmitScore records a score for a registered player and returns the player
func (s *LeaderboardService) SubmitScore(ctx context.Context, submission domain.ScoreSubmission) (domain.Player, error) {
	player, err := s.submit(ctx, submission, domain.SourceHTTP)
	if err != nil {
		return domain.Player{}, err
	}
	s.publishLeaderboard()
	return player, nil
}

// SubmitScoreBatch submits multiple scores.
// Failed submissions are logged and skipped. Live subscribers get one
// leaderboard update for the whole batch.
func (s *LeaderboardService) SubmitScoreBatch(ctx context.Context, batch domain.BatchScoreSubmission) error {
	accepted := 0
	for _, submission := range batch.Scores {
		if _, err := s.submit(ctx, submission, domain.SourceKafka); err != nil {
			s.logger.Warn("failed to submit score in batch",
				"player_id", submission.PlayerID,
				"score", submission.Score,
				"error", err,
			)
			continue
		}
		accepted++
	}

	if accepted > 0 {
		s.publishLeaderboard()
	}

	s.logger.Debug("processed score batch", "received", len(batch.Scores), "accepted", accepted)
	return nil
}

func (s *LeaderboardService) submit(ctx context.Context, submission domain.ScoreSubmission, source string) (domain.Player, error) {
	player, err := s.store.AppendScore(submission)
	if err != nil {
		return domain.Player{}, fmt.Errorf("submitting score for player %d: %w", submission.PlayerID, err)
	}

	if s.archive != nil {
		event := domain.ScoreEvent{
			PlayerID:  player.ID,
			Username:  player.Username,
			Score:     submission.Score,
			Source:    source,
			Timestamp: s.now(),
		}
		if err := s.archive.RecordScore(ctx, event); err != nil {
			s.logger.Warn("failed to archive score event", "player_id", player.ID, "error", err)
		}
	}

	return player, nil
}

// publishLeaderboard sends the current leaderboard to live subscribers.
// Nothing is computed while no client is connected.
func (s *LeaderboardService) publishLeaderboard() {
	if s.hub == nil || s.hub.GetTotalConnections() == 0 {
		return
	}

	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	snap := s.store.Snapshot()
	entries, err := ranking.Compute(snap.Players, snap.Scores)
	if err != nil {
		return
	}
	s.hub.BroadcastLeaderboardUpdate(entries, len(snap.Players))
}

// GetLeaderboard returns the leaderboard computed from the full ledger
func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	snap := s.store.Snapshot()
	return ranking.Compute(snap.Players, snap.Scores)
}

// GetStandings returns the ranked standings including player ids
func (s *LeaderboardService) GetStandings(ctx context.Context) ([]ranking.Standing, error) {
	snap := s.store.Snapshot()
	return ranking.Standings(snap.Players, snap.Scores)
}
