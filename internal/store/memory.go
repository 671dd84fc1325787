package store

import (
	"sync"

	"github.com/game-leaderboard/internal/domain"
)

// Snapshot is a consistent copy of the registry and the ledger
type Snapshot struct {
	Players []domain.Player
	Scores  []domain.ScoreSubmission
}

// Memory holds the player registry and the score ledger in process memory.
// A single RWMutex guards both collections so that player ids stay unique
// and every ledger entry references a registered player.
type Memory struct {
	mu      sync.RWMutex
	players []domain.Player          // registration order
	index   map[int64]int            // player id -> position in players
	scores  []domain.ScoreSubmission // append-only
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		index: make(map[int64]int),
	}
}

// RegisterPlayer appends a player to the registry.
// Returns ErrPlayerExists if the id is already taken.
func (m *Memory) RegisterPlayer(player domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[player.ID]; exists {
		return domain.ErrPlayerExists
	}

	m.index[player.ID] = len(m.players)
	m.players = append(m.players, player)
	return nil
}

// ListPlayers returns every registered player in registration order.
// An empty registry is reported as ErrNoPlayers.
func (m *Memory) ListPlayers() ([]domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.players) == 0 {
		return nil, domain.ErrNoPlayers
	}

	players := make([]domain.Player, len(m.players))
	copy(players, m.players)
	return players, nil
}

// FindPlayer looks up a player by id
func (m *Memory) FindPlayer(id int64) (domain.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.findLocked(id)
}

func (m *Memory) findLocked(id int64) (domain.Player, bool) {
	i, ok := m.index[id]
	if !ok {
		return domain.Player{}, false
	}
	return m.players[i], true
}

// AppendScore records a submission for a registered player and returns
// that player. The ledger is left untouched when the player is unknown.
func (m *Memory) AppendScore(submission domain.ScoreSubmission) (domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	player, ok := m.findLocked(submission.PlayerID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}

	m.scores = append(m.scores, submission)
	return player, nil
}

// Snapshot copies both collections under one read lock
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Players: make([]domain.Player, len(m.players)),
		Scores:  make([]domain.ScoreSubmission, len(m.scores)),
	}
	copy(snap.Players, m.players)
	copy(snap.Scores, m.scores)
	return snap
}

// PlayerCount returns the number of registered players
func (m *Memory) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// ScoreCount returns the number of ledger entries
func (m *Memory) ScoreCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scores)
}
