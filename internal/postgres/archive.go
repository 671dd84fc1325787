package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive appends registrations and score submissions to PostgreSQL.
// It is an audit trail only; the service never restores state from it.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewArchive creates a new PostgreSQL event archive
func NewArchive(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*Archive, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Archive{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (a *Archive) Close() {
	a.pool.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS player_events (
		id BIGSERIAL PRIMARY KEY,
		player_id BIGINT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS score_events (
		id BIGSERIAL PRIMARY KEY,
		player_id BIGINT NOT NULL,
		username TEXT NOT NULL,
		score BIGINT NOT NULL,
		source VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_score_events_player ON score_events(player_id, created_at DESC)`,
}

// RunMigrations creates the archive tables
func (a *Archive) RunMigrations(ctx context.Context) error {
	for _, migration := range migrations {
		if _, err := a.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	a.logger.Info("database migrations completed")
	return nil
}

// RecordPlayer archives a registration
func (a *Archive) RecordPlayer(ctx context.Context, player domain.Player) error {
	query := `INSERT INTO player_events (player_id, username, email) VALUES ($1, $2, $3)`
	if _, err := a.pool.Exec(ctx, query, player.ID, player.Username, player.Email); err != nil {
		return fmt.Errorf("recording player: %w", err)
	}
	return nil
}

// RecordScore archives an accepted score submission
func (a *Archive) RecordScore(ctx context.Context, event domain.ScoreEvent) error {
	query := `
		INSERT INTO score_events (player_id, username, score, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := a.pool.Exec(ctx, query,
		event.PlayerID,
		event.Username,
		event.Score,
		event.Source,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording score event: %w", err)
	}
	return nil
}
