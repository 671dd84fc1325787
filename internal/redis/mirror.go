package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/ranking"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard:realtime"

// Mirror publishes leaderboard snapshots to Redis for external readers.
// The service never reads them back.
type Mirror struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMirror creates a new Redis mirror
func NewMirror(cfg *config.RedisConfig, logger *slog.Logger) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewMirrorWithClient(client, logger), nil
}

// NewMirrorWithClient wraps an existing client
func NewMirrorWithClient(client *redis.Client, logger *slog.Logger) *Mirror {
	return &Mirror{
		client: client,
		logger: logger,
	}
}

// Close closes the Redis connection
func (m *Mirror) Close() error {
	return m.client.Close()
}

// playerInfoKey returns the Redis key for player info
func playerInfoKey(playerID int64) string {
	return fmt.Sprintf("player:%d:info", playerID)
}

// member returns the sorted set member for a player
func member(playerID int64) string {
	return strconv.FormatInt(playerID, 10)
}

// PublishStandings replaces the mirrored leaderboard with the given standings.
// The sorted set is rebuilt inside MULTI/EXEC so readers never see a partial board.
func (m *Mirror) PublishStandings(ctx context.Context, standings []ranking.Standing) error {
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, leaderboardKey)
		if len(standings) == 0 {
			return nil
		}

		members := make([]redis.Z, len(standings))
		for i, s := range standings {
			members[i] = redis.Z{
				Score:  float64(s.Score),
				Member: member(s.PlayerID),
			}
			pipe.HSet(ctx, playerInfoKey(s.PlayerID), "username", s.Username, "rank", s.Rank)
		}
		pipe.ZAdd(ctx, leaderboardKey, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing standings: %w", err)
	}

	m.logger.Debug("published standings to redis", "players", len(standings))
	return nil
}
