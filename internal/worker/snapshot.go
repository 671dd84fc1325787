package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
	"github.com/game-leaderboard/internal/ranking"
	"github.com/go-co-op/gocron/v2"
)

// StandingsSource computes the current standings
type StandingsSource interface {
	GetStandings(ctx context.Context) ([]ranking.Standing, error)
}

// Publisher receives standings snapshots
type Publisher interface {
	PublishStandings(ctx context.Context, standings []ranking.Standing) error
}

// SnapshotWorker periodically publishes the leaderboard to a mirror
type SnapshotWorker struct {
	source    StandingsSource
	publisher Publisher
	config    *config.SnapshotConfig
	logger    *slog.Logger
	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(
	source StandingsSource,
	publisher Publisher,
	cfg *config.SnapshotConfig,
	logger *slog.Logger,
) *SnapshotWorker {
	return &SnapshotWorker{
		source:    source,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Start schedules the snapshot job
func (w *SnapshotWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.config.Interval),
		gocron.NewTask(func() { w.runCycle(ctx) }),
		gocron.WithName("publish-standings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("scheduling snapshot job: %w", err)
	}

	scheduler.Start()
	w.scheduler = scheduler
	w.running = true

	w.logger.Info("snapshot worker started", "interval", w.config.Interval)
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish
func (w *SnapshotWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}

	err := w.scheduler.Shutdown()
	w.scheduler = nil
	w.running = false

	w.logger.Info("snapshot worker stopped")
	return err
}

// IsRunning returns whether the worker is currently running
func (w *SnapshotWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce publishes a single snapshot
func (w *SnapshotWorker) RunOnce(ctx context.Context) error {
	standings, err := w.source.GetStandings(ctx)
	if errors.Is(err, domain.ErrNoScores) {
		w.logger.Debug("no scores to publish")
		return nil
	}
	if err != nil {
		return fmt.Errorf("computing standings: %w", err)
	}

	if err := w.publisher.PublishStandings(ctx, standings); err != nil {
		return err
	}
	return nil
}

func (w *SnapshotWorker) runCycle(ctx context.Context) {
	startTime := time.Now()
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("snapshot cycle failed", "error", err)
		return
	}
	w.logger.Debug("snapshot cycle completed", "duration", time.Since(startTime))
}
