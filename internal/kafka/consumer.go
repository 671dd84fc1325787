package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// ScoreHandler processes score submissions
type ScoreHandler interface {
	SubmitScoreBatch(ctx context.Context, batch domain.BatchScoreSubmission) error
}

// ScoreMessage is the wire format of a score on the topic
type ScoreMessage struct {
	PlayerID *int64 `json:"player_id"`
	Score    *int64 `json:"score"`
}

var errIncompleteMessage = errors.New("player_id and score are required")

// decodeScore parses a message value into a submission
func decodeScore(value []byte) (domain.ScoreSubmission, error) {
	var msg ScoreMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.ScoreSubmission{}, err
	}
	if msg.PlayerID == nil || msg.Score == nil {
		return domain.ScoreSubmission{}, errIncompleteMessage
	}
	return domain.ScoreSubmission{PlayerID: *msg.PlayerID, Score: *msg.Score}, nil
}

// Consumer consumes score messages from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       ScoreHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler ScoreHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	return newConsumer(cfg, handler, logger, consumerGroup), nil
}

func newConsumer(cfg *config.KafkaConfig, handler ScoreHandler, logger *slog.Logger, group sarama.ConsumerGroup) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: group,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}
}

// Start begins consuming messages from Kafka.
// It returns once the first consumer group session is set up, or with an
// error if that does not happen within the configured start timeout.
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ready := c.ready
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    ready,
			}

			err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler)

			// Once the first session is set up, later sessions have nobody waiting on them
			select {
			case <-ready:
				ready = make(chan bool)
			default:
			}

			if err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err, "retry_in", c.config.RetryBackoff)

				select {
				case <-c.ctx.Done():
					return
				case <-time.After(c.config.RetryBackoff):
				}
				continue
			}

			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	startTimer := time.NewTimer(c.config.StartTimeout)
	defer startTimer.Stop()

	select {
	case <-c.ready:
		c.logger.Info("Kafka consumer ready")
	case <-startTimer.C:
		c.cancel()
		c.wg.Wait()
		return fmt.Errorf("consumer group not ready after %s", c.config.StartTimeout)
	case <-c.ctx.Done():
		return c.ctx.Err()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
	once     sync.Once
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.once.Do(func() { close(h.ready) })
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a topic partition
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	cfg := h.consumer.config
	batch := make([]domain.ScoreSubmission, 0, cfg.BatchSize)
	batchTimer := time.NewTimer(cfg.BatchTimeout)
	defer batchTimer.Stop()

	processBatch := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		scores := make([]domain.ScoreSubmission, len(batch))
		copy(scores, batch)
		if err := h.consumer.handler.SubmitScoreBatch(ctx, domain.BatchScoreSubmission{Scores: scores}); err != nil {
			h.consumer.logger.Error("failed to process batch", "error", err, "batch_size", len(batch))
		} else {
			h.consumer.logger.Debug("processed batch", "batch_size", len(batch))
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-session.Context().Done():
			processBatch()
			return nil

		case <-batchTimer.C:
			processBatch()
			batchTimer.Reset(cfg.BatchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				processBatch()
				return nil
			}

			submission, err := decodeScore(message.Value)
			if err != nil {
				h.consumer.logger.Warn("invalid score message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			batch = append(batch, submission)
			session.MarkMessage(message, "")

			if len(batch) >= cfg.BatchSize {
				processBatch()
				batchTimer.Reset(cfg.BatchTimeout)
			}
		}
	}
}
