package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cinelog/internal/logging"
	"cinelog/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	readBackoff = time.Second
)

// Manager runs worker goroutines that consume recompute jobs from Redis
// Streams as members of one consumer group.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	logger      zerolog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      queue.StreamRecommend,
		group:       queue.ConsumerGroupRecommend,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		logger:      logging.Component("manager"),
	}
}

// Start ensures the consumer group exists and spins up the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	host, _ := os.Hostname()
	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerName(host, i))
	}

	m.logger.Info().
		Int("workers", m.workerCount).
		Str("stream", m.stream).
		Str("group", m.group).
		Msg("workers started")
	return nil
}

// Stop cancels the workers and blocks until they have returned.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info().Msg("all workers stopped")
}

func (m *Manager) runWorker(workerID int, consumer string) {
	defer m.wg.Done()

	l := m.logger.With().Int("worker", workerID).Str("consumer", consumer).Logger()
	l.Debug().Msg("worker started")

	// Jobs delivered before a crash are still pending for this consumer name.
	m.processPending(l, consumer)

	for {
		select {
		case <-m.ctx.Done():
			l.Debug().Msg("worker shutting down")
			return
		default:
			m.processMessages(l, consumer)
		}
	}
}

func (m *Manager) processPending(l zerolog.Logger, consumer string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, m.stream, m.group, consumer, m.batchSize)
		if err != nil {
			l.Warn().Err(err).Msg("reading pending FAILED")
			return
		}
		if len(messages) == 0 {
			return
		}
		l.Info().Int("count", len(messages)).Msg("replaying pending jobs")
		m.handleMessages(l, messages)
	}
}

func (m *Manager) processMessages(l zerolog.Logger, consumer string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumer, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		l.Warn().Err(err).Msg("read FAILED")
		select {
		case <-m.ctx.Done():
		case <-time.After(readBackoff):
		}
		return
	}

	m.handleMessages(l, messages)
}

// handleMessages acknowledges every job, failed ones included; a failed
// recompute is retried by the user's next change rather than by redelivery.
func (m *Manager) handleMessages(l zerolog.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleJob(m.ctx, msg.Job); err != nil {
			l.Warn().Err(err).Str("msg_id", msg.ID).Msg("job FAILED")
		}
		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			l.Warn().Err(err).Str("msg_id", msg.ID).Msg("ack FAILED")
		}
	}
}

func consumerName(host string, workerID int) string {
	if host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-worker-%d", host, workerID)
}
