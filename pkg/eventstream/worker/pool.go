// Package worker provides an asynchronous worker pool that publishes turn
// events through an eventstream.Publisher off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/ragchat/pkg/eventstream"
	"github.com/papercomputeco/ragchat/pkg/logger"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// ErrQueueFull is returned by PublishTurn when the event was dropped.
var ErrQueueFull = errors.New("eventstream queue full, event dropped")

// ErrClosed is returned by PublishTurn after Close.
var ErrClosed = errors.New("eventstream pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every queued event.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each publish (defaults to 10s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes events asynchronously. It implements eventstream.Publisher
// so callers cannot tell it apart from a synchronous publisher.
type Pool struct {
	config *Config
	queue  chan *eventstream.TurnCompletedEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.TurnCompletedEvent, c.QueueSize),
		logger: log,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// PublishTurn queues event for publishing. It never blocks: a full queue
// drops the event and returns ErrQueueFull.
func (p *Pool) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		p.logger.Debug("turn event queued", "event_id", event.EventID, "chat_id", event.ChatID)
		return nil
	default:
		p.logger.Error("turn event not queued, queue full, event dropped", "event_id", event.EventID, "chat_id", event.ChatID)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for queued ones to be published and
// then closes the underlying publisher.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("eventstream worker started", "worker_id", id)

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("eventstream worker stopped", "worker_id", id)
}

func (p *Pool) publish(event *eventstream.TurnCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Error("publishing turn event failed",
			"event_id", event.EventID,
			"chat_id", event.ChatID,
			"error", err,
		)
		return
	}

	p.logger.Debug("turn event published", "event_id", event.EventID, "chat_id", event.ChatID)
}

var _ eventstream.Publisher = (*Pool)(nil)
