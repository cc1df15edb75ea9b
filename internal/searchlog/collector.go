package searchlog

import (
	"context"
	"log/slog"

	"github.com/senirlioglu/Ara/pkg/kafka"
)

// Publisher is the transport the collector writes to.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector buffers search events and publishes them asynchronously.
// Track never blocks the request path: when the buffer is full the event is
// dropped with a warning.
type Collector struct {
	publisher Publisher
	eventCh   chan Event
	logger    *slog.Logger
	done      chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan Event, bufferSize),
		logger:    slog.Default().With("component", "searchlog-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("search log collector started", "buffer_size", cap(c.eventCh))
}

// Track queues an event for publishing. Best effort only.
func (c *Collector) Track(event Event) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("search event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event Event) {
	err := c.publisher.Publish(ctx, kafka.Event{
		Key:   event.NormalizedTerm,
		Value: event,
	})
	if err != nil {
		c.logger.Error("failed to publish search event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
