package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/metrics"
)

// publishTimeout bounds a single broker publish made by a worker.
const publishTimeout = 10 * time.Second

// Dispatcher decouples request handlers from the broker.  Dispatch puts a
// message on a bounded buffer and returns immediately; a fixed pool of
// workers drains the buffer and publishes.  When the buffer is full the
// message is dropped and counted, so a slow or absent broker never stalls a
// request.
type Dispatcher struct {
	pub  Publisher
	log  *zap.Logger
	jobs chan MailMessage

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a buffer of the given
// size.  Call Close to stop them.
func NewDispatcher(pub Publisher, workers, buffer int, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	d := &Dispatcher{pub: pub, log: log, jobs: make(chan MailMessage, buffer)}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Dispatch enqueues msg without blocking.  It reports whether the message
// was accepted.
func (d *Dispatcher) Dispatch(msg MailMessage) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.MailDroppedTotal.Inc()
		return false
	}
	select {
	case d.jobs <- msg:
		metrics.MailQueuedTotal.Inc()
		metrics.MailQueueDepth.Set(float64(len(d.jobs)))
		return true
	default:
		metrics.MailDroppedTotal.Inc()
		d.log.Warn("mail dispatch buffer full, dropping message",
			zap.String("id", msg.ID), zap.String("template", msg.Template))
		return false
	}
}

// Close stops accepting messages and waits for the workers to publish what
// is already buffered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for msg := range d.jobs {
		metrics.MailQueueDepth.Set(float64(len(d.jobs)))
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := d.pub.Publish(ctx, msg)
		cancel()
		if err != nil {
			metrics.MailPublishFailedTotal.Inc()
			d.log.Error("mail publish failed",
				zap.Int("worker", n), zap.String("id", msg.ID), zap.String("to", msg.To), zap.Error(err))
			continue
		}
		d.log.Debug("mail published", zap.Int("worker", n), zap.String("id", msg.ID))
	}
}
