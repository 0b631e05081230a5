package fallback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// Entry is one buffered position update
type Entry struct {
	Update     models.PositionUpdate
	Persisted  bool
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}

// Applier re-applies a buffered update. It reports whether the position is
// now persisted so a later retry only repeats the delivery step.
type Applier interface {
	ReapplyPosition(ctx context.Context, update models.PositionUpdate, persisted bool) (bool, error)
}

// LossReporter is told about every position that is given up on
type LossReporter interface {
	PublishPositionLost(ctx context.Context, event models.PositionLostEvent) error
}

// Queue buffers failed position updates per trip and retries the oldest
// entry of every trip on a fixed interval
type Queue struct {
	cfg      models.FallbackConfig
	reporter LossReporter
	now      func() time.Time

	mu      sync.Mutex
	entries map[string][]*Entry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a fallback queue. reporter may be nil.
func New(cfg models.FallbackConfig, reporter LossReporter) *Queue {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxEntriesPerTrip <= 0 {
		cfg.MaxEntriesPerTrip = 10
	}
	return &Queue{
		cfg:      cfg,
		reporter: reporter,
		now:      time.Now,
		entries:  make(map[string][]*Entry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue buffers update. When the trip already holds MaxEntriesPerTrip
// entries the oldest one is evicted.
func (q *Queue) Enqueue(update models.PositionUpdate, persisted bool, cause error) {
	entry := &Entry{
		Update:     update,
		Persisted:  persisted,
		EnqueuedAt: q.now(),
	}
	if cause != nil {
		entry.LastError = cause.Error()
	}

	q.mu.Lock()
	pending := q.entries[update.TripID]
	if len(pending) >= q.cfg.MaxEntriesPerTrip {
		evicted := pending[0]
		pending = pending[1:]
		metrics.FallbackTotal.WithLabelValues(metrics.FallbackEvicted).Inc()
		logger.Warn("Evicted buffered position",
			logger.String("trip_id", update.TripID),
			logger.String("sender_id", evicted.Update.SenderID),
			logger.Time("enqueued_at", evicted.EnqueuedAt))
	}
	q.entries[update.TripID] = append(pending, entry)
	q.mu.Unlock()

	metrics.FallbackTotal.WithLabelValues(metrics.FallbackEnqueued).Inc()
	metrics.FallbackPending.Set(float64(q.Pending()))
	logger.Warn("Position buffered for retry",
		logger.String("trip_id", update.TripID),
		logger.String("sender_id", update.SenderID),
		logger.Bool("persisted", persisted),
		logger.String("cause", entry.LastError))
}

// Pending returns the number of buffered entries across all trips
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, pending := range q.entries {
		n += len(pending)
	}
	return n
}

// Start runs the retry loop until ctx is done or Stop is called
func (q *Queue) Start(ctx context.Context, applier Applier) {
	go func() {
		defer close(q.done)
		ticker := time.NewTicker(q.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-q.stop:
				return
			case <-ticker.C:
				q.ProcessOnce(ctx, applier)
			}
		}
	}()
}

// Stop halts the retry loop and waits for the current pass to finish
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	<-q.done
}

// ProcessOnce retries the oldest entry of every trip once
func (q *Queue) ProcessOnce(ctx context.Context, applier Applier) {
	q.mu.Lock()
	heads := make([]*Entry, 0, len(q.entries))
	for _, pending := range q.entries {
		if len(pending) > 0 {
			heads = append(heads, pending[0])
		}
	}
	q.mu.Unlock()

	defer func() {
		metrics.FallbackPending.Set(float64(q.Pending()))
	}()
	for _, entry := range heads {
		if ctx.Err() != nil {
			return
		}
		q.retry(ctx, applier, entry)
	}
}

func (q *Queue) retry(ctx context.Context, applier Applier, entry *Entry) {
	q.mu.Lock()
	persisted := entry.Persisted
	q.mu.Unlock()

	persisted, err := applier.ReapplyPosition(ctx, entry.Update, persisted)

	if lost := q.settle(entry, persisted, err); lost != nil {
		q.reportLost(ctx, lost)
	}
}

// settle records the outcome of a retry and returns the entry when it hit
// the retry ceiling
func (q *Queue) settle(entry *Entry, persisted bool, err error) *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry.Persisted = persisted
	switch {
	case err == nil:
		q.remove(entry)
		metrics.FallbackTotal.WithLabelValues(metrics.FallbackRecovered).Inc()
		logger.Info("Buffered position delivered",
			logger.String("trip_id", entry.Update.TripID),
			logger.Int("retries", entry.RetryCount))
		return nil

	case errors.Is(err, dispatch.ErrTripNotActive), errors.Is(err, dispatch.ErrTripNotFound):
		q.remove(entry)
		logger.Warn("Discarded buffered position for inactive trip",
			logger.String("trip_id", entry.Update.TripID),
			logger.Err(err))
		return nil

	case errors.Is(err, dispatch.ErrNotAuthorized):
		q.remove(entry)
		logger.Warn("Discarded buffered position from a non-party sender",
			logger.String("trip_id", entry.Update.TripID),
			logger.String("sender_id", entry.Update.SenderID),
			logger.Err(err))
		return nil
	}

	entry.RetryCount++
	entry.LastError = err.Error()
	if entry.RetryCount < q.cfg.MaxRetries {
		metrics.FallbackTotal.WithLabelValues(metrics.FallbackRetried).Inc()
		return nil
	}
	q.remove(entry)
	lost := *entry
	return &lost
}

// remove drops entry from its trip; callers hold q.mu
func (q *Queue) remove(entry *Entry) {
	tripID := entry.Update.TripID
	pending := q.entries[tripID]
	for i, e := range pending {
		if e == entry {
			pending = append(pending[:i], pending[i+1:]...)
			break
		}
	}
	if len(pending) == 0 {
		delete(q.entries, tripID)
		return
	}
	q.entries[tripID] = pending
}

func (q *Queue) reportLost(ctx context.Context, entry *Entry) {
	metrics.FallbackTotal.WithLabelValues(metrics.FallbackLost).Inc()
	logger.Error("Position permanently lost",
		logger.Err(dispatch.ErrRetryCeilingExceeded),
		logger.String("trip_id", entry.Update.TripID),
		logger.String("sender_id", entry.Update.SenderID),
		logger.Int("retries", entry.RetryCount),
		logger.String("last_error", entry.LastError))

	if q.reporter == nil {
		return
	}
	event := models.PositionLostEvent{
		TripID:     entry.Update.TripID,
		SenderID:   entry.Update.SenderID,
		Position:   entry.Update.Position,
		Retries:    entry.RetryCount,
		EnqueuedAt: entry.EnqueuedAt,
		LostAt:     q.now(),
		LastError:  entry.LastError,
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := q.reporter.PublishPositionLost(ctx, event); err != nil {
		logger.Warn("Failed to report lost position",
			logger.String("trip_id", event.TripID),
			logger.Err(err))
	}
}
