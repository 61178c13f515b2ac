// Package worker runs the background visit journal.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/metrics"
	"github.com/atinyakov/go-link-gate/internal/models"
)

const (
	DefaultBatchSize     = 25
	DefaultFlushInterval = 10 * time.Second
	DefaultBuffer        = 1024

	flushTimeout = 3 * time.Second
)

type Repo interface {
	SaveVisits(context.Context, []models.Visit) error
}

// VisitJournal collects visits from request handlers and writes them in
// batches. Enqueue never blocks; a full buffer drops the visit.
type VisitJournal struct {
	in        chan models.Visit
	logger    *zap.Logger
	repo      Repo
	batchSize int
	interval  time.Duration
	done      chan struct{}
	startOnce sync.Once
}

func NewVisitJournal(logger *zap.Logger, repo Repo) *VisitJournal {
	return &VisitJournal{
		in:        make(chan models.Visit, DefaultBuffer),
		logger:    logger,
		repo:      repo,
		batchSize: DefaultBatchSize,
		interval:  DefaultFlushInterval,
		done:      make(chan struct{}),
	}
}

// WithBatching overrides the batch size and the flush interval.
func (j *VisitJournal) WithBatching(size int, interval time.Duration) *VisitJournal {
	j.batchSize = size
	j.interval = interval
	return j
}

// Enqueue hands v to the worker and reports whether it was accepted.
func (j *VisitJournal) Enqueue(v models.Visit) bool {
	select {
	case j.in <- v:
		return true
	default:
		metrics.IncVisitDropped()
		j.logger.Warn("visit journal full, visit dropped", zap.String("link_id", v.LinkID))
		return false
	}
}

// Done is closed after Run has flushed and returned.
func (j *VisitJournal) Done() <-chan struct{} {
	return j.done
}

// Run flushes every batchSize visits or every interval, whichever comes
// first. When ctx is cancelled it drains the buffer, flushes once more and
// returns.
func (j *VisitJournal) Run(ctx context.Context) {
	j.startOnce.Do(func() { j.run(ctx) })
}

func (j *VisitJournal) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	batch := make([]models.Visit, 0, j.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// the request contexts are gone by now and ctx may already be done
		fctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()

		if err := j.repo.SaveVisits(fctx, batch); err != nil {
			metrics.IncVisitFlushError()
			j.logger.Error("cannot save visits", zap.Int("count", len(batch)), zap.Error(err))
		} else {
			metrics.AddVisitsFlushed(len(batch))
			j.logger.Debug("visits flushed", zap.Int("count", len(batch)))
		}
		batch = make([]models.Visit, 0, j.batchSize)
	}

	for {
		select {
		case v := <-j.in:
			batch = append(batch, v)
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case v := <-j.in:
					batch = append(batch, v)
				default:
					flush()
					j.logger.Info("visit journal stopped")
					return
				}
			}
		}
	}
}
