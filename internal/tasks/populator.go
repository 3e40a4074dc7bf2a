package tasks

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/queue"
	"github.com/desertthunder/segue/internal/shared"
	"golang.org/x/time/rate"
)

// JobSpec describes a batch of not-yet-resolved identifiers bound for the
// queue, all from one backend, in the order they should land.
type JobSpec struct {
	Source   string
	TrackIDs []string
}

// Job is the handle to one out-of-band population run. The run resolves its
// batch in order, appends to the queue and stops promptly when cancelled.
// Counters are safe to read while the run is live.
type Job struct {
	id     string
	spec   JobSpec
	cancel context.CancelFunc
	done   chan struct{}

	// stopped is set by the supervisor after the join. A write observed past
	// it would break the cross-job ordering guarantee.
	stopped  atomic.Bool
	resolved atomic.Int32
	failed   atomic.Int32
}

// ID returns the job's unique identifier.
func (j *Job) ID() string { return j.id }

// Spec returns the batch the job was started with.
func (j *Job) Spec() JobSpec { return j.spec }

// Done is closed when the run has fully stopped, by completion or
// cancellation. No queue mutation happens after it is closed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Resolved reports how many identifiers have been resolved and enqueued.
func (j *Job) Resolved() int { return int(j.resolved.Load()) }

// Failed reports how many identifiers were skipped.
func (j *Job) Failed() int { return int(j.failed.Load()) }

// Total reports the batch size.
func (j *Job) Total() int { return len(j.spec.TrackIDs) }

// Populator runs population jobs against one queue. RateLimit caps backend
// lookups per second; zero or negative disables the cap.
type Populator struct {
	resolver  *Resolver
	queue     *queue.Queue
	rateLimit float64
	progress  chan<- ProgressUpdate
	logger    *log.Logger
}

// NewPopulator wires a populator to its queue. progress may be nil.
func NewPopulator(resolver *Resolver, q *queue.Queue, rateLimit float64, progress chan<- ProgressUpdate, logger *log.Logger) *Populator {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Populator{
		resolver:  resolver,
		queue:     q,
		rateLimit: rateLimit,
		progress:  progress,
		logger:    logger,
	}
}

// start launches the run goroutine and returns its handle. Only the
// supervisor calls this; it owns cancellation and the join.
func (p *Populator) start(ctx context.Context, cancel context.CancelFunc, spec JobSpec) *Job {
	job := &Job{
		id:     shared.GenerateID(),
		spec:   spec,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx, job)
	return job
}

// run resolves the batch in input order. Cancellation is checked between
// identifier resolutions so a hung backend call never delays a replacement
// job, and re-checked before each append so a cancel arriving mid-lookup
// cannot leak a write.
func (p *Populator) run(ctx context.Context, job *Job) {
	defer close(job.done)

	total := len(job.spec.TrackIDs)
	p.logger.Debug("populator started", "job_id", job.id, "source", job.spec.Source, "total", total)

	limit := rate.Inf
	if p.rateLimit > 0 {
		limit = rate.Limit(p.rateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, id := range job.spec.TrackIDs {
		select {
		case <-ctx.Done():
			p.logger.Debug("populator cancelled", "job_id", job.id, "at", i, "total", total)
			return
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		track, err := p.resolver.ResolveByID(ctx, job.spec.Source, id)
		if err != nil {
			job.failed.Add(1)
			p.logger.Warn("populator skipping track", "job_id", job.id, "source", job.spec.Source, "track_id", id, "error", err)
			sendProgress(p.progress, populateFailedUpdate(i+1, total, id, err))
			continue
		}

		if job.stopped.Load() {
			p.logger.Error("populator write attempted after stop, aborting", "job_id", job.id)
			return
		}
		if ctx.Err() != nil {
			return
		}

		p.queue.Enqueue(*track)
		job.resolved.Add(1)
		sendProgress(p.progress, populateUpdate(i+1, total, track))
	}

	if total > 0 && job.Failed() == total {
		p.logger.Error("populator batch failed entirely", "job_id", job.id, "source", job.spec.Source, "total", total)
	}
	sendProgress(p.progress, populatorDoneUpdate(job.Resolved(), job.Failed(), total))
}
