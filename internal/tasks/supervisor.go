package tasks

import (
	"context"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/segue/internal/shared"
)

// Supervisor owns the single live population job. Replace enforces the
// at-most-one invariant with a cancel-then-join-then-start protocol, so a
// dying job can never race its successor's queue writes.
type Supervisor struct {
	mu        sync.Mutex
	populator *Populator
	job       *Job
	logger    *log.Logger
}

// NewSupervisor wraps a populator.
func NewSupervisor(populator *Populator, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Supervisor{populator: populator, logger: logger}
}

// Replace cancels and fully joins any live job, then starts a new one for
// spec and returns its handle. The job runs on a background context because
// it outlives the request that spawned it.
func (s *Supervisor) Replace(spec JobSpec) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	job := s.populator.start(ctx, cancel, spec)
	s.job = job
	s.logger.Debug("populator job started", "job_id", job.id, "source", spec.Source, "total", len(spec.TrackIDs))
	return job
}

// Stop cancels and joins the live job, if any. Safe to call when none is
// running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.job == nil {
		return
	}

	s.job.cancel()
	<-s.job.done
	s.job.stopped.Store(true)

	s.logger.Debug("populator job stopped", "job_id", s.job.id, "resolved", s.job.Resolved(), "failed", s.job.Failed())
	s.job = nil
}

// Live returns the current job while its run is still going, nil otherwise.
func (s *Supervisor) Live() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return nil
	}
	select {
	case <-s.job.done:
		return nil
	default:
		return s.job
	}
}
