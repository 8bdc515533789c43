// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrSchedulerClosed is returned by Submit after Close.
var ErrSchedulerClosed = errors.New("parallel: scheduler closed")

// Job is a unit of work executed by the Scheduler.
type Job interface {
	// Run performs the work. Jobs are never cancelled once started; ctx is
	// only done when the scheduler is torn down.
	Run(ctx context.Context)

	// Exclusive reports whether the job must run with no other job in
	// flight, e.g. because it rewrites a layer projection that ordinary
	// update jobs read.
	Exclusive() bool
}

// namedJob is implemented by jobs that want a readable name in logs.
type namedJob interface {
	Name() string
}

// Scheduler runs jobs in submission order. Ordinary jobs share a weighted
// semaphore of the configured capacity and may run concurrently; an
// exclusive job takes the whole capacity, so it waits for every running
// job and blocks every later one until it finishes. Admission is FIFO,
// which keeps an exclusive job from being starved by a stream of ordinary
// ones.
//
// Thread safety: Scheduler is safe for concurrent use.
type Scheduler struct {
	sem      *semaphore.Weighted
	capacity int64

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	changed *sync.Cond
	queue   []Job
	active  int
	closed  bool

	dispatcherDone chan struct{}
}

// NewScheduler creates a scheduler admitting up to capacity ordinary jobs
// at once. If capacity is 0 or negative, GOMAXPROCS is used.
func NewScheduler(capacity int) *Scheduler {
	if capacity <= 0 {
		capacity = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sem:            semaphore.NewWeighted(int64(capacity)),
		capacity:       int64(capacity),
		ctx:            ctx,
		cancel:         cancel,
		dispatcherDone: make(chan struct{}),
	}
	s.changed = sync.NewCond(&s.mu)
	go s.dispatch()
	return s
}

// Submit queues job for execution.
func (s *Scheduler) Submit(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	s.queue = append(s.queue, job)
	s.active++
	s.changed.Broadcast()
	return nil
}

func (s *Scheduler) dispatch() {
	defer close(s.dispatcherDone)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.changed.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		weight := int64(1)
		if job.Exclusive() {
			weight = s.capacity
		}
		if err := s.sem.Acquire(s.ctx, weight); err != nil {
			s.finish()
			continue
		}
		go s.run(job, weight)
	}
}

func (s *Scheduler) run(job Job, weight int64) {
	defer s.finish()
	defer s.sem.Release(weight)

	if l := slogger(); l.Enabled(s.ctx, slog.LevelDebug) {
		name := "job"
		if n, ok := job.(namedJob); ok {
			name = n.Name()
		}
		l.Debug("parallel: running job", "job", name, "exclusive", job.Exclusive())
	}
	job.Run(s.ctx)
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.active--
	s.changed.Broadcast()
	s.mu.Unlock()
}

// WaitForDone blocks until every submitted job has finished, including
// jobs submitted by running jobs while waiting.
func (s *Scheduler) WaitForDone() {
	s.mu.Lock()
	for s.active > 0 {
		s.changed.Wait()
	}
	s.mu.Unlock()
}

// Barrier blocks until no job is running and keeps any new job from
// starting until the returned release function is called.
func (s *Scheduler) Barrier() (release func()) {
	if err := s.sem.Acquire(context.Background(), s.capacity); err != nil {
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() { s.sem.Release(s.capacity) })
	}
}

// Pending returns the number of submitted jobs that have not finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Capacity returns the number of ordinary jobs that may run at once.
func (s *Scheduler) Capacity() int {
	return int(s.capacity)
}

// Close waits for the queued jobs to finish and stops the dispatcher.
// Close is safe to call multiple times.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.changed.Broadcast()
	s.mu.Unlock()

	<-s.dispatcherDone
	s.WaitForDone()
	s.cancel()
}
