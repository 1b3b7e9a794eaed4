package reconcile

import (
	"sync"
	"time"

	"go.trai.ch/fsroute/internal/core/domain"
)

// Scheduler records changes into a Queue and fires once no change has been recorded
// for a full window. Every change restarts the window.
type Scheduler struct {
	mu      sync.Mutex
	queue   *Queue
	timer   *time.Timer
	gen     uint64
	window  time.Duration
	fire    func()
	stopped bool
}

// NewScheduler creates a Scheduler calling fire, from its own goroutine, after each
// quiet window.
func NewScheduler(queue *Queue, window time.Duration, fire func()) *Scheduler {
	return &Scheduler{
		queue:  queue,
		window: window,
		fire:   fire,
	}
}

// OnEvent records the change and restarts the window.
func (s *Scheduler) OnEvent(change domain.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.queue.Record(change.Path, change.Kind != domain.ChangeRemove)

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.window, func() { s.expire(gen) })
}

// expire fires unless a newer event restarted the window after this timer was due.
func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if s.fire != nil {
		s.fire()
	}
}

// Pending reports whether a window is currently running.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels the running window. Later events are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
