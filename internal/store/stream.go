package store

import "sync"

// Stream is the Subscription implementation shared by the store backends. It
// queues snapshots between the producing watcher and the consuming channel so
// a slow consumer never blocks the backend callback, and guarantees in-order,
// loss-free delivery until Close.
type Stream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Snapshot
	closed bool

	ch   chan Snapshot
	done chan struct{}
	stop func()
	once sync.Once
}

// NewStream builds a stream whose Close also invokes stop, letting backends
// tear down their watcher exactly once.
func NewStream(stop func()) *Stream {
	s := &Stream{
		ch:   make(chan Snapshot),
		done: make(chan struct{}),
		stop: stop,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Updates returns the snapshot channel. It is closed after Close once all
// queued snapshots have been drained or abandoned.
func (s *Stream) Updates() <-chan Snapshot {
	return s.ch
}

// Push enqueues a snapshot for delivery. Pushes after Close are dropped.
func (s *Stream) Push(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, snap)
	s.cond.Signal()
}

// Close stops delivery. Idempotent.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cond.Signal()
		s.mu.Unlock()
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
	})
}

func (s *Stream) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.ch)
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- next:
		case <-s.done:
			close(s.ch)
			return
		}
	}
}
