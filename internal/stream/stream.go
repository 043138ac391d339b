package stream

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by Recv after the consumer has closed the stream.
var ErrClosed = errors.New("stream closed")

const defaultBuffer = 16

type item struct {
	fragment string
	err      error
}

// Stream is a finite, non-restartable sequence of answer fragments with a
// single producer and a single consumer. The producer pushes fragments and
// ends the stream with exactly one Finish or Fail call; the consumer pulls
// with Recv until a terminal error. Terminal states are sticky.
type Stream struct {
	items   chan item
	closedc chan struct{}

	mu       sync.Mutex
	closed   bool
	finished bool
	recvErr  error
}

func New() *Stream {
	return &Stream{
		items:   make(chan item, defaultBuffer),
		closedc: make(chan struct{}),
	}
}

// Push hands one fragment to the consumer. It reports false once the
// consumer has closed the stream, telling the producer to stop.
func (s *Stream) Push(fragment string) bool {
	s.mu.Lock()
	if s.finished || s.closed {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	select {
	case s.items <- item{fragment: fragment}:
		return true
	case <-s.closedc:
		return false
	}
}

// Fail ends the stream with err; the consumer observes it on the next Recv.
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	select {
	case s.items <- item{err: err}:
	case <-s.closedc:
	}
	close(s.items)
}

// Finish ends the stream normally; the consumer observes io.EOF once the
// buffered fragments are drained.
func (s *Stream) Finish() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()

	close(s.items)
}

// Recv returns the next fragment. It returns io.EOF after normal
// exhaustion, the producer's error after Fail, and ErrClosed after Close.
// Whatever terminal state is reached first repeats on every later call.
func (s *Stream) Recv() (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if s.recvErr != nil {
		err := s.recvErr
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	select {
	case it, ok := <-s.items:
		if !ok {
			s.setRecvErr(io.EOF)
			return "", io.EOF
		}
		if it.err != nil {
			s.setRecvErr(it.err)
			return "", it.err
		}
		return it.fragment, nil
	case <-s.closedc:
		return "", ErrClosed
	}
}

// Close abandons the stream early. Pending and future pushes report false
// so the producer can stop; Recv returns ErrClosed. Idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.closedc)

	return nil
}

func (s *Stream) setRecvErr(err error) {
	s.mu.Lock()
	if s.recvErr == nil {
		s.recvErr = err
	}
	s.mu.Unlock()
}
