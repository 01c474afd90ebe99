package client

import (
	"context"
	"sync"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

// session is the state of one submission. The read loop appends to buf;
// only flush copies buf to visible.
type session struct {
	topic  string
	cancel context.CancelFunc
	done   chan struct{}

	// settled is closed once the render hook has seen every state the
	// session emitted.
	settled chan struct{}

	// renderMu is shared by all sessions of a consumer so states are
	// queued in the order they were taken.
	renderMu *sync.Mutex
	emit     func(*session, domain.ClientStreamState)

	mu       sync.Mutex
	buf      []byte
	visible  string
	artifact string
	phase    domain.Phase
	err      error
}

func newSession(topic string, cancel context.CancelFunc, phase domain.Phase, renderMu *sync.Mutex, emit func(*session, domain.ClientStreamState)) *session {
	if cancel == nil {
		cancel = func() {}
	}
	return &session{
		topic:    topic,
		cancel:   cancel,
		done:     make(chan struct{}),
		settled:  make(chan struct{}),
		renderMu: renderMu,
		emit:     emit,
		phase:    phase,
	}
}

// completedSession is a session restored from a history entry.
func completedSession(entry domain.HistoryEntry, renderMu *sync.Mutex, emit func(*session, domain.ClientStreamState)) *session {
	s := newSession(entry.Topic, nil, domain.PhaseComplete, renderMu, emit)
	s.buf = []byte(entry.Explanation)
	s.visible = entry.Explanation
	s.artifact = entry.ImageURL
	close(s.done)
	close(s.settled)
	return s
}

func (s *session) append(text string) {
	s.mu.Lock()
	s.buf = append(s.buf, text...)
	s.mu.Unlock()
}

// flush promotes the buffer to the visible text if it has grown. It reports
// whether anything changed. emit must not block.
func (s *session) flush() bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if len(s.buf) <= len(s.visible) {
		s.mu.Unlock()
		return false
	}
	s.visible = string(s.buf)
	st := s.stateLocked()
	s.mu.Unlock()

	s.emit(s, st)
	return true
}

// transition moves to phase and notifies the render hook.
func (s *session) transition(phase domain.Phase, artifact string, err error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	s.phase = phase
	if artifact != "" {
		s.artifact = artifact
	}
	if err != nil {
		s.err = err
	}
	st := s.stateLocked()
	s.mu.Unlock()

	s.emit(s, st)
}

func (s *session) fail(err error) {
	s.transition(domain.PhaseFailed, "", err)
}

func (s *session) state() domain.ClientStreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *session) stateLocked() domain.ClientStreamState {
	return domain.ClientStreamState{
		BufferedText:      string(s.buf),
		VisibleText:       s.visible,
		ArtifactReference: s.artifact,
		Phase:             s.phase,
		Err:               s.err,
	}
}

// notify emits the current state.
func (s *session) notify() {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.emit(s, s.state())
}

// abort cancels the session's request and waits for its read loop to exit.
func (s *session) abort() {
	s.cancel()
	<-s.done
}
