// Package client consumes the relay's streamed answers. A Consumer keeps one
// active session at a time: the read loop fills a buffer and a fixed-cadence
// scheduler promotes it to the visible text, so rendering never runs once per
// network chunk.
package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

const readBufferSize = 4 << 10

// Consumer submits topics to a relay server and exposes the state of the
// active stream.
type Consumer struct {
	api      *API
	interval time.Duration
	onRender func(domain.ClientStreamState)
	logger   *slog.Logger
	now      func() time.Time

	renderMu sync.Mutex
	dispatch *dispatcher

	mu      sync.Mutex
	current *session
	history []domain.HistoryEntry

	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithToken sets the bearer credential.
func WithToken(token string) Option {
	return func(c *Consumer) {
		c.token = token
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Consumer) {
		c.httpClient = httpClient
	}
}

// WithRenderInterval overrides DefaultRenderInterval.
func WithRenderInterval(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRenderHook registers fn to observe state changes of the active
// session. Calls are serialised on a goroutine of their own. fn may call
// Start, Select or Close, but must not wait on a Stream.
func WithRenderHook(fn func(domain.ClientStreamState)) Option {
	return func(c *Consumer) {
		c.onRender = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithClock replaces time.Now for optimistic history entries.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) {
		c.now = now
	}
}

// NewConsumer creates a Consumer for the relay at baseURL.
func NewConsumer(baseURL string, opts ...Option) *Consumer {
	c := &Consumer{
		baseURL:  baseURL,
		interval: DefaultRenderInterval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = NewAPI(c.baseURL, c.token, c.httpClient)
	c.dispatch = newDispatcher(c.deliver)
	return c
}

// Stream is a handle on a started submission.
type Stream struct {
	s *session
}

// Wait blocks until the stream reaches a terminal phase and the render hook
// has seen its last state, then returns the final state and error.
func (st *Stream) Wait() (domain.ClientStreamState, error) {
	<-st.s.done
	<-st.s.settled
	state := st.s.state()
	return state, state.Err
}

// Cancel aborts the stream and waits for its cleanup.
func (st *Stream) Cancel() {
	st.s.abort()
}

// State returns the stream's current state.
func (st *Stream) State() domain.ClientStreamState {
	return st.s.state()
}

// Submit starts a stream for topic and blocks until it completes or fails.
func (c *Consumer) Submit(ctx context.Context, topic string) (domain.ClientStreamState, error) {
	return c.Start(ctx, topic).Wait()
}

// Start cancels any active stream and begins a new one for topic.
func (c *Consumer) Start(ctx context.Context, topic string) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := newSession(topic, cancel, domain.PhaseAwaitingMetadata, &c.renderMu, c.emit)
	c.install(s)
	s.notify()

	go c.run(ctx, s)
	return &Stream{s: s}
}

// Select replaces the active stream with a completed one showing entry.
func (c *Consumer) Select(entry domain.HistoryEntry) {
	s := completedSession(entry, &c.renderMu, c.emit)
	c.install(s)
	s.notify()
}

// Close aborts the active stream, if any, and waits for its cleanup.
func (c *Consumer) Close() {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s != nil {
		s.abort()
	}
}

// State returns the state of the active session.
func (c *Consumer) State() domain.ClientStreamState {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return domain.ClientStreamState{Phase: domain.PhaseIdle}
	}
	return s.state()
}

// History returns the local history list, newest first.
func (c *Consumer) History() []domain.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// RefreshHistory replaces the local history list with the server's.
func (c *Consumer) RefreshHistory(ctx context.Context) error {
	entries, err := c.api.History(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.history = entries
	c.mu.Unlock()
	return nil
}

// install makes s the active session and tears down the previous one.
func (c *Consumer) install(s *session) {
	c.mu.Lock()
	prev := c.current
	c.current = s
	c.mu.Unlock()

	if prev != nil {
		prev.abort()
	}
}

// emit queues st for the render hook.
func (c *Consumer) emit(s *session, st domain.ClientStreamState) {
	c.dispatch.push(notice{s: s, st: st})
}

// deliver runs on the dispatcher. States of a session that is no longer
// active are dropped.
func (c *Consumer) deliver(n notice) {
	if n.settled {
		close(n.s.settled)
		return
	}
	if c.onRender == nil {
		return
	}
	c.mu.Lock()
	active := c.current == n.s
	c.mu.Unlock()
	if active {
		c.onRender(n.st)
	}
}

func (c *Consumer) run(ctx context.Context, s *session) {
	defer close(s.done)
	defer c.dispatch.push(notice{s: s, settled: true})
	defer s.cancel()

	resp, err := c.api.Generate(ctx, s.topic)
	if err != nil {
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) {
			apiErr = domain.ErrTransport(err)
		}
		s.fail(apiErr)
		return
	}
	defer resp.Body.Close()

	artifact := resp.Header.Get(domain.ImageURLHeader)
	if artifact == "" {
		s.fail(domain.ErrMissingMetadata())
		return
	}
	s.transition(domain.PhaseStreaming, artifact, nil)

	sched := startScheduler(c.interval, func() { s.flush() })
	defer sched.Stop()

	err = readAll(resp.Body, s.append)

	sched.Stop()
	s.flush()

	if err != nil {
		c.logger.Debug("stream read failed", slog.String("topic", s.topic), slog.String("error", err.Error()))
		s.fail(domain.ErrTransport(err))
		return
	}

	final := s.state()
	now := c.now()
	c.prependHistory(domain.HistoryEntry{
		ID:          now.UTC().Format(time.RFC3339Nano),
		Topic:       s.topic,
		Explanation: final.BufferedText,
		ImageURL:    final.ArtifactReference,
		CreatedAt:   now,
	})
	s.transition(domain.PhaseComplete, "", nil)
}

func (c *Consumer) prependHistory(entry domain.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append([]domain.HistoryEntry{entry}, c.history...)
}

// readAll decodes r as UTF-8 and hands each decoded chunk to sink. Partial
// runes at a read boundary are held back until the rest arrives.
func readAll(r io.Reader, sink func(string)) error {
	dec := transform.NewReader(r, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			sink(string(buf[:n]))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
