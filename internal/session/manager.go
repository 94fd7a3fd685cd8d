package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/engine/render"
	"github.com/GriffinCanCode/playground/internal/engine/runner"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when MaxSessions is reached
	ErrTooManySessions = errors.New("too many sessions")
	// ErrInvalidSource wraps source validation failures
	ErrInvalidSource = errors.New("invalid source")
	// ErrProfileMismatch is returned when a snippet targets another profile
	ErrProfileMismatch = errors.New("snippet profile does not match session")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("session manager closed")
)

// Observer receives session bookkeeping callbacks, typically metrics
type Observer interface {
	SessionOpened()
	SessionClosed()
	RenderDelivered()
}

// Snippets resolves catalog ids
type Snippets interface {
	Get(id string) (types.Snippet, error)
}

// Config defines session limits and per-session engine settings
type Config struct {
	MaxSessions    int
	TTL            time.Duration // idle time before a session is swept; 0 keeps sessions forever
	Sink           sink.Config
	EchoResult     bool
	Hints          bool
	MaxSourceBytes int
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		MaxSessions: 1000,
		TTL:         time.Hour,
		Sink:        sink.DefaultConfig(),
		Hints:       true,
	}
}

// Options wires a Manager to the engine and observers
type Options struct {
	Config   Config
	Executor sandbox.Executor
	Recorder runner.Recorder
	Observer Observer
	Snippets Snippets
	Tracer   *tracing.Tracer // optional, adds a span per run phase
	Logger   *zap.Logger
}

// Manager owns the live sessions
type Manager struct {
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
	closed   bool
	runs     int64 // runs of already-removed sessions

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a session manager
func NewManager(opts Options) (*Manager, error) {
	if opts.Executor == nil {
		return nil, errors.New("session: executor is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[id.SessionID]*Session),
		stop:     make(chan struct{}),
	}, nil
}

// Create opens a session for the named profile
func (m *Manager) Create(profileName string) (*Session, error) {
	profile, err := runner.LookupProfile(profileName)
	if err != nil {
		return nil, err
	}

	sid := id.NewSessionID()
	surfaces := sink.NewMultiSurface(logging.NewMirror(m.logger, sid.String()))
	sinkConfig := m.opts.Config.Sink
	if m.opts.Recorder != nil && sinkConfig.Observer == nil {
		if obs, ok := m.opts.Recorder.(sink.Observer); ok {
			sinkConfig.Observer = obs
		}
	}
	out := sink.New(sinkConfig, surfaces)
	target := render.NewHTMLTarget()

	var onTransition runner.TransitionFunc
	if m.opts.Tracer != nil {
		spans := m.opts.Tracer.RunSpans(map[string]string{
			"session_id": sid.String(),
			"profile":    profile.Name,
		})
		onTransition = func(run id.RunID, from, to runner.State) {
			spans.Transition(run.String(), string(from), string(to))
		}
	}

	ctrl, err := runner.New(runner.Options{
		Profile:      profile,
		Sink:         out,
		Target:       target,
		Executor:     m.opts.Executor,
		Logger:       m.logger.With(zap.String("session_id", sid.String())),
		Recorder:     m.opts.Recorder,
		EchoResult:   m.opts.Config.EchoResult,
		Hints:        m.opts.Config.Hints,
		OnTransition: onTransition,
	})
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	s := &Session{
		ID:          sid,
		CreatedAt:   time.Now(),
		profile:     profile,
		sink:        out,
		surfaces:    surfaces,
		target:      target,
		ctrl:        ctrl,
		maxSource:   m.opts.Config.MaxSourceBytes,
		unsubscribe: func() {},
	}
	s.touch()
	if obs := m.opts.Observer; obs != nil {
		s.unsubscribe = target.Subscribe(func(string) { obs.RenderDelivered() })
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.close()
		return nil, ErrClosed
	}
	if limit := m.opts.Config.MaxSessions; limit > 0 && len(m.sessions) >= limit {
		m.mu.Unlock()
		s.close()
		return nil, ErrTooManySessions
	}
	m.sessions[sid] = s
	m.mu.Unlock()

	if m.opts.Observer != nil {
		m.opts.Observer.SessionOpened()
	}
	m.logger.Info("Session created",
		zap.String("session_id", sid.String()),
		zap.String("profile", profile.Name))
	return s, nil
}

// Get returns a live session
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id.SessionID(sessionID)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// Run resolves req against the catalog and runs it in the session
func (m *Manager) Run(ctx context.Context, sessionID string, req types.RunRequest) (*runner.Report, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if req.SnippetID != "" {
		if m.opts.Snippets == nil {
			return nil, fmt.Errorf("snippet %s: no catalog configured", req.SnippetID)
		}
		snippet, err := m.opts.Snippets.Get(req.SnippetID)
		if err != nil {
			return nil, err
		}
		if snippet.Profile != s.Profile() {
			return nil, fmt.Errorf("%w: %s wants %s", ErrProfileMismatch, snippet.ID, snippet.Profile)
		}
		source = snippet.Source
	}
	return s.Run(ctx, source)
}

// List returns all sessions, oldest first
func (m *Manager) List() []types.SessionInfo {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	infos := make([]types.SessionInfo, len(list))
	for i, s := range list {
		infos[i] = s.Info()
	}
	return infos
}

// Delete closes and removes a session
func (m *Manager) Delete(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[id.SessionID(sessionID)]
	if ok {
		delete(m.sessions, s.ID)
		m.runs += int64(s.ctrl.Runs())
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	m.release(s, "deleted")
	return nil
}

// Stats returns manager statistics
func (m *Manager) Stats() types.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.Stats{TotalSessions: len(m.sessions), TotalRuns: m.runs}
	for _, s := range m.sessions {
		stats.TotalRuns += int64(s.ctrl.Runs())
	}
	return stats
}

// Sweep removes sessions idle since before now-TTL and returns how many
func (m *Manager) Sweep(now time.Time) int {
	ttl := m.opts.Config.TTL
	if ttl <= 0 {
		return 0
	}

	var expired []*Session
	m.mu.Lock()
	for sid, s := range m.sessions {
		if now.Sub(s.LastUsed()) > ttl && s.ctrl.State() == runner.StateIdle {
			delete(m.sessions, sid)
			m.runs += int64(s.ctrl.Runs())
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.release(s, "expired")
	}
	return len(expired)
}

// StartJanitor sweeps expired sessions every interval until Close
func (m *Manager) StartJanitor(interval time.Duration) {
	if interval <= 0 || m.opts.Config.TTL <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case now := <-ticker.C:
				if n := m.Sweep(now); n > 0 {
					m.logger.Info("Expired sessions swept", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close removes every session and stops the janitor
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[id.SessionID]*Session)
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	for _, s := range all {
		m.release(s, "shutdown")
	}
}

func (m *Manager) release(s *Session, reason string) {
	s.close()
	if m.opts.Observer != nil {
		m.opts.Observer.SessionClosed()
	}
	m.logger.Info("Session closed",
		zap.String("session_id", s.ID.String()),
		zap.String("reason", reason))
}
