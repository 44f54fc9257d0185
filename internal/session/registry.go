package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scribeworks/meeting-audio-service/internal/config"
	"github.com/scribeworks/meeting-audio-service/internal/metrics"
	"github.com/scribeworks/meeting-audio-service/internal/platform"
)

// SourceFactory builds a platform frame source for a new session. It
// receives the manager's handlers so decoded frames flow straight into the
// pipeline. A nil factory creates sessions without a platform connection;
// audio is then pushed through ProcessRemoteAudio directly.
type SourceFactory func(handlers platform.Handlers) platform.AudioFrameSource

// Registry tracks every live session manager in the process
type Registry struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	factory SourceFactory

	sessions map[string]*Manager
	mu       sync.RWMutex
}

// NewRegistry creates an empty session registry
func NewRegistry(cfg *config.Config, factory SourceFactory, m *metrics.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		factory:  factory,
		sessions: make(map[string]*Manager),
	}
}

// Create builds a session manager and registers it. The session is in setup
// state; the caller starts it.
func (r *Registry) Create(params Params) (*Manager, error) {
	// The manager is wired to its source through a forward reference: the
	// source's handlers close over the pointer filled in below before any
	// frame can arrive, since frames only flow after Start connects.
	var mgr *Manager
	var source platform.AudioFrameSource
	if r.factory != nil {
		source = r.factory(platform.Handlers{
			OnFrame: func(frame platform.Frame) {
				mgr.ProcessRemoteAudio(frame)
			},
			OnParticipant: func(event platform.ParticipantEvent) {
				mgr.HandleParticipant(event)
			},
			OnError: func(err error) {
				mgr.HandleSourceError(err)
			},
		})
	}

	mgr, err := NewManager(r.cfg, params, source, r.metrics, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[mgr.ID()] = mgr
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	return mgr, nil
}

// Get returns a session manager by ID
func (r *Registry) Get(id string) (*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mgr, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return mgr, nil
}

// All returns every registered session manager
func (r *Registry) All() []*Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	managers := make([]*Manager, 0, len(r.sessions))
	for _, mgr := range r.sessions {
		managers = append(managers, mgr)
	}
	return managers
}

// Remove unregisters a session. The manager itself is untouched; callers
// end it first.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
}

// EndAll ends every live session. Used during shutdown.
func (r *Registry) EndAll(ctx context.Context) {
	for _, mgr := range r.All() {
		if mgr.Status() == StatusEnded {
			continue
		}
		if _, err := mgr.End(); err != nil {
			r.logger.Error("Failed to end session during shutdown",
				slog.String("session_id", mgr.ID()),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
