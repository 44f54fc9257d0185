package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
	"github.com/scribeworks/meeting-audio-service/internal/config"
	"github.com/scribeworks/meeting-audio-service/internal/metrics"
	"github.com/scribeworks/meeting-audio-service/internal/platform"
	"github.com/scribeworks/meeting-audio-service/internal/speaker"
	"github.com/scribeworks/meeting-audio-service/internal/store"
	"github.com/scribeworks/meeting-audio-service/internal/transcription"
	"github.com/scribeworks/meeting-audio-service/internal/vad"
)

// Params describe a session to create
type Params struct {
	Title      string
	CallHandle string
}

// Manager owns one session end to end: lifecycle transitions, the audio
// pipeline, transcription dispatch, persistence and the event stream.
type Manager struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	sess       *Session
	transcript []TranscriptEntry

	source      platform.AudioFrameSource // nil when audio is pushed directly
	gate        vad.Gate
	attributor  *speaker.Attributor
	accumulator *audio.Accumulator
	recorder    *audio.Recorder
	coordinator *transcription.Coordinator
	store       *store.Store
	autosaver   *store.Autosaver
	events      *EventStream

	threshold float32
	inSpeech  bool

	mu sync.RWMutex
}

// ManagerStats aggregates component statistics for monitoring
type ManagerStats struct {
	SessionID     string                         `json:"session_id"`
	Status        Status                         `json:"status"`
	Attendees     int                            `json:"attendees"`
	Entries       int                            `json:"transcript_entries"`
	EventsDropped uint64                         `json:"events_dropped"`
	Recorder      audio.RecorderStats            `json:"recorder"`
	Accumulator   audio.AccumulatorStats         `json:"accumulator"`
	Attributor    speaker.AttributorStats        `json:"attributor"`
	Transcription transcription.CoordinatorStats `json:"transcription"`
	Store         store.StoreStats               `json:"store"`
}

// NewManager creates a session in setup state. The store directory is
// created here so an unwritable data directory fails session creation.
func NewManager(cfg *config.Config, params Params, source platform.AudioFrameSource,
	m *metrics.Metrics, logger *slog.Logger) (*Manager, error) {

	sess := NewSession(params.Title, params.CallHandle)

	st, err := store.New(cfg.Storage.DataDir, sess.ID, logger)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	gate, err := vad.NewEnergyGate(cfg.VAD.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("create vad gate: %w", err)
	}

	mgr := &Manager{
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		sess:       sess,
		source:     source,
		gate:       gate,
		attributor: speaker.NewAttributor(),
		accumulator: audio.NewAccumulator(audio.SegmentConfig{
			MaxBytes: cfg.Audio.SegmentMaxBytes,
			MinBytes: cfg.Audio.MinSegmentBytes(),
		}),
		recorder:   audio.NewRecorder(cfg.Audio.SampleRate),
		store:      st,
		events:     NewEventStream(),
		threshold:  cfg.VAD.Threshold,
		transcript: []TranscriptEntry{},
	}

	// Transcription is decided once, here. A session created without a
	// credential stays a segmentation and recording tool for its whole life.
	mode := transcription.Disabled()
	if cfg.Transcription.Enabled && cfg.Transcription.APIKey != "" {
		client, err := transcription.NewClient(transcription.Config{
			Endpoint:      cfg.Transcription.Endpoint,
			APIKey:        cfg.Transcription.APIKey,
			Timeout:       cfg.Transcription.GetTimeoutDuration(),
			MaxConcurrent: cfg.Transcription.MaxConcurrent,
			Language:      cfg.Transcription.Language,
			Model:         cfg.Transcription.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("create transcription client: %w", err)
		}
		mode = transcription.Enabled(client)
	}
	mgr.coordinator = transcription.NewCoordinator(mode, sess.ID, cfg.Audio.SampleRate,
		logger, mgr.onTranscription, mgr.onTranscriptionError)

	mgr.autosaver = store.NewAutosaver(cfg.Storage.GetAutosaveInterval(), mgr.autosave, logger)

	if err := st.WriteSessionState(sess); err != nil {
		return nil, fmt.Errorf("write initial session state: %w", err)
	}

	m.RecordSessionCreated()
	logger.Info("Session created",
		slog.String("session_id", sess.ID),
		slog.String("title", sess.Title),
		slog.Bool("transcription", mode.Active()),
	)

	return mgr, nil
}

// ID returns the session identifier
func (m *Manager) ID() string {
	return m.sess.ID
}

// Status returns the current lifecycle state
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Status
}

// Events returns the session event stream
func (m *Manager) Events() <-chan Event {
	return m.events.Events()
}

// Start moves the session from setup to active, initializes the pipeline
// and connects to the platform when a source is configured. Starting a
// session that already left setup is a silent no-op so redundant control
// calls are tolerated.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()

	if m.sess.Status != StatusSetup {
		m.mu.Unlock()
		return nil
	}

	if err := m.gate.Initialize(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("initialize vad gate: %w", err)
	}

	if m.source != nil {
		if err := m.source.Connect(ctx, m.sess.CallHandle); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("connect platform source: %w", err)
		}
	}

	now := time.Now()
	m.sess.Status = StatusActive
	m.sess.StartedAt = &now

	m.autosaver.Start()
	m.emit(Event{Kind: EventMeetingStarted})
	m.mu.Unlock()

	m.persist()
	m.logger.Info("Session started", slog.String("session_id", m.sess.ID))
	return nil
}

// Pause suspends the processing pipeline. Pausing a session that is not
// active is a silent no-op.
func (m *Manager) Pause() error {
	m.mu.Lock()

	if m.sess.Status != StatusActive {
		m.mu.Unlock()
		return nil
	}

	m.sess.Status = StatusPaused
	m.emit(Event{Kind: EventMeetingPaused})
	m.mu.Unlock()

	m.persist()
	m.logger.Info("Session paused", slog.String("session_id", m.sess.ID))
	return nil
}

// Resume reactivates a paused session. Resuming a session that is not
// paused is a silent no-op.
func (m *Manager) Resume() error {
	m.mu.Lock()

	if m.sess.Status != StatusPaused {
		m.mu.Unlock()
		return nil
	}

	m.sess.Status = StatusActive
	m.emit(Event{Kind: EventMeetingResumed})
	m.mu.Unlock()

	m.persist()
	m.logger.Info("Session resumed", slog.String("session_id", m.sess.ID))
	return nil
}

// ProcessRemoteAudio ingests one decoded audio frame. Every frame that
// arrives before the session ends goes into the recording, including frames
// received during setup and while paused; the speech pipeline only runs
// while active. Frames after End are dropped.
func (m *Manager) ProcessRemoteAudio(frame platform.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.RecordFrameReceived()

	if m.sess.Status == StatusEnded {
		m.metrics.RecordFrameSkipped()
		return
	}

	m.recorder.Append(frame.PCM)
	m.metrics.RecordFrameRecorded()

	if m.sess.Status != StatusActive {
		m.metrics.RecordFrameSkipped()
		return
	}

	samples := audio.BytesToSamples(frame.PCM)

	m.emit(Event{Kind: EventVolumeLevel, Volume: audio.Level(samples)})

	prob, err := m.gate.Process(samples)
	if err != nil {
		m.logger.Warn("VAD processing failed",
			slog.String("session_id", m.sess.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if prob >= m.threshold {
		m.accumulator.Append(frame.PCM, frame.Speaker)
		m.inSpeech = true
		return
	}

	if m.inSpeech {
		m.inSpeech = false
		m.flushSegmentLocked()
	}
}

// HandleParticipant applies a roster notification from the platform
func (m *Manager) HandleParticipant(event platform.ParticipantEvent) {
	switch event.Kind {
	case platform.ParticipantJoined:
		m.AddAttendee(event.ID, event.Name)
	case platform.ParticipantLeft:
		m.MarkAttendeeLeft(event.ID)
	}
}

// HandleSourceError surfaces a platform stream failure on the event stream
func (m *Manager) HandleSourceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Error("Platform source failed",
		slog.String("session_id", m.sess.ID),
		slog.String("error", err.Error()),
	)
	m.emit(Event{Kind: EventError, Error: err.Error()})
}

// flushSegmentLocked closes the pending segment and hands it to the
// transcription coordinator. Must hold mu.
func (m *Manager) flushSegmentLocked() {
	before := m.accumulator.GetStats().SegmentsDiscarded
	segment := m.accumulator.Flush()
	if segment == nil {
		if m.accumulator.GetStats().SegmentsDiscarded > before {
			m.metrics.RecordSegmentDiscarded()
		}
		return
	}

	bytesPerSecond := m.cfg.Audio.BytesPerSecond()
	m.metrics.RecordSegmentFlushed(segment.Duration(bytesPerSecond).Seconds(), len(segment.Data))

	attribution, changed := m.attributor.Resolve(segment.Speaker)
	m.emit(Event{Kind: EventSpeakerIdentified, Speaker: &attribution})
	if changed {
		m.emit(Event{Kind: EventSpeakerChanged, Speaker: &attribution})
	}

	if m.coordinator.GetStats().Enabled {
		m.metrics.RecordTranscriptionRequest()
	}
	m.coordinator.Dispatch(segment, attribution)
}

// onTranscription appends a completed transcription in completion order
func (m *Manager) onTranscription(result transcription.Result) {
	m.mu.Lock()

	if m.sess.Status == StatusEnded {
		m.mu.Unlock()
		return
	}

	entry := TranscriptEntry{
		ID:          uuid.New().String(),
		Text:        result.Text,
		SpeakerName: result.Speaker.SpeakerName,
		Confidence:  result.Speaker.Confidence,
		Timestamp:   result.CompletedAt,
	}
	if result.Speaker.SpeakerID != "" {
		id := result.Speaker.SpeakerID
		entry.SpeakerID = &id
	}

	m.transcript = append(m.transcript, entry)
	m.metrics.RecordTranscriptionSuccess(result.CompletedAt.Sub(result.CapturedAt).Seconds())
	m.emit(Event{Kind: EventTranscriptEntry, Entry: &entry})
	m.mu.Unlock()

	m.persist()
}

// onTranscriptionError surfaces a failed transcription. The segment is not
// retried; the audio survives in the session recording.
func (m *Manager) onTranscriptionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.RecordTranscriptionFailure(0)
	m.emit(Event{Kind: EventTranscriptionError, Error: err.Error()})
}

// persist writes the snapshot immediately so lifecycle transitions and new
// transcript entries are durable without waiting for the next autosave tick.
// Must not hold mu.
func (m *Manager) persist() {
	if err := m.saveSnapshot(); err != nil {
		m.logger.Error("Failed to persist session state",
			slog.String("session_id", m.sess.ID),
			slog.String("error", err.Error()),
		)
	}
}

// autosave writes the current snapshot. Runs on the autosaver goroutine.
func (m *Manager) autosave() error {
	err := m.saveSnapshot()
	m.metrics.RecordAutosave(err)
	return err
}

// saveSnapshot persists session state and transcript
func (m *Manager) saveSnapshot() error {
	m.mu.RLock()
	sess := *m.sess
	sess.Attendees = append([]Attendee(nil), m.sess.Attendees...)
	transcript := append([]TranscriptEntry(nil), m.transcript...)
	m.mu.RUnlock()

	if err := m.store.WriteSessionState(&sess); err != nil {
		return err
	}
	return m.store.WriteTranscript(transcript)
}

// End terminates the session, disposes the pipeline in dependency order and
// writes the final snapshot and recording. Ending an ended session returns
// the snapshot again without side effects.
func (m *Manager) End() (*Snapshot, error) {
	m.mu.Lock()
	if m.sess.Status == StatusEnded {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}

	now := time.Now()
	m.sess.Status = StatusEnded
	m.sess.EndedAt = &now

	// A pending sub-threshold segment at end is dropped with the rest of the
	// unflushed state; its audio is still in the recording.
	m.accumulator.Reset()
	m.inSpeech = false

	m.emit(Event{Kind: EventMeetingEnded})
	m.mu.Unlock()

	// Dispose in dependency order, source first so nothing feeds the
	// pipeline while it shuts down. Failures are collected, not fatal:
	// teardown always runs to completion.
	var errs []error
	if m.source != nil {
		if err := m.source.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("disconnect source: %w", err))
		}
	}
	if err := m.gate.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close vad gate: %w", err))
	}
	if err := m.attributor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close attributor: %w", err))
	}
	if err := m.coordinator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transcription: %w", err))
	}

	// Stop autosave before the final write so no stale tick can overwrite it
	m.autosaver.Stop()

	if err := m.saveSnapshot(); err != nil {
		errs = append(errs, fmt.Errorf("final snapshot: %w", err))
	}
	if _, err := m.recorder.WriteWAV(m.store.RecordingPath()); err != nil {
		errs = append(errs, fmt.Errorf("write recording: %w", err))
	}

	m.events.Close()

	m.mu.Lock()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.metrics.RecordSessionEnded(snap.Duration)

	for _, err := range errs {
		m.logger.Error("Session teardown error",
			slog.String("session_id", m.sess.ID),
			slog.String("error", err.Error()),
		)
	}
	m.logger.Info("Session ended",
		slog.String("session_id", m.sess.ID),
		slog.Float64("duration", snap.Duration),
		slog.Int("transcript_entries", len(snap.Transcript)),
	)

	if len(errs) > 0 {
		return snap, errs[0]
	}
	return snap, nil
}

// Snapshot returns the current exportable state
func (m *Manager) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// snapshotLocked builds a snapshot. Must hold mu (read or write).
func (m *Manager) snapshotLocked() *Snapshot {
	sess := *m.sess
	sess.Attendees = append([]Attendee(nil), m.sess.Attendees...)

	return &Snapshot{
		Session:    sess,
		Transcript: append([]TranscriptEntry(nil), m.transcript...),
		Duration:   m.sess.Duration().Seconds(),
	}
}

// emit delivers an event stamped with session identity. Must hold mu.
func (m *Manager) emit(event Event) {
	event.SessionID = m.sess.ID
	event.Timestamp = time.Now()

	before := m.events.Dropped()
	m.events.Emit(event)
	if m.events.Dropped() > before {
		m.metrics.RecordEventDropped()
	} else {
		m.metrics.RecordEventEmitted()
	}
}

// GetStats returns aggregated statistics across the session's components
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		SessionID:     m.sess.ID,
		Status:        m.sess.Status,
		Attendees:     len(m.sess.Attendees),
		Entries:       len(m.transcript),
		EventsDropped: m.events.Dropped(),
		Recorder:      m.recorder.GetStats(),
		Accumulator:   m.accumulator.GetStats(),
		Attributor:    m.attributor.GetStats(),
		Transcription: m.coordinator.GetStats(),
		Store:         m.store.GetStats(),
	}
}
