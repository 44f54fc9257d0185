package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	sessionFile    = "session.json"
	transcriptFile = "transcript.json"
	audioDir       = "audio"
	recordingFile  = "recording.wav"
)

// Store writes one session's durable state under its own directory:
//
//	<data_dir>/<session_id>/session.json
//	<data_dir>/<session_id>/transcript.json
//	<data_dir>/<session_id>/audio/recording.wav
//
// The directory tree is created eagerly so that an unwritable data
// directory fails session creation instead of a later autosave.
type Store struct {
	dir    string
	logger *slog.Logger

	// Statistics
	sessionWrites    uint64
	transcriptWrites uint64
	writeErrors      uint64

	mu sync.Mutex
}

// StoreStats represents store statistics for monitoring
type StoreStats struct {
	Dir              string `json:"dir"`
	SessionWrites    uint64 `json:"session_writes"`
	TranscriptWrites uint64 `json:"transcript_writes"`
	WriteErrors      uint64 `json:"write_errors"`
}

// New creates the session directory tree and returns a store bound to it
func New(dataDir, sessionID string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Join(dataDir, sessionID)
	if err := os.MkdirAll(filepath.Join(dir, audioDir), 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	return &Store{
		dir:    dir,
		logger: logger,
	}, nil
}

// Dir returns the session directory
func (s *Store) Dir() string {
	return s.dir
}

// RecordingPath returns where the session recording is written
func (s *Store) RecordingPath() string {
	return filepath.Join(s.dir, audioDir, recordingFile)
}

// WriteSessionState persists the session document
func (s *Store) WriteSessionState(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeJSON(sessionFile, v)
	if err != nil {
		s.writeErrors++
	} else {
		s.sessionWrites++
	}
	return err
}

// WriteTranscript persists the transcript document
func (s *Store) WriteTranscript(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeJSON(transcriptFile, v)
	if err != nil {
		s.writeErrors++
	} else {
		s.transcriptWrites++
	}
	return err
}

// writeJSON writes a document via a temp file and rename so a crash cannot
// leave a half-written snapshot behind. Writers are serialized under mu so
// concurrent saves cannot collide on the temp file.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}

	return nil
}

// GetStats returns current store statistics
func (s *Store) GetStats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreStats{
		Dir:              s.dir,
		SessionWrites:    s.sessionWrites,
		TranscriptWrites: s.transcriptWrites,
		WriteErrors:      s.writeErrors,
	}
}
