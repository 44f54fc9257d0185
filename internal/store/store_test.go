package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewCreatesDirectoryTree(t *testing.T) {
	dataDir := t.TempDir()

	st, err := New(dataDir, "session-1", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dataDir, "session-1", "audio"))
	if err != nil {
		t.Fatalf("Audio directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected audio to be a directory")
	}

	expected := filepath.Join(dataDir, "session-1", "audio", "recording.wav")
	if st.RecordingPath() != expected {
		t.Errorf("Expected recording path %s, got %s", expected, st.RecordingPath())
	}
}

func TestNewFailsOnUnwritableDataDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dataDir := filepath.Join(t.TempDir(), "readonly")
	if err := os.MkdirAll(dataDir, 0o555); err != nil {
		t.Fatalf("Failed to create read-only dir: %v", err)
	}

	if _, err := New(dataDir, "session-1", testLogger()); err == nil {
		t.Error("Expected error for unwritable data directory")
	}
}

func TestWriteSessionState(t *testing.T) {
	dataDir := t.TempDir()
	st, err := New(dataDir, "session-1", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	doc := map[string]string{"id": "session-1", "status": "active"}
	if err := st.WriteSessionState(doc); err != nil {
		t.Fatalf("WriteSessionState failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, "session-1", "session.json"))
	if err != nil {
		t.Fatalf("Failed to read session.json: %v", err)
	}

	var loaded map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("session.json is not valid JSON: %v", err)
	}
	if loaded["status"] != "active" {
		t.Errorf("Expected status active, got %q", loaded["status"])
	}

	// No temp file left behind
	if _, err := os.Stat(filepath.Join(dataDir, "session-1", "session.json.tmp")); !os.IsNotExist(err) {
		t.Error("Temp file left behind after write")
	}

	stats := st.GetStats()
	if stats.SessionWrites != 1 {
		t.Errorf("Expected 1 session write, got %d", stats.SessionWrites)
	}
}

func TestWriteTranscript(t *testing.T) {
	dataDir := t.TempDir()
	st, err := New(dataDir, "session-1", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	entries := []map[string]string{{"text": "hello"}, {"text": "world"}}
	if err := st.WriteTranscript(entries); err != nil {
		t.Fatalf("WriteTranscript failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dataDir, "session-1", "transcript.json"))
	if err != nil {
		t.Fatalf("Failed to read transcript.json: %v", err)
	}

	var loaded []map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("transcript.json is not valid JSON: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(loaded))
	}
}

func TestAutosaverTicks(t *testing.T) {
	var saves uint64
	saver := NewAutosaver(20*time.Millisecond, func() error {
		atomic.AddUint64(&saves, 1)
		return nil
	}, testLogger())

	saver.Start()
	time.Sleep(110 * time.Millisecond)
	saver.Stop()

	if got := atomic.LoadUint64(&saves); got < 2 {
		t.Errorf("Expected at least 2 saves, got %d", got)
	}
	if saver.Ticks() != atomic.LoadUint64(&saves) {
		t.Errorf("Tick count %d does not match saves %d", saver.Ticks(), saves)
	}
}

func TestAutosaverStopIsFinal(t *testing.T) {
	var saves uint64
	saver := NewAutosaver(10*time.Millisecond, func() error {
		atomic.AddUint64(&saves, 1)
		return nil
	}, testLogger())

	saver.Start()
	time.Sleep(35 * time.Millisecond)
	saver.Stop()

	after := atomic.LoadUint64(&saves)
	time.Sleep(50 * time.Millisecond)

	// No ticks may fire after Stop returns
	if got := atomic.LoadUint64(&saves); got != after {
		t.Errorf("Autosave ticked after Stop: %d -> %d", after, got)
	}

	// Stop is idempotent
	saver.Stop()
	saver.Stop()
}

func TestAutosaverStopWithoutStart(t *testing.T) {
	saver := NewAutosaver(10*time.Millisecond, func() error { return nil }, testLogger())

	done := make(chan struct{})
	go func() {
		saver.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a started loop")
	}
}

func TestAutosaverCountsErrors(t *testing.T) {
	saver := NewAutosaver(10*time.Millisecond, func() error {
		return os.ErrPermission
	}, testLogger())

	saver.Start()
	time.Sleep(50 * time.Millisecond)
	saver.Stop()

	if saver.Errors() == 0 {
		t.Error("Expected error count to increase")
	}
	if saver.Errors() != saver.Ticks() {
		t.Errorf("Expected every tick to fail: ticks=%d errors=%d", saver.Ticks(), saver.Errors())
	}
}
