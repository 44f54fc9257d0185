package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Recorder accumulates the raw PCM stream for the whole call, unfiltered by
// VAD, and serializes it into a playable WAV file once the call ends. The
// recording is not segmented and retains silence.
type Recorder struct {
	sampleRate int

	data   []byte
	frames uint64

	mu sync.RWMutex
}

// RecorderStats represents recorder statistics for monitoring
type RecorderStats struct {
	Frames     uint64  `json:"frames"`
	Bytes      int     `json:"bytes"`
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration_seconds"`
}

// NewRecorder creates a whole-call recording assembler
func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		data:       make([]byte, 0, sampleRate*4), // pre-allocate two seconds of 16-bit mono
	}
}

// Append adds a raw frame to the recording
func (r *Recorder) Append(frame []byte) {
	if len(frame) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, frame...)
	r.frames++
}

// Len returns the accumulated byte count
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Bytes returns a copy of the accumulated PCM payload
func (r *Recorder) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buf := make([]byte, len(r.data))
	copy(buf, r.data)
	return buf
}

// WriteWAV serializes the accumulated PCM into a WAV file at path. It returns
// (false, nil) without touching the filesystem when no audio was captured.
func (r *Recorder) WriteWAV(path string) (bool, error) {
	r.mu.RLock()
	data := r.data
	r.mu.RUnlock()

	if len(data) == 0 {
		return false, nil
	}

	wav, err := EncodeWAV(data, r.sampleRate)
	if err != nil {
		return false, fmt.Errorf("failed to encode recording: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create recording directory: %w", err)
	}

	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return false, fmt.Errorf("failed to write recording: %w", err)
	}

	return true, nil
}

// GetStats returns current recorder statistics
func (r *Recorder) GetStats() RecorderStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	duration := float64(0)
	if r.sampleRate > 0 {
		duration = float64(len(r.data)/2) / float64(r.sampleRate)
	}

	return RecorderStats{
		Frames:     r.frames,
		Bytes:      len(r.data),
		SampleRate: r.sampleRate,
		Duration:   duration,
	}
}
