package audio

import (
	"sync"
	"time"
)

// SpeakerMeta carries the per-frame speaker metadata supplied by the
// conferencing platform alongside the audio payload.
type SpeakerMeta struct {
	SpeakerID   string `json:"speaker_id,omitempty"`
	SpeakerName string `json:"speaker_name,omitempty"`
}

// Segment is a flushed run of speech-classified frames believed to contain
// continuous speech from one inferred speaker. The speaker metadata is the
// last observed value for the whole segment; attribution at speaker-change
// boundaries is deliberately approximate.
type Segment struct {
	Data      []byte
	Frames    int
	Speaker   SpeakerMeta
	StartedAt time.Time
	FlushedAt time.Time
}

// Duration returns the audio length of the segment at the given byte rate.
func (s *Segment) Duration(bytesPerSecond int) time.Duration {
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Data)) / float64(bytesPerSecond) * float64(time.Second))
}

// SegmentConfig bounds the accumulator.
type SegmentConfig struct {
	MaxBytes int // sliding-window byte cap of the active segment
	MinBytes int // segments shorter than this are discarded on flush
}

// Accumulator buffers speech frames into bounded segments, evicting the
// oldest frames once the byte cap is reached so the most recent audio is
// never lost. The current speaker context is threaded through the segment
// state: it is captured on every append and read only at flush.
type Accumulator struct {
	config SegmentConfig

	frames    [][]byte
	size      int
	speaker   SpeakerMeta
	startedAt time.Time

	// Statistics
	framesAppended    uint64
	framesEvicted     uint64
	segmentsFlushed   uint64
	segmentsDiscarded uint64

	mu sync.RWMutex
}

// AccumulatorStats represents accumulator statistics for monitoring
type AccumulatorStats struct {
	PendingFrames     int    `json:"pending_frames"`
	PendingBytes      int    `json:"pending_bytes"`
	FramesAppended    uint64 `json:"frames_appended"`
	FramesEvicted     uint64 `json:"frames_evicted"`
	SegmentsFlushed   uint64 `json:"segments_flushed"`
	SegmentsDiscarded uint64 `json:"segments_discarded"`
}

// NewAccumulator creates a new segment accumulator
func NewAccumulator(config SegmentConfig) *Accumulator {
	return &Accumulator{
		config: config,
	}
}

// Append adds a speech-classified frame to the active segment and updates the
// speaker context. If the cumulative size exceeds the configured cap, the
// oldest frames are evicted first.
func (a *Accumulator) Append(frame []byte, meta SpeakerMeta) {
	if len(frame) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.frames) == 0 {
		a.startedAt = time.Now()
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)

	a.frames = append(a.frames, buf)
	a.size += len(buf)
	a.speaker = meta
	a.framesAppended++

	for a.size > a.config.MaxBytes && len(a.frames) > 1 {
		a.size -= len(a.frames[0])
		a.frames = a.frames[1:]
		a.framesEvicted++
	}

	// A single frame larger than the cap is truncated to its newest bytes.
	if a.size > a.config.MaxBytes && len(a.frames) == 1 {
		excess := a.size - a.config.MaxBytes
		a.frames[0] = a.frames[0][excess:]
		a.size = a.config.MaxBytes
	}
}

// Flush drains the active segment and resets the buffer. It returns nil when
// the buffer is empty or the segment is below the minimum viable length.
func (a *Accumulator) Flush() *Segment {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.frames) == 0 {
		return nil
	}

	data := make([]byte, 0, a.size)
	for _, f := range a.frames {
		data = append(data, f...)
	}

	segment := &Segment{
		Data:      data,
		Frames:    len(a.frames),
		Speaker:   a.speaker,
		StartedAt: a.startedAt,
		FlushedAt: time.Now(),
	}

	a.frames = nil
	a.size = 0
	a.startedAt = time.Time{}

	if len(segment.Data) < a.config.MinBytes {
		a.segmentsDiscarded++
		return nil
	}

	a.segmentsFlushed++
	return segment
}

// Reset discards the active segment without producing one
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frames = nil
	a.size = 0
	a.startedAt = time.Time{}
}

// Pending returns whether any speech frames are buffered
func (a *Accumulator) Pending() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.frames) > 0
}

// Size returns the current buffered byte count
func (a *Accumulator) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// GetStats returns current accumulator statistics
func (a *Accumulator) GetStats() AccumulatorStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return AccumulatorStats{
		PendingFrames:     len(a.frames),
		PendingBytes:      a.size,
		FramesAppended:    a.framesAppended,
		FramesEvicted:     a.framesEvicted,
		SegmentsFlushed:   a.segmentsFlushed,
		SegmentsDiscarded: a.segmentsDiscarded,
	}
}
