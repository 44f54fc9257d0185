package transcription

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
	"github.com/scribeworks/meeting-audio-service/internal/speaker"
)

// Transcriber is the external transcription capability consumed by the
// coordinator. Client is the production implementation; tests substitute
// stubs.
type Transcriber interface {
	Transcribe(ctx context.Context, request *Request) (*Response, error)
	Close() error
}

// Mode captures whether transcription was enabled at session start. The
// decision is made once, when the credential and the configuration flag are
// both present; the coordinator never re-checks nullable state afterwards.
type Mode struct {
	transcriber Transcriber
}

// Disabled returns the mode for sessions without transcription
func Disabled() Mode {
	return Mode{}
}

// Enabled returns the mode wrapping a live transcription capability
func Enabled(t Transcriber) Mode {
	return Mode{transcriber: t}
}

// Active reports whether segments will be transcribed
func (m Mode) Active() bool {
	return m.transcriber != nil
}

// Result is a completed transcription delivered to the session manager.
// Results arrive in completion order, which may differ from the order the
// audio occurred.
type Result struct {
	SegmentID   string
	Text        string
	Confidence  float32
	Speaker     speaker.Attribution
	CapturedAt  time.Time
	CompletedAt time.Time
}

// Coordinator hands flushed segments to the transcription capability and
// reports completions and failures through callbacks. Dispatch never blocks
// frame ingestion: every segment is processed on its own goroutine.
type Coordinator struct {
	mode       Mode
	sessionID  string
	sampleRate int
	logger     *slog.Logger

	onResult func(Result)
	onError  func(error)

	closed bool
	wg     sync.WaitGroup

	// Statistics
	dispatched uint64
	completed  uint64
	failed     uint64
	skipped    uint64

	mu sync.Mutex
}

// CoordinatorStats represents coordinator statistics for monitoring
type CoordinatorStats struct {
	Enabled    bool   `json:"enabled"`
	Dispatched uint64 `json:"dispatched"`
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
	Skipped    uint64 `json:"skipped"`
}

// NewCoordinator creates a transcription coordinator for one session
func NewCoordinator(mode Mode, sessionID string, sampleRate int, logger *slog.Logger,
	onResult func(Result), onError func(error)) *Coordinator {

	return &Coordinator{
		mode:       mode,
		sessionID:  sessionID,
		sampleRate: sampleRate,
		logger:     logger,
		onResult:   onResult,
		onError:    onError,
	}
}

// Dispatch submits a flushed segment for transcription. When transcription is
// disabled the segment is silently skipped and the session keeps functioning
// as a segmentation/speaker-tracking tool.
func (c *Coordinator) Dispatch(segment *audio.Segment, attribution speaker.Attribution) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.mode.Active() {
		c.skipped++
		c.mu.Unlock()
		return
	}
	c.dispatched++
	c.mu.Unlock()

	segmentID := uuid.New().String()

	// All work happens off the caller's goroutine so dispatch can run from
	// the audio path without blocking it, even when encoding fails.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		wav, err := audio.EncodeWAV(segment.Data, c.sampleRate)
		if err != nil {
			c.reportError(err)
			return
		}

		request := &Request{
			SessionID:  c.sessionID,
			SegmentID:  segmentID,
			AudioData:  wav,
			Format:     "wav",
			SampleRate: c.sampleRate,
			Speaker:    attribution,
			CapturedAt: segment.FlushedAt,
		}

		startTime := time.Now()
		response, err := c.mode.transcriber.Transcribe(context.Background(), request)
		if err != nil {
			c.logger.Error("Segment transcription failed",
				slog.String("session_id", c.sessionID),
				slog.String("segment_id", segmentID),
				slog.String("error", err.Error()),
				slog.Float64("duration", time.Since(startTime).Seconds()),
			)
			c.reportError(err)
			return
		}

		c.logger.Debug("Segment transcription completed",
			slog.String("session_id", c.sessionID),
			slog.String("segment_id", segmentID),
			slog.Float64("duration", time.Since(startTime).Seconds()),
		)

		c.reportResult(Result{
			SegmentID:   segmentID,
			Text:        response.Text,
			Confidence:  response.Confidence,
			Speaker:     attribution,
			CapturedAt:  segment.FlushedAt,
			CompletedAt: time.Now(),
		})
	}()
}

// reportResult delivers a completion unless the coordinator is closed
func (c *Coordinator) reportResult(result Result) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.completed++
	c.mu.Unlock()

	c.onResult(result)
}

// reportError delivers a failure unless the coordinator is closed
func (c *Coordinator) reportError(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.failed++
	c.mu.Unlock()

	c.onError(err)
}

// Close stops result delivery and disposes the transcription capability.
// In-flight calls are abandoned rather than awaited so teardown cannot hang
// on a stuck external service.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.mode.Active() {
		return c.mode.transcriber.Close()
	}
	return nil
}

// Wait blocks until all dispatched transcriptions settle. Used by tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// GetStats returns current coordinator statistics
func (c *Coordinator) GetStats() CoordinatorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CoordinatorStats{
		Enabled:    c.mode.Active(),
		Dispatched: c.dispatched,
		Completed:  c.completed,
		Failed:     c.failed,
		Skipped:    c.skipped,
	}
}
