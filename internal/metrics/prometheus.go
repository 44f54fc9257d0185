package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the meeting audio service
type Metrics struct {
	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsEnded   prometheus.Counter
	SessionDuration prometheus.Histogram

	// Frame metrics
	FramesReceived prometheus.Counter
	FramesRecorded prometheus.Counter
	FramesSkipped  prometheus.Counter

	// Segment metrics
	SegmentsFlushed   prometheus.Counter
	SegmentsDiscarded prometheus.Counter
	SegmentDuration   prometheus.Histogram
	SegmentSize       prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// Persistence metrics
	AutosaveRuns   prometheus.Counter
	AutosaveErrors prometheus.Counter

	// Event stream metrics
	EventsEmitted prometheus.Counter
	EventsDropped prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "meeting_active_sessions",
			Help: "Current number of sessions that have started and not ended",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_sessions_ended_total",
			Help: "Total number of sessions ended",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meeting_session_duration_seconds",
			Help:    "Duration of ended sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10), // 1 minute to ~17 hours
		}),

		// Frame metrics
		FramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_frames_received_total",
			Help: "Total number of audio frames received from the platform",
		}),
		FramesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_frames_recorded_total",
			Help: "Total number of audio frames appended to the recording",
		}),
		FramesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_frames_skipped_total",
			Help: "Total number of frames skipped by the pipeline while not active",
		}),

		// Segment metrics
		SegmentsFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_segments_flushed_total",
			Help: "Total number of speech segments flushed for transcription",
		}),
		SegmentsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_segments_discarded_total",
			Help: "Total number of speech segments discarded as too short",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meeting_segment_duration_seconds",
			Help:    "Duration of flushed speech segments",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		SegmentSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meeting_segment_size_bytes",
			Help:    "Size of flushed speech segments in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 9), // 1KB to ~256KB
		}),

		// Transcription metrics
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meeting_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// Persistence metrics
		AutosaveRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_autosave_runs_total",
			Help: "Total number of autosave snapshots written",
		}),
		AutosaveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_autosave_errors_total",
			Help: "Total number of autosave failures",
		}),

		// Event stream metrics
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_events_emitted_total",
			Help: "Total number of session events emitted",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meeting_events_dropped_total",
			Help: "Total number of session events dropped by full buffers",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meeting_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// SetActiveSessions sets the current number of live sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionCreated increments the sessions created counter
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionEnded increments the sessions ended counter and records duration
func (m *Metrics) RecordSessionEnded(durationSeconds float64) {
	m.SessionsEnded.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordFrameReceived increments the frames received counter
func (m *Metrics) RecordFrameReceived() {
	m.FramesReceived.Inc()
}

// RecordFrameRecorded increments the frames recorded counter
func (m *Metrics) RecordFrameRecorded() {
	m.FramesRecorded.Inc()
}

// RecordFrameSkipped increments the frames skipped counter
func (m *Metrics) RecordFrameSkipped() {
	m.FramesSkipped.Inc()
}

// RecordSegmentFlushed records a flushed speech segment
func (m *Metrics) RecordSegmentFlushed(durationSeconds float64, sizeBytes int) {
	m.SegmentsFlushed.Inc()
	m.SegmentDuration.Observe(durationSeconds)
	m.SegmentSize.Observe(float64(sizeBytes))
}

// RecordSegmentDiscarded increments the segments discarded counter
func (m *Metrics) RecordSegmentDiscarded() {
	m.SegmentsDiscarded.Inc()
}

// RecordTranscriptionRequest increments transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordAutosave records an autosave attempt
func (m *Metrics) RecordAutosave(err error) {
	m.AutosaveRuns.Inc()
	if err != nil {
		m.AutosaveErrors.Inc()
	}
}

// RecordEventEmitted increments the events emitted counter
func (m *Metrics) RecordEventEmitted() {
	m.EventsEmitted.Inc()
}

// RecordEventDropped increments the events dropped counter
func (m *Metrics) RecordEventDropped() {
	m.EventsDropped.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
