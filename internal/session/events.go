package session

import (
	"sync"
	"time"

	"github.com/scribeworks/meeting-audio-service/internal/speaker"
)

// EventKind tags the event union
type EventKind string

const (
	EventMeetingStarted     EventKind = "meeting-started"
	EventMeetingPaused      EventKind = "meeting-paused"
	EventMeetingResumed     EventKind = "meeting-resumed"
	EventMeetingEnded       EventKind = "meeting-ended"
	EventTranscriptEntry    EventKind = "transcript-entry"
	EventTranscriptionError EventKind = "transcription-error"
	EventSpeakerIdentified  EventKind = "speaker-identified"
	EventSpeakerChanged     EventKind = "speaker-changed"
	EventVolumeLevel        EventKind = "volume-level"
	EventAttendeeAdded      EventKind = "attendee-added"
	EventAttendeeLeft       EventKind = "attendee-left"
	EventError              EventKind = "error"
)

// Event is one notification on a session's event stream. Only the fields
// relevant to the kind are populated.
type Event struct {
	Kind      EventKind            `json:"kind"`
	SessionID string               `json:"session_id"`
	Timestamp time.Time            `json:"timestamp"`
	Entry     *TranscriptEntry     `json:"entry,omitempty"`
	Attendee  *Attendee            `json:"attendee,omitempty"`
	Speaker   *speaker.Attribution `json:"speaker,omitempty"`
	Volume    float64              `json:"volume,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// eventBufferSize bounds the stream so a stalled consumer cannot block
// audio processing
const eventBufferSize = 256

// EventStream is a bounded stream of session events. Emit never blocks:
// when the buffer is full the event is counted as dropped and discarded.
type EventStream struct {
	ch      chan Event
	closed  bool
	dropped uint64
	mu      sync.Mutex
}

// NewEventStream creates an event stream with the standard buffer
func NewEventStream() *EventStream {
	return &EventStream{
		ch: make(chan Event, eventBufferSize),
	}
}

// Emit delivers an event without blocking. Events emitted after Close are
// discarded.
func (s *EventStream) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- event:
	default:
		s.dropped++
	}
}

// Events returns the receive side of the stream. The channel is closed
// when the session ends.
func (s *EventStream) Events() <-chan Event {
	return s.ch
}

// Dropped returns how many events were discarded due to a full buffer
func (s *EventStream) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close ends the stream. Safe to call more than once.
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
