package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session. Transitions only move
// forward: setup to active, active and paused back and forth, and any
// live state to ended. Ended is terminal.
type Status string

const (
	StatusSetup  Status = "setup"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// Attendee is one meeting participant. Attendees are never removed from
// the roster; leaving only sets LeftAt.
type Attendee struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// TranscriptEntry is one transcribed speech segment. SpeakerID is nil when
// the platform did not attribute the audio to a known participant.
type TranscriptEntry struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	SpeakerID   *string   `json:"speaker_id,omitempty"`
	SpeakerName string    `json:"speaker_name"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session is the durable session document
type Session struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CallHandle string     `json:"call_handle,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Attendees  []Attendee `json:"attendees"`
}

// NewSession creates a session document in setup state
func NewSession(title, callHandle string) *Session {
	return &Session{
		ID:         uuid.New().String(),
		Title:      title,
		CallHandle: callHandle,
		Status:     StatusSetup,
		CreatedAt:  time.Now(),
		Attendees:  []Attendee{},
	}
}

// Duration returns the wall-clock span from start to end, or zero when
// either timestamp is missing
func (s *Session) Duration() time.Duration {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(*s.StartedAt)
}

// Snapshot is the complete exportable state of an ended or running session
type Snapshot struct {
	Session    Session           `json:"session"`
	Transcript []TranscriptEntry `json:"transcript"`
	Duration   float64           `json:"duration_seconds"`
}
