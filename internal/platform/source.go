package platform

import (
	"context"
	"time"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
)

// Frame is one decoded audio frame ready for the processing pipeline:
// 16-bit little-endian PCM at the pipeline sample rate, mono, tagged with
// the speaker the platform attributed it to.
type Frame struct {
	PCM        []byte
	Speaker    audio.SpeakerMeta
	ReceivedAt time.Time
}

// ParticipantEventKind distinguishes roster notifications from the platform
type ParticipantEventKind string

const (
	ParticipantJoined ParticipantEventKind = "joined"
	ParticipantLeft   ParticipantEventKind = "left"
)

// ParticipantEvent is a roster change reported by the platform
type ParticipantEvent struct {
	Kind ParticipantEventKind
	ID   string
	Name string
}

// Handlers receives everything a connected source produces. Callbacks run on
// the source's read goroutine and must not block.
type Handlers struct {
	OnFrame       func(Frame)
	OnParticipant func(ParticipantEvent)
	OnError       func(error)
}

// AudioFrameSource is a connection to a meeting platform's media stream.
// Implementations decode the platform codec and deliver frames through
// Handlers until Disconnect is called or the stream ends.
type AudioFrameSource interface {
	Connect(ctx context.Context, callHandle string) error
	Disconnect() error
	Connected() bool
}
