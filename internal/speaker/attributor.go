package speaker

import (
	"sync"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
)

// UnknownName is the display name used when the platform supplied none.
const UnknownName = "Unknown"

// Confidence values are a fixed heuristic, not a calibrated probability:
// platform-supplied identities are treated as reliable, anything else as a
// coin toss. Callers must treat them as a rough reliability hint.
const (
	ConfidenceIdentified = 0.9
	ConfidenceUnknown    = 0.5
)

// Attribution is the resolved speaker identity for one segment. An empty
// SpeakerID means the speaker is unknown, which is a valid outcome.
type Attribution struct {
	SpeakerID   string  `json:"speaker_id,omitempty"`
	SpeakerName string  `json:"speaker_name"`
	Confidence  float64 `json:"confidence"`
}

// Attributor resolves segment speaker metadata into stable attributions and
// detects speaker changes across consecutive segments.
type Attributor struct {
	lastSpeakerID string
	hasLast       bool

	// Statistics
	resolved uint64
	changes  uint64

	mu sync.Mutex
}

// AttributorStats represents attributor statistics for monitoring
type AttributorStats struct {
	SegmentsResolved uint64 `json:"segments_resolved"`
	SpeakerChanges   uint64 `json:"speaker_changes"`
}

// NewAttributor creates a speaker attributor
func NewAttributor() *Attributor {
	return &Attributor{}
}

// Resolve attributes a segment to a speaker from its captured metadata. The
// returned changed flag is true once per speaker transition, not once per
// segment, so it can drive UI highlight switches directly.
func (a *Attributor) Resolve(meta audio.SpeakerMeta) (Attribution, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	attribution := Attribution{
		SpeakerID:   meta.SpeakerID,
		SpeakerName: meta.SpeakerName,
		Confidence:  ConfidenceUnknown,
	}

	if meta.SpeakerID != "" {
		attribution.Confidence = ConfidenceIdentified
	}

	if attribution.SpeakerName == "" {
		attribution.SpeakerName = UnknownName
	}

	changed := !a.hasLast || a.lastSpeakerID != meta.SpeakerID
	a.lastSpeakerID = meta.SpeakerID
	a.hasLast = true

	a.resolved++
	if changed {
		a.changes++
	}

	return attribution, changed
}

// Close releases the attributor. The metadata-driven implementation holds no
// external resources, but the session manager disposes it like any other
// capability handle.
func (a *Attributor) Close() error {
	return nil
}

// GetStats returns current attributor statistics
func (a *Attributor) GetStats() AttributorStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AttributorStats{
		SegmentsResolved: a.resolved,
		SpeakerChanges:   a.changes,
	}
}
