package speaker

import (
	"testing"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
)

func TestResolveIdentifiedSpeaker(t *testing.T) {
	attr := NewAttributor()

	attribution, changed := attr.Resolve(audio.SpeakerMeta{SpeakerID: "p1", SpeakerName: "Alice"})

	if attribution.SpeakerID != "p1" {
		t.Errorf("Expected speaker ID p1, got %q", attribution.SpeakerID)
	}
	if attribution.SpeakerName != "Alice" {
		t.Errorf("Expected speaker name Alice, got %q", attribution.SpeakerName)
	}
	if attribution.Confidence != ConfidenceIdentified {
		t.Errorf("Expected confidence %.1f, got %.1f", ConfidenceIdentified, attribution.Confidence)
	}
	if !changed {
		t.Error("First resolve should report a speaker change")
	}
}

func TestResolveUnknownSpeaker(t *testing.T) {
	attr := NewAttributor()

	attribution, _ := attr.Resolve(audio.SpeakerMeta{})

	if attribution.SpeakerID != "" {
		t.Errorf("Expected empty speaker ID, got %q", attribution.SpeakerID)
	}
	if attribution.SpeakerName != UnknownName {
		t.Errorf("Expected name %q, got %q", UnknownName, attribution.SpeakerName)
	}
	if attribution.Confidence != ConfidenceUnknown {
		t.Errorf("Expected confidence %.1f, got %.1f", ConfidenceUnknown, attribution.Confidence)
	}
}

func TestResolveNameWithoutID(t *testing.T) {
	attr := NewAttributor()

	// A name with no ID still counts as unidentified
	attribution, _ := attr.Resolve(audio.SpeakerMeta{SpeakerName: "Guest"})

	if attribution.Confidence != ConfidenceUnknown {
		t.Errorf("Expected confidence %.1f without an ID, got %.1f", ConfidenceUnknown, attribution.Confidence)
	}
	if attribution.SpeakerName != "Guest" {
		t.Errorf("Expected supplied name to survive, got %q", attribution.SpeakerName)
	}
}

func TestResolveDetectsChanges(t *testing.T) {
	attr := NewAttributor()

	attr.Resolve(audio.SpeakerMeta{SpeakerID: "p1", SpeakerName: "Alice"})

	_, changed := attr.Resolve(audio.SpeakerMeta{SpeakerID: "p1", SpeakerName: "Alice"})
	if changed {
		t.Error("Same speaker should not report a change")
	}

	_, changed = attr.Resolve(audio.SpeakerMeta{SpeakerID: "p2", SpeakerName: "Bob"})
	if !changed {
		t.Error("Different speaker should report a change")
	}

	stats := attr.GetStats()
	if stats.SegmentsResolved != 3 {
		t.Errorf("Expected 3 resolved segments, got %d", stats.SegmentsResolved)
	}
	if stats.SpeakerChanges != 2 {
		t.Errorf("Expected 2 speaker changes, got %d", stats.SpeakerChanges)
	}
}

func TestAttributorClose(t *testing.T) {
	attr := NewAttributor()
	if err := attr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
