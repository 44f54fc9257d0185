package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Export formats
const (
	FormatText = "txt"
	FormatJSON = "json"
)

// Export renders a session snapshot in the requested format
func Export(snap *Snapshot, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return exportJSON(snap)
	case FormatText:
		return exportText(snap), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// exportJSON renders the full snapshot as indented JSON
func exportJSON(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// exportText renders a human-readable transcript
func exportText(snap *Snapshot) []byte {
	var b strings.Builder

	title := snap.Session.Title
	if title == "" {
		title = "Untitled session"
	}
	fmt.Fprintf(&b, "%s\n", title)
	if snap.Session.StartedAt != nil {
		fmt.Fprintf(&b, "Started: %s\n", snap.Session.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if snap.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %.0fs\n", snap.Duration)
	}

	if len(snap.Session.Attendees) > 0 {
		b.WriteString("Attendees:\n")
		for _, a := range snap.Session.Attendees {
			fmt.Fprintf(&b, "  - %s\n", a.Name)
		}
	}

	b.WriteString("\n")
	for _, entry := range snap.Transcript {
		fmt.Fprintf(&b, "[%s] %s: %s\n",
			entry.Timestamp.Format("15:04:05"), entry.SpeakerName, entry.Text)
	}

	return []byte(b.String())
}
