package session

import (
	"log/slog"
	"time"
)

// AddAttendee registers a participant. Adding an ID that is already on the
// roster is a no-op, and a re-added attendee who previously left has their
// departure cleared.
func (m *Manager) AddAttendee(id, name string) {
	if id == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.Status == StatusEnded {
		return
	}

	for i := range m.sess.Attendees {
		if m.sess.Attendees[i].ID == id {
			if m.sess.Attendees[i].LeftAt != nil {
				m.sess.Attendees[i].LeftAt = nil
				m.emit(Event{Kind: EventAttendeeAdded, Attendee: &m.sess.Attendees[i]})
			}
			return
		}
	}

	attendee := Attendee{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
	m.sess.Attendees = append(m.sess.Attendees, attendee)
	m.emit(Event{Kind: EventAttendeeAdded, Attendee: &attendee})

	m.logger.Debug("Attendee added",
		slog.String("session_id", m.sess.ID),
		slog.String("attendee_id", id),
		slog.String("name", name),
	)
}

// MarkAttendeeLeft records a departure. The attendee stays on the roster
// so the exported session shows everyone who was ever present.
func (m *Manager) MarkAttendeeLeft(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess.Status == StatusEnded {
		return
	}

	for i := range m.sess.Attendees {
		if m.sess.Attendees[i].ID == id && m.sess.Attendees[i].LeftAt == nil {
			now := time.Now()
			m.sess.Attendees[i].LeftAt = &now
			m.emit(Event{Kind: EventAttendeeLeft, Attendee: &m.sess.Attendees[i]})
			return
		}
	}
}

// Attendees returns a copy of the roster
func (m *Manager) Attendees() []Attendee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Attendee(nil), m.sess.Attendees...)
}
