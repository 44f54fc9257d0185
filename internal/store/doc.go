// Package store persists session state, transcripts and recordings as
// plain files under a per-session directory, with periodic autosave.
package store
