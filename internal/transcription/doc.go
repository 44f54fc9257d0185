// Package transcription turns flushed speech segments into transcript text.
// It implements the HTTP client for the transcription API and the coordinator
// that dispatches segments asynchronously and reports completions in the
// order they finish.
package transcription
