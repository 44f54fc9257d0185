// Package session manages the lifecycle of a meeting capture session:
// audio ingestion, speech segmentation, transcription, persistence and
// the event stream observers consume.
package session
