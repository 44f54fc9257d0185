// Package vad provides the voice-activity gate for the meeting pipeline.
// It defines the capability interface consumed by the session manager and an
// energy-based default implementation with light probability smoothing.
package vad
