// Package audio implements the PCM plumbing of the meeting pipeline.
// It provides the bounded speech-segment accumulator, the whole-call recording
// assembler, coarse volume level measurement, and WAV container encoding.
package audio
