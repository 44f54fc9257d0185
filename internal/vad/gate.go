package vad

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Gate classifies an audio frame as speech or silence. Implementations wrap
// an external capability (a model runtime, a remote service) or a local
// heuristic; the session manager only ever sees the probability.
type Gate interface {
	Initialize() error
	// Process returns the speech probability in [0,1] for one frame of
	// PCM-16 samples.
	Process(samples []int16) (float32, error)
	Close() error
}

// EnergyGate is the default Gate: a normalized-RMS-energy heuristic with
// light exponential smoothing. It is intentionally permissive — the pipeline
// favors over-capturing speech over truncating utterances.
type EnergyGate struct {
	smoothing float32

	initialized bool
	lastResult  float32

	// Statistics
	totalFrames   uint64
	lastProcessed time.Time

	mu sync.RWMutex
}

// GateStats represents gate statistics for monitoring
type GateStats struct {
	Initialized   bool      `json:"initialized"`
	TotalFrames   uint64    `json:"total_frames"`
	LastProcessed time.Time `json:"last_processed"`
}

// NewEnergyGate creates an energy-based voice activity gate
func NewEnergyGate(smoothing float32) (*EnergyGate, error) {
	if smoothing < 0 || smoothing > 1 {
		return nil, fmt.Errorf("smoothing must be between 0 and 1, got %f", smoothing)
	}

	if smoothing == 0 {
		smoothing = 0.1
	}

	return &EnergyGate{
		smoothing: smoothing,
	}, nil
}

// Initialize prepares the gate for processing
func (g *EnergyGate) Initialize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.initialized = true
	g.lastResult = 0
	g.lastProcessed = time.Now()

	return nil
}

// Process returns the speech probability for one frame of samples
func (g *EnergyGate) Process(samples []int16) (float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return 0, fmt.Errorf("gate not initialized")
	}

	if len(samples) == 0 {
		return 0, fmt.Errorf("cannot process empty frame")
	}

	probability := energyProbability(samples)

	// Smooth over consecutive frames so single noisy frames do not flap the
	// speech/silence decision.
	if g.totalFrames > 0 {
		probability = g.smoothing*probability + (1-g.smoothing)*g.lastResult
	}
	g.lastResult = probability

	g.totalFrames++
	g.lastProcessed = time.Now()

	return probability, nil
}

// energyProbability maps RMS frame energy onto a [0,1] probability
func energyProbability(samples []int16) float32 {
	var energy float64
	for _, sample := range samples {
		energy += float64(sample) * float64(sample)
	}
	energy = math.Sqrt(energy / float64(len(samples)))

	// Normalize assuming speech energy tops out around 10000.
	normalized := energy / 10000.0
	if normalized > 1.0 {
		normalized = 1.0
	}

	return float32(normalized)
}

// Close releases the gate
func (g *EnergyGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.initialized = false
	return nil
}

// GetStats returns current gate statistics
func (g *EnergyGate) GetStats() GateStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GateStats{
		Initialized:   g.initialized,
		TotalFrames:   g.totalFrames,
		LastProcessed: g.lastProcessed,
	}
}
