package audio

import "encoding/binary"

// levelScale maps the mean absolute amplitude of typical speech onto [0,1].
// Speech rarely uses the full int16 range, so full scale is reached well
// before the theoretical maximum.
const levelScale = 8192.0

// Level computes a coarse instantaneous volume level for a frame of PCM-16
// samples, scaled and clamped to [0,1]. It is a UI hint, not a measurement.
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	mean := sum / float64(len(samples))

	level := mean / levelScale
	if level > 1 {
		level = 1
	}

	return level
}

// BytesToSamples converts little-endian 16-bit PCM bytes into samples.
// A trailing odd byte is dropped.
func BytesToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}
