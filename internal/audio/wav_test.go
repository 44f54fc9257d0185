package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// sinePCM generates little-endian PCM-16 bytes of a sine wave
func sinePCM(sampleRate int, duration, frequency float64) []byte {
	numSamples := int(float64(sampleRate) * duration)
	pcm := make([]byte, numSamples*2)

	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		amplitude := 16383.0 // Half of max int16 to avoid clipping
		sample := int16(amplitude * math.Sin(2*math.Pi*frequency*t))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}

	return pcm
}

func TestEncodeWAV(t *testing.T) {
	// 440Hz sine wave for 0.1 seconds at 16kHz
	sampleRate := 16000
	pcm := sinePCM(sampleRate, 0.1, 440.0)

	wavData, err := EncodeWAV(pcm, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(wavData) == 0 {
		t.Fatal("WAV data is empty")
	}

	// WAV header should be 44 bytes
	expectedSize := 44 + len(pcm)
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	if err := ValidateWAV(wavData); err != nil {
		t.Errorf("Generated WAV is invalid: %v", err)
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	if info.ByteRate != uint32(sampleRate*2) {
		t.Errorf("Expected byte rate %d, got %d", sampleRate*2, info.ByteRate)
	}

	expectedDuration := float64(len(pcm)/2) / float64(sampleRate)
	if math.Abs(info.Duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, info.Duration)
	}
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Error("Expected error for empty payload")
	}

	if _, err := EncodeWAV([]byte{1, 2, 3}, 16000); err == nil {
		t.Error("Expected error for odd payload length")
	}

	if _, err := EncodeWAV([]byte{1, 2}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodeWAV(t *testing.T) {
	original := []byte{100, 0, 56, 255, 44, 1, 112, 254, 244, 1}
	sampleRate := 16000

	wavData, err := EncodeWAV(original, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decoded, decodedRate, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if decodedRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedRate)
	}

	if len(decoded) != len(original) {
		t.Fatalf("Expected %d payload bytes, got %d", len(original), len(decoded))
	}

	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("Payload byte %d: expected %d, got %d", i, original[i], decoded[i])
		}
	}
}

func TestDecodeWAVInvalidData(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("too short")); err == nil {
		t.Error("Expected error for truncated data")
	}

	garbage := make([]byte, 100)
	if _, _, err := DecodeWAV(garbage); err == nil {
		t.Error("Expected error for non-WAV data")
	}
}

// Header consistency must hold regardless of payload size: a single frame,
// a realistic recording, and a large recording all declare sizes that match
// the actual byte counts.
func TestWAVHeaderConsistency(t *testing.T) {
	sampleRate := 16000
	sizes := []int{2, 640, 320000, 2 * 10001}

	for _, size := range sizes {
		pcm := make([]byte, size)
		wavData, err := EncodeWAV(pcm, sampleRate)
		if err != nil {
			t.Fatalf("EncodeWAV failed for %d bytes: %v", size, err)
		}

		dataSize := binary.LittleEndian.Uint32(wavData[40:44])
		if int(dataSize) != size {
			t.Errorf("Size %d: data chunk declares %d bytes", size, dataSize)
		}

		riffSize := binary.LittleEndian.Uint32(wavData[4:8])
		if riffSize != dataSize+36 {
			t.Errorf("Size %d: RIFF size %d does not equal data size %d + 36", size, riffSize, dataSize)
		}

		if len(wavData) != 44+size {
			t.Errorf("Size %d: file is %d bytes, expected %d", size, len(wavData), 44+size)
		}

		if err := ValidateWAV(wavData); err != nil {
			t.Errorf("Size %d: validation failed: %v", size, err)
		}
	}
}

func TestValidateWAVDetectsCorruptHeader(t *testing.T) {
	wavData, err := EncodeWAV(make([]byte, 1000), 16000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Corrupt the declared data size
	binary.LittleEndian.PutUint32(wavData[40:44], 999)
	if err := ValidateWAV(wavData); err == nil {
		t.Error("Expected validation error for inconsistent data size")
	}
}

func TestGetWAVDuration(t *testing.T) {
	sampleRate := 16000
	pcm := make([]byte, sampleRate*2) // exactly one second

	wavData, err := EncodeWAV(pcm, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	duration, err := GetWAVDuration(wavData)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	if math.Abs(duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.0s, got %.3f", duration)
	}
}

func TestGetWAVInfo(t *testing.T) {
	sampleRate := 16000
	pcm := make([]byte, sampleRate) // half a second

	wavData, err := EncodeWAV(pcm, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}
	if info.DataSize != uint32(len(pcm)) {
		t.Errorf("Expected data size %d, got %d", len(pcm), info.DataSize)
	}
	if math.Abs(info.Duration-0.5) > 0.001 {
		t.Errorf("Expected duration 0.5s, got %.3f", info.Duration)
	}

	if _, err := GetWAVInfo([]byte("short")); err == nil {
		t.Error("Expected error for invalid data")
	}
}
