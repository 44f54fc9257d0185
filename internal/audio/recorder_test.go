package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecorderConservesBytes(t *testing.T) {
	rec := NewRecorder(16000)

	total := 0
	for i := 0; i < 100; i++ {
		frame := make([]byte, 640)
		rec.Append(frame)
		total += len(frame)
	}

	if rec.Len() != total {
		t.Errorf("Expected %d bytes, got %d", total, rec.Len())
	}

	stats := rec.GetStats()
	if stats.Frames != 100 {
		t.Errorf("Expected 100 frames, got %d", stats.Frames)
	}
	if stats.Duration != 2.0 {
		t.Errorf("Expected 2.0s duration, got %.3f", stats.Duration)
	}
}

func TestRecorderIgnoresEmptyFrames(t *testing.T) {
	rec := NewRecorder(16000)
	rec.Append(nil)
	rec.Append([]byte{})

	if rec.Len() != 0 {
		t.Errorf("Expected 0 bytes, got %d", rec.Len())
	}
}

func TestRecorderWriteWAVEmpty(t *testing.T) {
	rec := NewRecorder(16000)
	path := filepath.Join(t.TempDir(), "audio", "recording.wav")

	written, err := rec.WriteWAV(path)
	if err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if written {
		t.Error("Expected no file for empty recording")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Empty recording must not create a file")
	}
}

func TestRecorderWriteWAV(t *testing.T) {
	rec := NewRecorder(16000)
	rec.Append(sinePCM(16000, 0.5, 440.0))

	path := filepath.Join(t.TempDir(), "audio", "recording.wav")
	written, err := rec.WriteWAV(path)
	if err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if !written {
		t.Fatal("Expected recording to be written")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read recording: %v", err)
	}

	if err := ValidateWAV(data); err != nil {
		t.Errorf("Written recording is not a valid WAV: %v", err)
	}

	pcm, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("Failed to decode recording: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if len(pcm) != rec.Len() {
		t.Errorf("Recording payload is %d bytes, recorder holds %d", len(pcm), rec.Len())
	}
}

func TestRecorderWriteWAVLargeRecording(t *testing.T) {
	rec := NewRecorder(16000)

	// Well past 10,000 frames so the 32-bit header sizes are exercised
	frames := 12000
	frame := make([]byte, 640)
	for i := 0; i < frames; i++ {
		rec.Append(frame)
	}
	total := frames * len(frame)

	path := filepath.Join(t.TempDir(), "audio", "recording.wav")
	written, err := rec.WriteWAV(path)
	if err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if !written {
		t.Fatal("Expected recording to be written")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read recording: %v", err)
	}
	if err := ValidateWAV(data); err != nil {
		t.Fatalf("Large recording is not a valid WAV: %v", err)
	}

	info, err := GetWAVInfo(data)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}
	if info.DataSize != uint32(total) {
		t.Errorf("Header data size %d does not match payload %d", info.DataSize, total)
	}
	if len(data) != total+44 {
		t.Errorf("File is %d bytes, expected %d payload plus 44 header", len(data), total+44)
	}
	if info.Duration != float64(total)/2/16000 {
		t.Errorf("Header duration %.3f does not match payload", info.Duration)
	}
}

func TestRecorderBytesReturnsCopy(t *testing.T) {
	rec := NewRecorder(16000)
	rec.Append([]byte{1, 2, 3, 4})

	buf := rec.Bytes()
	buf[0] = 99

	if rec.Bytes()[0] != 1 {
		t.Error("Bytes returned the internal buffer instead of a copy")
	}
}
