package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WAVHeader represents the header structure of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// EncodeWAV wraps raw little-endian PCM-16 mono bytes in a WAV container
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio payload")
	}

	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("PCM-16 payload length must be even, got %d bytes", len(pcm))
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(pcm))
	fileSize := 36 + dataSize // data starts at byte 44, RIFF size excludes first 8 bytes

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     fileSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	if _, err := buf.Write(pcm); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV extracts the raw PCM payload and sample rate from WAV data
func DecodeWAV(data []byte) ([]byte, int, error) {
	if len(data) < 44 {
		return nil, 0, fmt.Errorf("WAV data too short: need at least 44 bytes, got %d", len(data))
	}

	buf := bytes.NewReader(data)
	var header WAVHeader

	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(header.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, 0, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(header.Subchunk2ID[:]) != "data" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	if header.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}

	if header.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}

	if header.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", header.NumChannels)
	}

	if int(header.Subchunk2Size) <= 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}

	if len(data) < 44+int(header.Subchunk2Size) {
		return nil, 0, fmt.Errorf("WAV data truncated: header declares %d payload bytes, have %d",
			header.Subchunk2Size, len(data)-44)
	}

	pcm := make([]byte, header.Subchunk2Size)
	copy(pcm, data[44:44+int(header.Subchunk2Size)])

	return pcm, int(header.SampleRate), nil
}

// ValidateWAV validates a WAV file format without decoding the audio data
func ValidateWAV(data []byte) error {
	if len(data) < 44 {
		return fmt.Errorf("WAV data too short: need at least 44 bytes, got %d", len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(data[12:16]) != "fmt " {
		return fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(data[36:40]) != "data" {
		return fmt.Errorf("invalid WAV file: missing data chunk")
	}

	declaredData := binary.LittleEndian.Uint32(data[40:44])
	if int(declaredData) != len(data)-44 {
		return fmt.Errorf("inconsistent WAV header: declares %d payload bytes, file carries %d",
			declaredData, len(data)-44)
	}

	declaredFile := binary.LittleEndian.Uint32(data[4:8])
	if declaredFile != declaredData+36 {
		return fmt.Errorf("inconsistent WAV header: RIFF size %d does not match payload size %d",
			declaredFile, declaredData)
	}

	return nil
}

// GetWAVDuration calculates the duration of a WAV file in seconds
func GetWAVDuration(data []byte) (float64, error) {
	if err := ValidateWAV(data); err != nil {
		return 0, err
	}

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate == 0 {
		return 0, fmt.Errorf("invalid sample rate: 0")
	}

	dataSize := binary.LittleEndian.Uint32(data[40:44])

	numSamples := dataSize / 2 // 2 bytes per sample
	duration := float64(numSamples) / float64(sampleRate)

	return duration, nil
}

// WAVInfo holds basic information about a WAV file
type WAVInfo struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	ByteRate      uint32  `json:"byte_rate"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	NumSamples    uint32  `json:"num_samples"`
}

// GetWAVInfo extracts metadata from a WAV file
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, err
	}

	buf := bytes.NewReader(data)
	var header WAVHeader

	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	numSamples := header.Subchunk2Size / (uint32(header.BitsPerSample) / 8)
	duration := float64(numSamples) / float64(header.SampleRate)

	return &WAVInfo{
		SampleRate:    header.SampleRate,
		Channels:      header.NumChannels,
		BitsPerSample: header.BitsPerSample,
		ByteRate:      header.ByteRate,
		Duration:      duration,
		DataSize:      header.Subchunk2Size,
		NumSamples:    numSamples,
	}, nil
}
