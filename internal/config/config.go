package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Audio         AudioConfig         `yaml:"audio"`
	VAD           VADConfig           `yaml:"vad"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Platform      PlatformConfig      `yaml:"platform"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// StorageConfig contains session persistence configuration
type StorageConfig struct {
	DataDir          string `yaml:"data_dir"`
	AutosaveInterval int    `yaml:"autosave_interval"` // seconds
}

// AudioConfig contains audio pipeline parameters
type AudioConfig struct {
	SampleRate         int     `yaml:"sample_rate"`
	Channels           int     `yaml:"channels"`
	BitDepth           int     `yaml:"bit_depth"`
	SegmentMaxBytes    int     `yaml:"segment_max_bytes"`
	MinSegmentDuration float64 `yaml:"min_segment_duration"` // seconds
}

// VADConfig contains Voice Activity Detection configuration
type VADConfig struct {
	Threshold float32 `yaml:"threshold"`
	Smoothing float32 `yaml:"smoothing"`
}

// TranscriptionConfig contains transcription API configuration
type TranscriptionConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"api_key"`
	Language      string `yaml:"language"`
	Model         string `yaml:"model"`
	Timeout       int    `yaml:"timeout"` // seconds, 0 disables the client-side deadline
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// Platform audio codecs
const (
	CodecPCM16 = "pcm16"
	CodecOpus  = "opus"
)

// PlatformConfig describes the remote conferencing platform audio feed
type PlatformConfig struct {
	URL        string `yaml:"url"`
	Codec      string `yaml:"codec"` // "pcm16" or "opus"
	SampleRate int    `yaml:"sample_rate"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()

	// The transcription credential can come from the environment so it
	// never has to live in the config file
	if key := os.Getenv("TRANSCRIPTION_API_KEY"); key != "" {
		config.Transcription.APIKey = key
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills zero-valued fields with service defaults
func (c *Config) ApplyDefaults() {
	if c.Storage.AutosaveInterval == 0 {
		c.Storage.AutosaveInterval = 30
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.BitDepth == 0 {
		c.Audio.BitDepth = 16
	}
	if c.Audio.SegmentMaxBytes == 0 {
		c.Audio.SegmentMaxBytes = 128000
	}
	if c.Audio.MinSegmentDuration == 0 {
		c.Audio.MinSegmentDuration = 0.5
	}
	if c.VAD.Threshold == 0 {
		c.VAD.Threshold = 0.1
	}
	if c.Transcription.MaxConcurrent == 0 {
		c.Transcription.MaxConcurrent = 10
	}
	if c.Platform.Codec == "" {
		c.Platform.Codec = CodecPCM16
	}
	if c.Platform.SampleRate == 0 {
		c.Platform.SampleRate = c.Audio.SampleRate
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Platform.Validate(); err != nil {
		return fmt.Errorf("platform config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	if s.AutosaveInterval < 1 {
		return fmt.Errorf("autosave_interval must be at least 1 second, got %d", s.AutosaveInterval)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for the meeting pipeline, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	if a.SegmentMaxBytes < 1024 {
		return fmt.Errorf("segment_max_bytes must be at least 1024, got %d", a.SegmentMaxBytes)
	}

	if a.MinSegmentDuration <= 0 {
		return fmt.Errorf("min_segment_duration must be positive, got %f", a.MinSegmentDuration)
	}

	return nil
}

// Validate validates VAD configuration
func (v *VADConfig) Validate() error {
	if v.Threshold < 0 || v.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", v.Threshold)
	}

	if v.Smoothing < 0 || v.Smoothing > 1 {
		return fmt.Errorf("smoothing must be between 0 and 1, got %f", v.Smoothing)
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	if !t.Enabled {
		return nil
	}

	if t.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty when transcription is enabled")
	}

	if t.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", t.Timeout)
	}

	if t.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", t.MaxConcurrent)
	}

	return nil
}

// Validate validates platform configuration
func (p *PlatformConfig) Validate() error {
	validCodecs := map[string]bool{CodecPCM16: true, CodecOpus: true}
	if !validCodecs[p.Codec] {
		return fmt.Errorf("codec must be 'pcm16' or 'opus', got '%s'", p.Codec)
	}

	if p.SampleRate < 8000 {
		return fmt.Errorf("sample_rate must be at least 8000 Hz, got %d", p.SampleRate)
	}

	if p.Codec == CodecOpus && p.SampleRate != 48000 {
		return fmt.Errorf("opus chunks are always 48000 Hz, got %d", p.SampleRate)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetAutosaveInterval returns the autosave interval as a time.Duration
func (s *StorageConfig) GetAutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveInterval) * time.Second
}

// GetMinSegmentDuration returns the minimum viable segment length as a time.Duration
func (a *AudioConfig) GetMinSegmentDuration() time.Duration {
	return time.Duration(a.MinSegmentDuration * float64(time.Second))
}

// MinSegmentBytes returns the minimum viable segment length in PCM bytes
func (a *AudioConfig) MinSegmentBytes() int {
	bytesPerSecond := a.SampleRate * a.Channels * a.BitDepth / 8
	return int(a.MinSegmentDuration * float64(bytesPerSecond))
}

// BytesPerSecond returns the PCM byte rate of the pipeline format
func (a *AudioConfig) BytesPerSecond() int {
	return a.SampleRate * a.Channels * a.BitDepth / 8
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
