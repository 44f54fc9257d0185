package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Storage: StorageConfig{
			DataDir:          "./data",
			AutosaveInterval: 30,
		},
		Audio: AudioConfig{
			SampleRate:         16000,
			Channels:           1,
			BitDepth:           16,
			SegmentMaxBytes:    128000,
			MinSegmentDuration: 0.5,
		},
		VAD: VADConfig{
			Threshold: 0.1,
			Smoothing: 0.1,
		},
		Transcription: TranscriptionConfig{
			Enabled:       true,
			Endpoint:      "https://api.example.com/transcribe",
			APIKey:        "test-key",
			Timeout:       30,
			MaxConcurrent: 10,
		},
		Platform: PlatformConfig{
			URL:        "wss://platform.example.com/media",
			Codec:      CodecPCM16,
			SampleRate: 16000,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Address: "0.0.0.0",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty data dir",
			mutate:      func(c *Config) { c.Storage.DataDir = "" },
			expectError: true,
			errorMsg:    "data_dir",
		},
		{
			name:        "sample rate not pipeline rate",
			mutate:      func(c *Config) { c.Audio.SampleRate = 8000 },
			expectError: true,
			errorMsg:    "sample_rate",
		},
		{
			name:        "stereo audio",
			mutate:      func(c *Config) { c.Audio.Channels = 2 },
			expectError: true,
			errorMsg:    "channels",
		},
		{
			name:        "tiny segment cap",
			mutate:      func(c *Config) { c.Audio.SegmentMaxBytes = 100 },
			expectError: true,
			errorMsg:    "segment_max_bytes",
		},
		{
			name:        "vad threshold out of range",
			mutate:      func(c *Config) { c.VAD.Threshold = 1.5 },
			expectError: true,
			errorMsg:    "threshold",
		},
		{
			name:        "transcription enabled without endpoint",
			mutate:      func(c *Config) { c.Transcription.Endpoint = "" },
			expectError: true,
			errorMsg:    "endpoint",
		},
		{
			name: "transcription disabled skips endpoint check",
			mutate: func(c *Config) {
				c.Transcription.Enabled = false
				c.Transcription.Endpoint = ""
			},
			expectError: false,
		},
		{
			name:        "invalid platform codec",
			mutate:      func(c *Config) { c.Platform.Codec = "mp3" },
			expectError: true,
			errorMsg:    "codec",
		},
		{
			name: "opus at wrong rate",
			mutate: func(c *Config) {
				c.Platform.Codec = CodecOpus
				c.Platform.SampleRate = 16000
			},
			expectError: true,
			errorMsg:    "48000",
		},
		{
			name: "opus at 48kHz",
			mutate: func(c *Config) {
				c.Platform.Codec = CodecOpus
				c.Platform.SampleRate = 48000
			},
			expectError: false,
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 0 },
			expectError: true,
			errorMsg:    "port",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	content := `
storage:
  data_dir: ./data
  autosave_interval: 15

audio:
  sample_rate: 16000
  channels: 1
  bit_depth: 16
  segment_max_bytes: 64000
  min_segment_duration: 0.5

vad:
  threshold: 0.2
  smoothing: 0.3

transcription:
  enabled: true
  endpoint: http://localhost:9000/transcribe
  api_key: test-key
  timeout: 10
  max_concurrent: 5

platform:
  url: wss://platform.example.com/media
  codec: pcm16
  sample_rate: 16000

http:
  enabled: true
  address: 127.0.0.1
  port: 8080

logging:
  level: debug
  format: json
  output: stdout
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.AutosaveInterval != 15 {
		t.Errorf("Expected autosave_interval 15, got %d", cfg.Storage.AutosaveInterval)
	}
	if cfg.Audio.SegmentMaxBytes != 64000 {
		t.Errorf("Expected segment_max_bytes 64000, got %d", cfg.Audio.SegmentMaxBytes)
	}
	if cfg.VAD.Threshold != 0.2 {
		t.Errorf("Expected threshold 0.2, got %f", cfg.VAD.Threshold)
	}
	if !cfg.Transcription.Enabled {
		t.Error("Expected transcription enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestConfigLoadAppliesDefaults(t *testing.T) {
	content := `
storage:
  data_dir: ./data
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.AutosaveInterval != 30 {
		t.Errorf("Expected default autosave_interval 30, got %d", cfg.Storage.AutosaveInterval)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("Expected default sample_rate 16000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.SegmentMaxBytes != 128000 {
		t.Errorf("Expected default segment_max_bytes 128000, got %d", cfg.Audio.SegmentMaxBytes)
	}
	if cfg.Audio.MinSegmentDuration != 0.5 {
		t.Errorf("Expected default min_segment_duration 0.5, got %f", cfg.Audio.MinSegmentDuration)
	}
	if cfg.VAD.Threshold != 0.1 {
		t.Errorf("Expected default threshold 0.1, got %f", cfg.VAD.Threshold)
	}
	if cfg.Platform.Codec != CodecPCM16 {
		t.Errorf("Expected default codec pcm16, got %s", cfg.Platform.Codec)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestConfigLoadAPIKeyFromEnvironment(t *testing.T) {
	content := `
storage:
  data_dir: ./data
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("TRANSCRIPTION_API_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Transcription.APIKey != "env-secret" {
		t.Errorf("Expected API key from environment, got %q", cfg.Transcription.APIKey)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Storage.GetAutosaveInterval(); got != 30*time.Second {
		t.Errorf("Expected 30s autosave interval, got %v", got)
	}

	if got := cfg.Audio.GetMinSegmentDuration(); got != 500*time.Millisecond {
		t.Errorf("Expected 500ms min segment duration, got %v", got)
	}

	// 0.5s at 16kHz mono 16-bit is 16000 bytes
	if got := cfg.Audio.MinSegmentBytes(); got != 16000 {
		t.Errorf("Expected 16000 min segment bytes, got %d", got)
	}

	if got := cfg.Audio.BytesPerSecond(); got != 32000 {
		t.Errorf("Expected 32000 bytes per second, got %d", got)
	}

	if got := cfg.Transcription.GetTimeoutDuration(); got != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", got)
	}
}
