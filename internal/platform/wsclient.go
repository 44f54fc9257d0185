package platform

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	soxr "github.com/zaf/resample"
	opus "gopkg.in/hraban/opus.v2"

	"github.com/scribeworks/meeting-audio-service/internal/audio"
	"github.com/scribeworks/meeting-audio-service/internal/config"
)

const (
	dialTimeout = 10 * time.Second

	// Largest opus frame at 48kHz mono (120ms)
	maxOpusFrameSamples = 5760
)

// envelope is the platform wire format. Audio payloads are base64 in the
// JSON text; encoding/json handles the conversion for []byte fields.
type envelope struct {
	Type        string `json:"type"`
	SpeakerID   string `json:"speaker_id,omitempty"`
	SpeakerName string `json:"speaker_name,omitempty"`
	Payload     []byte `json:"payload,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
}

// WSSource streams meeting audio from the platform over a websocket,
// decodes the platform codec and resamples to the pipeline rate.
type WSSource struct {
	cfg          config.PlatformConfig
	pipelineRate int
	handlers     Handlers
	logger       *slog.Logger

	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	decoder      *opus.Decoder
	resampler    *soxr.Resampler
	resamplerBuf *bytes.Buffer
	opusPCM      []int16

	// Statistics
	framesReceived uint64
	framesDecoded  uint64
	decodeErrors   uint64

	mu sync.RWMutex
}

// WSSourceStats represents platform source statistics for monitoring
type WSSourceStats struct {
	Connected      bool   `json:"connected"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDecoded  uint64 `json:"frames_decoded"`
	DecodeErrors   uint64 `json:"decode_errors"`
}

// NewWSSource creates a websocket frame source for one session
func NewWSSource(cfg config.PlatformConfig, pipelineRate int, handlers Handlers, logger *slog.Logger) *WSSource {
	return &WSSource{
		cfg:          cfg,
		pipelineRate: pipelineRate,
		handlers:     handlers,
		logger:       logger,
	}
}

// Connect dials the platform and starts the read loop. The call handle
// identifies which meeting to join.
func (s *WSSource) Connect(ctx context.Context, callHandle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid platform URL: %w", err)
	}
	q := u.Query()
	q.Set("call", callHandle)
	u.RawQuery = q.Encode()

	if err := s.initDecodeChain(); err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		s.closeDecodeChain()
		if resp != nil {
			return fmt.Errorf("platform dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("platform dial failed: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	s.connected = true

	s.wg.Add(1)
	go s.readLoop(loopCtx, conn)

	s.logger.Info("Connected to platform",
		slog.String("url", s.cfg.URL),
		slog.String("call", callHandle),
		slog.String("codec", s.cfg.Codec),
	)

	return nil
}

// initDecodeChain prepares the opus decoder and resampler the configured
// codec requires. Must hold mu.
func (s *WSSource) initDecodeChain() error {
	inRate := s.cfg.SampleRate

	if s.cfg.Codec == config.CodecOpus {
		decoder, err := opus.NewDecoder(s.cfg.SampleRate, 1)
		if err != nil {
			return fmt.Errorf("create opus decoder: %w", err)
		}
		s.decoder = decoder
		s.opusPCM = make([]int16, maxOpusFrameSamples)
	}

	if inRate != s.pipelineRate {
		// Resampler writes converted audio into the buffer we drain after
		// each frame
		buf := &bytes.Buffer{}
		resampler, err := soxr.New(buf, float64(inRate), float64(s.pipelineRate), 1, soxr.I16, soxr.HighQ)
		if err != nil {
			s.decoder = nil
			return fmt.Errorf("create resampler: %w", err)
		}
		s.resampler = resampler
		s.resamplerBuf = buf
	}

	return nil
}

// closeDecodeChain releases codec resources. Must hold mu.
func (s *WSSource) closeDecodeChain() {
	if s.resampler != nil {
		s.resampler.Close()
		s.resampler = nil
		s.resamplerBuf = nil
	}
	s.decoder = nil
}

// readLoop receives envelopes until the connection drops or Disconnect runs
func (s *WSSource) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Platform read failed", slog.String("error", err.Error()))
				s.mu.Lock()
				s.connected = false
				s.mu.Unlock()
				if s.handlers.OnError != nil {
					s.handlers.OnError(fmt.Errorf("platform stream ended: %w", err))
				}
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.logger.Warn("Dropping malformed platform message", slog.String("error", err.Error()))
			continue
		}

		switch env.Type {
		case "audio":
			s.handleAudio(env)
		case "participant-joined":
			if s.handlers.OnParticipant != nil {
				s.handlers.OnParticipant(ParticipantEvent{Kind: ParticipantJoined, ID: env.ID, Name: env.Name})
			}
		case "participant-left":
			if s.handlers.OnParticipant != nil {
				s.handlers.OnParticipant(ParticipantEvent{Kind: ParticipantLeft, ID: env.ID, Name: env.Name})
			}
		default:
			// Unknown message types are ignored so platform protocol
			// additions do not break the session
		}
	}
}

// handleAudio decodes one audio envelope and delivers the frame
func (s *WSSource) handleAudio(env envelope) {
	s.mu.Lock()
	s.framesReceived++
	pcm, err := s.decodePayload(env.Payload)
	if err != nil {
		s.decodeErrors++
		s.mu.Unlock()
		s.logger.Warn("Dropping undecodable audio frame", slog.String("error", err.Error()))
		return
	}
	s.framesDecoded++
	s.mu.Unlock()

	if len(pcm) == 0 {
		return
	}

	if s.handlers.OnFrame != nil {
		s.handlers.OnFrame(Frame{
			PCM: pcm,
			Speaker: audio.SpeakerMeta{
				SpeakerID:   env.SpeakerID,
				SpeakerName: env.SpeakerName,
			},
			ReceivedAt: time.Now(),
		})
	}
}

// decodePayload converts one wire payload into pipeline-rate PCM bytes.
// Must hold mu.
func (s *WSSource) decodePayload(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	pcm := payload
	if s.decoder != nil {
		n, err := s.decoder.Decode(payload, s.opusPCM)
		if err != nil {
			return nil, fmt.Errorf("opus decode: %w", err)
		}
		pcm = samplesToBytes(s.opusPCM[:n])
	}

	if s.resampler == nil {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out, nil
	}

	if _, err := s.resampler.Write(pcm); err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	out := make([]byte, s.resamplerBuf.Len())
	copy(out, s.resamplerBuf.Bytes())
	s.resamplerBuf.Reset()
	return out, nil
}

// samplesToBytes converts int16 samples to little-endian PCM bytes
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// Connected reports whether the platform stream is live
func (s *WSSource) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Disconnect stops the read loop and closes the connection. Safe to call
// more than once.
func (s *WSSource) Disconnect() error {
	s.mu.Lock()
	if !s.connected && s.conn == nil {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	cancel := s.cancel
	s.conn = nil
	s.cancel = nil
	s.connected = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = conn.Close()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.closeDecodeChain()
	s.mu.Unlock()

	return err
}

// GetStats returns current source statistics
func (s *WSSource) GetStats() WSSourceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return WSSourceStats{
		Connected:      s.connected,
		FramesReceived: s.framesReceived,
		FramesDecoded:  s.framesDecoded,
		DecodeErrors:   s.decodeErrors,
	}
}
