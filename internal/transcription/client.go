package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/scribeworks/meeting-audio-service/internal/speaker"
)

// Client provides HTTP client functionality for transcription API requests
type Client struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{} // Rate limiting semaphore

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// Config contains transcription client configuration
type Config struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration // zero means no client-side deadline
	MaxConcurrent int
	Language      string
	Model         string
}

// Request represents one segment submitted for transcription
type Request struct {
	SessionID  string              `json:"session_id"`
	SegmentID  string              `json:"segment_id"`
	AudioData  []byte              `json:"-"` // sent as file, not JSON
	Format     string              `json:"format"`
	SampleRate int                 `json:"sample_rate"`
	Speaker    speaker.Attribution `json:"speaker"`
	CapturedAt time.Time           `json:"captured_at"`
}

// Response represents the response from the transcription API
type Response struct {
	SegmentID   string    `json:"segment_id"`
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence"`
	Language    string    `json:"language,omitempty"`
	Duration    float64   `json:"duration"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// NewClient creates a new transcription HTTP client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	semaphore := make(chan struct{}, config.MaxConcurrent)

	return &Client{
		config:     config,
		httpClient: httpClient,
		semaphore:  semaphore,
	}, nil
}

// Transcribe submits one segment for transcription. There is no automatic
// retry: a failed segment is reported once and the pipeline moves on.
func (c *Client) Transcribe(ctx context.Context, request *Request) (*Response, error) {
	// Acquire semaphore for rate limiting
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	startTime := time.Now()
	c.incrementTotalRequests()

	response, err := c.doRequest(ctx, request)
	if err != nil {
		c.incrementFailedRequests()
		return nil, err
	}

	c.incrementSuccessRequests()
	c.updateAvgResponseTime(time.Since(startTime))

	return response, nil
}

// doRequest performs a single HTTP request to the transcription API
func (c *Client) doRequest(ctx context.Context, request *Request) (*Response, error) {
	body, contentType, err := c.createMultipartRequest(request)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "meeting-audio-service/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var transcriptionResp Response
	if err := json.Unmarshal(respBody, &transcriptionResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	transcriptionResp.ProcessedAt = time.Now()

	return &transcriptionResp, nil
}

// createMultipartRequest creates a multipart/form-data request body
func (c *Client) createMultipartRequest(request *Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if len(request.AudioData) > 0 {
		filename := fmt.Sprintf("%s.%s", request.SegmentID, request.Format)
		fileWriter, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}

		if _, err := fileWriter.Write(request.AudioData); err != nil {
			return nil, "", fmt.Errorf("failed to write audio data: %w", err)
		}
	}

	fields := map[string]string{
		"session_id":  request.SessionID,
		"segment_id":  request.SegmentID,
		"format":      request.Format,
		"sample_rate": fmt.Sprintf("%d", request.SampleRate),
		"captured_at": request.CapturedAt.Format(time.RFC3339),

		// Speaker context resolved at flush time
		"speaker_id":         request.Speaker.SpeakerID,
		"speaker_name":       request.Speaker.SpeakerName,
		"speaker_confidence": fmt.Sprintf("%.2f", request.Speaker.Confidence),
	}

	if c.config.Language != "" {
		fields["language"] = c.config.Language
	}
	if c.config.Model != "" {
		fields["model"] = c.config.Model
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	activeRequests := len(c.semaphore)

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		AvgResponseTime: c.avgResponseTime,
		ActiveRequests:  activeRequests,
	}
}

// Close releases idle connections. In-flight requests are left to finish or
// fail on their own; teardown must never block on a hung transcription call.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
