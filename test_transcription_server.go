package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

type TranscriptionResponse struct {
	SegmentID   string    `json:"segment_id"`
	Text        string    `json:"text"`
	Confidence  float32   `json:"confidence"`
	Language    string    `json:"language"`
	Duration    float64   `json:"duration"`
	ProcessedAt time.Time `json:"processed_at"`
}

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form
	err := r.ParseMultipartForm(10 << 20) // 10 MB
	if err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	segmentID := r.FormValue("segment_id")
	format := r.FormValue("format")
	sampleRate := r.FormValue("sample_rate")
	capturedAt := r.FormValue("captured_at")

	speakerID := r.FormValue("speaker_id")
	speakerName := r.FormValue("speaker_name")
	speakerConfidence := r.FormValue("speaker_confidence")

	language := r.FormValue("language")
	model := r.FormValue("model")

	// Get audio file
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 TRANSCRIPTION REQUEST RECEIVED:")
	log.Printf("  ═══════════════════════════════════")
	log.Printf("  📊 Segment Info:")
	log.Printf("    Session ID: %s", sessionID)
	log.Printf("    Segment ID: %s", segmentID)
	log.Printf("    Captured At: %s", capturedAt)
	log.Printf("  ═══════════════════════════════════")
	log.Printf("  🗣️  Speaker Context:")
	log.Printf("    Speaker ID: %s", speakerID)
	log.Printf("    Speaker Name: %s", speakerName)
	log.Printf("    Confidence: %s", speakerConfidence)
	log.Printf("  ═══════════════════════════════════")
	log.Printf("  🎧 Audio Info:")
	log.Printf("    Filename: %s", header.Filename)
	log.Printf("    Audio Size: %d bytes", len(audioData))
	log.Printf("    Format: %s @ %s Hz", format, sampleRate)
	log.Printf("    Language: %s, Model: %s", language, model)

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	// Create fake transcription response
	response := TranscriptionResponse{
		SegmentID:   segmentID,
		Text:        "This is a test transcription of the submitted meeting segment",
		Confidence:  0.95,
		Language:    "en",
		Duration:    float64(len(audioData)) / 32000.0,
		ProcessedAt: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ TRANSCRIPTION RESPONSE SENT: '%s'", response.Text)
	log.Println("---")
}

func main() {
	http.HandleFunc("/transcribe", transcribeHandler)

	port := ":9000"
	log.Printf("🚀 Test Transcription Server starting on port %s", port)
	log.Printf("📡 Endpoint: http://localhost%s/transcribe", port)
	log.Println("💡 Update your config to use: http://localhost:9000/transcribe")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
