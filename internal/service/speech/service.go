// Package speech adapts the provider's transcription and speech synthesis
// REST endpoints. Synthesis is best-effort: callers keep the text-only reply
// when it fails. A failed transcription means the turn has no usable input.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwarzecha/velofit/backend/internal/config"
)

// Service calls the speech provider with a bounded HTTP client.
type Service struct {
	cfg    config.SpeechConfig
	client *http.Client
}

// NewService creates the speech service from configuration.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Transcribe converts spoken audio to text. The filename carries the format
// hint for the provider.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio input")
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if err := writer.WriteField("model", s.cfg.ASRModel); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return strings.TrimSpace(string(data)), nil
}

// Synthesize converts text to mp3 audio bytes.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty synthesis input")
	}

	payload, err := json.Marshal(map[string]string{
		"model":           s.cfg.TTSModel,
		"voice":           s.cfg.TTSVoice,
		"response_format": "mp3",
		"input":           text,
	})
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}

// SynthesizeToFile renders the reply audio under a per-session, timestamped
// name so concurrent sessions never collide, and returns the file path.
func (s *Service) SynthesizeToFile(ctx context.Context, text, formID string) (string, error) {
	data, err := s.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.cfg.AudioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio directory: %w", err)
	}

	name := fmt.Sprintf("temp_audio_%s_%s.mp3", formID, time.Now().Format("20060102150405"))
	path := filepath.Join(s.cfg.AudioDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save audio file: %w", err)
	}

	return path, nil
}
