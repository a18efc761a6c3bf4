package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	chathandler "github.com/mwarzecha/velofit/backend/internal/handler/chat"
	chatmodel "github.com/mwarzecha/velofit/backend/internal/model/chat"
	chatservice "github.com/mwarzecha/velofit/backend/internal/service/chat"
	"github.com/mwarzecha/velofit/backend/internal/store"
)

type stubTurns struct {
	reply      string
	audioURL   string
	transcript []chatmodel.Message
	err        error

	lastFormID   string
	lastInput    string
	lastFilename string
	lastAudio    []byte
}

func (s *stubTurns) Respond(_ context.Context, formID, input string) (chatmodel.UserTurn, *chatmodel.BotTurn, error) {
	s.lastFormID = formID
	s.lastInput = input
	if s.err != nil {
		return chatmodel.UserTurn{}, nil, s.err
	}
	user := chatmodel.UserTurn{SessionID: formID, Message: input}
	bot := &chatmodel.BotTurn{SessionID: formID, Message: s.reply, Input: input, IsBot: true, AudioURL: s.audioURL}
	return user, bot, nil
}

func (s *stubTurns) RespondAudio(ctx context.Context, formID string, audio []byte, filename string) (chatmodel.UserTurn, *chatmodel.BotTurn, error) {
	s.lastAudio = audio
	s.lastFilename = filename
	return s.Respond(ctx, formID, "transkrypcja")
}

func (s *stubTurns) Transcript(_ context.Context, formID string) ([]chatmodel.Message, error) {
	s.lastFormID = formID
	return s.transcript, s.err
}

func newTestRouter(turns chathandler.Turns) http.Handler {
	r := chi.NewRouter()
	chathandler.New(turns).RegisterRoutes(r)
	return r
}

type turnResponse struct {
	UserMessage *chatmodel.UserTurn `json:"userMessage"`
	BotMessage  *chatmodel.BotTurn  `json:"botMessage"`
}

func TestTextTurn(t *testing.T) {
	turns := &stubTurns{reply: "Dziękuję, teraz podaj wagę", audioURL: "/audio/temp_audio_42_20240101120000.mp3"}
	router := newTestRouter(turns)

	body := strings.NewReader(`{"message": "Mam 180 cm wzrostu"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/42/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if turns.lastFormID != "42" || turns.lastInput != "Mam 180 cm wzrostu" {
		t.Fatalf("orchestrator saw form=%q input=%q", turns.lastFormID, turns.lastInput)
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserMessage == nil || resp.UserMessage.Message != "Mam 180 cm wzrostu" {
		t.Fatalf("user message = %+v", resp.UserMessage)
	}
	if resp.BotMessage == nil || resp.BotMessage.Message != "Dziękuję, teraz podaj wagę" {
		t.Fatalf("bot message = %+v", resp.BotMessage)
	}
	if resp.BotMessage.AudioURL != "/audio/temp_audio_42_20240101120000.mp3" {
		t.Fatalf("audio url = %q", resp.BotMessage.AudioURL)
	}
}

func TestTextTurnRequiresMessage(t *testing.T) {
	router := newTestRouter(&stubTurns{})

	req := httptest.NewRequest(http.MethodPost, "/chat/42/messages", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTextTurnInvalidBody(t *testing.T) {
	router := newTestRouter(&stubTurns{})

	req := httptest.NewRequest(http.MethodPost, "/chat/42/messages", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTextTurnMissingForm(t *testing.T) {
	router := newTestRouter(&stubTurns{err: store.ErrFormRequired})

	req := httptest.NewRequest(http.MethodPost, "/chat/42/messages", strings.NewReader(`{"message": "x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTextTurnInternalError(t *testing.T) {
	router := newTestRouter(&stubTurns{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/chat/42/messages", strings.NewReader(`{"message": "x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func audioRequest(t *testing.T, target string, audio []byte, filename string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(audio); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAudioTurn(t *testing.T) {
	turns := &stubTurns{reply: "Dziękuję"}
	router := newTestRouter(turns)

	req := audioRequest(t, "/chat/42/audio", []byte{0x1a, 0x45}, "turn.webm")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if turns.lastFilename != "turn.webm" || len(turns.lastAudio) != 2 {
		t.Fatalf("orchestrator saw filename=%q audio=%d bytes", turns.lastFilename, len(turns.lastAudio))
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BotMessage == nil || resp.BotMessage.Message != "Dziękuję" {
		t.Fatalf("bot message = %+v", resp.BotMessage)
	}
}

func TestAudioTurnUnusableInput(t *testing.T) {
	router := newTestRouter(&stubTurns{err: chatservice.ErrNoUsableInput})

	req := audioRequest(t, "/chat/42/audio", []byte{1}, "turn.webm")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An unusable recording is not a failure; the client just retries.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserMessage != nil || resp.BotMessage != nil {
		t.Fatalf("expected empty payload, got %+v", resp)
	}
}

func TestAudioTurnMissingFile(t *testing.T) {
	router := newTestRouter(&stubTurns{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("note", "no audio part")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/chat/42/audio", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscript(t *testing.T) {
	turns := &stubTurns{transcript: []chatmodel.Message{
		{ID: "1", FormID: "42", Role: chatmodel.RoleUser, Text: "Mam 180 cm wzrostu"},
		{ID: "2", FormID: "42", Role: chatmodel.RoleAssistant, Text: "Dziękuję, teraz podaj wagę"},
	}}
	router := newTestRouter(turns)

	req := httptest.NewRequest(http.MethodGet, "/chat/42/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var messages []chatmodel.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(messages) != 2 || messages[0].Text != "Mam 180 cm wzrostu" {
		t.Fatalf("unexpected transcript: %+v", messages)
	}
}

func TestTranscriptEmptyForm(t *testing.T) {
	router := newTestRouter(&stubTurns{})

	req := httptest.NewRequest(http.MethodGet, "/chat/42/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty array", body)
	}
}
