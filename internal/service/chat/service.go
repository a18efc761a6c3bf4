// Package chat orchestrates one interview turn: optional transcription,
// history rehydration, the agent call, atomic persistence of the turn pair,
// and best-effort speech synthesis.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	chatmodel "github.com/mwarzecha/velofit/backend/internal/model/chat"
	"github.com/mwarzecha/velofit/backend/internal/service/history"
	"github.com/mwarzecha/velofit/backend/internal/store"
)

// ErrNoUsableInput signals an audio turn whose transcription yielded nothing.
// The turn is aborted before history is touched.
var ErrNoUsableInput = errors.New("no usable input")

// Responder produces the assistant reply for a turn.
type Responder interface {
	Generate(ctx context.Context, historyMsgs []*schema.Message, input string) (*schema.Message, error)
}

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Synthesizer renders assistant text as a playable audio file.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, formID string) (string, error)
}

// Service handles interview turns for intake forms. Responder, Transcriber
// and Synthesizer may be nil when the matching provider is not configured;
// the service degrades to the behavior described in the failure policy.
type Service struct {
	store       store.Store
	history     *history.Service
	responder   Responder
	transcriber Transcriber
	synthesizer Synthesizer
	audioBase   string
}

// NewService wires the turn orchestrator.
func NewService(st store.Store, hist *history.Service, responder Responder, transcriber Transcriber, synthesizer Synthesizer, audioBase string) *Service {
	return &Service{
		store:       st,
		history:     hist,
		responder:   responder,
		transcriber: transcriber,
		synthesizer: synthesizer,
		audioBase:   strings.TrimSuffix(audioBase, "/"),
	}
}

// Respond processes one text turn. The user turn is always acknowledged;
// the bot turn is nil whenever the assistant could not reply. A turn is
// persisted as a whole pair or not at all.
func (s *Service) Respond(ctx context.Context, formID, input string) (chatmodel.UserTurn, *chatmodel.BotTurn, error) {
	if formID == "" {
		return chatmodel.UserTurn{}, nil, store.ErrFormRequired
	}
	if strings.TrimSpace(input) == "" {
		return chatmodel.UserTurn{}, nil, fmt.Errorf("empty message")
	}

	s.history.Lock(formID)
	defer s.history.Unlock(formID)

	userTurn := chatmodel.UserTurn{SessionID: formID, Message: input, IsBot: false}

	if s.responder == nil {
		log.Printf("[chat] no responder configured, acknowledging user turn only for form=%s", formID)
		return userTurn, nil, nil
	}

	historyMsgs, err := s.history.Get(ctx, formID)
	if err != nil {
		return chatmodel.UserTurn{}, nil, err
	}

	reply, err := s.responder.Generate(ctx, historyMsgs, input)
	if err != nil {
		log.Printf("[chat] agent failed for form=%s: %v", formID, err)
		return userTurn, nil, nil
	}

	now := time.Now().UTC()
	userMsg := chatmodel.Message{FormID: formID, Role: chatmodel.RoleUser, Text: input, CreatedAt: now}
	botMsg := chatmodel.Message{FormID: formID, Role: chatmodel.RoleAssistant, Text: reply.Content, CreatedAt: now}

	if err := s.store.SaveTurn(ctx, userMsg, botMsg); err != nil {
		// Nothing was persisted; future rehydration stays consistent.
		log.Printf("[chat] failed to persist turn for form=%s: %v", formID, err)
		return userTurn, nil, nil
	}

	s.history.Append(formID, schema.UserMessage(input), schema.AssistantMessage(reply.Content, nil))

	botTurn := &chatmodel.BotTurn{
		SessionID: formID,
		Message:   reply.Content,
		Input:     input,
		IsBot:     true,
		AudioURL:  s.synthesizeReply(ctx, reply.Content, formID),
	}

	return userTurn, botTurn, nil
}

// RespondAudio processes one spoken turn. Transcription failure aborts the
// turn before any state changes.
func (s *Service) RespondAudio(ctx context.Context, formID string, audio []byte, filename string) (chatmodel.UserTurn, *chatmodel.BotTurn, error) {
	if formID == "" {
		return chatmodel.UserTurn{}, nil, store.ErrFormRequired
	}
	if s.transcriber == nil {
		log.Printf("[chat] no transcriber configured, dropping audio turn for form=%s", formID)
		return chatmodel.UserTurn{}, nil, ErrNoUsableInput
	}

	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		log.Printf("[chat] transcription failed for form=%s: %v", formID, err)
		return chatmodel.UserTurn{}, nil, ErrNoUsableInput
	}
	if strings.TrimSpace(text) == "" {
		return chatmodel.UserTurn{}, nil, ErrNoUsableInput
	}

	return s.Respond(ctx, formID, text)
}

// Transcript returns the persisted message log for a form.
func (s *Service) Transcript(ctx context.Context, formID string) ([]chatmodel.Message, error) {
	return s.store.ListMessages(ctx, formID)
}

func (s *Service) synthesizeReply(ctx context.Context, text, formID string) string {
	if s.synthesizer == nil {
		return ""
	}

	path, err := s.synthesizer.SynthesizeToFile(ctx, text, formID)
	if err != nil {
		log.Printf("[chat] speech synthesis failed for form=%s: %v", formID, err)
		return ""
	}
	return s.audioBase + "/" + filepath.Base(path)
}
