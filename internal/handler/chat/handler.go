package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
	chatservice "github.com/mwarzecha/velofit/backend/internal/service/chat"
	"github.com/mwarzecha/velofit/backend/internal/store"
	"github.com/mwarzecha/velofit/backend/pkg/utils"
)

// Turns is the orchestrator surface the handler depends on.
type Turns interface {
	Respond(ctx context.Context, formID, input string) (chat.UserTurn, *chat.BotTurn, error)
	RespondAudio(ctx context.Context, formID string, audio []byte, filename string) (chat.UserTurn, *chat.BotTurn, error)
	Transcript(ctx context.Context, formID string) ([]chat.Message, error)
}

// Handler serves the interview turn endpoints.
type Handler struct {
	turns Turns
}

// New creates the chat handler.
func New(turns Turns) *Handler {
	return &Handler{turns: turns}
}

// RegisterRoutes registers the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/{formID}/messages", h.handleTextTurn)
	r.Post("/chat/{formID}/audio", h.handleAudioTurn)
	r.Get("/chat/{formID}/messages", h.handleTranscript)
}

// turnResponse is the turn payload: the user acknowledgment plus the bot
// reply, either of which may be null.
type turnResponse struct {
	UserMessage *chat.UserTurn `json:"userMessage"`
	BotMessage  *chat.BotTurn  `json:"botMessage"`
}

func (h *Handler) handleTextTurn(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	userTurn, botTurn, err := h.turns.Respond(r.Context(), formID, payload.Message)
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{UserMessage: &userTurn, BotMessage: botTurn})
}

func (h *Handler) handleAudioTurn(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	userTurn, botTurn, err := h.turns.RespondAudio(r.Context(), formID, audio, header.Filename)
	if errors.Is(err, chatservice.ErrNoUsableInput) {
		// The turn never started; acknowledge with an empty payload.
		utils.RespondJSON(w, http.StatusOK, turnResponse{})
		return
	}
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, turnResponse{UserMessage: &userTurn, BotMessage: botTurn})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	messages, err := h.turns.Transcript(r.Context(), formID)
	if err != nil {
		h.respondTurnError(w, err)
		return
	}

	if messages == nil {
		messages = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) respondTurnError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrFormRequired) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, "failed to process turn")
}
