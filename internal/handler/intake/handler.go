package intake

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
	"github.com/mwarzecha/velofit/backend/internal/model/intake"
	"github.com/mwarzecha/velofit/backend/pkg/utils"
)

// Extractor converts a transcript into the structured intake record.
type Extractor interface {
	Extract(ctx context.Context, transcript []chat.Message) (*intake.Record, error)
}

// TranscriptLoader returns the persisted message log for a form.
type TranscriptLoader interface {
	Transcript(ctx context.Context, formID string) ([]chat.Message, error)
}

// Handler serves the structured intake record for report rendering.
// Extraction is best-effort: on any failure the response carries an empty
// record instead of an error, so report generation never aborts.
type Handler struct {
	extractor Extractor
	loader    TranscriptLoader
}

// New creates the intake extraction handler. extractor may be nil when no
// model is configured.
func New(extractor Extractor, loader TranscriptLoader) *Handler {
	return &Handler{extractor: extractor, loader: loader}
}

// RegisterRoutes registers the intake endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forms/{formID}/intake", h.handleIntakeRecord)
}

type intakeResponse struct {
	Extracted bool           `json:"extracted"`
	Record    *intake.Record `json:"record"`
	Fields    map[string]any `json:"fields"`
}

func (h *Handler) handleIntakeRecord(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	if formID == "" {
		utils.RespondError(w, http.StatusBadRequest, "formID is required")
		return
	}

	transcript, err := h.loader.Transcript(r.Context(), formID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	if h.extractor == nil {
		h.respondEmpty(w)
		return
	}

	record, err := h.extractor.Extract(r.Context(), transcript)
	if err != nil {
		log.Printf("[intake] extraction failed for form=%s: %v", formID, err)
		h.respondEmpty(w)
		return
	}

	utils.RespondJSON(w, http.StatusOK, intakeResponse{
		Extracted: true,
		Record:    record,
		Fields:    record.ToMap(),
	})
}

func (h *Handler) respondEmpty(w http.ResponseWriter) {
	empty := &intake.Record{}
	utils.RespondJSON(w, http.StatusOK, intakeResponse{
		Extracted: false,
		Record:    empty,
		Fields:    empty.ToMap(),
	})
}
