// Package extract turns a finished interview transcript into the structured
// intake record consumed by report rendering. The model output must match
// the record schema exactly; anything else is a failed extraction, and the
// caller substitutes an empty record.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
	"github.com/mwarzecha/velofit/backend/internal/model/intake"
)

const collectionScript = `Przetwórz rozmowę i zwróć ustrukturyzowane dane zgodnie ze schematem.
Zbierz następujące dane:
1. Antropometria
- wysokość ciała
- rękojeść mostka/długość tułowia
- długość wewnętrzna nogi
- szerokość ramion
- zasięg ramion
- adnotacje dotyczące antropometrii
2. Historia sportowa
3. Adnotacja dotycząca historii sportowej
4. Obecne problemy z pozycją na rowerze
5. Adnotacja dotycząca problemów z pozycją na rowerze
6. Profil ortopedyczny/zdrowotny
7. Profil motoryczny/ocena fizjoterapeutyczna
8. Adnotacje dotyczące profilu motorycznego/oceny fizjoterapeutycznej
9. Wymiary roweru (każdy wymiar opcjonalny)
10. Adnotacje dotyczące wymiarów roweru`

const formatInstructions = `Zwróć wyłącznie obiekt JSON, bez komentarzy i bez tekstu poza JSON, o dokładnie tej strukturze:
{
  "anthropometry": {
    "body_height": number,
    "sternum_handle": number,
    "inner_leg_length": number,
    "shoulder_width": number,
    "arm_span": number
  },
  "anthropometry_notes": string,
  "sports_history": string,
  "sports_history_notes": string,
  "position_problems": string,
  "position_problems_notes": string,
  "orthopedic_profile": string,
  "motor_profile": string,
  "motor_profile_notes": string,
  "bicycle_dimensions": {
    "saddle_height": number | null,
    "saddle_model": string | null,
    "saddle_size": string | null,
    "saddle_tilt": number | null,
    "seatpost_offset": number | null,
    "saddle_to_bottom_bracket": number | null,
    "saddle_to_handlebar_center": number | null,
    "saddle_to_shifter": number | null,
    "height_difference": number | null,
    "stem_length": number | null,
    "stem_angle": number | null,
    "handlebar_width": number | null,
    "handlebar_model": string | null,
    "spacer_height": number | null,
    "crank_length": number | null,
    "shifter_angle": number | null
  },
  "bicycle_dimensions_notes": string
}
Pola antropometrii są wymagane. Nie dodawaj żadnych pól spoza schematu.`

// Service runs the extraction chain against the configured chat model.
type Service struct {
	runner  compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewService compiles the extraction chain.
func NewService(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration) (*Service, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{instructions}"),
		schema.UserMessage("{transcript}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runner, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile extraction chain: %w", err)
	}

	return &Service{runner: runner, timeout: timeout}, nil
}

// Extract produces the structured intake record from the ordered transcript.
func (s *Service) Extract(ctx context.Context, transcript []chat.Message) (*intake.Record, error) {
	if len(transcript) == 0 {
		return nil, fmt.Errorf("empty transcript")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"instructions": collectionScript + "\n\n" + formatInstructions,
		"transcript":   renderTranscript(transcript),
	})
	if err != nil {
		return nil, fmt.Errorf("run extraction chain: %w", err)
	}

	return DecodeRecord(out.Content)
}

// DecodeRecord parses model output into a validated intake record. Unknown
// fields, wrong types and missing required fields all fail the decode.
func DecodeRecord(raw string) (*intake.Record, error) {
	cleaned := stripCodeFence(raw)

	decoder := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	decoder.DisallowUnknownFields()

	var record intake.Record
	if err := decoder.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode extraction output: %w", err)
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("validate extraction output: %w", err)
	}

	return &record, nil
}

func renderTranscript(transcript []chat.Message) string {
	var sb strings.Builder
	for _, m := range transcript {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models add around JSON output.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
