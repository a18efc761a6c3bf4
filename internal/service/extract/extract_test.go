package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
)

const validRecordJSON = `{
  "anthropometry": {
    "body_height": 180,
    "sternum_handle": 146,
    "inner_leg_length": 86.5,
    "shoulder_width": 40,
    "arm_span": 179
  },
  "anthropometry_notes": "",
  "sports_history": "kolarstwo szosowe od 5 lat",
  "sports_history_notes": "",
  "position_problems": "drętwienie dłoni",
  "position_problems_notes": "",
  "orthopedic_profile": "",
  "motor_profile": "",
  "motor_profile_notes": "",
  "bicycle_dimensions": {
    "saddle_height": 74.5,
    "saddle_model": "PRO Stealth",
    "saddle_size": null,
    "saddle_tilt": null,
    "seatpost_offset": null,
    "saddle_to_bottom_bracket": null,
    "saddle_to_handlebar_center": null,
    "saddle_to_shifter": null,
    "height_difference": null,
    "stem_length": 100,
    "stem_angle": null,
    "handlebar_width": null,
    "handlebar_model": null,
    "spacer_height": null,
    "crank_length": null,
    "shifter_angle": null
  },
  "bicycle_dimensions_notes": ""
}`

func TestDecodeRecordValid(t *testing.T) {
	record, err := DecodeRecord(validRecordJSON)
	if err != nil {
		t.Fatalf("DecodeRecord err: %v", err)
	}

	if record.Anthropometry.BodyHeight == nil || *record.Anthropometry.BodyHeight != 180 {
		t.Fatalf("body_height = %v", record.Anthropometry.BodyHeight)
	}
	if record.SportsHistory != "kolarstwo szosowe od 5 lat" {
		t.Fatalf("sports_history = %q", record.SportsHistory)
	}
	if record.BicycleDimensions.SaddleHeight == nil || *record.BicycleDimensions.SaddleHeight != 74.5 {
		t.Fatalf("saddle_height = %v", record.BicycleDimensions.SaddleHeight)
	}
	if record.BicycleDimensions.SaddleSize != nil {
		t.Fatal("saddle_size must stay nil")
	}
}

func TestDecodeRecordFencedJSON(t *testing.T) {
	fenced := "```json\n" + validRecordJSON + "\n```"

	record, err := DecodeRecord(fenced)
	if err != nil {
		t.Fatalf("DecodeRecord err: %v", err)
	}
	if record.Anthropometry.ArmSpan == nil || *record.Anthropometry.ArmSpan != 179 {
		t.Fatalf("arm_span = %v", record.Anthropometry.ArmSpan)
	}
}

func TestDecodeRecordMissingRequired(t *testing.T) {
	missing := strings.Replace(validRecordJSON, `"arm_span": 179`, `"arm_span": null`, 1)

	if _, err := DecodeRecord(missing); err == nil {
		t.Fatal("expected error for null arm_span")
	}
}

func TestDecodeRecordUnknownField(t *testing.T) {
	extra := strings.Replace(validRecordJSON, `"sports_history":`, `"favourite_color": "blue", "sports_history":`, 1)

	if _, err := DecodeRecord(extra); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecodeRecordNotJSON(t *testing.T) {
	if _, err := DecodeRecord("Niestety nie mogę tego zrobić."); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

// fixedModel answers every invocation with the same content.
type fixedModel struct {
	content string
	err     error
	seen    [][]*schema.Message
}

func (m *fixedModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.seen = append(m.seen, in)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *fixedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func sampleTranscript() []chat.Message {
	return []chat.Message{
		{Role: chat.RoleUser, Text: "Mam 180 cm wzrostu"},
		{Role: chat.RoleAssistant, Text: "Dziękuję, teraz podaj wagę"},
		{Role: chat.RoleUser, Text: "Zasięg ramion 179 cm"},
	}
}

func TestExtractProducesRecord(t *testing.T) {
	m := &fixedModel{content: validRecordJSON}
	svc, err := NewService(context.Background(), m, 5*time.Second)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	record, err := svc.Extract(context.Background(), sampleTranscript())
	if err != nil {
		t.Fatalf("Extract err: %v", err)
	}
	if record.Anthropometry.BodyHeight == nil || *record.Anthropometry.BodyHeight != 180 {
		t.Fatalf("body_height = %v", record.Anthropometry.BodyHeight)
	}

	if len(m.seen) != 1 {
		t.Fatalf("model invoked %d times, want 1", len(m.seen))
	}
	sent := m.seen[0]
	if sent[0].Role != schema.System || !strings.Contains(sent[0].Content, "ustrukturyzowane dane") {
		t.Fatal("system message must carry the collection instructions")
	}
	if sent[1].Role != schema.User || !strings.Contains(sent[1].Content, "user: Mam 180 cm wzrostu") {
		t.Fatalf("transcript not rendered into the user message: %q", sent[1].Content)
	}
}

func TestExtractEmptyTranscript(t *testing.T) {
	svc, err := NewService(context.Background(), &fixedModel{content: validRecordJSON}, 5*time.Second)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.Extract(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestExtractModelFailure(t *testing.T) {
	svc, err := NewService(context.Background(), &fixedModel{err: errors.New("provider unreachable")}, 5*time.Second)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.Extract(context.Background(), sampleTranscript()); err == nil {
		t.Fatal("expected model error to propagate")
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	svc, err := NewService(context.Background(), &fixedModel{content: "to nie jest JSON"}, 5*time.Second)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	if _, err := svc.Extract(context.Background(), sampleTranscript()); err == nil {
		t.Fatal("expected error for malformed model output")
	}
}
