package ai

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

// Capability is an auxiliary ability the agent may invoke during a turn:
// a name, a description the model sees, and a side-effect-free invocation.
// New capabilities register through the same path without touching the
// agent loop.
type Capability struct {
	Name        string
	Description string
	Invoke      func(ctx context.Context) (string, error)
}

func (c Capability) tool() (tool.InvokableTool, error) {
	return utils.InferTool(c.Name, c.Description, func(ctx context.Context, _ struct{}) (string, error) {
		return c.Invoke(ctx)
	})
}

// DefaultCapabilities returns the built-in capability set.
func DefaultCapabilities() []Capability {
	return capabilitiesWithClock(time.Now)
}

func capabilitiesWithClock(now func() time.Time) []Capability {
	return []Capability{
		{
			Name:        "current_time",
			Description: "Zwraca aktualną datę i godzinę.",
			Invoke: func(context.Context) (string, error) {
				return now().Format(time.RFC3339), nil
			},
		},
	}
}
