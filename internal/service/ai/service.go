// Package ai runs the interview agent: a fixed system script, the session
// history, and a tool-calling loop over the configured chat model.
package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/mwarzecha/velofit/backend/internal/config"
)

// Service drives one interview turn through the chat model, resolving tool
// calls until the model produces a final answer.
type Service struct {
	chatModel model.ChatModel
	tools     map[string]tool.InvokableTool
	maxSteps  int
	timeout   time.Duration
}

// NewService binds the capabilities to the model and prepares the executor.
func NewService(ctx context.Context, chatModel model.ChatModel, capabilities []Capability, cfg config.AIConfig) (*Service, error) {
	tools := make(map[string]tool.InvokableTool, len(capabilities))
	infos := make([]*schema.ToolInfo, 0, len(capabilities))

	for _, c := range capabilities {
		t, err := c.tool()
		if err != nil {
			return nil, fmt.Errorf("build tool %s: %w", c.Name, err)
		}
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe tool %s: %w", c.Name, err)
		}
		tools[c.Name] = t
		infos = append(infos, info)
	}

	if len(infos) > 0 {
		if err := chatModel.BindTools(infos); err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
	}

	maxSteps := cfg.MaxSteps
	if maxSteps < 2 {
		// At least one tool round-trip plus the final answer.
		maxSteps = 2
	}

	return &Service{
		chatModel: chatModel,
		tools:     tools,
		maxSteps:  maxSteps,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Generate produces the assistant reply for one turn. The invocation is
// system script + prior history + the new user message; tool calls requested
// by the model are executed and fed back until a final answer arrives.
func (s *Service) Generate(ctx context.Context, history []*schema.Message, input string) (*schema.Message, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(interviewScript))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(input))

	for step := 0; step < s.maxSteps; step++ {
		out, err := s.chatModel.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("model generate: %w", err)
		}

		if len(out.ToolCalls) == 0 {
			return out, nil
		}

		messages = append(messages, out)
		for _, call := range out.ToolCalls {
			result, err := s.runTool(ctx, call)
			if err != nil {
				return nil, err
			}
			messages = append(messages, schema.ToolMessage(result, call.ID))
		}
		log.Printf("[ai] resolved %d tool call(s) at step %d", len(out.ToolCalls), step)
	}

	return nil, fmt.Errorf("tool loop did not converge within %d steps", s.maxSteps)
}

func (s *Service) runTool(ctx context.Context, call schema.ToolCall) (string, error) {
	t, ok := s.tools[call.Function.Name]
	if !ok {
		return "", fmt.Errorf("model requested unknown tool %q", call.Function.Name)
	}

	args := call.Function.Arguments
	if args == "" {
		args = "{}"
	}

	result, err := t.InvokableRun(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Function.Name, err)
	}
	return result, nil
}
