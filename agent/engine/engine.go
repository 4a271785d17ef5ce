// Package engine adapts an eino chat model with bound tool schemas to the
// contract.Engine boundary. Everything model-specific stays behind Decide so
// tests can substitute a deterministic stub.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/thanarat/shopagent/agent/contract"
	toolx "github.com/thanarat/shopagent/agent/tool"
)

type Engine struct {
	runner       compose.Runnable[[]*schema.Message, *schema.Message]
	systemPrompt string
	timeout      time.Duration
}

var _ contractx.Engine = (*Engine)(nil)

// New binds the catalog tool schemas to the chat model and compiles the
// chat graph. timeout bounds each Decide call (0 = caller-supplied context
// only).
func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	timeout time.Duration,
) (*Engine, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("system prompt is required")
	}

	toolModel, err := chatModel.WithTools(toolx.Infos())
	if err != nil {
		return nil, fmt.Errorf("bind tool schemas: %w", err)
	}

	runner, err := compileChatGraph(ctx, toolModel)
	if err != nil {
		return nil, err
	}

	return &Engine{
		runner:       runner,
		systemPrompt: strings.TrimSpace(systemPrompt),
		timeout:      timeout,
	}, nil
}

func (e *Engine) Decide(ctx context.Context, turns []contractx.Turn) (contractx.Decision, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	msg, err := e.runner.Invoke(ctx, toMessages(e.systemPrompt, turns))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return contractx.Decision{}, fmt.Errorf("%w: %v", contractx.ErrUpstreamTimeout, err)
		}
		return contractx.Decision{}, fmt.Errorf("%w: %v", contractx.ErrUpstreamError, err)
	}

	return toDecision(msg)
}

func compileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("add edge start->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.chat_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}

func toMessages(systemPrompt string, turns []contractx.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns)+1)
	out = append(out, schema.SystemMessage(systemPrompt))

	for _, t := range turns {
		switch t.Role {
		case contractx.RoleUser:
			out = append(out, schema.UserMessage(t.Content))
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Content, toSchemaToolCalls(t.ToolCalls)))
		case contractx.RoleTool:
			out = append(out, schema.ToolMessage(t.Content, t.ToolCallID))
		}
	}
	return out
}

func toSchemaToolCalls(calls []contractx.ToolCall) []schema.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]schema.ToolCall, 0, len(calls))
	for _, call := range calls {
		out = append(out, schema.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      string(call.Kind),
				Arguments: call.RawArgs,
			},
		})
	}
	return out
}

// toDecision translates the assistant message into a Decision. Tool-call
// names are resolved through tool.ParseCall, so a name outside the known
// set fails here with ErrUnknownTool instead of reaching dispatch.
func toDecision(msg *schema.Message) (contractx.Decision, error) {
	if msg == nil {
		return contractx.Decision{}, fmt.Errorf("%w: empty assistant message", contractx.ErrUpstreamError)
	}

	if len(msg.ToolCalls) == 0 {
		reply := strings.TrimSpace(msg.Content)
		if reply == "" {
			return contractx.Decision{}, fmt.Errorf("%w: assistant message has no content and no tool calls", contractx.ErrUpstreamError)
		}
		return contractx.Decision{Reply: reply}, nil
	}

	calls := make([]contractx.ToolCall, 0, len(msg.ToolCalls))
	for _, raw := range msg.ToolCalls {
		call, err := toolx.ParseCall(raw.ID, raw.Function.Name, raw.Function.Arguments)
		if err != nil {
			return contractx.Decision{}, err
		}
		calls = append(calls, call)
	}

	return contractx.Decision{ToolCalls: calls}, nil
}
