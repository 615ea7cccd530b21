// Package anthropic provides a model.Backend over the Anthropic Messages
// API, covering both one-shot calls and the incremental event stream.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/model"
)

// Options configures the Anthropic backend adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Backend wraps the Anthropic Messages API behind the model.Backend interface.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Backend{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic backend from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	return &Backend{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Call implements the one-shot path of model.Backend.
func (b *Backend) Call(ctx context.Context, req model.Request) (*model.Response, error) {
	resp, err := b.client.Messages.New(ctx, b.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var blocks []core.ContentBlock
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				blocks = append(blocks, core.TextBlock{Text: textBlock.Text})
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			blocks = append(blocks, core.ToolCallBlock{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: string(toolBlock.Input),
			})
		}
	}

	return &model.Response{
		Blocks:       blocks,
		FinishReason: mapStopReason(resp.StopReason),
		Usage: model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// Stream implements the incremental path of model.Backend. SDK stream events
// are translated one-to-one into model.StreamEvent values; the call-id table
// keyed by content block index lets argument fragments reference the call
// announced at block start.
func (b *Backend) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, error) {
	out := make(chan model.StreamEvent, 32)

	go func() {
		defer close(out)

		stream := b.client.Messages.NewStreaming(ctx, b.buildParams(req))
		msg := anthropic.Message{}
		callIDs := map[int64]string{} // content block index -> tool call id

		emit := func(ev model.StreamEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- ev:
				return true
			}
		}

		for stream.Next() {
			event := stream.Current()
			if err := msg.Accumulate(event); err != nil {
				emit(model.ErrorEvent{Err: fmt.Errorf("anthropic stream accumulate: %w", err)})
				return
			}

			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				if variant.ContentBlock.Type != "tool_use" {
					continue
				}
				callIDs[variant.Index] = variant.ContentBlock.ID
				if !emit(model.ToolCallStartEvent{ID: variant.ContentBlock.ID, Name: variant.ContentBlock.Name}) {
					return
				}
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text == "" {
						continue
					}
					if !emit(model.TextDeltaEvent{Text: delta.Text}) {
						return
					}
				case anthropic.InputJSONDelta:
					id, ok := callIDs[variant.Index]
					if !ok || delta.PartialJSON == "" {
						continue
					}
					if !emit(model.ToolCallDeltaEvent{ID: id, Fragment: delta.PartialJSON}) {
						return
					}
				}
			case anthropic.ContentBlockStopEvent:
				id, ok := callIDs[variant.Index]
				if !ok {
					continue
				}
				if !emit(model.ToolCallEndEvent{ID: id}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			emit(model.ErrorEvent{Err: fmt.Errorf("anthropic streaming error: %w", err)})
			return
		}

		emit(model.FinishEvent{
			Reason: mapStopReason(msg.StopReason),
			Usage: model.TokenUsage{
				PromptTokens:     int(msg.Usage.InputTokens),
				CompletionTokens: int(msg.Usage.OutputTokens),
				TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
			},
		})
	}()

	return out, nil
}

// buildParams assembles the Anthropic request parameters from a normalized request.
func (b *Backend) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       b.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}
	if req.Model != "" {
		params.Model = anthropic.Model(req.Model)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages converts the transcript to Anthropic message format. Tool
// result blocks must appear in a user-role message immediately after the
// assistant message that requested them.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, msg := range messages {
		var content []anthropic.ContentBlockParamUnion
		switch msg.Role {
		case core.RoleUser:
			for _, block := range msg.Content {
				if tb, ok := block.(core.TextBlock); ok && tb.Text != "" {
					content = append(content, anthropic.NewTextBlock(tb.Text))
				}
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewUserMessage(content...))
			}
		case core.RoleAssistant:
			for _, block := range msg.Content {
				switch b := block.(type) {
				case core.TextBlock:
					if b.Text != "" {
						content = append(content, anthropic.NewTextBlock(b.Text))
					}
				case core.ToolCallBlock:
					content = append(content, anthropic.NewToolUseBlock(b.ID, parseArguments(b.Arguments), b.Name))
				}
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleTool:
			for _, block := range msg.Content {
				if tr, ok := block.(core.ToolResultBlock); ok {
					content = append(content, anthropic.NewToolResultBlock(tr.CallID, tr.Content, tr.IsError))
				}
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewUserMessage(content...))
			}
		}
	}

	return out
}

// parseArguments decodes a serialized argument payload, falling back to the
// raw string when it is not valid JSON.
func parseArguments(args string) any {
	if args == "" {
		return map[string]any{}
	}
	var input any
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return args
	}
	return input
}

// buildTools converts tool definitions to the Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if t.Parameters != nil {
			if properties, exists := t.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredStrings(t.Parameters["required"])
		}
		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}

	return anthropicTools
}

// requiredStrings normalizes a schema's required list, which may be a
// []string or a JSON-decoded []any.
func requiredStrings(required any) []string {
	switch req := required.(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// mapStopReason translates Anthropic stop reasons to the normalized set.
func mapStopReason(reason anthropic.StopReason) model.FinishReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return model.FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		return model.FinishMaxTokens
	default:
		return model.FinishStop
	}
}
