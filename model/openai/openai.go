// Package openai provides a model.Backend over the OpenAI Chat Completions
// API (including streaming tool calling). It adapts agentloop's normalized
// request/response structures into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/agentloop/agentloop/core"
	"github.com/agentloop/agentloop/model"
)

// Options configure the OpenAI backend adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Backend wraps the OpenAI Chat Completions API behind the model.Backend interface.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI backend from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Call implements the one-shot path of model.Backend.
func (b *Backend) Call(ctx context.Context, req model.Request) (*model.Response, error) {
	resp, err := b.client.Chat.Completions.New(ctx, b.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	ch0 := resp.Choices[0]
	blocks := make([]core.ContentBlock, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		blocks = append(blocks, core.TextBlock{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		blocks = append(blocks, core.ToolCallBlock{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return &model.Response{
		Blocks:       blocks,
		FinishReason: mapFinishReason(ch0.FinishReason),
		Usage: model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// aggCall tracks one streamed tool call: the id and name arrive with the
// first indexed delta, argument fragments follow.
type aggCall struct {
	id      string
	name    string
	started bool
}

// Stream implements the incremental path of model.Backend. OpenAI keys tool
// call deltas by choice-local index; the index table maps them back to call
// ids for the normalized event sequence.
func (b *Backend) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, error) {
	out := make(chan model.StreamEvent, 32)

	go func() {
		defer close(out)

		stream := b.client.Chat.Completions.NewStreaming(ctx, b.buildParams(req))
		agg := map[int64]*aggCall{}
		var order []int64
		finishReason := ""
		var usage model.TokenUsage

		emit := func(ev model.StreamEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- ev:
				return true
			}
		}

		for stream.Next() {
			chunk := stream.Current()
			if chunk.Usage.TotalTokens > 0 {
				usage = model.TokenUsage{
					PromptTokens:     int(chunk.Usage.PromptTokens),
					CompletionTokens: int(chunk.Usage.CompletionTokens),
					TotalTokens:      int(chunk.Usage.TotalTokens),
				}
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					if !emit(model.TextDeltaEvent{Text: choice.Delta.Content}) {
						return
					}
				}
				for _, tc := range choice.Delta.ToolCalls {
					ac, ok := agg[tc.Index]
					if !ok {
						ac = &aggCall{}
						agg[tc.Index] = ac
						order = append(order, tc.Index)
					}
					if tc.ID != "" {
						ac.id = tc.ID
					}
					if tc.Function.Name != "" {
						ac.name = tc.Function.Name
					}
					if !ac.started && ac.id != "" && ac.name != "" {
						ac.started = true
						if !emit(model.ToolCallStartEvent{ID: ac.id, Name: ac.name}) {
							return
						}
					}
					if ac.started && tc.Function.Arguments != "" {
						if !emit(model.ToolCallDeltaEvent{ID: ac.id, Fragment: tc.Function.Arguments}) {
							return
						}
					}
				}
				if choice.FinishReason != "" {
					finishReason = choice.FinishReason
				}
			}
		}

		if err := stream.Err(); err != nil {
			emit(model.ErrorEvent{Err: fmt.Errorf("openai streaming error: %w", err)})
			return
		}

		// OpenAI has no per-call end marker; all argument strings are
		// complete once the stream finishes.
		for _, idx := range order {
			if ac := agg[idx]; ac.started {
				if !emit(model.ToolCallEndEvent{ID: ac.id}) {
					return
				}
			}
		}

		emit(model.FinishEvent{Reason: mapFinishReason(finishReason), Usage: usage})
	}()

	return out, nil
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (b *Backend) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               b.opts.Model,
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
	}
	if req.Model != "" {
		params.Model = req.Model
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildMessages converts the transcript into OpenAI chat messages. Tool
// result blocks map to tool-role messages keyed by the originating call id.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Text()))
		case core.RoleAssistant:
			toolCalls, text := extractToolCalls(msg)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			messages = append(
				messages,
				openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				}},
			)
		case core.RoleTool:
			for _, r := range msg.ToolResults() {
				messages = append(messages, openai.ToolMessage(r.Content, r.CallID))
			}
		}
	}

	return messages
}

// extractToolCalls converts a message's tool call blocks to OpenAI format
// and concatenates its text blocks.
func extractToolCalls(msg core.Message) ([]openai.ChatCompletionMessageToolCallParam, string) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, tc := range msg.ToolCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return toolCalls, msg.Text()
}

// mapFinishReason translates OpenAI finish reasons to the normalized set.
func mapFinishReason(reason string) model.FinishReason {
	switch reason {
	case "tool_calls":
		return model.FinishToolCalls
	case "length":
		return model.FinishMaxTokens
	default:
		return model.FinishStop
	}
}
