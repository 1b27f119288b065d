// Package openai adapts an OpenAI-compatible chat completion endpoint (OpenAI,
// Groq, a local server) to the copilot.LLM port.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"gatepass/internal/copilot"
	"gatepass/internal/platform/config"
	dErrors "gatepass/pkg/domain-errors"
)

// Client implements copilot.LLM.
type Client struct {
	client         *goopenai.Client
	model          string
	temperature    float32
	maxTokens      int
	maxReplyTokens int
}

// New builds a client from cfg. An empty base URL uses the OpenAI default.
func New(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:         goopenai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		maxReplyTokens: cfg.MaxReplyTokens,
	}, nil
}

// FunctionCall offers req.Tools and lets the model pick one.
func (c *Client) FunctionCall(ctx context.Context, req copilot.FunctionCallRequest) (*copilot.Completion, error) {
	chatReq := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(req.Messages),
		Tools:       toTools(req.Tools),
		ToolChoice:  "auto",
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if req.DisableParallel {
		chatReq.ParallelToolCalls = false
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, upstreamError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, dErrors.New(dErrors.CodeUpstreamUnavailable, "language model returned no choices")
	}

	msg := resp.Choices[0].Message
	out := &copilot.Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, copilot.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// Chat asks for a plain text reply.
func (c *Client) Chat(ctx context.Context, messages []copilot.Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxReplyTokens,
	})
	if err != nil {
		return "", upstreamError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", dErrors.New(dErrors.CodeUpstreamUnavailable, "language model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func upstreamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "language model call timed out")
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable,
			fmt.Sprintf("language model returned status %d", apiErr.HTTPStatusCode))
	}
	return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "language model unreachable")
}

func toMessages(in []copilot.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		msg := goopenai.ChatCompletionMessage{
			Role:       toRole(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toRole(r copilot.Role) string {
	switch r {
	case copilot.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case copilot.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	case copilot.RoleTool:
		return goopenai.ChatMessageRoleTool
	default:
		return goopenai.ChatMessageRoleUser
	}
}

func toTools(in []copilot.Tool) []goopenai.Tool {
	out := make([]goopenai.Tool, 0, len(in))
	for _, t := range in {
		params := jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: make(map[string]jsonschema.Definition, len(t.Params)),
		}
		for _, p := range t.Params {
			params.Properties[p.Name] = jsonschema.Definition{
				Type:        jsonschema.String,
				Description: p.Description,
				Enum:        p.Enum,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
