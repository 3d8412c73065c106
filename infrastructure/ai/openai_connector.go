package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"canvas-ai/application/snapshot"
	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/intent"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"
)

// OpenAIConfig configures the OpenAI-compatible connector
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIConnector talks to any OpenAI-compatible chat completions endpoint
type OpenAIConnector struct {
	client *openai.Client
	model  string
	temp   float32
	config *config.DomainConfig
	logger *zap.Logger
}

// NewOpenAIConnector creates a connector for the configured endpoint
func NewOpenAIConnector(cfg OpenAIConfig, domainCfg *config.DomainConfig, logger *zap.Logger) (*OpenAIConnector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger.Info("Initializing AI connector",
		zap.String("baseURL", clientCfg.BaseURL),
		zap.String("model", cfg.Model),
	)
	return &OpenAIConnector{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		temp:   cfg.Temperature,
		config: domainCfg,
		logger: logger,
	}, nil
}

// Name identifies the connector
func (c *OpenAIConnector) Name() string {
	return "openai"
}

// Generate asks the model for a complete graph document
func (c *OpenAIConnector) Generate(ctx context.Context, prompt string) (*aggregates.Graph, error) {
	content, err := c.complete(ctx, generateSystemPrompt, "Generate a graph for: "+prompt)
	if err != nil {
		return nil, err
	}

	var doc snapshot.Document
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, pkgerrors.NewExternalError("ai connector", fmt.Errorf("invalid graph JSON: %w", err))
	}
	graph, report, err := doc.ToGraph(c.config)
	if err != nil {
		return nil, pkgerrors.NewExternalError("ai connector", err)
	}
	if !report.Clean() {
		c.logger.Warn("Model produced invalid graph elements",
			zap.Strings("nodes", report.DroppedNodes),
			zap.Strings("edges", report.DroppedEdges),
		)
	}
	return graph, nil
}

// respondDoc is the structured answer requested from the model.
// A refinement carries either a patch or a complete updated graph.
type respondDoc struct {
	Intent string             `json:"intent"`
	Reply  string             `json:"reply"`
	Patch  *snapshot.PatchDoc `json:"patch,omitempty"`
	Graph  *snapshot.Document `json:"graph,omitempty"`
}

// Respond classifies the utterance and, for refinements, returns the patch
func (c *OpenAIConnector) Respond(ctx context.Context, utterance string, current *aggregates.Graph) (*intent.Response, error) {
	graphJSON, err := snapshot.Encode(current)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Current graph JSON:\n%s\n\nUser message: %q", graphJSON, utterance)

	content, err := c.complete(ctx, respondSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return c.parseResponse(content, current)
}

func (c *OpenAIConnector) parseResponse(content string, current *aggregates.Graph) (*intent.Response, error) {
	var doc respondDoc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, pkgerrors.NewExternalError("ai connector", fmt.Errorf("invalid response JSON: %w", err))
	}

	switch intent.Kind(strings.ToLower(strings.TrimSpace(doc.Intent))) {
	case intent.KindChat:
		return intent.Chat(doc.Reply), nil
	case intent.KindRefine:
		switch {
		case doc.Patch != nil:
			patch, err := doc.Patch.ToPatch(c.config)
			if err != nil {
				return nil, pkgerrors.NewExternalError("ai connector", err)
			}
			return intent.Refine(patch, doc.Reply), nil
		case doc.Graph != nil:
			updated, _, err := doc.Graph.ToGraph(c.config)
			if err != nil {
				return nil, pkgerrors.NewExternalError("ai connector", err)
			}
			return intent.Refine(aggregates.Diff(current, updated), doc.Reply), nil
		default:
			return nil, pkgerrors.NewExternalError("ai connector", errors.New("refine response without patch"))
		}
	default:
		return nil, pkgerrors.NewExternalError("ai connector", fmt.Errorf("unknown intent %q", doc.Intent))
	}
}

func (c *OpenAIConnector) complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.temp,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Warn("AI API call failed", zap.Error(err))
		return "", fmt.Errorf("AI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", pkgerrors.NewExternalError("ai connector", errors.New("no choices returned"))
	}

	c.logger.Debug("Received response from AI",
		zap.String("finishReason", string(resp.Choices[0].FinishReason)),
	)
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if content == "" {
		return "", pkgerrors.NewExternalError("ai connector", errors.New("empty content returned"))
	}
	return content, nil
}

// stripCodeFence removes markdown fences some models wrap around JSON
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
