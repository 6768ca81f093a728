// Package llm implements the narrative engine on the Gemini API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/port"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash-lite"

const (
	promptExecutive = "executive"
	promptDefect    = "defect"
)

// ErrEmptyResponse is returned when the model produced no candidates.
var ErrEmptyResponse = errors.New("model returned no candidates")

// contentGenerator is the subset of *genai.Models used by the engine.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini engine.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Engine implements port.NarrativeEngine.
type Engine struct {
	generator contentGenerator
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewEngine creates a Gemini API client and wraps it in an Engine. The API
// key is mandatory.
func NewEngine(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newEngine(client.Models, cfg, logger), nil
}

func newEngine(gen contentGenerator, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Engine{
		generator: gen,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// ExecutiveSummary asks for the findings and recommendations JSON of a
// pipeline. The text is returned undecoded.
func (e *Engine) ExecutiveSummary(ctx context.Context, pipelineName, statsSummary string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   executiveSchema(),
	}
	return e.generate(ctx, promptExecutive, executivePrompt(pipelineName, statsSummary), cfg)
}

// DefectAnalysis asks for a short plain-text engineering report on one
// defect.
func (e *Engine) DefectAnalysis(ctx context.Context, features model.DefectFeatures) (string, error) {
	return e.generate(ctx, promptDefect, defectPrompt(features), nil)
}

func (e *Engine) generate(ctx context.Context, prompt, text string, cfg *genai.GenerateContentConfig) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.generator.GenerateContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return "", &port.NarrativeError{Prompt: prompt, Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &port.NarrativeError{Prompt: prompt, Err: ErrEmptyResponse}
	}

	out := resp.Text()
	e.logger.DebugContext(ctx, "narrative generated",
		slog.String("prompt", prompt),
		slog.String("model", e.model),
		slog.Int("chars", len(out)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return out, nil
}

// Ready reports whether the engine has a client.
func (e *Engine) Ready() error {
	if e == nil || e.generator == nil {
		return errors.New("gemini client not initialised")
	}
	return nil
}

func executiveSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"findings": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"recommendations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"priority":    {Type: genai.TypeString},
						"title":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"title", "description"},
				},
			},
		},
		Required: []string{"findings", "recommendations"},
	}
}
