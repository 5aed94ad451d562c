// Package ollama extracts page text with an Ollama vision model.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llava"
	DefaultTimeout = 180 * time.Second
)

const fallbackPrompt = "Transcribe all text on this page image exactly as written, one line per line of text. " +
	"Output only the transcription."

// Config holds configuration for the vision extractor.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is a vision-capable model (default: llava).
	Model string

	// Timeout is the HTTP client timeout (default: 180s).
	Timeout time.Duration

	// Prompts supplies the transcription prompt. Optional.
	Prompts driven.PromptStore
}

// Extractor sends each page image to a vision model with a transcription prompt.
type Extractor struct {
	client  *api.Client
	model   string
	prompts driven.PromptStore
}

// NewExtractor creates a new vision extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL: %w", err)
	}

	return &Extractor{
		client:  api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:   cfg.Model,
		prompts: cfg.Prompts,
	}, nil
}

// ExtractText transcribes the page image. Blank lines are dropped.
func (e *Extractor) ExtractText(ctx context.Context, page domain.PageImage) (string, error) {
	img, err := os.ReadFile(page.Path)
	if err != nil {
		return "", fmt.Errorf("read page %d image: %w", page.PageNo, err)
	}

	stream := false
	var b strings.Builder
	err = e.client.Generate(ctx, &api.GenerateRequest{
		Model:  e.model,
		Prompt: e.prompt(),
		Images: []api.ImageData{img},
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		b.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama vision page %d: %w", page.PageNo, err)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimRight(line, " \t\r"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Extractor) prompt() string {
	if e.prompts != nil {
		if p, err := e.prompts.Load(driven.PromptPageOCR); err == nil && p != "" {
			return p
		}
	}
	return fallbackPrompt
}

// Name identifies the backend in logs.
func (e *Extractor) Name() string {
	return "ollama:" + e.model
}

// Ping checks the server responds to a heartbeat.
func (e *Extractor) Ping(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	return nil
}
