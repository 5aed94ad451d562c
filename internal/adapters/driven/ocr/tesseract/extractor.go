// Package tesseract extracts page text with the tesseract CLI.
package tesseract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/spaces/internal/adapters/driven/command"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBinary   = "tesseract"
	DefaultLanguage = "eng"
)

// Config holds configuration for the tesseract extractor.
type Config struct {
	// Binary is the tesseract executable (default: tesseract).
	Binary string

	// Language is passed as -l (default: eng).
	Language string

	// Runner executes the binary (default: command.ExecRunner).
	Runner command.Runner
}

// Extractor runs `tesseract <image> stdout -l <lang>` per page.
type Extractor struct {
	binary   string
	language string
	runner   command.Runner
}

// NewExtractor creates a new tesseract extractor.
func NewExtractor(cfg Config) *Extractor {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Runner == nil {
		cfg.Runner = command.ExecRunner{}
	}
	return &Extractor{
		binary:   cfg.Binary,
		language: cfg.Language,
		runner:   cfg.Runner,
	}
}

// ExtractText returns the recognised lines of the page, in output order.
func (e *Extractor) ExtractText(ctx context.Context, page domain.PageImage) (string, error) {
	out, err := e.runner.Run(ctx, e.binary, page.Path, "stdout", "-l", e.language)
	if err != nil {
		return "", fmt.Errorf("tesseract page %d: %w", page.PageNo, err)
	}
	return joinLines(out), nil
}

// joinLines drops blank lines and the trailing form feed tesseract emits,
// then joins what remains with newlines.
func joinLines(out []byte) string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\f")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Name identifies the backend in logs.
func (e *Extractor) Name() string {
	return "tesseract"
}

// Ping checks the binary is installed.
func (e *Extractor) Ping(_ context.Context) error {
	_, err := e.runner.LookPath(e.binary)
	return err
}
