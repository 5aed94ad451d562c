// Package llm holds what the answer providers share: the passage envelope
// sent as the user turn and the system prompt lookup.
package llm

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// DefaultMaxTokens caps the length of a generated answer.
const DefaultMaxTokens = 1024

// Fallback prompts used when no PromptStore is configured or a load fails.
const (
	fallbackAnswer = `You answer questions about a collection of scanned documents.
Use only the numbered passages provided. If they do not contain the answer, say so plainly.`

	fallbackAnswerCited = fallbackAnswer + `
After every claim, cite the page it came from inline as [file p.N].`
)

// Envelope renders the user turn: numbered passages in relevance order,
// followed by the question.
func Envelope(question string, passages []domain.ScoredRecord) string {
	var b strings.Builder
	b.WriteString("Passages:\n")
	if len(passages) == 0 {
		b.WriteString("(none)\n")
	}
	for i, p := range passages {
		fmt.Fprintf(&b, "%d. [%s p.%d] %s\n", i+1, p.Record.Source, p.Record.PageNo, p.Record.Context)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

// SystemPrompt loads name from store, falling back to a built-in prompt.
func SystemPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		if prompt, err := store.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	if name == driven.PromptAnswerCited {
		return fallbackAnswerCited
	}
	return fallbackAnswer
}
