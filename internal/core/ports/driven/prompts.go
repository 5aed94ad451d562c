package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. None of them carry format placeholders.
const (
	// PromptAnswer is the system prompt for answering from retrieved pages.
	PromptAnswer = "answer"

	// PromptAnswerCited is the system prompt for providers that are asked to
	// cite pages inline as [source p.N].
	PromptAnswerCited = "answer_cited"

	// PromptPageOCR instructs a vision model to transcribe a page image.
	PromptPageOCR = "page_ocr"
)
