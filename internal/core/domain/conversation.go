package domain

import (
	"fmt"
	"time"
)

// Sender identifies who authored a conversation entry.
type Sender string

// Known senders.
const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// IsValid returns true if the sender is recognised.
func (s Sender) IsValid() bool {
	return s == SenderUser || s == SenderAI
}

// ConversationEntry is one turn of a question/answer exchange.
// An ai entry's RelatedID points at the user entry it answers.
type ConversationEntry struct {
	ID        int64
	Sender    Sender
	Text      string
	Timestamp time.Time
	SpaceID   int64
	SpaceName string

	// FileID is nil when the exchange was scoped to a whole space.
	FileID   *int64
	FileName string

	RelatedID *int64
	ClientID  string
	Embedding StoredEmbedding
}

// Exchange is a question and its answer, ready to be recorded.
type Exchange struct {
	Space    string
	Document string
	Question string
	Answer   string
	ClientID string
}

// Qualify prefixes text with the exchange's scope, producing
// "space/document - text", or "space - text" when no document is set.
func (x Exchange) Qualify(text string) string {
	if x.Document == "" {
		return fmt.Sprintf("%s - %s", x.Space, text)
	}
	return fmt.Sprintf("%s/%s - %s", x.Space, x.Document, text)
}

// ScoredConversation is a conversation entry ranked against a query.
type ScoredConversation struct {
	Entry      ConversationEntry
	Similarity float64
	Score      float64
}

// ChatRequest asks a question against a scope.
type ChatRequest struct {
	Space    string
	Filename string
	Question string
	ClientID string
}

// Scope returns the retrieval scope of the request.
func (r ChatRequest) Scope() Scope {
	return Scope{Space: r.Space, Filename: r.Filename}
}

// ChatResponse is the answer to a ChatRequest.
type ChatResponse struct {
	Answer     string
	Citations  []Citation
	QuestionID int64
	AnswerID   int64

	// Recorded is false when the exchange could not be persisted.
	Recorded bool
}
