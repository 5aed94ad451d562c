package driven

import (
	"context"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

// SpaceStore persists spaces and their files.
type SpaceStore interface {
	// EnsureSpace returns the named space, creating it if absent.
	EnsureSpace(ctx context.Context, name string) (*domain.Space, error)

	// EnsureFile returns the file in space, creating it if absent.
	// An existing file has its size updated.
	EnsureFile(ctx context.Context, spaceID int64, name string, sizeMB float64) (*domain.File, error)

	// GetFile returns a file by space and name, or domain.ErrNotFound.
	GetFile(ctx context.Context, space, name string) (*domain.File, error)

	// ListSpaces returns all spaces ordered by name.
	ListSpaces(ctx context.Context) ([]domain.Space, error)

	// ListFiles returns the files in a space ordered by name, with Indexed set.
	ListFiles(ctx context.Context, space string) ([]domain.File, error)
}

// EmbeddingStore persists page embedding records.
type EmbeddingStore interface {
	// UpsertEmbeddingRecord inserts the record, or replaces the existing one
	// for the same (file, page), in a single transaction. Returns the row id.
	UpsertEmbeddingRecord(ctx context.Context, rec *domain.EmbeddingRecord) (int64, error)

	// UpdateEmbeddingRecord replaces the context and/or embedding of a record.
	// A nil argument leaves that column unchanged.
	UpdateEmbeddingRecord(ctx context.Context, id int64, text *string, embedding []float32) error

	// IndexedPages returns the set of page numbers with a record for the file.
	IndexedPages(ctx context.Context, fileID int64) (map[int]bool, error)

	// FetchCandidates returns every record in scope, ordered by id.
	FetchCandidates(ctx context.Context, scope domain.Scope) ([]domain.EmbeddingRecord, error)
}

// ConversationStore persists conversation entries.
type ConversationStore interface {
	// InsertConversationEntry inserts the entry in a single transaction and returns its id.
	InsertConversationEntry(ctx context.Context, entry *domain.ConversationEntry) (int64, error)

	// GetConversationEntry returns an entry by id, or domain.ErrNotFound.
	GetConversationEntry(ctx context.Context, id int64) (*domain.ConversationEntry, error)

	// FetchConversations returns entries ordered by timestamp. Entries for
	// clientID are returned if any exist; otherwise entries in space, then
	// entries for filename within space.
	FetchConversations(ctx context.Context, clientID, space, filename string) ([]domain.ConversationEntry, error)

	// FetchConversationCandidates returns every entry in scope with an embedding, ordered by id.
	FetchConversationCandidates(ctx context.Context, scope domain.Scope) ([]domain.ConversationEntry, error)
}

// Store is the full persistence port.
type Store interface {
	SpaceStore
	EmbeddingStore
	ConversationStore

	// Close releases the underlying connection.
	Close() error
}
