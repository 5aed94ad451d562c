package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

type pageKey struct {
	fileID int64
	pageNo int
}

type fileKey struct {
	spaceID int64
	name    string
}

// Store is an in-memory implementation of driven.Store.
// Records are copied on the way in and out so callers never share state.
type Store struct {
	mu sync.RWMutex

	nextID        int64
	spaces        map[string]*domain.Space
	files         map[fileKey]*domain.File
	records       map[int64]*domain.EmbeddingRecord
	recordsByPage map[pageKey]int64
	conversations map[int64]*domain.ConversationEntry

	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		spaces:        make(map[string]*domain.Space),
		files:         make(map[fileKey]*domain.File),
		records:       make(map[int64]*domain.EmbeddingRecord),
		recordsByPage: make(map[pageKey]int64),
		conversations: make(map[int64]*domain.ConversationEntry),
		now:           time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// EnsureSpace returns the named space, creating it if absent.
func (s *Store) EnsureSpace(_ context.Context, name string) (*domain.Space, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[name]
	if !ok {
		sp = &domain.Space{ID: s.id(), Name: name, CreatedAt: s.now()}
		s.spaces[name] = sp
	}
	out := *sp
	return &out, nil
}

// EnsureFile returns the file in space, creating it if absent.
func (s *Store) EnsureFile(_ context.Context, spaceID int64, name string, sizeMB float64) (*domain.File, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	space := s.spaceByIDLocked(spaceID)
	if space == nil {
		return nil, domain.ErrNotFound
	}

	key := fileKey{spaceID: spaceID, name: name}
	f, ok := s.files[key]
	if !ok {
		f = &domain.File{ID: s.id(), SpaceID: spaceID, Name: name, CreatedAt: s.now()}
		s.files[key] = f
	} else {
		space.TotalSizeMB -= f.SizeMB
	}
	f.SizeMB = sizeMB
	space.TotalSizeMB += sizeMB

	out := *f
	return &out, nil
}

// GetFile returns a file by space and name.
func (s *Store) GetFile(_ context.Context, space, name string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[space]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f, ok := s.files[fileKey{spaceID: sp.ID, name: name}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *f
	out.Indexed = s.fileIndexedLocked(f.ID)
	return &out, nil
}

// ListSpaces returns all spaces ordered by name.
func (s *Store) ListSpaces(_ context.Context) ([]domain.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Space, 0, len(s.spaces))
	for _, sp := range s.spaces {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListFiles returns the files in a space ordered by name.
func (s *Store) ListFiles(_ context.Context, space string) ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.spaces[space]
	if !ok {
		return []domain.File{}, nil
	}
	out := make([]domain.File, 0)
	for key, f := range s.files {
		if key.spaceID != sp.ID {
			continue
		}
		file := *f
		file.Indexed = s.fileIndexedLocked(f.ID)
		out = append(out, file)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpsertEmbeddingRecord inserts or replaces the record for (file, page).
func (s *Store) UpsertEmbeddingRecord(_ context.Context, rec *domain.EmbeddingRecord) (int64, error) {
	if rec == nil || rec.PageNo < 1 {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey{fileID: rec.FileID, pageNo: rec.PageNo}
	stored := copyRecord(rec)
	if id, ok := s.recordsByPage[key]; ok {
		stored.ID = id
		stored.CreatedAt = s.records[id].CreatedAt
	} else {
		stored.ID = s.id()
		stored.CreatedAt = s.now()
		s.recordsByPage[key] = stored.ID
	}
	s.records[stored.ID] = stored
	return stored.ID, nil
}

// UpdateEmbeddingRecord replaces the context and/or embedding of a record.
func (s *Store) UpdateEmbeddingRecord(_ context.Context, id int64, text *string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	if text != nil {
		rec.Context = *text
	}
	if embedding != nil {
		rec.Embedding = domain.VectorEmbedding(slices.Clone(embedding))
	}
	return nil
}

// IndexedPages returns the page numbers with a record for the file.
func (s *Store) IndexedPages(_ context.Context, fileID int64) (map[int]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make(map[int]bool)
	for key := range s.recordsByPage {
		if key.fileID == fileID {
			pages[key.pageNo] = true
		}
	}
	return pages, nil
}

// FetchCandidates returns every record in scope, ordered by id.
func (s *Store) FetchCandidates(_ context.Context, scope domain.Scope) ([]domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EmbeddingRecord, 0)
	for _, rec := range s.records {
		if scope.Space != "" && rec.Space() != scope.Space {
			continue
		}
		if scope.Filename != "" && rec.Source != scope.Filename {
			continue
		}
		out = append(out, *copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// InsertConversationEntry stores a new conversation entry.
func (s *Store) InsertConversationEntry(_ context.Context, entry *domain.ConversationEntry) (int64, error) {
	if entry == nil || !entry.Sender.IsValid() {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.RelatedID != nil {
		if _, ok := s.conversations[*entry.RelatedID]; !ok {
			return 0, domain.ErrNotFound
		}
	}

	stored := *entry
	stored.ID = s.id()
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now()
	}
	if stored.SpaceName != "" {
		if sp, ok := s.spaces[stored.SpaceName]; ok {
			stored.SpaceID = sp.ID
		}
	}
	s.conversations[stored.ID] = &stored
	return stored.ID, nil
}

// GetConversationEntry returns an entry by id.
func (s *Store) GetConversationEntry(_ context.Context, id int64) (*domain.ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *e
	return &out, nil
}

// FetchConversations returns entries for clientID, falling back to space
// and then to filename within space.
func (s *Store) FetchConversations(
	_ context.Context, clientID, space, filename string,
) ([]domain.ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ConversationEntry
	if clientID != "" {
		out = s.filterConversationsLocked(func(e *domain.ConversationEntry) bool {
			return e.ClientID == clientID
		})
	}
	if len(out) == 0 && space != "" {
		out = s.filterConversationsLocked(func(e *domain.ConversationEntry) bool {
			return e.SpaceName == space
		})
	}
	if len(out) == 0 && space != "" && filename != "" {
		out = s.filterConversationsLocked(func(e *domain.ConversationEntry) bool {
			return e.SpaceName == space && e.FileName == filename
		})
	}
	if out == nil {
		out = []domain.ConversationEntry{}
	}
	return out, nil
}

// FetchConversationCandidates returns every embedded entry in scope, ordered by id.
func (s *Store) FetchConversationCandidates(
	_ context.Context, scope domain.Scope,
) ([]domain.ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.filterConversationsLocked(func(e *domain.ConversationEntry) bool {
		if e.Embedding.IsEmpty() {
			return false
		}
		if scope.Space != "" && e.SpaceName != scope.Space {
			return false
		}
		return scope.Filename == "" || e.FileName == scope.Filename
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) filterConversationsLocked(keep func(*domain.ConversationEntry) bool) []domain.ConversationEntry {
	var out []domain.ConversationEntry
	for _, e := range s.conversations {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *Store) spaceByIDLocked(id int64) *domain.Space {
	for _, sp := range s.spaces {
		if sp.ID == id {
			return sp
		}
	}
	return nil
}

func (s *Store) fileIndexedLocked(fileID int64) bool {
	for key := range s.recordsByPage {
		if key.fileID == fileID {
			return true
		}
	}
	return false
}

func copyRecord(rec *domain.EmbeddingRecord) *domain.EmbeddingRecord {
	out := *rec
	if rec.Metadata != nil {
		out.Metadata = make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Embedding.Vector = slices.Clone(rec.Embedding.Vector)
	out.Embedding.Bytes = slices.Clone(rec.Embedding.Bytes)
	return &out
}
