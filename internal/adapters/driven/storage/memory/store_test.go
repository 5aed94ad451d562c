package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

func seedFile(t *testing.T, s *Store, space, name string) *domain.File {
	t.Helper()
	ctx := context.Background()
	sp, err := s.EnsureSpace(ctx, space)
	require.NoError(t, err)
	f, err := s.EnsureFile(ctx, sp.ID, name, 1.5)
	require.NoError(t, err)
	return f
}

func record(f *domain.File, space string, page int, vec []float32) *domain.EmbeddingRecord {
	return &domain.EmbeddingRecord{
		FileID:    f.ID,
		PageNo:    page,
		Metadata:  domain.PageMetadata(f.Name, page, space),
		Context:   domain.PageContext(f.Name, page, space, "text"),
		Embedding: domain.VectorEmbedding(vec),
		Source:    f.Name,
	}
}

func TestStore_EnsureSpace_Idempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a, err := s.EnsureSpace(ctx, "finance")
	require.NoError(t, err)
	b, err := s.EnsureSpace(ctx, "finance")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)

	_, err = s.EnsureSpace(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_EnsureFile_TracksSpaceSize(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	sp, _ := s.EnsureSpace(ctx, "finance")

	f1, err := s.EnsureFile(ctx, sp.ID, "a.pdf", 2)
	require.NoError(t, err)
	f2, err := s.EnsureFile(ctx, sp.ID, "a.pdf", 3)
	require.NoError(t, err)
	_, err = s.EnsureFile(ctx, sp.ID, "b.pdf", 1)
	require.NoError(t, err)

	assert.Equal(t, f1.ID, f2.ID)
	spaces, _ := s.ListSpaces(ctx)
	require.Len(t, spaces, 1)
	assert.InDelta(t, 4.0, spaces[0].TotalSizeMB, 1e-9)

	_, err = s.EnsureFile(ctx, 999, "x.pdf", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertEmbeddingRecord_OnePerPage(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	f := seedFile(t, s, "finance", "a.pdf")

	id1, err := s.UpsertEmbeddingRecord(ctx, record(f, "finance", 1, []float32{1, 0}))
	require.NoError(t, err)
	id2, err := s.UpsertEmbeddingRecord(ctx, record(f, "finance", 1, []float32{0, 1}))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	recs, err := s.FetchCandidates(ctx, domain.Scope{Space: "finance"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []float32{0, 1}, recs[0].Embedding.Vector)

	_, err = s.UpsertEmbeddingRecord(ctx, record(f, "finance", 0, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_FetchCandidates_Scope(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedFile(t, s, "s1", "a.pdf")
	b := seedFile(t, s, "s1", "b.pdf")
	c := seedFile(t, s, "s2", "a.pdf")

	for _, rec := range []*domain.EmbeddingRecord{
		record(a, "s1", 1, []float32{1}),
		record(a, "s1", 2, []float32{1}),
		record(b, "s1", 1, []float32{1}),
		record(c, "s2", 1, []float32{1}),
	} {
		_, err := s.UpsertEmbeddingRecord(ctx, rec)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		scope domain.Scope
		want  int
	}{
		{"whole space", domain.Scope{Space: "s1"}, 3},
		{"single file", domain.Scope{Space: "s1", Filename: "a.pdf"}, 2},
		{"other space", domain.Scope{Space: "s2"}, 1},
		{"unknown space", domain.Scope{Space: "nope"}, 0},
		{"global", domain.Scope{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.FetchCandidates(ctx, tt.scope)
			require.NoError(t, err)
			assert.Len(t, recs, tt.want)
			for i := 1; i < len(recs); i++ {
				assert.Less(t, recs[i-1].ID, recs[i].ID)
			}
		})
	}
}

func TestStore_IndexedPagesAndListFiles(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedFile(t, s, "s1", "a.pdf")
	seedFile(t, s, "s1", "b.pdf")

	_, _ = s.UpsertEmbeddingRecord(ctx, record(a, "s1", 2, []float32{1}))

	pages, err := s.IndexedPages(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{2: true}, pages)

	files, err := s.ListFiles(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Name)
	assert.True(t, files[0].Indexed)
	assert.False(t, files[1].Indexed)

	f, err := s.GetFile(ctx, "s1", "a.pdf")
	require.NoError(t, err)
	assert.True(t, f.Indexed)

	_, err = s.GetFile(ctx, "s1", "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateEmbeddingRecord(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := seedFile(t, s, "s1", "a.pdf")
	id, _ := s.UpsertEmbeddingRecord(ctx, record(a, "s1", 1, []float32{1, 0}))

	text := "corrected"
	require.NoError(t, s.UpdateEmbeddingRecord(ctx, id, &text, nil))
	require.NoError(t, s.UpdateEmbeddingRecord(ctx, id, nil, []float32{0, 1}))

	recs, _ := s.FetchCandidates(ctx, domain.Scope{})
	require.Len(t, recs, 1)
	assert.Equal(t, "corrected", recs[0].Context)
	assert.Equal(t, []float32{0, 1}, recs[0].Embedding.Vector)

	assert.ErrorIs(t, s.UpdateEmbeddingRecord(ctx, 404, &text, nil), domain.ErrNotFound)
}

func TestStore_Conversations_LinkAndCascade(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedFile(t, s, "s1", "a.pdf")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	qID, err := s.InsertConversationEntry(ctx, &domain.ConversationEntry{
		Sender: domain.SenderUser, Text: "s1/a.pdf - q", SpaceName: "s1", FileName: "a.pdf",
		ClientID: "10.0.0.1", Timestamp: base, Embedding: domain.VectorEmbedding([]float32{1}),
	})
	require.NoError(t, err)
	aID, err := s.InsertConversationEntry(ctx, &domain.ConversationEntry{
		Sender: domain.SenderAI, Text: "s1/a.pdf - a", SpaceName: "s1", FileName: "a.pdf",
		ClientID: "10.0.0.1", RelatedID: &qID, Timestamp: base.Add(time.Second),
		Embedding: domain.VectorEmbedding([]float32{1}),
	})
	require.NoError(t, err)

	answer, err := s.GetConversationEntry(ctx, aID)
	require.NoError(t, err)
	require.NotNil(t, answer.RelatedID)
	assert.Equal(t, qID, *answer.RelatedID)

	bogus := int64(9999)
	_, err = s.InsertConversationEntry(ctx, &domain.ConversationEntry{Sender: domain.SenderAI, RelatedID: &bogus})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byClient, _ := s.FetchConversations(ctx, "10.0.0.1", "", "")
	assert.Len(t, byClient, 2)
	assert.Equal(t, qID, byClient[0].ID)

	bySpace, _ := s.FetchConversations(ctx, "unknown-client", "s1", "")
	assert.Len(t, bySpace, 2)

	none, _ := s.FetchConversations(ctx, "unknown-client", "s2", "a.pdf")
	assert.Empty(t, none)
	assert.NotNil(t, none)

	cands, _ := s.FetchConversationCandidates(ctx, domain.Scope{Space: "s1", Filename: "a.pdf"})
	assert.Len(t, cands, 2)

	_, err = s.GetConversationEntry(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
