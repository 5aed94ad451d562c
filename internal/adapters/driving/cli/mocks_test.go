package cli

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

type fakeRetrieval struct {
	results       []domain.ScoredRecord
	conversations []domain.ScoredConversation
	err           error
	lastScope     domain.Scope
}

func (f *fakeRetrieval) Search(context.Context, []float32, domain.Scope) ([]domain.ScoredRecord, error) {
	return f.results, f.err
}

func (f *fakeRetrieval) SearchText(_ context.Context, _ string, scope domain.Scope) ([]domain.ScoredRecord, error) {
	f.lastScope = scope
	return f.results, f.err
}

func (f *fakeRetrieval) SearchConversations(
	_ context.Context, _ string, scope domain.Scope,
) ([]domain.ScoredConversation, error) {
	f.lastScope = scope
	return f.conversations, f.err
}

type fakeIngestion struct {
	requests   []domain.IngestRequest
	spaceCalls []string
	failPath   string
	spaceErr   error
}

func (f *fakeIngestion) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestionSummary, error) {
	f.requests = append(f.requests, req)
	if req.Path == f.failPath {
		return nil, domain.ErrUnsupportedType
	}
	return &domain.IngestionSummary{
		Space:        req.Space,
		Source:       filepath.Base(req.Path),
		PagesTotal:   3,
		PagesIndexed: 2,
		PagesFailed:  1,
		Failures:     []domain.PageFailure{{PageNo: 2, Stage: domain.StageExtract, Err: "tesseract exited 1"}},
	}, nil
}

func (f *fakeIngestion) IngestSpace(_ context.Context, space string, _ bool) ([]*domain.IngestionSummary, error) {
	f.spaceCalls = append(f.spaceCalls, space)
	return []*domain.IngestionSummary{
		{Space: space, Source: "a.pdf", PagesTotal: 1, PagesIndexed: 1},
		{Space: space, Source: "b.png", PagesTotal: 1, PagesSkipped: 1},
	}, f.spaceErr
}

type fakeChat struct {
	resp    *domain.ChatResponse
	err     error
	lastReq domain.ChatRequest
}

func (f *fakeChat) Ask(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

type fakeConversations struct {
	entries []domain.ConversationEntry
	args    [3]string
}

func (f *fakeConversations) RecordExchange(context.Context, domain.Exchange) (int64, int64, error) {
	return 0, 0, errors.New("not implemented")
}

func (f *fakeConversations) Get(context.Context, int64) (*domain.ConversationEntry, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeConversations) History(_ context.Context, clientID, space, filename string) ([]domain.ConversationEntry, error) {
	f.args = [3]string{clientID, space, filename}
	return f.entries, nil
}

type fakeSpaces struct {
	spaces []domain.Space
	files  []domain.File
}

func (f *fakeSpaces) List(context.Context) ([]domain.Space, error) {
	return f.spaces, nil
}

func (f *fakeSpaces) Files(_ context.Context, space string) ([]domain.File, error) {
	if space == "missing" {
		return nil, domain.ErrNotFound
	}
	return f.files, nil
}

type testServices struct {
	retrieval     *fakeRetrieval
	ingestion     *fakeIngestion
	chat          *fakeChat
	conversations *fakeConversations
	spaces        *fakeSpaces
}

// setupTestServices installs fakes with one result of each kind and
// returns a func restoring the previous services.
func setupTestServices() (*testServices, func()) {
	oldIngestion, oldRetrieval, oldChat := ingestionService, retrievalService, chatService
	oldConversations, oldSpaces, oldSettings := conversationService, spaceService, settingsService
	oldRoot := spacesRoot

	questionID := int64(1)
	ts := &testServices{
		retrieval: &fakeRetrieval{
			results: []domain.ScoredRecord{{
				Record: domain.EmbeddingRecord{
					ID:       10,
					PageNo:   3,
					Source:   "handbook.pdf",
					Metadata: domain.PageMetadata("handbook.pdf", 3, "hr"),
					Context:  domain.PageContext("handbook.pdf", 3, "hr", "Annual leave is 25 days."),
				},
				Similarity: 0.8,
				Score:      0.84,
			}},
			conversations: []domain.ScoredConversation{{
				Entry:      domain.ConversationEntry{ID: 2, Sender: domain.SenderAI, Text: "25 days.", SpaceName: "hr"},
				Similarity: 0.7,
				Score:      0.7,
			}},
		},
		ingestion: &fakeIngestion{},
		chat: &fakeChat{resp: &domain.ChatResponse{
			Answer:     "Annual leave is 25 days [handbook.pdf p.3].",
			Citations:  []domain.Citation{{Source: "handbook.pdf", Space: "hr", PageNo: 3, ImagePath: "space/hr/handbook/page_3.png"}},
			QuestionID: 1,
			AnswerID:   2,
			Recorded:   true,
		}},
		conversations: &fakeConversations{entries: []domain.ConversationEntry{
			{ID: 1, Sender: domain.SenderUser, Text: "How much leave?", SpaceName: "hr", ClientID: "c-1"},
			{ID: 2, Sender: domain.SenderAI, Text: "25 days.", SpaceName: "hr", RelatedID: &questionID, ClientID: "c-1"},
		}},
		spaces: &fakeSpaces{
			spaces: []domain.Space{{ID: 1, Name: "hr", TotalSizeMB: 1.5}},
			files:  []domain.File{{Name: "handbook.pdf", SizeMB: 1.5, Indexed: true}, {Name: "draft.pdf"}},
		},
	}

	ingestionService = ts.ingestion
	retrievalService = ts.retrieval
	chatService = ts.chat
	conversationService = ts.conversations
	spaceService = ts.spaces

	return ts, func() {
		ingestionService, retrievalService, chatService = oldIngestion, oldRetrieval, oldChat
		conversationService, spaceService, settingsService = oldConversations, oldSpaces, oldSettings
		spacesRoot = oldRoot
	}
}
