package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

type recordingIngestion struct {
	mu       sync.Mutex
	requests []domain.IngestRequest
	done     chan domain.IngestRequest
}

func newRecordingIngestion() *recordingIngestion {
	return &recordingIngestion{done: make(chan domain.IngestRequest, 16)}
}

func (r *recordingIngestion) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestionSummary, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	r.done <- req
	return &domain.IngestionSummary{Space: req.Space, Source: filepath.Base(req.Path), PagesIndexed: 1}, nil
}

func (r *recordingIngestion) IngestSpace(context.Context, string, bool) ([]*domain.IngestionSummary, error) {
	return nil, nil
}

func (r *recordingIngestion) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func setupRoot(t *testing.T, spaces ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, s := range spaces {
		require.NoError(t, os.MkdirAll(filepath.Join(root, s), 0o755))
	}
	return root
}

func TestHandleEvent(t *testing.T) {
	root := setupRoot(t, "hr", "finance", ".trash")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hr", "Handbook"), 0o755))

	write := func(rel string) string {
		path := filepath.Join(root, rel)
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o600))
		return path
	}
	doc := write("hr/Handbook.pdf")
	page := write("hr/Handbook/page_1.png")
	hiddenFile := write("hr/.Handbook.pdf.part")
	hiddenSpace := write(".trash/old.pdf")
	finance := write("finance/budget.pdf")
	topLevel := write("stray.pdf")

	w := New(nil, Config{Root: root, Spaces: []string{"hr", ".trash"}, Force: true})

	tests := []struct {
		name    string
		event   fsnotify.Event
		want    bool
		wantReq domain.IngestRequest
	}{
		{"create in space", fsnotify.Event{Name: doc, Op: fsnotify.Create}, true,
			domain.IngestRequest{Space: "hr", Path: doc, Force: true}},
		{"write in space", fsnotify.Event{Name: doc, Op: fsnotify.Write}, true,
			domain.IngestRequest{Space: "hr", Path: doc, Force: true}},
		{"chmod ignored", fsnotify.Event{Name: doc, Op: fsnotify.Chmod}, false, domain.IngestRequest{}},
		{"remove ignored", fsnotify.Event{Name: doc, Op: fsnotify.Remove}, false, domain.IngestRequest{}},
		{"page image ignored", fsnotify.Event{Name: page, Op: fsnotify.Create}, false, domain.IngestRequest{}},
		{"page folder ignored", fsnotify.Event{Name: filepath.Join(root, "hr", "Handbook"), Op: fsnotify.Create},
			false, domain.IngestRequest{}},
		{"hidden file ignored", fsnotify.Event{Name: hiddenFile, Op: fsnotify.Create}, false, domain.IngestRequest{}},
		{"hidden space ignored", fsnotify.Event{Name: hiddenSpace, Op: fsnotify.Create}, false, domain.IngestRequest{}},
		{"space out of scope", fsnotify.Event{Name: finance, Op: fsnotify.Create}, false, domain.IngestRequest{}},
		{"file at root ignored", fsnotify.Event{Name: topLevel, Op: fsnotify.Create}, false, domain.IngestRequest{}},
		{"vanished file ignored", fsnotify.Event{Name: filepath.Join(root, "hr", "gone.pdf"), Op: fsnotify.Create},
			false, domain.IngestRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := w.handleEvent(tt.event)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantReq, req)
		})
	}
}

func TestNewSpace(t *testing.T) {
	root := setupRoot(t, "hr", "legal", ".cache")
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.pdf"), nil, 0o600))

	all := New(nil, Config{Root: root})
	scoped := New(nil, Config{Root: root, Spaces: []string{"hr"}})

	space, ok := all.newSpace(fsnotify.Event{Name: filepath.Join(root, "legal"), Op: fsnotify.Create})
	assert.True(t, ok)
	assert.Equal(t, "legal", space)

	_, ok = scoped.newSpace(fsnotify.Event{Name: filepath.Join(root, "legal"), Op: fsnotify.Create})
	assert.False(t, ok)

	_, ok = all.newSpace(fsnotify.Event{Name: filepath.Join(root, ".cache"), Op: fsnotify.Create})
	assert.False(t, ok)

	_, ok = all.newSpace(fsnotify.Event{Name: filepath.Join(root, "notes.pdf"), Op: fsnotify.Create})
	assert.False(t, ok)

	_, ok = all.newSpace(fsnotify.Event{Name: filepath.Join(root, "hr"), Op: fsnotify.Write})
	assert.False(t, ok)
}

func TestRun_IndexesNewFile(t *testing.T) {
	root := setupRoot(t, "hr")
	ingestion := newRecordingIngestion()

	var mu sync.Mutex
	var results []*domain.IngestionSummary
	w := New(ingestion, Config{
		Root:     root,
		Debounce: 20 * time.Millisecond,
		OnIndexed: func(_ domain.IngestRequest, summary *domain.IngestionSummary, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.NoError(t, err)
			results = append(results, summary)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	doc := filepath.Join(root, "hr", "Handbook.pdf")
	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(doc, []byte("%PDF-1.4\n"), 0o600) //nolint:errcheck
	}()

	select {
	case req := <-ingestion.done:
		assert.Equal(t, "hr", req.Space)
		assert.Equal(t, "Handbook.pdf", filepath.Base(req.Path))
		assert.False(t, req.Force)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for document to be indexed")
	}

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	assert.Equal(t, 1, ingestion.count(), "create and write events must collapse into one ingest")
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.Equal(t, "Handbook.pdf", results[0].Source)
}

func TestRun_RequiresIngestion(t *testing.T) {
	err := New(nil, Config{Root: t.TempDir()}).Run(context.Background())
	assert.ErrorContains(t, err, "ingestion service is required")
}

func TestRun_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "space")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, New(newRecordingIngestion(), Config{Root: root}).Run(ctx))
	assert.DirExists(t, root)
}
