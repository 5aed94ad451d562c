package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

func TestExtractSpace(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid files URI", uri: "spaces://spaces/hr/files", expected: "hr"},
		{name: "escaped name", uri: "spaces://spaces/board%20minutes/files", expected: "board minutes"},
		{name: "invalid prefix", uri: "file://spaces/hr/files", expected: ""},
		{name: "missing files suffix", uri: "spaces://spaces/hr", expected: ""},
		{name: "nested path", uri: "spaces://spaces/a/b/files", expected: ""},
		{name: "empty name", uri: "spaces://spaces//files", expected: ""},
		{name: "bad escape", uri: "spaces://spaces/%zz/files", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSpace(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSpacesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil space service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		result, err := server.handleSpacesResource(ctx, makeReadResourceRequest("spaces://spaces"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns spaces", func(t *testing.T) {
		spaces := &mockSpaceService{spaces: []domain.Space{{ID: 1, Name: "finance", TotalSizeMB: 2.5}}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Spaces: spaces})
		require.NoError(t, err)

		result, err := server.handleSpacesResource(ctx, makeReadResourceRequest("spaces://spaces"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.JSONEq(t, `[{"name":"finance","total_size_mb":2.5}]`, result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		spaces := &mockSpaceService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Spaces: spaces})
		require.NoError(t, err)

		_, err = server.handleSpacesResource(ctx, makeReadResourceRequest("spaces://spaces"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing spaces")
	})
}

func TestServer_handleFilesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil space service is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		_, err = server.handleFilesResource(ctx, makeReadResourceRequest("spaces://spaces/hr/files"))
		assert.Error(t, err)
	})

	t.Run("returns files", func(t *testing.T) {
		spaces := &mockSpaceService{files: []domain.File{
			{Name: "handbook.pdf", SizeMB: 1.25, Indexed: true},
			{Name: "draft.pdf", SizeMB: 0.5},
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Spaces: spaces})
		require.NoError(t, err)

		result, err := server.handleFilesResource(ctx, makeReadResourceRequest("spaces://spaces/hr/files"))

		require.NoError(t, err)
		assert.Equal(t, "hr", spaces.lastSpace)
		assert.JSONEq(t, `[
			{"name":"handbook.pdf","size_mb":1.25,"indexed":true},
			{"name":"draft.pdf","size_mb":0.5,"indexed":false}
		]`, result.Contents[0].Text)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Spaces: &mockSpaceService{}})
		require.NoError(t, err)

		_, err = server.handleFilesResource(ctx, makeReadResourceRequest("spaces://spaces/hr"))
		assert.Error(t, err)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		spaces := &mockSpaceService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, Spaces: spaces})
		require.NoError(t, err)

		_, err = server.handleFilesResource(ctx, makeReadResourceRequest("spaces://spaces/hr/files"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
