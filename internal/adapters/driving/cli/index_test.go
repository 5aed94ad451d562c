package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/core/domain"
)

func resetIndexFlags() {
	indexForce, indexJSON = false, false
}

func TestIndexCmd_RequiresSpace(t *testing.T) {
	_, err := runCommand(t, "index")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIndexCmd_Paths(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()

	out, err := runCommand(t, "index", "--force", "hr", "docs/handbook.pdf", "docs/scan.png")

	require.NoError(t, err)
	assert.Equal(t, []domain.IngestRequest{
		{Space: "hr", Path: "docs/handbook.pdf", Force: true},
		{Space: "hr", Path: "docs/scan.png", Force: true},
	}, ts.ingestion.requests)
	assert.Contains(t, out, "hr/handbook.pdf")
	assert.Contains(t, out, "3 pages, 2 indexed, 0 skipped")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "page 2 (extract): tesseract exited 1")
}

func TestIndexCmd_WholeSpace(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "index", "finance")

	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, ts.ingestion.spaceCalls)
	assert.Empty(t, ts.ingestion.requests)
	assert.Contains(t, out, "finance/a.pdf")
	assert.Contains(t, out, "finance/b.png")
	assert.Contains(t, out, "ok")
}

func TestIndexCmd_ContinuesAfterFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingestion.failPath = "notes.txt"

	out, err := runCommand(t, "index", "hr", "notes.txt", "handbook.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Len(t, ts.ingestion.requests, 2)
	assert.Contains(t, out, "notes.txt: unsupported type")
	assert.Contains(t, out, "hr/handbook.pdf")
}

func TestIndexCmd_SpaceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingestion.spaceErr = errors.New("c.pdf: stat document: permission denied")

	out, err := runCommand(t, "index", "hr")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing failed")
	assert.Contains(t, out, "hr/a.pdf", "summaries of documents that did index are still shown")
}

func TestIndexCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer resetIndexFlags()

	out, err := runCommand(t, "index", "--json", "hr")

	require.NoError(t, err)
	assert.Contains(t, out, `"Source": "a.pdf"`)
	assert.Contains(t, out, `"PagesSkipped": 1`)
}

func TestIndexCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	ingestionService = nil

	_, err := runCommand(t, "index", "hr")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}
