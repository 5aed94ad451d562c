package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/adapters/driving/watcher"
)

func TestWatchCmd_Flags(t *testing.T) {
	force := watchCmd.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "false", force.DefValue)

	debounce := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounce)
	assert.Equal(t, watcher.DefaultDebounce.String(), debounce.DefValue)
}

func TestWatchCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	ingestionService = nil

	_, err := runCommand(t, "watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}
