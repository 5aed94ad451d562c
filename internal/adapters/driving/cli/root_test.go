package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/core/services"
)

type fakeLoader struct {
	services      *Services
	err           error
	serviceCalls  int
	settingsCalls int
	closed        int
}

func (l *fakeLoader) Settings(string) (driving.SettingsService, error) {
	l.settingsCalls++
	if l.err != nil {
		return nil, l.err
	}
	return services.NewSettingsService(memory.NewConfigStore(), nil), nil
}

func (l *fakeLoader) Services(context.Context, string) (*Services, func(), error) {
	l.serviceCalls++
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.services, func() { l.closed++ }, nil
}

// useLoader clears the installed services and installs l.
func useLoader(t *testing.T, l *fakeLoader) {
	t.Helper()
	_, cleanup := setupTestServices()
	oldLoader, oldLoaded := loader, loaded
	ingestionService, retrievalService, chatService = nil, nil, nil
	conversationService, spaceService, settingsService = nil, nil, nil
	loader, loaded = l, false
	t.Cleanup(func() {
		shutdown()
		loader, loaded = oldLoader, oldLoaded
		cleanup()
	})
}

func TestLoadServices_BuildsOnce(t *testing.T) {
	ts, cleanup := setupTestServices()
	cleanup()
	l := &fakeLoader{services: &Services{
		Retrieval:  ts.retrieval,
		Spaces:     ts.spaces,
		SpacesRoot: "/data/spaces",
	}}
	useLoader(t, l)

	require.NoError(t, loadServices(rootCmd))
	require.NoError(t, loadServices(rootCmd))

	assert.Equal(t, 1, l.serviceCalls)
	assert.Equal(t, "/data/spaces", spacesRoot)
	assert.NotNil(t, retrievalService)
	assert.Nil(t, chatService)

	shutdown()
	assert.Equal(t, 1, l.closed)
	shutdown()
	assert.Equal(t, 1, l.closed)
}

func TestLoadServices_Error(t *testing.T) {
	l := &fakeLoader{err: errors.New("config unreadable")}
	useLoader(t, l)

	_, err := runCommand(t, "space", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config unreadable")
	assert.False(t, loaded)
}

func TestLoadSettings_SkipsServices(t *testing.T) {
	l := &fakeLoader{}
	useLoader(t, l)

	out, err := runCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Equal(t, 1, l.settingsCalls)
	assert.Equal(t, 0, l.serviceCalls)
}

func TestLoadServices_NoLoader(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	oldLoader, oldLoaded := loader, loaded
	loader, loaded = nil, false
	defer func() { loader, loaded = oldLoader, oldLoaded }()

	require.NoError(t, loadServices(rootCmd))
	assert.False(t, loaded)
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "search", "ask", "history", "space", "watch", "settings", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
