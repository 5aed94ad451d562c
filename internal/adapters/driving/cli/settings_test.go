package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spaces/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/services"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Password", "postgres://spaces:secret@db:5432/spaces", "postgres://spaces:redacted@db:5432/spaces"},
		{"No password", "postgres://spaces@db/spaces", "postgres://spaces@db/spaces"},
		{"File path", "/var/lib/spaces/spaces.db", "/var/lib/spaces/spaces.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskDSN(tt.input))
		})
	}
}

func useMemorySettings(t *testing.T) *services.SettingsService {
	t.Helper()
	_, cleanup := setupTestServices()
	t.Cleanup(cleanup)
	svc := services.NewSettingsService(memory.NewConfigStore(), nil)
	settingsService = svc
	return svc
}

func TestSettingsShowCmd(t *testing.T) {
	useMemorySettings(t)

	out, err := runCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Store]")
	assert.Contains(t, out, "Driver: sqlite")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Language: eng")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_Invalid(t *testing.T) {
	svc := useMemorySettings(t)
	settings, err := svc.Get()
	require.NoError(t, err)
	settings.Store.Driver = domain.StoreDriverPostgres
	require.NoError(t, svc.Save(settings))

	out, err := runCommand(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Driver: postgres")
	assert.Contains(t, out, "Warning: store driver postgres requires")
}

func TestSettingsEmbeddingCmd(t *testing.T) {
	svc := useMemorySettings(t)
	rootCmd.SetIn(strings.NewReader("1\nmxbai-embed-large\n"))
	defer rootCmd.SetIn(nil)

	out, err := runCommand(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
}
