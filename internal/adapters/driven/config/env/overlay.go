// Package env layers environment variables over another config store.
//
// A key such as "embedding.api_key" is overridden by SPACES_EMBEDDING_API_KEY.
// Variables are read from the process environment after loading an optional
// .env file with godotenv.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/spaces/internal/core/ports/driven"
	"github.com/custodia-labs/spaces/internal/logger"
)

// Prefix is prepended to every derived variable name.
const Prefix = "SPACES_"

// aliases map conventional variable names onto config keys.
// The SPACES_ form wins when both are set.
var aliases = map[string]string{
	"store.dsn": "DATABASE_URL",
}

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Overlay is a driven.ConfigStore whose reads prefer environment variables.
// Writes go to the wrapped store only.
type Overlay struct {
	base   driven.ConfigStore
	lookup func(string) (string, bool)
}

// NewOverlay wraps base with environment lookups.
func NewOverlay(base driven.ConfigStore) *Overlay {
	return &Overlay{base: base, lookup: os.LookupEnv}
}

// LoadDotEnv loads the given files (default ".env") into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("Loaded environment from %s", p)
	}
	return nil
}

// VarName returns the environment variable that overrides key.
func VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return Prefix + strings.ToUpper(r.Replace(key))
}

func (o *Overlay) env(key string) (string, bool) {
	if v, ok := o.lookup(VarName(key)); ok {
		return v, true
	}
	if alias, ok := aliases[key]; ok {
		return o.lookup(alias)
	}
	return "", false
}

// Get returns the environment value as a string when set, else the base value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return v, true
	}
	return o.base.Get(key)
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer configuration value. An unparsable
// environment value falls through to the base store.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		logger.Warn("Ignoring %s=%q: not an integer", VarName(key), v)
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a float configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	if v, ok := o.env(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		logger.Warn("Ignoring %s=%q: not a number", VarName(key), v)
	}
	return o.base.GetFloat(key)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		logger.Warn("Ignoring %s=%q: not a boolean", VarName(key), v)
	}
	return o.base.GetBool(key)
}

// Set writes to the base store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the base store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the base store.
func (o *Overlay) Load() error {
	return o.base.Load()
}

// Path returns the base store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}
