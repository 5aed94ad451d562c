package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Space is a named collection of documents. Spaces are created on first
// reference and are never deleted implicitly.
type Space struct {
	ID          int64
	Name        string
	TotalSizeMB float64
	CreatedAt   time.Time
}

// File is a document belonging to exactly one space.
// The pair (SpaceID, Name) is unique.
type File struct {
	ID        int64
	SpaceID   int64
	Name      string
	SizeMB    float64
	CreatedAt time.Time

	// Indexed is true when at least one embedding record exists for the file.
	// Populated by ListFiles only.
	Indexed bool
}

// Stem returns the file name without directory or extension.
// It names the folder page images are written to.
func (f File) Stem() string {
	return DocumentStem(f.Name)
}

// DocumentStem returns the base name of path without its extension.
func DocumentStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Scope restricts a candidate set. An empty Space matches every space and an
// empty Filename matches every file in the selected space(s).
type Scope struct {
	Space    string
	Filename string
}

// IsGlobal returns true when the scope does not filter anything.
func (s Scope) IsGlobal() bool {
	return s.Space == "" && s.Filename == ""
}
