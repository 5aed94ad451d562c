package domain

import "fmt"

// Stages at which a page can fail during ingestion.
const (
	StageRasterize = "rasterize"
	StageExtract   = "extract"
	StageEmbed     = "embed"
	StageAsset     = "asset"
	StagePersist   = "persist"
)

// PageImage is a rendered page on local disk. PageNo is 1-based.
type PageImage struct {
	PageNo int
	Path   string
}

// IngestRequest asks for a document to be indexed into a space.
type IngestRequest struct {
	Space string

	// Path is the document on local disk.
	Path string

	// Force reprocesses pages that are already indexed.
	Force bool
}

// PageFailure records why a single page was not indexed.
type PageFailure struct {
	PageNo int
	Stage  string
	Err    string
}

func (f PageFailure) String() string {
	return fmt.Sprintf("page %d (%s): %s", f.PageNo, f.Stage, f.Err)
}

// IngestionSummary reports the outcome of indexing one document.
type IngestionSummary struct {
	Space  string
	Source string
	FileID int64

	// AssetFolder is where page images were written.
	AssetFolder string

	PagesTotal   int
	PagesIndexed int
	PagesSkipped int
	PagesFailed  int
	Failures     []PageFailure
}

// AddFailure records a page failure.
func (s *IngestionSummary) AddFailure(page int, stage string, err error) {
	s.PagesFailed++
	s.Failures = append(s.Failures, PageFailure{PageNo: page, Stage: stage, Err: err.Error()})
}

// Message returns a one-line human summary.
func (s *IngestionSummary) Message() string {
	return fmt.Sprintf("%s: %d pages, %d indexed, %d skipped, %d failed",
		s.Source, s.PagesTotal, s.PagesIndexed, s.PagesSkipped, s.PagesFailed)
}
