// Package poppler renders documents to page images. PDFs are rendered one
// page at a time with pdftoppm; single images pass through as page 1.
package poppler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/spaces/internal/adapters/driven/command"
	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driven"
)

// Ensure Rasterizer implements the interface.
var _ driven.Rasterizer = (*Rasterizer)(nil)

// Default configuration values.
const (
	DefaultBinary = "pdftoppm"
	DefaultDPI    = 150
)

const mimePDF = "application/pdf"

// imageTypes are passed through without rendering.
var imageTypes = []string{"image/png", "image/jpeg", "image/tiff", "image/bmp", "image/webp"}

// Config holds configuration for the rasterizer.
type Config struct {
	// Binary is the pdftoppm executable (default: pdftoppm).
	Binary string

	// DPI is the render resolution (default: 150).
	DPI int

	// Runner executes the binary (default: command.ExecRunner).
	Runner command.Runner

	// PageCounter overrides PDF page counting. Defaults to parsing the file.
	PageCounter func(path string) (int, error)
}

// Rasterizer renders PDFs and passes images through.
type Rasterizer struct {
	binary    string
	dpi       int
	runner    command.Runner
	pageCount func(path string) (int, error)
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(cfg Config) *Rasterizer {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.DPI == 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.Runner == nil {
		cfg.Runner = command.ExecRunner{}
	}
	if cfg.PageCounter == nil {
		cfg.PageCounter = countPDFPages
	}
	return &Rasterizer{
		binary:    cfg.Binary,
		dpi:       cfg.DPI,
		runner:    cfg.Runner,
		pageCount: cfg.PageCounter,
	}
}

// Supports reports whether path is a PDF or a supported image, by content.
func (r *Rasterizer) Supports(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return mtype.Is(mimePDF) || isImage(mtype)
}

func isImage(mtype *mimetype.MIME) bool {
	return slices.ContainsFunc(imageTypes, mtype.Is)
}

// PageCount returns the number of pages; images have one.
func (r *Rasterizer) PageCount(_ context.Context, path string) (int, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, fmt.Errorf("detect type: %w", err)
	}
	switch {
	case mtype.Is(mimePDF):
		return r.pageCount(path)
	case isImage(mtype):
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mtype.String())
	}
}

// Pages renders pages into outDir in page order. A failure to read the
// document yields a single error for page 0 and stops.
func (r *Rasterizer) Pages(ctx context.Context, path, outDir string) iter.Seq2[domain.PageImage, error] {
	return func(yield func(domain.PageImage, error) bool) {
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			yield(domain.PageImage{}, fmt.Errorf("detect type: %w", err))
			return
		}

		if isImage(mtype) {
			dst := filepath.Join(outDir, "page_1"+mtype.Extension())
			yield(domain.PageImage{PageNo: 1, Path: dst}, copyFile(path, dst))
			return
		}
		if !mtype.Is(mimePDF) {
			yield(domain.PageImage{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mtype.String()))
			return
		}

		count, err := r.pageCount(path)
		if err != nil {
			yield(domain.PageImage{}, err)
			return
		}

		for n := 1; n <= count; n++ {
			if ctx.Err() != nil {
				return
			}
			page, err := r.renderPage(ctx, path, outDir, n)
			if !yield(page, err) {
				return
			}
		}
	}
}

// renderPage writes outDir/page_N.png with pdftoppm -singlefile.
func (r *Rasterizer) renderPage(ctx context.Context, path, outDir string, n int) (domain.PageImage, error) {
	prefix := filepath.Join(outDir, "page_"+strconv.Itoa(n))
	page := domain.PageImage{PageNo: n, Path: prefix + ".png"}

	num := strconv.Itoa(n)
	_, err := r.runner.Run(ctx, r.binary,
		"-png", "-r", strconv.Itoa(r.dpi), "-f", num, "-l", num, "-singlefile", path, prefix)
	if err != nil {
		return page, fmt.Errorf("render page %d: %w", n, err)
	}
	if _, err := os.Stat(page.Path); err != nil {
		return page, fmt.Errorf("render page %d: %w", n, err)
	}
	return page, nil
}

// countPDFPages parses the PDF trailer and page tree.
func countPDFPages(path string) (n int, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	defer f.Close()

	n = reader.NumPage()
	if n == 0 {
		return 0, errors.New("read pdf: document has no pages")
	}
	return n, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy image: %w", err)
	}
	return out.Close()
}
