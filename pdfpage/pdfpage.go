// CLAUDE:SUMMARY Page extraction orchestrator — open, validate page, reconstruct lines, summarize, release handle.
// Package pdfpage reconstructs reading-order text from the positioned glyph
// runs of one PDF page and reports layout-quality diagnostics.
//
// The package does not parse PDF bytes. An Opener (see package pdfsource)
// decodes the document and yields TextItems; pdfpage clusters them into lines,
// orders the lines for the page rotation, and derives flags and metrics.
//
// Usage:
//
//	ex := pdfpage.New(pdfpage.Config{Opener: pdfsource.NewOpener(pdfsource.Config{})})
//	res, err := ex.Extract(ctx, data, 1)
//	if errors.Is(err, pdfpage.ErrPageOutOfRange) { ... }
package pdfpage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Config configures an Extractor.
type Config struct {
	// Opener decodes document bytes. Required.
	Opener Opener

	// Thresholds calibrates the quality flags. Zero fields take defaults.
	Thresholds Thresholds

	// Logger for debug messages and release warnings.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	c.Thresholds = c.Thresholds.withDefaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor extracts single pages. It holds no per-call state and is safe for
// concurrent use when its Opener is.
type Extractor struct {
	opener     Opener
	thresholds Thresholds
	logger     *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{
		opener:     cfg.Opener,
		thresholds: cfg.Thresholds,
		logger:     cfg.Logger,
	}
}

// Thresholds returns the calibration in use.
func (e *Extractor) Thresholds() Thresholds {
	return e.thresholds
}

// Extract decodes data and returns the reading-order text and diagnostics of
// the 1-based page. Errors wrap ErrPageOutOfRange, ErrDecode or ErrInternal;
// other collaborator errors are returned unmodified.
func (e *Extractor) Extract(ctx context.Context, data []byte, page int) (res *Result, err error) {
	if e.opener == nil {
		return nil, fmt.Errorf("%w: no document opener configured", ErrInternal)
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	doc, err := e.opener.Open(ctx, data)
	if err != nil {
		return nil, err
	}
	defer e.release(doc)

	pageCount := doc.PageCount()
	if err := ValidatePage(page, pageCount); err != nil {
		return nil, err
	}

	p, err := doc.Page(ctx, page)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: page %d returned no content", ErrInternal, page)
	}

	res = e.assemble(p, page, pageCount)
	e.logger.Debug("pdfpage: page extracted",
		"page", page, "page_count", pageCount,
		"items", res.Metrics.TotalItems, "lines", res.Metrics.TotalLines)
	return res, nil
}

// Analyze runs reconstruction and diagnostics on an already decoded page.
// pageCount only feeds the result; it is not validated here.
func (e *Extractor) Analyze(p *Page, page, pageCount int) *Result {
	return e.assemble(p, page, pageCount)
}

func (e *Extractor) assemble(p *Page, page, pageCount int) *Result {
	lines, counters := Reconstruct(p.Items, p.Styles, p.Rotation)
	summary := Summarize(counters)
	return &Result{
		Page:      page,
		PageCount: pageCount,
		Text:      JoinLines(lines),
		Flags:     e.thresholds.Flags(counters, summary, p.Rotation),
		Metrics:   summary.Metrics(counters, len(lines)),
	}
}

// release runs Cleanup then Destroy. Failures are logged only so they never
// mask the primary outcome.
func (e *Extractor) release(doc Document) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Warn("pdfpage: document cleanup panicked", "panic", r)
			}
		}()
		if err := doc.Cleanup(); err != nil {
			e.logger.Warn("pdfpage: document cleanup failed", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdfpage: document destroy panicked", "panic", r)
		}
	}()
	if err := doc.Destroy(); err != nil {
		e.logger.Warn("pdfpage: document destroy failed", "error", err)
	}
}

// JoinLines renders lines as text: one line per row, items separated by a
// single space.
func JoinLines(lines []Line) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = joinItems(l.Items)
	}
	return strings.Join(rows, "\n")
}

func joinItems(items []LineItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
