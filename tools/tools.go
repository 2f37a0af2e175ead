// CLAUDE:SUMMARY Tool service — read_file, read_pdf (reading-order page text + diagnostics), extraction_history.
// CLAUDE:DEPENDS workspace, pdfpage, extractlog
// CLAUDE:EXPORTS Service, Config, New, FileResult, PDFResult
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/aitools/extractlog"
	"github.com/hazyhaar/aitools/pdfpage"
	"github.com/hazyhaar/aitools/workspace"
)

// ErrHistoryDisabled is returned by History when no audit store is configured.
var ErrHistoryDisabled = errors.New("tools: extraction history is not enabled")

// Config configures a Service.
type Config struct {
	Workspace *workspace.Workspace // required
	Extractor *pdfpage.Extractor   // required
	Audit     *extractlog.Store    // optional; enables extraction_history

	// Transport names the transport the tools are served on ("stdio", "http").
	Transport string

	Logger *slog.Logger
}

// Service implements the workspace tools.
type Service struct {
	ws        *workspace.Workspace
	extractor *pdfpage.Extractor
	audit     *extractlog.Store
	transport string
	logger    *slog.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Transport == "" {
		cfg.Transport = "stdio"
	}
	return &Service{
		ws:        cfg.Workspace,
		extractor: cfg.Extractor,
		audit:     cfg.Audit,
		transport: cfg.Transport,
		logger:    cfg.Logger,
	}
}

// FileResult is the read_file response.
type FileResult struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	Text string `json:"text"`
}

// ReadFile returns the decoded text of a workspace file.
func (s *Service) ReadFile(_ context.Context, path string) (*FileResult, error) {
	data, err := s.ws.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := workspace.DecodeText(data)
	if err != nil {
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil, fmt.Errorf("%w: use read_pdf for %s", err, path)
		}
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return &FileResult{Path: path, Size: len(data), Text: text}, nil
}

// PDFResult is the read_pdf response: the extraction result plus the
// requested path and whether more pages follow.
type PDFResult struct {
	Path string `json:"path"`
	*pdfpage.Result
	HasMore bool `json:"hasMore"`
}

// ReadPDF extracts one page of a workspace PDF. Every call, successful or
// not, is recorded in the audit store when one is configured.
func (s *Service) ReadPDF(ctx context.Context, path string, page int) (*PDFResult, error) {
	start := time.Now()
	res, err := s.readPDF(ctx, path, page)
	if s.audit != nil {
		s.audit.RecordQuietly(ctx, s.audit.NewEntry(ctx, path, page, res, err, time.Since(start)))
	}
	if err != nil {
		return nil, err
	}
	return &PDFResult{Path: path, Result: res, HasMore: res.HasMore()}, nil
}

func (s *Service) readPDF(ctx context.Context, path string, page int) (*pdfpage.Result, error) {
	data, err := s.ws.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(ctx, data, page)
}

// History returns the most recent extractions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*extractlog.Entry, error) {
	if s.audit == nil {
		return nil, ErrHistoryDisabled
	}
	return s.audit.Recent(ctx, limit)
}
