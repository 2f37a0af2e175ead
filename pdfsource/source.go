// CLAUDE:SUMMARY PDF document collaborator — pdfcpu validates and resolves page tree/rotation, ledongthuc/pdf decodes content streams.
// CLAUDE:DEPENDS pdfsource/interp.go, pdfsource/fonts.go
// CLAUDE:EXPORTS Opener, NewOpener, Config, ErrClosed
package pdfsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/aitools/pdfpage"
)

// ErrClosed is returned when a destroyed document is used again.
var ErrClosed = errors.New("pdfsource: document destroyed")

// DefaultMaxFormDepth bounds Form XObject nesting.
const DefaultMaxFormDepth = 8

// Config configures an Opener.
type Config struct {
	// MaxFormDepth bounds nested Form XObjects. Default: 8.
	MaxFormDepth int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFormDepth <= 0 {
		c.MaxFormDepth = DefaultMaxFormDepth
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Opener decodes PDF bytes into pdfpage.Document handles.
type Opener struct {
	cfg Config
}

// NewOpener creates an Opener.
func NewOpener(cfg Config) *Opener {
	cfg.defaults()
	return &Opener{cfg: cfg}
}

// Open validates data with pdfcpu and prepares a content reader over it.
// Failures wrap pdfpage.ErrDecode.
func (o *Opener) Open(ctx context.Context, data []byte) (doc pdfpage.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", pdfpage.ErrDecode)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", pdfpage.ErrDecode, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: pdfcpu read: %w", pdfpage.ErrDecode, err)
	}

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: content reader: %w", pdfpage.ErrDecode, err)
	}
	if n := rd.NumPage(); n != pctx.PageCount {
		o.cfg.Logger.Warn("pdfsource: page tree disagreement",
			"pdfcpu", pctx.PageCount, "reader", n)
	}

	return &document{
		pctx:   pctx,
		rd:     rd,
		cfg:    o.cfg,
		pages:  map[int]*pdfpage.Page{},
		logger: o.cfg.Logger,
	}, nil
}

// document is one decoded PDF. Decoded pages are cached until Cleanup.
type document struct {
	mu        sync.Mutex
	pctx      *model.Context
	rd        *pdf.Reader
	cfg       Config
	pages     map[int]*pdfpage.Page
	destroyed bool
	logger    *slog.Logger
}

func (d *document) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return 0
	}
	return d.pctx.PageCount
}

// Page decodes page n. Content that cannot be interpreted wraps
// pdfpage.ErrDecode.
func (d *document) Page(ctx context.Context, n int) (*pdfpage.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, ErrClosed
	}
	if err := pdfpage.ValidatePage(n, d.pctx.PageCount); err != nil {
		return nil, err
	}
	if p, ok := d.pages[n]; ok {
		return p, nil
	}

	rotation, err := d.rotation(n)
	if err != nil {
		return nil, err
	}
	items, styles, err := d.interpret(ctx, n)
	if err != nil {
		return nil, err
	}
	p := &pdfpage.Page{Items: items, Styles: styles, Rotation: rotation}
	d.pages[n] = p
	return p, nil
}

// rotation returns the declared /Rotate of page n, inherited through the page
// tree when the page itself does not declare one.
func (d *document) rotation(n int) (int, error) {
	pd, _, inh, err := d.pctx.PageDict(n, false)
	if err != nil {
		return 0, fmt.Errorf("%w: page %d: %w", pdfpage.ErrDecode, n, err)
	}
	if pd != nil {
		if r := pd.IntEntry("Rotate"); r != nil {
			return *r, nil
		}
	}
	if inh != nil {
		return inh.Rotate, nil
	}
	return 0, nil
}

func (d *document) interpret(ctx context.Context, n int) (items []pdfpage.TextItem, styles pdfpage.Styles, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, styles = nil, nil
			err = fmt.Errorf("%w: page %d content: %v", pdfpage.ErrDecode, n, r)
		}
	}()

	page := d.rd.Page(n)
	if page.V.IsNull() {
		return nil, nil, fmt.Errorf("%w: page %d not found by content reader", pdfpage.ErrDecode, n)
	}
	in := newInterpreter(d.cfg.MaxFormDepth)
	sc := in.newScope(page.Resources(), gstate{ctm: pdfpage.Identity, text: textState{scale: 1}}, 0, "")

	// The streams of a Contents array form one content sequence.
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		sc.exec(contents)
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			sc.exec(contents.Index(i))
		}
	}
	d.logger.Debug("pdfsource: page interpreted", "page", n, "items", len(in.items), "fonts", len(in.styles))
	return in.items, in.styles, nil
}

// Cleanup drops cached pages.
func (d *document) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages = map[int]*pdfpage.Page{}
	return nil
}

// Destroy releases the document. A second call returns ErrClosed.
func (d *document) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrClosed
	}
	d.destroyed = true
	d.pctx, d.rd, d.pages = nil, nil, nil
	return nil
}
