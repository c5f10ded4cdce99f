// Package abx parses the ABX legacy book format into a book.Book.
//
// An ABX document is tag-delimited text: an identity block of bibliographic
// fields, then page attachments <ملحق=N>…</ملحق=N> whose bodies embed TOC
// markers, footnotes, verse blocks and link markers. Malformed or missing
// markup never fails a parse; oddities are reported as Diagnostics.
package abx

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/tags"
)

// Engine parses ABX documents. It holds no per-document state and is safe
// for concurrent use.
type Engine struct {
	opts Options
	ex   tags.Extractor
	log  *slog.Logger
}

// New creates an Engine. A nil logger discards output.
func New(opts Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		opts: opts,
		ex:   tags.Extractor{Variants: opts.Mode == ModeTolerant},
		log:  log,
	}
}

// MaxInputBytes returns the largest document Parse accepts.
func (e *Engine) MaxInputBytes() int {
	return e.opts.maxInput()
}

// Mode returns the engine's parse mode.
func (e *Engine) Mode() Mode {
	return e.opts.Mode
}

// Parse converts one document into a Book. The error, when non-nil, is
// always a *ParseFailure.
func (e *Engine) Parse(raw string) (b *book.Book, diags Diagnostics, err error) {
	if len(raw) > e.opts.maxInput() {
		return nil, nil, &ParseFailure{
			Err: fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(raw), e.opts.maxInput()),
		}
	}

	c := &collector{log: e.log}
	var bookName string
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("abx parse panicked", "book", bookName, "panic", r)
			b = nil
			diags = c.list
			err = &ParseFailure{BookName: bookName, Err: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()

	raw = strings.TrimPrefix(raw, "\uFEFF")
	if e.opts.Mode == ModeTolerant {
		raw = norm.NFC.String(raw)
	}

	meta := e.readMetadata(raw, c)
	bookName = meta.BookName

	pages := e.collectPages(raw, c)
	b = e.segment(meta, pages, c)

	e.log.Debug("abx parsed",
		"book", meta.BookName,
		"pages", len(b.Pages),
		"chapters", len(b.Chapters),
		"diagnostics", len(c.list),
	)
	return b, c.list, nil
}

// Parse parses raw with default options and no logging.
func Parse(raw string) (*book.Book, error) {
	b, _, err := New(DefaultOptions(), nil).Parse(raw)
	return b, err
}
