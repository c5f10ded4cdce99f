package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookgest/internal/abx"
	"github.com/dgallion1/bookgest/internal/book"
)

var (
	// ErrUnsupported is returned by ForFile for unknown extensions.
	ErrUnsupported = errors.New("unsupported file extension")
)

// DiagPDFFallback is reported when pdftotext replaced the Go PDF reader.
const DiagPDFFallback = "pdftotext_fallback"

// Result is a parsed book plus any recoverable findings.
type Result struct {
	Book        *book.Book
	Diagnostics abx.Diagnostics
}

// Parser converts raw document bytes into a Book.
type Parser interface {
	Parse(r io.Reader, filename string) (*Result, error)
}

// Options configures the parsers returned by ForFile.
type Options struct {
	// ABX parses .abx documents. Nil uses tolerant defaults.
	ABX *abx.Engine
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

// SupportedExtensions lists file extensions this service can handle.
// Any of them may also carry a trailing .xz.
var SupportedExtensions = map[string]bool{
	".abx":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xz":
		inner, err := ForFile(strings.TrimSuffix(filename, filepath.Ext(filename)), opts)
		if err != nil {
			return nil, err
		}
		return &XZParser{Inner: inner}, nil
	case ".abx":
		return &ABXParser{Engine: opts.ABX}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xz" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(filename, filepath.Ext(filename))))
	}
	return SupportedExtensions[ext]
}

// titleFromFilename strips directory and extensions, including a trailing .xz.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(base), ".xz") {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newMetadata returns placeholder metadata titled after the file.
func newMetadata(title string) book.Metadata {
	meta := book.NewMetadata()
	if title = strings.TrimSpace(title); title != "" {
		meta.BookName = title
	}
	return meta
}
