package abx

import (
	"fmt"
	"log/slog"
)

// Diagnostic codes.
const (
	DiagBadInteger       = "bad_integer"
	DiagOrphanPageMarker = "orphan_page_marker"
	DiagDuplicatePage    = "duplicate_page"
	DiagUnterminatedTag  = "unterminated_tag"
	DiagExtraTOCEntries  = "extra_toc_entries"
	DiagNoTOC            = "no_toc"
	DiagNoPages          = "no_pages"
)

// Diagnostic records a recoverable oddity found while parsing. Page is zero
// when the finding is not tied to a page.
type Diagnostic struct {
	Code    string `json:"code" yaml:"code"`
	Page    int    `json:"page,omitempty" yaml:"page,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", d.Code, d.Page, d.Message)
	}
	return d.Code + ": " + d.Message
}

// Diagnostics is the ordered list of findings for one document.
type Diagnostics []Diagnostic

// Has reports whether any diagnostic carries code.
func (ds Diagnostics) Has(code string) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics carrying code.
func (ds Diagnostics) Count(code string) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}

type collector struct {
	log  *slog.Logger
	list Diagnostics
}

func (c *collector) add(code string, page int, format string, args ...any) {
	d := Diagnostic{Code: code, Page: page, Message: fmt.Sprintf(format, args...)}
	c.list = append(c.list, d)
	c.log.Debug("abx diagnostic", "code", code, "page", page, "message", d.Message)
}
