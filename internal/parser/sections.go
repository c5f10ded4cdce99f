package parser

import (
	"strings"

	"github.com/dgallion1/bookgest/internal/book"
)

// sections turns heading-delimited text into a book. Every heading opens a
// chapter, and the blocks under it become one page. Text before the first
// heading becomes an unchaptered leading page.
type sections struct {
	b       *book.Builder
	page    int
	blocks  []string
	pending bool // a heading is open and has not produced its page yet
}

func newSections(meta book.Metadata) *sections {
	return &sections{b: book.NewBuilder(meta)}
}

func (s *sections) heading(title string) {
	s.flush()
	s.b.OpenChapter(title, s.page+1)
	s.pending = true
}

func (s *sections) text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		s.blocks = append(s.blocks, t)
	}
}

func (s *sections) flush() {
	if len(s.blocks) == 0 && !s.pending {
		return
	}
	s.page++
	s.b.AddPage(&book.Page{Number: s.page, Content: strings.Join(s.blocks, "\n\n")})
	s.blocks = nil
	s.pending = false
}

func (s *sections) build() *book.Book {
	s.flush()
	return s.b.Build()
}
