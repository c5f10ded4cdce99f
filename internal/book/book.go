// Package book holds the parsed representation of a printed book.
package book

import (
	"strconv"
	"strings"
)

// Placeholder values used when a source supplies no book name or author.
const (
	UntitledBook  = "كتاب غير معنون"
	UnknownAuthor = "مؤلف غير معروف"
)

// FootnoteMarker separates page prose from its rendered footnotes in DisplayContent.
const FootnoteMarker = "__ABX_FOOTNOTES__"

// Metadata holds the bibliographic facts of a book.
type Metadata struct {
	BookName     string `json:"book_name" yaml:"book_name"`
	Author       string `json:"author" yaml:"author"`
	Volume       *int   `json:"volume,omitempty" yaml:"volume,omitempty"`
	DeathYear    *int   `json:"death_year,omitempty" yaml:"death_year,omitempty"`
	CategoryHint string `json:"category_hint,omitempty" yaml:"category_hint,omitempty"`
	Publisher    string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	City         string `json:"city,omitempty" yaml:"city,omitempty"`
	PrintYear    string `json:"print_year,omitempty" yaml:"print_year,omitempty"`
	Edition      string `json:"edition,omitempty" yaml:"edition,omitempty"`
}

// NewMetadata returns Metadata with the mandatory fields set to placeholders.
func NewMetadata() Metadata {
	return Metadata{BookName: UntitledBook, Author: UnknownAuthor}
}

// Footnote is one annotation. Number is 1-based and scoped to its page.
type Footnote struct {
	Number int    `json:"number" yaml:"number"`
	Text   string `json:"text" yaml:"text"`
}

// String renders the footnote as "[n] text".
func (f Footnote) String() string {
	return "[" + strconv.Itoa(f.Number) + "] " + f.Text
}

// VerseBlock is one poetry insertion.
type VerseBlock struct {
	Lines []string `json:"lines" yaml:"lines"`
}

// Page is one printed page.
type Page struct {
	Number         int          `json:"page_number" yaml:"page_number"`
	Content        string       `json:"content" yaml:"content"`                 // Reconstructed prose, no footnotes.
	DisplayContent string       `json:"display_content" yaml:"display_content"` // Prose plus rendered footnote block.
	Footnotes      []Footnote   `json:"footnotes" yaml:"footnotes"`
	VerseBlocks    []VerseBlock `json:"verse_blocks" yaml:"verse_blocks"`
	TOCEntries     []string     `json:"toc_entries" yaml:"toc_entries"`
	HasTOCEntry    bool         `json:"has_toc_entry" yaml:"has_toc_entry"`
}

// Chapter is one logical section. Pages point into Book.Pages.
type Chapter struct {
	Title     string     `json:"title" yaml:"title"`
	StartPage int        `json:"start_page" yaml:"start_page"`
	Order     int        `json:"order" yaml:"order"`
	Content   string     `json:"content" yaml:"content"`
	Footnotes []Footnote `json:"footnotes" yaml:"footnotes"`
	Pages     []*Page    `json:"pages" yaml:"pages"`
}

// PageNumbers returns the numbers of the chapter's pages in order.
func (c *Chapter) PageNumbers() []int {
	nums := make([]int, len(c.Pages))
	for i, p := range c.Pages {
		nums[i] = p.Number
	}
	return nums
}

// Book is the final parsed artifact. It is not mutated once built.
type Book struct {
	Metadata Metadata   `json:"metadata" yaml:"metadata"`
	Pages    []*Page    `json:"pages" yaml:"pages"`
	Chapters []*Chapter `json:"chapters" yaml:"chapters"`
	FullText string     `json:"full_text" yaml:"full_text"`
}

// Page returns the page with the given number, or nil.
func (b *Book) Page(number int) *Page {
	for _, p := range b.Pages {
		if p.Number == number {
			return p
		}
	}
	return nil
}

// RenderDisplay appends the footnote block to prose. Without footnotes the
// prose is returned unchanged.
func RenderDisplay(prose string, footnotes []Footnote) string {
	if len(footnotes) == 0 {
		return prose
	}
	rendered := make([]string, len(footnotes))
	for i, f := range footnotes {
		rendered[i] = f.String()
	}
	return prose + "\n\n" + FootnoteMarker + "\n" + strings.Join(rendered, "\n\n")
}
