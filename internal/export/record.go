// Package export maps a parsed Book into the flat record shape consumed by
// storage adapters and the HTTP API.
package export

import (
	"strconv"
	"strings"

	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/classify"
)

// Source identifies records produced from ABX-shaped books.
const Source = "abx"

// Record is the flat, storage-ready form of one parsed book.
type Record struct {
	Title       string            `json:"title" yaml:"title"`
	Author      string            `json:"author" yaml:"author"`
	CategoryID  classify.Category `json:"category_id" yaml:"category_id"`
	Volume      *int              `json:"volume,omitempty" yaml:"volume,omitempty"`
	Publisher   string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Description string            `json:"description" yaml:"description"`
	TotalPages  int               `json:"total_pages" yaml:"total_pages"`
	Chapters    []ChapterRecord   `json:"chapters" yaml:"chapters"`
	Content     ContentRecord     `json:"content" yaml:"content"`
	Metadata    MetadataRecord    `json:"metadata" yaml:"metadata"`
}

// ChapterRecord is one chapter with its rendered footnotes and pages.
type ChapterRecord struct {
	Title     string       `json:"title" yaml:"title"`
	Order     int          `json:"order" yaml:"order"`
	StartPage int          `json:"start_page" yaml:"start_page"`
	Content   string       `json:"content" yaml:"content"`
	Footnotes string       `json:"footnotes" yaml:"footnotes"`
	Pages     []PageRecord `json:"pages" yaml:"pages"`
}

// PageRecord is one page as displayed, with its footnotes, verses and TOC entries.
type PageRecord struct {
	PageNumber int      `json:"page_number" yaml:"page_number"`
	Content    string   `json:"content" yaml:"content"`
	Footnotes  []string `json:"footnotes" yaml:"footnotes"`
	Poetry     []string `json:"poetry" yaml:"poetry"`
	TOCEntries []string `json:"toc_entries" yaml:"toc_entries"`
}

// ContentRecord holds the book text and the page listing.
type ContentRecord struct {
	FullText string       `json:"full_text" yaml:"full_text"`
	Pages    []PageRecord `json:"pages" yaml:"pages"`
}

// MetadataRecord carries the bibliographic fields and totals.
type MetadataRecord struct {
	DeathYear     *int   `json:"death_year,omitempty" yaml:"death_year,omitempty"`
	Publisher     string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	PrintYear     string `json:"print_year,omitempty" yaml:"print_year,omitempty"`
	Edition       string `json:"edition,omitempty" yaml:"edition,omitempty"`
	Volume        *int   `json:"volume,omitempty" yaml:"volume,omitempty"`
	City          string `json:"city,omitempty" yaml:"city,omitempty"`
	Source        string `json:"source" yaml:"source"`
	TotalChapters int    `json:"total_chapters" yaml:"total_chapters"`
	TotalPages    int    `json:"total_pages" yaml:"total_pages"`
}

// ToRecord converts b into a Record. Page records are shared between the
// chapter listing and the content listing.
func ToRecord(b *book.Book, category classify.Category) *Record {
	m := b.Metadata

	pages := make(map[int]PageRecord, len(b.Pages))
	contentPages := make([]PageRecord, 0, len(b.Pages))
	for _, p := range b.Pages {
		pr := toPageRecord(p)
		pages[p.Number] = pr
		contentPages = append(contentPages, pr)
	}

	chapters := make([]ChapterRecord, 0, len(b.Chapters))
	for _, ch := range b.Chapters {
		cr := ChapterRecord{
			Title:     ch.Title,
			Order:     ch.Order,
			StartPage: ch.StartPage,
			Content:   ch.Content,
			Footnotes: joinFootnotes(ch.Footnotes),
			Pages:     make([]PageRecord, 0, len(ch.Pages)),
		}
		for _, p := range ch.Pages {
			cr.Pages = append(cr.Pages, pages[p.Number])
		}
		chapters = append(chapters, cr)
	}

	return &Record{
		Title:       m.BookName,
		Author:      m.Author,
		CategoryID:  category,
		Volume:      m.Volume,
		Publisher:   m.Publisher,
		Description: Description(m),
		TotalPages:  len(b.Pages),
		Chapters:    chapters,
		Content: ContentRecord{
			FullText: b.FullText,
			Pages:    contentPages,
		},
		Metadata: MetadataRecord{
			DeathYear:     m.DeathYear,
			Publisher:     m.Publisher,
			PrintYear:     m.PrintYear,
			Edition:       m.Edition,
			Volume:        m.Volume,
			City:          m.City,
			Source:        Source,
			TotalChapters: len(b.Chapters),
			TotalPages:    len(b.Pages),
		},
	}
}

// Description renders "<name> للمؤلف <author>", followed by
// " - الجزء <n>" when the volume is known.
func Description(m book.Metadata) string {
	d := m.BookName + " للمؤلف " + m.Author
	if m.Volume != nil {
		d += " - الجزء " + strconv.Itoa(*m.Volume)
	}
	return d
}

func toPageRecord(p *book.Page) PageRecord {
	pr := PageRecord{
		PageNumber: p.Number,
		Content:    p.DisplayContent,
		Footnotes:  make([]string, 0, len(p.Footnotes)),
		Poetry:     make([]string, 0, len(p.VerseBlocks)),
		TOCEntries: p.TOCEntries,
	}
	for _, f := range p.Footnotes {
		pr.Footnotes = append(pr.Footnotes, f.String())
	}
	for _, v := range p.VerseBlocks {
		pr.Poetry = append(pr.Poetry, strings.Join(v.Lines, "\n"))
	}
	if pr.TOCEntries == nil {
		pr.TOCEntries = []string{}
	}
	return pr
}

func joinFootnotes(notes []book.Footnote) string {
	rendered := make([]string, len(notes))
	for i, f := range notes {
		rendered[i] = f.String()
	}
	return strings.Join(rendered, "\n\n")
}
