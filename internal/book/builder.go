package book

import "strings"

// Builder assembles a Book from pages visited in ascending order. Each output
// field has exactly one accumulator; chapters are opened explicitly and
// closed when the next one opens or when Build is called.
type Builder struct {
	meta     Metadata
	pages    []*Page
	chapters []*Chapter
	text     []string

	active     *Chapter
	activeText []string
	order      int
}

// NewBuilder starts a book with the given metadata.
func NewBuilder(meta Metadata) *Builder {
	return &Builder{meta: meta}
}

// OpenChapter closes the active chapter, if any, and starts a new one.
func (b *Builder) OpenChapter(title string, startPage int) {
	b.closeActive()
	b.order++
	b.active = &Chapter{
		Title:     title,
		StartPage: startPage,
		Order:     b.order,
		Footnotes: []Footnote{},
		Pages:     []*Page{},
	}
}

// InChapter reports whether a chapter is currently open.
func (b *Builder) InChapter() bool {
	return b.active != nil
}

// AddPage appends a page to the book and, when a chapter is open, to that
// chapter along with its prose and footnotes.
func (b *Builder) AddPage(p *Page) {
	if p.Footnotes == nil {
		p.Footnotes = []Footnote{}
	}
	if p.VerseBlocks == nil {
		p.VerseBlocks = []VerseBlock{}
	}
	if p.TOCEntries == nil {
		p.TOCEntries = []string{}
	}
	if p.DisplayContent == "" {
		p.DisplayContent = RenderDisplay(p.Content, p.Footnotes)
	}

	b.pages = append(b.pages, p)
	b.text = append(b.text, p.Content)

	if b.active != nil {
		b.active.Pages = append(b.active.Pages, p)
		b.active.Footnotes = append(b.active.Footnotes, p.Footnotes...)
		b.activeText = append(b.activeText, p.Content)
	}
}

// ChapterCount returns the number of chapters opened so far.
func (b *Builder) ChapterCount() int {
	return b.order
}

// PageCount returns the number of pages added so far.
func (b *Builder) PageCount() int {
	return len(b.pages)
}

// Build closes any open chapter and returns the finished book. When no
// chapter was ever opened but pages exist, a single chapter titled after the
// book owns every page.
func (b *Builder) Build() *Book {
	b.closeActive()

	if len(b.chapters) == 0 && len(b.pages) > 0 {
		ch := &Chapter{
			Title:     b.meta.BookName,
			StartPage: 1,
			Order:     1,
			Content:   strings.Join(b.text, "\n\n"),
			Footnotes: []Footnote{},
			Pages:     make([]*Page, len(b.pages)),
		}
		copy(ch.Pages, b.pages)
		for _, p := range b.pages {
			ch.Footnotes = append(ch.Footnotes, p.Footnotes...)
		}
		b.chapters = append(b.chapters, ch)
	}

	pages := b.pages
	if pages == nil {
		pages = []*Page{}
	}
	chapters := b.chapters
	if chapters == nil {
		chapters = []*Chapter{}
	}

	return &Book{
		Metadata: b.meta,
		Pages:    pages,
		Chapters: chapters,
		FullText: strings.Join(b.text, "\n\n"),
	}
}

func (b *Builder) closeActive() {
	if b.active == nil {
		return
	}
	b.active.Content = strings.Join(b.activeText, "\n\n")
	b.chapters = append(b.chapters, b.active)
	b.active = nil
	b.activeText = nil
}
