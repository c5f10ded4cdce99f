package abx

import (
	"github.com/dgallion1/bookgest/internal/book"
)

// segment walks pages in ascending order. The first TOC entry on a page
// closes the active chapter and opens the next; later entries on the same
// page are kept on the page but open nothing.
func (e *Engine) segment(meta book.Metadata, pages []rawPage, c *collector) *book.Book {
	b := book.NewBuilder(meta)
	headings := e.opts.headingPhrases()

	for _, rp := range pages {
		toc := e.tocEntries(rp.Body)
		if len(toc) > 0 {
			b.OpenChapter(toc[0], rp.Number)
			e.log.Debug("chapter opened", "title", toc[0], "page", rp.Number, "order", b.ChapterCount())
			if len(toc) > 1 {
				c.add(DiagExtraTOCEntries, rp.Number, "%d TOC entries on one page; only %q opens a chapter", len(toc), toc[0])
			}
		}
		e.unterminated(rp.Number, rp.Body, c)

		b.AddPage(&book.Page{
			Number:      rp.Number,
			Content:     reflow(e.stripMarkup(rp.Body), headings),
			Footnotes:   e.footnotes(rp.Body),
			VerseBlocks: e.verseBlocks(rp.Body),
			TOCEntries:  toc,
			HasTOCEntry: len(toc) > 0,
		})
	}

	switch {
	case b.PageCount() == 0:
		c.add(DiagNoPages, 0, "document has no page attachments")
	case b.ChapterCount() == 0:
		c.add(DiagNoTOC, 0, "no TOC markers; all %d pages form one chapter", b.PageCount())
	}
	return b.Build()
}
