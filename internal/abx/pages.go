package abx

import (
	"sort"

	"github.com/dgallion1/bookgest/internal/tags"
)

type rawPage struct {
	Number int
	Body   string
}

// collectPages maps attachment bodies to their page numbers and returns them
// in ascending page order. Page-number markers without an attachment only
// produce diagnostics.
func (e *Engine) collectPages(raw string, c *collector) []rawPage {
	content := make(map[int]string)
	for _, span := range e.ex.Keyed(raw, fieldAttachment) {
		if _, dup := content[span.Key]; dup {
			c.add(DiagDuplicatePage, span.Key, "attachment repeated; keeping the last one")
		}
		content[span.Key] = span.Body
	}

	for _, body := range e.ex.All(raw, fieldPage) {
		n, ok := tags.Int(body)
		if !ok {
			continue
		}
		if _, found := content[n]; !found {
			c.add(DiagOrphanPageMarker, n, "page marker has no attachment")
		}
	}

	pages := make([]rawPage, 0, len(content))
	for n, body := range content {
		pages = append(pages, rawPage{Number: n, Body: body})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages
}
