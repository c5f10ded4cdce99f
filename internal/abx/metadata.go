package abx

import (
	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/tags"
)

// readMetadata pulls the bibliographic fields out of the identity block, or
// out of the whole document when there is no identity block.
func (e *Engine) readMetadata(raw string, c *collector) book.Metadata {
	block, ok := e.ex.First(raw, fieldIdentity)
	if !ok {
		block = raw
	}

	meta := book.NewMetadata()
	if v, ok := e.ex.First(block, fieldBookName); ok {
		meta.BookName = v
	}
	if v, ok := e.ex.First(block, fieldAuthor); ok {
		meta.Author = v
	}
	meta.Volume = e.intField(block, fieldVolume, c)
	meta.DeathYear = e.intField(block, fieldDeathYear, c)
	meta.CategoryHint, _ = e.ex.First(block, fieldCategory)
	meta.Publisher, _ = e.ex.First(block, fieldPublisher)
	meta.City, _ = e.ex.First(block, fieldCity)
	meta.PrintYear, _ = e.ex.First(block, fieldPrintYear)
	meta.Edition, _ = e.ex.First(block, fieldEdition)
	return meta
}

func (e *Engine) intField(block string, f tags.Field, c *collector) *int {
	v, ok := e.ex.First(block, f)
	if !ok {
		return nil
	}
	n, ok := tags.Int(v)
	if !ok {
		c.add(DiagBadInteger, 0, "%s: cannot parse %q as an integer", f.Name, v)
		return nil
	}
	return &n
}
