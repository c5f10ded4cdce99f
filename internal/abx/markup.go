package abx

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/tags"
)

var (
	blankRunRe   = regexp.MustCompile(`[ \t]+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// tocEntries returns every TOC title on the page. Tolerant mode falls back to
// any فهرس... tag when the exact one is absent.
func (e *Engine) tocEntries(body string) []string {
	entries := e.ex.All(body, fieldTOC)
	if len(entries) == 0 && e.opts.Mode == ModeTolerant {
		entries = e.ex.All(body, fieldTOCAny)
	}
	return entries
}

// footnotes numbers the non-empty footnote bodies 1..N in source order.
func (e *Engine) footnotes(body string) []book.Footnote {
	texts := e.ex.All(body, fieldFootnote)
	out := make([]book.Footnote, 0, len(texts))
	for i, text := range texts {
		out = append(out, book.Footnote{Number: i + 1, Text: text})
	}
	return out
}

// verseBlocks splits each poetry body into trimmed non-empty lines.
func (e *Engine) verseBlocks(body string) []book.VerseBlock {
	var out []book.VerseBlock
	for _, text := range e.ex.All(body, fieldVerse) {
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, book.VerseBlock{Lines: lines})
		}
	}
	return out
}

// stripMarkup removes captured markers, unwraps links and drops any other
// tag syntax, leaving plain text with normalised whitespace.
func (e *Engine) stripMarkup(body string) string {
	s := e.ex.Remove(body, fieldTOC)
	if e.opts.Mode == ModeTolerant {
		s = e.ex.Remove(s, fieldTOCAny)
	}
	s = e.ex.Remove(s, fieldFootnote)
	s = e.ex.Remove(s, fieldVerse)
	s = e.ex.Unwrap(s, fieldLink)
	s = tags.StripAll(s)
	if e.opts.Mode == ModeTolerant {
		s = html.UnescapeString(s)
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankRunRe.ReplaceAllString(s, " ")
	s = manyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// unterminated reports open tags without a close for the page-level markers.
func (e *Engine) unterminated(page int, body string, c *collector) {
	for _, f := range []tags.Field{fieldTOC, fieldFootnote, fieldVerse} {
		if n := e.ex.Unterminated(body, f); n > 0 {
			c.add(DiagUnterminatedTag, page, "%d unterminated %s tag(s)", n, f.Name)
		}
	}
}
