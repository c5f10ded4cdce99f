// Package classify assigns a book to one topical category by counting
// keyword occurrences in its title, category hint and opening text.
package classify

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/dgallion1/bookgest/internal/book"
)

// DefaultWindow is the number of leading runes of the full text scored.
const DefaultWindow = 3000

// Result holds the chosen category and the per-category scores.
type Result struct {
	Category Category         `json:"category" yaml:"category"`
	Scores   map[Category]int `json:"scores" yaml:"scores"`
}

// Classifier scores text against the fixed category keyword lists. It is
// immutable after New and safe for concurrent use.
type Classifier struct {
	window   int
	matcher  *ahocorasick.Matcher
	keywords []string
	owner    []int // keyword index -> category index
}

// New builds a Classifier. A window <= 0 uses DefaultWindow.
func New(window int) *Classifier {
	if window <= 0 {
		window = DefaultWindow
	}
	c := &Classifier{window: window}
	for ci, cat := range categories {
		for _, kw := range cat.Keywords {
			c.keywords = append(c.keywords, strings.ToLower(kw))
			c.owner = append(c.owner, ci)
		}
	}
	c.matcher = ahocorasick.NewStringMatcher(c.keywords)
	return c
}

// Classify returns the winning category for a book.
func (c *Classifier) Classify(meta book.Metadata, fullText string) Category {
	return c.Score(meta, fullText).Category
}

// Score computes every category's score. The strictly highest score wins;
// a tie at the top or no hits at all yields DefaultCategory.
func (c *Classifier) Score(meta book.Metadata, fullText string) Result {
	text := strings.ToLower(meta.BookName + " " + meta.CategoryHint + " " + prefixRunes(fullText, c.window))

	counts := make([]int, len(categories))
	// The automaton reports each keyword once; it only narrows which
	// keywords need counting.
	for _, hit := range c.matcher.MatchThreadSafe([]byte(text)) {
		counts[c.owner[hit]] += strings.Count(text, c.keywords[hit])
	}

	res := Result{Category: DefaultCategory, Scores: make(map[Category]int, len(categories))}
	best, tied := 0, false
	for i, cat := range categories {
		res.Scores[cat.ID] = counts[i]
		switch {
		case counts[i] > best:
			best, tied = counts[i], false
			res.Category = cat.ID
		case counts[i] == best && best > 0:
			tied = true
		}
	}
	if tied || best == 0 {
		res.Category = DefaultCategory
	}
	return res
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
