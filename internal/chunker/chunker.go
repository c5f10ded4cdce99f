// Package chunker splits book chapters into token-bounded passages for
// search surfaces.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bookgest/internal/book"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit, unless it is a chapter's only passage.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// Passage is one slice of a chapter.
type Passage struct {
	Index        int      `json:"index" yaml:"index"`
	ChapterOrder int      `json:"chapter_order" yaml:"chapter_order"`
	Breadcrumb   []string `json:"breadcrumb" yaml:"breadcrumb"`
	PageStart    int      `json:"page_start" yaml:"page_start"`
	PageEnd      int      `json:"page_end" yaml:"page_end"`
	Tokens       int      `json:"tokens" yaml:"tokens"`
	Text         string   `json:"text" yaml:"text"`
}

// paragraph is a block of text and the page it came from.
type paragraph struct {
	text string
	page int
}

// part is an emitted chunk and its page span.
type part struct {
	text       string
	start, end int
}

// ChunkBook splits every chapter of b into passages. Passages never span
// chapters; the breadcrumb is the book name followed by the chapter title.
func ChunkBook(b *book.Book, cfg Config) []Passage {
	cfg = cfg.withDefaults()

	var passages []Passage
	for _, ch := range b.Chapters {
		var paras []paragraph
		for _, p := range ch.Pages {
			for _, t := range splitByParagraphs(p.Content) {
				paras = append(paras, paragraph{text: t, page: p.Number})
			}
		}

		parts := splitText(paras, cfg.ChunkSize, cfg.ChunkOverlap)
		for _, pt := range parts {
			tokens := EstimateTokens(pt.text)
			if tokens < cfg.MinChunk && len(parts) > 1 {
				continue
			}
			passages = append(passages, Passage{
				Index:        len(passages),
				ChapterOrder: ch.Order,
				Breadcrumb:   []string{b.Metadata.BookName, ch.Title},
				PageStart:    pt.start,
				PageEnd:      pt.end,
				Tokens:       tokens,
				Text:         pt.text,
			})
		}
	}
	return passages
}

// splitText packs paragraphs into chunks of approximately targetTokens,
// carrying overlapTokens of trailing text into the next chunk.
func splitText(paras []paragraph, targetTokens, overlapTokens int) []part {
	var result []part
	var current strings.Builder
	currentTokens := 0
	start, end := 0, 0

	flush := func() {
		if currentTokens > 0 {
			result = append(result, part{text: current.String(), start: start, end: end})
		}
		current.Reset()
		currentTokens = 0
	}

	for _, para := range paras {
		paraTokens := EstimateTokens(para.text)

		// If a single paragraph exceeds the target, split it further.
		if paraTokens > targetTokens {
			flush()
			for _, s := range splitBySentences(para.text, targetTokens, overlapTokens) {
				result = append(result, part{text: s, start: para.page, end: para.page})
			}
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			overlap := getOverlapText(current.String(), overlapTokens)
			flush()
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
				start = end
			}
		}

		if currentTokens == 0 {
			start = para.page
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para.text)
		currentTokens += paraTokens
		end = para.page
	}
	flush()

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

const sentenceEnds = ".!?؟۔"

// splitSentences splits after a sentence terminal that is followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		next := i + utf8.RuneLen(r)
		if strings.ContainsRune(sentenceEnds, r) && next < len(text) && text[next] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
