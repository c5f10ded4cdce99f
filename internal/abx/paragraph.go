package abx

import (
	"strings"
	"unicode/utf8"
)

// sentenceTerminals end a paragraph when they end a line.
const sentenceTerminals = ".!?؟؛:)۔"

// reflow folds hard-wrapped lines into paragraphs. A paragraph ends after a
// line ending in a sentence terminal, or before a line starting with one of
// the heading phrases. Blank lines are ignored. Paragraphs are separated by
// one blank line.
func reflow(text string, headings []string) string {
	var (
		paragraphs []string
		buf        []string
	)
	flush := func() {
		if len(buf) > 0 {
			paragraphs = append(paragraphs, strings.Join(buf, " "))
			buf = buf[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if startsWithAny(line, headings) {
			flush()
		}
		buf = append(buf, line)
		if endsWithTerminal(line) {
			flush()
		}
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func endsWithTerminal(line string) bool {
	r, _ := utf8.DecodeLastRuneInString(line)
	return r != utf8.RuneError && strings.ContainsRune(sentenceTerminals, r)
}

func startsWithAny(line string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
