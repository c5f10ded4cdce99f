package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/bookgest/internal/book"
)

// TextParser handles plain text files. Form feeds separate pages; blank
// lines separate paragraphs. The whole file is one chapter.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := book.NewBuilder(newMetadata(titleFromFilename(filename)))

	pageNum := 1
	var paragraphs []string
	var current strings.Builder

	endParagraph := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}
	endPage := func() {
		endParagraph()
		if len(paragraphs) > 0 {
			b.AddPage(&book.Page{Number: pageNum, Content: strings.Join(paragraphs, "\n\n")})
		}
		paragraphs = nil
		pageNum++
	}

	for scanner.Scan() {
		segments := strings.Split(scanner.Text(), "\f")
		for i, line := range segments {
			if i > 0 {
				endPage()
			}
			if strings.TrimSpace(line) == "" {
				endParagraph()
				continue
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	endPage()

	return &Result{Book: b.Build()}, nil
}
