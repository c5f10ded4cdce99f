package abx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/tags"
)

func page(n int, body string) string {
	return fmt.Sprintf("<صفحة>%d</صفحة>\n<ملحق=%d>\n%s\n</ملحق=%d>\n", n, n, body, n)
}

func toc(title string) string {
	return "<فهرس الموضوعات>" + title + "</فهرس الموضوعات>"
}

func identity(fields string) string {
	return "<هوية الكتاب>\n" + fields + "\n</هوية الكتاب>\n"
}

func mustParse(t *testing.T, e *Engine, raw string) (*book.Book, Diagnostics) {
	t.Helper()
	b, diags, err := e.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b, diags
}

func TestParse_ScenarioA(t *testing.T) {
	raw := identity("<اسم الكتاب>Test Book</اسم الكتاب>") +
		page(1, toc("Introduction")+"\nFirst line of the intro\ncontinues here.") +
		page(2, "Body text<هامش>a note</هامش> goes on.\n<شعر>\nverse one\n\n  verse two  \nverse three\n</شعر>")

	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)

	if len(b.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(b.Chapters))
	}
	ch := b.Chapters[0]
	if ch.Title != "Introduction" {
		t.Errorf("expected title %q, got %q", "Introduction", ch.Title)
	}
	if ch.StartPage != 1 || ch.Order != 1 {
		t.Errorf("expected start page 1 order 1, got %d/%d", ch.StartPage, ch.Order)
	}
	if got := ch.PageNumbers(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", got)
	}

	p2 := b.Page(2)
	if p2 == nil {
		t.Fatal("page 2 missing")
	}
	if len(p2.Footnotes) != 1 || p2.Footnotes[0].Number != 1 || p2.Footnotes[0].Text != "a note" {
		t.Errorf("unexpected footnotes %+v", p2.Footnotes)
	}
	if len(p2.VerseBlocks) != 1 {
		t.Fatalf("expected 1 verse block, got %d", len(p2.VerseBlocks))
	}
	want := []string{"verse one", "verse two", "verse three"}
	lines := p2.VerseBlocks[0].Lines
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
	if p2.Content != "Body text goes on." {
		t.Errorf("expected %q, got %q", "Body text goes on.", p2.Content)
	}
	if !strings.Contains(p2.DisplayContent, book.FootnoteMarker+"\n[1] a note") {
		t.Errorf("expected rendered footnote block, got %q", p2.DisplayContent)
	}
	if b.Page(1).Content != "First line of the intro continues here." {
		t.Errorf("unexpected page 1 content %q", b.Page(1).Content)
	}
	if len(ch.Footnotes) != 1 {
		t.Errorf("expected chapter to carry 1 footnote, got %d", len(ch.Footnotes))
	}
}

func TestParse_ScenarioB_EmptyDocument(t *testing.T) {
	b, diags := mustParse(t, New(DefaultOptions(), nil), "")

	if b.Metadata.BookName != book.UntitledBook || b.Metadata.Author != book.UnknownAuthor {
		t.Errorf("expected placeholders, got %q / %q", b.Metadata.BookName, b.Metadata.Author)
	}
	if len(b.Pages) != 0 || len(b.Chapters) != 0 || b.FullText != "" {
		t.Errorf("expected empty book, got %d pages %d chapters text %q", len(b.Pages), len(b.Chapters), b.FullText)
	}
	if !diags.Has(DiagNoPages) {
		t.Errorf("expected %s diagnostic, got %v", DiagNoPages, diags)
	}
}

func TestParse_NoTOCSynthesizesOneChapter(t *testing.T) {
	raw := identity("<اسم الكتاب>الكافي</اسم الكتاب>") +
		page(3, "third.") + page(1, "first.") + page(2, "second.")

	b, diags := mustParse(t, New(DefaultOptions(), nil), raw)

	if len(b.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(b.Chapters))
	}
	ch := b.Chapters[0]
	if ch.Order != 1 || ch.StartPage != 1 || ch.Title != "الكافي" {
		t.Errorf("unexpected chapter %q/%d/%d", ch.Title, ch.StartPage, ch.Order)
	}
	got := ch.PageNumbers()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected pages [1 2 3], got %v", got)
	}
	if b.FullText != "first.\n\nsecond.\n\nthird." {
		t.Errorf("unexpected full text %q", b.FullText)
	}
	if !diags.Has(DiagNoTOC) {
		t.Errorf("expected %s diagnostic", DiagNoTOC)
	}
}

func TestParse_ChaptersSpanUntilNextTOC(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(page(1, "front matter."))
	sb.WriteString(page(2, toc("One")+"\ntwo."))
	sb.WriteString(page(3, "three."))
	sb.WriteString(page(4, "four."))
	sb.WriteString(page(5, toc("Two")+"\nfive."))
	sb.WriteString(page(6, "six."))

	b, _ := mustParse(t, New(DefaultOptions(), nil), sb.String())

	if len(b.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(b.Chapters))
	}
	tests := []struct {
		title string
		start int
		pages []int
	}{
		{"One", 2, []int{2, 3, 4}},
		{"Two", 5, []int{5, 6}},
	}
	for i, tt := range tests {
		ch := b.Chapters[i]
		if ch.Title != tt.title || ch.StartPage != tt.start || ch.Order != i+1 {
			t.Errorf("chapter %d: expected %q@%d, got %q@%d order %d", i, tt.title, tt.start, ch.Title, ch.StartPage, ch.Order)
		}
		got := ch.PageNumbers()
		if fmt.Sprint(got) != fmt.Sprint(tt.pages) {
			t.Errorf("chapter %d: expected pages %v, got %v", i, tt.pages, got)
		}
	}
	if len(b.Pages) != 6 {
		t.Errorf("expected 6 pages, got %d", len(b.Pages))
	}
}

func TestParse_FullTextRoundTrip(t *testing.T) {
	raw := page(1, toc("A")+"\nalpha<هامش>n</هامش>.") +
		page(2, "beta.") +
		page(3, toc("B")+"\ngamma.")

	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)

	parts := make([]string, 0, len(b.Chapters))
	for _, ch := range b.Chapters {
		parts = append(parts, ch.Content)
	}
	if got := strings.Join(parts, "\n\n"); got != b.FullText {
		t.Errorf("expected %q, got %q", b.FullText, got)
	}
	if strings.Contains(b.FullText, book.FootnoteMarker) {
		t.Error("full text must not contain rendered footnotes")
	}
}

func TestParse_FootnoteNumbering(t *testing.T) {
	raw := page(1, "x<هامش>first</هامش> y<هامش>  </هامش> z<هامش>second</هامش> w<هامش>third</هامش>.")
	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)

	notes := b.Page(1).Footnotes
	want := []string{"first", "second", "third"}
	if len(notes) != len(want) {
		t.Fatalf("expected %d footnotes, got %d", len(want), len(notes))
	}
	for i, n := range notes {
		if n.Number != i+1 || n.Text != want[i] {
			t.Errorf("footnote %d: expected [%d] %q, got [%d] %q", i, i+1, want[i], n.Number, n.Text)
		}
	}
}

func TestParse_UnterminatedFootnote(t *testing.T) {
	raw := page(1, "Prose start.<هامش>never closed\nmore prose.")
	b, diags := mustParse(t, New(DefaultOptions(), nil), raw)

	content := b.Page(1).Content
	if !strings.Contains(content, "Prose start.") || !strings.Contains(content, "more prose.") {
		t.Errorf("expected surrounding prose, got %q", content)
	}
	if len(b.Page(1).Footnotes) != 0 {
		t.Errorf("expected no footnotes, got %+v", b.Page(1).Footnotes)
	}
	if !diags.Has(DiagUnterminatedTag) {
		t.Errorf("expected %s diagnostic, got %v", DiagUnterminatedTag, diags)
	}
}

func TestParse_MultipleTOCEntriesOnePage(t *testing.T) {
	raw := page(1, toc("First")+"\ntext.\n"+toc("Second")) + page(2, "more.")
	b, diags := mustParse(t, New(DefaultOptions(), nil), raw)

	if len(b.Chapters) != 1 || b.Chapters[0].Title != "First" {
		t.Fatalf("expected a single chapter %q, got %d", "First", len(b.Chapters))
	}
	p := b.Page(1)
	if !p.HasTOCEntry || len(p.TOCEntries) != 2 || p.TOCEntries[1] != "Second" {
		t.Errorf("expected both entries recorded, got %q", p.TOCEntries)
	}
	if diags.Count(DiagExtraTOCEntries) != 1 {
		t.Errorf("expected one %s diagnostic, got %v", DiagExtraTOCEntries, diags)
	}
}

func TestParse_Metadata(t *testing.T) {
	raw := "<اسم الكتاب>Outside</اسم الكتاب>\n" + identity(strings.Join([]string{
		"<اسم الكتاب> الكافي </اسم الكتاب>",
		"<اسم المؤلف>الكليني</اسم المؤلف>",
		"<جزء>٣</جزء>",
		"<سنة الوفاة>329 هـ</سنة الوفاة>",
		"<مجموعة>الحديث</مجموعة>",
		"<الناشر>دار الكتب</الناشر>",
		"<مدينة الطبع>طهران</مدينة الطبع>",
		"<سنة الطبع>1363 ش</سنة الطبع>",
		"<طبعة>الثالثة</طبعة>",
	}, "\n"))

	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)
	m := b.Metadata

	if m.BookName != "الكافي" {
		t.Errorf("expected book name from identity block, got %q", m.BookName)
	}
	if m.Author != "الكليني" {
		t.Errorf("expected %q, got %q", "الكليني", m.Author)
	}
	if m.Volume == nil || *m.Volume != 3 {
		t.Errorf("expected volume 3, got %v", m.Volume)
	}
	if m.DeathYear == nil || *m.DeathYear != 329 {
		t.Errorf("expected death year 329, got %v", m.DeathYear)
	}
	if m.CategoryHint != "الحديث" || m.Publisher != "دار الكتب" || m.City != "طهران" {
		t.Errorf("unexpected text fields %+v", m)
	}
	if m.PrintYear != "1363 ش" || m.Edition != "الثالثة" {
		t.Errorf("unexpected print fields %q / %q", m.PrintYear, m.Edition)
	}
}

func TestParse_BadIntegerLeftUnset(t *testing.T) {
	raw := identity("<جزء>الأول</جزء>")
	b, diags := mustParse(t, New(DefaultOptions(), nil), raw)

	if b.Metadata.Volume != nil {
		t.Errorf("expected volume unset, got %d", *b.Metadata.Volume)
	}
	if !diags.Has(DiagBadInteger) {
		t.Errorf("expected %s diagnostic", DiagBadInteger)
	}
}

func TestParse_StrictVersusTolerant(t *testing.T) {
	v := tags.Variants("فهرس الموضوعات")[0]
	raw := page(1, "<"+v+">Garbled</"+v+">\nfirst.") +
		page(2, "<فهرس>Generic</فهرس>\nsecond &amp; last.")

	tb, _ := mustParse(t, New(DefaultOptions(), nil), raw)
	if len(tb.Chapters) != 2 || tb.Chapters[0].Title != "Garbled" || tb.Chapters[1].Title != "Generic" {
		t.Fatalf("tolerant: unexpected chapters %d", len(tb.Chapters))
	}
	if tb.Page(2).Content != "second & last." {
		t.Errorf("tolerant: expected decoded entity, got %q", tb.Page(2).Content)
	}

	sb, _ := mustParse(t, New(Options{Mode: ModeStrict}, nil), raw)
	if len(sb.Chapters) != 1 || sb.Chapters[0].Title != book.UntitledBook {
		t.Errorf("strict: expected one synthesized chapter, got %d", len(sb.Chapters))
	}
	if !strings.Contains(sb.Page(2).Content, "second &amp; last.") {
		t.Errorf("strict: expected raw entity, got %q", sb.Page(2).Content)
	}
}

func TestParse_MarkupStripping(t *testing.T) {
	raw := page(1, `see <ارتباط رقم="3">the chapter</ارتباط> and <b>bold</b>   text.`)
	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)

	if got := b.Page(1).Content; got != "see the chapter and bold text." {
		t.Errorf("expected %q, got %q", "see the chapter and bold text.", got)
	}
}

func TestParse_DuplicateAndOrphanPages(t *testing.T) {
	raw := "<ملحق=1>old.</ملحق=1>\n<ملحق=1>new.</ملحق=1>\n<صفحة>1</صفحة><صفحة>9</صفحة>"
	b, diags := mustParse(t, New(DefaultOptions(), nil), raw)

	if len(b.Pages) != 1 || b.Pages[0].Content != "new." {
		t.Fatalf("expected last attachment to win, got %+v", b.Pages)
	}
	if !diags.Has(DiagDuplicatePage) {
		t.Errorf("expected %s diagnostic", DiagDuplicatePage)
	}
	if diags.Count(DiagOrphanPageMarker) != 1 {
		t.Errorf("expected one %s diagnostic, got %v", DiagOrphanPageMarker, diags)
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	raw := "\uFEFF" + identity("<اسم الكتاب>X</اسم الكتاب>") + page(1, "text.")
	b, _ := mustParse(t, New(DefaultOptions(), nil), raw)
	if b.Metadata.BookName != "X" {
		t.Errorf("expected %q, got %q", "X", b.Metadata.BookName)
	}
}

func TestParse_InputTooLarge(t *testing.T) {
	e := New(Options{MaxInputBytes: 10}, nil)
	_, _, err := e.Parse(strings.Repeat("a", 11))

	var pf *ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected *ParseFailure, got %v", err)
	}
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestParse_ConcurrentUse(t *testing.T) {
	e := New(DefaultOptions(), nil)
	raw := page(1, toc("A")+"\nalpha.") + page(2, "beta.")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, _, err := e.Parse(raw)
			if err != nil || len(b.Chapters) != 1 {
				t.Errorf("unexpected result: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeTolerant, true},
		{"tolerant", ModeTolerant, true},
		{"STRICT", ModeStrict, true},
		{"loose", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
