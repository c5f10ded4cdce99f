// Package tags locates tag-delimited spans in legacy book documents.
//
// Tag names may carry arbitrary whitespace around the name, inside the angle
// brackets and between the words of a multi-word name. Each logical field has
// an ordered list of spellings; the canonical one is tried first and, when
// variants are enabled, the historically corrupted spellings follow.
// Missing or malformed tags are never an error: lookups simply return nothing.
package tags

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Field is a logical tag with its candidate spellings, canonical first.
type Field struct {
	Name      string
	Spellings []string
	// Prefix matches any tag whose name starts with the spelling,
	// e.g. "فهرس" also matches "فهرس الموضوعات".
	Prefix bool
}

// Extractor finds spans for Fields. The zero value only tries the spellings
// listed on each Field.
type Extractor struct {
	// Variants adds mojibake spellings after the listed ones.
	Variants bool
}

// KeyedSpan is a span whose tag name carries a numeric key, as in
// <name=12>body</name=12>.
type KeyedSpan struct {
	Key  int
	Body string
}

var anyTagRe = regexp.MustCompile(`<[^>]+>`)

// Candidates returns the spellings tried for f, in order.
func (e Extractor) Candidates(f Field) []string {
	if !e.Variants {
		return f.Spellings
	}
	out := make([]string, 0, len(f.Spellings)*3)
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range f.Spellings {
		add(s)
	}
	for _, s := range f.Spellings {
		for _, v := range Variants(s) {
			add(v)
		}
	}
	return out
}

// First returns the trimmed body of the first non-empty span of f in text.
func (e Extractor) First(text string, f Field) (string, bool) {
	for _, sp := range e.Candidates(f) {
		re := pairRegexp(sp, f.Prefix)
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if body := strings.TrimSpace(m[1]); body != "" {
				return body, true
			}
		}
	}
	return "", false
}

// All returns the trimmed, non-empty bodies of every non-overlapping span of
// f in source order. The first spelling that yields anything wins.
func (e Extractor) All(text string, f Field) []string {
	for _, sp := range e.Candidates(f) {
		re := pairRegexp(sp, f.Prefix)
		var out []string
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if body := strings.TrimSpace(m[1]); body != "" {
				out = append(out, body)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Remove deletes every complete span of f, under any spelling, body included.
func (e Extractor) Remove(text string, f Field) string {
	for _, sp := range e.Candidates(f) {
		text = pairRegexp(sp, f.Prefix).ReplaceAllString(text, "")
	}
	return text
}

// Unwrap deletes the opening and closing tags of f but keeps their contents.
// Tags of f may carry attributes.
func (e Extractor) Unwrap(text string, f Field) string {
	for _, sp := range e.Candidates(f) {
		text = unwrapRegexp(sp).ReplaceAllString(text, "")
	}
	return text
}

// Unterminated counts opening tags of f that have no matching close.
func (e Extractor) Unterminated(text string, f Field) int {
	n := 0
	for _, sp := range e.Candidates(f) {
		opens := len(openRegexp(sp, f.Prefix).FindAllStringIndex(text, -1))
		pairs := len(pairRegexp(sp, f.Prefix).FindAllStringIndex(text, -1))
		if opens > pairs {
			n += opens - pairs
		}
	}
	return n
}

// Keyed returns spans of the form <name=N>body</name=N>. Each opening tag is
// paired with the next closing tag carrying the same key; an opening tag with
// no such close is skipped. Spans with an empty body are dropped. The first
// spelling that yields anything wins.
func (e Extractor) Keyed(text string, f Field) []KeyedSpan {
	for _, sp := range e.Candidates(f) {
		if spans := keyed(text, sp); len(spans) > 0 {
			return spans
		}
	}
	return nil
}

func keyed(text, spelling string) []KeyedSpan {
	openRe, closeRe := keyedRegexps(spelling)
	opens := openRe.FindAllStringSubmatchIndex(text, -1)
	if len(opens) == 0 {
		return nil
	}
	closes := closeRe.FindAllStringSubmatchIndex(text, -1)

	var out []KeyedSpan
	cursor := 0
	for _, o := range opens {
		if o[0] < cursor {
			continue
		}
		key, ok := Int(text[o[2]:o[3]])
		if !ok {
			continue
		}
		for _, c := range closes {
			if c[0] < o[1] {
				continue
			}
			if ck, ok := Int(text[c[2]:c[3]]); !ok || ck != key {
				continue
			}
			if body := text[o[1]:c[0]]; body != "" {
				out = append(out, KeyedSpan{Key: key, Body: body})
			}
			cursor = c[1]
			break
		}
	}
	return out
}

// StripAll removes any remaining tag syntax.
func StripAll(text string) string {
	return anyTagRe.ReplaceAllString(text, "")
}

// Int parses the leading integer of a tag body. ASCII, Arabic-Indic and
// Extended Arabic-Indic digits are accepted; trailing text is ignored.
func Int(s string) (int, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
scan:
	for i, r := range s {
		switch {
		case i == 0 && (r == '-' || r == '+'):
			b.WriteRune(r)
			continue
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			continue
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
			continue
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
			continue
		}
		break scan
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

var reCache sync.Map // string -> *regexp.Regexp

func cached(key string, build func() string) *regexp.Regexp {
	if re, ok := reCache.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := reCache.LoadOrStore(key, regexp.MustCompile(build()))
	return re.(*regexp.Regexp)
}

// namePattern allows any whitespace between the words of a spelling.
func namePattern(spelling string, prefix bool) string {
	words := strings.FieldsFunc(spelling, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	p := strings.Join(words, `\s+`)
	if prefix {
		p += `[^>]*?`
	}
	return p
}

func pairRegexp(spelling string, prefix bool) *regexp.Regexp {
	return cached("pair\x00"+strconv.FormatBool(prefix)+"\x00"+spelling, func() string {
		name := namePattern(spelling, prefix)
		return `(?is)<\s*` + name + `\s*>(.*?)<\s*/\s*` + name + `\s*>`
	})
}

func openRegexp(spelling string, prefix bool) *regexp.Regexp {
	return cached("open\x00"+strconv.FormatBool(prefix)+"\x00"+spelling, func() string {
		return `(?i)<\s*` + namePattern(spelling, prefix) + `\s*>`
	})
}

func unwrapRegexp(spelling string) *regexp.Regexp {
	return cached("unwrap\x00"+spelling, func() string {
		name := namePattern(spelling, false)
		return `(?i)<\s*/?\s*` + name + `[^>]*>`
	})
}

func keyedRegexps(spelling string) (*regexp.Regexp, *regexp.Regexp) {
	name := namePattern(spelling, false)
	open := cached("kopen\x00"+spelling, func() string {
		return `(?i)<\s*` + name + `\s*=\s*([0-9٠-٩۰-۹]+)\s*>`
	})
	close := cached("kclose\x00"+spelling, func() string {
		return `(?i)<\s*/\s*` + name + `\s*=\s*([0-9٠-٩۰-۹]+)\s*>`
	})
	return open, close
}
