package abx

import (
	"fmt"
	"strings"
)

// Mode selects how forgiving the engine is toward malformed sources.
type Mode int

const (
	// ModeTolerant accepts mojibake tag spellings, any فهرس... tag as a TOC
	// marker, HTML entities in prose and unnormalised Unicode.
	ModeTolerant Mode = iota
	// ModeStrict accepts canonical spellings and the exact TOC tag only.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeTolerant:
		return "tolerant"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "strict" or "tolerant" into a Mode. Empty selects tolerant.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tolerant":
		return ModeTolerant, nil
	case "strict":
		return ModeStrict, nil
	default:
		return 0, fmt.Errorf("unknown parse mode %q", s)
	}
}

// DefaultHeadingPhrases begin a new paragraph when they start a line.
var DefaultHeadingPhrases = []string{"سؤال", "السؤال", "الجواب", "جواب", "Question", "Answer"}

// DefaultMaxInputBytes bounds the size of a single document.
const DefaultMaxInputBytes = 64 << 20

// Options configures an Engine.
type Options struct {
	Mode Mode
	// MaxInputBytes rejects larger documents with ErrInputTooLarge.
	// Zero or negative uses DefaultMaxInputBytes.
	MaxInputBytes int
	// HeadingPhrases overrides DefaultHeadingPhrases when non-nil.
	HeadingPhrases []string
}

// DefaultOptions returns tolerant-mode options.
func DefaultOptions() Options {
	return Options{
		Mode:          ModeTolerant,
		MaxInputBytes: DefaultMaxInputBytes,
	}
}

func (o Options) maxInput() int {
	if o.MaxInputBytes <= 0 {
		return DefaultMaxInputBytes
	}
	return o.MaxInputBytes
}

func (o Options) headingPhrases() []string {
	if o.HeadingPhrases != nil {
		return o.HeadingPhrases
	}
	return DefaultHeadingPhrases
}
