package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/bookgest/internal/abx"
)

// ABXParser handles .abx legacy book documents.
type ABXParser struct {
	Engine *abx.Engine // nil uses tolerant defaults
}

// Parse reads at most one byte past the engine's input limit, so a
// decompressing reader cannot expand beyond it.
func (p *ABXParser) Parse(r io.Reader, filename string) (*Result, error) {
	engine := p.Engine
	if engine == nil {
		engine = abx.New(abx.DefaultOptions(), nil)
	}

	limit := engine.MaxInputBytes()
	src, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("read abx: %w", err)
	}
	if len(src) > limit {
		return nil, &abx.ParseFailure{
			BookName: titleFromFilename(filename),
			Err:      fmt.Errorf("%w: more than %d bytes", abx.ErrInputTooLarge, limit),
		}
	}

	b, diags, err := engine.Parse(string(src))
	if err != nil {
		return nil, err
	}
	return &Result{Book: b, Diagnostics: diags}, nil
}
