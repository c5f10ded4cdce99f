package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// XZParser decompresses an .xz stream and hands it to Inner.
type XZParser struct {
	Inner Parser
}

func (p *XZParser) Parse(r io.Reader, filename string) (*Result, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xz stream: %w", err)
	}
	if strings.EqualFold(filepath.Ext(filename), ".xz") {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return p.Inner.Parse(xr, filename)
}
