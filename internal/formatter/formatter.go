// Package formatter re-lays out JSON text without changing its content.
package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
)

// Formatter is responsible for laying out JSON output
type Formatter struct {
	indent string
}

// NewFormatter creates a Formatter. An empty indent produces compact
// output; anything else produces one member or element per line.
func NewFormatter(indent string) *Formatter {
	return &Formatter{indent: indent}
}

// Format takes JSON text and returns it laid out according to f. Several
// top-level values are kept, one per line.
func (f *Formatter) Format(input string) (string, error) {
	// Handle empty input
	if strings.TrimSpace(input) == "" {
		return "", nil
	}

	var opts []jsontext.Options
	if f.indent != "" {
		opts = append(opts, jsontext.Multiline(true), jsontext.WithIndent(f.indent))
	}

	var buf bytes.Buffer
	dec := jsontext.NewDecoder(strings.NewReader(input))
	enc := jsontext.NewEncoder(&buf, opts...)
	for {
		tok, err := dec.ReadToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse JSON: %w", err)
		}
		if err := enc.WriteToken(tok); err != nil {
			return "", fmt.Errorf("failed to write JSON: %w", err)
		}
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
