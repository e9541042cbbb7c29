package decoder

import (
	"errors"
	"io"
	"sort"

	"github.com/go-json-experiment/json/jsontext"

	apperrors "github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
)

// lineTracker records the offsets of newlines read from the input so that
// byte offsets can be mapped to line and column.
type lineTracker struct {
	r        io.Reader
	read     int64
	newlines []int64
}

func (t *lineTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == '\n' {
			t.newlines = append(t.newlines, t.read+int64(i))
		}
	}
	t.read += int64(n)
	return n, err
}

func (t *lineTracker) position(offset int64) *models.Position {
	// Number of newlines strictly before offset.
	line := sort.Search(len(t.newlines), func(i int) bool {
		return t.newlines[i] >= offset
	})
	lineStart := int64(0)
	if line > 0 {
		lineStart = t.newlines[line-1] + 1
	}
	return &models.Position{
		Offset: offset,
		Line:   line + 1,
		Column: int(offset-lineStart) + 1,
	}
}

// token is a detached copy of a jsontext.Token.
type token struct {
	kind jsontext.Kind
	text string // string value, or the literal of a number
}

func (t token) describe() string {
	switch t.kind {
	case '"':
		return "string"
	case '0':
		return "number " + t.text
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	case '{':
		return "'{'"
	case '}':
		return "'}'"
	case '[':
		return "'['"
	case ']':
		return "']'"
	default:
		return "invalid token"
	}
}

// tokenStream reads tokens and allows one token to be pushed back.
type tokenStream struct {
	dec     *jsontext.Decoder
	lines   *lineTracker
	pending *token
	offset  int64
}

func newTokenStream(r io.Reader) *tokenStream {
	lines := &lineTracker{r: r}
	// Repeated names are accepted; the last value wins.
	return &tokenStream{dec: jsontext.NewDecoder(lines, jsontext.AllowDuplicateNames(true)), lines: lines}
}

// next returns the next token. Syntax errors surface as UnexpectedToken,
// failures of the underlying reader as input errors.
func (s *tokenStream) next() (token, error) {
	if s.pending != nil {
		tok := *s.pending
		s.pending = nil
		return tok, nil
	}
	jt, err := s.dec.ReadToken()
	if err != nil {
		return token{}, s.wrap(err)
	}
	s.offset = s.dec.InputOffset()
	tok := token{kind: jt.Kind()}
	if tok.kind == '"' || tok.kind == '0' {
		tok.text = jt.String()
	}
	return tok, nil
}

// pushBack makes tok the result of the next call to next.
func (s *tokenStream) pushBack(tok token) {
	s.pending = &tok
}

// pos returns the position just past the most recent token.
func (s *tokenStream) pos() *models.Position {
	return s.lines.position(s.offset)
}

func (s *tokenStream) wrap(err error) error {
	var syntaxErr *jsontext.SyntacticError
	switch {
	case errors.As(err, &syntaxErr):
		return apperrors.New(apperrors.ErrorTypeUnexpectedToken,
			s.lines.position(syntaxErr.ByteOffset), "invalid JSON", syntaxErr.Err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.New(apperrors.ErrorTypeUnexpectedToken,
			s.lines.position(s.lines.read), "unexpected end of input", err)
	case errors.Is(err, io.EOF):
		return err
	default:
		return apperrors.NewInputError("failed to read input", err)
	}
}
