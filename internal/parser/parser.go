// Package parser reads a single JSON document from a file, a string or a
// stream and decodes it generically.
package parser

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/mcncl/typedjson/internal/decoder"
	"github.com/mcncl/typedjson/internal/errors"
	"github.com/mcncl/typedjson/internal/models"
)

// Options controls how input is read.
type Options struct {
	// AllowComments strips // and /* */ comments and trailing commas
	// before decoding.
	AllowComments bool
	// Decoder holds options passed through to the decoder.
	Decoder []decoder.Option
}

// Parse decodes the single JSON value read from reader.
func Parse(reader io.Reader, opts Options) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewInputError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}
	if opts.AllowComments {
		data = jsonc.ToJSON(data)
	}

	dec := decoder.New(bytes.NewReader(data), opts.Decoder...)
	root, err := dec.DecodeType(nil)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			// Only comments were present
			return models.Document{}, errors.NewInputError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return models.Document{}, err
	}

	// A second value means the input was not a single document
	if _, err := dec.DecodeType(nil); !stderrors.Is(err, io.EOF) {
		if err != nil {
			return models.Document{}, errors.NewInputError("invalid trailing data after first JSON value", err)
		}
		return models.Document{}, errors.NewInputError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}

	doc := models.Document{Root: root}
	if root != nil {
		doc.RootIsArray = reflect.TypeOf(root).Kind() == reflect.Slice
	}
	return doc, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string, opts Options) (models.Document, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Document{}, errors.NewInputError("input string is empty or consists only of whitespace", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString), opts)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string, opts Options) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	// Check for empty file before parsing
	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file, opts)
}
