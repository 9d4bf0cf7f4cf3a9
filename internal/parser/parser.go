// Package parser reads JSON input into value trees. Object key order and
// the exact spelling of numbers are preserved.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/mcncl/gotoon/internal/errors" // Custom errors package
	"github.com/mcncl/gotoon/internal/models"
)

// MaxDepth bounds container nesting in JSON input.
const MaxDepth = 1024

// Parse converts JSON data from an io.Reader into a value tree
func Parse(reader io.Reader) (models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes converts one JSON document into a value tree.
func ParseBytes(data []byte) (models.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.Value{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	raw, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return models.Value{}, syntaxError(data)
	}

	// Anything after the first value must be whitespace.
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		if json.Valid(rest) {
			return models.Value{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		}
		return models.Value{}, syntaxError(data)
	}
	if !json.Valid(data) {
		return models.Value{}, syntaxError(data)
	}

	return convert(dataType, raw, 0)
}

// syntaxError locates the first syntax problem in data.
func syntaxError(data []byte) error {
	var raw json.RawMessage
	err := json.Unmarshal(data, &raw)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxErr.Offset),
			errors.ErrInvalidJSON,
		)
	}
	return errors.NewParsingError("failed to decode JSON", errors.ErrInvalidJSON)
}

// convert builds a value from one jsonparser token. String payloads arrive
// still escaped; object keys arrive unescaped.
func convert(dataType jsonparser.ValueType, data []byte, depth int) (models.Value, error) {
	if depth > MaxDepth {
		return models.Value{}, errors.NewParsingError(
			fmt.Sprintf("JSON nesting exceeds %d levels", MaxDepth),
			errors.ErrDepthExceeded,
		)
	}

	switch dataType {
	case jsonparser.Null:
		return models.NewNull(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return models.Value{}, errors.NewParsingError("invalid boolean", errors.ErrInvalidJSON)
		}
		return models.NewBool(b), nil
	case jsonparser.Number:
		v, err := models.NewNumber(string(data))
		if err != nil {
			return models.Value{}, errors.NewParsingError(fmt.Sprintf("invalid number %q", data), errors.ErrInvalidJSON)
		}
		return v, nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return models.Value{}, errors.NewParsingError("invalid string escape", errors.ErrInvalidJSON)
		}
		return models.NewString(s), nil
	case jsonparser.Array:
		return convertArray(data, depth)
	case jsonparser.Object:
		return convertObject(data, depth)
	default:
		return models.Value{}, errors.NewParsingError("unknown JSON value", errors.ErrInvalidJSON)
	}
}

func convertArray(data []byte, depth int) (models.Value, error) {
	items := []models.Value{}
	var inner error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if inner != nil {
			return
		}
		if err != nil {
			inner = errors.NewParsingError("invalid array element", errors.ErrInvalidJSON)
			return
		}
		v, err := convert(dataType, value, depth+1)
		if err != nil {
			inner = err
			return
		}
		items = append(items, v)
	})
	if inner != nil {
		return models.Value{}, inner
	}
	if err != nil {
		return models.Value{}, errors.NewParsingError("invalid array", errors.ErrInvalidJSON)
	}
	return models.NewArray(items...), nil
}

func convertObject(data []byte, depth int) (models.Value, error) {
	fields := []models.Field{}
	seen := make(map[string]struct{})
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		k := string(key)
		if _, dup := seen[k]; dup {
			return errors.NewParsingError(fmt.Sprintf("duplicate key %q", k), errors.ErrDuplicateKey)
		}
		seen[k] = struct{}{}

		v, err := convert(dataType, value, depth+1)
		if err != nil {
			return err
		}
		fields = append(fields, models.F(k, v))
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			return models.Value{}, appErr
		}
		return models.Value{}, errors.NewParsingError("invalid object", errors.ErrInvalidJSON)
	}
	return models.NewObject(fields...), nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Value, error) {
	if strings.TrimSpace(jsonString) == "" {
		// Provide a specific error for truly empty or whitespace-only strings
		return models.Value{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseBytes([]byte(jsonString))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Value, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Value{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		// Check if the file doesn't exist
		if os.IsNotExist(err) {
			return models.Value{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Value{}, errors.NewInputError(
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
		return models.Value{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Value{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}
