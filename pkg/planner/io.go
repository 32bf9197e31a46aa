package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arnavshah/trip-planner-go/pkg/normalize"
)

var (
	// ErrReadInput is returned when the input file cannot be read
	ErrReadInput = errors.New("planner: cannot read input")

	// ErrWriteOutput is returned when an output file cannot be written
	ErrWriteOutput = errors.New("planner: cannot write output")
)

// Format selects the input document decoder
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FormatFromContentType picks YAML for yaml media types and JSON otherwise
func FormatFromContentType(contentType string) Format {
	if strings.Contains(strings.ToLower(contentType), "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Decode parses raw into an input document
func Decode(raw []byte, format Format) (*normalize.Document, error) {
	if format == FormatYAML {
		return normalize.DecodeYAML(raw)
	}
	return normalize.DecodeJSON(raw)
}

// ReadInput loads an input file and guesses its format from the extension
func ReadInput(path string) ([]byte, Format, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatJSON, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return raw, FormatFromPath(path), nil
}

// WriteOutput writes v as indented JSON
func WriteOutput(path string, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
