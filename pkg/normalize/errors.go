package normalize

import "errors"

var (
	// ErrUnsupportedSchema is returned when the schema tag is missing or not InputSchema
	ErrUnsupportedSchema = errors.New("normalize: unsupported schema")

	// ErrInvalidScope is returned when scope dates are missing, invalid or inverted
	ErrInvalidScope = errors.New("normalize: invalid scope")

	// ErrMalformedDocument is returned when the document cannot be decoded at all
	ErrMalformedDocument = errors.New("normalize: malformed document")
)
