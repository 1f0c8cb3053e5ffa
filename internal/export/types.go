// Package export renders client status reports as Markdown or HTML.
package export

import (
	"errors"
)

// Format represents the export output format
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Request contains parameters for an export operation
type Request struct {
	ClientID         string
	Format           Format
	IncludeDocuments bool
	// IncludeDone lists Done subtasks as well as open ones.
	IncludeDone bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat indicates the requested format has no renderer.
	ErrUnsupportedFormat = errors.New("export format unsupported")
)
