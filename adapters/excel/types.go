package excel

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"dataprobe/domain/core"
)

// Format discriminates the supported upload encodings
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Export artifact names
const (
	ExportCSVName  = "dados_filtrados.csv"
	ExportXLSXName = "dados_filtrados.xlsx"
)

// DetectFormat picks the format from the file extension, falling back to the content type
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		switch {
		case mediaType == "text/csv", mediaType == "application/csv", mediaType == "text/plain":
			return FormatCSV, nil
		case mediaType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
			return FormatXLSX, nil
		}
	}
	return "", &ParseError{Format: "", Kind: core.ErrUnsupportedFormat, Cause: fmt.Errorf("file %q (%s)", filename, contentType)}
}

// ParseError reports why an upload could not become a table. It wraps one of the
// core load sentinels (ErrEmptyFile, ErrUnsupportedFormat, ErrMalformed).
type ParseError struct {
	Format Format
	Row    int // 1-based source row, 0 when unknown
	Kind   error
	Cause  error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Format != "" {
		msg = string(e.Format) + " " + msg
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
