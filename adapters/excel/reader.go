package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"dataprobe/adapters/datareadiness/coercer"
	"dataprobe/domain/core"
	"dataprobe/domain/table"
	"dataprobe/internal"
)

// DataReader parses uploaded CSV and XLSX bytes into a typed table
type DataReader struct {
	config  LoaderConfig
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewDataReader creates a reader; a nil logger discards output
func NewDataReader(config LoaderConfig, logger *internal.Logger) *DataReader {
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		logger:  logger.With("loader"),
	}
}

// Load reads src in the declared format. It either returns a complete table or a
// *ParseError; no partial table is ever produced.
func (r *DataReader) Load(ctx context.Context, src io.Reader, format Format) (*table.Table, error) {
	startTime := time.Now()

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = r.readCSVRows(src)
	case FormatXLSX:
		rows, err = r.readExcelRows(src)
	default:
		return nil, &ParseError{Format: format, Kind: core.ErrUnsupportedFormat}
	}
	if err != nil {
		r.logger.Warn("failed to read %s upload: %v", format, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := r.processRows(format, rows)
	if err != nil {
		r.logger.Warn("failed to process %s upload: %v", format, err)
		return nil, err
	}

	r.logger.Info("%s file processed (%d columns, %d rows) in %.2fms",
		strings.ToUpper(string(format)), t.NumColumns(), t.NumRows(), float64(time.Since(startTime).Nanoseconds())/1e6)
	return t, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText normalises upload bytes to UTF-8. BOM-marked input is decoded by its BOM,
// valid UTF-8 is kept, anything else is read as Windows-1252.
func decodeText(data []byte) ([]byte, string, error) {
	if bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return out, "bom", err
	}
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	return out, "windows-1252", err
}

// readCSVRows decodes and splits CSV input into raw records
func (r *DataReader) readCSVRows(src io.Reader) ([][]string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Kind: core.ErrMalformed, Cause: err}
	}
	decoded, charset, err := decodeText(data)
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Kind: core.ErrMalformed, Cause: fmt.Errorf("decode text: %w", err)}
	}
	r.logger.Debug("CSV upload decoded as %s (%d bytes)", charset, len(decoded))

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = r.config.Delimiter
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			row := 0
			var csvErr *csv.ParseError
			if stderrors.As(err, &csvErr) {
				row = csvErr.Line
			}
			return nil, &ParseError{Format: FormatCSV, Row: row, Kind: core.ErrMalformed, Cause: err}
		}
		rows = append(rows, record)
		if r.config.MaxRows > 0 && len(rows) > r.config.MaxRows {
			return nil, &ParseError{Format: FormatCSV, Kind: core.ErrMalformed, Cause: fmt.Errorf("more than %d data rows", r.config.MaxRows)}
		}
	}
	return rows, nil
}

// readExcelRows reads the first worksheet; other sheets are ignored
func (r *DataReader) readExcelRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Kind: core.ErrMalformed, Cause: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Kind: core.ErrEmptyFile}
	}
	if len(sheets) > 1 {
		r.logger.Debug("workbook has %d sheets, reading %q only", len(sheets), sheets[0])
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Kind: core.ErrMalformed, Cause: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	if r.config.MaxRows > 0 && len(rows) > r.config.MaxRows+1 {
		return nil, &ParseError{Format: FormatXLSX, Kind: core.ErrMalformed, Cause: fmt.Errorf("more than %d data rows", r.config.MaxRows)}
	}
	return rows, nil
}

// processRows turns raw records (header first) into typed columns
func (r *DataReader) processRows(format Format, rows [][]string) (*table.Table, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, &ParseError{Format: format, Kind: core.ErrEmptyFile}
	}

	headers := normalizeHeaders(rows[0])
	data := rows[1:]

	cells := make([][]string, len(headers))
	for j := range cells {
		cells[j] = make([]string, len(data))
	}
	for i, row := range data {
		if len(row) > len(headers) && !blank(row[len(headers):]) {
			return nil, &ParseError{
				Format: format,
				Row:    i + 2,
				Kind:   core.ErrMalformed,
				Cause:  fmt.Errorf("expected %d fields, found %d", len(headers), len(row)),
			}
		}
		for j := range headers {
			if j < len(row) {
				cells[j][i] = row[j]
			}
		}
	}

	columns := make([]*table.Column, len(headers))
	for j, name := range headers {
		col, analysis, err := r.coercer.CoerceColumn(name, cells[j])
		if err != nil {
			return nil, &ParseError{Format: format, Kind: core.ErrMalformed, Cause: err}
		}
		r.logger.Trace("column %q inferred as %s (numeric %.2f, timestamp %.2f of %d values)",
			name, col.Kind, analysis.NumericRatio, analysis.TimestampRatio, analysis.ValidCount)
		columns[j] = col
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, &ParseError{Format: format, Kind: core.ErrMalformed, Cause: err}
	}
	return t, nil
}

// normalizeHeaders trims names, fills blanks with "Unnamed: i" and suffixes duplicates
func normalizeHeaders(row []string) []string {
	headers := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, raw := range row {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for n := seen[base]; ; n++ {
			if n > 0 {
				name = fmt.Sprintf("%s.%d", base, n)
			}
			if _, taken := seen[name]; !taken {
				seen[base] = n + 1
				break
			}
		}
		seen[name] = max(seen[name], 1)
		headers[i] = name
	}
	return headers
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		if !blank(row) {
			out = append(out, row)
		}
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
