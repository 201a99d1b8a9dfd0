package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dataprobe/domain/table"
)

// TypeCoercer turns raw cell text into typed values and infers a kind per column
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64 `json:"numeric_threshold"`   // share of non-null cells that must parse as numbers
	TimestampThreshold float64 `json:"timestamp_threshold"` // share of non-null cells that must parse as timestamps
	NormalizeStrings   bool    `json:"normalize_strings"`   // collapse inner whitespace in text cells
	DayFirst           bool    `json:"day_first"`           // read 02/01/2006 as 2 January
}

// DefaultCoercionConfig requires every non-null cell of a column to agree on a type.
// Lower thresholds turn the cells that do not parse into nulls.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   1.0,
		TimestampThreshold: 1.0,
		NormalizeStrings:   false,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// nullTokens are read as missing cells
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
	"-nan": {},
	"#NA":  {},
}

// IsNull reports whether a raw cell is a missing-value token
func IsNull(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int        `json:"total_count"`
	ValidCount      int        `json:"valid_count"`
	NumericCount    int        `json:"numeric_count"`
	TimestampCount  int        `json:"timestamp_count"`
	NumericRatio    float64    `json:"numeric_ratio"`
	TimestampRatio  float64    `json:"timestamp_ratio"`
	RecommendedType table.Kind `json:"recommended_type"`
}

// AnalyzeTypeDistribution counts how many non-null cells parse as each type
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}

	for _, raw := range values {
		if IsNull(raw) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.ParseNumber(raw); ok {
			analysis.NumericCount++
		}
		if _, ok := c.ParseTimestamp(raw); ok {
			analysis.TimestampCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// determineRecommendedType checks thresholds, most restrictive first
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) table.Kind {
	if analysis.ValidCount == 0 {
		return table.KindText
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return table.KindNumeric
	}
	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return table.KindDatetime
	}
	return table.KindText
}

// CoerceColumn infers the column kind and converts every cell to it
func (c *TypeCoercer) CoerceColumn(name string, raw []string) (*table.Column, TypeAnalysis, error) {
	analysis := c.AnalyzeTypeDistribution(raw)
	kind := analysis.RecommendedType

	values := make([]table.Value, len(raw))
	for i, cell := range raw {
		values[i] = c.CoerceValue(cell, kind)
	}
	col, err := table.NewColumn(name, kind, values)
	return col, analysis, err
}

// CoerceValue converts one raw cell to the given kind. Cells that do not parse become null.
func (c *TypeCoercer) CoerceValue(raw string, kind table.Kind) table.Value {
	if IsNull(raw) {
		return table.NullValue(kind)
	}
	switch kind {
	case table.KindNumeric:
		if f, ok := c.ParseNumber(raw); ok {
			return table.NumberValue(f)
		}
	case table.KindDatetime:
		if t, ok := c.ParseTimestamp(raw); ok {
			return table.TimeValue(t)
		}
	default:
		return table.TextValue(c.normalizeString(raw))
	}
	return table.NullValue(kind)
}

var currencySymbols = []string{"R$", "$", "€", "£", "¥", "USD", "EUR", "GBP", "BRL", "JPY"}

// ParseNumber parses a number. Handles parentheses for negatives, currency symbols,
// percent signs and European separators (1.234,56).
func (c *TypeCoercer) ParseNumber(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range currencySymbols {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(strings.TrimSuffix(cleanVal, "%"))
	if cleanVal == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		periodIdx := strings.LastIndex(cleanVal, ".")
		afterComma := cleanVal[commaIdx+1:]
		if commaIdx > periodIdx && len(afterComma) <= 3 && allDigits(afterComma) {
			// 1.234,56 or 1 234,56
			cleanVal = strings.NewReplacer(".", "", " ", "", ",", ".").Replace(cleanVal)
		} else {
			// 1,234.56
			cleanVal = strings.NewReplacer(",", "", " ", "").Replace(cleanVal)
		}
	case hasComma:
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var (
	monthFirstFormats = []string{
		"01/02/2006",
		"1/2/2006",
		"01/02/2006 15:04",
		"01/02/2006 15:04:05",
		"1/2/06 15:04",
		"01-02-06",
	}
	dayFirstFormats = []string{
		"02/01/2006",
		"2/1/2006",
		"02/01/2006 15:04",
		"02/01/2006 15:04:05",
		"2/1/06 15:04",
		"02-01-06",
	}
	isoFormats = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"02-Jan-2006",
		"Jan 2, 2006",
	}
)

// ParseTimestamp tries the supported layouts; values without zone are read as UTC
func (c *TypeCoercer) ParseTimestamp(raw string) (time.Time, bool) {
	strVal := strings.TrimSpace(raw)
	if strVal == "" {
		return time.Time{}, false
	}

	local := monthFirstFormats
	if c.config.DayFirst {
		local = dayFirstFormats
	}
	for _, formats := range [][]string{isoFormats, local} {
		for _, format := range formats {
			if t, err := time.ParseInLocation(format, strVal, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeString trims text cells and, when configured, collapses inner whitespace
func (c *TypeCoercer) normalizeString(s string) string {
	s = strings.TrimSpace(s)
	if c.config.NormalizeStrings {
		s = whitespaceRun.ReplaceAllString(s, " ")
	}
	return s
}
