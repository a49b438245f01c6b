package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"llm-market-analyst/internal/types"
)

// ParseError reports the first report field that could not be located
// or validated in the model's response.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("analysis response: field %s: %s", e.Field, e.Reason)
}

// Summaries longer than this are cut; the report is a compact artifact,
// not a transcript.
const maxSummaryLen = 500

// Parse extracts the structured report block from the model's free-form
// response. Field labels are matched case-insensitively anywhere in the
// text, tolerating markdown markers, currency symbols and thousands
// separators. A report is fully constructed or the first failing field
// is reported; the function touches no state and performs no I/O.
func Parse(raw, symbol string) (*types.AnalysisReport, error) {
	trend, err := parseEnum(raw, "Trend", []string{"Trend"}, map[string]bool{
		"BULLISH": true, "BEARISH": true, "NEUTRAL": true,
	})
	if err != nil {
		return nil, err
	}

	confidence, err := parseEnum(raw, "Confidence", []string{"Confidence"}, map[string]bool{
		"LOW": true, "MEDIUM": true, "HIGH": true,
	})
	if err != nil {
		return nil, err
	}

	support, err := parsePrice(raw, "Support", []string{"Support"})
	if err != nil {
		return nil, err
	}

	resistance, err := parsePrice(raw, "Resistance", []string{"Resistance"})
	if err != nil {
		return nil, err
	}

	if support.GreaterThan(resistance) {
		return nil, &ParseError{
			Field:  "Resistance",
			Reason: fmt.Sprintf("support %s exceeds resistance %s", support, resistance),
		}
	}

	avgVolume, err := parseVolume(raw, "Avg Volume", []string{"Avg Volume", "Average Volume"})
	if err != nil {
		return nil, err
	}

	volumeTrend, err := parseEnum(raw, "Volume Trend", []string{"Volume Trend"}, map[string]bool{
		"INCREASING": true, "DECREASING": true, "STABLE": true,
	})
	if err != nil {
		return nil, err
	}

	summary, err := parseSummary(raw)
	if err != nil {
		return nil, err
	}

	return &types.AnalysisReport{
		Symbol:      symbol,
		Trend:       types.Trend(trend),
		Confidence:  types.Confidence(confidence),
		Support:     support,
		Resistance:  resistance,
		AvgVolume:   avgVolume,
		VolumeTrend: types.VolumeTrend(volumeTrend),
		Summary:     summary,
	}, nil
}

// A label only counts when it follows the start of the text, a
// separator, or markdown markers — so "Volume Trend:" never satisfies a
// search for "Trend:". The model may answer as separate lines or as one
// comma-separated block; both shapes land here.
const labelGuard = `(?i)(?:^|[,;.\n]|\*\*)\s*(?:[-*>#]+\s*)?(?:\*\*)?`

const (
	enumValue    = `([A-Za-z][A-Za-z ]*)`
	numericValue = `((?:[₹$€£]\s*|Rs\.?\s*|INR\s*)?-?[\d,]*\.?\d+)`
	lineValue    = `([^\n]+)`
)

// fieldValue locates "<label>: <value>" under any of the accepted label
// spellings, capturing the value with the field-specific pattern.
func fieldValue(raw string, labels []string, valuePattern string) (string, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(labelGuard + regexp.QuoteMeta(label) + `(?:\*\*)?\s*[:=]\s*` + valuePattern)
		if m := re.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func parseEnum(raw, field string, labels []string, allowed map[string]bool) (string, error) {
	v, ok := fieldValue(raw, labels, enumValue)
	if !ok {
		return "", &ParseError{Field: field, Reason: "not found in response"}
	}
	norm := strings.ToUpper(strings.Trim(v, " .*`\""))
	if !allowed[norm] {
		return "", &ParseError{Field: field, Reason: fmt.Sprintf("value %q outside allowed set", v)}
	}
	return norm, nil
}

func parsePrice(raw, field string, labels []string) (decimal.Decimal, error) {
	v, ok := fieldValue(raw, labels, numericValue)
	if !ok {
		return decimal.Zero, &ParseError{Field: field, Reason: "not found in response"}
	}
	d, err := decimal.NewFromString(cleanNumber(v))
	if err != nil {
		return decimal.Zero, &ParseError{Field: field, Reason: fmt.Sprintf("cannot parse %q as a decimal", v)}
	}
	if d.IsNegative() {
		return decimal.Zero, &ParseError{Field: field, Reason: fmt.Sprintf("negative value %s", d)}
	}
	return d, nil
}

func parseVolume(raw, field string, labels []string) (int64, error) {
	v, ok := fieldValue(raw, labels, numericValue)
	if !ok {
		return 0, &ParseError{Field: field, Reason: "not found in response"}
	}
	d, err := decimal.NewFromString(cleanNumber(v))
	if err != nil {
		return 0, &ParseError{Field: field, Reason: fmt.Sprintf("cannot parse %q as an integer", v)}
	}
	if d.IsNegative() {
		return 0, &ParseError{Field: field, Reason: fmt.Sprintf("negative value %s", d)}
	}
	return d.IntPart(), nil
}

func parseSummary(raw string) (string, error) {
	v, ok := fieldValue(raw, []string{"Summary"}, lineValue)
	if !ok {
		return "", &ParseError{Field: "Summary", Reason: "not found in response"}
	}
	v = strings.Trim(v, ` "'`)
	if v == "" {
		return "", &ParseError{Field: "Summary", Reason: "empty"}
	}
	if len(v) > maxSummaryLen {
		v = v[:maxSummaryLen]
	}
	return v, nil
}

// cleanNumber strips currency prefixes, thousands separators and
// surrounding noise from a numeric field.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"₹", "$", "€", "£", "Rs.", "Rs", "INR", "USD"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	// Drop trailing prose ("1342.80 approx")
	if i := strings.IndexAny(s, " \t("); i > 0 {
		s = s[:i]
	}
	return s
}
