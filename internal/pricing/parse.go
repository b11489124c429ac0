package pricing

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ParseAmount converts form text into a monetary amount. Empty, non-numeric,
// non-finite and negative inputs all yield zero.
func ParseAmount(raw string) float64 {
	return parseOrDefault(raw, 0)
}

// ParseWeight converts form text into kilograms with the same rules as ParseAmount.
func ParseWeight(raw string) float64 {
	return parseOrDefault(raw, 0)
}

func parseOrDefault(raw string, def float64) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return def
	}
	if strings.Count(value, ",") == 1 && !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || !finite(parsed) {
		return def
	}
	if parsed < 0 {
		return 0
	}
	return parsed
}

// RawNumber holds a form value that may arrive as a JSON number, a numeric
// string or null. The zero value means the field was absent.
type RawNumber struct {
	text  string
	valid bool
}

// NewRawNumber wraps text as a present form value.
func NewRawNumber(text string) RawNumber {
	return RawNumber{text: text, valid: true}
}

// RawFromFloat wraps a stored number as a present form value.
func RawFromFloat(v float64) RawNumber {
	return RawNumber{text: strconv.FormatFloat(v, 'f', -1, 64), valid: true}
}

// Present reports whether the field carried a non-blank value.
func (n RawNumber) Present() bool {
	return n.valid && strings.TrimSpace(n.text) != ""
}

// String returns the raw text as received.
func (n RawNumber) String() string {
	return n.text
}

// Amount parses the value with ParseAmount.
func (n RawNumber) Amount() float64 {
	if !n.valid {
		return 0
	}
	return ParseAmount(n.text)
}

// UnmarshalJSON accepts numbers, strings and null.
func (n *RawNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = RawNumber{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = RawNumber{text: s, valid: true}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		// booleans and objects are treated as unparsable text
		*n = RawNumber{text: string(trimmed), valid: true}
		return nil
	}
	*n = RawNumber{text: num.String(), valid: true}
	return nil
}

// MarshalJSON renders absent values as null and everything else as the raw text.
func (n RawNumber) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.text)
}
