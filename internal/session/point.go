package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a vote or estimate value. Numbers travel as JSON numbers; custom
// cards such as "?" travel as strings and are kept verbatim.
type Point string

// Numeric reports the value of p when it is a finite number.
func (p Point) Numeric() (float64, bool) {
	f, err := strconv.ParseFloat(string(p), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// MarshalJSON writes a value in JSON number syntax as that number, text
// unchanged, so large or precise estimates survive the round trip.
func (p Point) MarshalJSON() ([]byte, error) {
	if isJSONNumber(string(p)) {
		return []byte(p), nil
	}
	return json.Marshal(string(p))
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s)) && strings.TrimSpace(s) == s
}

func (p *Point) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Point(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("point must be a number or a string: %w", err)
	}
	*p = Point(n.String())
	return nil
}
