package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/stwalsh4118/projectmap/internal/geo"
)

// Coordinate is a latitude or longitude as it appears in the dataset.
// The source data mixes JSON numbers, numeric strings, free text and null,
// so the raw text is kept and parsed on demand.
type Coordinate string

// UnmarshalJSON accepts numbers, strings and null. Any other JSON value
// decodes to an empty coordinate instead of failing the whole payload.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	raw, err := decodeLoose(data)
	if err != nil {
		return err
	}
	*c = Coordinate(raw)
	return nil
}

// MarshalJSON emits a JSON number when the coordinate parses, the raw
// string when it does not, and null when it is empty.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if v, ok := c.Float(); ok {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// Float parses the coordinate.
func (c Coordinate) Float() (float64, bool) {
	return geo.ParseCoordinate(string(c))
}

// String returns the raw text.
func (c Coordinate) String() string {
	return string(c)
}

// FlexString is a scalar field that may arrive as a string, a number or null
// (project ids, lookup ids, unit counts).
type FlexString string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw, err := decodeLoose(data)
	if err != nil {
		return err
	}
	*f = FlexString(raw)
	return nil
}

// String returns the textual value.
func (f FlexString) String() string {
	return string(f)
}

// decodeLoose turns a scalar JSON value into its textual form. Objects and
// arrays decode to "".
func decodeLoose(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", nil
	case 't', 'f':
		return string(trimmed), nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}
