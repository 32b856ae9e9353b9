package validation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field messages for values that cannot be converted.
const (
	MsgInvalidNumber = "A valid number is required."
	msgIncorrectPK   = "Incorrect type. Expected pk value, received %s."
)

// Number is a decimal given as a JSON number or a numeric string. A value
// that does not parse is kept so it can be reported against its field.
type Number struct {
	Value decimal.Decimal
	raw   string
}

// NewNumber returns a valid Number holding d.
func NewNumber(d decimal.Decimal) *Number {
	return &Number{Value: d}
}

// Valid reports whether the JSON value parsed as a decimal.
func (n Number) Valid() bool {
	return n.raw == ""
}

// UnmarshalJSON never fails; invalid input is recorded instead.
func (n *Number) UnmarshalJSON(data []byte) error {
	if err := n.Value.UnmarshalJSON(data); err != nil {
		n.Value = decimal.Zero
		n.raw = string(data)
	}
	return nil
}

// text is what the digit rules inspect.
func (n Number) text() string {
	if !n.Valid() {
		return n.raw
	}
	return n.Value.String()
}

// PrimaryKey references a ProfileType by its integer key, given either as
// a JSON integer or a numeric string.
type PrimaryKey struct {
	ID int64
	// kind names the JSON type of an unusable value.
	kind string
}

// Valid reports whether the value resolved to an integer key.
func (k PrimaryKey) Valid() bool {
	return k.kind == ""
}

// UnmarshalJSON never fails; an unusable value is recorded instead.
func (k *PrimaryKey) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch v := v.(type) {
	case json.Number:
		k.kind = "float"
		if id, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			k.ID, k.kind = id, ""
		}
	case string:
		k.kind = "str"
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			k.ID, k.kind = id, ""
		}
	case bool:
		k.kind = "bool"
	case []any:
		k.kind = "list"
	default:
		k.kind = "dict"
	}

	return nil
}
