// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// ValueNone is a missing value (JSON null or empty string).
	ValueNone ValueKind = iota
	// ValueScalar is a plain number.
	ValueScalar
	// ValueMeasured is a number with a symmetric uncertainty.
	ValueMeasured
)

// String returns the lower-case variant name.
func (k ValueKind) String() string {
	switch k {
	case ValueScalar:
		return "scalar"
	case ValueMeasured:
		return "measured"
	default:
		return "none"
	}
}

// Value is a result field: missing, a plain scalar, or a measurement with
// uncertainty. Uncertainty is zero unless Kind is ValueMeasured.
type Value struct {
	Kind        ValueKind
	Nominal     float64
	Uncertainty float64
}

// Scalar returns a ValueScalar.
func Scalar(v float64) Value {
	return Value{Kind: ValueScalar, Nominal: v}
}

// Measured returns a ValueMeasured.
func Measured(nominal, uncertainty float64) Value {
	return Value{Kind: ValueMeasured, Nominal: nominal, Uncertainty: uncertainty}
}

// IsZero reports whether the value is missing.
func (v Value) IsZero() bool {
	return v.Kind == ValueNone
}

// String formats the value the way result files write it.
func (v Value) String() string {
	switch v.Kind {
	case ValueScalar:
		return strconv.FormatFloat(v.Nominal, 'g', -1, 64)
	case ValueMeasured:
		return fmt.Sprintf("%s(%s)",
			strconv.FormatFloat(v.Nominal, 'g', -1, 64),
			strconv.FormatFloat(v.Uncertainty, 'g', -1, 64))
	default:
		return ""
	}
}

var (
	// 3.12(15), 3.12(0.15), 1.23(4)e-5
	parenRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+))\((\d+\.?\d*|\.\d+)\)(?:[eE]([+-]?\d+))?$`)
	// 3.12+/-0.15, 3.12 ± 0.15
	plusMinusRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)\s*(?:\+/-|±)\s*(\d+\.?\d*(?:[eE][+-]?\d+)?)$`)
)

// ParseValue decodes the string forms found in result files. A bare
// number is a scalar. "n(u)" uses concise notation: without a decimal point
// u counts units of the last digit of n, so "3.12(15)" is 3.12 ± 0.15, while
// "3.12(0.15)" is already absolute. An exponent after the parenthesis scales
// both parts. "n+/-u" and "n ± u" are also accepted.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, nil
	}

	if m := parenRe.FindStringSubmatch(s); m != nil {
		nominal, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		unc, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		if !strings.Contains(m[2], ".") {
			if dot := strings.IndexByte(m[1], '.'); dot >= 0 {
				unc *= math.Pow10(-(len(m[1]) - dot - 1))
			}
		}
		if m[3] != "" {
			exp, err := strconv.Atoi(m[3])
			if err != nil {
				return Value{}, fmt.Errorf("parsing %q: %w", s, err)
			}
			scale := math.Pow10(exp)
			nominal *= scale
			unc *= scale
		}
		return Measured(nominal, unc), nil
	}

	if m := plusMinusRe.FindStringSubmatch(s); m != nil {
		nominal, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		unc, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		return Measured(nominal, unc), nil
	}

	f, err := cast.ToFloat64E(s)
	if err != nil {
		return Value{}, fmt.Errorf("unrecognised value %q", s)
	}
	return Scalar(f), nil
}

// UnmarshalJSON accepts null, a JSON number, or a string understood by
// ParseValue.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseValue(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a number or string, got %s", data)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("parsing number %s: %w", data, err)
	}
	*v = Scalar(f)
	return nil
}

// MarshalJSON writes scalars as numbers, measurements as "n(u)" strings and
// missing values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueScalar:
		return json.Marshal(v.Nominal)
	case ValueMeasured:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}
