package input

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msomdec/estate-listings/internal/domain"
)

// NumberPolicy decides what happens to numeric fields that fail to parse.
type NumberPolicy string

const (
	// Lenient ignores unparseable or negative values, so the field keeps
	// whatever it already holds: zero or unset on create, the stored value
	// on update.
	Lenient NumberPolicy = "lenient"
	// Strict rejects them with domain.ErrInvalidInput.
	Strict NumberPolicy = "strict"
)

// ParseNumberPolicy maps a config value onto a policy. Empty means Lenient.
func ParseNumberPolicy(s string) (NumberPolicy, error) {
	switch NumberPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lenient:
		return Lenient, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("unknown number policy %q", s)
}

// Float parses a non-negative decimal. The second return value is false when
// raw is blank or, under Lenient, unusable. Either way the caller keeps
// whatever value it already has.
func (p NumberPolicy) Float(field, raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		if p == Strict {
			return 0, true, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, field)
		}
		return 0, false, nil
	}
	return v, true, nil
}

// Int parses a non-negative integer. Decimal input is truncated, matching
// what a browser number field submits for "2.0".
func (p NumberPolicy) Int(field, raw string) (int, bool, error) {
	f, present, err := p.Float(field, raw)
	if err != nil || !present {
		return 0, present, err
	}
	if f > math.MaxInt32 {
		if p == Strict {
			return 0, true, fmt.Errorf("%w: %s is out of range", domain.ErrInvalidInput, field)
		}
		return 0, false, nil
	}
	return int(f), true, nil
}

// OptionalInt parses an optional non-negative integer such as year built.
// Presence follows the same rules as Float.
func (p NumberPolicy) OptionalInt(field, raw string) (*int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f > math.MaxInt32 || math.IsNaN(f) {
		if p == Strict {
			return nil, true, fmt.Errorf("%w: %s must be a whole number", domain.ErrInvalidInput, field)
		}
		return nil, false, nil
	}
	v := int(f)
	return &v, true, nil
}
