// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"
	"strconv"
)

type numericKind int

const (
	numericSmallint numericKind = iota
	numericInteger
	numericBigint
)

func (k numericKind) defaultRange() (int64, int64) {
	switch k {
	case numericSmallint:
		return -32768, 32767
	case numericInteger:
		return -2147483648, 2147483647
	default:
		return -9223372036854775808, 9223372036854775807
	}
}

func (k numericKind) name() string {
	switch k {
	case numericSmallint:
		return "numeric_smallint"
	case numericInteger:
		return "numeric_integer"
	default:
		return "numeric_bigint"
	}
}

// NumericKwargs implements numeric_smallint/integer/bigint and their
// *serial variants, which force start >= 1.
type NumericKwargs struct {
	Base
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`

	kind   numericKind
	serial bool
}

func (k *NumericKwargs) resolvedRange() (int64, int64) {
	start, end := k.kind.defaultRange()
	if k.serial && start < 1 {
		start = 1
	}
	if k.Start != nil {
		start = *k.Start
	}
	if k.End != nil {
		end = *k.End
	}
	return start, end
}

func (k *NumericKwargs) Validate() error {
	start, end := k.resolvedRange()
	return validateRange(start, end, k.serial, k.kind.name())
}

func (k *NumericKwargs) Apply(ctx *Context) (string, error) {
	start, end := k.resolvedRange()
	return strconv.FormatInt(randRangeInt64(ctx, start, end), 10), nil
}

// DecimalKwargs implements numeric_decimal(precision), numeric_real
// (precision fixed to 6) and numeric_double_precision (precision fixed
// to 15).
type DecimalKwargs struct {
	Base
	Start     float64 `json:"start,omitempty"`
	End       float64 `json:"end,omitempty"`
	Precision int     `json:"precision,omitempty"`

	fixedPrecision int
	fixed          bool
}

func (k *DecimalKwargs) resolvedPrecision() int {
	if k.fixed {
		return k.fixedPrecision
	}
	return k.Precision
}

func (k *DecimalKwargs) Validate() error {
	if k.End < k.Start {
		return fmt.Errorf("end (%v) must be >= start (%v)", k.End, k.Start)
	}
	if !k.fixed && k.Precision < 0 {
		return fmt.Errorf("precision must be >= 0, got %d", k.Precision)
	}
	return nil
}

func (k *DecimalKwargs) Apply(ctx *Context) (string, error) {
	v := randRangeFloat64(ctx, k.Start, k.End)
	return strconv.FormatFloat(v, 'f', k.resolvedPrecision(), 64), nil
}
