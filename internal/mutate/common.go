// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"
	"strings"
)

// Base is embedded by every kwargs struct to carry the uniqueness flag
// common to all mutations.
type Base struct {
	UniqueFlag bool `json:"unique,omitempty"`
}

func (b Base) Unique() bool { return b.UniqueFlag }

const (
	asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	asciiDigits  = "0123456789"
	asciiLower   = "abcdefghijklmnopqrstuvwxyz"
)

// randomToken draws n characters uniformly from alphabet.
func randomToken(ctx *Context, n int, alphabet string) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[ctx.State.RNG.IntN(len(alphabet))])
	}
	return b.String()
}

// pick returns a uniformly random element of choices.
func pick[T any](ctx *Context, choices []T) T {
	return choices[ctx.State.RNG.IntN(len(choices))]
}

// randRangeInt64 draws a uniform int64 in [start, end] inclusive.
func randRangeInt64(ctx *Context, start, end int64) int64 {
	if end < start {
		start, end = end, start
	}
	span := uint64(end-start) + 1
	if span == 0 {
		// [start, end] covers every int64 value.
		return int64(ctx.State.RNG.Uint64())
	}
	return start + int64(ctx.State.RNG.Uint64N(span))
}

// randRangeFloat64 draws a uniform float64 in [start, end].
func randRangeFloat64(ctx *Context, start, end float64) float64 {
	if end < start {
		start, end = end, start
	}
	return start + ctx.State.RNG.Float64()*(end-start)
}

func validateRange(start, end int64, floorAt1 bool, name string) error {
	if floorAt1 && start < 1 {
		return fmt.Errorf("%s: start must be >= 1 for a serial range, got %d", name, start)
	}
	if end < start {
		return fmt.Errorf("%s: end (%d) must be >= start (%d)", name, end, start)
	}
	return nil
}
