// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"
	"strings"
)

const (
	uriScheme         = "https://"
	defaultURIMaxLen  = 48
	minURIMaxLen      = len(uriScheme) + 1
)

// URIKwargs implements uri(max_length): "https://<random>" with total
// length <= max_length.
type URIKwargs struct {
	Base
	MaxLength int `json:"max_length,omitempty"`
}

func (k *URIKwargs) Validate() error {
	if k.MaxLength != 0 && k.MaxLength < minURIMaxLen {
		return fmt.Errorf("max_length must be >= %d, got %d", minURIMaxLen, k.MaxLength)
	}
	return nil
}

func (k *URIKwargs) Apply(ctx *Context) (string, error) {
	maxLen := k.MaxLength
	if maxLen == 0 {
		maxLen = defaultURIMaxLen
	}
	budget := maxLen - len(uriScheme)
	return uriScheme + randomToken(ctx, budget, asciiLower+asciiDigits), nil
}

// IPKwargs implements ipv4/ipv6: syntactically valid addresses, no
// address-class filtering required.
type IPKwargs struct {
	Base
	v6 bool
}

func (k *IPKwargs) Validate() error { return nil }

func (k *IPKwargs) Apply(ctx *Context) (string, error) {
	if k.v6 {
		groups := make([]string, 8)
		for i := range groups {
			groups[i] = fmt.Sprintf("%04x", ctx.State.RNG.IntN(1<<16))
		}
		return strings.Join(groups, ":"), nil
	}
	octets := make([]string, 4)
	for i := range octets {
		octets[i] = fmt.Sprintf("%d", ctx.State.RNG.IntN(256))
	}
	return strings.Join(octets, "."), nil
}
