// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/pgredact/pgredact/internal/locale"
)

// EmailKwargs implements email: "<token>@<token>.<tld>" with lowercase
// alphanumeric tokens.
type EmailKwargs struct {
	Base
}

func (k *EmailKwargs) Validate() error { return nil }

func (k *EmailKwargs) Apply(ctx *Context) (string, error) {
	local := randomToken(ctx, 10, asciiLower+asciiDigits)
	domain := randomToken(ctx, 8, asciiLower+asciiDigits)
	tlds := []string{"com", "net", "org", "io"}
	return fmt.Sprintf("%s@%s.%s", local, domain, pick(ctx, tlds)), nil
}

// defaultPhoneMask is the implementation's chosen default for
// phone_number when mask isn't supplied.
const defaultPhoneMask = "+1-###-###-####"

// PhoneNumberKwargs implements phone_number: mask expands X/# to a random
// digit, all other characters are literal.
type PhoneNumberKwargs struct {
	Base
	Mask string `json:"mask,omitempty"`
}

func (k *PhoneNumberKwargs) Validate() error { return nil }

func (k *PhoneNumberKwargs) Apply(ctx *Context) (string, error) {
	mask := k.Mask
	if mask == "" {
		mask = defaultPhoneMask
	}
	return expandMask(ctx, mask, 'X', '#', asciiDigits, asciiDigits), nil
}

// expandMask is shared by phone_number and string_by_mask: charPlaceholder
// expands from charAlphabet, digitPlaceholder from digitAlphabet. Either
// placeholder may be the zero rune to disable it.
func expandMask(ctx *Context, mask string, charPlaceholder, digitPlaceholder rune, charAlphabet, digitAlphabet string) string {
	var b strings.Builder
	b.Grow(len(mask))
	for _, r := range mask {
		switch {
		case digitPlaceholder != 0 && r == digitPlaceholder:
			b.WriteByte(digitAlphabet[ctx.State.RNG.IntN(len(digitAlphabet))])
		case charPlaceholder != 0 && r == charPlaceholder:
			b.WriteByte(charAlphabet[ctx.State.RNG.IntN(len(charAlphabet))])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddressKwargs implements address: street, city, region and postal code
// composed from the locale catalog.
type AddressKwargs struct {
	Base
}

func (k *AddressKwargs) Validate() error { return nil }

func (k *AddressKwargs) Apply(ctx *Context) (string, error) {
	cat, err := locale.Lookup(ctx.Locale)
	if err != nil {
		return "", err
	}
	number := ctx.State.RNG.IntN(9000) + 100
	postal := fmt.Sprintf(cat.PostalFormat, ctx.State.RNG.IntN(900000))
	return fmt.Sprintf("%d %s, %s, %s %s", number, pick(ctx, cat.Streets), pick(ctx, cat.Cities), pick(ctx, cat.Regions), postal), nil
}

// DeterministicPhoneNumberKwargs implements deterministic_phone_number:
// the last ObfuscatedNumbersCount digits of the input are replaced with
// HMAC_SHA256(SECRET_KEY, input || SECRET_KEY_NONCE), rendered as decimal
// digits and truncated to that count.
type DeterministicPhoneNumberKwargs struct {
	Base
	ObfuscatedNumbersCount int `json:"obfuscated_numbers_count"`
}

func (k *DeterministicPhoneNumberKwargs) Validate() error {
	if k.ObfuscatedNumbersCount <= 0 {
		return fmt.Errorf("obfuscated_numbers_count must be > 0, got %d", k.ObfuscatedNumbersCount)
	}
	return nil
}

func (k *DeterministicPhoneNumberKwargs) Apply(ctx *Context) (string, error) {
	secretKey, nonce, err := requireSecret(ctx.State, string(NameDetPhoneNumber))
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(ctx.Value))
	mac.Write(nonce)
	digest := mac.Sum(nil)

	decimal := new(big.Int).SetBytes(digest).String()
	n := k.ObfuscatedNumbersCount
	for len(decimal) < n {
		decimal = "0" + decimal
	}
	digits := decimal[len(decimal)-n:]

	return replaceLastNDigits(ctx.Value, n, digits), nil
}

// replaceLastNDigits replaces the last n digit runes of value (scanning
// from the end, skipping non-digit runes) with the runes of digits, left
// to right over the selected positions, preserving every other
// character's position.
func replaceLastNDigits(value string, n int, digits string) string {
	runes := []rune(value)
	positions := make([]int, 0, n)
	for i := len(runes) - 1; i >= 0 && len(positions) < n; i-- {
		if runes[i] >= '0' && runes[i] <= '9' {
			positions = append(positions, i)
		}
	}
	// positions were collected back-to-front; digits are applied in the
	// same back-to-front order so digits[len(digits)-1] lands on the
	// last digit of value.
	digitRunes := []rune(digits)
	for i, pos := range positions {
		digitIdx := len(digitRunes) - 1 - i
		if digitIdx < 0 {
			break
		}
		runes[pos] = digitRunes[digitIdx]
	}
	return string(runes)
}
