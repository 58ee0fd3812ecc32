// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/state"
)

type fakeRow struct {
	cols map[string]string
}

func (r fakeRow) Column(name string) (string, bool) {
	v, ok := r.cols[name]
	return v, ok
}

func newTestState(secretKey, nonce []byte) *state.State {
	return state.New(secretKey, nonce)
}

func newTestContext(value string, loc locale.Code, row RowView, st *state.State) *Context {
	if st == nil {
		st = newTestState(nil, nil)
	}
	return &Context{Value: value, Row: row, State: st, Locale: loc}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(NameFixedValue, []byte(`{"value": "x", "oops": true}`))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownMutation(t *testing.T) {
	_, err := Decode(Name("not_a_mutation"), nil)
	assert.Error(t, err)
}

func TestFixedValueRoundTrips(t *testing.T) {
	m, err := Decode(NameFixedValue, []byte(`{"value": "redacted"}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("alice@x.y", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "redacted", got)
}

func TestFixedValueRequiresValue(t *testing.T) {
	_, err := Decode(NameFixedValue, nil)
	assert.Error(t, err)
}

func TestNullAlwaysEmitsSentinel(t *testing.T) {
	m, err := Decode(NameNull, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("anything", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, NullSentinel, got)
}

func TestEmptyStringEmitsEmpty(t *testing.T) {
	m, err := Decode(NameEmptyString, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("anything", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRandomChoiceRequiresNonEmptyChoices(t *testing.T) {
	_, err := Decode(NameRandomChoice, []byte(`{"choices": []}`))
	assert.Error(t, err)
}

func TestRandomChoicePicksFromSet(t *testing.T) {
	m, err := Decode(NameRandomChoice, []byte(`{"choices": ["a", "b", "c"]}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c"}, got)
}

// TestPassesNullThrough covers property 8: \N survives every mutation
// other than null/fixed_value/empty_string.
func TestPassesNullThrough(t *testing.T) {
	assert.False(t, PassesNullThrough(NameNull))
	assert.False(t, PassesNullThrough(NameFixedValue))
	assert.False(t, PassesNullThrough(NameEmptyString))
	assert.True(t, PassesNullThrough(NameEmail))
	assert.True(t, PassesNullThrough(NameFirstName))
	assert.True(t, PassesNullThrough(NameUUID4))
}

func TestMiddleNameFailsOutsideRussian(t *testing.T) {
	m, err := Decode(NameMiddleName, nil)
	require.NoError(t, err)

	_, err = m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.Error(t, err)
	var unsupported *perrors.UnsupportedLocaleError
	assert.ErrorAs(t, err, &unsupported)
}

func TestMiddleNamePicksFromRussianCatalog(t *testing.T) {
	m, err := Decode(NameMiddleName, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.RU, nil, nil))
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestFullNameFormatDiffersByLocale(t *testing.T) {
	m, err := Decode(NameFullName, nil)
	require.NoError(t, err)

	en, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, len(splitSpaces(en)))

	ru, err := m.Apply(newTestContext("x", locale.RU, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, len(splitSpaces(ru)))
}

func splitSpaces(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func TestEmailMatchesShape(t *testing.T) {
	m, err := Decode(NameEmail, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9]+@[a-z0-9]+\.[a-z]+$`, got)
}

func TestNumericRangeRespectsBounds(t *testing.T) {
	m, err := Decode(NameSmallint, []byte(`{"start": 10, "end": 12}`))
	require.NoError(t, err)

	st := newTestState(nil, nil)
	for i := 0; i < 50; i++ {
		got, err := m.Apply(newTestContext("x", locale.EN, nil, st))
		require.NoError(t, err)
		assert.Contains(t, []string{"10", "11", "12"}, got)
	}
}

func TestNumericSerialForcesStartAtLeastOne(t *testing.T) {
	_, err := Decode(NameSmallSerial, []byte(`{"start": -5, "end": 10}`))
	assert.Error(t, err)
}

func TestDecimalRendersFixedPrecision(t *testing.T) {
	m, err := Decode(NameReal, []byte(`{"start": 1, "end": 1}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "1.000000", got)
}

func TestDateFormatsWithinRange(t *testing.T) {
	m, err := Decode(NameDate, []byte(`{"start": 2000, "end": 2000}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^2000-\d{2}-\d{2}$`, got)
}

func TestDateRejectsNonFourDigitYears(t *testing.T) {
	_, err := Decode(NameDate, []byte(`{"start": 0, "end": 2000}`))
	assert.Error(t, err)
}

func TestURIRespectsMaxLength(t *testing.T) {
	m, err := Decode(NameURI, []byte(`{"max_length": 20}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 20)
	assert.Regexp(t, `^https://`, got)
}

func TestIPv4AndIPv6Shape(t *testing.T) {
	v4, err := Decode(NameIPv4, nil)
	require.NoError(t, err)
	got4, err := v4.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`, got4)

	v6, err := Decode(NameIPv6, nil)
	require.NoError(t, err)
	got6, err := v6.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^([0-9a-f]{4}:){7}[0-9a-f]{4}$`, got6)
}

func TestUUID4IsWellFormed(t *testing.T) {
	m, err := Decode(NameUUID4, nil)
	require.NoError(t, err)
	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f-]{36}$`, got)
}

func TestUUID5BySourceValueIsDeterministic(t *testing.T) {
	m, err := Decode(NameUUID5BySource, []byte(`{"namespace": "dns", "source_column": "email"}`))
	require.NoError(t, err)

	row := fakeRow{cols: map[string]string{"email": "alice@x.y"}}
	a, err := m.Apply(newTestContext("x", locale.EN, row, nil))
	require.NoError(t, err)
	b, err := m.Apply(newTestContext("x", locale.EN, row, nil))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	otherRow := fakeRow{cols: map[string]string{"email": "bob@x.y"}}
	c, err := m.Apply(newTestContext("x", locale.EN, otherRow, nil))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestUUID5RequiresSourceColumn(t *testing.T) {
	_, err := Decode(NameUUID5BySource, []byte(`{"namespace": "dns"}`))
	assert.Error(t, err)
}

func TestStringByMaskExpandsPlaceholders(t *testing.T) {
	m, err := Decode(NameStringByMask, []byte(`{"mask": "@@-###"}`))
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z]{2}-\d{3}$`, got)
}

func TestPhoneNumberExpandsDefaultMask(t *testing.T) {
	m, err := Decode(NamePhoneNumber, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.Regexp(t, `^\+1-\d{3}-\d{3}-\d{4}$`, got)
}

// TestDeterministicPhoneNumberDeterminism covers property 6: a fixed
// secret and nonce reproduce the same output for the same input, and a
// different nonce produces a different output.
func TestDeterministicPhoneNumberDeterminism(t *testing.T) {
	m, err := Decode(NameDetPhoneNumber, []byte(`{"obfuscated_numbers_count": 4}`))
	require.NoError(t, err)

	key := []byte("secret")
	st1 := newTestState(key, []byte("nonce-a"))
	a, err := m.Apply(newTestContext("+1-555-123-4567", locale.EN, nil, st1))
	require.NoError(t, err)

	st2 := newTestState(key, []byte("nonce-a"))
	b, err := m.Apply(newTestContext("+1-555-123-4567", locale.EN, nil, st2))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	st3 := newTestState(key, []byte("nonce-b"))
	c, err := m.Apply(newTestContext("+1-555-123-4567", locale.EN, nil, st3))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDeterministicPhoneNumberFailsWithoutSecret(t *testing.T) {
	m, err := Decode(NameDetPhoneNumber, []byte(`{"obfuscated_numbers_count": 4}`))
	require.NoError(t, err)

	st := newTestState(nil, nil)
	_, err = m.Apply(newTestContext("+1-555-123-4567", locale.EN, nil, st))
	require.Error(t, err)
	var missing *perrors.MissingSecretError
	assert.ErrorAs(t, err, &missing)
}

func TestDeterministicPhoneNumberRequiresPositiveCount(t *testing.T) {
	_, err := Decode(NameDetPhoneNumber, []byte(`{"obfuscated_numbers_count": 0}`))
	assert.Error(t, err)
}

func TestAddressComposesFromLocaleCatalog(t *testing.T) {
	m, err := Decode(NameAddress, nil)
	require.NoError(t, err)

	got, err := m.Apply(newTestContext("x", locale.EN, nil, nil))
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
