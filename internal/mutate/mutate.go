// SPDX-License-Identifier: Apache-2.0

// Package mutate is the Mutation Registry: a tagged variant over mutation
// kinds. Each mutation name maps to a typed kwargs struct decoded with
// DisallowUnknownFields, the same validate-at-load-time discipline
// pgroll's migrations package applies to its Operation kwargs in
// pkg/migrations/op_common.go.
package mutate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/perrors"
	"github.com/pgredact/pgredact/internal/state"
)

// Name identifies a mutation in the Registry.
type Name string

const (
	NameFirstName       Name = "first_name"
	NameLastName        Name = "last_name"
	NameFullName        Name = "full_name"
	NameMiddleName      Name = "middle_name"
	NameEmail           Name = "email"
	NamePhoneNumber     Name = "phone_number"
	NameAddress         Name = "address"
	NameDetPhoneNumber  Name = "deterministic_phone_number"
	NameSmallint        Name = "numeric_smallint"
	NameInteger         Name = "numeric_integer"
	NameBigint          Name = "numeric_bigint"
	NameSmallSerial     Name = "numeric_smallserial"
	NameSerial          Name = "numeric_serial"
	NameBigSerial       Name = "numeric_bigserial"
	NameDecimal         Name = "numeric_decimal"
	NameReal            Name = "numeric_real"
	NameDoublePrecision Name = "numeric_double_precision"
	NameDate            Name = "date"
	NameURI             Name = "uri"
	NameIPv4            Name = "ipv4"
	NameIPv6            Name = "ipv6"
	NameUUID4           Name = "uuid4"
	NameUUID5BySource   Name = "uuid5_by_source_value"
	NameNull            Name = "null"
	NameEmptyString     Name = "empty_string"
	NameFixedValue      Name = "fixed_value"
	NameRandomChoice    Name = "random_choice"
	NameStringByMask    Name = "string_by_mask"
	NameDelete          Name = "delete"
)

// NullSentinel is the plain-format NULL marker.
const NullSentinel = `\N`

// RowView lets a mutation read sibling columns of the row it is currently
// rewriting (e.g. uuid5_by_source_value's source_column).
// It is implemented by the Row Rewriter's row type; defined here (rather
// than imported from it) so this package has no dependency on rewrite.
type RowView interface {
	Column(name string) (string, bool)
}

// Context bundles everything a Mutation.Apply needs beyond the kwargs it
// was decoded from.
type Context struct {
	Value  string
	Row    RowView
	State  *state.State
	Locale locale.Code
}

// Mutation is a single decoded, validated mutation ready to be applied
// repeatedly to column values. Implementations are small value types
// decoded directly from a rule's mutation_kwargs.
type Mutation interface {
	// Validate checks the kwargs for internal consistency (e.g. start <=
	// end) independent of any row; called once at rule-load time.
	Validate() error

	// Apply computes the obfuscated value for one row's column.
	Apply(ctx *Context) (string, error)

	// Unique reports whether this rule's mutation_kwargs requested
	// uniqueness tracking.
	Unique() bool
}

// PassesNullThrough reports whether a NULL sentinel input must be passed
// through unchanged for this mutation rather than generating a value.
// null, empty_string and fixed_value are the three mutations that
// produce a value for NULL input too.
func PassesNullThrough(name Name) bool {
	switch name {
	case NameNull, NameEmptyString, NameFixedValue:
		return false
	default:
		return true
	}
}

// factories maps a mutation Name to a constructor for its zero-value
// kwargs struct, mirroring pgroll's operationFromName in
// pkg/migrations/op_common.go.
var factories = map[Name]func() Mutation{
	NameFirstName:       func() Mutation { return &FirstNameKwargs{} },
	NameLastName:        func() Mutation { return &LastNameKwargs{} },
	NameFullName:        func() Mutation { return &FullNameKwargs{} },
	NameMiddleName:      func() Mutation { return &MiddleNameKwargs{} },
	NameEmail:           func() Mutation { return &EmailKwargs{} },
	NamePhoneNumber:     func() Mutation { return &PhoneNumberKwargs{} },
	NameAddress:         func() Mutation { return &AddressKwargs{} },
	NameDetPhoneNumber:  func() Mutation { return &DeterministicPhoneNumberKwargs{} },
	NameSmallint:        func() Mutation { return &NumericKwargs{kind: numericSmallint} },
	NameInteger:         func() Mutation { return &NumericKwargs{kind: numericInteger} },
	NameBigint:          func() Mutation { return &NumericKwargs{kind: numericBigint} },
	NameSmallSerial:     func() Mutation { return &NumericKwargs{kind: numericSmallint, serial: true} },
	NameSerial:          func() Mutation { return &NumericKwargs{kind: numericInteger, serial: true} },
	NameBigSerial:       func() Mutation { return &NumericKwargs{kind: numericBigint, serial: true} },
	NameDecimal:         func() Mutation { return &DecimalKwargs{} },
	NameReal:            func() Mutation { return &DecimalKwargs{fixedPrecision: 6, fixed: true} },
	NameDoublePrecision: func() Mutation { return &DecimalKwargs{fixedPrecision: 15, fixed: true} },
	NameDate:            func() Mutation { return &DateKwargs{} },
	NameURI:             func() Mutation { return &URIKwargs{} },
	NameIPv4:            func() Mutation { return &IPKwargs{v6: false} },
	NameIPv6:            func() Mutation { return &IPKwargs{v6: true} },
	NameUUID4:           func() Mutation { return &UUID4Kwargs{} },
	NameUUID5BySource:   func() Mutation { return &UUID5Kwargs{} },
	NameNull:            func() Mutation { return &NullKwargs{} },
	NameEmptyString:     func() Mutation { return &EmptyStringKwargs{} },
	NameFixedValue:      func() Mutation { return &FixedValueKwargs{} },
	NameRandomChoice:    func() Mutation { return &RandomChoiceKwargs{} },
	NameStringByMask:    func() Mutation { return &StringByMaskKwargs{} },
}

// Decode builds and validates the Mutation for name from raw kwargs JSON
// (which may be empty/nil for mutations that take no options). Unknown
// fields in kwargs are rejected, matching pgroll's
// dec.DisallowUnknownFields() policy for operation kwargs.
func Decode(name Name, kwargs []byte) (Mutation, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown mutation %q", name)
	}
	m := factory()

	if len(kwargs) > 0 {
		dec := json.NewDecoder(bytes.NewReader(kwargs))
		dec.DisallowUnknownFields()
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("decoding mutation_kwargs for %q: %w", name, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mutation_kwargs for %q: %w", name, err)
	}
	return m, nil
}

// requireSecret fetches SecretKey/SecretKeyNonce or returns
// MissingSecretError, for deterministic_phone_number.
func requireSecret(st *state.State, mutation string) ([]byte, []byte, error) {
	if len(st.SecretKey) == 0 {
		return nil, nil, &perrors.MissingSecretError{Mutation: mutation}
	}
	return st.SecretKey, st.SecretKeyNonce, nil
}
