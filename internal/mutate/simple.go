// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"

	"github.com/oapi-codegen/nullable"
)

// NullKwargs implements null: emits the \N sentinel regardless of input.
type NullKwargs struct {
	Base
}

func (k *NullKwargs) Validate() error { return nil }

func (k *NullKwargs) Apply(ctx *Context) (string, error) { return NullSentinel, nil }

// EmptyStringKwargs implements empty_string: emits "".
type EmptyStringKwargs struct {
	Base
}

func (k *EmptyStringKwargs) Validate() error { return nil }

func (k *EmptyStringKwargs) Apply(ctx *Context) (string, error) { return "", nil }

// FixedValueKwargs implements fixed_value(value): emits value verbatim.
// value uses nullable.Nullable so a rule can distinguish "emit the
// literal NULL sentinel" (value explicitly JSON null) from "emit the
// literal empty string" (value: "") — a distinction a plain *string
// can't make as cleanly.
type FixedValueKwargs struct {
	Base
	Value nullable.Nullable[string] `json:"value"`
}

func (k *FixedValueKwargs) Validate() error {
	if !k.Value.IsSpecified() {
		return fmt.Errorf("value is required")
	}
	return nil
}

func (k *FixedValueKwargs) Apply(ctx *Context) (string, error) {
	if k.Value.IsNull() {
		return NullSentinel, nil
	}
	v, err := k.Value.Get()
	if err != nil {
		return "", err
	}
	return v, nil
}

// RandomChoiceKwargs implements random_choice(choices): uniform pick.
type RandomChoiceKwargs struct {
	Base
	Choices []string `json:"choices"`
}

func (k *RandomChoiceKwargs) Validate() error {
	if len(k.Choices) == 0 {
		return fmt.Errorf("choices must be non-empty")
	}
	return nil
}

func (k *RandomChoiceKwargs) Apply(ctx *Context) (string, error) {
	return pick(ctx, k.Choices), nil
}
