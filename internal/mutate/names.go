// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"github.com/pgredact/pgredact/internal/locale"
	"github.com/pgredact/pgredact/internal/perrors"
)

// FirstNameKwargs implements the first_name mutation.
type FirstNameKwargs struct {
	Base
}

func (k *FirstNameKwargs) Validate() error { return nil }

func (k *FirstNameKwargs) Apply(ctx *Context) (string, error) {
	cat, err := locale.Lookup(ctx.Locale)
	if err != nil {
		return "", err
	}
	return pick(ctx, cat.FirstNames), nil
}

// LastNameKwargs implements the last_name mutation.
type LastNameKwargs struct {
	Base
}

func (k *LastNameKwargs) Validate() error { return nil }

func (k *LastNameKwargs) Apply(ctx *Context) (string, error) {
	cat, err := locale.Lookup(ctx.Locale)
	if err != nil {
		return "", err
	}
	return pick(ctx, cat.LastNames), nil
}

// FullNameKwargs implements full_name: "<last> <first> <patronymic>" in
// ru, "<first> <last>" in en.
type FullNameKwargs struct {
	Base
}

func (k *FullNameKwargs) Validate() error { return nil }

func (k *FullNameKwargs) Apply(ctx *Context) (string, error) {
	cat, err := locale.Lookup(ctx.Locale)
	if err != nil {
		return "", err
	}
	first := pick(ctx, cat.FirstNames)
	last := pick(ctx, cat.LastNames)
	if ctx.Locale == locale.RU {
		patronymic := pick(ctx, cat.Patronymics)
		return last + " " + first + " " + patronymic, nil
	}
	return first + " " + last, nil
}

// MiddleNameKwargs implements middle_name, which only exists for the ru
// locale: it fails with unsupported-locale for any other locale.
type MiddleNameKwargs struct {
	Base
}

func (k *MiddleNameKwargs) Validate() error { return nil }

func (k *MiddleNameKwargs) Apply(ctx *Context) (string, error) {
	if ctx.Locale != locale.RU {
		return "", &perrors.UnsupportedLocaleError{Mutation: string(NameMiddleName), Locale: string(ctx.Locale)}
	}
	cat, err := locale.Lookup(ctx.Locale)
	if err != nil {
		return "", err
	}
	return pick(ctx, cat.Patronymics), nil
}
