// SPDX-License-Identifier: Apache-2.0

// Package jsonschema is a thin wrapper around santhosh-tekuri/jsonschema
// used to validate the JSON bodies embedded in anon: schema comments
// before they become Rules, so a malformed rule shape fails fast at
// rule-load time rather than partway through rewriting rows.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates arbitrary JSON values against a single compiled
// schema. It is safe for concurrent use, though the redact pipeline itself
// is single-threaded.
type Validator struct {
	mu     sync.Mutex
	schema *jsonschema.Schema
}

// Compile compiles a JSON Schema document (as a string, so it can be
// embedded via go:embed) under the given resource name.
func Compile(resourceName, schemaDoc string) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaDoc))
	if err != nil {
		return nil, fmt.Errorf("parsing schema %q: %w", resourceName, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceName, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource %q: %w", resourceName, err)
	}
	sch, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %q: %w", resourceName, err)
	}
	return &Validator{schema: sch}, nil
}

// Validate decodes raw (a JSON document) and checks it against the
// compiled schema. The decoded value is returned so the caller can reuse
// it rather than re-unmarshal the same bytes.
func (v *Validator) Validate(raw []byte) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.schema.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
