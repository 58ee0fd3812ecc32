// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"encoding/json"
	_ "embed"
	"fmt"
	"strings"

	"github.com/pgredact/pgredact/internal/jsonschema"
	"github.com/pgredact/pgredact/internal/perrors"
)

//go:embed schema.json
var ruleSchemaDoc string

// ruleBodyPrefix is the marker that distinguishes a structured anon rule
// comment from an ordinary object comment.
const ruleBodyPrefix = "anon:"

// Diagnostic reports a rule-parse warning recovered by the Schema
// Extractor: the offending rule is dropped but the run continues.
type Diagnostic struct {
	Context string
	Err     error
}

func (d Diagnostic) String() string {
	return (&perrors.RuleParseError{Context: d.Context, Err: d.Err}).Error()
}

// Extractor turns anon: comment bodies into Rule Store entries. One
// Extractor is used for the lifetime of a single dump pass; its only
// state beyond the Store and validator it wraps is the list of
// diagnostics it accumulates.
type Extractor struct {
	store      *Store
	validator  *jsonschema.Validator
	diagnostics []Diagnostic
}

// NewExtractor builds an Extractor backed by the given Store.
func NewExtractor(store *Store) (*Extractor, error) {
	v, err := jsonschema.Compile("rules.schema.json", ruleSchemaDoc)
	if err != nil {
		return nil, fmt.Errorf("compiling rule schema: %w", err)
	}
	return &Extractor{store: store, validator: v}, nil
}

// Diagnostics returns the rule-parse warnings accumulated so far, in
// encounter order.
func (e *Extractor) Diagnostics() []Diagnostic { return e.diagnostics }

func (e *Extractor) warn(context string, err error) {
	e.diagnostics = append(e.diagnostics, Diagnostic{Context: context, Err: err})
}

// ParseColumnComment handles `COMMENT ON COLUMN <schema>.<table>.<col> IS
// '<body>'` (or the equivalent custom-format TOC comment entry). body is
// the comment text, without surrounding quotes. Returns false if body is
// not an anon: comment at all (nothing to warn about).
func (e *Extractor) ParseColumnComment(schema, table, column, body string) bool {
	payload, ok := stripAnonPrefix(body)
	if !ok {
		return false
	}

	context := fmt.Sprintf("%s.%s.%s", schema, table, column)

	doc, err := e.validator.Validate([]byte(payload))
	if err != nil {
		e.warn(context, err)
		return true
	}

	// Column-level bodies are a JSON array of rules, or (permissively) a
	// single rule object.
	var raws []json.RawMessage
	switch doc.(type) {
	case []any:
		if err := json.Unmarshal([]byte(payload), &raws); err != nil {
			e.warn(context, err)
			return true
		}
	default:
		raws = []json.RawMessage{json.RawMessage(payload)}
	}

	for _, raw := range raws {
		var r Rule
		if err := json.Unmarshal(raw, &r); err != nil {
			e.warn(context, err)
			continue
		}
		e.store.AddColumnRule(ColumnKey{Schema: schema, Table: table, Column: column}, r)
	}
	return true
}

// ParseTableComment handles `COMMENT ON TABLE <schema>.<table> IS
// '<body>'` (or the equivalent TOC comment entry). The body must be a
// single rule object; only the "delete" marker has an effect (the table is
// flagged for data suppression). Any other table-level rule is validated
// and then discarded: the Store keeps no table-level rules besides the
// delete flag.
func (e *Extractor) ParseTableComment(schema, table, body string) bool {
	payload, ok := stripAnonPrefix(body)
	if !ok {
		return false
	}

	context := fmt.Sprintf("%s.%s", schema, table)

	if _, err := e.validator.Validate([]byte(payload)); err != nil {
		e.warn(context, err)
		return true
	}

	var r Rule
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		e.warn(context, err)
		return true
	}

	if r.IsDelete() {
		e.store.MarkTableDeleted(TableKey{Schema: schema, Table: table})
	}
	return true
}

// stripAnonPrefix returns the remainder of body after the "anon:" prefix
// and any following whitespace, or ok=false if body is not an anon
// comment.
func stripAnonPrefix(body string) (payload string, ok bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, ruleBodyPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, ruleBodyPrefix)), true
}
