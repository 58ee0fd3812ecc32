// SPDX-License-Identifier: Apache-2.0

package mutate

import (
	"fmt"

	"github.com/google/uuid"
)

// UUID4Kwargs implements uuid4: a fresh random UUID v4.
type UUID4Kwargs struct {
	Base
}

func (k *UUID4Kwargs) Validate() error { return nil }

func (k *UUID4Kwargs) Apply(ctx *Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating uuid4: %w", err)
	}
	return id.String(), nil
}

// UUID5Kwargs implements uuid5_by_source_value(namespace, source_column):
// UUID v5 computed over namespace + the sibling column's value. namespace
// may be one of the well-known RFC 4122 names (dns, url, oid, x500) or an
// explicit UUID string.
type UUID5Kwargs struct {
	Base
	Namespace    string `json:"namespace"`
	SourceColumn string `json:"source_column"`
}

func (k *UUID5Kwargs) Validate() error {
	if k.SourceColumn == "" {
		return fmt.Errorf("source_column is required")
	}
	_, err := resolveNamespace(k.Namespace)
	return err
}

func (k *UUID5Kwargs) Apply(ctx *Context) (string, error) {
	ns, err := resolveNamespace(k.Namespace)
	if err != nil {
		return "", err
	}
	source, ok := ctx.Row.Column(k.SourceColumn)
	if !ok {
		return "", fmt.Errorf("source_column %q not present in row", k.SourceColumn)
	}
	return uuid.NewSHA1(ns, []byte(source)).String(), nil
}

func resolveNamespace(namespace string) (uuid.UUID, error) {
	switch namespace {
	case "", "dns":
		return uuid.NameSpaceDNS, nil
	case "url":
		return uuid.NameSpaceURL, nil
	case "oid":
		return uuid.NameSpaceOID, nil
	case "x500":
		return uuid.NameSpaceX500, nil
	default:
		id, err := uuid.Parse(namespace)
		if err != nil {
			return uuid.UUID{}, fmt.Errorf("namespace %q is neither a well-known name (dns/url/oid/x500) nor a valid UUID: %w", namespace, err)
		}
		return id, nil
	}
}
