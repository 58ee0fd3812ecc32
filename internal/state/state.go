// SPDX-License-Identifier: Apache-2.0

// Package state holds the run-scoped, explicitly-threaded mutable state:
// the RNG, the Relation Store, the Uniqueness Tracker, and the secret key
// material used by deterministic_phone_number. None of it is a
// package-level singleton — a *State is constructed once by the CLI and
// passed down through the Row Rewriter into every mutation call, the
// same way pgroll threads a *sql.DB and a Logger through every migration
// Operation rather than reaching for ambient globals.
package state

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"

	"github.com/pgredact/pgredact/internal/rules"
)

// defaultUniquenessRetryBudget is the default retry cap for a unique rule
// before it gives up and reports UniquenessExhaustedError.
const defaultUniquenessRetryBudget = 1000

// State bundles everything a mutation or the Row Rewriter needs besides
// the current row. The redact pipeline is single-threaded, so State does
// not need to be safe for concurrent mutation from multiple goroutines
// processing rows in parallel — but RelationStore and UniquenessTracker
// still guard their maps since a future caller (e.g. a test asserting on
// partial state while a stream is draining) may read them from another
// goroutine.
type State struct {
	RNG             *mrand.Rand
	Relations       *RelationStore
	Uniqueness      *UniquenessTracker
	SecretKey       []byte
	SecretKeyNonce  []byte
	RetryBudget     int
}

// New constructs a State with a securely-seeded RNG. secretKey and
// secretKeyNonce may be nil; mutations that require them
// (deterministic_phone_number) fail with MissingSecretError at use time.
func New(secretKey, secretKeyNonce []byte) *State {
	var seed [32]byte
	_, _ = rand.Read(seed[:])
	s1 := binary.LittleEndian.Uint64(seed[0:8])
	s2 := binary.LittleEndian.Uint64(seed[8:16])

	return &State{
		RNG:            mrand.New(mrand.NewPCG(s1, s2)),
		Relations:      NewRelationStore(),
		Uniqueness:     NewUniquenessTracker(),
		SecretKey:      secretKey,
		SecretKeyNonce: secretKeyNonce,
		RetryBudget:    defaultUniquenessRetryBudget,
	}
}

// RelationStore is the process-wide mapping from (target table, target
// column, source value) to an already-generated obfuscated value. It is
// a flat map, deliberately never traversed transitively.
type RelationStore struct {
	mu   sync.Mutex
	vals map[rules.RelationKey]map[string]string
}

func NewRelationStore() *RelationStore {
	return &RelationStore{vals: make(map[rules.RelationKey]map[string]string)}
}

// Lookup returns the previously-generated obfuscated value for key/source,
// and whether one existed.
func (r *RelationStore) Lookup(key rules.RelationKey, source string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.vals[key]
	if !ok {
		return "", false
	}
	v, ok := m[source]
	return v, ok
}

// Store records that source obfuscates to generated for key. Relation
// maps grow monotonically for the run's duration.
func (r *RelationStore) Store(key rules.RelationKey, source, generated string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.vals[key]
	if !ok {
		m = make(map[string]string)
		r.vals[key] = m
	}
	m[source] = generated
}

// UniquenessTracker holds, per rule, the set of values already emitted.
// Rules are identified by the caller with an opaque string key (the Row
// Rewriter uses schema.table.column plus the rule's position, since the
// same column may carry more than one unique rule).
type UniquenessTracker struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func NewUniquenessTracker() *UniquenessTracker {
	return &UniquenessTracker{sets: make(map[string]map[string]struct{})}
}

// Seen reports whether value has already been emitted for ruleKey.
func (u *UniquenessTracker) Seen(ruleKey, value string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.sets[ruleKey][value]
	return ok
}

// Record marks value as emitted for ruleKey.
func (u *UniquenessTracker) Record(ruleKey, value string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	set, ok := u.sets[ruleKey]
	if !ok {
		set = make(map[string]struct{})
		u.sets[ruleKey] = set
	}
	set[value] = struct{}{}
}
