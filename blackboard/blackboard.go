// Package blackboard provides the per-agent typed key-value store.
//
// Values are a closed tagged union (number, 2D vector, bool, string).
// Reading a key with the wrong expected kind returns a TypeMismatchError
// instead of coercing, and every write is tracked in a per-tick change
// set so downstream consumers (event log, UI export) can observe diffs
// without copying the whole board.
package blackboard

import (
	"fmt"
	"sort"
)

// Kind identifies the value variant stored under a key.
type Kind uint8

const (
	KindNumber Kind = iota
	KindVec2
	KindBool
	KindString
)

// String returns a readable kind name for logs and errors.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindVec2:
		return "vec2"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Vec2 is an integer grid vector (delta or position).
type Vec2 struct {
	X, Y int
}

// Value is the closed tagged union held by a board.
// Construct via Num, Vec, Flag, or Str.
type Value struct {
	Kind Kind
	num  float64
	vec  Vec2
	b    bool
	s    string
}

// Num wraps a float64.
func Num(v float64) Value { return Value{Kind: KindNumber, num: v} }

// Vec wraps a grid vector.
func Vec(x, y int) Value { return Value{Kind: KindVec2, vec: Vec2{X: x, Y: y}} }

// Flag wraps a bool.
func Flag(v bool) Value { return Value{Kind: KindBool, b: v} }

// Str wraps a string.
func Str(v string) Value { return Value{Kind: KindString, s: v} }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.num == o.num
	case KindVec2:
		return v.vec == o.vec
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	}
	return false
}

// String renders the payload for logs.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindVec2:
		return fmt.Sprintf("(%d,%d)", v.vec.X, v.vec.Y)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	}
	return "?"
}

// TypeMismatchError reports a typed read against a key holding a
// different kind. It fails the reading step's evaluation only; the
// simulation continues.
type TypeMismatchError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("blackboard: key %q holds %s, want %s", e.Key, e.Got, e.Want)
}

// Change records one key transition within the current tick.
type Change struct {
	Key      string
	Old, New Value
	HadOld   bool
}

// Board is a single agent's state space. Not safe for concurrent use;
// the simulation guarantees a single writer per tick.
type Board struct {
	data    map[string]Value
	changes map[string]Change
}

// New creates an empty board.
func New() *Board {
	return &Board{
		data:    make(map[string]Value, 16),
		changes: make(map[string]Change, 8),
	}
}

// Get returns the value under key, if present.
func (b *Board) Get(key string) (Value, bool) {
	v, ok := b.data[key]
	return v, ok
}

// Has reports whether key is present.
func (b *Board) Has(key string) bool {
	_, ok := b.data[key]
	return ok
}

// Set stores value under key, recording a change when the value
// actually differs.
func (b *Board) Set(key string, v Value) {
	old, had := b.data[key]
	if had && old.Equal(v) {
		return
	}
	b.data[key] = v
	b.changes[key] = Change{Key: key, Old: old, New: v, HadOld: had}
}

// Delete removes key if present.
func (b *Board) Delete(key string) {
	old, had := b.data[key]
	if !had {
		return
	}
	delete(b.data, key)
	b.changes[key] = Change{Key: key, Old: old, HadOld: true}
}

// Number reads a float64 value. Missing keys return the fallback;
// wrong-kind keys return a TypeMismatchError.
func (b *Board) Number(key string, fallback float64) (float64, error) {
	v, ok := b.data[key]
	if !ok {
		return fallback, nil
	}
	if v.Kind != KindNumber {
		return fallback, &TypeMismatchError{Key: key, Want: KindNumber, Got: v.Kind}
	}
	return v.num, nil
}

// Vec2At reads a vector value.
func (b *Board) Vec2At(key string) (Vec2, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return Vec2{}, false, nil
	}
	if v.Kind != KindVec2 {
		return Vec2{}, false, &TypeMismatchError{Key: key, Want: KindVec2, Got: v.Kind}
	}
	return v.vec, true, nil
}

// Bool reads a bool value.
func (b *Board) Bool(key string, fallback bool) (bool, error) {
	v, ok := b.data[key]
	if !ok {
		return fallback, nil
	}
	if v.Kind != KindBool {
		return fallback, &TypeMismatchError{Key: key, Want: KindBool, Got: v.Kind}
	}
	return v.b, nil
}

// Text reads a string value.
func (b *Board) Text(key string, fallback string) (string, error) {
	v, ok := b.data[key]
	if !ok {
		return fallback, nil
	}
	if v.Kind != KindString {
		return fallback, &TypeMismatchError{Key: key, Want: KindString, Got: v.Kind}
	}
	return v.s, nil
}

// Changes returns the change set accumulated since the last Commit,
// sorted by key for deterministic logs.
func (b *Board) Changes() []Change {
	if len(b.changes) == 0 {
		return nil
	}
	out := make([]Change, 0, len(b.changes))
	for _, c := range b.changes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Commit clears the change set and returns what was cleared.
func (b *Board) Commit() []Change {
	out := b.Changes()
	for k := range b.changes {
		delete(b.changes, k)
	}
	return out
}

// Len returns the number of stored keys.
func (b *Board) Len() int { return len(b.data) }

// Snapshot returns an immutable copy of the board contents for
// logging and export.
func (b *Board) Snapshot() map[string]Value {
	out := make(map[string]Value, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}

// Keys returns all keys in sorted order.
func (b *Board) Keys() []string {
	out := make([]string, 0, len(b.data))
	for k := range b.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
