// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import "strings"

const (
	hashKeyElement  = "HashKeyElement"
	rangeKeyElement = "RangeKeyElement"
)

// Key is the composite primary key of an item.
type Key struct {
	Hash  AttributeValue
	Range *AttributeValue
}

// KeyFromRecord pulls the key attributes out of a full item record.
func KeyFromRecord(rec Record, schema KeySchema) (Key, error) {
	hash, err := keyComponent(rec, schema.Hash, schema.Hash.Name)
	if err != nil {
		return Key{}, err
	}
	k := Key{Hash: hash}
	if schema.Range != nil {
		r, err := keyComponent(rec, *schema.Range, schema.Range.Name)
		if err != nil {
			return Key{}, err
		}
		k.Range = &r
	}
	return k, nil
}

// KeyFromWire decodes a key-only map. Both the positional form
// ({HashKeyElement, RangeKeyElement}) and the attribute-named form are accepted.
func KeyFromWire(wire Record, schema KeySchema) (Key, error) {
	if len(wire) == 0 {
		return Key{}, validationError("The provided key element does not match the schema")
	}
	want := 1
	if schema.Range != nil {
		want = 2
	}
	if len(wire) != want {
		return Key{}, validationError("The provided key element does not match the schema")
	}

	if _, positional := wire[hashKeyElement]; !positional {
		return KeyFromRecord(wire, schema)
	}
	hash, err := keyComponent(wire, schema.Hash, hashKeyElement)
	if err != nil {
		return Key{}, err
	}
	k := Key{Hash: hash}
	if schema.Range != nil {
		r, err := keyComponent(wire, *schema.Range, rangeKeyElement)
		if err != nil {
			return Key{}, err
		}
		k.Range = &r
	}
	return k, nil
}

func keyComponent(rec Record, el KeyElement, field string) (AttributeValue, error) {
	v, ok := rec[field]
	if !ok {
		return AttributeValue{}, validationError(
			"One or more parameter values were invalid: Missing the key %s in the item", el.Name)
	}
	av, err := FromWireValue(el.Name, v)
	if err != nil {
		return AttributeValue{}, err
	}
	if av.Type() != el.Type {
		return AttributeValue{}, validationError(
			"One or more parameter values were invalid: Type mismatch for key %s expected: %s actual: %s",
			el.Name, string(el.Type), string(av.Type()))
	}
	return av, nil
}

// Wire encodes the key in positional form.
func (k Key) Wire() Record {
	out := Record{hashKeyElement: k.Hash.Wire()}
	if k.Range != nil {
		out[rangeKeyElement] = k.Range.Wire()
	}
	return out
}

// String is the canonical "type=value[, type=value]" form.
func (k Key) String() string {
	if k.Range == nil {
		return k.Hash.String()
	}
	var b strings.Builder
	b.WriteString(k.Hash.String())
	b.WriteString(", ")
	b.WriteString(k.Range.String())
	return b.String()
}

// Equal reports whether both components are equal.
func (k Key) Equal(o Key) bool {
	return CompareKeys(k, o) == 0
}

// CompareKeys orders keys by hash then range. Numbers compare numerically,
// strings lexically and binaries bytewise; a missing range sorts first.
func CompareKeys(a, b Key) int {
	if c := compareComponent(a.Hash, b.Hash); c != 0 {
		return c
	}
	switch {
	case a.Range == nil && b.Range == nil:
		return 0
	case a.Range == nil:
		return -1
	case b.Range == nil:
		return 1
	}
	return compareComponent(*a.Range, *b.Range)
}

func compareComponent(a, b AttributeValue) int {
	if c, ok := a.compare(b); ok {
		return c
	}
	return strings.Compare(a.String(), b.String())
}

// keyComparator adapts CompareKeys to gods containers.
func keyComparator(a, b interface{}) int {
	return CompareKeys(a.(Key), b.(Key))
}
