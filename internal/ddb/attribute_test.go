// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAttr(t *testing.T, name string, v Value) AttributeValue {
	t.Helper()
	av, err := FromWireValue(name, v)
	require.NoError(t, err)
	return av
}

func TestFromWireValueRejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		attr  string
		value Value
	}{
		{"empty name", "", Value{"S": "x"}},
		{"empty set", "tags", Value{"SS": []any{}}},
		{"duplicate strings", "tags", Value{"SS": []any{"a", "b", "a"}}},
		{"duplicate numbers", "nums", Value{"NS": []any{"1", "1.0"}}},
		{"two types", "x", Value{"S": "a", "N": "1"}},
		{"no type", "x", Value{}},
		{"unknown type", "x", Value{"M": "a"}},
		{"non numeric", "n", Value{"N": "abc"}},
		{"hex number", "n", Value{"N": "0x10"}},
		{"hex float", "n", Value{"N": "0x1p4"}},
		{"infinity", "n", Value{"N": "Inf"}},
		{"dangling exponent", "n", Value{"N": "1e"}},
		{"lone dot", "n", Value{"N": "."}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromWireValue(tc.attr, tc.value)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
		})
	}
}

func TestNumberKeepsOriginalText(t *testing.T) {
	big := "123456789012345678901234567890"
	av := mustAttr(t, "n", Value{"N": big})
	assert.False(t, av.num.exact)
	assert.Equal(t, Value{"N": big}, av.Wire())

	small := mustAttr(t, "n", Value{"N": json.Number("42")})
	assert.True(t, small.num.exact)
	assert.Equal(t, Value{"N": "42"}, small.Wire())

	frac := mustAttr(t, "n", Value{"N": "1.50"})
	assert.False(t, frac.num.exact)
	assert.Equal(t, Value{"N": "1.50"}, frac.Wire())
}

func TestNumberCompare(t *testing.T) {
	a := mustAttr(t, "n", Value{"N": "9"})
	b := mustAttr(t, "n", Value{"N": "10"})
	c, ok := a.compare(b)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	huge := mustAttr(t, "n", Value{"N": "123456789012345678901234567891"})
	huger := mustAttr(t, "n", Value{"N": "123456789012345678901234567892"})
	c, ok = huge.compare(huger)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	assert.True(t, mustAttr(t, "n", Value{"N": "1"}).Equal(mustAttr(t, "n", Value{"N": "1.0"})))
}

func TestNumberAdd(t *testing.T) {
	sum := number{}
	for _, s := range []string{"5", "7", "-2"} {
		n, err := parseNumber("n", s)
		require.NoError(t, err)
		if sum.text == "" {
			sum = n
			continue
		}
		sum = sum.add(n)
	}
	assert.Equal(t, "10", sum.text)

	a, _ := parseNumber("n", "99999999999999999999")
	b, _ := parseNumber("n", "1")
	assert.Equal(t, "100000000000000000000", a.add(b).text)

	top, err := parseNumber("n", strconv.FormatFloat(math.MaxFloat64, 'f', -1, 64))
	require.NoError(t, err)
	require.True(t, top.exact)
	sum = top.add(top)
	assert.False(t, sum.exact)
	assert.Equal(t, 1, sum.cmp(top))
	_, err = parseNumber("n", sum.text)
	assert.NoError(t, err)
}

func TestDecimalNumberForms(t *testing.T) {
	for _, s := range []string{"0", "-1", "+2.5", "1e10", "1.5E-3", "007"} {
		_, err := parseNumber("n", s)
		assert.NoError(t, err, s)
	}
}

func TestBinaryDoubleDecode(t *testing.T) {
	// "aGk=" is base64 for "hi"; the wire value is base64 of that text.
	av := mustAttr(t, "b", Value{"B": "YUdrPQ=="})
	assert.Equal(t, []byte("aGk="), av.bin)
	assert.Equal(t, Value{"B": "hi"}, av.Wire())

	stored := av.storage()
	back := mustAttr(t, "b", stored)
	assert.True(t, av.Equal(back))
}

func TestSetEqualityIgnoresOrder(t *testing.T) {
	a := mustAttr(t, "s", Value{"SS": []any{"a", "b"}})
	b := mustAttr(t, "s", Value{"SS": []string{"b", "a"}})
	c := mustAttr(t, "s", Value{"SS": []any{"a", "c"}})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(mustAttr(t, "s", Value{"S": "a"})))
}

func TestStringCoercion(t *testing.T) {
	av := mustAttr(t, "s", Value{"S": json.Number("12")})
	assert.Equal(t, Value{"S": "12"}, av.Wire())
	av = mustAttr(t, "s", Value{"S": true})
	assert.Equal(t, Value{"S": "true"}, av.Wire())
}

func TestSetUnionAndMinus(t *testing.T) {
	a := mustAttr(t, "n", Value{"NS": []any{"1", "2"}})
	b := mustAttr(t, "n", Value{"NS": []any{"3"}})
	u, err := a.union(b)
	require.NoError(t, err)
	assert.Equal(t, Value{"NS": []string{"1", "2", "3"}}, u.Wire())

	_, err = a.union(mustAttr(t, "n", Value{"NS": []any{"2.0"}}))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	rest, empty := u.minus(mustAttr(t, "n", Value{"NS": []any{"1", "3"}}))
	assert.False(t, empty)
	assert.Equal(t, Value{"NS": []string{"2"}}, rest.Wire())

	_, empty = rest.minus(rest)
	assert.True(t, empty)
}
