// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
)

// AttributeType is the data type tag of an attribute value.
type AttributeType string

const (
	TypeString    AttributeType = "S"
	TypeNumber    AttributeType = "N"
	TypeBinary    AttributeType = "B"
	TypeStringSet AttributeType = "SS"
	TypeNumberSet AttributeType = "NS"
	TypeBinarySet AttributeType = "BS"
)

// IsSet reports whether t is one of the set types.
func (t AttributeType) IsSet() bool {
	return t == TypeStringSet || t == TypeNumberSet || t == TypeBinarySet
}

// IsScalar reports whether t is S, N or B.
func (t AttributeType) IsScalar() bool {
	return t == TypeString || t == TypeNumber || t == TypeBinary
}

// Element returns the scalar type held by a set type.
func (t AttributeType) Element() AttributeType {
	switch t {
	case TypeStringSet:
		return TypeString
	case TypeNumberSet:
		return TypeNumber
	case TypeBinarySet:
		return TypeBinary
	}
	return t
}

func (t AttributeType) valid() bool {
	return t.IsScalar() || t.IsSet()
}

// Value is one attribute in wire form, e.g. {"S": "x"}.
type Value map[string]any

// Record is a whole item (or key) in wire form.
type Record map[string]Value

// AttributeValue is a named, typed value. It is validated at construction
// and never mutated afterwards.
type AttributeValue struct {
	name string
	typ  AttributeType

	str  string
	num  number
	bin  []byte
	strs []string
	nums []number
	bins [][]byte
}

// NewAttributeValue builds a value from an explicit (name, value, type) triple.
func NewAttributeValue(name string, typ AttributeType, raw any) (AttributeValue, error) {
	if name == "" {
		return AttributeValue{}, validationError("Empty attribute name")
	}
	a := AttributeValue{name: name, typ: typ}

	switch typ {
	case TypeString:
		s, err := scalarText(name, typ, raw, true)
		if err != nil {
			return AttributeValue{}, err
		}
		a.str = s
	case TypeNumber:
		s, err := scalarText(name, typ, raw, false)
		if err != nil {
			return AttributeValue{}, err
		}
		n, err := parseNumber(name, s)
		if err != nil {
			return AttributeValue{}, err
		}
		a.num = n
	case TypeBinary:
		s, ok := raw.(string)
		if !ok {
			return AttributeValue{}, validationError("Invalid B value for attribute %s", name)
		}
		a.bin = decodeBase64(s)
	case TypeStringSet, TypeNumberSet, TypeBinarySet:
		if err := a.setElements(raw); err != nil {
			return AttributeValue{}, err
		}
	default:
		return AttributeValue{}, validationError("Unsupported attribute type %q for attribute %s", string(typ), name)
	}
	return a, nil
}

// FromWireValue decodes a single-entry {TYPE: raw} map.
func FromWireValue(name string, v Value) (AttributeValue, error) {
	if len(v) != 1 {
		return AttributeValue{}, validationError(
			"Supplied AttributeValue for %s must have exactly one data type set", name)
	}
	for typ, raw := range v {
		return NewAttributeValue(name, AttributeType(typ), raw)
	}
	panic("unreachable")
}

func (a *AttributeValue) setElements(raw any) error {
	texts, err := listText(a.name, a.typ, raw)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return validationError("An AttributeValue may not contain an empty set: %s", a.name)
	}

	seen := make(map[string]struct{}, len(texts))
	for _, s := range texts {
		var key string
		switch a.typ {
		case TypeStringSet:
			a.strs = append(a.strs, s)
			key = s
		case TypeNumberSet:
			n, err := parseNumber(a.name, s)
			if err != nil {
				return err
			}
			a.nums = append(a.nums, n)
			key = n.key()
		case TypeBinarySet:
			b := decodeBase64(s)
			a.bins = append(a.bins, b)
			key = string(b)
		}
		if _, dup := seen[key]; dup {
			return validationError("Input collection %s contains duplicates %v", a.name, texts)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Name returns the attribute name.
func (a AttributeValue) Name() string { return a.name }

// Type returns the attribute type.
func (a AttributeValue) Type() AttributeType { return a.typ }

func (a AttributeValue) withName(name string) AttributeValue {
	a.name = name
	return a
}

// Wire encodes the value in response form. Binary payloads go through a
// second base64 decode on the way out.
func (a AttributeValue) Wire() Value {
	switch a.typ {
	case TypeString:
		return Value{string(a.typ): a.str}
	case TypeNumber:
		return Value{string(a.typ): a.num.text}
	case TypeBinary:
		return Value{string(a.typ): binaryString(decodeBase64(string(a.bin)))}
	case TypeStringSet:
		return Value{string(a.typ): append([]string(nil), a.strs...)}
	case TypeNumberSet:
		out := make([]string, len(a.nums))
		for i, n := range a.nums {
			out[i] = n.text
		}
		return Value{string(a.typ): out}
	case TypeBinarySet:
		out := make([]string, len(a.bins))
		for i, b := range a.bins {
			out[i] = binaryString(decodeBase64(string(b)))
		}
		return Value{string(a.typ): out}
	}
	return Value{}
}

// storage encodes the value so FromWireValue reproduces it exactly.
func (a AttributeValue) storage() Value {
	switch a.typ {
	case TypeBinary:
		return Value{string(a.typ): base64.StdEncoding.EncodeToString(a.bin)}
	case TypeBinarySet:
		out := make([]string, len(a.bins))
		for i, b := range a.bins {
			out[i] = base64.StdEncoding.EncodeToString(b)
		}
		return Value{string(a.typ): out}
	}
	return a.Wire()
}

// String is the canonical type=value form.
func (a AttributeValue) String() string {
	switch a.typ {
	case TypeString:
		return "S=" + a.str
	case TypeNumber:
		return "N=" + a.num.text
	case TypeBinary:
		return "B=" + base64.StdEncoding.EncodeToString(a.bin)
	}
	b, _ := json.Marshal(a.storage()[string(a.typ)])
	return string(a.typ) + "=" + string(b)
}

// Equal compares type and value. Sets compare without regard to order.
func (a AttributeValue) Equal(o AttributeValue) bool {
	if a.typ != o.typ {
		return false
	}
	if a.typ.IsScalar() {
		c, _ := a.compare(o)
		return c == 0
	}
	ak, ok := a.elementKeys(), o.elementKeys()
	if len(ak) != len(ok) {
		return false
	}
	have := make(map[string]struct{}, len(ak))
	for _, k := range ak {
		have[k] = struct{}{}
	}
	for _, k := range ok {
		if _, found := have[k]; !found {
			return false
		}
	}
	return true
}

// compare orders two scalar values of the same type. ok is false for sets
// or mismatched types.
func (a AttributeValue) compare(o AttributeValue) (c int, ok bool) {
	if a.typ != o.typ || !a.typ.IsScalar() {
		return 0, false
	}
	switch a.typ {
	case TypeString:
		switch {
		case a.str < o.str:
			return -1, true
		case a.str > o.str:
			return 1, true
		}
		return 0, true
	case TypeNumber:
		return a.num.cmp(o.num), true
	default:
		return bytes.Compare(a.bin, o.bin), true
	}
}

func (a AttributeValue) elementKeys() []string {
	switch a.typ {
	case TypeStringSet:
		return a.strs
	case TypeNumberSet:
		out := make([]string, len(a.nums))
		for i, n := range a.nums {
			out[i] = n.key()
		}
		return out
	case TypeBinarySet:
		out := make([]string, len(a.bins))
		for i, b := range a.bins {
			out[i] = string(b)
		}
		return out
	}
	return nil
}

func (a AttributeValue) scalarKey() string {
	switch a.typ {
	case TypeNumber:
		return a.num.key()
	case TypeBinary:
		return string(a.bin)
	}
	return a.str
}

// containsElement reports whether the set a holds the scalar e.
func (a AttributeValue) containsElement(e AttributeValue) bool {
	if !a.typ.IsSet() || a.typ.Element() != e.typ {
		return false
	}
	want := e.scalarKey()
	for _, k := range a.elementKeys() {
		if k == want {
			return true
		}
	}
	return false
}

// union appends the elements of o to the set a, rejecting duplicates.
func (a AttributeValue) union(o AttributeValue) (AttributeValue, error) {
	seen := make(map[string]struct{})
	for _, k := range a.elementKeys() {
		seen[k] = struct{}{}
	}
	for _, k := range o.elementKeys() {
		if _, dup := seen[k]; dup {
			return AttributeValue{}, validationError("Input collection %s contains duplicates", a.name)
		}
		seen[k] = struct{}{}
	}

	out := a
	out.strs = append(append([]string(nil), a.strs...), o.strs...)
	out.nums = append(append([]number(nil), a.nums...), o.nums...)
	out.bins = append(append([][]byte(nil), a.bins...), o.bins...)
	return out, nil
}

// minus removes the elements of o from the set a. empty is true when
// nothing is left.
func (a AttributeValue) minus(o AttributeValue) (out AttributeValue, empty bool) {
	drop := make(map[string]struct{})
	for _, k := range o.elementKeys() {
		drop[k] = struct{}{}
	}
	out = AttributeValue{name: a.name, typ: a.typ}
	keys := a.elementKeys()
	for i, k := range keys {
		if _, gone := drop[k]; gone {
			continue
		}
		switch a.typ {
		case TypeStringSet:
			out.strs = append(out.strs, a.strs[i])
		case TypeNumberSet:
			out.nums = append(out.nums, a.nums[i])
		case TypeBinarySet:
			out.bins = append(out.bins, a.bins[i])
		}
	}
	return out, len(out.elementKeys()) == 0
}

func scalarText(name string, typ AttributeType, raw any, coerce bool) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		if coerce {
			return strconv.FormatBool(v), nil
		}
	}
	return "", validationError("Invalid %s value for attribute %s", string(typ), name)
}

func listText(name string, typ AttributeType, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if typ == TypeBinarySet {
				s, ok := e.(string)
				if !ok {
					return nil, validationError("Invalid BS value for attribute %s", name)
				}
				out = append(out, s)
				continue
			}
			s, err := scalarText(name, typ, e, typ == TypeStringSet)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, validationError("Invalid %s value for attribute %s", string(typ), name)
}

// number keeps the decimal text it was built from. f is only meaningful when
// exact is set, i.e. when the text survives a float64 round trip unchanged.
type number struct {
	text  string
	f     float64
	exact bool
}

const bigPrecision = 256

func parseNumber(name, s string) (number, error) {
	if !isDecimal(s) {
		return number{}, validationError("The parameter cannot be converted to a numeric value: %s (%s)", s, name)
	}
	bf, ok := new(big.Float).SetPrec(bigPrecision).SetString(s)
	if !ok || bf.IsInf() {
		return number{}, validationError("The parameter cannot be converted to a numeric value: %s (%s)", s, name)
	}
	n := number{text: s}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && !math.IsInf(f, 0) && strconv.FormatFloat(f, 'f', -1, 64) == s {
		n.f = f
		n.exact = true
	}
	return n, nil
}

// isDecimal accepts [+-]digits[.digits][(e|E)[+-]digits] with at least one
// mantissa digit.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func (n number) big() *big.Float {
	f, _ := new(big.Float).SetPrec(bigPrecision).SetString(n.text)
	return f
}

func (n number) cmp(o number) int {
	if n.exact && o.exact {
		switch {
		case n.f < o.f:
			return -1
		case n.f > o.f:
			return 1
		}
		return 0
	}
	return n.big().Cmp(o.big())
}

func (n number) add(o number) number {
	if n.exact && o.exact {
		if sum := n.f + o.f; !math.IsInf(sum, 0) {
			return number{text: strconv.FormatFloat(sum, 'f', -1, 64), f: sum, exact: true}
		}
	}
	sum := new(big.Float).SetPrec(bigPrecision).Add(n.big(), o.big())
	out, err := parseNumber("", sum.Text('f', -1))
	if err != nil {
		return number{text: sum.Text('g', -1)}
	}
	return out
}

// key is a normalised form, equal for numerically equal values.
func (n number) key() string {
	return n.big().Text('g', -1)
}

// decodeBase64 is lenient: characters outside the alphabet are skipped and
// decoding stops at the first padding character.
func decodeBase64(s string) []byte {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			clean = append(clean, c)
		case c == '-':
			clean = append(clean, '+')
		case c == '_':
			clean = append(clean, '/')
		case c == '=':
			i = len(s)
		}
	}
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}
	out, err := base64.RawStdEncoding.DecodeString(string(clean))
	if err != nil {
		return nil
	}
	return out
}

// binaryString renders each byte as one rune (latin-1).
func binaryString(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
