// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"bytes"
	"strings"
)

// ComparisonOperator names a filter predicate.
type ComparisonOperator string

const (
	OpEQ          ComparisonOperator = "EQ"
	OpNE          ComparisonOperator = "NE"
	OpLE          ComparisonOperator = "LE"
	OpLT          ComparisonOperator = "LT"
	OpGE          ComparisonOperator = "GE"
	OpGT          ComparisonOperator = "GT"
	OpBetween     ComparisonOperator = "BETWEEN"
	OpBeginsWith  ComparisonOperator = "BEGINS_WITH"
	OpContains    ComparisonOperator = "CONTAINS"
	OpNotContains ComparisonOperator = "NOT_CONTAINS"
	OpNull        ComparisonOperator = "NULL"
	OpNotNull     ComparisonOperator = "NOT_NULL"
	OpIn          ComparisonOperator = "IN"
)

// Condition is a ScanFilter entry or a Query RangeKeyCondition.
type Condition struct {
	ComparisonOperator ComparisonOperator `json:"ComparisonOperator"`
	AttributeValueList []Value            `json:"AttributeValueList,omitempty"`
}

// atLeastOne marks predicates taking a variable, non-empty operand list.
const atLeastOne = -1

var (
	scalarTypes = []AttributeType{TypeString, TypeNumber, TypeBinary}
	prefixTypes = []AttributeType{TypeString, TypeBinary}
	memberTypes = []AttributeType{TypeString, TypeBinary, TypeStringSet, TypeNumberSet, TypeBinarySet}
)

type predicate struct {
	operands int
	types    []AttributeType
	match    func(target *AttributeValue, args []AttributeValue) bool
}

var predicates = map[ComparisonOperator]predicate{
	OpEQ: {1, scalarTypes, compareWith(func(c int) bool { return c == 0 })},
	OpNE: {1, scalarTypes, compareWith(func(c int) bool { return c != 0 })},
	OpLE: {1, scalarTypes, compareWith(func(c int) bool { return c <= 0 })},
	OpLT: {1, scalarTypes, compareWith(func(c int) bool { return c < 0 })},
	OpGE: {1, scalarTypes, compareWith(func(c int) bool { return c >= 0 })},
	OpGT: {1, scalarTypes, compareWith(func(c int) bool { return c > 0 })},
	OpBetween: {2, scalarTypes, func(t *AttributeValue, args []AttributeValue) bool {
		if t == nil {
			return false
		}
		lo, ok1 := t.compare(args[0])
		hi, ok2 := t.compare(args[1])
		return ok1 && ok2 && lo >= 0 && hi <= 0
	}},
	OpBeginsWith: {1, prefixTypes, func(t *AttributeValue, args []AttributeValue) bool {
		if t == nil || t.Type() != args[0].Type() {
			return false
		}
		if t.Type() == TypeString {
			return strings.HasPrefix(t.str, args[0].str)
		}
		return bytes.HasPrefix(t.bin, args[0].bin)
	}},
	OpContains: {1, memberTypes, func(t *AttributeValue, args []AttributeValue) bool {
		return t != nil && contains(*t, args[0])
	}},
	OpNotContains: {1, memberTypes, func(t *AttributeValue, args []AttributeValue) bool {
		return t != nil && !contains(*t, args[0])
	}},
	OpNull: {0, nil, func(t *AttributeValue, _ []AttributeValue) bool {
		return t == nil
	}},
	OpNotNull: {0, nil, func(t *AttributeValue, _ []AttributeValue) bool {
		return t != nil
	}},
	OpIn: {atLeastOne, scalarTypes, func(t *AttributeValue, args []AttributeValue) bool {
		if t == nil {
			return false
		}
		for _, a := range args {
			if c, ok := t.compare(a); ok && c == 0 {
				return true
			}
		}
		return false
	}},
}

// rangeOperators are the operators a Query RangeKeyCondition may use.
var rangeOperators = map[ComparisonOperator]bool{
	OpEQ: true, OpLE: true, OpLT: true, OpGE: true, OpGT: true, OpBeginsWith: true, OpBetween: true,
}

func compareWith(ok func(int) bool) func(*AttributeValue, []AttributeValue) bool {
	return func(t *AttributeValue, args []AttributeValue) bool {
		if t == nil {
			return false
		}
		c, same := t.compare(args[0])
		return same && ok(c)
	}
}

func contains(t, arg AttributeValue) bool {
	switch t.Type() {
	case TypeString:
		return arg.Type() == TypeString && strings.Contains(t.str, arg.str)
	case TypeBinary:
		return arg.Type() == TypeBinary && bytes.Contains(t.bin, arg.bin)
	}
	return t.containsElement(arg)
}

// filter is a compiled condition against one named attribute.
type filter struct {
	name string
	op   ComparisonOperator
	pred predicate
	args []AttributeValue
}

func compileFilter(name string, c Condition) (filter, error) {
	pred, ok := predicates[c.ComparisonOperator]
	if !ok {
		return filter{}, validationError("Unsupported comparison operator %s", string(c.ComparisonOperator))
	}
	n := len(c.AttributeValueList)
	if (pred.operands == atLeastOne && n == 0) || (pred.operands != atLeastOne && n != pred.operands) {
		return filter{}, validationError(
			"Invalid number of argument(s) for the %s ComparisonOperator", string(c.ComparisonOperator))
	}

	f := filter{name: name, op: c.ComparisonOperator, pred: pred}
	for _, v := range c.AttributeValueList {
		av, err := FromWireValue(name, v)
		if err != nil {
			return filter{}, err
		}
		if !av.Type().IsScalar() {
			return filter{}, validationError(
				"One or more parameter values were invalid: ComparisonOperator %s is not valid for %s AttributeValue type",
				string(c.ComparisonOperator), string(av.Type()))
		}
		f.args = append(f.args, av)
	}
	if c.ComparisonOperator == OpBetween && f.args[0].Type() != f.args[1].Type() {
		return filter{}, validationError("AttributeValues inside AttributeValueList must be of same type")
	}
	return f, nil
}

// typeError reports why target cannot be evaluated by f, or nil.
func (f filter) typeError(target AttributeValue) error {
	if f.pred.types == nil {
		return nil
	}
	supported := false
	for _, t := range f.pred.types {
		if t == target.Type() {
			supported = true
			break
		}
	}
	want := target.Type().Element()
	if supported {
		for _, a := range f.args {
			if a.Type() != want {
				supported = false
				break
			}
		}
	}
	if supported {
		return nil
	}
	return validationError(
		"One or more parameter values were invalid: ComparisonOperator %s is not valid for %s AttributeValue type",
		string(f.op), string(target.Type()))
}

// eval runs f against the item's attribute. In strict mode an attribute of
// an unsupported type is an error instead of a non-match.
func (f filter) eval(it *Item, strict bool) (bool, error) {
	av, ok := it.Attribute(f.name)
	if !ok {
		return f.pred.match(nil, f.args), nil
	}
	if err := f.typeError(av); err != nil {
		if strict {
			return false, err
		}
		return false, nil
	}
	return f.pred.match(&av, f.args), nil
}
