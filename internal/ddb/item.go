// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

// UpdateAction is the action of an AttributeUpdates entry.
type UpdateAction string

const (
	ActionPut    UpdateAction = "PUT"
	ActionAdd    UpdateAction = "ADD"
	ActionDelete UpdateAction = "DELETE"
)

// AttributeUpdate is one named entry of UpdateItem's AttributeUpdates.
type AttributeUpdate struct {
	Action UpdateAction `json:"Action,omitempty"`
	Value  Value        `json:"Value,omitempty"`
}

// Item is a key plus its non-key attributes.
type Item struct {
	key   Key
	attrs map[string]AttributeValue
}

// ItemFromRecord splits a full wire record into key and attributes.
func ItemFromRecord(rec Record, schema KeySchema) (*Item, error) {
	key, err := KeyFromRecord(rec, schema)
	if err != nil {
		return nil, err
	}
	it := newItem(key)
	for name, v := range rec {
		if schema.IsKeyAttribute(name) {
			continue
		}
		av, err := FromWireValue(name, v)
		if err != nil {
			return nil, err
		}
		it.attrs[name] = av
	}
	return it, nil
}

func newItem(key Key) *Item {
	return &Item{key: key, attrs: make(map[string]AttributeValue)}
}

// Key returns the item key.
func (it *Item) Key() Key { return it.key }

// Attribute looks up any attribute, key attributes included.
func (it *Item) Attribute(name string) (AttributeValue, bool) {
	if name == it.key.Hash.Name() {
		return it.key.Hash, true
	}
	if it.key.Range != nil && name == it.key.Range.Name() {
		return *it.key.Range, true
	}
	av, ok := it.attrs[name]
	return av, ok
}

func (it *Item) isKeyAttribute(name string) bool {
	return name == it.key.Hash.Name() || (it.key.Range != nil && name == it.key.Range.Name())
}

// Record reassembles key and attributes into one flat wire record.
func (it *Item) Record() Record {
	return it.encode(AttributeValue.Wire)
}

func (it *Item) storage() Record {
	return it.encode(AttributeValue.storage)
}

func (it *Item) encode(fn func(AttributeValue) Value) Record {
	out := make(Record, len(it.attrs)+2)
	out[it.key.Hash.Name()] = fn(it.key.Hash)
	if it.key.Range != nil {
		out[it.key.Range.Name()] = fn(*it.key.Range)
	}
	for name, av := range it.attrs {
		out[name] = fn(av)
	}
	return out
}

// Project returns only the named attributes that are present. An empty list
// returns the whole record.
func (it *Item) Project(names []string) Record {
	if len(names) == 0 {
		return it.Record()
	}
	out := make(Record, len(names))
	for _, name := range names {
		if av, ok := it.Attribute(name); ok {
			out[name] = av.Wire()
		}
	}
	return out
}

func (it *Item) clone() *Item {
	c := newItem(it.key)
	for name, av := range it.attrs {
		c.attrs[name] = av
	}
	return c
}

// ApplyUpdate applies one PUT, ADD or DELETE action to the named attribute.
func (it *Item) ApplyUpdate(name string, u AttributeUpdate) error {
	if it.isKeyAttribute(name) {
		return validationError("Cannot update attribute %s. This attribute is part of the key", name)
	}

	var val *AttributeValue
	if u.Value != nil {
		av, err := FromWireValue(name, u.Value)
		if err != nil {
			return err
		}
		val = &av
	}

	action := u.Action
	if action == "" {
		action = ActionPut
	}

	switch action {
	case ActionPut:
		if val == nil {
			return validationError("Only DELETE action is allowed when no attribute value is specified: %s", name)
		}
		it.attrs[name] = *val
	case ActionDelete:
		return it.deleteAttribute(name, val)
	case ActionAdd:
		return it.addAttribute(name, val)
	default:
		return validationError("Unknown update action %s for attribute %s", string(u.Action), name)
	}
	return nil
}

func (it *Item) deleteAttribute(name string, val *AttributeValue) error {
	if val == nil {
		delete(it.attrs, name)
		return nil
	}
	if !val.Type().IsSet() {
		return validationError("DELETE action with value is not supported for the type %s", string(val.Type()))
	}
	old, ok := it.attrs[name]
	if !ok {
		return nil
	}
	if old.Type() != val.Type() {
		return validationError("Type mismatch for attribute to update: %s", name)
	}
	rest, empty := old.minus(*val)
	if empty {
		delete(it.attrs, name)
		return nil
	}
	it.attrs[name] = rest
	return nil
}

func (it *Item) addAttribute(name string, val *AttributeValue) error {
	if val == nil {
		return validationError("Only DELETE action is allowed when no attribute value is specified: %s", name)
	}
	switch val.Type() {
	case TypeNumber, TypeStringSet, TypeNumberSet:
	default:
		return validationError("ADD action is not supported for the type %s", string(val.Type()))
	}

	old, ok := it.attrs[name]
	if !ok {
		it.attrs[name] = *val
		return nil
	}
	if old.Type() != val.Type() {
		return validationError("Type mismatch for attribute to update: %s", name)
	}

	if val.Type() == TypeNumber {
		sum := old
		sum.num = old.num.add(val.num)
		it.attrs[name] = sum
		return nil
	}
	merged, err := old.union(*val)
	if err != nil {
		return err
	}
	it.attrs[name] = merged
	return nil
}
