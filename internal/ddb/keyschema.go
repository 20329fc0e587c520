// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

// KeyType is the role of a key attribute.
type KeyType string

const (
	KeyTypeHash  KeyType = "HASH"
	KeyTypeRange KeyType = "RANGE"
)

// KeySchemaElement defines key schema
type KeySchemaElement struct {
	AttributeName string  `json:"AttributeName"`
	KeyType       KeyType `json:"KeyType"`
}

// AttributeDefinition defines an attribute for the table
type AttributeDefinition struct {
	AttributeName string        `json:"AttributeName"`
	AttributeType AttributeType `json:"AttributeType"` // S, N, B
}

// KeyElement is one component of a key schema.
type KeyElement struct {
	Name string
	Type AttributeType
}

// KeySchema names the hash attribute and, optionally, the range attribute of
// a table. It is fixed at table creation.
type KeySchema struct {
	Hash  KeyElement
	Range *KeyElement
}

// ParseKeySchema resolves the ordered HASH/RANGE list against the attribute
// definitions. Key attributes without a definition are strings.
func ParseKeySchema(elems []KeySchemaElement, defs []AttributeDefinition) (KeySchema, error) {
	types := make(map[string]AttributeType, len(defs))
	for _, d := range defs {
		switch d.AttributeType {
		case TypeString, TypeNumber, TypeBinary:
		default:
			return KeySchema{}, validationError(
				"Invalid AttributeType %q for attribute %s", string(d.AttributeType), d.AttributeName)
		}
		types[d.AttributeName] = d.AttributeType
	}

	var (
		schema  KeySchema
		hasHash bool
	)
	for _, e := range elems {
		if e.AttributeName == "" {
			return KeySchema{}, validationError("Empty attribute name in KeySchema")
		}
		el := KeyElement{Name: e.AttributeName, Type: TypeString}
		if t, ok := types[e.AttributeName]; ok {
			el.Type = t
		}

		switch e.KeyType {
		case KeyTypeHash:
			if hasHash {
				return KeySchema{}, validationError("Too many hash keys specified. All Dynamo DB tables must have exactly one hash key")
			}
			schema.Hash = el
			hasHash = true
		case KeyTypeRange:
			if schema.Range != nil {
				return KeySchema{}, validationError("Too many range keys specified")
			}
			schema.Range = &el
		default:
			return KeySchema{}, validationError("Invalid KeyType %q for attribute %s", string(e.KeyType), e.AttributeName)
		}
	}

	if !hasHash {
		return KeySchema{}, validationError("No Hash Key specified in schema. All Dynamo DB tables must have exactly one hash key")
	}
	if schema.Range != nil && schema.Range.Name == schema.Hash.Name {
		return KeySchema{}, validationError("Both the Hash Key and the Range Key element in the KeySchema have the same name")
	}
	return schema, nil
}

// HasRange reports whether the schema declares a range key.
func (s KeySchema) HasRange() bool { return s.Range != nil }

// IsKeyAttribute reports whether name is the hash or range attribute.
func (s KeySchema) IsKeyAttribute(name string) bool {
	return name == s.Hash.Name || (s.Range != nil && name == s.Range.Name)
}

// KeyElementDescription describes one component of a key schema.
type KeyElementDescription struct {
	AttributeName string        `json:"AttributeName"`
	AttributeType AttributeType `json:"AttributeType"`
}

// KeySchemaDescription is the map form used in table descriptions.
type KeySchemaDescription struct {
	HashKeyElement  KeyElementDescription  `json:"HashKeyElement"`
	RangeKeyElement *KeyElementDescription `json:"RangeKeyElement,omitempty"`
}

// Description renders the schema for a table description.
func (s KeySchema) Description() KeySchemaDescription {
	d := KeySchemaDescription{
		HashKeyElement: KeyElementDescription{AttributeName: s.Hash.Name, AttributeType: s.Hash.Type},
	}
	if s.Range != nil {
		d.RangeKeyElement = &KeyElementDescription{AttributeName: s.Range.Name, AttributeType: s.Range.Type}
	}
	return d
}
