// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ReturnValues selects what a write operation echoes back.
type ReturnValues string

const (
	ReturnNone       ReturnValues = "NONE"
	ReturnAllOld     ReturnValues = "ALL_OLD"
	ReturnAllNew     ReturnValues = "ALL_NEW"
	ReturnUpdatedOld ReturnValues = "UPDATED_OLD"
	ReturnUpdatedNew ReturnValues = "UPDATED_NEW"
)

func (r ReturnValues) validate() error {
	switch r {
	case "", ReturnNone, ReturnAllOld, ReturnAllNew, ReturnUpdatedOld, ReturnUpdatedNew:
		return nil
	}
	return validationError("Unsupported ReturnValues value %s", string(r))
}

// TableStatus is the lifecycle state of a table.
type TableStatus string

const (
	StatusCreating TableStatus = "CREATING"
	StatusActive   TableStatus = "ACTIVE"
	StatusUpdating TableStatus = "UPDATING"
	StatusDeleting TableStatus = "DELETING"
)

// ProvisionedThroughput defines throughput settings
type ProvisionedThroughput struct {
	ReadCapacityUnits  int64 `json:"ReadCapacityUnits"`
	WriteCapacityUnits int64 `json:"WriteCapacityUnits"`
}

// ProvisionedThroughputDescription describes throughput
type ProvisionedThroughputDescription struct {
	ReadCapacityUnits      int64    `json:"ReadCapacityUnits"`
	WriteCapacityUnits     int64    `json:"WriteCapacityUnits"`
	LastIncreaseDateTime   *float64 `json:"LastIncreaseDateTime,omitempty"`
	LastDecreaseDateTime   *float64 `json:"LastDecreaseDateTime,omitempty"`
	NumberOfDecreasesToday int64    `json:"NumberOfDecreasesToday,omitempty"`
}

// TableDescription describes a table
type TableDescription struct {
	TableName             string                           `json:"TableName"`
	TableId               string                           `json:"TableId"`
	TableStatus           TableStatus                      `json:"TableStatus"`
	CreationDateTime      float64                          `json:"CreationDateTime"`
	KeySchema             KeySchemaDescription             `json:"KeySchema"`
	ProvisionedThroughput ProvisionedThroughputDescription `json:"ProvisionedThroughput"`
	ItemCount             int                              `json:"ItemCount"`
	TableSizeBytes        int64                            `json:"TableSizeBytes"`
}

// CreateTableInput is the input for CreateTable
type CreateTableInput struct {
	TableName             string                 `json:"TableName"`
	KeySchema             []KeySchemaElement     `json:"KeySchema"`
	AttributeDefinitions  []AttributeDefinition  `json:"AttributeDefinitions,omitempty"`
	ProvisionedThroughput *ProvisionedThroughput `json:"ProvisionedThroughput,omitempty"`
}

// TableDescriptionOutput is the output for CreateTable, UpdateTable and DeleteTable
type TableDescriptionOutput struct {
	TableDescription TableDescription `json:"TableDescription"`
}

// TableNameInput is the input for DescribeTable and DeleteTable
type TableNameInput struct {
	TableName string `json:"TableName"`
}

// DescribeTableOutput is the output for DescribeTable
type DescribeTableOutput struct {
	Table TableDescription `json:"Table"`
}

// ListTablesInput is the input for ListTables
type ListTablesInput struct {
	Limit                   *int   `json:"Limit,omitempty"`
	ExclusiveStartTableName string `json:"ExclusiveStartTableName,omitempty"`
}

// ListTablesOutput is the output for ListTables
type ListTablesOutput struct {
	TableNames             []string `json:"TableNames"`
	LastEvaluatedTableName string   `json:"LastEvaluatedTableName,omitempty"`
}

// UpdateTableInput is the input for UpdateTable
type UpdateTableInput struct {
	TableName             string                 `json:"TableName"`
	ProvisionedThroughput *ProvisionedThroughput `json:"ProvisionedThroughput,omitempty"`
}

// ExpectedAttributeValue is one precondition of a conditional write.
type ExpectedAttributeValue struct {
	Value  Value `json:"Value,omitempty"`
	Exists *bool `json:"Exists,omitempty"`
}

// PutItemInput is the input for PutItem
type PutItemInput struct {
	TableName    string                            `json:"TableName"`
	Item         Record                            `json:"Item"`
	Expected     map[string]ExpectedAttributeValue `json:"Expected,omitempty"`
	ReturnValues ReturnValues                      `json:"ReturnValues,omitempty"`
}

// GetItemInput is the input for GetItem
type GetItemInput struct {
	TableName       string   `json:"TableName"`
	Key             Record   `json:"Key"`
	AttributesToGet []string `json:"AttributesToGet,omitempty"`
	ConsistentRead  bool     `json:"ConsistentRead,omitempty"`
}

// DeleteItemInput is the input for DeleteItem
type DeleteItemInput struct {
	TableName    string                            `json:"TableName"`
	Key          Record                            `json:"Key"`
	Expected     map[string]ExpectedAttributeValue `json:"Expected,omitempty"`
	ReturnValues ReturnValues                      `json:"ReturnValues,omitempty"`
}

// NamedUpdate is an AttributeUpdates entry with its attribute name.
type NamedUpdate struct {
	Name string
	AttributeUpdate
}

// AttributeUpdates keeps the request order of UpdateItem's updates.
type AttributeUpdates []NamedUpdate

func (u *AttributeUpdates) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return errors.WithStack(err)
	}
	if tok == nil {
		*u = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Newf("AttributeUpdates: expected object, got %v", tok)
	}

	var out AttributeUpdates
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.WithStack(err)
		}
		name, _ := tok.(string)
		var upd AttributeUpdate
		if err := dec.Decode(&upd); err != nil {
			return errors.WithStack(err)
		}
		out = append(out, NamedUpdate{Name: name, AttributeUpdate: upd})
	}
	*u = out
	return nil
}

func (u AttributeUpdates) MarshalJSON() ([]byte, error) {
	m := make(map[string]AttributeUpdate, len(u))
	for _, e := range u {
		m[e.Name] = e.AttributeUpdate
	}
	return json.Marshal(m)
}

// UpdateItemInput is the input for UpdateItem
type UpdateItemInput struct {
	TableName        string                            `json:"TableName"`
	Key              Record                            `json:"Key"`
	AttributeUpdates AttributeUpdates                  `json:"AttributeUpdates,omitempty"`
	Expected         map[string]ExpectedAttributeValue `json:"Expected,omitempty"`
	ReturnValues     ReturnValues                      `json:"ReturnValues,omitempty"`
}

// ItemOutput is the output for PutItem, DeleteItem and UpdateItem
type ItemOutput struct {
	Attributes            Record  `json:"Attributes,omitempty"`
	ConsumedCapacityUnits float64 `json:"ConsumedCapacityUnits"`
}

// GetItemOutput is the output for GetItem
type GetItemOutput struct {
	Item                  Record  `json:"Item,omitempty"`
	ConsumedCapacityUnits float64 `json:"ConsumedCapacityUnits"`
}

// QueryInput is the input for Query
type QueryInput struct {
	TableName         string     `json:"TableName"`
	HashKeyValue      Value      `json:"HashKeyValue"`
	RangeKeyCondition *Condition `json:"RangeKeyCondition,omitempty"`
	ScanIndexForward  *bool      `json:"ScanIndexForward,omitempty"`
	Limit             *int       `json:"Limit,omitempty"`
	ExclusiveStartKey Record     `json:"ExclusiveStartKey,omitempty"`
	AttributesToGet   []string   `json:"AttributesToGet,omitempty"`
	Count             bool       `json:"Count,omitempty"`
	ConsistentRead    bool       `json:"ConsistentRead,omitempty"`
}

// QueryOutput is the output for Query
type QueryOutput struct {
	Items                 []Record `json:"Items,omitempty"`
	Count                 int      `json:"Count"`
	LastEvaluatedKey      Record   `json:"LastEvaluatedKey,omitempty"`
	ConsumedCapacityUnits float64  `json:"ConsumedCapacityUnits"`
}

// ScanInput is the input for Scan
type ScanInput struct {
	TableName         string               `json:"TableName"`
	ScanFilter        map[string]Condition `json:"ScanFilter,omitempty"`
	Limit             *int                 `json:"Limit,omitempty"`
	ExclusiveStartKey Record               `json:"ExclusiveStartKey,omitempty"`
	AttributesToGet   []string             `json:"AttributesToGet,omitempty"`
	Count             bool                 `json:"Count,omitempty"`
}

// ScanOutput is the output for Scan
type ScanOutput struct {
	Items                 []Record `json:"Items,omitempty"`
	Count                 int      `json:"Count"`
	ScannedCount          int      `json:"ScannedCount"`
	LastEvaluatedKey      Record   `json:"LastEvaluatedKey,omitempty"`
	ConsumedCapacityUnits float64  `json:"ConsumedCapacityUnits"`
}

// KeysAndAttributes lists the keys to read from one table.
type KeysAndAttributes struct {
	Keys            []Record `json:"Keys"`
	AttributesToGet []string `json:"AttributesToGet,omitempty"`
}

// BatchGetItemInput is the input for BatchGetItem
type BatchGetItemInput struct {
	RequestItems map[string]KeysAndAttributes `json:"RequestItems"`
}

// BatchGetResponse is one table's part of a BatchGetItem result.
type BatchGetResponse struct {
	Items                 []Record `json:"Items"`
	ConsumedCapacityUnits float64  `json:"ConsumedCapacityUnits"`
}

// BatchGetItemOutput is the output for BatchGetItem
type BatchGetItemOutput struct {
	Responses       map[string]BatchGetResponse  `json:"Responses"`
	UnprocessedKeys map[string]KeysAndAttributes `json:"UnprocessedKeys"`
}

// PutRequest is a batched put.
type PutRequest struct {
	Item Record `json:"Item"`
}

// DeleteRequest is a batched delete.
type DeleteRequest struct {
	Key Record `json:"Key"`
}

// WriteRequest holds exactly one of PutRequest or DeleteRequest.
type WriteRequest struct {
	PutRequest    *PutRequest    `json:"PutRequest,omitempty"`
	DeleteRequest *DeleteRequest `json:"DeleteRequest,omitempty"`
}

// BatchWriteItemInput is the input for BatchWriteItem
type BatchWriteItemInput struct {
	RequestItems map[string][]WriteRequest `json:"RequestItems"`
}

// BatchWriteResponse is one table's part of a BatchWriteItem result.
type BatchWriteResponse struct {
	ConsumedCapacityUnits float64 `json:"ConsumedCapacityUnits"`
}

// BatchWriteItemOutput is the output for BatchWriteItem
type BatchWriteItemOutput struct {
	Responses        map[string]BatchWriteResponse `json:"Responses"`
	UnprocessedItems map[string][]WriteRequest     `json:"UnprocessedItems"`
}
