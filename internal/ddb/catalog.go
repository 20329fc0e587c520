// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// maxBatchWriteRequests is the aggregate request ceiling of BatchWriteItem.
const maxBatchWriteRequests = 100

// Operation is one of the operations Process understands.
type Operation int

const (
	OpCreateTable Operation = iota + 1
	OpDescribeTable
	OpDeleteTable
	OpListTables
	OpUpdateTable
	OpPutItem
	OpGetItem
	OpDeleteItem
	OpUpdateItem
	OpQuery
	OpScan
	OpBatchGetItem
	OpBatchWriteItem
)

var operationNames = map[Operation]string{
	OpCreateTable:    "CreateTable",
	OpDescribeTable:  "DescribeTable",
	OpDeleteTable:    "DeleteTable",
	OpListTables:     "ListTables",
	OpUpdateTable:    "UpdateTable",
	OpPutItem:        "PutItem",
	OpGetItem:        "GetItem",
	OpDeleteItem:     "DeleteItem",
	OpUpdateItem:     "UpdateItem",
	OpQuery:          "Query",
	OpScan:           "Scan",
	OpBatchGetItem:   "BatchGetItem",
	OpBatchWriteItem: "BatchWriteItem",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames))
	for op, name := range operationNames {
		m[name] = op
	}
	return m
}()

// ParseOperation resolves a wire operation name.
func ParseOperation(name string) (Operation, bool) {
	op, ok := operationsByName[name]
	return op, ok
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "Unknown"
}

// Mutating reports whether the operation can change catalog state.
func (o Operation) Mutating() bool {
	switch o {
	case OpCreateTable, OpDeleteTable, OpUpdateTable, OpPutItem, OpDeleteItem, OpUpdateItem, OpBatchWriteItem:
		return true
	}
	return false
}

// Catalog is the set of tables of one namespace. Every exported method runs
// to completion under the catalog lock.
type Catalog struct {
	mu       sync.Mutex
	tables   map[string]*Table
	payloads map[string]json.RawMessage
	now      func() time.Time
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:   make(map[string]*Table),
		payloads: make(map[string]json.RawMessage),
		now:      time.Now,
	}
}

// Process decodes payload for op and runs it.
func (c *Catalog) Process(op Operation, payload json.RawMessage) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch op {
	case OpCreateTable:
		return run(payload, c.createTable)
	case OpDescribeTable:
		return run(payload, c.describeTable)
	case OpDeleteTable:
		return run(payload, c.deleteTable)
	case OpListTables:
		return run(payload, c.listTables)
	case OpUpdateTable:
		return run(payload, c.updateTable)
	case OpPutItem:
		return run(payload, func(in PutItemInput) (*ItemOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.putItem(in)
		})
	case OpGetItem:
		return run(payload, func(in GetItemInput) (*GetItemOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.getItem(in)
		})
	case OpDeleteItem:
		return run(payload, func(in DeleteItemInput) (*ItemOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.deleteItem(in)
		})
	case OpUpdateItem:
		return run(payload, func(in UpdateItemInput) (*ItemOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.updateItem(in)
		})
	case OpQuery:
		return run(payload, func(in QueryInput) (*QueryOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.query(in)
		})
	case OpScan:
		return run(payload, func(in ScanInput) (*ScanOutput, error) {
			t, err := c.table(in.TableName)
			if err != nil {
				return nil, err
			}
			return t.scan(in)
		})
	case OpBatchGetItem:
		return run(payload, c.batchGetItem)
	case OpBatchWriteItem:
		return run(payload, func(in BatchWriteItemInput) (*BatchWriteItemOutput, error) {
			plan, err := c.planBatchWrite(in)
			if err != nil {
				return nil, err
			}
			return c.applyBatchWrite(plan), nil
		})
	}
	return nil, validationError("Unsupported operation %d", int(op))
}

func run[In, Out any](payload json.RawMessage, fn func(In) (Out, error)) (any, error) {
	var in In
	if err := decodePayload(payload, &in); err != nil {
		return nil, err
	}
	return fn(in)
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return newError(KindSerialization, "%s", err.Error())
	}
	return nil
}

func (c *Catalog) table(name string) (*Table, error) {
	if name == "" {
		return nil, validationError("TableName is required")
	}
	t, ok := c.tables[name]
	if !ok {
		return nil, notFoundError("Requested resource not found: Table: %s not found", name)
	}
	return t, nil
}

func (c *Catalog) createTable(in CreateTableInput) (*TableDescriptionOutput, error) {
	if _, exists := c.tables[in.TableName]; exists {
		return nil, newError(KindResourceInUse, "Attempt to change a resource which is still in use: Table already exists: %s", in.TableName)
	}
	t, err := newTable(in, c.now)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	t.activate()
	desc := t.Description()
	c.tables[in.TableName] = t
	c.payloads[in.TableName] = raw
	return &TableDescriptionOutput{TableDescription: desc}, nil
}

func (c *Catalog) describeTable(in TableNameInput) (*DescribeTableOutput, error) {
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	return &DescribeTableOutput{Table: t.Description()}, nil
}

func (c *Catalog) deleteTable(in TableNameInput) (*TableDescriptionOutput, error) {
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	t.drop()
	desc := t.Description()
	delete(c.tables, in.TableName)
	delete(c.payloads, in.TableName)
	return &TableDescriptionOutput{TableDescription: desc}, nil
}

func (c *Catalog) updateTable(in UpdateTableInput) (*TableDescriptionOutput, error) {
	t, err := c.table(in.TableName)
	if err != nil {
		return nil, err
	}
	desc, err := t.update(in.ProvisionedThroughput)
	if err != nil {
		return nil, err
	}
	return &TableDescriptionOutput{TableDescription: desc}, nil
}

func (c *Catalog) listTables(in ListTablesInput) (*ListTablesOutput, error) {
	if in.Limit != nil && *in.Limit <= 0 {
		return nil, validationError("Limit failed to satisfy constraint: Member must have value greater than or equal to 1")
	}
	names := c.tableNames()
	if in.ExclusiveStartTableName != "" {
		i := sort.SearchStrings(names, in.ExclusiveStartTableName)
		if i < len(names) && names[i] == in.ExclusiveStartTableName {
			i++
		}
		names = names[i:]
	}

	out := &ListTablesOutput{TableNames: names}
	if in.Limit != nil && len(names) > *in.Limit {
		out.TableNames = names[:*in.Limit]
		out.LastEvaluatedTableName = out.TableNames[len(out.TableNames)-1]
	}
	return out, nil
}

func (c *Catalog) tableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) batchGetItem(in BatchGetItemInput) (*BatchGetItemOutput, error) {
	names := make([]string, 0, len(in.RequestItems))
	for name := range in.RequestItems {
		if _, err := c.table(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := &BatchGetItemOutput{
		Responses:       make(map[string]BatchGetResponse, len(names)),
		UnprocessedKeys: map[string]KeysAndAttributes{},
	}
	for _, name := range names {
		req := in.RequestItems[name]
		items, err := c.tables[name].batchGet(req.Keys, req.AttributesToGet)
		if err != nil {
			return nil, err
		}
		out.Responses[name] = BatchGetResponse{Items: items, ConsumedCapacityUnits: consumedCapacity}
	}
	return out, nil
}

type pendingWrite struct {
	put *Item
	del Key
}

type tableWrites struct {
	table  *Table
	writes []pendingWrite
}

// batchWritePlan is a fully validated BatchWriteItem request.
type batchWritePlan struct {
	tables []tableWrites
}

// planBatchWrite resolves and validates every request without mutating
// anything.
func (c *Catalog) planBatchWrite(in BatchWriteItemInput) (*batchWritePlan, error) {
	total := 0
	for _, reqs := range in.RequestItems {
		total += len(reqs)
	}
	if total > maxBatchWriteRequests {
		return nil, validationError(
			"Too many items requested for the BatchWriteItem call: %d (max %d)", total, maxBatchWriteRequests)
	}

	names := make([]string, 0, len(in.RequestItems))
	for name := range in.RequestItems {
		names = append(names, name)
	}
	sort.Strings(names)

	plan := &batchWritePlan{}
	for _, name := range names {
		t, err := c.table(name)
		if err != nil {
			return nil, err
		}
		tw := tableWrites{table: t}
		for _, req := range in.RequestItems[name] {
			switch {
			case req.PutRequest != nil && req.DeleteRequest != nil:
				return nil, validationError("A WriteRequest must contain exactly one of PutRequest or DeleteRequest")
			case req.PutRequest != nil:
				it, err := t.batchPutRequest(req.PutRequest)
				if err != nil {
					return nil, err
				}
				tw.writes = append(tw.writes, pendingWrite{put: it})
			case req.DeleteRequest != nil:
				key, err := t.batchDeleteRequest(req.DeleteRequest)
				if err != nil {
					return nil, err
				}
				tw.writes = append(tw.writes, pendingWrite{del: key})
			default:
				return nil, validationError("A WriteRequest must contain exactly one of PutRequest or DeleteRequest")
			}
		}
		plan.tables = append(plan.tables, tw)
	}
	return plan, nil
}

// applyBatchWrite performs a plan. Requests apply in order, so the last
// request for a key wins.
func (c *Catalog) applyBatchWrite(plan *batchWritePlan) *BatchWriteItemOutput {
	out := &BatchWriteItemOutput{
		Responses:        make(map[string]BatchWriteResponse, len(plan.tables)),
		UnprocessedItems: map[string][]WriteRequest{},
	}
	for _, tw := range plan.tables {
		for _, w := range tw.writes {
			if w.put != nil {
				tw.table.batchPut(w.put)
			} else {
				tw.table.batchDelete(w.del)
			}
		}
		out.Responses[tw.table.name] = BatchWriteResponse{ConsumedCapacityUnits: consumedCapacity}
	}
	return out
}

// Snapshot is the persisted state of a catalog: the CreateTable payload of
// every table plus its items.
type Snapshot struct {
	Tables map[string]json.RawMessage `json:"tables"`
	Items  map[string][]Record        `json:"items"`
}

// Snapshot captures the catalog state.
func (c *Catalog) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Snapshot{
		Tables: make(map[string]json.RawMessage, len(c.tables)),
		Items:  make(map[string][]Record, len(c.tables)),
	}
	for name, t := range c.tables {
		s.Tables[name] = append(json.RawMessage(nil), c.payloads[name]...)
		s.Items[name] = t.storageRecords()
	}
	return s
}

// Restore replays CreateTable for every stored table and reloads its items.
// Tables that already exist are left untouched.
func (c *Catalog) Restore(s *Snapshot) error {
	if s == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := c.tables[name]; exists {
			continue
		}
		var in CreateTableInput
		if err := decodePayload(s.Tables[name], &in); err != nil {
			return errors.Wrapf(err, "restore table %s", name)
		}
		if _, err := c.createTable(in); err != nil {
			return errors.Wrapf(err, "restore table %s", name)
		}
		t := c.tables[in.TableName]
		for _, rec := range s.Items[name] {
			it, err := ItemFromRecord(rec, t.schema)
			if err != nil {
				return errors.Wrapf(err, "restore item of %s", name)
			}
			t.items.Put(it.key, it)
		}
	}
	return nil
}

// TableNames lists the tables in name order.
func (c *Catalog) TableNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tableNames()
}

// Describe returns the description of one table.
func (c *Catalog) Describe(name string) (TableDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(name)
	if err != nil {
		return TableDescription{}, err
	}
	return t.Description(), nil
}

// Items returns every item of one table in key order.
func (c *Catalog) Items(name string) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(name)
	if err != nil {
		return nil, err
	}
	return t.Records(), nil
}

// Stats returns the access log of one table.
func (c *Catalog) Stats(name string) (map[string][]StatEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.table(name)
	if err != nil {
		return nil, err
	}
	return t.Stats(), nil
}
