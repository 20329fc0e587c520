// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"sort"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/google/uuid"
)

// Stat names recorded per item-level operation.
const (
	StatPutItem         = "PUT_ITEM"
	StatGetItem         = "GET_ITEM"
	StatDeleteItem      = "DELETE_ITEM"
	StatUpdateItem      = "UPDATE_ITEM"
	StatBatchGetItem    = "BATCH_GET_ITEM"
	StatBatchPutItem    = "BATCH_PUT_ITEM"
	StatBatchDeleteItem = "BATCH_DELETE_ITEM"
)

// consumedCapacity is the fixed cost reported by every item-level operation.
const consumedCapacity = 1

// StatEntry records one access to a key.
type StatEntry struct {
	K string `json:"k"`
	T int64  `json:"t"`
}

// Table owns the items of one table, ordered by key.
type Table struct {
	name   string
	id     string
	schema KeySchema

	read, write    int64
	status         TableStatus
	created        time.Time
	lastIncrease   time.Time
	lastDecrease   time.Time
	decreasesToday int64

	items *treemap.Map
	stats map[string][]StatEntry
	now   func() time.Time
}

func newTable(in CreateTableInput, now func() time.Time) (*Table, error) {
	if in.TableName == "" {
		return nil, validationError("TableName is required")
	}
	schema, err := ParseKeySchema(in.KeySchema, in.AttributeDefinitions)
	if err != nil {
		return nil, err
	}
	if err := validateThroughput(in.ProvisionedThroughput); err != nil {
		return nil, err
	}

	return &Table{
		name:    in.TableName,
		id:      uuid.New().String(),
		schema:  schema,
		read:    in.ProvisionedThroughput.ReadCapacityUnits,
		write:   in.ProvisionedThroughput.WriteCapacityUnits,
		status:  StatusCreating,
		created: now(),
		items:   treemap.NewWith(keyComparator),
		stats:   make(map[string][]StatEntry),
		now:     now,
	}, nil
}

func validateThroughput(pt *ProvisionedThroughput) error {
	if pt == nil {
		return validationError("ProvisionedThroughput is required")
	}
	if pt.ReadCapacityUnits < 1 || pt.WriteCapacityUnits < 1 {
		return validationError("ProvisionedThroughput units must be greater than or equal to 1")
	}
	return nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the key schema.
func (t *Table) Schema() KeySchema { return t.schema }

// Status returns the stored lifecycle status.
func (t *Table) Status() TableStatus { return t.status }

// ItemCount returns the number of stored items.
func (t *Table) ItemCount() int { return t.items.Size() }

func (t *Table) activate() { t.status = StatusActive }

func (t *Table) drop() { t.status = StatusDeleting }

func epoch(ts time.Time) float64 {
	return float64(ts.UnixNano()) / 1e9
}

// Description reports the table as it is stored.
func (t *Table) Description() TableDescription {
	return t.describe(t.status)
}

func (t *Table) describe(status TableStatus) TableDescription {
	pt := ProvisionedThroughputDescription{
		ReadCapacityUnits:      t.read,
		WriteCapacityUnits:     t.write,
		NumberOfDecreasesToday: t.decreasesToday,
	}
	if !t.lastIncrease.IsZero() {
		v := epoch(t.lastIncrease)
		pt.LastIncreaseDateTime = &v
	}
	if !t.lastDecrease.IsZero() {
		v := epoch(t.lastDecrease)
		pt.LastDecreaseDateTime = &v
	}
	return TableDescription{
		TableName:             t.name,
		TableId:               t.id,
		TableStatus:           status,
		CreationDateTime:      epoch(t.created),
		KeySchema:             t.schema.Description(),
		ProvisionedThroughput: pt,
		ItemCount:             t.items.Size(),
	}
}

// update changes the throughput and returns the description reported while
// the change is in progress.
func (t *Table) update(pt *ProvisionedThroughput) (TableDescription, error) {
	if err := validateThroughput(pt); err != nil {
		return TableDescription{}, err
	}
	now := t.now()
	increased := pt.ReadCapacityUnits > t.read || pt.WriteCapacityUnits > t.write
	decreased := pt.ReadCapacityUnits < t.read || pt.WriteCapacityUnits < t.write
	if increased {
		t.lastIncrease = now
	}
	if decreased {
		t.lastDecrease = now
		t.decreasesToday++
	}
	t.read = pt.ReadCapacityUnits
	t.write = pt.WriteCapacityUnits

	desc := t.describe(StatusUpdating)
	t.status = StatusActive
	return desc, nil
}

func (t *Table) record(op string, key Key) {
	t.stats[op] = append(t.stats[op], StatEntry{K: key.String(), T: t.now().UnixMilli()})
}

// Stats returns a copy of the per-operation access log.
func (t *Table) Stats() map[string][]StatEntry {
	out := make(map[string][]StatEntry, len(t.stats))
	for op, entries := range t.stats {
		out[op] = append([]StatEntry(nil), entries...)
	}
	return out
}

func (t *Table) lookup(key Key) *Item {
	v, ok := t.items.Get(key)
	if !ok {
		return nil
	}
	return v.(*Item)
}

// Records returns every item in key order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, t.items.Size())
	for _, it := range t.all() {
		out = append(out, it.Record())
	}
	return out
}

func (t *Table) storageRecords() []Record {
	out := make([]Record, 0, t.items.Size())
	for _, it := range t.all() {
		out = append(out, it.storage())
	}
	return out
}

func (t *Table) all() []*Item {
	out := make([]*Item, 0, t.items.Size())
	iter := t.items.Iterator()
	for iter.Next() {
		out = append(out, iter.Value().(*Item))
	}
	return out
}

func (t *Table) putItem(in PutItemInput) (*ItemOutput, error) {
	if err := in.ReturnValues.validate(); err != nil {
		return nil, err
	}
	item, err := ItemFromRecord(in.Item, t.schema)
	if err != nil {
		return nil, err
	}
	old := t.lookup(item.key)
	if err := checkExpected(old, in.Expected); err != nil {
		return nil, err
	}

	t.items.Put(item.key, item)
	t.record(StatPutItem, item.key)

	names := make([]string, 0, len(in.Item))
	for name := range in.Item {
		names = append(names, name)
	}
	return &ItemOutput{
		Attributes:            returnValues(in.ReturnValues, old, item, names),
		ConsumedCapacityUnits: consumedCapacity,
	}, nil
}

func (t *Table) getItem(in GetItemInput) (*GetItemOutput, error) {
	key, err := KeyFromWire(in.Key, t.schema)
	if err != nil {
		return nil, err
	}
	t.record(StatGetItem, key)

	out := &GetItemOutput{ConsumedCapacityUnits: consumedCapacity}
	if it := t.lookup(key); it != nil {
		out.Item = it.Project(in.AttributesToGet)
	}
	return out, nil
}

func (t *Table) deleteItem(in DeleteItemInput) (*ItemOutput, error) {
	if err := in.ReturnValues.validate(); err != nil {
		return nil, err
	}
	key, err := KeyFromWire(in.Key, t.schema)
	if err != nil {
		return nil, err
	}
	old := t.lookup(key)
	if err := checkExpected(old, in.Expected); err != nil {
		return nil, err
	}

	if old != nil {
		t.items.Remove(key)
	}
	t.record(StatDeleteItem, key)
	return &ItemOutput{
		Attributes:            returnValues(in.ReturnValues, old, nil, nil),
		ConsumedCapacityUnits: consumedCapacity,
	}, nil
}

func (t *Table) updateItem(in UpdateItemInput) (*ItemOutput, error) {
	if err := in.ReturnValues.validate(); err != nil {
		return nil, err
	}
	key, err := KeyFromWire(in.Key, t.schema)
	if err != nil {
		return nil, err
	}
	old := t.lookup(key)
	if err := checkExpected(old, in.Expected); err != nil {
		return nil, err
	}

	var next *Item
	if old != nil {
		next = old.clone()
	} else {
		next = newItem(key)
	}
	names := make([]string, 0, len(in.AttributeUpdates))
	for _, u := range in.AttributeUpdates {
		if err := next.ApplyUpdate(u.Name, u.AttributeUpdate); err != nil {
			return nil, err
		}
		names = append(names, u.Name)
	}

	t.items.Put(key, next)
	t.record(StatUpdateItem, key)
	return &ItemOutput{
		Attributes:            returnValues(in.ReturnValues, old, next, names),
		ConsumedCapacityUnits: consumedCapacity,
	}, nil
}

// returnValues picks the record echoed by a write. updated lists the
// attribute names the write touched.
func returnValues(mode ReturnValues, old, cur *Item, updated []string) Record {
	pick := func(it *Item) Record {
		if it == nil {
			return nil
		}
		out := make(Record)
		for _, name := range updated {
			if av, ok := it.Attribute(name); ok {
				out[name] = av.Wire()
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	full := func(it *Item) Record {
		if it == nil {
			return nil
		}
		return it.Record()
	}

	switch mode {
	case ReturnNone:
		return nil
	case ReturnAllOld:
		return full(old)
	case ReturnAllNew:
		return full(cur)
	case ReturnUpdatedOld:
		return pick(old)
	case ReturnUpdatedNew:
		return pick(cur)
	}
	if cur != nil {
		return cur.Record()
	}
	return full(old)
}

type expectation struct {
	name   string
	absent bool
	value  AttributeValue
}

// checkExpected validates every condition before evaluating any of them
// against the current item, which may be nil.
func checkExpected(cur *Item, expected map[string]ExpectedAttributeValue) error {
	if len(expected) == 0 {
		return nil
	}
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make([]expectation, 0, len(names))
	for _, name := range names {
		e := expected[name]
		if e.Value == nil {
			if e.Exists == nil || *e.Exists {
				return validationError(
					"One or more parameter values were invalid: Exists is set to TRUE for attribute (%s), Value must also be set", name)
			}
			checks = append(checks, expectation{name: name, absent: true})
			continue
		}
		if e.Exists != nil && !*e.Exists {
			return validationError(
				"One or more parameter values were invalid: Value cannot be used when Exists is false for attribute (%s)", name)
		}
		av, err := FromWireValue(name, e.Value)
		if err != nil {
			return err
		}
		checks = append(checks, expectation{name: name, value: av})
	}

	for _, c := range checks {
		var (
			current AttributeValue
			present bool
		)
		if cur != nil {
			current, present = cur.Attribute(c.name)
		}
		if c.absent {
			if present {
				return conditionalCheckFailed()
			}
			continue
		}
		if !present || !current.Equal(c.value) {
			return conditionalCheckFailed()
		}
	}
	return nil
}

func validateReadOptions(limit *int, count bool, attrs []string) error {
	if count && len(attrs) > 0 {
		return validationError("Cannot specify the AttributesToGet when choosing to get only the Count")
	}
	if limit != nil && *limit <= 0 {
		return validationError("Limit failed to satisfy constraint: Member must have value greater than or equal to 1")
	}
	return nil
}

func (t *Table) query(in QueryInput) (*QueryOutput, error) {
	if !t.schema.HasRange() {
		return nil, validationError("Query can be performed only on a table with a HASH,RANGE key schema")
	}
	if err := validateReadOptions(in.Limit, in.Count, in.AttributesToGet); err != nil {
		return nil, err
	}
	if in.HashKeyValue == nil {
		return nil, validationError("HashKeyValue is required")
	}
	hash, err := FromWireValue(t.schema.Hash.Name, in.HashKeyValue)
	if err != nil {
		return nil, err
	}
	if hash.Type() != t.schema.Hash.Type {
		return nil, validationError(
			"One or more parameter values were invalid: Type mismatch for key %s", t.schema.Hash.Name)
	}

	var filters []filter
	if c := in.RangeKeyCondition; c != nil {
		if !rangeOperators[c.ComparisonOperator] {
			return nil, validationError(
				"Attempted conditional constraint is not an indexable operation: %s", string(c.ComparisonOperator))
		}
		f, err := compileFilter(t.schema.Range.Name, *c)
		if err != nil {
			return nil, err
		}
		for _, a := range f.args {
			if a.Type() != t.schema.Range.Type {
				return nil, validationError(
					"One or more parameter values were invalid: Type mismatch for key %s", t.schema.Range.Name)
			}
		}
		filters = append(filters, f)
	}

	forward := in.ScanIndexForward == nil || *in.ScanIndexForward
	var matched []*Item
	iter := t.items.Iterator()
	for iter.Next() {
		k := iter.Key().(Key)
		c := compareComponent(k.Hash, hash)
		if c > 0 {
			break
		}
		if c == 0 {
			matched = append(matched, iter.Value().(*Item))
		}
	}
	if !forward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	matched, err = t.dropTillStart(matched, in.ExclusiveStartKey, forward)
	if err != nil {
		return nil, err
	}
	page, err := paginate(matched, filters, in.Limit, true)
	if err != nil {
		return nil, err
	}

	out := &QueryOutput{Count: len(page.items), ConsumedCapacityUnits: consumedCapacity}
	if !in.Count {
		out.Items = project(page.items, in.AttributesToGet)
	}
	if page.last != nil {
		out.LastEvaluatedKey = page.last.key.Wire()
	}
	return out, nil
}

func (t *Table) scan(in ScanInput) (*ScanOutput, error) {
	if err := validateReadOptions(in.Limit, in.Count, in.AttributesToGet); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(in.ScanFilter))
	for name := range in.ScanFilter {
		names = append(names, name)
	}
	sort.Strings(names)
	filters := make([]filter, 0, len(names))
	for _, name := range names {
		f, err := compileFilter(name, in.ScanFilter[name])
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	items, err := t.dropTillStart(t.all(), in.ExclusiveStartKey, true)
	if err != nil {
		return nil, err
	}
	page, err := paginate(items, filters, in.Limit, false)
	if err != nil {
		return nil, err
	}

	out := &ScanOutput{
		Count:                 len(page.items),
		ScannedCount:          page.scanned,
		ConsumedCapacityUnits: consumedCapacity,
	}
	if !in.Count {
		out.Items = project(page.items, in.AttributesToGet)
	}
	if page.last != nil {
		out.LastEvaluatedKey = page.last.key.Wire()
	}
	return out, nil
}

// dropTillStart removes every item at or before start in iteration order.
// items must already be sorted in that order.
func (t *Table) dropTillStart(items []*Item, start Record, forward bool) ([]*Item, error) {
	if start == nil {
		return items, nil
	}
	key, err := KeyFromWire(start, t.schema)
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		c := CompareKeys(it.key, key)
		if (forward && c > 0) || (!forward && c < 0) {
			return items[i:], nil
		}
	}
	return nil, nil
}

type page struct {
	items   []*Item
	last    *Item
	scanned int
}

// paginate selects items passing every filter until limit items have been
// selected. last is set only when items remain unexamined.
func paginate(items []*Item, filters []filter, limit *int, strict bool) (page, error) {
	var p page
	for i, it := range items {
		p.scanned++
		selected := true
		for _, f := range filters {
			ok, err := f.eval(it, strict)
			if err != nil {
				return page{}, err
			}
			if !ok {
				selected = false
				break
			}
		}
		if !selected {
			continue
		}
		p.items = append(p.items, it)
		if limit != nil && len(p.items) == *limit {
			if i < len(items)-1 {
				p.last = it
			}
			break
		}
	}
	return p, nil
}

func project(items []*Item, names []string) []Record {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, it.Project(names))
	}
	return out
}

func (t *Table) batchPutRequest(req *PutRequest) (*Item, error) {
	return ItemFromRecord(req.Item, t.schema)
}

func (t *Table) batchDeleteRequest(req *DeleteRequest) (Key, error) {
	return KeyFromWire(req.Key, t.schema)
}

func (t *Table) batchPut(it *Item) {
	t.items.Put(it.key, it)
	t.record(StatBatchPutItem, it.key)
}

func (t *Table) batchDelete(key Key) {
	t.items.Remove(key)
	t.record(StatBatchDeleteItem, key)
}

func (t *Table) batchGet(keys []Record, attrs []string) ([]Record, error) {
	out := make([]Record, 0, len(keys))
	for _, wire := range keys {
		key, err := KeyFromWire(wire, t.schema)
		if err != nil {
			return nil, err
		}
		t.record(StatBatchGetItem, key)
		if it := t.lookup(key); it != nil {
			out = append(out, it.Project(attrs))
		}
	}
	return out, nil
}
