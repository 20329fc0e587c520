// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot

import (
	"context"

	"localdynamo/internal/ddb"
	"localdynamo/internal/resource"

	"github.com/cockroachdb/errors"
)

const (
	resourceID      = "snapshot"
	resourceService = "dynamodb"
	resourceType    = "snapshot"
)

// SQLBackend stores each namespace snapshot as one resource row.
type SQLBackend struct {
	store resource.Store
}

func NewSQLBackend(store resource.Store) *SQLBackend {
	return &SQLBackend{store: store}
}

func (b *SQLBackend) Save(_ context.Context, ns string, snap *ddb.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	row := &resource.Resource{
		ID:         resourceID,
		Namespace:  ns,
		Service:    resourceService,
		Type:       resourceType,
		Attributes: data,
	}

	_, err = b.store.Get(resourceID, resourceService, resourceType, ns)
	switch {
	case errors.Is(err, resource.ErrNotFound):
		return b.store.Create(row)
	case err != nil:
		return err
	}
	return b.store.Update(row)
}

func (b *SQLBackend) Load(_ context.Context) (map[string]*ddb.Snapshot, error) {
	rows, err := b.store.List(resourceService, resourceType, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ddb.Snapshot, len(rows))
	for _, r := range rows {
		snap, err := decode(r.Namespace, r.Attributes)
		if err != nil {
			return nil, err
		}
		out[r.Namespace] = snap
	}
	return out, nil
}

func (b *SQLBackend) Close() error { return nil }
