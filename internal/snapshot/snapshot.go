// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package snapshot persists catalog state outside the request path and
// restores it at startup.
package snapshot

import (
	"context"
	"encoding/json"

	"localdynamo/internal/ddb"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Backend stores one snapshot document per namespace.
type Backend interface {
	Save(ctx context.Context, ns string, snap *ddb.Snapshot) error
	Load(ctx context.Context) (map[string]*ddb.Snapshot, error)
	Close() error
}

func encode(snap *ddb.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	return data, errors.Wrap(err, "encode snapshot")
}

func decode(ns string, data []byte) (*ddb.Snapshot, error) {
	var snap ddb.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot of namespace %s", ns)
	}
	return &snap, nil
}

// Restore loads every stored namespace into namespaces.
func Restore(ctx context.Context, backend Backend, namespaces *ddb.Namespaces) error {
	snaps, err := backend.Load(ctx)
	if err != nil {
		return err
	}
	for ns, snap := range snaps {
		if err := namespaces.Get(ns).Restore(snap); err != nil {
			return errors.Wrapf(err, "restore namespace %s", ns)
		}
		zap.L().Info("restored namespace",
			zap.String("namespace", ns),
			zap.Int("tables", len(snap.Tables)),
		)
	}
	return nil
}
