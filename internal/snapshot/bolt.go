// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot

import (
	"context"
	"time"

	"localdynamo/internal/ddb"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
)

var snapshotBucket = []byte("snapshots")

// BoltBackend keeps snapshots in one bbolt file, keyed by namespace.
type BoltBackend struct {
	db *bolt.DB
}

func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Save(_ context.Context, ns string, snap *ddb.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	return errors.WithStack(b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(ns), data)
	}))
}

func (b *BoltBackend) Load(_ context.Context) (map[string]*ddb.Snapshot, error) {
	out := make(map[string]*ddb.Snapshot)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).ForEach(func(k, v []byte) error {
			snap, err := decode(string(k), v)
			if err != nil {
				return err
			}
			out[string(k)] = snap
			return nil
		})
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}

func (b *BoltBackend) Close() error {
	return errors.WithStack(b.db.Close())
}
