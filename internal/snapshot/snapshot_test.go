// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"localdynamo/internal/ddb"
	"localdynamo/internal/resource"
	"localdynamo/internal/snapshot"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersTable = `{
	"TableName": "users",
	"KeySchema": [{"AttributeName": "id", "KeyType": "HASH"}],
	"ProvisionedThroughput": {"ReadCapacityUnits": 1, "WriteCapacityUnits": 1}
}`

func seeded(t *testing.T, namespaces *ddb.Namespaces, ns string) {
	t.Helper()
	c := namespaces.Get(ns)
	_, err := c.Process(ddb.OpCreateTable, json.RawMessage(usersTable))
	require.NoError(t, err)
	_, err = c.Process(ddb.OpPutItem, json.RawMessage(
		`{"TableName": "users", "Item": {"id": {"S": "u1"}, "age": {"N": "42"}, "tags": {"SS": ["a", "b"]}}}`))
	require.NoError(t, err)
}

func assertRestored(t *testing.T, c *ddb.Catalog) {
	t.Helper()
	assert.Equal(t, []string{"users"}, c.TableNames())
	items, err := c.Items("users")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ddb.Value{"N": "42"}, items[0]["age"])
}

// memStore is an in-memory resource.Store.
type memStore struct {
	mu      sync.Mutex
	data    map[string]resource.Resource
	creates int
	updates int
}

func newMemStore() *memStore { return &memStore{data: map[string]resource.Resource{}} }

func (m *memStore) Create(r *resource.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.data[r.Namespace+"|"+r.ID] = *r
	return nil
}

func (m *memStore) Update(r *resource.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[r.Namespace+"|"+r.ID]; !ok {
		return resource.ErrNotFound
	}
	m.updates++
	m.data[r.Namespace+"|"+r.ID] = *r
	return nil
}

func (m *memStore) Get(id, service, typ, namespace string) (*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[namespace+"|"+id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) List(service, typ, namespace string) ([]resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []resource.Resource
	for _, v := range m.data {
		if v.Service == service && v.Type == typ && (namespace == "" || v.Namespace == namespace) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) Delete(id, service, typ, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, namespace+"|"+id)
	return nil
}

func TestBackendsRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) snapshot.Backend{
		"file": func(t *testing.T) snapshot.Backend {
			b, err := snapshot.NewFileBackend(filepath.Join(t.TempDir(), "state"))
			require.NoError(t, err)
			return b
		},
		"bolt": func(t *testing.T) snapshot.Backend {
			b, err := snapshot.NewBoltBackend(filepath.Join(t.TempDir(), "state.db"))
			require.NoError(t, err)
			return b
		},
		"sql": func(t *testing.T) snapshot.Backend {
			return snapshot.NewSQLBackend(newMemStore())
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			backend := open(t)
			defer backend.Close()

			src := ddb.NewNamespaces(false)
			seeded(t, src, "team/a")
			seeded(t, src, ddb.DefaultNamespace)

			for _, ns := range src.Names() {
				c, _ := src.Lookup(ns)
				require.NoError(t, backend.Save(ctx, ns, c.Snapshot()))
			}
			// saving twice replaces the stored document
			c, _ := src.Lookup(ddb.DefaultNamespace)
			require.NoError(t, backend.Save(ctx, ddb.DefaultNamespace, c.Snapshot()))

			dst := ddb.NewNamespaces(false)
			require.NoError(t, snapshot.Restore(ctx, backend, dst))
			assert.Equal(t, []string{ddb.DefaultNamespace, "team/a"}, dst.Names())
			assertRestored(t, dst.Get("team/a"))
			assertRestored(t, dst.Get(ddb.DefaultNamespace))
		})
	}
}

func TestSQLBackendCreatesThenUpdates(t *testing.T) {
	store := newMemStore()
	backend := snapshot.NewSQLBackend(store)
	snap := ddb.NewCatalog().Snapshot()

	require.NoError(t, backend.Save(context.Background(), "ns", snap))
	require.NoError(t, backend.Save(context.Background(), "ns", snap))
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 1, store.updates)
}

type recordingBackend struct {
	mu    sync.Mutex
	saves map[string]int
	fail  bool
}

func (b *recordingBackend) Save(_ context.Context, ns string, _ *ddb.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("disk full")
	}
	b.saves[ns]++
	return nil
}

func (b *recordingBackend) count(ns string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves[ns]
}

func (b *recordingBackend) Load(context.Context) (map[string]*ddb.Snapshot, error) {
	return nil, nil
}

func (b *recordingBackend) Close() error { return nil }

func TestPersisterDebounces(t *testing.T) {
	namespaces := ddb.NewNamespaces(false)
	seeded(t, namespaces, "a")
	backend := &recordingBackend{saves: map[string]int{}}
	p := snapshot.NewPersister(backend, namespaces, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 0; i < 5; i++ {
		p.MarkDirty("a")
	}
	assert.Eventually(t, func() bool { return backend.count("a") == 1 }, time.Second, 5*time.Millisecond)

	p.MarkDirty("a")
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, backend.count("a"))
}

func TestPersisterKeepsFailedNamespacesDirty(t *testing.T) {
	namespaces := ddb.NewNamespaces(false)
	seeded(t, namespaces, "a")
	backend := &recordingBackend{saves: map[string]int{}, fail: true}
	p := snapshot.NewPersister(backend, namespaces, time.Millisecond)

	p.MarkDirty("a")
	p.MarkDirty("unknown")
	require.Error(t, p.Flush(context.Background()))

	backend.fail = false
	require.NoError(t, p.Flush(context.Background()))
	assert.Equal(t, 1, backend.count("a"))
	assert.Equal(t, 0, backend.count("unknown"))
}
