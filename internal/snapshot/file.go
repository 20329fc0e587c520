// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"localdynamo/internal/ddb"

	"github.com/cockroachdb/errors"
)

const fileSuffix = ".json"

// FileBackend writes <dir>/<namespace>.json.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create snapshot dir %s", dir)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(ns string) string {
	return filepath.Join(b.dir, url.PathEscape(ns)+fileSuffix)
}

// Save replaces the namespace file atomically.
func (b *FileBackend) Save(_ context.Context, ns string, snap *ddb.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, ".snapshot-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), b.path(ns)))
}

func (b *FileBackend) Load(_ context.Context) (map[string]*ddb.Snapshot, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	out := make(map[string]*ddb.Snapshot)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ns, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(b.dir, name))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		snap, err := decode(ns, data)
		if err != nil {
			return nil, err
		}
		out[ns] = snap
	}
	return out, nil
}

func (b *FileBackend) Close() error { return nil }
