// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"localdynamo/internal/ddb"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Persister saves dirty namespaces in the background, at most once per
// delay window.
type Persister struct {
	backend    Backend
	namespaces *ddb.Namespaces
	delay      time.Duration

	mu    sync.Mutex
	dirty map[string]struct{}
	wake  chan struct{}
}

func NewPersister(backend Backend, namespaces *ddb.Namespaces, delay time.Duration) *Persister {
	return &Persister{
		backend:    backend,
		namespaces: namespaces,
		delay:      delay,
		dirty:      make(map[string]struct{}),
		wake:       make(chan struct{}, 1),
	}
}

// MarkDirty schedules a save of ns. It never blocks.
func (p *Persister) MarkDirty(ns string) {
	p.mu.Lock()
	p.dirty[ns] = struct{}{}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run saves dirty namespaces until ctx is done, then flushes once more.
func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return p.Flush(context.WithoutCancel(ctx))
		case <-p.wake:
		}

		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return p.Flush(context.WithoutCancel(ctx))
		case <-timer.C:
		}

		if err := p.Flush(ctx); err != nil {
			zap.L().Warn("snapshot failed", zap.Error(err))
		}
	}
}

// Flush saves every dirty namespace now. Namespaces that fail stay dirty.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := make([]string, 0, len(p.dirty))
	for ns := range p.dirty {
		pending = append(pending, ns)
	}
	p.dirty = make(map[string]struct{})
	p.mu.Unlock()
	sort.Strings(pending)

	var errs error
	for _, ns := range pending {
		c, ok := p.namespaces.Lookup(ns)
		if !ok {
			continue
		}
		if err := p.backend.Save(ctx, ns, c.Snapshot()); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "save namespace %s", ns))
			p.mu.Lock()
			p.dirty[ns] = struct{}{}
			p.mu.Unlock()
			continue
		}
		zap.L().Debug("snapshot saved", zap.String("namespace", ns))
	}
	return errs
}
