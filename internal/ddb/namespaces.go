// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb

import (
	"sort"
	"sync"
)

// DefaultNamespace is used when a caller does not identify itself.
const DefaultNamespace = "default"

// Namespaces keeps one Catalog per namespace, created on first use.
type Namespaces struct {
	mu       sync.Mutex
	shared   bool
	catalogs map[string]*Catalog
}

// NewNamespaces returns an empty set. When shared is true every namespace
// resolves to the default catalog.
func NewNamespaces(shared bool) *Namespaces {
	return &Namespaces{shared: shared, catalogs: make(map[string]*Catalog)}
}

func (n *Namespaces) resolve(ns string) string {
	if n.shared || ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Get returns the catalog of ns, creating it if needed.
func (n *Namespaces) Get(ns string) *Catalog {
	ns = n.resolve(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.catalogs[ns]
	if !ok {
		c = NewCatalog()
		n.catalogs[ns] = c
	}
	return c
}

// Lookup returns the catalog of ns without creating it.
func (n *Namespaces) Lookup(ns string) (*Catalog, bool) {
	ns = n.resolve(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.catalogs[ns]
	return c, ok
}

// Resolve maps a caller namespace to the one its catalog is stored under.
func (n *Namespaces) Resolve(ns string) string {
	return n.resolve(ns)
}

// Names lists the known namespaces in order.
func (n *Namespaces) Names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.catalogs))
	for ns := range n.catalogs {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every namespace in order.
func (n *Namespaces) Each(fn func(ns string, c *Catalog) error) error {
	for _, ns := range n.Names() {
		c, ok := n.Lookup(ns)
		if !ok {
			continue
		}
		if err := fn(ns, c); err != nil {
			return err
		}
	}
	return nil
}
