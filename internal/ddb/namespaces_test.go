// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddb_test

import (
	"testing"

	"localdynamo/internal/ddb"

	"github.com/stretchr/testify/assert"
)

func TestNamespacesIsolateCatalogs(t *testing.T) {
	ns := ddb.NewNamespaces(false)
	process(t, ns.Get("alice"), ddb.OpCreateTable, hashTable)

	assert.Equal(t, []string{"H"}, ns.Get("alice").TableNames())
	assert.Empty(t, ns.Get("bob").TableNames())
	assert.Same(t, ns.Get(""), ns.Get(ddb.DefaultNamespace))
	assert.Equal(t, []string{"alice", "bob", "default"}, ns.Names())

	_, ok := ns.Lookup("carol")
	assert.False(t, ok)
}

func TestSharedNamespaces(t *testing.T) {
	ns := ddb.NewNamespaces(true)
	process(t, ns.Get("alice"), ddb.OpCreateTable, hashTable)

	assert.Equal(t, []string{"H"}, ns.Get("bob").TableNames())
	assert.Equal(t, ddb.DefaultNamespace, ns.Resolve("alice"))
	assert.Equal(t, []string{ddb.DefaultNamespace}, ns.Names())

	var seen []string
	err := ns.Each(func(name string, c *ddb.Catalog) error {
		seen = append(seen, name)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{ddb.DefaultNamespace}, seen)
}
