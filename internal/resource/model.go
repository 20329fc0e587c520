// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package resource

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by Store.Get when no row matches.
var ErrNotFound = errors.New("resource not found")

// Resource is one persisted JSON document, scoped by namespace.
type Resource struct {
	ID         string `gorm:"primaryKey"`
	Namespace  string `gorm:"primaryKey"`
	Service    string `gorm:"index; not null"`
	Type       string `gorm:"index; not null"`
	Attributes []byte `gorm:"type:jsonb; not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists resources. An empty namespace passed to List matches every
// namespace.
type Store interface {
	Create(r *Resource) error
	Update(r *Resource) error
	Get(id, service, typ, namespace string) (*Resource, error)
	List(service, typ, namespace string) ([]Resource, error)
	Delete(id, service, typ, namespace string) error
}
