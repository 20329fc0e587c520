// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package resource

import (
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db}
}

func (s *GormStore) Create(res *Resource) error {
	return errors.WithStack(s.db.Create(res).Error)
}

func (s *GormStore) Update(res *Resource) error {
	// Use explicit WHERE clause for composite primary key (id, namespace)
	result := s.db.Model(&Resource{}).
		Where("id = ? AND namespace = ?", res.ID, res.Namespace).
		Updates(map[string]any{"attributes": res.Attributes})
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Get(id, service, typ, namespace string) (*Resource, error) {
	var r Resource
	err := s.db.Where("id = ? AND service = ? AND type = ? AND namespace = ?",
		id, service, typ, namespace).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &r, nil
}

func (s *GormStore) List(service, typ, namespace string) ([]Resource, error) {
	var out []Resource
	q := s.db.Where("service = ? AND type = ?", service, typ)
	if namespace != "" {
		q = q.Where("namespace = ?", namespace)
	}
	err := q.Order("namespace").Find(&out).Error
	return out, errors.WithStack(err)
}

func (s *GormStore) Delete(id, service, typ, namespace string) error {
	return errors.WithStack(s.db.Where("id = ? AND service = ? AND type = ? AND namespace = ?",
		id, service, typ, namespace).Delete(&Resource{}).Error)
}
