package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore implements every persistence interface of the service on top of GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// translate maps gorm.ErrRecordNotFound to a domain sentinel and wraps everything else.
func translate(err error, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
