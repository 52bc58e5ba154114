package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Storage-level facts. Services translate these into domain errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified by another writer")
	ErrDuplicate       = errors.New("duplicate record")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
