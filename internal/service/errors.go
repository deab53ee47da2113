package service

import (
	"errors"

	"gorm.io/gorm"
)

// Error kinds returned by the catalog, ledger and reports. Every failure is
// wrapped around one of these, so callers match with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidReference    = errors.New("invalid reference")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrReferentialConflict = errors.New("entity is still referenced")
	ErrInvalidMovementType = errors.New("movement type must be IN or OUT")
	ErrValidation          = errors.New("validation failed")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
