package persistence

import (
	"errors"
	"strings"

	"github.com/erp/retailcore/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps storage errors onto domain errors: missing rows become
// NOT_FOUND and deadline errors TIMEOUT. Anything else is returned as is.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainErrorf(shared.CodeNotFound, "%s not found", what)
	}
	return shared.TranslateContextError(err)
}

// isUniqueViolation reports whether err is a unique constraint failure.
// Dialectors translate it to gorm.ErrDuplicatedKey when TranslateError is
// on; the message checks cover connections opened without it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
