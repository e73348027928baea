// Package repository persists accounts, products and product analytics with
// GORM.  Lookups that find nothing return errors satisfying
// errors.Is(err, errors.NotFound); unique violations return errors satisfying
// errors.Is(err, errors.AlreadyExists).  Handlers translate these kinds into
// HTTP status codes.
package repository

import (
	"github.com/juju/errors"
	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/database"
)

// ErrConflict is returned when an update would make a unique column collide
// with a different row.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// translate maps storage errors onto error kinds.  what names the entity for
// the message, e.g. "account".
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFoundf(what)
	case database.IsDuplicateKey(err):
		return errors.AlreadyExistsf(what)
	}
	return errors.Annotatef(err, "%s query", what)
}
