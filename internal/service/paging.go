// Package service implements the account, product and analytics use cases
// on top of the repositories.  Errors carry juju/errors kinds that the HTTP
// layer maps onto status codes.
package service

// Paging limits.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page selects a window of a list.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps p into the accepted range.  A non-positive limit means
// DefaultLimit.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}
