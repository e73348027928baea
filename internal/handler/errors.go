// Package handler holds the echo handlers of the accounts, products and
// notifications services.
package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/repository"
)

var logger = loggo.GetLogger("storefront.handler")

// details overrides the response text per error kind.  Kinds without an
// entry use the error message.
type details map[error]string

// statusOf maps juju error kinds onto HTTP statuses.
func statusOf(err error) (int, error) {
	switch {
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound, errors.NotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, repository.ErrConflict
	case errors.Is(err, errors.AlreadyExists):
		return http.StatusBadRequest, errors.AlreadyExists
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden, errors.Forbidden
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized, errors.Unauthorized
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest, errors.BadRequest
	}
	return http.StatusInternalServerError, nil
}

// respondError writes the {"detail": ...} body for err.  Validation failures
// become 422 with one entry per field; unknown errors are logged and hidden
// behind a 500.
func respondError(c echo.Context, err error, msgs details) error {
	if ii, ok := err.(*invalidInput); ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": ii.errs})
	}
	status, kind := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request().Method, c.Path(), errors.ErrorStack(err))
		return c.JSON(status, echo.Map{"detail": "Internal Server Error"})
	}
	detail := msgs[kind]
	if detail == "" {
		detail = err.Error()
	}
	return c.JSON(status, echo.Map{"detail": detail})
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, pathError("id", "Input should be a valid UUID")
	}
	return id, nil
}
