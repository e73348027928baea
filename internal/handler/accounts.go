package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/service"
)

// AccountHandler serves the admin-only account endpoints.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

var accountDetails = details{
	errors.NotFound:        "Account not found",
	errors.AlreadyExists:   "The account with this email already exists in the system.",
	repository.ErrConflict: "Account with this email already exists",
	errors.Forbidden:       "Admins cannot delete their own account",
}

func (h *AccountHandler) Create(c echo.Context) error {
	var req model.AccountCreate
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Create(ctx, req)
	if err != nil {
		return respondError(c, err, accountDetails)
	}
	return c.JSON(http.StatusOK, acc.Public())
}

// List handles GET /accounts?role=&skip=&limit=.
func (h *AccountHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Accounts.List(ctx, c.QueryParam("role"), page)
	if err != nil {
		return respondError(c, err, nil)
	}
	out := model.AccountsPublic{Data: make([]model.AccountPublic, 0, len(rows)), Count: int(total)}
	for i := range rows {
		out.Data = append(out.Data, rows[i].Public())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Get(ctx, id)
	if err != nil {
		return respondError(c, err, accountDetails)
	}
	return c.JSON(http.StatusOK, acc.Public())
}

// Update handles PATCH /accounts/:id; absent fields are left alone.
func (h *AccountHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	var req model.AccountUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Update(ctx, id, req)
	if err != nil {
		return respondError(c, err, accountDetails)
	}
	return c.JSON(http.StatusOK, acc.Public())
}

// Delete deactivates an account.  Admins cannot deactivate themselves.
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Accounts.Delete(ctx, middleware.Subject(c), id); err != nil {
		return respondError(c, err, accountDetails)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Account deleted successfully"})
}

// pageParams reads ?skip= and ?limit=.  Missing values fall back to the
// service defaults.
func pageParams(c echo.Context) (service.Page, error) {
	var page service.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &page.Skip}, {"limit", &page.Limit}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, queryError(p.name)
		}
		*p.dst = n
	}
	return page, nil
}
