package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/service"
	"github.com/iliyamo/storefront/internal/utils"
)

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	Tokens   config.TokenConfig
	Accounts *service.AccountService
}

func NewAuthHandler(tokens config.TokenConfig, accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{Tokens: tokens, Accounts: accounts}
}

// ----- DTOs -----

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login exchanges email and password for a bearer token.  Unknown emails
// and wrong passwords get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.Authenticate(ctx, strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, errors.NotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid credentials"})
	}
	if err != nil {
		return respondError(c, err, nil)
	}
	if !acc.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Inactive user"})
	}

	tok, err := utils.NewAccessToken(h.Tokens.Secret, h.Tokens.Algorithm, acc.Email, acc.Role, h.Tokens.TTL())
	if err != nil {
		return respondError(c, errors.Annotate(err, "issue token"), nil)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken: tok.Token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.Tokens.TTL() / time.Second),
	})
}
