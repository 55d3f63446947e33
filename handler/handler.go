package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"inkwell/auth"
	"inkwell/domain"
	"inkwell/store"
)

type Handler struct {
	Accounts     *store.AccountStore
	Posts        *store.PostStore
	Auth         *auth.Service
	Log          zerolog.Logger
	EnableSignup bool
}

const accountKey = "account"

// LoadSession resolves the session cookie into a full account and stores it
// in the request context, so handlers behind it always see a signed-in
// account. The owning account is looked up on every request rather than
// trusted from the token.
func (h *Handler) LoadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := h.Auth.SessionAccountID(c.Request())
		if err != nil {
			return unauthenticated(c)
		}
		a, err := h.Accounts.ByID(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return unauthenticated(c)
			}
			return err
		}
		c.Set(accountKey, &a)
		return next(c)
	}
}

// currentAccount is the lenient variant for public pages: nil when the
// viewer has no usable session.
func (h *Handler) currentAccount(c echo.Context) *domain.Account {
	if a, ok := c.Get(accountKey).(*domain.Account); ok {
		return a
	}
	id, err := h.Auth.SessionAccountID(c.Request())
	if err != nil {
		return nil
	}
	a, err := h.Accounts.ByID(c.Request().Context(), id)
	if err != nil {
		return nil
	}
	return &a
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": domain.ErrNotAuthenticated.Error()})
}

func deny(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": domain.ErrNotAuthorized.Error()})
}
