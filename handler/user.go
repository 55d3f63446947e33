package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/auth"
	"inkwell/domain"
)

// accountForm carries submitted signup/login values back into the template
// on rejection. Passwords are never echoed back.
type accountForm struct {
	Email string
	Name  string
	Error string
}

func (h *Handler) renderAccountForm(c echo.Context, page string, code int, f accountForm) error {
	return c.Render(code, page, struct {
		Form    accountForm
		Account *domain.Account
	}{
		Form:    f,
		Account: h.currentAccount(c),
	})
}

func (h *Handler) GetSignupForm(c echo.Context) error {
	if !h.EnableSignup {
		return c.HTML(http.StatusForbidden, "<h1>Forbidden!</h1><p>Sign up has been disabled.</p>")
	}
	return h.renderAccountForm(c, "user-signup.html", http.StatusOK, accountForm{})
}

func (h *Handler) GetLoginForm(c echo.Context) error {
	return h.renderAccountForm(c, "user-login.html", http.StatusOK, accountForm{})
}

func (h *Handler) Register(c echo.Context) error {
	if !h.EnableSignup {
		return c.HTML(http.StatusForbidden, "<h1>Forbidden!</h1><p>Sign up has been disabled.</p>")
	}

	f := accountForm{
		Email: c.FormValue("email"),
		Name:  c.FormValue("name"),
	}
	a, err := h.Auth.Register(c.Request().Context(), f.Email, c.FormValue("password"), f.Name)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			// Logged here, reported generically: the form must not reveal
			// which addresses are registered.
			h.Log.Warn().Str("email", f.Email).Msg("registration rejected: email taken")
			f.Error = "could not create account"
			return h.renderAccountForm(c, "user-signup.html", http.StatusConflict, f)
		}
		f.Error = err.Error()
		return h.renderAccountForm(c, "user-signup.html", http.StatusBadRequest, f)
	}

	cookie, err := h.Auth.Cookie(a)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	h.Log.Info().Int64("account", a.ID).Msg("account registered")

	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Login(c echo.Context) error {
	f := accountForm{Email: c.FormValue("email")}
	password := c.FormValue("password")
	if len(f.Email) == 0 || len(password) == 0 {
		f.Error = domain.ErrInvalidCredentials.Error()
		return h.renderAccountForm(c, "user-login.html", http.StatusBadRequest, f)
	}

	a, err := h.Auth.Login(c.Request().Context(), f.Email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			f.Error = domain.ErrInvalidCredentials.Error()
			return h.renderAccountForm(c, "user-login.html", http.StatusBadRequest, f)
		}
		return err
	}

	cookie, err := h.Auth.Cookie(a)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(auth.ClearCookie())
	return c.Redirect(http.StatusFound, "/")
}
