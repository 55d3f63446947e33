package handler

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"inkwell/auth"
	"inkwell/domain"
)

type TemplateRegistry struct {
	templates map[string]*template.Template
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("template not found: " + name)
	}

	return tmpl.ExecuteTemplate(w, "base.html", data)
}

var pages = []string{
	"index.html",
	"post-view.html",
	"post-form.html",
	"user-login.html",
	"user-signup.html",
	"about.html",
	"contact.html",
}

// NewRouter wires every route. Mutating routes and logout sit behind the
// JWT guard plus the session loader; everything else is public.
func NewRouter(h *Handler, jwtSecret, templateDir string) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	t := map[string]*template.Template{}
	for _, page := range pages {
		t[page] = template.Must(template.ParseFiles(
			filepath.Join(templateDir, page),
			filepath.Join(templateDir, "base.html")))
	}
	e.Renderer = &TemplateRegistry{templates: t}

	guard := echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(jwtSecret),
		TokenLookup: "cookie:" + auth.CookieName,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": domain.ErrNotAuthenticated.Error()})
		},
	})

	// Public
	e.GET("/", h.GetPosts)
	e.GET("/post/:id", h.GetPost)
	e.GET("/about", h.About)
	e.GET("/contact", h.Contact)
	e.GET("/register", h.GetSignupForm)
	e.POST("/register", h.Register)
	e.GET("/login", h.GetLoginForm)
	e.POST("/login", h.Login)
	e.Static("/static", "assets")

	// Session required
	e.GET("/logout", h.Logout, guard)
	e.GET("/new-post", h.GetNewPostForm, guard, h.LoadSession)
	e.POST("/new-post", h.NewPost, guard, h.LoadSession)
	e.GET("/edit-post/:id", h.GetEditPostForm, guard, h.LoadSession)
	e.POST("/edit-post/:id", h.EditPost, guard, h.LoadSession)
	e.GET("/delete/:id", h.DeletePost, guard, h.LoadSession)
	e.POST("/delete/:id", h.DeletePost, guard, h.LoadSession)

	e.HTTPErrorHandler = customHTTPErrorHandler

	return e
}

func (h *Handler) About(c echo.Context) error {
	return c.Render(http.StatusOK, "about.html", struct {
		Account *domain.Account
	}{h.currentAccount(c)})
}

func (h *Handler) Contact(c echo.Context) error {
	return c.Render(http.StatusOK, "contact.html", struct {
		Account *domain.Account
	}{h.currentAccount(c)})
}

func customHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		c.JSON(code, echo.Map{"error": msg})
		return
	}
	if code != http.StatusNotFound {
		c.Logger().Error(err)
	}
	// The error page must carry the error status, not the 200 a plain
	// file response would get.
	page, ferr := os.ReadFile(fmt.Sprintf("assets/%d.html", code))
	if ferr != nil {
		c.String(code, msg)
		return
	}
	c.HTMLBlob(code, page)
}
