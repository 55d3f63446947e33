package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"inkwell/auth"
	"inkwell/domain"
)

var sanitizerStrict = bluemonday.StrictPolicy()

type PostDTO struct {
	ID       int64
	Title    string
	Subtitle string
	Author   string
	ImageURL string
	Body     template.HTML
	Date     string
	CanEdit  bool
}

func postDTO(p domain.Post, viewer *domain.Account) PostDTO {
	return PostDTO{
		ID:       p.ID,
		Title:    sanitizerStrict.Sanitize(p.Title),
		Subtitle: sanitizerStrict.Sanitize(p.Subtitle),
		Author:   sanitizerStrict.Sanitize(p.Author),
		ImageURL: p.ImageURL,
		Body:     safeMd(p.Body),
		Date:     p.Date,
		CanEdit:  auth.CanModify(viewer, p.OwnerID) == auth.Allow,
	}
}

func (h *Handler) GetPosts(c echo.Context) error {
	posts, err := h.Posts.All(c.Request().Context())
	if err != nil {
		return err
	}
	viewer := h.currentAccount(c)
	dtos := []PostDTO{}
	for _, p := range posts {
		dtos = append(dtos, postDTO(p, viewer))
	}

	return c.Render(http.StatusOK, "index.html", struct {
		Posts   []PostDTO
		Account *domain.Account
	}{
		Posts:   dtos,
		Account: viewer,
	})
}

func (h *Handler) GetPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Posts.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	viewer := h.currentAccount(c)

	return c.Render(http.StatusOK, "post-view.html", struct {
		PostDTO
		Account *domain.Account
	}{
		postDTO(p, viewer),
		viewer,
	})
}

// postForm carries submitted values back into the form template so a
// rejected submission is re-presented with nothing lost.
type postForm struct {
	ID       int64
	Title    string
	Subtitle string
	Author   string
	ImageURL string
	Body     string
	IsEdit   bool
	Error    string
}

func formFromRequest(c echo.Context) postForm {
	return postForm{
		Title:    c.FormValue("title"),
		Subtitle: c.FormValue("subtitle"),
		Author:   c.FormValue("author"),
		ImageURL: c.FormValue("img_url"),
		Body:     c.FormValue("body"),
	}
}

func (f postForm) post() domain.Post {
	return domain.Post{
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Author:   f.Author,
		ImageURL: f.ImageURL,
		Body:     f.Body,
	}
}

func (h *Handler) renderPostForm(c echo.Context, code int, f postForm) error {
	return c.Render(code, "post-form.html", struct {
		Form    postForm
		Account *domain.Account
	}{
		Form:    f,
		Account: h.currentAccount(c),
	})
}

func (h *Handler) GetNewPostForm(c echo.Context) error {
	return h.renderPostForm(c, http.StatusOK, postForm{})
}

func (h *Handler) NewPost(c echo.Context) error {
	actor, _ := c.Get(accountKey).(*domain.Account)
	if auth.CanCreate(actor) != auth.Allow {
		return deny(c)
	}

	f := formFromRequest(c)
	p := f.post()
	if err := p.Validate(); err != nil {
		f.Error = err.Error()
		return h.renderPostForm(c, http.StatusBadRequest, f)
	}

	// Owner and date come from the server, never from the form.
	p.OwnerID = actor.ID
	p.Date = time.Now().Format(domain.DateLayout)

	created, err := h.Posts.Create(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTitle) {
			f.Error = err.Error()
			return h.renderPostForm(c, http.StatusConflict, f)
		}
		return err
	}
	h.Log.Info().Int64("post", created.ID).Int64("owner", actor.ID).Msg("post created")

	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) GetEditPostForm(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Posts.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	actor, _ := c.Get(accountKey).(*domain.Account)
	if auth.CanModify(actor, p.OwnerID) != auth.Allow {
		return deny(c)
	}

	return h.renderPostForm(c, http.StatusOK, postForm{
		ID:       p.ID,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Author:   p.Author,
		ImageURL: p.ImageURL,
		Body:     p.Body,
		IsEdit:   true,
	})
}

func (h *Handler) EditPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Posts.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	actor, _ := c.Get(accountKey).(*domain.Account)
	if auth.CanModify(actor, p.OwnerID) != auth.Allow {
		return deny(c)
	}

	f := formFromRequest(c)
	f.ID = id
	f.IsEdit = true
	next := f.post()
	if err := next.Validate(); err != nil {
		f.Error = err.Error()
		return h.renderPostForm(c, http.StatusBadRequest, f)
	}

	if err := h.Posts.Update(c.Request().Context(), id, next); err != nil {
		if errors.Is(err, domain.ErrDuplicateTitle) {
			f.Error = err.Error()
			return h.renderPostForm(c, http.StatusConflict, f)
		}
		return err
	}

	return c.Redirect(http.StatusFound, "/post/"+strconv.FormatInt(id, 10))
}

func (h *Handler) DeletePost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	p, err := h.Posts.ByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	actor, _ := c.Get(accountKey).(*domain.Account)
	if auth.CanModify(actor, p.OwnerID) != auth.Allow {
		return deny(c)
	}

	if err := h.Posts.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}
	h.Log.Info().Int64("post", id).Int64("account", actor.ID).Msg("post deleted")

	return c.Redirect(http.StatusFound, "/")
}

func postID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return id, nil
}

func mdToHTML(md string) []byte {
	// create markdown parser with extensions
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	// create HTML renderer with extensions
	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

func safeMd(content string) template.HTML {
	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(mdToHTML(content)))
}
