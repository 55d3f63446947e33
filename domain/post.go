package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DateLayout is the human-readable format posts are stamped with at
// creation time, e.g. "March 04, 2024".
const DateLayout = "January 02, 2006"

// Post is a blog entry. ID, OwnerID and Date are set once at creation and
// never change afterwards.
type Post struct {
	ID       int64
	OwnerID  int64
	Title    string
	Subtitle string
	Author   string
	ImageURL string
	Body     string
	Date     string
}

func (p Post) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Subtitle, validation.Required),
		validation.Field(&p.Author, validation.Required),
		validation.Field(&p.ImageURL, validation.Required, is.URL),
		validation.Field(&p.Body, validation.Required),
	)
}
