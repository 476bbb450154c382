package discussion

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type Discussion struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CourseID  string    `json:"courseId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC

	// related records
	Author   *user.Summary   `json:"author,omitempty"`
	Course   *course.Summary `json:"course,omitempty"`
	Comments []Comment       `json:"comments,omitempty"`
	Counts   *Counts         `json:"_count,omitempty"`
}

// Counts carries the related-record counts embedded in discussion payloads.
type Counts struct {
	Comments int `json:"comments"`
}

// CanDelete reports whether actor may delete the discussion: its author or an admin.
func (d Discussion) CanDelete(actor user.User) bool {
	return actor.ID == d.AuthorID || actor.IsAdmin()
}

type Comment struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	DiscussionID string    `json:"discussionId"`
	AuthorID     string    `json:"authorId"`
	CreatedAt    time.Time `json:"createdAt"` // UTC

	// related records
	Author *user.Summary `json:"author,omitempty"`
}

// NewDiscussion contains information needed to start a new Discussion.
type NewDiscussion struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

func (nd *NewDiscussion) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Content = core.CleanString(nd.Content)
	nd.CourseID = core.CleanString(nd.CourseID)
	return validate.Struct(nd)
}

// NewComment contains a reply to a Discussion.
type NewComment struct {
	Content string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

// QueryFilter narrows discussion listings.
type QueryFilter struct {
	CourseID string `query:"courseId"`
}
