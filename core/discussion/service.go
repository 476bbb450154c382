package discussion

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound = core.NewNotFoundError("Discussion not found")

	errDeleteForbidden = core.NewForbiddenError("Not authorized to delete this discussion")
)

type Repository interface {
	CreateDiscussion(ctx context.Context, d Discussion) (Discussion, error)
	// GetDiscussionByID returns the discussion with author and course summaries.
	GetDiscussionByID(ctx context.Context, id string) (Discussion, error)
	// GetDiscussionDetail also loads comments (oldest first) with author summaries.
	GetDiscussionDetail(ctx context.Context, id string) (Discussion, error)
	// QueryDiscussions orders by creation time descending.
	QueryDiscussions(ctx context.Context, filter QueryFilter) ([]Discussion, error)
	DeleteDiscussion(ctx context.Context, id string) error
	CreateComment(ctx context.Context, c Comment) (Comment, error)
}

type Service struct {
	repo       Repository
	courseRepo course.Repository
}

func NewService(repo Repository, courseRepo course.Repository) *Service {
	return &Service{repo: repo, courseRepo: courseRepo}
}

// Create starts a discussion; any authenticated user may post to an existing course.
func (svc *Service) Create(ctx context.Context, actor user.User, nd NewDiscussion) (Discussion, error) {
	if _, err := svc.courseRepo.GetCourseByID(ctx, nd.CourseID); err != nil {
		return Discussion{}, err
	}

	now := time.Now().UTC()
	d := Discussion{
		Title:     nd.Title,
		Content:   nd.Content,
		CourseID:  nd.CourseID,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateDiscussion(ctx, d)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Discussion, error) {
	return svc.repo.QueryDiscussions(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Discussion, error) {
	return svc.repo.GetDiscussionDetail(ctx, id)
}

// AddComment appends a reply; any authenticated user may comment on an
// existing discussion.
func (svc *Service) AddComment(ctx context.Context, actor user.User, discussionID string, nc NewComment) (Comment, error) {
	if _, err := svc.repo.GetDiscussionByID(ctx, discussionID); err != nil {
		return Comment{}, err
	}

	c := Comment{
		Content:      nc.Content,
		DiscussionID: discussionID,
		AuthorID:     actor.ID,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateComment(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	d, err := svc.repo.GetDiscussionByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.CanDelete(actor) {
		return errDeleteForbidden
	}
	return svc.repo.DeleteDiscussion(ctx, id)
}
