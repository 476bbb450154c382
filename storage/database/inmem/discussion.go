package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

type discussionRepository struct {
	db *DB
}

var _ discussion.Repository = (*discussionRepository)(nil) // interface compliance check

func NewDiscussionRepository(db *DB) *discussionRepository {
	return &discussionRepository{db: db}
}

func (repo *discussionRepository) userSummary(id string) *user.Summary {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return usr.Summary()
	}
	return nil
}

func (repo *discussionRepository) courseSummary(id string) *course.Summary {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	if crs, ok := repo.db.course.table[id]; ok {
		return crs.Summary()
	}
	return nil
}

// hydrate fills the relations a SQL join would: author and course summaries
// plus the comment count. It acquires one table lock at a time; callers must
// not hold any.
func (repo *discussionRepository) hydrate(d discussion.Discussion) discussion.Discussion {
	d.Author = repo.userSummary(d.AuthorID)
	d.Course = repo.courseSummary(d.CourseID)
	d.Counts = &discussion.Counts{}

	repo.db.discussion.RLock()
	for _, cm := range repo.db.discussion.comments {
		if cm.DiscussionID == d.ID {
			d.Counts.Comments++
		}
	}
	repo.db.discussion.RUnlock()
	return d
}

func (repo *discussionRepository) CreateDiscussion(_ context.Context, d discussion.Discussion) (discussion.Discussion, error) {
	repo.db.discussion.Lock()
	d.ID = uuid.New().String()
	repo.db.discussion.table[d.ID] = &d
	repo.db.discussion.Unlock()

	return repo.hydrate(d), nil
}

func (repo *discussionRepository) GetDiscussionByID(_ context.Context, id string) (discussion.Discussion, error) {
	repo.db.discussion.RLock()
	d, ok := repo.db.discussion.table[id]
	if !ok {
		repo.db.discussion.RUnlock()
		return discussion.Discussion{}, discussion.ErrNotFound
	}
	found := *d
	repo.db.discussion.RUnlock()

	return repo.hydrate(found), nil
}

func (repo *discussionRepository) GetDiscussionDetail(ctx context.Context, id string) (discussion.Discussion, error) {
	d, err := repo.GetDiscussionByID(ctx, id)
	if err != nil {
		return discussion.Discussion{}, err
	}

	repo.db.discussion.RLock()
	d.Comments = make([]discussion.Comment, 0)
	for _, cm := range repo.db.discussion.comments {
		if cm.DiscussionID == id {
			d.Comments = append(d.Comments, *cm)
		}
	}
	repo.db.discussion.RUnlock()

	for i, cm := range d.Comments {
		d.Comments[i].Author = repo.userSummary(cm.AuthorID)
	}
	sort.Slice(d.Comments, func(i, j int) bool {
		return d.Comments[i].CreatedAt.Before(d.Comments[j].CreatedAt)
	})
	return d, nil
}

func (repo *discussionRepository) QueryDiscussions(_ context.Context, filter discussion.QueryFilter) ([]discussion.Discussion, error) {
	repo.db.discussion.RLock()
	discussions := make([]discussion.Discussion, 0, len(repo.db.discussion.table))
	for _, d := range repo.db.discussion.table {
		if filter.CourseID != "" && d.CourseID != filter.CourseID {
			continue
		}
		discussions = append(discussions, *d)
	}
	repo.db.discussion.RUnlock()

	for i, d := range discussions {
		discussions[i] = repo.hydrate(d)
	}
	sort.Slice(discussions, func(i, j int) bool {
		return discussions[i].CreatedAt.After(discussions[j].CreatedAt)
	})
	return discussions, nil
}

func (repo *discussionRepository) DeleteDiscussion(_ context.Context, id string) error {
	repo.db.discussion.Lock()
	defer repo.db.discussion.Unlock()

	delete(repo.db.discussion.table, id)
	for cid, cm := range repo.db.discussion.comments {
		if cm.DiscussionID == id {
			delete(repo.db.discussion.comments, cid)
		}
	}
	return nil
}

func (repo *discussionRepository) CreateComment(_ context.Context, c discussion.Comment) (discussion.Comment, error) {
	repo.db.discussion.Lock()
	c.ID = uuid.New().String()
	repo.db.discussion.comments[c.ID] = &c
	repo.db.discussion.Unlock()

	c.Author = repo.userSummary(c.AuthorID)
	return c, nil
}
