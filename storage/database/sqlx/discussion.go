package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

type discussionRepository struct {
	db *sqlx.DB
}

var _ discussion.Repository = (*discussionRepository)(nil) // interface compliance check

func NewDiscussionRepository(db *sqlx.DB) *discussionRepository {
	return &discussionRepository{db: db}
}

type discussionRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CourseID  string    `db:"course_id"`
	AuthorID  string    `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	AuthorName   string `db:"author_name"`
	AuthorEmail  string `db:"author_email"`
	CourseTitle  string `db:"course_title"`
	CourseCode   string `db:"course_code"`
	CommentCount int    `db:"comment_count"`
}

func (r discussionRow) toDomain() discussion.Discussion {
	return discussion.Discussion{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CourseID:  r.CourseID,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Author:    &user.Summary{ID: r.AuthorID, Name: r.AuthorName, Email: r.AuthorEmail},
		Course:    &course.Summary{ID: r.CourseID, Title: r.CourseTitle, Code: r.CourseCode},
		Counts:    &discussion.Counts{Comments: r.CommentCount},
	}
}

type commentRow struct {
	ID           string    `db:"id"`
	Content      string    `db:"content"`
	DiscussionID string    `db:"discussion_id"`
	AuthorID     string    `db:"author_id"`
	CreatedAt    time.Time `db:"created_at"`

	AuthorName  string `db:"author_name"`
	AuthorEmail string `db:"author_email"`
}

func (r commentRow) toDomain() discussion.Comment {
	return discussion.Comment{
		ID:           r.ID,
		Content:      r.Content,
		DiscussionID: r.DiscussionID,
		AuthorID:     r.AuthorID,
		CreatedAt:    r.CreatedAt,
		Author:       &user.Summary{ID: r.AuthorID, Name: r.AuthorName, Email: r.AuthorEmail},
	}
}

const discussionSelect = `
	SELECT d.id, d.title, d.content, d.course_id, d.author_id, d.created_at, d.updated_at,
	       u.name  AS author_name,
	       u.email AS author_email,
	       c.title AS course_title,
	       c.code  AS course_code,
	       (SELECT COUNT(*) FROM comment cm WHERE cm.discussion_id = d.id) AS comment_count
	FROM discussion d
	JOIN user_account u ON u.id = d.author_id
	JOIN course c ON c.id = d.course_id`

func (repo discussionRepository) CreateDiscussion(ctx context.Context, d discussion.Discussion) (discussion.Discussion, error) {
	d.ID = uuid.New().String()
	query := `
		INSERT INTO discussion (id, title, content, course_id, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		d.ID, d.Title, d.Content, d.CourseID, d.AuthorID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return discussion.Discussion{}, errors.Wrap(err, "inserting discussion")
	}
	return repo.GetDiscussionByID(ctx, d.ID)
}

func (repo discussionRepository) GetDiscussionByID(ctx context.Context, id string) (discussion.Discussion, error) {
	if _, err := uuid.Parse(id); err != nil {
		return discussion.Discussion{}, discussion.ErrNotFound
	}
	var row discussionRow
	if err := repo.db.GetContext(ctx, &row, discussionSelect+` WHERE d.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return discussion.Discussion{}, discussion.ErrNotFound
		}
		return discussion.Discussion{}, errors.Wrap(err, "finding discussion by ID")
	}
	return row.toDomain(), nil
}

func (repo discussionRepository) GetDiscussionDetail(ctx context.Context, id string) (discussion.Discussion, error) {
	d, err := repo.GetDiscussionByID(ctx, id)
	if err != nil {
		return discussion.Discussion{}, err
	}

	var rows []commentRow
	query := `
		SELECT cm.id, cm.content, cm.discussion_id, cm.author_id, cm.created_at,
		       u.name  AS author_name,
		       u.email AS author_email
		FROM comment cm
		JOIN user_account u ON u.id = cm.author_id
		WHERE cm.discussion_id = $1` + orderBy(commentOrdering)
	if err = repo.db.SelectContext(ctx, &rows, query, id); err != nil {
		return discussion.Discussion{}, errors.Wrap(err, "querying comments")
	}
	d.Comments = make([]discussion.Comment, 0, len(rows))
	for _, row := range rows {
		d.Comments = append(d.Comments, row.toDomain())
	}
	return d, nil
}

func (repo discussionRepository) QueryDiscussions(ctx context.Context, filter discussion.QueryFilter) ([]discussion.Discussion, error) {
	query := discussionSelect
	var args []interface{}
	if filter.CourseID != "" {
		query += ` WHERE d.course_id = $1`
		args = append(args, filter.CourseID)
	}
	query += orderBy(discussionOrdering)

	var rows []discussionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying discussions")
	}
	discussions := make([]discussion.Discussion, 0, len(rows))
	for _, row := range rows {
		discussions = append(discussions, row.toDomain())
	}
	return discussions, nil
}

func (repo discussionRepository) DeleteDiscussion(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM discussion WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting discussion")
	}
	return nil
}

func (repo discussionRepository) CreateComment(ctx context.Context, c discussion.Comment) (discussion.Comment, error) {
	c.ID = uuid.New().String()
	query := `
		INSERT INTO comment (id, content, discussion_id, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, query, c.ID, c.Content, c.DiscussionID, c.AuthorID, c.CreatedAt); err != nil {
		return discussion.Comment{}, errors.Wrap(err, "inserting comment")
	}

	var row commentRow
	sel := `
		SELECT cm.id, cm.content, cm.discussion_id, cm.author_id, cm.created_at,
		       u.name  AS author_name,
		       u.email AS author_email
		FROM comment cm
		JOIN user_account u ON u.id = cm.author_id
		WHERE cm.id = $1`
	if err := repo.db.GetContext(ctx, &row, sel, c.ID); err != nil {
		return discussion.Comment{}, errors.Wrap(err, "finding comment by ID")
	}
	return row.toDomain(), nil
}
