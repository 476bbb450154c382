package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CourseID    string    `db:"course_id"`
	DueDate     time.Time `db:"due_date"`
	MaxGrade    int       `db:"max_grade"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	CourseTitle     string `db:"course_title"`
	CourseCode      string `db:"course_code"`
	SubmissionCount int    `db:"submission_count"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CourseID:    r.CourseID,
		DueDate:     r.DueDate,
		MaxGrade:    r.MaxGrade,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Course:      &course.Summary{ID: r.CourseID, Title: r.CourseTitle, Code: r.CourseCode},
		Counts:      &assignment.Counts{Submissions: r.SubmissionCount},
	}
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Content      string      `db:"content"`
	FileURL      null.String `db:"file_url"`
	Status       string      `db:"status"`
	Grade        null.Int    `db:"grade"`
	Feedback     null.String `db:"feedback"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	GradedAt     null.Time   `db:"graded_at"`

	StudentName  string `db:"student_name"`
	StudentEmail string `db:"student_email"`
}

func (r submissionRow) toDomain() assignment.Submission {
	sub := assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		FileURL:      r.FileURL.Ptr(),
		Status:       assignment.Status(r.Status),
		Grade:        r.Grade.Ptr(),
		Feedback:     r.Feedback.Ptr(),
		SubmittedAt:  r.SubmittedAt,
		GradedAt:     r.GradedAt.Ptr(),
		Student:      &user.Summary{ID: r.StudentID, Name: r.StudentName, Email: r.StudentEmail},
	}
	return sub
}

const assignmentSelect = `
	SELECT a.id, a.title, a.description, a.course_id, a.due_date, a.max_grade, a.created_at, a.updated_at,
	       c.title AS course_title,
	       c.code  AS course_code,
	       (SELECT COUNT(*) FROM submission s WHERE s.assignment_id = a.id) AS submission_count
	FROM assignment a
	JOIN course c ON c.id = a.course_id`

const submissionSelect = `
	SELECT s.id, s.assignment_id, s.student_id, s.content, s.file_url, s.status,
	       s.grade, s.feedback, s.submitted_at, s.graded_at,
	       u.name  AS student_name,
	       u.email AS student_email
	FROM submission s
	JOIN user_account u ON u.id = s.student_id`

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	query := `
		INSERT INTO assignment (id, title, description, course_id, due_date, max_grade, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Description, a.CourseID, a.DueDate, a.MaxGrade, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return repo.GetAssignmentByID(ctx, a.ID)
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, assignmentSelect+` WHERE a.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return row.toDomain(), nil
}

func (repo assignmentRepository) GetAssignmentDetail(ctx context.Context, id string) (assignment.Assignment, error) {
	a, err := repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return assignment.Assignment{}, err
	}

	var rows []submissionRow
	query := submissionSelect + ` WHERE s.assignment_id = $1` + orderBy(submissionOrdering)
	if err = repo.db.SelectContext(ctx, &rows, query, id); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "querying submissions")
	}
	a.Submissions = make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		a.Submissions = append(a.Submissions, row.toDomain())
	}
	return a, nil
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	query := assignmentSelect
	var args []interface{}
	if filter.CourseID != "" {
		query += ` WHERE a.course_id = $1`
		args = append(args, filter.CourseID)
	}
	query += orderBy(assignmentOrdering)

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toDomain())
	}
	return assignments, nil
}

func (repo assignmentRepository) SubmissionExists(ctx context.Context, assignmentID, studentID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM submission WHERE assignment_id = $1 AND student_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, query, assignmentID, studentID); err != nil {
		return false, errors.Wrap(err, "checking submission")
	}
	return exists, nil
}

func (repo assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	query := `
		INSERT INTO submission (id, assignment_id, student_id, content, file_url, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, null.StringFromPtr(sub.FileURL), string(sub.Status), sub.SubmittedAt)
	if err != nil {
		if constraint, ok := violatedConstraint(err); ok && constraint == "submission_assignment_student_key" {
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
		return assignment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, submissionSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, errors.Wrap(err, "finding submission by ID")
	}
	sub := row.toDomain()

	a, err := repo.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return assignment.Submission{}, err
	}
	// the course's teacher drives the grading authorization check
	var teacherID string
	if err = repo.db.GetContext(ctx, &teacherID, `SELECT teacher_id FROM course WHERE id = $1`, a.CourseID); err != nil {
		return assignment.Submission{}, errors.Wrap(err, "finding course teacher")
	}
	a.Course.TeacherID = teacherID
	sub.Assignment = &a
	return sub, nil
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	query := `
		UPDATE submission
		SET content = $2, file_url = $3, status = $4, grade = $5, feedback = $6, graded_at = $7
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.Content, null.StringFromPtr(sub.FileURL), string(sub.Status),
		null.IntFromPtr(sub.Grade), null.StringFromPtr(sub.Feedback), null.TimeFromPtr(sub.GradedAt))
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	query := submissionSelect
	var (
		conds []string
		args  []interface{}
	)
	if filter.AssignmentID != "" {
		args = append(args, filter.AssignmentID)
		conds = append(conds, `s.assignment_id = $1`)
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		if len(args) == 1 {
			conds = append(conds, `s.student_id = $1`)
		} else {
			conds = append(conds, `s.student_id = $2`)
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += orderBy(submissionOrdering)

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}

	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		sub := row.toDomain()
		a, err := repo.GetAssignmentByID(ctx, sub.AssignmentID)
		if err != nil {
			return nil, err
		}
		sub.Assignment = &a
		subs = append(subs, sub)
	}
	return subs, nil
}
