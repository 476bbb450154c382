package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Code        string    `db:"code"`
	TeacherID   string    `db:"teacher_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	TeacherName     string `db:"teacher_name"`
	TeacherEmail    string `db:"teacher_email"`
	EnrollmentCount int    `db:"enrollment_count"`
	AssignmentCount int    `db:"assignment_count"`
	DiscussionCount int    `db:"discussion_count"`
}

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Code:        r.Code,
		TeacherID:   r.TeacherID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Teacher:     &user.Summary{ID: r.TeacherID, Name: r.TeacherName, Email: r.TeacherEmail},
		Counts: &course.Counts{
			Enrollments: r.EnrollmentCount,
			Assignments: r.AssignmentCount,
			Discussions: r.DiscussionCount,
		},
	}
}

type enrollmentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`

	UserName  string `db:"user_name"`
	UserEmail string `db:"user_email"`
}

func (r enrollmentRow) toDomain() course.Enrollment {
	return course.Enrollment{
		ID:        r.ID,
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		CreatedAt: r.CreatedAt,
		User:      &user.Summary{ID: r.UserID, Name: r.UserName, Email: r.UserEmail},
	}
}

const courseSelect = `
	SELECT c.id, c.title, c.description, c.code, c.teacher_id, c.created_at, c.updated_at,
	       u.name  AS teacher_name,
	       u.email AS teacher_email,
	       (SELECT COUNT(*) FROM enrollment e WHERE e.course_id = c.id) AS enrollment_count,
	       (SELECT COUNT(*) FROM assignment a WHERE a.course_id = c.id) AS assignment_count,
	       (SELECT COUNT(*) FROM discussion d WHERE d.course_id = c.id) AS discussion_count
	FROM course c
	JOIN user_account u ON u.id = c.teacher_id`

func (repo courseRepository) CheckCodeUniqueness(ctx context.Context, code string) error {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course WHERE code = $1)`, code); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	query := `
		INSERT INTO course (id, title, description, code, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.Code, crs.TeacherID, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		if constraint, ok := violatedConstraint(err); ok && constraint == "course_code_key" {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, courseSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) GetCourseDetail(ctx context.Context, id string) (course.Course, error) {
	crs, err := repo.GetCourseByID(ctx, id)
	if err != nil {
		return course.Course{}, err
	}

	var rows []enrollmentRow
	query := `
		SELECT e.id, e.user_id, e.course_id, e.created_at,
		       u.name  AS user_name,
		       u.email AS user_email
		FROM enrollment e
		JOIN user_account u ON u.id = e.user_id
		WHERE e.course_id = $1` + orderBy(enrollmentOrdering)
	if err = repo.db.SelectContext(ctx, &rows, query, id); err != nil {
		return course.Course{}, errors.Wrap(err, "querying enrollments")
	}
	crs.Enrollments = make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		crs.Enrollments = append(crs.Enrollments, row.toDomain())
	}
	return crs, nil
}

func (repo courseRepository) queryCourses(ctx context.Context, query string, args ...interface{}) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDomain())
	}
	return courses, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	return repo.queryCourses(ctx, courseSelect+orderBy(courseOrdering))
}

func (repo courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Course, error) {
	return repo.queryCourses(ctx, courseSelect+` WHERE c.teacher_id = $1`+orderBy(courseOrdering), teacherID)
}

func (repo courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	query := courseSelect + `
	WHERE EXISTS (SELECT 1 FROM enrollment e WHERE e.course_id = c.id AND e.user_id = $1)` + orderBy(courseOrdering)
	return repo.queryCourses(ctx, query, studentID)
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	query := `
		UPDATE course
		SET title = $2, description = $3, updated_at = $4
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, crs.ID, crs.Title, crs.Description, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo courseRepository) EnrollmentExists(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE user_id = $1 AND course_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	enr.ID = uuid.New().String()
	query := `
		INSERT INTO enrollment (id, user_id, course_id, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := repo.db.ExecContext(ctx, query, enr.ID, enr.UserID, enr.CourseID, enr.CreatedAt)
	if err != nil {
		if constraint, ok := violatedConstraint(err); ok && constraint == "enrollment_user_course_key" {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}

	crs, err := repo.GetCourseByID(ctx, enr.CourseID)
	if err != nil {
		return course.Enrollment{}, err
	}
	enr.Course = &crs
	return enr, nil
}
