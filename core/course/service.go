package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("Course not found")
	ErrCodeExists      = errors.New("Course code already exists")
	ErrAlreadyEnrolled = errors.New("Already enrolled in this course")

	errUpdateForbidden = core.NewForbiddenError("Not authorized to update this course")
	errDeleteForbidden = core.NewForbiddenError("Not authorized to delete this course")
)

type Repository interface {
	CheckCodeUniqueness(ctx context.Context, code string) error
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	// GetCourseByID returns the course with its teacher summary.
	GetCourseByID(ctx context.Context, id string) (Course, error)
	// GetCourseDetail returns the course with teacher, enrollments (with user
	// summaries) and related-record counts.
	GetCourseDetail(ctx context.Context, id string) (Course, error)
	QueryAllCourses(ctx context.Context) ([]Course, error)
	QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error)
	QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
	EnrollmentExists(ctx context.Context, userID, courseID string) (bool, error)
	// CreateEnrollment returns ErrAlreadyEnrolled when the (user, course)
	// unique constraint is violated.
	CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckCodeUniqueness(code string) error {
	if err := svc.repo.CheckCodeUniqueness(context.Background(), code); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Code:        nc.Code,
		TeacherID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return Course{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
		return Course{}, err
	}
	return crs, nil
}

// Query returns the role-scoped course listing: teachers see owned courses,
// students see enrolled courses, admins see all.
func (svc *Service) Query(ctx context.Context, actor user.User) ([]Course, error) {
	switch {
	case actor.IsTeacher():
		return svc.repo.QueryCoursesByTeacher(ctx, actor.ID)
	case actor.IsStudent():
		return svc.repo.QueryCoursesByStudent(ctx, actor.ID)
	default:
		return svc.repo.QueryAllCourses(ctx)
	}
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseDetail(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !crs.CanManage(actor) {
		return Course{}, errUpdateForbidden
	}
	if err := uc.Validate(crs); err != nil {
		return Course{}, err
	}
	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if !crs.CanManage(actor) {
		return errDeleteForbidden
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// Enroll adds actor to the course. The existence check only provides a
// friendly message; the unique constraint is the authoritative guard and its
// violation is reported the same way.
func (svc *Service) Enroll(ctx context.Context, actor user.User, courseID string) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Enrollment{}, err
	}

	exists, err := svc.repo.EnrollmentExists(ctx, actor.ID, courseID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if exists {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
	}

	enr := Enrollment{
		UserID:    actor.ID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	enr, err = svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled { // lost the race; constraint wins
			return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled)
		}
		return Enrollment{}, err
	}
	return enr, nil
}
