package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	TeacherID   string    `json:"teacherId"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC

	// related records
	Teacher     *user.Summary `json:"teacher,omitempty"`
	Enrollments []Enrollment  `json:"enrollments,omitempty"`
	Counts      *Counts       `json:"_count,omitempty"`
}

// Counts carries the related-record counts embedded in course payloads.
type Counts struct {
	Enrollments int `json:"enrollments"`
	Assignments int `json:"assignments"`
	Discussions int `json:"discussions"`
}

// Summary is the trimmed representation of a Course embedded in related records.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Code      string `json:"code"`
	TeacherID string `json:"teacherId,omitempty"`
}

func (c Course) Summary() *Summary {
	return &Summary{ID: c.ID, Title: c.Title, Code: c.Code, TeacherID: c.TeacherID}
}

// CanManage reports whether actor may update or delete the course:
// the owning teacher or an admin.
func (c Course) CanManage(actor user.User) bool {
	return actor.ID == c.TeacherID || actor.IsAdmin()
}

type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"` // UTC

	// related records
	User   *user.Summary `json:"user,omitempty"`
	Course *Course       `json:"course,omitempty"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Code = core.CleanString(nc.Code)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields are left unchanged.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(origCrs Course) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = origCrs.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCrs.Description
	}
	return nil
}
