package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CourseID    string    `json:"courseId"`
	DueDate     time.Time `json:"dueDate"`  // UTC
	MaxGrade    int       `json:"maxGrade"` // grade ceiling, > 0
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// related records
	Course      *course.Summary `json:"course,omitempty"`
	Submissions []Submission    `json:"submissions,omitempty"`
	Counts      *Counts         `json:"_count,omitempty"`
}

// Counts carries the related-record counts embedded in assignment payloads.
type Counts struct {
	Submissions int `json:"submissions"`
}

// Summary is the trimmed representation of an Assignment embedded in submissions.
type Summary struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	MaxGrade int        `json:"maxGrade"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

func (a Assignment) Summary() *Summary {
	due := a.DueDate
	return &Summary{ID: a.ID, Title: a.Title, MaxGrade: a.MaxGrade, DueDate: &due}
}

// Submission statuses. A submission row is created directly in SUBMITTED and
// GRADED is terminal; PENDING is declared in the schema but never assigned.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusGraded    Status = "GRADED"
)

type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignmentId"`
	StudentID    string     `json:"studentId"`
	Content      string     `json:"content"`
	FileURL      *string    `json:"fileUrl,omitempty"`
	Status       Status     `json:"status"`
	Grade        *int       `json:"grade,omitempty"`
	Feedback     *string    `json:"feedback,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"` // UTC
	GradedAt     *time.Time `json:"gradedAt,omitempty"`

	// related records
	Assignment *Assignment   `json:"assignment,omitempty"`
	Student    *user.Summary `json:"student,omitempty"`
}

// CanGrade reports whether actor may grade the submission: the teacher owning
// the submission's course or an admin. The submission must carry its
// assignment and course records.
func (s Submission) CanGrade(actor user.User) bool {
	if actor.IsAdmin() {
		return true
	}
	return s.Assignment != nil && s.Assignment.Course != nil && s.Assignment.Course.TeacherID == actor.ID
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	CourseID    string    `json:"courseId" validate:"required"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	MaxGrade    int       `json:"maxGrade" validate:"omitempty,gt=0"` // defaults to 100
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.CourseID = core.CleanString(na.CourseID)
	return validate.Struct(na)
}

// NewSubmission contains a student's attempt at an assignment.
type NewSubmission struct {
	Content string `json:"content" validate:"required"`
	FileURL string `json:"fileUrl"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	ns.FileURL = core.CleanString(ns.FileURL)
	return validate.Struct(ns)
}

// GradeSubmission contains the grading verdict for a submission.
type GradeSubmission struct {
	Grade    int    `json:"grade" validate:"required,gt=0"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}

// QueryFilter narrows assignment listings.
type QueryFilter struct {
	CourseID string `query:"courseId"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	AssignmentID string `query:"assignmentId"`
	StudentID    string `query:"-"` // set by the service for student actors
}
