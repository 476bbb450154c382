package assignment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

const defaultMaxGrade = 100

var (
	ErrNotFound           = core.NewNotFoundError("Assignment not found")
	ErrSubmissionNotFound = core.NewNotFoundError("Submission not found")
	ErrAlreadySubmitted   = errors.New("Assignment already submitted")

	errCreateForbidden = core.NewForbiddenError("Not authorized to create assignment for this course")
	errGradeForbidden  = core.NewForbiddenError("Not authorized to grade this submission")
)

type Repository interface {
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	// GetAssignmentByID returns the assignment with its course summary.
	GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
	// GetAssignmentDetail also loads submissions with their student summaries.
	GetAssignmentDetail(ctx context.Context, id string) (Assignment, error)
	// QueryAssignments orders by due date ascending.
	QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
	SubmissionExists(ctx context.Context, assignmentID, studentID string) (bool, error)
	// CreateSubmission returns ErrAlreadySubmitted when the
	// (assignment, student) unique constraint is violated.
	CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
	// GetSubmissionByID loads the submission with its assignment and the
	// assignment's course, as needed by the grading authorization check.
	GetSubmissionByID(ctx context.Context, id string) (Submission, error)
	UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	// QuerySubmissions orders by submission time descending.
	QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
}

type Service struct {
	repo       Repository
	courseRepo course.Repository
	mailSvc    core.EmailService
	conf       *core.Config
}

func NewService(repo Repository, courseRepo course.Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, courseRepo: courseRepo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) Create(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	crs, err := svc.courseRepo.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if !crs.CanManage(actor) {
		return Assignment{}, errCreateForbidden
	}

	maxGrade := na.MaxGrade
	if maxGrade == 0 {
		maxGrade = defaultMaxGrade
	}
	now := time.Now().UTC()
	a := Assignment{
		Title:       na.Title,
		Description: na.Description,
		CourseID:    na.CourseID,
		DueDate:     na.DueDate.UTC(),
		MaxGrade:    maxGrade,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentDetail(ctx, id)
}

// Submit records actor's attempt at the assignment. A submission is created
// directly in SUBMITTED; at most one submission exists per (assignment,
// student) and the unique constraint is the authoritative guard.
func (svc *Service) Submit(ctx context.Context, actor user.User, assignmentID string, ns NewSubmission) (Submission, error) {
	if _, err := svc.repo.GetAssignmentByID(ctx, assignmentID); err != nil {
		return Submission{}, err
	}

	exists, err := svc.repo.SubmissionExists(ctx, assignmentID, actor.ID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking submission")
	}
	if exists {
		return Submission{}, core.NewValidationError(ErrAlreadySubmitted)
	}

	sub := Submission{
		AssignmentID: assignmentID,
		StudentID:    actor.ID,
		Content:      ns.Content,
		Status:       StatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
	}
	if ns.FileURL != "" {
		sub.FileURL = &ns.FileURL
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrAlreadySubmitted { // lost the race; constraint wins
			return Submission{}, core.NewValidationError(ErrAlreadySubmitted)
		}
		return Submission{}, err
	}
	return sub, nil
}

// Grade performs the SUBMITTED -> GRADED transition; it is irreversible.
// The grade must not exceed the assignment's ceiling.
func (svc *Service) Grade(ctx context.Context, actor user.User, submissionID string, gs GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if !sub.CanGrade(actor) {
		return Submission{}, errGradeForbidden
	}
	if gs.Grade > sub.Assignment.MaxGrade {
		err := fmt.Errorf("Grade cannot exceed %d", sub.Assignment.MaxGrade)
		return Submission{}, core.NewValidationError(err, core.FieldError{Field: "grade", Error: err.Error()})
	}

	now := time.Now().UTC()
	sub.Grade = &gs.Grade
	sub.Status = StatusGraded
	sub.GradedAt = &now
	if gs.Feedback != "" {
		sub.Feedback = &gs.Feedback
	}
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}
	svc.sendGradedEmail(sub)
	return sub, nil
}

// QuerySubmissions returns the role-scoped submission listing: students see
// only their own submissions.
func (svc *Service) QuerySubmissions(ctx context.Context, actor user.User, filter SubmissionFilter) ([]Submission, error) {
	if actor.IsStudent() {
		filter.StudentID = actor.ID
	}
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *Service) sendGradedEmail(sub Submission) {
	if sub.Student == nil || sub.Assignment == nil || sub.Grade == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: sub.Student.Name, Address: sub.Student.Email}},
		Subject: fmt.Sprintf("%q has been graded", sub.Assignment.Title),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour submission for %q was graded: %d/%d.\nSee the feedback at %s.\n",
			sub.Student.Name, sub.Assignment.Title, *sub.Grade, sub.Assignment.MaxGrade, svc.conf.FrontendBaseURL,
		),
	})
}
