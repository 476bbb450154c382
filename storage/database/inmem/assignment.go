package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) userSummary(id string) *user.Summary {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return usr.Summary()
	}
	return nil
}

func (repo *assignmentRepository) courseSummary(id string) (*course.Summary, string) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	if crs, ok := repo.db.course.table[id]; ok {
		return crs.Summary(), crs.TeacherID
	}
	return nil, ""
}

// hydrate fills the relations a SQL join would: course summary and counts.
// It acquires one table lock at a time; callers must not hold any.
func (repo *assignmentRepository) hydrate(a assignment.Assignment) assignment.Assignment {
	a.Course, _ = repo.courseSummary(a.CourseID)
	a.Counts = &assignment.Counts{}

	repo.db.assignment.RLock()
	for _, sub := range repo.db.assignment.submissions {
		if sub.AssignmentID == a.ID {
			a.Counts.Submissions++
		}
	}
	repo.db.assignment.RUnlock()
	return a
}

func (repo *assignmentRepository) hydrateSubmission(sub assignment.Submission) assignment.Submission {
	sub.Student = repo.userSummary(sub.StudentID)
	return sub
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.assignment.Lock()
	a.ID = uuid.New().String()
	repo.db.assignment.table[a.ID] = &a
	repo.db.assignment.Unlock()

	return repo.hydrate(a), nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.assignment.RLock()
	a, ok := repo.db.assignment.table[id]
	if !ok {
		repo.db.assignment.RUnlock()
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	found := *a
	repo.db.assignment.RUnlock()

	return repo.hydrate(found), nil
}

func (repo *assignmentRepository) GetAssignmentDetail(ctx context.Context, id string) (assignment.Assignment, error) {
	a, err := repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return assignment.Assignment{}, err
	}

	repo.db.assignment.RLock()
	a.Submissions = make([]assignment.Submission, 0)
	for _, sub := range repo.db.assignment.submissions {
		if sub.AssignmentID == id {
			a.Submissions = append(a.Submissions, *sub)
		}
	}
	repo.db.assignment.RUnlock()

	for i, sub := range a.Submissions {
		a.Submissions[i] = repo.hydrateSubmission(sub)
	}
	sort.Slice(a.Submissions, func(i, j int) bool {
		return a.Submissions[i].SubmittedAt.After(a.Submissions[j].SubmittedAt)
	})
	return a, nil
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.assignment.RLock()
	assignments := make([]assignment.Assignment, 0, len(repo.db.assignment.table))
	for _, a := range repo.db.assignment.table {
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		assignments = append(assignments, *a)
	}
	repo.db.assignment.RUnlock()

	for i, a := range assignments {
		assignments[i] = repo.hydrate(a)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
	return assignments, nil
}

func (repo *assignmentRepository) SubmissionExists(_ context.Context, assignmentID, studentID string) (bool, error) {
	repo.db.assignment.RLock()
	defer repo.db.assignment.RUnlock()

	for _, sub := range repo.db.assignment.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.assignment.Lock()

	for _, s := range repo.db.assignment.submissions {
		if s.AssignmentID == sub.AssignmentID && s.StudentID == sub.StudentID {
			repo.db.assignment.Unlock()
			return assignment.Submission{}, assignment.ErrAlreadySubmitted
		}
	}
	sub.ID = uuid.New().String()
	repo.db.assignment.submissions[sub.ID] = &sub
	repo.db.assignment.Unlock()

	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	repo.db.assignment.RLock()
	s, ok := repo.db.assignment.submissions[id]
	if !ok {
		repo.db.assignment.RUnlock()
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	sub := *s
	repo.db.assignment.RUnlock()

	sub = repo.hydrateSubmission(sub)
	a, err := repo.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return assignment.Submission{}, err
	}
	// the course's teacher drives the grading authorization check
	if _, teacherID := repo.courseSummary(a.CourseID); a.Course != nil {
		a.Course.TeacherID = teacherID
	}
	sub.Assignment = &a
	return sub, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.assignment.Lock()

	orig, ok := repo.db.assignment.submissions[sub.ID]
	if !ok {
		repo.db.assignment.Unlock()
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	orig.Content = sub.Content
	orig.FileURL = sub.FileURL
	orig.Status = sub.Status
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	orig.GradedAt = sub.GradedAt
	repo.db.assignment.Unlock()

	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	repo.db.assignment.RLock()
	ids := make([]string, 0, len(repo.db.assignment.submissions))
	for _, sub := range repo.db.assignment.submissions {
		if filter.AssignmentID != "" && sub.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && sub.StudentID != filter.StudentID {
			continue
		}
		ids = append(ids, sub.ID)
	}
	repo.db.assignment.RUnlock()

	subs := make([]assignment.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := repo.GetSubmissionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}
