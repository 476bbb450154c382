package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, code, teacherID string,
	createdAt ...time.Time,
) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:       title,
		Description: title + " description",
		Code:        code,
		TeacherID:   teacherID,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func Enroll(t *testing.T, repo course.Repository, userID, courseID string) course.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	title, courseID string,
	dueDate time.Time,
	maxGrade int,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		Title:       title,
		Description: title + " description",
		CourseID:    courseID,
		DueDate:     dueDate.UTC(),
		MaxGrade:    maxGrade,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func CreateSubmission(
	t *testing.T,
	repo assignment.Repository,
	assignmentID, studentID, content string,
) assignment.Submission {
	t.Helper()

	sub, err := repo.CreateSubmission(context.Background(), assignment.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      content,
		Status:       assignment.StatusSubmitted,
		SubmittedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}

func CreateDiscussion(
	t *testing.T,
	repo discussion.Repository,
	title, courseID, authorID string,
	createdAt ...time.Time,
) discussion.Discussion {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	d, err := repo.CreateDiscussion(context.Background(), discussion.Discussion{
		Title:     title,
		Content:   title + " content",
		CourseID:  courseID,
		AuthorID:  authorID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateDiscussion() failed: %v", err)
	}
	return d
}

func CreateComment(
	t *testing.T,
	repo discussion.Repository,
	discussionID, authorID, content string,
) discussion.Comment {
	t.Helper()

	c, err := repo.CreateComment(context.Background(), discussion.Comment{
		Content:      content,
		DiscussionID: discussionID,
		AuthorID:     authorID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateComment() failed: %v", err)
	}
	return c
}
