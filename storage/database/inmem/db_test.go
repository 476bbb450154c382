package inmemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
)

// Writes on one table hydrate relations from the others; interleaved writers
// across tables must never block each other permanently.
func TestDB_concurrentCrossTableWrites(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	courseRepo := NewCourseRepository(db)
	assignmentRepo := NewAssignmentRepository(db)
	discussionRepo := NewDiscussionRepository(db)

	ctx := context.Background()
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			crs, err := courseRepo.CreateCourse(ctx, course.Course{
				Title: "Course", Code: fmt.Sprintf("CS%d", i), TeacherID: "t1",
			})
			if err != nil {
				t.Errorf("CreateCourse() failed: %v", err)
				return
			}
			if i%2 == 0 {
				_ = courseRepo.DeleteCourse(ctx, crs.ID)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			a, err := assignmentRepo.CreateAssignment(ctx, assignment.Assignment{
				Title: "HW", CourseID: "c1", DueDate: time.Now(), MaxGrade: 100,
			})
			if err != nil {
				t.Errorf("CreateAssignment() failed: %v", err)
				return
			}
			if _, err = assignmentRepo.GetAssignmentByID(ctx, a.ID); err != nil {
				t.Errorf("GetAssignmentByID() failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, err := discussionRepo.CreateDiscussion(ctx, discussion.Discussion{
				Title: "Q", CourseID: "c1", AuthorID: "u1",
			}); err != nil {
				t.Errorf("CreateDiscussion() failed: %v", err)
				return
			}
			if _, err := discussionRepo.QueryDiscussions(ctx, discussion.QueryFilter{}); err != nil {
				t.Errorf("QueryDiscussions() failed: %v", err)
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent repository calls did not finish; writers are blocking each other")
	}
}
