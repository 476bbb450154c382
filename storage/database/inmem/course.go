package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) userSummary(id string) *user.Summary {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return usr.Summary()
	}
	return nil
}

// hydrate fills the relations a SQL join would: teacher summary and counts.
// It acquires one table lock at a time; callers must not hold any.
func (repo *courseRepository) hydrate(crs course.Course) course.Course {
	crs.Teacher = repo.userSummary(crs.TeacherID)
	crs.Counts = &course.Counts{}

	repo.db.course.RLock()
	for _, enr := range repo.db.course.enrollments {
		if enr.CourseID == crs.ID {
			crs.Counts.Enrollments++
		}
	}
	repo.db.course.RUnlock()

	repo.db.assignment.RLock()
	for _, a := range repo.db.assignment.table {
		if a.CourseID == crs.ID {
			crs.Counts.Assignments++
		}
	}
	repo.db.assignment.RUnlock()

	repo.db.discussion.RLock()
	for _, d := range repo.db.discussion.table {
		if d.CourseID == crs.ID {
			crs.Counts.Discussions++
		}
	}
	repo.db.discussion.RUnlock()
	return crs
}

func (repo *courseRepository) query() []course.Course {
	repo.db.course.RLock()
	courses := make([]course.Course, 0, len(repo.db.course.table))
	for _, crs := range repo.db.course.table {
		courses = append(courses, *crs)
	}
	repo.db.course.RUnlock()

	for i, crs := range courses {
		courses[i] = repo.hydrate(crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CheckCodeUniqueness(_ context.Context, code string) error {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	for _, crs := range repo.db.course.table {
		if crs.Code == code {
			return course.ErrCodeExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.course.Lock()
	for _, c := range repo.db.course.table {
		if c.Code == crs.Code {
			repo.db.course.Unlock()
			return course.Course{}, course.ErrCodeExists
		}
	}
	crs.ID = uuid.New().String()
	repo.db.course.table[crs.ID] = &crs
	repo.db.course.Unlock()

	return repo.hydrate(crs), nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.course.RLock()
	crs, ok := repo.db.course.table[id]
	if !ok {
		repo.db.course.RUnlock()
		return course.Course{}, course.ErrNotFound
	}
	found := *crs
	repo.db.course.RUnlock()

	return repo.hydrate(found), nil
}

func (repo *courseRepository) GetCourseDetail(ctx context.Context, id string) (course.Course, error) {
	crs, err := repo.GetCourseByID(ctx, id)
	if err != nil {
		return course.Course{}, err
	}

	repo.db.course.RLock()
	crs.Enrollments = make([]course.Enrollment, 0)
	for _, enr := range repo.db.course.enrollments {
		if enr.CourseID == id {
			crs.Enrollments = append(crs.Enrollments, *enr)
		}
	}
	repo.db.course.RUnlock()

	for i, enr := range crs.Enrollments {
		crs.Enrollments[i].User = repo.userSummary(enr.UserID)
	}
	sort.Slice(crs.Enrollments, func(i, j int) bool {
		return crs.Enrollments[i].CreatedAt.Before(crs.Enrollments[j].CreatedAt)
	})
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	return repo.query(), nil
}

func (repo *courseRepository) QueryCoursesByTeacher(_ context.Context, teacherID string) ([]course.Course, error) {
	var courses []course.Course
	for _, crs := range repo.query() {
		if crs.TeacherID == teacherID {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(_ context.Context, studentID string) ([]course.Course, error) {
	repo.db.course.RLock()
	enrolled := make(map[string]bool)
	for _, enr := range repo.db.course.enrollments {
		if enr.UserID == studentID {
			enrolled[enr.CourseID] = true
		}
	}
	repo.db.course.RUnlock()

	var courses []course.Course
	for _, crs := range repo.query() {
		if enrolled[crs.ID] {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.course.Lock()
	orig, ok := repo.db.course.table[crs.ID]
	if !ok {
		repo.db.course.Unlock()
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.UpdatedAt = crs.UpdatedAt
	updated := *orig
	repo.db.course.Unlock()

	return repo.hydrate(updated), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.course.Lock()
	delete(repo.db.course.table, id)
	for eid, enr := range repo.db.course.enrollments {
		if enr.CourseID == id {
			delete(repo.db.course.enrollments, eid)
		}
	}
	repo.db.course.Unlock()

	// cascade, as the schema's ON DELETE CASCADE would
	repo.db.assignment.Lock()
	for aid, a := range repo.db.assignment.table {
		if a.CourseID != id {
			continue
		}
		delete(repo.db.assignment.table, aid)
		for sid, sub := range repo.db.assignment.submissions {
			if sub.AssignmentID == aid {
				delete(repo.db.assignment.submissions, sid)
			}
		}
	}
	repo.db.assignment.Unlock()

	repo.db.discussion.Lock()
	for did, d := range repo.db.discussion.table {
		if d.CourseID != id {
			continue
		}
		delete(repo.db.discussion.table, did)
		for cid, cm := range repo.db.discussion.comments {
			if cm.DiscussionID == did {
				delete(repo.db.discussion.comments, cid)
			}
		}
	}
	repo.db.discussion.Unlock()
	return nil
}

func (repo *courseRepository) EnrollmentExists(_ context.Context, userID, courseID string) (bool, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	for _, enr := range repo.db.course.enrollments {
		if enr.UserID == userID && enr.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.course.Lock()
	for _, e := range repo.db.course.enrollments {
		if e.UserID == enr.UserID && e.CourseID == enr.CourseID {
			repo.db.course.Unlock()
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
	}
	enr.ID = uuid.New().String()
	repo.db.course.enrollments[enr.ID] = &enr

	var crs *course.Course
	if c, ok := repo.db.course.table[enr.CourseID]; ok {
		found := *c
		crs = &found
	}
	repo.db.course.Unlock()

	if crs != nil {
		hydrated := repo.hydrate(*crs)
		enr.Course = &hydrated
	}
	return enr, nil
}
