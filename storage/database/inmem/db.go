// Package inmemdb provides map-backed repositories for tests. It enforces the
// same uniqueness rules as the PostgreSQL backend so the conflict paths behave
// identically.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		assignment *assignmentTable
		discussion *discussionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table       map[string]*course.Course
		enrollments map[string]*course.Enrollment
	}

	assignmentTable struct {
		sync.RWMutex
		table       map[string]*assignment.Assignment
		submissions map[string]*assignment.Submission
	}

	discussionTable struct {
		sync.RWMutex
		table    map[string]*discussion.Discussion
		comments map[string]*discussion.Comment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		course: &courseTable{
			table:       make(map[string]*course.Course),
			enrollments: make(map[string]*course.Enrollment),
		},
		assignment: &assignmentTable{
			table:       make(map[string]*assignment.Assignment),
			submissions: make(map[string]*assignment.Submission),
		},
		discussion: &discussionTable{
			table:    make(map[string]*discussion.Discussion),
			comments: make(map[string]*discussion.Comment),
		},
	}
	return db, nil
}
