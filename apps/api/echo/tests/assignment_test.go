package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

func Test_assignmentApi_create(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Owner", "owner@test.cd", "passwd", user.RoleTeacher)
	other := createUser(t, "Other", "other@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)
	admin := createUser(t, "Admin", "admin@test.cd", "passwd", user.RoleAdmin)

	crs := createCourse(t, "Course", "CS101", owner.ID)

	due := time.Now().Add(7 * 24 * time.Hour).UTC().Format(time.RFC3339)
	body := []byte(fmt.Sprintf(`{"title":"HW1","description":"First homework","courseId":"%s","dueDate":"%s"}`, crs.ID, due))
	bodyWithGrade := []byte(fmt.Sprintf(`{"title":"HW2","description":"Second homework","courseId":"%s","dueDate":"%s","maxGrade":50}`, crs.ID, due))
	bodyUnknownCourse := []byte(fmt.Sprintf(`{"title":"HW1","description":"...","courseId":"lol","dueDate":"%s"}`, due))

	tests := []httpTest{
		{name: "Auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher or admin required", body: body, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "empty payload", body: []byte(`{}`), token: getToken(t, owner), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":       "this field is required",
				"description": "this field is required",
				"courseId":    "this field is required",
				"dueDate":     "this field is required",
			}),
		},
		{
			name: "course not found", body: bodyUnknownCourse, token: getToken(t, owner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Course not found"}),
		},
		{
			name: "not the course owner", body: body, token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Not authorized to create assignment for this course"}),
		},
		{name: "maxGrade defaults to 100", body: body, token: getToken(t, owner), wantCode: http.StatusCreated, extra: 100},
		{name: "admin sets maxGrade", body: bodyWithGrade, token: getToken(t, admin), wantCode: http.StatusCreated, extra: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/assignments", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			var a assignment.Assignment
			if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if want := tt.extra.(int); a.MaxGrade != want {
				t.Errorf("maxGrade = %d; want %d", a.MaxGrade, want)
			}
			if a.CourseID != crs.ID {
				t.Errorf("courseId = %s; want %s", a.CourseID, crs.ID)
			}
		})
	}
}

func Test_assignmentApi_query(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	crs1 := createCourse(t, "Course 1", "CS101", teacher.ID)
	crs2 := createCourse(t, "Course 2", "CS102", teacher.ID)

	now := time.Now().UTC()
	a2 := createAssignment(t, "HW2", crs1.ID, now.Add(48*time.Hour), 100)
	a1 := createAssignment(t, "HW1", crs1.ID, now.Add(24*time.Hour), 100)
	a3 := createAssignment(t, "Other HW", crs2.ID, now.Add(12*time.Hour), 100)

	t.Run("ordered by due date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/assignments", getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var assignments []assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		wantIDs := []string{a3.ID, a1.ID, a2.ID}
		if len(assignments) != len(wantIDs) {
			t.Fatalf("len = %d; want %d", len(assignments), len(wantIDs))
		}
		for i, want := range wantIDs {
			if assignments[i].ID != want {
				t.Errorf("assignments[%d].ID = %s; want %s", i, assignments[i].ID, want)
			}
		}
	})

	t.Run("filtered by course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/assignments?courseId="+crs1.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var assignments []assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(assignments) != 2 {
			t.Fatalf("len = %d; want 2", len(assignments))
		}
		for _, a := range assignments {
			if a.CourseID != crs1.ID {
				t.Errorf("unexpected courseId %s", a.CourseID)
			}
		}
	})
}

func Test_assignmentApi_retrieve(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	enroll(t, student.ID, crs.ID)
	a := createAssignment(t, "HW1", crs.ID, time.Now().Add(24*time.Hour), 100)
	sub := createSubmission(t, a.ID, student.ID, "my answer")

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Assignment not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/api/assignments/lol", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("detail with submissions", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/assignments/"+a.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp assignment.Assignment
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if resp.ID != a.ID {
			t.Errorf("id = %s; want %s", resp.ID, a.ID)
		}
		if resp.Course == nil || resp.Course.ID != crs.ID {
			t.Errorf("unexpected course: %+v", resp.Course)
		}
		if len(resp.Submissions) != 1 || resp.Submissions[0].ID != sub.ID {
			t.Fatalf("unexpected submissions: %+v", resp.Submissions)
		}
		if s := resp.Submissions[0]; s.Student == nil || s.Student.ID != student.ID {
			t.Errorf("unexpected student: %+v", s.Student)
		}
		if resp.Counts == nil || resp.Counts.Submissions != 1 {
			t.Errorf("unexpected counts: %+v", resp.Counts)
		}
	})
}

func Test_assignmentApi_submit(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	enroll(t, student.ID, crs.ID)
	a := createAssignment(t, "HW1", crs.ID, time.Now().Add(24*time.Hour), 100)
	path := fmt.Sprintf("/api/assignments/%s/submit", a.ID)

	body := []byte(`{"content":"my answer","fileUrl":"https://files.test.cd/answer.pdf"}`)

	tests := []httpTest{
		{
			name: "Student required", path: path, body: body, token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "empty payload", path: path, body: []byte(`{}`), token: getToken(t, student),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"content": "this field is required"}),
		},
		{
			name: "assignment not found", path: "/api/assignments/lol/submit", body: body, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Assignment not found"}),
		},
		{name: "student submits", path: path, body: body, token: getToken(t, student), wantCode: http.StatusCreated},
		{
			name: "already submitted", path: path, body: body, token: getToken(t, student),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Assignment already submitted"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			var sub assignment.Submission
			if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if sub.Status != assignment.StatusSubmitted {
				t.Errorf("status = %s; want %s", sub.Status, assignment.StatusSubmitted)
			}
			if sub.StudentID != student.ID || sub.AssignmentID != a.ID {
				t.Errorf("unexpected submission: %+v", sub)
			}
			if sub.FileURL == nil || *sub.FileURL != "https://files.test.cd/answer.pdf" {
				t.Errorf("unexpected fileUrl: %v", sub.FileURL)
			}
		})
	}
}

func Test_assignmentApi_grade(t *testing.T) {
	app := setup(t)

	owner := createUser(t, "Owner", "owner@test.cd", "passwd", user.RoleTeacher)
	other := createUser(t, "Other", "other@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)
	admin := createUser(t, "Admin", "admin@test.cd", "passwd", user.RoleAdmin)

	crs := createCourse(t, "Course", "CS101", owner.ID)
	enroll(t, student.ID, crs.ID)
	a := createAssignment(t, "HW1", crs.ID, time.Now().Add(24*time.Hour), 100)
	sub1 := createSubmission(t, a.ID, student.ID, "answer 1")

	student2 := createUser(t, "Student2", "student2@test.cd", "passwd", user.RoleStudent)
	enroll(t, student2.ID, crs.ID)
	sub2 := createSubmission(t, a.ID, student2.ID, "answer 2")

	gradePath := func(id string) string { return fmt.Sprintf("/api/assignments/submissions/%s/grade", id) }
	body := []byte(`{"grade":85,"feedback":"Good work"}`)

	tests := []httpTest{
		{
			name: "Teacher or admin required", path: gradePath(sub1.ID), body: body, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "empty payload", path: gradePath(sub1.ID), body: []byte(`{}`), token: getToken(t, owner),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "this field is required"}),
		},
		{
			name: "submission not found", path: gradePath("lol"), body: body, token: getToken(t, owner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Submission not found"}),
		},
		{
			name: "not the course owner", path: gradePath(sub1.ID), body: body, token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Not authorized to grade this submission"}),
		},
		{
			name: "grade exceeds ceiling", path: gradePath(sub1.ID), body: []byte(`{"grade":101}`), token: getToken(t, owner),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "Grade cannot exceed 100"}),
		},
		{name: "owner grades", path: gradePath(sub1.ID), body: body, token: getToken(t, owner), wantCode: http.StatusOK},
		{name: "admin grades", path: gradePath(sub2.ID), body: body, token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}

			var sub assignment.Submission
			if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if sub.Status != assignment.StatusGraded {
				t.Errorf("status = %s; want %s", sub.Status, assignment.StatusGraded)
			}
			if sub.Grade == nil || *sub.Grade != 85 {
				t.Errorf("unexpected grade: %v", sub.Grade)
			}
			if sub.Feedback == nil || *sub.Feedback != "Good work" {
				t.Errorf("unexpected feedback: %v", sub.Feedback)
			}
			if sub.GradedAt == nil {
				t.Error("expected gradedAt")
			}
		})
	}
}

func Test_assignmentApi_querySubmissions(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student1 := createUser(t, "Student1", "student1@test.cd", "passwd", user.RoleStudent)
	student2 := createUser(t, "Student2", "student2@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	enroll(t, student1.ID, crs.ID)
	enroll(t, student2.ID, crs.ID)
	a1 := createAssignment(t, "HW1", crs.ID, time.Now().Add(24*time.Hour), 100)
	a2 := createAssignment(t, "HW2", crs.ID, time.Now().Add(48*time.Hour), 100)

	sub1 := createSubmission(t, a1.ID, student1.ID, "answer 1")
	sub2 := createSubmission(t, a1.ID, student2.ID, "answer 2")
	sub3 := createSubmission(t, a2.ID, student1.ID, "answer 3")

	query := func(t *testing.T, path string, usr user.User) []assignment.Submission {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, usr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var subs []assignment.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		return subs
	}
	ids := func(subs []assignment.Submission) []string {
		out := make([]string, len(subs))
		for i, s := range subs {
			out[i] = s.ID
		}
		return out
	}

	t.Run("teacher sees all submissions", func(t *testing.T) {
		subs := query(t, "/api/assignments/submissions/list", teacher)
		assertElementsMatch(t, ids(subs), []string{sub1.ID, sub2.ID, sub3.ID})
	})

	t.Run("student sees own submissions only", func(t *testing.T) {
		subs := query(t, "/api/assignments/submissions/list", student1)
		assertElementsMatch(t, ids(subs), []string{sub1.ID, sub3.ID})
	})

	t.Run("filtered by assignment", func(t *testing.T) {
		subs := query(t, "/api/assignments/submissions/list?assignmentId="+a1.ID, teacher)
		assertElementsMatch(t, ids(subs), []string{sub1.ID, sub2.ID})
	})

	t.Run("student filter stacks with assignment filter", func(t *testing.T) {
		subs := query(t, "/api/assignments/submissions/list?assignmentId="+a1.ID, student1)
		assertElementsMatch(t, ids(subs), []string{sub1.ID})
	})
}
