package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
)

func Test_discussionApi_create(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)

	body := []byte(fmt.Sprintf(`{"title":"Week 1 questions","content":"Anyone stuck?","courseId":"%s"}`, crs.ID))

	tests := []httpTest{
		{name: "Auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "empty payload", body: []byte(`{}`), token: getToken(t, student), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":    "this field is required",
				"content":  "this field is required",
				"courseId": "this field is required",
			}),
		},
		{
			name: "course not found", body: []byte(`{"title":"Hi","content":"...","courseId":"lol"}`),
			token: getToken(t, student), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Course not found"}),
		},
		{name: "student starts a discussion", body: body, token: getToken(t, student), wantCode: http.StatusCreated, extra: student.ID},
		{
			name: "teacher starts a discussion", body: []byte(fmt.Sprintf(`{"title":"Announcement","content":"Read ch. 2","courseId":"%s"}`, crs.ID)),
			token: getToken(t, teacher), wantCode: http.StatusCreated, extra: teacher.ID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/discussions", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			var d discussion.Discussion
			if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if want := tt.extra.(string); d.AuthorID != want {
				t.Errorf("authorId = %s; want %s", d.AuthorID, want)
			}
			if d.CourseID != crs.ID {
				t.Errorf("courseId = %s; want %s", d.CourseID, crs.ID)
			}
		})
	}
}

func Test_discussionApi_query(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	crs1 := createCourse(t, "Course 1", "CS101", teacher.ID)
	crs2 := createCourse(t, "Course 2", "CS102", teacher.ID)

	now := time.Now().UTC()
	d1 := createDiscussion(t, "Oldest", crs1.ID, teacher.ID, now.Add(-2*time.Hour))
	d2 := createDiscussion(t, "Newest", crs1.ID, teacher.ID, now)
	d3 := createDiscussion(t, "Other course", crs2.ID, teacher.ID, now.Add(-time.Hour))

	t.Run("newest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/discussions", getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var discussions []discussion.Discussion
		if err := json.Unmarshal(rec.Body.Bytes(), &discussions); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		wantIDs := []string{d2.ID, d3.ID, d1.ID}
		if len(discussions) != len(wantIDs) {
			t.Fatalf("len = %d; want %d", len(discussions), len(wantIDs))
		}
		for i, want := range wantIDs {
			if discussions[i].ID != want {
				t.Errorf("discussions[%d].ID = %s; want %s", i, discussions[i].ID, want)
			}
		}
	})

	t.Run("filtered by course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/discussions?courseId="+crs2.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var discussions []discussion.Discussion
		if err := json.Unmarshal(rec.Body.Bytes(), &discussions); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(discussions) != 1 || discussions[0].ID != d3.ID {
			t.Errorf("unexpected discussions: %+v", discussions)
		}
	})
}

func Test_discussionApi_retrieve(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	d := createDiscussion(t, "Week 1 questions", crs.ID, student.ID)
	c1 := createComment(t, d.ID, teacher.ID, "First reply")
	c2 := createComment(t, d.ID, student.ID, "Second reply")

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Discussion not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/api/discussions/lol", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("detail with comments oldest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/discussions/"+d.ID, getToken(t, student))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp discussion.Discussion
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if resp.ID != d.ID {
			t.Errorf("id = %s; want %s", resp.ID, d.ID)
		}
		if resp.Author == nil || resp.Author.ID != student.ID {
			t.Errorf("unexpected author: %+v", resp.Author)
		}
		if resp.Course == nil || resp.Course.ID != crs.ID {
			t.Errorf("unexpected course: %+v", resp.Course)
		}
		if len(resp.Comments) != 2 || resp.Comments[0].ID != c1.ID || resp.Comments[1].ID != c2.ID {
			t.Errorf("unexpected comments: %+v", resp.Comments)
		}
		if resp.Counts == nil || resp.Counts.Comments != 2 {
			t.Errorf("unexpected counts: %+v", resp.Counts)
		}
	})
}

func Test_discussionApi_addComment(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	d := createDiscussion(t, "Week 1 questions", crs.ID, student.ID)
	path := fmt.Sprintf("/api/discussions/%s/comments", d.ID)

	body := []byte(`{"content":"A reply"}`)

	tests := []httpTest{
		{name: "Auth required", path: path, body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "empty payload", path: path, body: []byte(`{}`), token: getToken(t, student),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"content": "this field is required"}),
		},
		{
			name: "discussion not found", path: "/api/discussions/lol/comments", body: body, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Discussion not found"}),
		},
		{name: "student replies", path: path, body: body, token: getToken(t, student), wantCode: http.StatusCreated, extra: student.ID},
		{name: "teacher replies", path: path, body: body, token: getToken(t, teacher), wantCode: http.StatusCreated, extra: teacher.ID},
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

			var c discussion.Comment
			if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if want := tt.extra.(string); c.AuthorID != want {
				t.Errorf("authorId = %s; want %s", c.AuthorID, want)
			}
			if c.DiscussionID != d.ID {
				t.Errorf("discussionId = %s; want %s", c.DiscussionID, d.ID)
			}
		})
	}
}

func Test_discussionApi_destroy(t *testing.T) {
	app := setup(t)

	author := createUser(t, "Author", "author@test.cd", "passwd", user.RoleStudent)
	other := createUser(t, "Other", "other@test.cd", "passwd", user.RoleStudent)
	admin := createUser(t, "Admin", "admin@test.cd", "passwd", user.RoleAdmin)
	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)

	crs := createCourse(t, "Course", "CS101", teacher.ID)
	d1 := createDiscussion(t, "Mine", crs.ID, author.ID)
	d2 := createDiscussion(t, "Also mine", crs.ID, author.ID)

	tests := []httpTest{
		{
			name: "not found", path: "/api/discussions/lol", token: getToken(t, author),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Discussion not found"}),
		},
		{
			name: "not the author", path: "/api/discussions/" + d1.ID, token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Not authorized to delete this discussion"}),
		},
		{
			name: "author deletes", path: "/api/discussions/" + d1.ID, token: getToken(t, author),
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"message": "Discussion deleted successfully"}),
		},
		{
			name: "admin deletes another's discussion", path: "/api/discussions/" + d2.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"message": "Discussion deleted successfully"}),
		},
		{
			name: "gone afterwards", path: "/api/discussions/" + d1.ID, token: getToken(t, author),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Discussion not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
