package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/discussion"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var (
	conf *core.Config

	usrRepo        user.Repository
	courseRepo     course.Repository
	assignmentRepo assignment.Repository
	discussionRepo discussion.Repository

	errMissingToken     = httpErr{Error: "missing or malformed jwt"}
	errPermissionDenied = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) Server {
	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	assignmentRepo = inmemdb.NewAssignmentRepository(db)
	discussionRepo = inmemdb.NewDiscussionRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	courseSvc := course.NewService(courseRepo)
	assignmentSvc := assignment.NewService(assignmentRepo, courseRepo, mailSvc, conf)
	discussionSvc := discussion.NewService(discussionRepo, courseRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:          conf,
			Logger:        testLogger{t},
			UserSvc:       usrSvc,
			CourseSvc:     courseSvc,
			AssignmentSvc: assignmentSvc,
			DiscussionSvc: discussionSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// testLogger routes app logs to the test output.
type testLogger struct {
	t *testing.T
}

var _ core.Logger = (*testLogger)(nil)

func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Logf("DEBUG: %s %v", msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Logf("INFO: %s %v", msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s %v", msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s %v", msg, args) }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func assertElementsMatch(t *testing.T, got, want interface{}) {
	t.Helper()
	assert.ElementsMatch(t, want, got)
}

// factory shortcuts over the shared repos

func createUser(t *testing.T, name, email, pwd string, role user.Role) user.User {
	return testutil.CreateUser(t, usrRepo, name, email, pwd, role)
}

func createCourse(t *testing.T, title, code, teacherID string) course.Course {
	return testutil.CreateCourse(t, courseRepo, title, code, teacherID)
}

func enroll(t *testing.T, userID, courseID string) course.Enrollment {
	return testutil.Enroll(t, courseRepo, userID, courseID)
}

func createAssignment(t *testing.T, title, courseID string, dueDate time.Time, maxGrade int) assignment.Assignment {
	return testutil.CreateAssignment(t, assignmentRepo, title, courseID, dueDate, maxGrade)
}

func createSubmission(t *testing.T, assignmentID, studentID, content string) assignment.Submission {
	return testutil.CreateSubmission(t, assignmentRepo, assignmentID, studentID, content)
}

func createDiscussion(t *testing.T, title, courseID, authorID string, createdAt ...time.Time) discussion.Discussion {
	return testutil.CreateDiscussion(t, discussionRepo, title, courseID, authorID, createdAt...)
}

func createComment(t *testing.T, discussionID, authorID, content string) discussion.Comment {
	return testutil.CreateComment(t, discussionRepo, discussionID, authorID, content)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
