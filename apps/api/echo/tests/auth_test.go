package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
)

type authResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func Test_authApi_register(t *testing.T) {
	app := setup(t)

	createUser(t, "Taken", "taken@test.cd", "passwd", user.RoleStudent)

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "invalid email", body: []byte(`{"name":"Jane","email":"lol","password":"passwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "short password", body: []byte(`{"name":"Jane","email":"jane@test.cd","password":"lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must be at least 6 characters in length"}),
		},
		{
			name: "invalid role", body: []byte(`{"name":"Jane","email":"jane@test.cd","password":"passwd","role":"GURU"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "duplicate email", body: []byte(`{"name":"Jane","email":"taken@test.cd","password":"passwd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "User already exists with this email"}),
		},
		{name: "role defaults to STUDENT", body: []byte(`{"name":"Jane","email":"jane@test.cd","password":"passwd"}`),
			wantCode: http.StatusCreated, extra: user.RoleStudent},
		{name: "teacher role accepted", body: []byte(`{"name":"John","email":"john@test.cd","password":"passwd","role":"TEACHER"}`),
			wantCode: http.StatusCreated, extra: user.RoleTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/register", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			var resp authResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token")
			}
			if want := tt.extra.(user.Role); resp.User.Role != want {
				t.Errorf("role = %s; want %s", resp.User.Role, want)
			}
			if resp.User.ID == "" {
				t.Error("expected an ID")
			}
		})
	}
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "User", "awe@test.cd", "passwd", user.RoleStudent)

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "unknown email", body: []byte(`{"email":"lol@test.cd","password":"passwd"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name: "wrong password", body: []byte(`{"email":"awe@test.cd","password":"lol"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{name: "success", body: []byte(`{"email":"awe@test.cd","password":"passwd"}`), wantCode: http.StatusOK},
		{name: "email is case-insensitive", body: []byte(`{"email":"AWE@test.cd","password":"passwd"}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}

			var resp authResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token")
			}
			if resp.User.ID != usr.ID {
				t.Errorf("user ID = %s; want %s", resp.User.ID, usr.ID)
			}
		})
	}
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "User", "awe@test.cd", "passwd", user.RoleStudent)

	// token whose refresh window has lapsed
	staleIat := time.Now().Add(-(conf.Server.JWTRefreshExpirationDelta + time.Hour)).Unix()
	staleToken, err := GenerateToken(conf, GetUserClaims(conf, usr, staleIat))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "refresh window lapsed", token: staleToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "refreshed", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/auth/token-refresh", tt.token)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}

			var resp TokenResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token")
			}
		})
	}
}

func Test_authApi_queryUsers(t *testing.T) {
	app := setup(t)

	student := createUser(t, "Student", "student@test.cd", "passwd", user.RoleStudent)
	teacher := createUser(t, "Teacher", "teacher@test.cd", "passwd", user.RoleTeacher)
	admin := createUser(t, "Admin", "admin@test.cd", "passwd", user.RoleAdmin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "Teachers are not admins", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "Admin lists all users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, student, teacher, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/users", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_profile(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "User", "awe@test.cd", "passwd", user.RoleTeacher)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get own profile", token: getToken(t, usr), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/auth/profile", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
