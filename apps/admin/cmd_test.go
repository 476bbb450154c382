package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)

	// start CLI
	return &commandLine{
		db:      &sqlx.DB{},
		usrRepo: usrRepo,
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateRunFunc = func(db *sql.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate did not run")
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd  string
		role user.Role
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "name but no email", args: []string{"adduser", "-name", "Jane"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Jane", "-email", "jane@test.cd"}, wantErr: errHelp},
		{name: "create student", args: []string{"adduser", "-name", "Jane", "-email", "jane@test.cd"},
			extra: extra{pwd: "lol", role: user.RoleStudent}},
		{name: "create teacher", args: []string{"adduser", "-name", "John", "-email", "john@test.cd", "-teacher"},
			extra: extra{pwd: "lol", role: user.RoleTeacher}},
		{name: "create admin", args: []string{"adduser", "-name", "Root", "-email", "root@test.cd", "-admin"},
			extra: extra{pwd: "lol", role: user.RoleAdmin}},
		{name: "update existing", args: []string{"adduser", "-name", "Jane Doe", "-email", "jane@test.cd", "-admin"},
			extra: extra{pwd: "lmao", role: user.RoleAdmin}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				extra := tt.extra.(extra)
				usr, err := usrRepo.GetUserByEmail(context.Background(), args[5])
				if err != nil {
					t.Fatalf("GetUserByEmail() failed, %v", err)
				}
				if usr.Role != extra.role {
					t.Errorf("addUser() role = %s, want %s", usr.Role, extra.role)
				}
				if err := usr.CheckPassword(extra.pwd); err != nil {
					t.Error("failed to set password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", "mdr", user.RoleStudent)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lol"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByEmail(context.Background(), usr.Email)
				if err != nil {
					t.Fatalf("GetUserByEmail() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
