package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
	inmemdb "github.com/AhenkERP/studentgradesys/storage/database/inmem"
)

var (
	usrRepo     user.Repository
	profileRepo student.Repository
)

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	profileRepo = inmemdb.NewProfileRepository(db)

	// start CLI
	return &commandLine{
		db:          db,
		usrRepo:     usrRepo,
		profileRepo: profileRepo,
	}
}

func createUser(t *testing.T, uname, email, pwd string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "awe", "awe@test.tr", "mdr")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
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
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
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

func Test_commandLine_createSuperUser(t *testing.T) {
	cli := setup(t)

	existing := createUser(t, "boss", "boss@test.tr", "mdr")

	setEnv := func(t *testing.T, uname, email, pwd string) {
		t.Setenv("SUPERUSER_USERNAME", uname)
		t.Setenv("SUPERUSER_EMAIL", email)
		t.Setenv("SUPERUSER_PASSWORD", pwd)
	}

	t.Run("missing env", func(t *testing.T) {
		setEnv(t, "", "", "")
		if err := cli.run([]string{"admin", "createsuperuser"}); err != errMissingEnv {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errMissingEnv)
		}
	})
	t.Run("creates superuser", func(t *testing.T) {
		setEnv(t, "root", "root@test.tr", "V3ryS3cr3tP@s5")
		if err := cli.run([]string{"admin", "createsuperuser"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root"})
		if err != nil {
			t.Fatalf("GetUser() failed, %v", err)
		}
		if !(usr.IsStaff && usr.IsSuperuser && usr.IsActive) {
			t.Errorf("superuser flags not set: %+v", usr)
		}
		if err := usr.CheckPassword("V3ryS3cr3tP@s5"); err != nil {
			t.Error("password not set")
		}
		if _, err := profileRepo.GetProfile(context.Background(), student.GetFilter{UserID: usr.ID}); err != nil {
			t.Errorf("superuser profile not created: %v", err)
		}
	})
	t.Run("promotes existing user", func(t *testing.T) {
		setEnv(t, existing.Username, existing.Email, "N3wS3cr3tP@s5")
		if err := cli.run([]string{"admin", "createsuperuser"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: existing.ID})
		if err != nil {
			t.Fatalf("GetUser() failed, %v", err)
		}
		if !usr.IsSuperuser {
			t.Error("existing user not promoted")
		}
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var called bool
	migrateFunc = func(db *sqlx.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate not invoked")
	}
}
