package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/core/student"
	"github.com/AhenkERP/studentgradesys/core/user"
)

var errMissingEnv = errors.New("SUPERUSER_USERNAME, SUPERUSER_EMAIL and SUPERUSER_PASSWORD env variables are required")

// createSuperUser updates or creates the superuser described by the
// SUPERUSER_* env variables. A freshly created superuser gets its empty
// Profile in the same transaction; a user has exactly one Profile at all
// times.
func (cli *commandLine) createSuperUser() error {
	uname := core.CleanString(os.Getenv("SUPERUSER_USERNAME"), true /* lower */)
	email := core.CleanString(os.Getenv("SUPERUSER_EMAIL"), true /* lower */)
	pwd := os.Getenv("SUPERUSER_PASSWORD")
	if uname == "" || email == "" || pwd == "" {
		return errMissingEnv
	}

	ctx := context.Background()
	var isNew bool
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		isNew = true
		usr = user.User{
			Username: uname,
			Email:    email,
		}
	}
	usr.IsStaff = true
	usr.IsSuperuser = true
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	tx, err := cli.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if usr, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if isNew {
		now := time.Now().UTC()
		prof := student.Profile{UserID: usr.ID, CreatedAt: now, UpdatedAt: now}
		if _, err = cli.profileRepo.CreateProfile(ctx, prof, tx); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
