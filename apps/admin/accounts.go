package main

import (
	"context"
	"errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/session"
)

var errInvalidRole = errors.New("invalid role")

func (cli *commandLine) createAccount(email, name, pwd, role string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	role = core.CleanString(role, true /* lower */)
	if !session.ValidRole(role) {
		return errInvalidRole
	}

	sess, err := cli.client.SignUp(ctx, email, pwd, name)
	if err != nil {
		return err
	}
	defer cli.client.SignOut(ctx)

	if role != backend.DefaultRole && sess != nil {
		return cli.client.Update(ctx, backend.ProfileTable,
			backend.Row{"role": role},
			backend.Filter{Column: "id", Value: sess.UserID},
		)
	}
	return nil
}

func (cli *commandLine) setRole(email, role string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if !session.ValidRole(role) {
		return errInvalidRole
	}

	prof, err := cli.profileByEmail(ctx, email)
	if err != nil {
		return err
	}
	return cli.client.Update(ctx, backend.ProfileTable,
		backend.Row{"role": role},
		backend.Filter{Column: "id", Value: prof.String("id")},
	)
}

func (cli *commandLine) assignCourse(email, courseID string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	prof, err := cli.profileByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.courseSvc.Enroll(ctx, course.NewEnrollment{
		UserID:   prof.String("id"),
		CourseID: courseID,
	})
	return err
}

func (cli *commandLine) profileByEmail(ctx context.Context, email string) (backend.Row, error) {
	return cli.client.SelectOne(ctx, backend.NewQuery(backend.ProfileTable, "id", "email").Eq("email", email))
}
