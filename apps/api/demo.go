package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/backend/inmem"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/session"
)

// seedDemo loads a small data set so the app is usable out of the box in demo
// mode: one account per role, a course with a content item and a quiz.
func seedDemo(ctx context.Context, client *inmem.Client, logger core.Logger) error {
	accounts := []struct {
		email, password, name, role string
	}{
		{"student@example.com", "Passw0rd!", "Demo Student", session.RoleStudent},
		{"trainer@example.com", "Passw0rd!", "Demo Trainer", session.RoleTrainer},
		{"admin@example.com", "Passw0rd!", "Demo Admin", session.RoleAdmin},
	}

	var studentID string
	for _, acc := range accounts {
		sess, err := client.SignUp(ctx, acc.email, acc.password, acc.name)
		if err != nil {
			return errors.Wrapf(err, "seeding account %s", acc.email)
		}
		if acc.role != backend.DefaultRole {
			err = client.Update(ctx, backend.ProfileTable,
				backend.Row{"role": acc.role},
				backend.Filter{Column: "id", Value: sess.UserID},
			)
			if err != nil {
				return errors.Wrapf(err, "setting role for %s", acc.email)
			}
		}
		if acc.role == session.RoleStudent {
			studentID = sess.UserID
		}
	}
	client.SignOut(ctx) // seeding must not leave a live session behind

	crs, err := client.Insert(ctx, course.Table, backend.Row{
		"title":         "Intro to Go",
		"description":   "A first tour of the language.",
		"level":         "Beginner",
		"content_count": 1,
	})
	if err != nil {
		return errors.Wrap(err, "seeding course")
	}
	courseID := crs.String("id")

	notes := []byte("Welcome to the course. Slides are coming soon.")
	path := fmt.Sprintf("%s/welcome.txt", courseID)
	if err = client.Upload(ctx, course.MediaBucket, path, notes, "text/plain"); err != nil {
		return errors.Wrap(err, "seeding course media")
	}
	_, err = client.Insert(ctx, course.ContentTable, backend.Row{
		"course_id":    courseID,
		"title":        "Welcome notes",
		"type":         course.KindPDF,
		"bucket":       course.MediaBucket,
		"storage_path": path,
		"position":     1,
	})
	if err != nil {
		return errors.Wrap(err, "seeding course content")
	}

	_, err = client.Insert(ctx, course.EnrollmentTable, backend.Row{
		"user_id":   studentID,
		"course_id": courseID,
	})
	if err != nil {
		return errors.Wrap(err, "seeding enrollment")
	}

	qz, err := client.Insert(ctx, quiz.Table, backend.Row{
		"course_id": courseID,
		"title":     "Go basics",
	})
	if err != nil {
		return errors.Wrap(err, "seeding quiz")
	}
	_, err = client.Insert(ctx, quiz.QuestionTable, backend.Row{
		"quiz_id":       qz.String("id"),
		"position":      1,
		"text":          "Which keyword declares a new variable?",
		"options":       []string{"let", "var", "def"},
		"correct_index": 1,
	})
	if err != nil {
		return errors.Wrap(err, "seeding quiz question")
	}

	logger.Info("demo data loaded; sign in as student@example.com / Passw0rd!")
	return nil
}
