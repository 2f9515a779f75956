package course

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

// SignedURLTTL is how long a content read link stays valid.
const SignedURLTTL = 5 * time.Minute

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrContentNotFound = errors.New("content not found")
	errAlreadyEnrolled = errors.New("user is already enrolled in this course")
	errEmptyFile       = errors.New("an uploaded file is required")
)

type Service struct {
	client   backend.Client
	mailSvc  core.EmailService
	validate *validator.Validate
	logger   core.Logger
}

func NewService(client backend.Client, mailSvc core.EmailService, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{
		client:   client,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
	}
}

// QueryAll returns all courses, newest first.
func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	rows, err := svc.client.Select(ctx, backend.NewQuery(Table).OrderBy("created_at", false))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying courses")
	}
	courses := make([]Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, courseFromRow(row))
	}
	return courses, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	row, err := svc.client.SelectOne(ctx, backend.NewQuery(Table).Eq("id", id))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Course{}, ErrNotFound
		}
		return Course{}, pkgerrors.Wrap(err, "getting course")
	}
	return courseFromRow(row), nil
}

// Create stores the course and its uploaded contents. Contents are stored in
// the order given; any upload failure aborts the whole operation.
func (svc *Service) Create(ctx context.Context, nc NewCourse, contents []NewContent) (Course, error) {
	if err := nc.Validate(svc); err != nil {
		return Course{}, err
	}
	for i := range contents {
		if err := contents[i].Validate(svc); err != nil {
			return Course{}, err
		}
	}

	row, err := svc.client.Insert(ctx, Table, backend.Row{
		"title":         nc.Title,
		"description":   nc.Description,
		"level":         nc.Level,
		"content_count": 0,
	})
	if err != nil {
		return Course{}, pkgerrors.Wrap(err, "creating course")
	}
	crs := courseFromRow(row)

	for i, nct := range contents {
		path := fmt.Sprintf("%s/%s%s", crs.ID, uuid.New(), filepath.Ext(nct.Filename))
		if err = svc.client.Upload(ctx, MediaBucket, path, nct.Data, nct.ContentType); err != nil {
			return Course{}, pkgerrors.Wrapf(err, "uploading content %q", nct.Title)
		}
		_, err = svc.client.Insert(ctx, ContentTable, backend.Row{
			"course_id":    crs.ID,
			"title":        nct.Title,
			"type":         nct.Kind,
			"bucket":       MediaBucket,
			"storage_path": path,
			"position":     i + 1,
		})
		if err != nil {
			return Course{}, pkgerrors.Wrapf(err, "saving content %q", nct.Title)
		}
	}

	if len(contents) > 0 {
		crs.ContentCount = len(contents)
		err = svc.client.Update(ctx, Table,
			backend.Row{"content_count": crs.ContentCount},
			backend.Filter{Column: "id", Value: crs.ID},
		)
		if err != nil {
			return Course{}, pkgerrors.Wrap(err, "updating content count")
		}
	}
	return crs, nil
}

// Contents returns the course items in display order.
func (svc *Service) Contents(ctx context.Context, courseID string) ([]Content, error) {
	rows, err := svc.client.Select(ctx,
		backend.NewQuery(ContentTable).Eq("course_id", courseID).OrderBy("position", true))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying course contents")
	}
	contents := make([]Content, 0, len(rows))
	for _, row := range rows {
		contents = append(contents, contentFromRow(row))
	}
	return contents, nil
}

// ContentURL issues a short-lived read URL for a single content item.
func (svc *Service) ContentURL(ctx context.Context, contentID string) (string, error) {
	row, err := svc.client.SelectOne(ctx, backend.NewQuery(ContentTable).Eq("id", contentID))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return "", ErrContentNotFound
		}
		return "", pkgerrors.Wrap(err, "getting content")
	}
	ct := contentFromRow(row)
	url, err := svc.client.SignedURL(ctx, ct.Bucket, ct.StoragePath, SignedURLTTL)
	if err != nil {
		return "", pkgerrors.Wrap(err, "signing content URL")
	}
	return url, nil
}

// Enroll assigns a course to a student and notifies them by email on a best
// effort basis.
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	if err := ne.Validate(svc); err != nil {
		return Enrollment{}, err
	}

	existing, err := svc.client.Select(ctx,
		backend.NewQuery(EnrollmentTable, "id").Eq("user_id", ne.UserID).Eq("course_id", ne.CourseID))
	if err != nil {
		return Enrollment{}, pkgerrors.Wrap(err, "checking enrollment")
	}
	if len(existing) > 0 {
		return Enrollment{}, core.NewValidationError(errAlreadyEnrolled,
			core.FieldError{Field: "course_id", Error: errAlreadyEnrolled.Error()})
	}

	row, err := svc.client.Insert(ctx, EnrollmentTable, backend.Row{
		"user_id":   ne.UserID,
		"course_id": ne.CourseID,
	})
	if err != nil {
		return Enrollment{}, pkgerrors.Wrap(err, "creating enrollment")
	}
	enr := enrollmentFromRow(row)

	svc.notifyEnrollment(ctx, enr)
	return enr, nil
}

func (svc *Service) notifyEnrollment(ctx context.Context, enr Enrollment) {
	profile, err := svc.client.SelectOne(ctx,
		backend.NewQuery(backend.ProfileTable, "email", "full_name").Eq("id", enr.UserID))
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("skipping enrollment notification: %v", err), err)
		return
	}
	crs, err := svc.GetByID(ctx, enr.CourseID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("skipping enrollment notification: %v", err), err)
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: profile.String("full_name"), Address: profile.String("email")}},
		Subject: "New course assigned",
		TextContent: fmt.Sprintf(
			"Hi %s,\r\n\r\nYou have been enrolled in the course %q. Sign in to start learning.\r\n",
			profile.String("full_name"), crs.Title,
		),
	})
}

// EnrolledCourses returns the courses the user is enrolled in, oldest
// enrollment first.
func (svc *Service) EnrolledCourses(ctx context.Context, userID string) ([]Course, error) {
	rows, err := svc.client.Select(ctx,
		backend.NewQuery(EnrollmentTable, "course_id").Eq("user_id", userID).OrderBy("created_at", true))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying enrollments")
	}
	courses := make([]Course, 0, len(rows))
	for _, row := range rows {
		crs, err := svc.GetByID(ctx, row.String("course_id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // course was removed; skip the stale enrollment
			}
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}
