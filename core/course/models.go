package course

import (
	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

// Tables and the storage bucket backing course media.
const (
	Table           = "courses"
	ContentTable    = "course_content"
	EnrollmentTable = "enrollments"

	MediaBucket = "course-media"

	DefaultLevel = "General"
)

// Content kinds
const (
	KindVideo = "video"
	KindPDF   = "pdf"
)

var ContentKinds = []string{KindVideo, KindPDF}

type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Level        string `json:"level"`
	ContentCount int    `json:"content_count"`
}

func courseFromRow(row backend.Row) Course {
	return Course{
		ID:           row.String("id"),
		Title:        row.String("title"),
		Description:  row.String("description"),
		Level:        row.String("level"),
		ContentCount: row.Int("content_count"),
	}
}

type Content struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Kind        string `json:"type"`
	Bucket      string `json:"-"`
	StoragePath string `json:"-"`
	Position    int    `json:"position"`
}

func contentFromRow(row backend.Row) Content {
	return Content{
		ID:          row.String("id"),
		CourseID:    row.String("course_id"),
		Title:       row.String("title"),
		Kind:        row.String("type"),
		Bucket:      row.String("bucket"),
		StoragePath: row.String("storage_path"),
		Position:    row.Int("position"),
	}
}

type Enrollment struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

func enrollmentFromRow(row backend.Row) Enrollment {
	return Enrollment{
		ID:       row.String("id"),
		UserID:   row.String("user_id"),
		CourseID: row.String("course_id"),
	}
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

func (nc *NewCourse) Validate(svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Level = core.CleanString(nc.Level)
	if nc.Level == "" {
		nc.Level = DefaultLevel
	}
	return svc.validate.Struct(nc)
}

// NewContent is an uploaded course item; Filename carries the original name
// whose extension is kept on the stored object.
type NewContent struct {
	Title       string `json:"title" validate:"required"`
	Kind        string `json:"type" validate:"required,contentkind"`
	Filename    string `json:"-"`
	ContentType string `json:"-"`
	Data        []byte `json:"-"`
}

func (nct *NewContent) Validate(svc *Service) error {
	nct.Title = core.CleanString(nct.Title)
	nct.Kind = core.CleanString(nct.Kind, true /* lower */)
	if err := svc.validate.Struct(nct); err != nil {
		return err
	}
	if len(nct.Data) == 0 {
		return core.NewValidationError(errEmptyFile, core.FieldError{Field: "file", Error: errEmptyFile.Error()})
	}
	return nil
}

// NewEnrollment assigns a course to a student.
type NewEnrollment struct {
	UserID   string `json:"user_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

func (ne *NewEnrollment) Validate(svc *Service) error {
	ne.UserID = core.CleanString(ne.UserID)
	ne.CourseID = core.CleanString(ne.CourseID)
	return svc.validate.Struct(ne)
}
