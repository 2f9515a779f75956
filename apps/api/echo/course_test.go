package echoapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core/course"
)

func Test_CourseAPI_access(t *testing.T) {
	app, client := setup(t)
	studentToken, _ := signUpUser(t, client, "student@test.cd", "student")
	trainerToken, _ := signUpUser(t, client, "trainer@test.cd", "trainer")

	t.Run("anonymous is rejected", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errNotAuthenticated),
		}, rec)
	})

	t.Run("any role can list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
	})

	t.Run("student cannot create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", studentToken, []byte("{}"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("trainer cannot view student pages", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/my/courses", trainerToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})
}

func Test_CourseAPI_create(t *testing.T) {
	app, client := setup(t)
	trainerToken, _ := signUpUser(t, client, "trainer@test.cd", "trainer")

	body, contentType := newCourseForm(t, map[string]string{
		"title": "Intro to Go",
		"level": "Beginner",
	}, []contentPart{
		{title: "Welcome", kind: "video", filename: "welcome.mp4", mime: "video/mp4", data: "vid"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/courses", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+trainerToken)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	require.NoError(t, unmarshalBody(rec, &crs))
	assert.NotEmpty(t, crs.ID)
	assert.Equal(t, "Intro to Go", crs.Title)
	assert.Equal(t, 1, crs.ContentCount)

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, trainerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshalObj(t, crs)}, rec)
	})

	t.Run("unknown course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/nope", trainerToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFoundBody),
		}, rec)
	})

	t.Run("contents and signed URL", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/contents", trainerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var contents []course.Content
		require.NoError(t, unmarshalBody(rec, &contents))
		require.Len(t, contents, 1)
		assert.Equal(t, "Welcome", contents[0].Title)

		req, rec = newAuthRequest(http.MethodGet, "/v1/contents/"+contents[0].ID+"/url", trainerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp ContentURLResponse
		require.NoError(t, unmarshalBody(rec, &resp))

		// the signed URL serves the uploaded object, no auth needed
		req, rec = newRequest(http.MethodGet, resp.URL)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "vid", rec.Body.String())
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))

		// a tampered signature is refused
		req, rec = newRequest(http.MethodGet, resp.URL+"x")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid form", func(t *testing.T) {
		body, contentType := newCourseForm(t, map[string]string{"title": ""}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/courses", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+trainerToken)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"title": "this field is required"}),
		}, rec)
	})
}

func Test_CourseAPI_enrollments(t *testing.T) {
	app, client := setup(t)
	studentToken, studentID := signUpUser(t, client, "student@test.cd", "student")
	trainerToken, _ := signUpUser(t, client, "trainer@test.cd", "trainer")

	row, err := client.Insert(context.Background(), course.Table, backend.Row{"title": "Go", "content_count": 0})
	require.NoError(t, err)
	courseID := row.String("id")

	body := marshalObj(t, course.NewEnrollment{UserID: studentID, CourseID: courseID})

	t.Run("student cannot enroll others", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", studentToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("trainer enrolls a student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", trainerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var enr course.Enrollment
		require.NoError(t, unmarshalBody(rec, &enr))
		assert.Equal(t, studentID, enr.UserID)
	})

	t.Run("duplicate enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", trainerToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"course_id": "user is already enrolled in this course"}),
		}, rec)
	})

	t.Run("student sees their courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/my/courses", studentToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var courses []course.Course
		require.NoError(t, unmarshalBody(rec, &courses))
		require.Len(t, courses, 1)
		assert.Equal(t, "Go", courses[0].Title)
	})
}

// form helpers

type contentPart struct {
	title, kind, filename, mime, data string
}

func newCourseForm(t *testing.T, fields map[string]string, contents []contentPart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, val := range fields {
		if err := w.WriteField(name, val); err != nil {
			t.Fatalf("newCourseForm() failed: %v", err)
		}
	}
	for _, ct := range contents {
		_ = w.WriteField("content_title", ct.title)
		_ = w.WriteField("content_kind", ct.kind)

		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="content_file"; filename="`+ct.filename+`"`)
		hdr.Set("Content-Type", ct.mime)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("newCourseForm() failed: %v", err)
		}
		if _, err = part.Write([]byte(ct.data)); err != nil {
			t.Fatalf("newCourseForm() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newCourseForm() failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}
