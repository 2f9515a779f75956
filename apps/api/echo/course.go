package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/session"
)

type courseAPI struct {
	service *course.Service
	quizSvc *quiz.Service
}

func registerCourseAPI(g *echo.Group, sess echo.MiddlewareFunc, svc *course.Service, quizSvc *quiz.Service) {
	api := courseAPI{service: svc, quizSvc: quizSvc}

	cg := g.Group("/courses", sess)
	cg.GET("", api.courseQuery, requireRoles())
	cg.POST("", api.courseCreate, requireRoles(session.RoleTrainer, session.RoleAdmin))

	dg := cg.Group("/:id", requireRoles())
	dg.GET("", api.courseRetrieve)
	dg.GET("/contents", api.courseContents)

	g.GET("/contents/:id/url", api.contentURL, sess, requireRoles())

	eg := g.Group("/enrollments", sess)
	eg.POST("", api.enroll, requireRoles(session.RoleTrainer, session.RoleAdmin))

	mg := g.Group("/my", sess, requireRoles(session.RoleStudent))
	mg.GET("/courses", api.myCourses)
	mg.GET("/progress", api.myProgress)
}

// Handlers

func (api *courseAPI) courseQuery(ctx echo.Context) error {
	courses, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

// courseCreate accepts a multipart form: course fields plus parallel
// content_title / content_kind / content_file parts, zipped by index.
func (api *courseAPI) courseCreate(ctx echo.Context) error {
	nc := course.NewCourse{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		Level:       ctx.FormValue("level"),
	}

	contents, err := bindNewContents(ctx)
	if err != nil {
		return err
	}

	crs, err := api.service.Create(ctx.Request().Context(), nc, contents)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func bindNewContents(ctx echo.Context) ([]course.NewContent, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, err
	}

	titles := form.Value["content_title"]
	kinds := form.Value["content_kind"]
	files := form.File["content_file"]

	contents := make([]course.NewContent, 0, len(files))
	for i, fh := range files {
		nct := course.NewContent{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
		}
		if i < len(titles) {
			nct.Title = titles[i]
		}
		if i < len(kinds) {
			nct.Kind = kinds[i]
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening upload %q", fh.Filename)
		}
		nct.Data, err = ioutil.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading upload %q", fh.Filename)
		}
		contents = append(contents, nct)
	}
	return contents, nil
}

func (api *courseAPI) courseRetrieve(ctx echo.Context) error {
	crs, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseAPI) courseContents(ctx echo.Context) error {
	contents, err := api.service.Contents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contents)
}

// contentURL issues a short-lived signed read URL for one content item.
func (api *courseAPI) contentURL(ctx echo.Context) error {
	url, err := api.service.ContentURL(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ContentURLResponse{URL: url})
}

func (api *courseAPI) enroll(ctx echo.Context) error {
	data := new(course.NewEnrollment)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	enr, err := api.service.Enroll(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseAPI) myCourses(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	courses, err := api.service.EnrolledCourses(ctx.Request().Context(), s.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseAPI) myProgress(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	points, err := api.quizSvc.Progress(ctx.Request().Context(), s.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, points)
}

type ContentURLResponse struct {
	URL string `json:"url"`
}
