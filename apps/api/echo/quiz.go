package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/session"
)

type quizAPI struct {
	service *quiz.Service
}

func registerQuizAPI(g *echo.Group, sess echo.MiddlewareFunc, svc *quiz.Service) {
	api := quizAPI{service: svc}

	qg := g.Group("/quizzes", sess)
	qg.POST("", api.quizCreate, requireRoles(session.RoleTrainer, session.RoleAdmin))

	cg := g.Group("/courses/:id/quiz", sess, requireRoles())
	cg.GET("", api.quizRetrieve)
	cg.POST("/submissions", api.quizSubmit, requireRoles(session.RoleStudent))
}

// Handlers

func (api *quizAPI) quizCreate(ctx echo.Context) error {
	data := new(quiz.NewQuiz)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	qz, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qz)
}

// quizRetrieve returns the course's quiz with its questions; correct answers
// stay server-side.
func (api *quizAPI) quizRetrieve(ctx echo.Context) error {
	qz, err := api.service.GetByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizAPI) quizSubmit(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	data := new(SubmitQuizRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	qz, err := api.service.GetByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	sub, err := api.service.Submit(ctx.Request().Context(), s.UserID, qz, data.Answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

type SubmitQuizRequest struct {
	Answers quiz.Answers `json:"answers"`
}
