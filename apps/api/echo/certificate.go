package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core"
)

// Certificate generation is not implemented yet; the endpoint acknowledges
// the request so clients can already wire their flows against it.

func registerCertificateAPI(g *echo.Group, sess echo.MiddlewareFunc) {
	cg := g.Group("/certificates", sess)
	cg.POST("", certificateRequest, requireRoles())
}

func certificateRequest(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	data := new(CertificateRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.CourseID = core.CleanString(data.CourseID)
	if data.CourseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}

	return ctx.JSON(http.StatusAccepted, CertificateResponse{
		UserID:   s.UserID,
		CourseID: data.CourseID,
		Status:   "pending",
		Detail:   "certificate generation is not available yet",
	})
}

type (
	CertificateRequest struct {
		CourseID string `json:"course_id"`
	}

	CertificateResponse struct {
		UserID   string `json:"user_id"`
		CourseID string `json:"course_id"`
		Status   string `json:"status"`
		Detail   string `json:"detail"`
	}
)
