package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

// objectStore is implemented by backend clients that keep blobs locally and
// rely on this server to serve them behind signed URLs. The supabase client
// serves storage itself, so it does not implement it.
type objectStore interface {
	Object(bucket, path string) (data []byte, contentType string, err error)
}

func registerMediaAPI(app *echo.Echo, conf *core.Config, client backend.Client) {
	store, ok := client.(objectStore)
	if !ok {
		return
	}
	app.GET("/media/:bucket/*", serveMedia(conf.SecretKey, store))
}

// serveMedia verifies the URL signature and expiry minted by SignedURL before
// handing out the object.
func serveMedia(secret string, store objectStore) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		bucket := ctx.Param("bucket")
		path := ctx.Param("*")

		exp, err := strconv.ParseInt(ctx.QueryParam("exp"), 10, 64)
		if err != nil {
			return errHTTPNotFound
		}
		if !backend.VerifyObjectPath(secret, bucket, path, exp, ctx.QueryParam("sig")) {
			return errHTTPNotFound
		}

		data, contentType, err := store.Object(bucket, path)
		if err != nil {
			if errors.Cause(err) == backend.ErrNotFound {
				return errHTTPNotFound
			}
			return err
		}
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		return ctx.Blob(http.StatusOK, contentType, data)
	}
}
