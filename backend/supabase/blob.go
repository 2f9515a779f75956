package supabase

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
)

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	hdr := make(http.Header)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}

	res, err := c.request(ctx, http.MethodPost, "/storage/v1/object/"+bucket+"/"+path, nil, bytes.NewReader(data), hdr)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newAPIError(res)
	}
	return nil
}

func (c *Client) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	body := map[string]int{"expiresIn": int(ttl / time.Second)}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	err := c.requestJSON(ctx, http.MethodPost, "/storage/v1/object/sign/"+bucket+"/"+path, nil, body, &signed, nil)
	if err != nil {
		if apiErr, ok := err.(*apiError); ok && apiErr.Status == http.StatusNotFound {
			return "", backend.ErrNotFound
		}
		return "", err
	}
	if signed.SignedURL == "" {
		return "", errors.New("storage returned an empty signed URL")
	}
	// the service returns a path relative to its storage API root
	return c.baseURL + "/storage/v1" + ensureLeadingSlash(signed.SignedURL), nil
}

func ensureLeadingSlash(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}
