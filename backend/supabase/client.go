// Package supabase implements backend.Client against a hosted Supabase
// project: GoTrue for auth, PostgREST for tabular data, the storage API for
// blobs. Configuration is validated structurally once at start-up; when it is
// missing, every operation degrades like the disabled client and no network
// call is ever attempted.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

type Client struct {
	baseURL    string
	apiKey     string
	configured bool
	httpClient *http.Client
	logger     core.Logger

	mutex   sync.RWMutex
	session *backend.Session
	hub     backend.Hub
}

var _ backend.Client = (*Client)(nil)

func Open(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(conf.Backend.URL, "/"),
		apiKey:     conf.Backend.Key,
		configured: conf.BackendConfigured(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *Client) Configured() bool { return c.configured }

// request performs one HTTP round-trip against the hosted service. It returns
// ErrNotConfigured without touching the network when the configuration is
// structurally invalid, and wraps transport failures as TransientError.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body io.Reader, hdr http.Header) (*http.Response, error) {
	if !c.configured {
		return nil, backend.ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s %s request", method, path)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	for k, vals := range hdr {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, backend.NewTransientError(method+" "+path, err)
	}
	return res, nil
}

// requestJSON marshals body (when non-nil), performs the request and decodes a
// 2xx response into out (when non-nil). Non-2xx responses are returned to the
// caller as an apiError.
func (c *Client) requestJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}, hdr http.Header) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		buf = bytes.NewReader(data)
	}
	if hdr == nil {
		hdr = make(http.Header)
	}
	if body != nil {
		hdr.Set("Content-Type", "application/json")
	}

	res, err := c.request(ctx, method, path, query, buf, hdr)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newAPIError(res)
	}
	if out != nil {
		if err = json.NewDecoder(res.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) bearer() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.session != nil && time.Now().Before(c.session.ExpiresAt) {
		return c.session.AccessToken
	}
	return c.apiKey
}

// apiError carries a non-2xx service response.
type apiError struct {
	Status  int
	Code    string `json:"error"`
	Desc    string `json:"error_description"`
	Message string `json:"message"`
	Details string `json:"details"`
	Msg     string `json:"msg"`
}

func newAPIError(res *http.Response) *apiError {
	apiErr := &apiError{Status: res.StatusCode}
	if data, err := ioutil.ReadAll(res.Body); err == nil {
		_ = json.Unmarshal(data, apiErr)
	}
	return apiErr
}

func (e *apiError) Error() string {
	for _, m := range []string{e.Desc, e.Message, e.Msg, e.Code, e.Details} {
		if m != "" {
			return m
		}
	}
	return http.StatusText(e.Status)
}
