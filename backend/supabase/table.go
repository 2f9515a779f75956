package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trezcool/elimu/backend"
)

const pgrstObjectMIME = "application/vnd.pgrst.object+json"

func (c *Client) Select(ctx context.Context, q backend.Query) ([]backend.Row, error) {
	rows := make([]backend.Row, 0)
	if err := c.requestJSON(ctx, http.MethodGet, "/rest/v1/"+q.Table, restQuery(q), nil, &rows, nil); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) SelectOne(ctx context.Context, q backend.Query) (backend.Row, error) {
	hdr := make(http.Header)
	hdr.Set("Accept", pgrstObjectMIME)

	row := make(backend.Row)
	if err := c.requestJSON(ctx, http.MethodGet, "/rest/v1/"+q.Table, restQuery(q), nil, &row, hdr); err != nil {
		// PostgREST rejects the single-object representation with 406 when
		// the result is not exactly one row
		if apiErr, ok := err.(*apiError); ok && apiErr.Status == http.StatusNotAcceptable {
			if strings.Contains(apiErr.Details, "0 rows") {
				return nil, backend.ErrNotFound
			}
			return nil, backend.ErrMultipleRows
		}
		return nil, err
	}
	return row, nil
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	hdr := make(http.Header)
	hdr.Set("Prefer", "return=representation")
	hdr.Set("Accept", pgrstObjectMIME)

	created := make(backend.Row)
	if err := c.requestJSON(ctx, http.MethodPost, "/rest/v1/"+table, nil, row, &created, hdr); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) error {
	q := restQuery(backend.Query{Filters: filters})
	return c.requestJSON(ctx, http.MethodPatch, "/rest/v1/"+table, q, patch, nil, nil)
}

// restQuery renders a Query as PostgREST query parameters: ?select=...,
// equality filters as col=eq.val, ordering as order=col.{asc|desc}.
func restQuery(q backend.Query) url.Values {
	vals := make(url.Values)
	if len(q.Columns) > 0 {
		vals.Set("select", strings.Join(q.Columns, ","))
	}
	for _, f := range q.Filters {
		vals.Set(f.Column, fmt.Sprintf("eq.%v", f.Value))
	}
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		vals.Set("order", q.Order.Column+"."+dir)
	}
	return vals
}
