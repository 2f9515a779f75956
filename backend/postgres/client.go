package postgres

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

type Client struct {
	db         *sqlx.DB
	secret     string
	tokenDelta time.Duration
	mediaRoot  string
	mediaBase  string
	logger     core.Logger

	mutex   sync.RWMutex
	session *backend.Session
	hub     backend.Hub
}

var _ backend.Client = (*Client)(nil)

func Open(db *sqlx.DB, conf *core.Config, logger core.Logger) *Client {
	mediaBase := conf.Media.BaseURL
	if mediaBase == "" {
		mediaBase = "/media"
	}
	return &Client{
		db:         db,
		secret:     conf.SecretKey,
		tokenDelta: conf.Server.TokenExpirationDelta,
		mediaRoot:  conf.Media.Root,
		mediaBase:  mediaBase,
		logger:     logger,
	}
}

func (c *Client) Configured() bool { return true }

func (c *Client) Select(ctx context.Context, q backend.Query) ([]backend.Row, error) {
	query, args := buildSelect(q)
	rows, err := c.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, backend.NewTransientError("selecting from "+q.Table, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]backend.Row, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err = rows.MapScan(row); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		out = append(out, normalizeRow(row))
	}
	return out, errors.Wrap(rows.Err(), "reading rows")
}

func (c *Client) SelectOne(ctx context.Context, q backend.Query) (backend.Row, error) {
	rows, err := c.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, backend.ErrNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, backend.ErrMultipleRows
	}
}

func (c *Client) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	if _, ok := row["id"]; !ok {
		row = copyWith(row, "id", uuid.New().String())
	}

	cols := sortedColumns(row)
	quoted := make([]string, 0, len(cols))
	params := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for i, col := range cols {
		quoted = append(quoted, pq.QuoteIdentifier(col))
		params = append(params, "$"+strconv.Itoa(i+1))
		args = append(args, encodeArg(row[col]))
	}
	query := "INSERT INTO " + pq.QuoteIdentifier(table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(params, ", ") + ") RETURNING *"

	created := make(map[string]interface{})
	if err := c.db.QueryRowxContext(ctx, query, args...).MapScan(created); err != nil {
		return nil, backend.NewTransientError("inserting into "+table, err)
	}
	return normalizeRow(created), nil
}

func (c *Client) Update(ctx context.Context, table string, patch backend.Row, filters ...backend.Filter) error {
	cols := sortedColumns(patch)
	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+len(filters))
	i := 1
	for _, col := range cols {
		if col == "id" {
			continue
		}
		sets = append(sets, pq.QuoteIdentifier(col)+" = $"+strconv.Itoa(i))
		args = append(args, encodeArg(patch[col]))
		i++
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE " + pq.QuoteIdentifier(table) + " SET " + strings.Join(sets, ", ")
	where := make([]string, 0, len(filters))
	for _, f := range filters {
		where = append(where, pq.QuoteIdentifier(f.Column)+" = $"+strconv.Itoa(i))
		args = append(args, f.Value)
		i++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return backend.NewTransientError("updating "+table, err)
	}
	return nil
}

func buildSelect(q backend.Query) (string, []interface{}) {
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, col := range q.Columns {
			quoted = append(quoted, pq.QuoteIdentifier(col))
		}
		cols = strings.Join(quoted, ", ")
	}

	query := "SELECT " + cols + " FROM " + pq.QuoteIdentifier(q.Table)
	args := make([]interface{}, 0, len(q.Filters))
	where := make([]string, 0, len(q.Filters))
	for i, f := range q.Filters {
		where = append(where, pq.QuoteIdentifier(f.Column)+" = $"+strconv.Itoa(i+1))
		args = append(args, f.Value)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.Order != nil {
		dir := " DESC"
		if q.Order.Ascending {
			dir = " ASC"
		}
		query += " ORDER BY " + pq.QuoteIdentifier(q.Order.Column) + dir
	}
	return query, args
}

func sortedColumns(row backend.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// encodeArg renders slice and map values as JSON text so they can bind to
// jsonb columns; scalars pass through to the driver untouched.
func encodeArg(val interface{}) interface{} {
	switch val.(type) {
	case nil, string, []byte, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return val
	}
	b, err := json.Marshal(val)
	if err != nil {
		return val
	}
	return string(b)
}

func copyWith(row backend.Row, col string, val interface{}) backend.Row {
	cp := make(backend.Row, len(row)+1)
	for k, v := range row {
		cp[k] = v
	}
	cp[col] = val
	return cp
}

// normalizeRow converts driver byte slices to strings so rows compare and
// marshal the same across client implementations.
func normalizeRow(row map[string]interface{}) backend.Row {
	out := make(backend.Row, len(row))
	for col, val := range row {
		if b, ok := val.([]byte); ok {
			out[col] = string(b)
			continue
		}
		out[col] = val
	}
	return out
}
