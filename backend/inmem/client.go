// Package inmem implements backend.Client on plain in-memory tables: ordered
// maps keyed by row id, equality filters and single-field sort applied
// directly. It backs demo mode and most of the test suite.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core"
)

type (
	Client struct {
		mutex    sync.RWMutex
		tables   map[string]*table
		accounts map[string]*account           // keyed by email
		blobs    map[string]map[string]*object // bucket -> path -> object
		session  *backend.Session
		hub      backend.Hub

		secret      string
		tokenDelta  time.Duration
		mediaBase   string
		autoConfirm bool
		logger      core.Logger

		// InsertHook intercepts row inserts when set; mockable so tests can
		// simulate access-policy rejections.
		InsertHook func(table string, row backend.Row) error
	}

	table struct {
		rows  map[string]backend.Row
		order []string // row ids in insertion order
	}

	account struct {
		id           string
		email        string
		name         string
		passwordHash []byte
		confirmed    bool
	}

	object struct {
		data        []byte
		contentType string
	}
)

var _ backend.Client = (*Client)(nil)

func Open(conf *core.Config, logger core.Logger) *Client {
	mediaBase := conf.Media.BaseURL
	if mediaBase == "" {
		mediaBase = "/media"
	}
	return &Client{
		tables:      make(map[string]*table),
		accounts:    make(map[string]*account),
		blobs:       make(map[string]map[string]*object),
		secret:      conf.SecretKey,
		tokenDelta:  conf.Server.TokenExpirationDelta,
		mediaBase:   mediaBase,
		autoConfirm: true,
		logger:      logger,
	}
}

// RequireConfirmation makes sign-ups pend until ConfirmAccount is called,
// mimicking the hosted service's email-confirmation flow.
func (c *Client) RequireConfirmation() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.autoConfirm = false
}

// ConfirmAccount marks a pending account as confirmed.
func (c *Client) ConfirmAccount(email string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if acc, ok := c.accounts[core.CleanString(email, true)]; ok {
		acc.confirmed = true
	}
}

func (c *Client) Configured() bool { return true }

// Tabular store

func (c *Client) Select(ctx context.Context, q backend.Query) ([]backend.Row, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.selectRows(q), nil
}

func (c *Client) SelectOne(ctx context.Context, q backend.Query) (backend.Row, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	rows := c.selectRows(q)
	switch len(rows) {
	case 0:
		return nil, backend.ErrNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, backend.ErrMultipleRows
	}
}

func (c *Client) Insert(ctx context.Context, tbl string, row backend.Row) (backend.Row, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.insert(tbl, row)
}

func (c *Client) Update(ctx context.Context, tbl string, patch backend.Row, filters ...backend.Filter) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	t, ok := c.tables[tbl]
	if !ok {
		return nil
	}
	q := backend.Query{Filters: filters}
	for _, id := range t.order {
		row := t.rows[id]
		if !q.Matches(row) {
			continue
		}
		for col, val := range patch {
			if col == "id" {
				continue
			}
			row[col] = val
		}
	}
	return nil
}

// selectRows returns matching row copies in insertion order, sorted when the
// query carries an ordering. The sort runs before the projection so ordering
// on an unprojected column still works. Callers must hold the lock.
func (c *Client) selectRows(q backend.Query) []backend.Row {
	rows := make([]backend.Row, 0)
	t, ok := c.tables[q.Table]
	if !ok {
		return rows
	}
	for _, id := range t.order {
		if row := t.rows[id]; q.Matches(row) {
			rows = append(rows, row)
		}
	}
	if ord := q.Order; ord != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			less := lessValues(rows[i][ord.Column], rows[j][ord.Column])
			if ord.Ascending {
				return less
			}
			return lessValues(rows[j][ord.Column], rows[i][ord.Column])
		})
	}
	for i, row := range rows {
		rows[i] = copyRow(row, q.Columns)
	}
	return rows
}

// insert assumes the lock is held.
func (c *Client) insert(tbl string, row backend.Row) (backend.Row, error) {
	if c.InsertHook != nil {
		if err := c.InsertHook(tbl, row); err != nil {
			return nil, err
		}
	}

	stored := copyRow(row, nil)
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.New().String()
	}
	if _, ok := stored["created_at"]; !ok {
		stored["created_at"] = time.Now().UTC()
	}

	t, ok := c.tables[tbl]
	if !ok {
		t = &table{rows: make(map[string]backend.Row)}
		c.tables[tbl] = t
	}
	id := stored["id"].(string)
	t.rows[id] = stored
	t.order = append(t.order, id)
	return copyRow(stored, nil), nil
}

func copyRow(row backend.Row, columns []string) backend.Row {
	cp := make(backend.Row, len(row))
	if columns == nil {
		for col, val := range row {
			cp[col] = val
		}
		return cp
	}
	for _, col := range columns {
		if val, ok := row[col]; ok {
			cp[col] = val
		}
	}
	return cp
}

func lessValues(a, b interface{}) bool {
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	}
	return false
}
