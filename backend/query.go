package backend

type (
	// Filter is an equality condition on a single column.
	Filter struct {
		Column string
		Value  interface{}
	}

	// Ordering sorts on a single column.
	Ordering struct {
		Column    string
		Ascending bool
	}

	// Query selects columns from a table with equality filters and at most
	// one ordering. No joins, no inequality operators.
	Query struct {
		Table   string
		Columns []string // empty selects all
		Filters []Filter
		Order   *Ordering
	}
)

func NewQuery(table string, columns ...string) Query {
	return Query{Table: table, Columns: columns}
}

// Eq adds an equality filter and returns the extended query.
func (q Query) Eq(column string, value interface{}) Query {
	q.Filters = append(q.Filters[:len(q.Filters):len(q.Filters)], Filter{Column: column, Value: value})
	return q
}

// OrderBy sets the single-column ordering and returns the extended query.
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = &Ordering{Column: column, Ascending: ascending}
	return q
}

// Matches reports whether the row satisfies all equality filters.
func (q Query) Matches(row Row) bool {
	for _, f := range q.Filters {
		if row[f.Column] != f.Value {
			return false
		}
	}
	return true
}
