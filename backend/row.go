package backend

import "encoding/json"

// Typed column accessors. Client implementations hand back rows with
// heterogeneous value types (JSON decoding yields float64 and
// []interface{}, database drivers yield int64 and JSON text), so callers go
// through these instead of asserting concrete types.

func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// StringSlice decodes a column holding a list of strings, accepting the
// decoded forms as well as raw JSON text.
func (r Row) StringSlice(col string) []string {
	switch v := r[col].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err == nil {
			return out
		}
	}
	return nil
}
