package shared

import (
	"net/http"
	"net/url"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit plus either offset or a 1-based page. Invalid
// values fall back to the defaults; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: queryInt(q, "limit", defaultLimit, 1)}
	if maxLimit > 0 {
		p.Limit = min(p.Limit, maxLimit)
	}
	if page := queryInt(q, "page", 0, 1); page > 0 {
		p.Offset = (page - 1) * p.Limit
		return p
	}
	p.Offset = queryInt(q, "offset", 0, 0)
	return p
}

func queryInt(q url.Values, key string, fallback, lowest int) int {
	raw := q.Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lowest {
		return fallback
	}
	return v
}
