package params

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseLimit reads ?limit=N. Missing, malformed or non-positive values fall
// back to def; values above max are capped.
// URL: /api/feedbacks?limit=2 → 2
func ParseLimit(q url.Values, def, max int) int {
	limitStr := strings.TrimSpace(q.Get("limit"))
	if limitStr == "" {
		return def
	}

	limit, err := strconv.Atoi(limitStr)
	switch {
	case err != nil, limit <= 0:
		return def
	case limit > max:
		return max
	default:
		return limit
	}
}
