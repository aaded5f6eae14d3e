package db

import (
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders into the driver's bind syntax. Queries in
// this repo never carry a literal ? inside string constants.
func Rebind(driver, query string) string {
	if driver != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
