// Package catalog holds the reference vocabularies (administrative areas,
// occupations) that raw text is resolved against.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vacancy-codes/internal/normalize"
)

// ErrDuplicateCode is returned when a catalog load repeats a code
var ErrDuplicateCode = errors.New("duplicate catalog code")

// Row is a catalog record as delivered by a loader
type Row struct {
	Code string
	Name string
}

// Entry is a catalog row with its name in comparison form
type Entry struct {
	Code       string
	Name       string
	Normalized string
}

// Catalog is an ordered, read-only set of entries for one entity kind. Order
// is significant: on equal scores the earlier entry wins.
type Catalog struct {
	kind    normalize.Kind
	entries []Entry
	skipped int
}

// New normalizes every row once and keeps rows whose normalized name is
// non-empty, preserving input order.
func New(kind normalize.Kind, rows []Row, n *normalize.Normalizer) (*Catalog, error) {
	c := &Catalog{kind: kind, entries: make([]Entry, 0, len(rows))}
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		code := strings.TrimSpace(row.Code)
		if seen[code] {
			return nil, fmt.Errorf("%w %q at row %d", ErrDuplicateCode, code, i)
		}
		seen[code] = true

		normalized := n.NormalizeName(row.Name)
		if normalized == "" {
			c.skipped++
			continue
		}
		c.entries = append(c.entries, Entry{Code: code, Name: row.Name, Normalized: normalized})
	}
	return c, nil
}

// Kind returns the entity kind of the catalog
func (c *Catalog) Kind() normalize.Kind {
	return c.kind
}

// Len returns the number of usable entries
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Skipped returns how many rows were dropped for normalizing to nothing
func (c *Catalog) Skipped() int {
	return c.skipped
}

// Entry returns the entry at position i
func (c *Catalog) Entry(i int) Entry {
	return c.entries[i]
}

// Entries returns a copy of the entries in catalog order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// SortByCodeDesc orders rows by descending code so that more specific
// administrative codes come first. Numeric codes compare numerically.
func SortByCodeDesc(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, errA := strconv.ParseInt(rows[i].Code, 10, 64)
		b, errB := strconv.ParseInt(rows[j].Code, 10, 64)
		if errA == nil && errB == nil {
			return a > b
		}
		return rows[i].Code > rows[j].Code
	})
}
