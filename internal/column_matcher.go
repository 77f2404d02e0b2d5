package internal

import (
	"slices"

	"github.com/lychee-technology/chartpreset"
)

// MatchColumn picks the column a filter binds to.
//
// Candidates are the columns satisfying every constraint present on the
// filter. When there are none and the filter's type list contains the
// wildcard tag, every column becomes a candidate and maxUnique is ignored.
// The first candidate, in columnTypes order, that is not already claimed
// wins. A nil filter never matches.
func MatchColumn(filter *chartpreset.ColumnFilter, columnTypes *chartpreset.ColumnTypes, claimed *Set[string]) (string, bool) {
	if filter == nil {
		return "", false
	}

	candidates := make([]string, 0, columnTypes.Len())
	columnTypes.Each(func(name string, info chartpreset.ColumnInfo) bool {
		if satisfies(filter, info) {
			candidates = append(candidates, name)
		}
		return true
	})

	if len(candidates) == 0 && filter.AcceptsAnyType() {
		candidates = columnTypes.Names()
	}

	for _, name := range candidates {
		if !claimed.Contains(name) {
			return name, true
		}
	}
	return "", false
}

func satisfies(filter *chartpreset.ColumnFilter, info chartpreset.ColumnInfo) bool {
	if filter.HasTypeConstraint() && !slices.Contains(filter.Types, info.Type) {
		return false
	}
	if ceiling, ok := filter.UniqueCeiling(); ok && info.UniqueOrZero() > ceiling {
		return false
	}
	return true
}
