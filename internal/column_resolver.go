package internal

import (
	"github.com/lychee-technology/chartpreset"
)

// ResolveColumns binds each findColumns variable, in declaration order, to a
// column not claimed by an earlier variable. Unmatched variables are left out
// of the result.
func ResolveColumns(spec chartpreset.FindColumnsSpec, columnTypes *chartpreset.ColumnTypes) *chartpreset.ResolvedColumns {
	resolved := chartpreset.NewResolvedColumns()
	claimed := NewSet[string]()

	for _, variable := range spec {
		column, ok := MatchColumn(variable.Filter, columnTypes, claimed)
		if !ok {
			continue
		}
		resolved.Set(variable.Name, column)
		claimed.Add(column)
	}
	return resolved
}
