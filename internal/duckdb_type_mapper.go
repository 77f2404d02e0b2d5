package internal

import (
	"strings"

	"github.com/lychee-technology/chartpreset"
)

// MapDuckDBType maps a DuckDB column type, as reported by DESCRIBE or
// SUMMARIZE, to a semantic type.
func MapDuckDBType(sqlType string) chartpreset.SemanticType {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	// Nested types (lists, structs, maps) are not plotted as scalars.
	if strings.HasSuffix(t, "]") || strings.HasPrefix(t, "STRUCT") || strings.HasPrefix(t, "MAP") || strings.HasPrefix(t, "UNION") {
		return chartpreset.SemanticTypeNominal
	}
	if i := strings.IndexByte(t, '('); i >= 0 {
		if strings.HasPrefix(t, "ENUM") {
			return chartpreset.SemanticTypeOrdinal
		}
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"DECIMAL", "NUMERIC", "FLOAT", "REAL", "DOUBLE":
		return chartpreset.SemanticTypeQuantitative
	case "DATE", "TIME", "TIMESTAMP", "TIMESTAMP_S", "TIMESTAMP_MS", "TIMESTAMP_NS",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ", "TIME WITH TIME ZONE", "TIMETZ", "INTERVAL":
		return chartpreset.SemanticTypeTemporal
	case "ENUM":
		return chartpreset.SemanticTypeOrdinal
	default:
		return chartpreset.SemanticTypeNominal
	}
}

// MapPostgresType maps an information_schema.columns data_type to a
// semantic type. isEnum marks USER-DEFINED columns backed by an enum type.
func MapPostgresType(dataType string, isEnum bool) chartpreset.SemanticType {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case t == "user-defined" && isEnum:
		return chartpreset.SemanticTypeOrdinal
	case t == "smallint", t == "integer", t == "bigint", t == "numeric", t == "decimal",
		t == "real", t == "double precision", t == "money":
		return chartpreset.SemanticTypeQuantitative
	case t == "date", t == "interval", strings.HasPrefix(t, "timestamp"), strings.HasPrefix(t, "time "), t == "time":
		return chartpreset.SemanticTypeTemporal
	default:
		return chartpreset.SemanticTypeNominal
	}
}
