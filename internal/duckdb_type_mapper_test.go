package internal

import (
	"testing"

	"github.com/lychee-technology/chartpreset"
)

func TestMapDuckDBType(t *testing.T) {
	cases := map[string]chartpreset.SemanticType{
		"BIGINT":                   chartpreset.SemanticTypeQuantitative,
		"DOUBLE":                   chartpreset.SemanticTypeQuantitative,
		"DECIMAL(18,3)":            chartpreset.SemanticTypeQuantitative,
		"uinteger":                 chartpreset.SemanticTypeQuantitative,
		"DATE":                     chartpreset.SemanticTypeTemporal,
		"TIMESTAMP WITH TIME ZONE": chartpreset.SemanticTypeTemporal,
		"INTERVAL":                 chartpreset.SemanticTypeTemporal,
		"ENUM('low', 'high')":      chartpreset.SemanticTypeOrdinal,
		"VARCHAR":                  chartpreset.SemanticTypeNominal,
		"BOOLEAN":                  chartpreset.SemanticTypeNominal,
		"UUID":                     chartpreset.SemanticTypeNominal,
		"INTEGER[]":                chartpreset.SemanticTypeNominal,
		"STRUCT(a INTEGER)":        chartpreset.SemanticTypeNominal,
	}
	for in, want := range cases {
		if got := MapDuckDBType(in); got != want {
			t.Errorf("MapDuckDBType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapPostgresType(t *testing.T) {
	cases := []struct {
		dataType string
		isEnum   bool
		want     chartpreset.SemanticType
	}{
		{"integer", false, chartpreset.SemanticTypeQuantitative},
		{"double precision", false, chartpreset.SemanticTypeQuantitative},
		{"numeric", false, chartpreset.SemanticTypeQuantitative},
		{"timestamp with time zone", false, chartpreset.SemanticTypeTemporal},
		{"time without time zone", false, chartpreset.SemanticTypeTemporal},
		{"date", false, chartpreset.SemanticTypeTemporal},
		{"USER-DEFINED", true, chartpreset.SemanticTypeOrdinal},
		{"USER-DEFINED", false, chartpreset.SemanticTypeNominal},
		{"text", false, chartpreset.SemanticTypeNominal},
		{"uuid", false, chartpreset.SemanticTypeNominal},
		{"boolean", false, chartpreset.SemanticTypeNominal},
	}
	for _, tc := range cases {
		if got := MapPostgresType(tc.dataType, tc.isEnum); got != tc.want {
			t.Errorf("MapPostgresType(%q, %v) = %q, want %q", tc.dataType, tc.isEnum, got, tc.want)
		}
	}
}
