package openapi

import "strings"

// TypeMapping maps a column type to an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean
	Format string // OpenAPI format: int64, double, date-time, byte
}

// sqliteTypes covers the declared types SQLite accepts for its affinities.
var sqliteTypes = map[string]TypeMapping{
	"integer": {"integer", "int64"},
	"int":     {"integer", "int64"},
	"bigint":  {"integer", "int64"},

	"real":    {"number", "double"},
	"double":  {"number", "double"},
	"float":   {"number", "double"},
	"numeric": {"number", "double"},

	"text":    {"string", ""},
	"varchar": {"string", ""},

	"timestamp": {"string", "date-time"},
	"datetime":  {"string", "date-time"},
	"date":      {"string", "date"},

	"boolean": {"boolean", ""},
	"blob":    {"string", "byte"},
}

// MapColumnType converts a declared column type to an OpenAPI type mapping.
// Unknown types map to a plain string.
func MapColumnType(colType string) TypeMapping {
	normalized := strings.ToLower(strings.TrimSpace(colType))

	// "varchar(255)" -> "varchar"
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	if m, ok := sqliteTypes[normalized]; ok {
		return m
	}
	return TypeMapping{"string", ""}
}

// column describes one field of a stored resource as it appears in JSON.
type column struct {
	Name        string
	Type        string // declared SQLite type
	Nullable    bool
	ReadOnly    bool // assigned by the store
	Description string
}

var userColumns = []column{
	{Name: "id", Type: "INTEGER", ReadOnly: true, Description: "Store-assigned identifier."},
	{Name: "name", Type: "TEXT"},
	{Name: "company", Type: "TEXT", Nullable: true},
	{Name: "email", Type: "TEXT", Nullable: true},
	{Name: "phone", Type: "TEXT", Nullable: true},
	{Name: "created_at", Type: "TIMESTAMP", ReadOnly: true},
}

var numberColumns = []column{
	{Name: "id", Type: "INTEGER", ReadOnly: true, Description: "Store-assigned identifier."},
	{Name: "details_number", Type: "TEXT"},
	{Name: "created_at", Type: "TIMESTAMP", ReadOnly: true},
}
