package domain

import (
	"fmt"
	"strings"
)

const (
	// RawTable holds the constituents as loaded from the source file
	RawTable = "SP500"
	// DerivedTable holds the merged raw + grouped dataset
	DerivedTable = "SP500_transformed"

	// GroupedSuffix is appended to aggregate columns that collide with raw columns
	GroupedSuffix = "_grouped"
)

// ColumnType is the declared primitive type of a contract column
type ColumnType string

const (
	ColumnString ColumnType = "string"
	ColumnFloat  ColumnType = "float"
	ColumnBigInt ColumnType = "bigint"
)

// Numeric reports whether values of this type are summed by the grouped aggregate
func (t ColumnType) Numeric() bool {
	return t == ColumnFloat || t == ColumnBigInt
}

// ContractColumn is a named, typed column of a table contract
type ContractColumn struct {
	Name string     `json:"name" validate:"required"`
	Type ColumnType `json:"type" validate:"required,oneof=string float bigint"`
	// Size is the VARCHAR length for string columns
	Size int `json:"size,omitempty"`
}

// SQLType renders the MySQL column type
func (c ContractColumn) SQLType() string {
	switch c.Type {
	case ColumnFloat:
		return "FLOAT"
	case ColumnBigInt:
		return "BIGINT"
	default:
		size := c.Size
		if size <= 0 {
			size = 20
		}
		return fmt.Sprintf("VARCHAR(%d)", size)
	}
}

// RawColumns is the column contract of the raw table, in declared order
var RawColumns = []ContractColumn{
	{Name: "Exchange", Type: ColumnString, Size: 20},
	{Name: "Symbol", Type: ColumnString, Size: 20},
	{Name: "Shortname", Type: ColumnString, Size: 20},
	{Name: "Longname", Type: ColumnString, Size: 20},
	{Name: "Sector", Type: ColumnString, Size: 20},
	{Name: "Industry", Type: ColumnString, Size: 20},
	{Name: "Currentprice", Type: ColumnFloat},
	{Name: "Marketcap", Type: ColumnBigInt},
	{Name: "Ebitda", Type: ColumnFloat},
	{Name: "Revenuegrowth", Type: ColumnFloat},
	{Name: "City", Type: ColumnString, Size: 20},
	{Name: "State", Type: ColumnString, Size: 20},
	{Name: "Country", Type: ColumnString, Size: 20},
	{Name: "Fulltimeemployees", Type: ColumnBigInt},
	{Name: "Longbusinesssummary", Type: ColumnString, Size: 255},
	{Name: "Weight", Type: ColumnFloat},
}

// DerivedColumns is the fixed 17-column contract of the derived table
var DerivedColumns = append(append([]ContractColumn{}, RawColumns...),
	ContractColumn{Name: "Marketcap" + GroupedSuffix, Type: ColumnBigInt},
)

// ColumnNames returns the names of the given contract columns in order
func ColumnNames(columns []ContractColumn) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// CreateTableSQL renders the CREATE TABLE statement for a contract
func CreateTableSQL(table string, columns []ContractColumn) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), c.SQLType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

// DropTableSQL renders a DROP TABLE IF EXISTS statement
func DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))
}

// InsertSQL renders a multi-row INSERT with one placeholder tuple per row
func InsertSQL(table string, columns []ContractColumn, rows int) string {
	if rows < 1 {
		rows = 1
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c.Name)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	tuples := make([]string, rows)
	for i := range tuples {
		tuples[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(tuples, ", "))
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
