package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedColumns(t *testing.T) {
	assert.Len(t, RawColumns, 16)
	assert.Len(t, DerivedColumns, 17)
	assert.Equal(t, "Marketcap_grouped", DerivedColumns[16].Name)
	assert.Equal(t, ColumnBigInt, DerivedColumns[16].Type)
	// appending the grouped column must not alias RawColumns
	assert.Equal(t, "Weight", RawColumns[len(RawColumns)-1].Name)
}

func TestContractColumn_SQLType(t *testing.T) {
	tests := []struct {
		name   string
		column ContractColumn
		want   string
	}{
		{"short string", ContractColumn{Name: "Symbol", Type: ColumnString, Size: 20}, "VARCHAR(20)"},
		{"long string", ContractColumn{Name: "Longbusinesssummary", Type: ColumnString, Size: 255}, "VARCHAR(255)"},
		{"string without size", ContractColumn{Name: "X", Type: ColumnString}, "VARCHAR(20)"},
		{"float", ContractColumn{Name: "Weight", Type: ColumnFloat}, "FLOAT"},
		{"bigint", ContractColumn{Name: "Marketcap", Type: ColumnBigInt}, "BIGINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.column.SQLType())
		})
	}
}

func TestCreateTableSQL(t *testing.T) {
	ddl := CreateTableSQL(DerivedTable, DerivedColumns)

	assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE `SP500_transformed` ("))
	assert.Contains(t, ddl, "`Exchange` VARCHAR(20)")
	assert.Contains(t, ddl, "`Longbusinesssummary` VARCHAR(255)")
	assert.Contains(t, ddl, "`Marketcap_grouped` BIGINT")
	assert.Equal(t, 17, strings.Count(ddl, "`")/2-1)
}

func TestInsertSQL(t *testing.T) {
	columns := RawColumns[:2]

	assert.Equal(t, "INSERT INTO `SP500` (`Exchange`, `Symbol`) VALUES (?, ?)",
		InsertSQL(RawTable, columns, 1))
	assert.Equal(t, "INSERT INTO `SP500` (`Exchange`, `Symbol`) VALUES (?, ?), (?, ?), (?, ?)",
		InsertSQL(RawTable, columns, 3))
	assert.Equal(t, InsertSQL(RawTable, columns, 1), InsertSQL(RawTable, columns, 0))
}

func TestConstituent_Values(t *testing.T) {
	price := 12.5
	marketcap := int64(300)
	c := Constituent{Exchange: "NYSE", Symbol: "A", Currentprice: &price, Marketcap: &marketcap}

	values := c.Values()

	assert.Len(t, values, len(RawColumns))
	assert.Equal(t, "NYSE", values[0])
	assert.Equal(t, "A", values[1])
	assert.Nil(t, values[2])
	assert.Equal(t, 12.5, values[6])
	assert.Equal(t, int64(300), values[7])
	assert.Nil(t, values[8])
}
