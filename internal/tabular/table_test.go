package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `region,units,price,notes
north,10,2.5,ok
south,20,3.5,
east,,4.5,late
west,40,5.5,ok
`

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, table.NumRows())
	assert.Equal(t, 4, table.NumColumns())

	region := table.Columns[0]
	assert.Equal(t, KindText, region.Kind)
	assert.Equal(t, 0, region.Missing)
	assert.Nil(t, region.Stats)

	units := table.Columns[1]
	assert.Equal(t, KindNumeric, units.Kind)
	assert.Equal(t, 1, units.Missing)
	require.NotNil(t, units.Stats)
	assert.Equal(t, 10.0, units.Stats.Min)
	assert.Equal(t, 40.0, units.Stats.Max)
	assert.InDelta(t, 23.333, units.Stats.Mean, 0.001)

	notes := table.Columns[3]
	assert.Equal(t, KindText, notes.Kind)
	assert.Equal(t, 1, notes.Missing)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = ParseCSV(strings.NewReader("a,b,c\n"))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestParseJSON(t *testing.T) {
	input := `[{"name":"a","score":1},{"name":"b","score":2},{"score":3}]`
	table, err := ParseJSON(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	require.Equal(t, 2, table.NumColumns())
	assert.Equal(t, "name", table.Columns[0].Name)
	assert.Equal(t, "score", table.Columns[1].Name)
	assert.Equal(t, KindNumeric, table.Columns[1].Kind)
	assert.Equal(t, 1, table.Columns[0].Missing)
}

func TestParseJSONEmpty(t *testing.T) {
	_, err := ParseJSON(strings.NewReader("[]"))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestCorrelation(t *testing.T) {
	input := "x,y,label\n1,2,a\n2,4,b\n3,6,c\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	names, matrix := table.Correlation()
	require.Equal(t, []string{"x", "y"}, names)
	assert.InDelta(t, 1.0, matrix[0][1], 1e-9)
	assert.InDelta(t, 1.0, matrix[1][0], 1e-9)
	assert.InDelta(t, 1.0, matrix[0][0], 1e-9)
}

func TestCorrelationNeedsTwoNumericColumns(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("x,label\n1,a\n2,b\n"))
	require.NoError(t, err)

	names, matrix := table.Correlation()
	assert.Nil(t, names)
	assert.Nil(t, matrix)
}

func TestHead(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Len(t, table.Head(2), 2)
	assert.Len(t, table.Head(10), 4)
}

func TestDescribe(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	desc := table.Describe(2)
	assert.Contains(t, desc, "4 rows, 4 columns")
	assert.Contains(t, desc, "| units | numeric | 1 |")
	assert.Contains(t, desc, "north, 10, 2.5, ok")
	assert.Contains(t, desc, "Correlation")
}
