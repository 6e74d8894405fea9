package tabular

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrEmptyTable = errors.New("table has no rows")

const (
	KindNumeric = "numeric"
	KindText    = "text"
)

type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

type Column struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind"`
	Missing int           `json:"missing"`
	Stats   *NumericStats `json:"stats,omitempty"`
}

// Table is a parsed tabular upload: a header plus string cells, with
// per-column typing inferred from the values.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// ParseCSV reads a headered csv stream. A stream without data rows is an
// error, matching the empty-file rejection in the upload flow.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyTable
	}

	return newTable(records[0], records[1:]), nil
}

// ParseJSON reads an array of flat objects, taking the union of keys as the
// header in sorted order.
func ParseJSON(r io.Reader) (*Table, error) {
	var objects []map[string]any
	if err := json.NewDecoder(r).Decode(&objects); err != nil {
		return nil, fmt.Errorf("error reading json: %w", err)
	}
	if len(objects) == 0 {
		return nil, ErrEmptyTable
	}

	keySet := make(map[string]struct{})
	for _, obj := range objects {
		for k := range obj {
			keySet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(header))
		for j, key := range header {
			if v, ok := obj[key]; ok && v != nil {
				row[j] = fmt.Sprintf("%v", v)
			}
		}
		rows[i] = row
	}

	return newTable(header, rows), nil
}

func newTable(header []string, rows [][]string) *Table {
	table := &Table{Rows: rows}
	for i, name := range header {
		table.Columns = append(table.Columns, profileColumn(name, column(rows, i)))
	}
	return table
}

func column(rows [][]string, idx int) []string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx < len(row) {
			values = append(values, strings.TrimSpace(row[idx]))
		} else {
			values = append(values, "")
		}
	}
	return values
}

func profileColumn(name string, values []string) Column {
	col := Column{Name: name, Kind: KindText}

	var nums []float64
	numeric := true
	for _, v := range values {
		if v == "" {
			col.Missing++
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			continue
		}
		nums = append(nums, f)
	}

	if numeric && len(nums) > 0 {
		col.Kind = KindNumeric
		col.Stats = numericStats(nums)
	}
	return col
}

func numericStats(nums []float64) *NumericStats {
	stats := &NumericStats{Min: nums[0], Max: nums[0]}
	var sum float64
	for _, f := range nums {
		stats.Min = math.Min(stats.Min, f)
		stats.Max = math.Max(stats.Max, f)
		sum += f
	}
	stats.Mean = sum / float64(len(nums))

	var variance float64
	for _, f := range nums {
		variance += (f - stats.Mean) * (f - stats.Mean)
	}
	stats.StdDev = math.Sqrt(variance / float64(len(nums)))
	return stats
}

func (t *Table) NumRows() int {
	return len(t.Rows)
}

func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

func (t *Table) numericColumns() []int {
	var idx []int
	for i, col := range t.Columns {
		if col.Kind == KindNumeric {
			idx = append(idx, i)
		}
	}
	return idx
}

// Correlation computes the Pearson correlation matrix over the numeric
// columns, returning the column names and the matrix in that order. Pairs
// with missing cells are skipped row-wise.
func (t *Table) Correlation() ([]string, [][]float64) {
	idx := t.numericColumns()
	if len(idx) < 2 {
		return nil, nil
	}

	names := make([]string, len(idx))
	for i, c := range idx {
		names[i] = t.Columns[c].Name
	}

	matrix := make([][]float64, len(idx))
	for i := range idx {
		matrix[i] = make([]float64, len(idx))
		for j := range idx {
			matrix[i][j] = t.pearson(idx[i], idx[j])
		}
	}
	return names, matrix
}

func (t *Table) pearson(a, b int) float64 {
	var xs, ys []float64
	for _, row := range t.Rows {
		if a >= len(row) || b >= len(row) {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(row[a]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(row[b]), 64)
		if errX != nil || errY != nil {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return 0
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(len(xs))
	meanY /= float64(len(ys))

	var cov, varX, varY float64
	for i := range xs {
		cov += (xs[i] - meanX) * (ys[i] - meanY)
		varX += (xs[i] - meanX) * (xs[i] - meanX)
		varY += (ys[i] - meanY) * (ys[i] - meanY)
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// Describe renders the table profile as markdown for prompt context and
// previews: schema, per-column stats, missing counts, and sample rows.
func (t *Table) Describe(sampleRows int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d rows, %d columns\n\n", t.NumRows(), t.NumColumns())

	b.WriteString("| column | kind | missing | min | max | mean | std |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, col := range t.Columns {
		if col.Stats != nil {
			fmt.Fprintf(&b, "| %s | %s | %d | %.4g | %.4g | %.4g | %.4g |\n",
				col.Name, col.Kind, col.Missing, col.Stats.Min, col.Stats.Max, col.Stats.Mean, col.Stats.StdDev)
		} else {
			fmt.Fprintf(&b, "| %s | %s | %d | | | | |\n", col.Name, col.Kind, col.Missing)
		}
	}

	if names, matrix := t.Correlation(); len(names) > 0 {
		b.WriteString("\nCorrelation (" + strings.Join(names, ", ") + "):\n")
		for i, row := range matrix {
			fmt.Fprintf(&b, "%s:", names[i])
			for _, v := range row {
				fmt.Fprintf(&b, " %.3f", v)
			}
			b.WriteString("\n")
		}
	}

	if sampleRows > 0 {
		b.WriteString("\nSample rows:\n")
		for _, row := range t.Head(sampleRows) {
			b.WriteString(strings.Join(row, ", "))
			b.WriteString("\n")
		}
	}

	return b.String()
}
