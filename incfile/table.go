/*
Copyright © 2025 the balprep authors.
This file is part of balprep.

balprep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

balprep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with balprep.  If not, see <http://www.gnu.org/licenses/>.
*/

package incfile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Zeros specifies how zero and missing (NaN) values are written.
type Zeros int

const (
	// KeepZeros writes zeros as 0 and NaN values as blanks.
	KeepZeros Zeros = iota

	// BlankZeros writes zeros and NaN values as blanks.
	BlankZeros

	// EPSZeros writes zeros and NaN values as EPS.
	EPSZeros

	// EPSMissing writes zeros as 0 and NaN values as EPS.
	EPSMissing
)

// zeroTolerance is the magnitude under which values are treated as zero
// when formatting.
const zeroTolerance = 1e-9

// FormatValue formats a value for a GAMS table cell.
func FormatValue(v float64, z Zeros) string {
	isZero := math.Abs(v) <= zeroTolerance
	switch {
	case math.IsNaN(v):
		if z == EPSZeros || z == EPSMissing {
			return EPS
		}
		return ""
	case isZero && z == BlankZeros:
		return ""
	case isZero && z == EPSZeros:
		return EPS
	case isZero:
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LabelSep separates the labels of a multi-dimensional GAMS element.
const LabelSep = " . "

// Pivot holds a symbol reshaped into a wide table.
type Pivot struct {
	Rows, Cols []string
	// Cells holds the value at [row][col]. Missing cells are absent.
	Cells map[string]map[string]float64
}

// PivotSymbol reshapes a parameter so that the index dimensions form
// the rows (joined with LabelSep) and the column dimension forms the
// columns. Duplicate cells are summed.
func PivotSymbol(s *Symbol, index []string, column string) (*Pivot, error) {
	if s.Kind != Parameter {
		return nil, fmt.Errorf("incfile: cannot pivot %s %s", s.Kind, s.Name)
	}
	labels := s.Labels()
	values := s.Values()
	pos := make(map[string]int, len(s.Dims))
	for i, d := range s.Dims {
		pos[d] = i
	}
	idx := make([]int, len(index))
	for i, d := range index {
		j, ok := pos[d]
		if !ok {
			return nil, fmt.Errorf("incfile: %s has no dimension %s", s.Name, d)
		}
		idx[i] = j
	}
	c, ok := pos[column]
	if !ok {
		return nil, fmt.Errorf("incfile: %s has no dimension %s", s.Name, column)
	}
	p := &Pivot{Cells: make(map[string]map[string]float64)}
	colSeen := make(map[string]bool)
	key := make([]string, len(idx))
	for i, row := range labels {
		for k, j := range idx {
			key[k] = row[j]
		}
		r := strings.Join(key, LabelSep)
		if _, ok := p.Cells[r]; !ok {
			p.Cells[r] = make(map[string]float64)
			p.Rows = append(p.Rows, r)
		}
		col := row[c]
		if !colSeen[col] {
			colSeen[col] = true
			p.Cols = append(p.Cols, col)
		}
		if old, ok := p.Cells[r][col]; ok && !math.IsNaN(old) {
			if !math.IsNaN(values[i]) {
				p.Cells[r][col] = old + values[i]
			}
		} else {
			p.Cells[r][col] = values[i]
		}
	}
	SortLabels(p.Rows)
	SortLabels(p.Cols)
	return p, nil
}

// SortLabels sorts GAMS labels. Labels made up of numbers, such as
// years, sort numerically; everything else sorts lexically.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool { return LabelLess(labels[i], labels[j]) })
}

// LabelLess reports whether label a sorts before label b.
// Multi-dimensional labels are compared element-wise.
func LabelLess(a, b string) bool {
	as := strings.Split(a, LabelSep)
	bs := strings.Split(b, LabelSep)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		af, aerr := strconv.ParseFloat(as[i], 64)
		bf, berr := strconv.ParseFloat(bs[i], 64)
		if aerr == nil && berr == nil {
			return af < bf
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}

// Format renders the pivot as a whitespace-aligned table. The index
// column is left-aligned and value columns are right-aligned under
// their headers, which is how GAMS matches values to columns.
func (p *Pivot) Format(z Zeros) string {
	cells := make([][]string, len(p.Rows))
	widths := make([]int, len(p.Cols))
	for j, c := range p.Cols {
		widths[j] = len(c)
	}
	indexWidth := 0
	for i, r := range p.Rows {
		if len(r) > indexWidth {
			indexWidth = len(r)
		}
		cells[i] = make([]string, len(p.Cols))
		for j, c := range p.Cols {
			v, ok := p.Cells[r][c]
			if !ok {
				continue
			}
			cells[i][j] = FormatValue(v, z)
			if len(cells[i][j]) > widths[j] {
				widths[j] = len(cells[i][j])
			}
		}
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for j, c := range p.Cols {
		fmt.Fprintf(&b, "  %*s", widths[j], c)
	}
	for i, r := range p.Rows {
		b.WriteString("\n")
		line := fmt.Sprintf("%-*s", indexWidth, r)
		for j := range p.Cols {
			line += fmt.Sprintf("  %*s", widths[j], cells[i][j])
		}
		b.WriteString(strings.TrimRight(line, " "))
	}
	return b.String()
}

// FormatParameterBody renders a symbol as the body of a
// "PARAMETER name(dims) / ... /" statement: one line per
// record with the labels joined by LabelSep followed by the value.
func FormatParameterBody(s *Symbol, z Zeros) string {
	labels := s.Labels()
	values := s.Values()
	keys := make([]string, len(labels))
	width := 0
	order := make([]int, len(labels))
	for i, l := range labels {
		keys[i] = strings.Join(l, LabelSep)
		if len(keys[i]) > width {
			width = len(keys[i])
		}
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return LabelLess(keys[order[i]], keys[order[j]]) })
	lines := make([]string, 0, len(order))
	for _, i := range order {
		v := FormatValue(values[i], z)
		if v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, keys[i], v))
	}
	return strings.Join(lines, "\n")
}

// FormatSetBody renders the elements of a set, one per line with
// multi-dimensional elements joined by LabelSep. Duplicates are removed
// and the elements are sorted.
func FormatSetBody(s *Symbol) string {
	seen := make(map[string]bool)
	var elems []string
	for _, l := range s.Labels() {
		e := strings.Join(l, LabelSep)
		if !seen[e] {
			seen[e] = true
			elems = append(elems, e)
		}
	}
	sort.Strings(elems)
	return strings.Join(elems, "\n")
}

// TableFile creates a file holding s as a GAMS TABLE with the given
// index and column dimensions.
func TableFile(s *Symbol, index []string, column string, z Zeros) (*File, error) {
	p, err := PivotSymbol(s, index, column)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:   s.Name,
		Prefix: Declaration("TABLE", s.Name, s.Dims, s.Text, ", ") + "\n",
		Body:   p.Format(z),
		Suffix: "\n;",
	}, nil
}

// ParameterFile creates a file holding s as a GAMS PARAMETER with a
// slash-delimited data list. A parameter without records is written as
// its declaration followed by an empty list.
func ParameterFile(s *Symbol, z Zeros) *File {
	f := &File{
		Name:   s.Name,
		Prefix: Declaration("PARAMETER", s.Name, s.Dims, s.Text, ", ") + "\n/\n",
		Body:   FormatParameterBody(s, z),
		Suffix: "\n/;\n",
	}
	if f.Body == "" {
		f.Suffix = "/;\n"
	}
	return f
}

// SetFile creates a file holding s as a GAMS SET.
func SetFile(s *Symbol) *File {
	return &File{
		Name:   s.Name,
		Prefix: Declaration("SET", s.Name, s.Dims, s.Text, ", ") + "\n/\n",
		Body:   FormatSetBody(s),
		Suffix: "\n/\n;",
	}
}
