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

// Package incfile reads and writes the plain-text GAMS input files
// (.inc files) used by the Balmorel energy system model.
//
// Symbols are held in long format: one string column per GAMS
// dimension plus a float "Value" column for parameters. Writing a
// symbol pivots its last dimension into the columns of a GAMS table.
package incfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ValueColumn is the name of the column holding parameter values.
const ValueColumn = "Value"

// EPS is the GAMS token for an explicit zero.
const EPS = "EPS"

// Kind is the kind of GAMS symbol.
type Kind int

const (
	// Parameter is a GAMS PARAMETER or TABLE.
	Parameter Kind = iota
	// Set is a GAMS SET.
	Set
)

func (k Kind) String() string {
	switch k {
	case Parameter:
		return "parameter"
	case Set:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Symbol is a GAMS parameter or set in long format.
type Symbol struct {
	// Name is the GAMS name of the symbol.
	Name string

	// Text is the explanatory text of the symbol.
	Text string

	Kind Kind

	// Dims holds the names of the symbol's dimensions (domains).
	Dims []string

	// Data holds one string column per dimension and, for
	// parameters, a float column named Value.
	Data dataframe.DataFrame

	// File is the base name (without extension) of the
	// file the symbol was read from, if any.
	File string

	// Suffix holds any GAMS statements that followed the
	// symbol's data in the file it was read from.
	Suffix string
}

// NewSymbol creates a symbol from rows of dimension labels and values.
// For sets, values may be nil.
func NewSymbol(name, text string, kind Kind, dims []string, labels [][]string, values []float64) (*Symbol, error) {
	if kind == Parameter && len(labels) != len(values) {
		return nil, fmt.Errorf("incfile: symbol %s has %d label rows but %d values", name, len(labels), len(values))
	}
	s := &Symbol{Name: name, Text: text, Kind: kind, Dims: dims}
	s.Data = NewFrame(dims, labels, values, kind == Parameter)
	if s.Data.Err != nil {
		return nil, fmt.Errorf("incfile: creating symbol %s: %v", name, s.Data.Err)
	}
	return s, nil
}

// NewFrame creates a long-format data frame. All dimension columns are
// strings. If withValues is true a float Value column is appended.
func NewFrame(dims []string, labels [][]string, values []float64, withValues bool) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(dims)+1)
	for j, d := range dims {
		c := make([]string, len(labels))
		for i, row := range labels {
			c[i] = row[j]
		}
		cols = append(cols, series.New(c, series.String, d))
	}
	if withValues {
		v := make([]float64, len(values))
		copy(v, values)
		cols = append(cols, series.New(v, series.Float, ValueColumn))
	}
	if len(cols) == 0 {
		return dataframe.DataFrame{Err: fmt.Errorf("incfile: frame has no columns")}
	}
	return dataframe.New(cols...)
}

// Labels returns the dimension labels of each row of the symbol.
func (s *Symbol) Labels() [][]string {
	n := s.Data.Nrow()
	out := make([][]string, n)
	for i := range out {
		out[i] = make([]string, len(s.Dims))
	}
	for j, d := range s.Dims {
		col := s.Data.Col(d).Records()
		for i := 0; i < n; i++ {
			out[i][j] = col[i]
		}
	}
	return out
}

// Values returns the values of the symbol. It returns nil for sets.
func (s *Symbol) Values() []float64 {
	if s.Kind != Parameter {
		return nil
	}
	return s.Data.Col(ValueColumn).Float()
}

// Len returns the number of records in the symbol.
func (s *Symbol) Len() int {
	if s.Data.Ncol() == 0 {
		return 0
	}
	return s.Data.Nrow()
}

// HasDim returns whether the symbol has the given dimension.
func (s *Symbol) HasDim(dim string) bool {
	for _, d := range s.Dims {
		if d == dim {
			return true
		}
	}
	return false
}

// File is a .inc file made up of a declaration prefix, a body, and
// a suffix of GAMS statements.
type File struct {
	Name   string
	Prefix string
	Body   string
	Suffix string
}

// WriteTo writes the file contents to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.Prefix+f.Body+f.Suffix)
	return int64(n), err
}

// Save writes the file to dir/Name.inc, creating dir if necessary.
func (f *File) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("incfile: creating output directory: %v", err)
	}
	path := filepath.Join(dir, f.Name+".inc")
	w, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("incfile: creating %s: %v", path, err)
	}
	if _, err := f.WriteTo(w); err != nil {
		w.Close()
		return "", fmt.Errorf("incfile: writing %s: %v", path, err)
	}
	return path, w.Close()
}

// Declaration returns a GAMS declaration line such as
// "TABLE XKFX(YYY,IRRRE,IRRRI) 'Initial transmission capacity'".
func Declaration(keyword, name string, dims []string, text, sep string) string {
	var b strings.Builder
	b.WriteString(keyword)
	b.WriteString(" ")
	b.WriteString(name)
	if len(dims) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(dims, sep))
		b.WriteString(")")
	}
	if text != "" {
		b.WriteString(" '")
		b.WriteString(text)
		b.WriteString("'")
	}
	return b.String()
}
