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
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AggFunc is a function used to aggregate grouped parameter values.
type AggFunc string

// Aggregation functions.
const (
	Sum    AggFunc = "sum"
	Mean   AggFunc = "mean"
	Median AggFunc = "median"
)

// ParseAggFunc parses the name of an aggregation function.
func ParseAggFunc(s string) (AggFunc, error) {
	switch AggFunc(strings.ToLower(strings.TrimSpace(s))) {
	case Sum:
		return Sum, nil
	case Mean:
		return Mean, nil
	case Median:
		return Median, nil
	default:
		return "", fmt.Errorf("incfile: invalid aggregation function %q; must be sum, mean, or median", s)
	}
}

func (a AggFunc) reduce(v []float64) float64 {
	switch a {
	case Mean:
		return stat.Mean(v, nil)
	case Median:
		sorted := append([]float64(nil), v...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	default:
		return floats.Sum(v)
	}
}

// GroupBy aggregates the values of s over records that share the same
// labels in all of s's dimensions. NaN values are dropped before
// aggregating. Labels are compared as exact strings, and the returned
// records are in the order each label combination first appears.
func GroupBy(s *Symbol, f AggFunc) (*Symbol, error) {
	if s.Kind != Parameter {
		return nil, fmt.Errorf("incfile: cannot aggregate %s %s", s.Kind, s.Name)
	}
	labels := s.Labels()
	values := s.Values()
	index := make(map[string]int)
	var groupLabels [][]string
	var groupValues [][]float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		key := strings.Join(labels[i], "\x00")
		g, ok := index[key]
		if !ok {
			g = len(groupLabels)
			index[key] = g
			groupLabels = append(groupLabels, labels[i])
			groupValues = append(groupValues, nil)
		}
		groupValues[g] = append(groupValues[g], v)
	}
	out := &Symbol{Name: s.Name, Text: s.Text, Kind: s.Kind, Dims: s.Dims, File: s.File, Suffix: s.Suffix}
	agg := make([]float64, len(groupValues))
	for i, v := range groupValues {
		agg[i] = f.reduce(v)
	}
	out.Data = NewFrame(s.Dims, groupLabels, agg, true)
	if out.Data.Err != nil {
		return nil, fmt.Errorf("incfile: aggregating %s: %v", s.Name, out.Data.Err)
	}
	return out, nil
}

// Rename returns a copy of s with the labels in dimension dim replaced
// by fn. Records for which fn returns ok == false are dropped.
func Rename(s *Symbol, dim string, fn func(label string) (string, bool)) (*Symbol, error) {
	j := -1
	for i, d := range s.Dims {
		if d == dim {
			j = i
		}
	}
	if j < 0 {
		return nil, fmt.Errorf("incfile: %s has no dimension %s", s.Name, dim)
	}
	labels := s.Labels()
	values := s.Values()
	var outLabels [][]string
	var outValues []float64
	for i, l := range labels {
		n, ok := fn(l[j])
		if !ok {
			continue
		}
		row := append([]string(nil), l...)
		row[j] = n
		outLabels = append(outLabels, row)
		if values != nil {
			outValues = append(outValues, values[i])
		}
	}
	out, err := NewSymbol(s.Name, s.Text, s.Kind, s.Dims, outLabels, outValues)
	if err != nil {
		return nil, err
	}
	out.File, out.Suffix = s.File, s.Suffix
	return out, nil
}

// Filter returns a copy of s holding only the records for which keep
// returns true.
func Filter(s *Symbol, keep func(labels []string, value float64) bool) (*Symbol, error) {
	labels := s.Labels()
	values := s.Values()
	var outLabels [][]string
	var outValues []float64
	for i, l := range labels {
		v := math.NaN()
		if values != nil {
			v = values[i]
		}
		if !keep(l, v) {
			continue
		}
		outLabels = append(outLabels, l)
		if values != nil {
			outValues = append(outValues, v)
		}
	}
	out, err := NewSymbol(s.Name, s.Text, s.Kind, s.Dims, outLabels, outValues)
	if err != nil {
		return nil, err
	}
	out.File, out.Suffix = s.File, s.Suffix
	return out, nil
}

// Select returns the symbol's records with its dimensions renamed to
// names, in order. It is used to give symbols from different sources
// consistent column names, for example [Y R DEUSER] for DE.
func Select(s *Symbol, names []string) (*Symbol, error) {
	if len(names) != len(s.Dims) {
		return nil, fmt.Errorf("incfile: %s has %d dimensions but %d names were given", s.Name, len(s.Dims), len(names))
	}
	out, err := NewSymbol(s.Name, s.Text, s.Kind, names, s.Labels(), s.Values())
	if err != nil {
		return nil, err
	}
	out.File, out.Suffix = s.File, s.Suffix
	return out, nil
}

// Total returns the sum of the non-NaN values of s.
func Total(s *Symbol) float64 {
	var t float64
	for _, v := range s.Values() {
		if !math.IsNaN(v) {
			t += v
		}
	}
	return t
}
