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

package balprep

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
	"gonum.org/v1/gonum/mat"
)

// FeatureColumns holds the column names given to the dimensions of
// symbols that are commonly used as clustering features.
var FeatureColumns = map[string][]string{
	"DE":      {"Y", "R", "DEUSER"},
	"DH":      {"Y", "A", "DHUSER"},
	"WNDFLH":  {"A"},
	"SOLEFLH": {"A"},
}

// Features holds clustering features by region.
type Features struct {
	// Regions holds the region names, one per row.
	Regions []string

	// Names holds the feature names, one per column.
	Names []string

	// Data holds the feature values as [region][feature].
	// Missing values are NaN.
	Data [][]float64
}

// featureFrame reduces symbol s to one value per region, returning a
// frame with the string column R and the float column name.
func featureFrame(s *incfile.Symbol, name string, agg incfile.AggFunc, log logrus.FieldLogger) (dataframe.DataFrame, error) {
	if cols, ok := FeatureColumns[name]; ok && len(cols) == len(s.Dims) {
		var err error
		if s, err = incfile.Select(s, cols); err != nil {
			return dataframe.DataFrame{}, err
		}
	} else {
		log.WithField("symbol", name).Warn("column names not found; using the symbol's own dimension names")
	}
	rcol := -1
	for j, d := range s.Dims {
		switch d {
		case "R", "RRR", "IRRRE":
			rcol = j
		case "A", "AAA":
			if rcol < 0 {
				rcol = j
			}
		}
	}
	if rcol < 0 {
		return dataframe.DataFrame{}, fmt.Errorf("balprep: feature %s has no region or area dimension in %v", name, s.Dims)
	}
	labels := s.Labels()
	regions := make([][]string, len(labels))
	for i, l := range labels {
		regions[i] = []string{strings.Split(l[rcol], "_")[0]}
	}
	r, err := incfile.NewSymbol(name, "", incfile.Parameter, []string{"R"}, regions, s.Values())
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	g, err := incfile.GroupBy(r, agg)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return g.Data.Rename(name, incfile.ValueColumn), nil
}

// GatherFeatures reduces each of the named symbols in db to one value
// per region using the matching aggregation function and joins the
// results. Area dimensions are reduced to their region, which is the
// part of the area name before the first underscore.
func GatherFeatures(db incfile.Database, params []string, aggs []incfile.AggFunc, log logrus.FieldLogger) (*Features, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("balprep: no clustering features specified")
	}
	if len(aggs) != len(params) {
		return nil, fmt.Errorf("balprep: %d clustering features but %d aggregation functions", len(params), len(aggs))
	}
	var joined dataframe.DataFrame
	for i, p := range params {
		s, ok := db[p]
		if !ok {
			return nil, fmt.Errorf("balprep: clustering feature %s not found in input data", p)
		}
		f, err := featureFrame(s, p, aggs[i], log)
		if err != nil {
			return nil, err
		}
		if f.Err != nil {
			return nil, fmt.Errorf("balprep: preparing feature %s: %v", p, f.Err)
		}
		if i == 0 {
			joined = f
			continue
		}
		joined = joined.OuterJoin(f, "R")
		if joined.Err != nil {
			return nil, fmt.Errorf("balprep: joining feature %s: %v", p, joined.Err)
		}
	}
	joined = joined.Arrange(dataframe.Sort("R"))
	if joined.Err != nil {
		return nil, fmt.Errorf("balprep: sorting features: %v", joined.Err)
	}
	out := &Features{
		Regions: joined.Col("R").Records(),
		Names:   append([]string(nil), params...),
	}
	out.Data = make([][]float64, len(out.Regions))
	for i := range out.Data {
		out.Data[i] = make([]float64, len(params))
	}
	for j, p := range params {
		for i, v := range joined.Col(p).Float() {
			out.Data[i][j] = v
		}
	}
	return out, nil
}

// Align reorders the feature rows to match names. Regions missing
// from f get NaN values, and regions in f that are not in names are
// dropped with a warning.
func (f *Features) Align(names []string, log logrus.FieldLogger) *Features {
	index := make(map[string]int, len(f.Regions))
	for i, r := range f.Regions {
		index[r] = i
	}
	out := &Features{Regions: append([]string(nil), names...), Names: f.Names}
	out.Data = make([][]float64, len(names))
	want := make(map[string]bool, len(names))
	for i, n := range names {
		want[n] = true
		out.Data[i] = make([]float64, len(f.Names))
		row, ok := index[n]
		for j := range f.Names {
			if ok {
				out.Data[i][j] = f.Data[row][j]
			} else {
				out.Data[i][j] = math.NaN()
			}
		}
	}
	for _, r := range f.Regions {
		if !want[r] {
			log.WithField("region", r).Warn("region has feature data but no geometry; dropping it")
		}
	}
	return out
}

// AddDerived adds features calculated from expressions over the
// existing features, for example {"DEperFLH": "DE / WNDFLH"}.
// Expressions are evaluated in name order, so later expressions may
// use earlier derived features.
func (f *Features) AddDerived(exprs map[string]string) error {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("balprep: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"log": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("balprep: got %d arguments for function 'log', but needs 1", len(arg))
			}
			return math.Log(arg[0].(float64)), nil
		},
		"sqrt": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("balprep: got %d arguments for function 'sqrt', but needs 1", len(arg))
			}
			return math.Sqrt(arg[0].(float64)), nil
		},
	}
	names := make([]string, 0, len(exprs))
	for n := range exprs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(exprs[n], funcs)
		if err != nil {
			return fmt.Errorf("balprep: parsing derived feature %s: %v", n, err)
		}
		for _, v := range e.Vars() {
			if f.column(v) < 0 {
				return fmt.Errorf("balprep: derived feature %s uses undefined feature %s", n, v)
			}
		}
		for i := range f.Regions {
			params := make(map[string]interface{}, len(f.Names))
			for j, fn := range f.Names {
				params[fn] = f.Data[i][j]
			}
			r, err := e.Evaluate(params)
			if err != nil {
				return fmt.Errorf("balprep: evaluating derived feature %s for %s: %v", n, f.Regions[i], err)
			}
			v, ok := r.(float64)
			if !ok {
				return fmt.Errorf("balprep: derived feature %s evaluates to %T, not a number", n, r)
			}
			f.Data[i] = append(f.Data[i], v)
		}
		f.Names = append(f.Names, n)
	}
	return nil
}

func (f *Features) column(name string) int {
	for j, n := range f.Names {
		if n == name {
			return j
		}
	}
	return -1
}

// AddCoordinates adds the longitude and latitude of each region's
// centroid as the features "lon" and "lat". f must be aligned with
// regions.
func (f *Features) AddCoordinates(regions Regions) error {
	if len(regions) != len(f.Regions) {
		return fmt.Errorf("balprep: %d regions but %d feature rows", len(regions), len(f.Regions))
	}
	for i, r := range regions {
		if r.Name != f.Regions[i] {
			return fmt.Errorf("balprep: region %s does not match feature row %s", r.Name, f.Regions[i])
		}
		c := r.Centroid()
		f.Data[i] = append(f.Data[i], c.X, c.Y)
	}
	f.Names = append(f.Names, "lon", "lat")
	return nil
}

// Matrix returns the features as a matrix with NaN values replaced
// by zero.
func (f *Features) Matrix() *mat.Dense {
	m := mat.NewDense(len(f.Regions), len(f.Names), nil)
	for i, row := range f.Data {
		for j, v := range row {
			if math.IsNaN(v) {
				v = 0
			}
			m.Set(i, j, v)
		}
	}
	return m
}

// Frame returns the features as a data frame with a string column R
// and one float column per feature.
func (f *Features) Frame() dataframe.DataFrame {
	cols := []series.Series{series.New(f.Regions, series.String, "R")}
	for j, n := range f.Names {
		v := make([]float64, len(f.Regions))
		for i := range f.Regions {
			v[i] = f.Data[i][j]
		}
		cols = append(cols, series.New(v, series.Float, n))
	}
	return dataframe.New(cols...)
}
