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
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
)

// symbolNameReplacements turn add-on file names into the names of the
// symbols they hold. The replacements are applied in order.
var symbolNameReplacements = [][2]string{
	{"INDUSTRY_", ""},
	{"HYDROGEN_", ""},
	{"DH2", "HYDROGEN_DH2"},
	{"INDIVUSERS_", ""},
	{"TRANSPORT_", ""},
	{"FUELCOST", "FUELTRANSPORT_COST"},
	{"OFFSHORE_", ""},
	{"FLEXDEM_", ""},
}

// UniqueNames holds the symbols whose .inc file is not named after
// the symbol itself.
var UniqueNames = map[string]string{
	"TRANSDEMAND_Y": "TRANSPORT_TRANSDEMAND_Y",
	"XH2INVCOST":    "HYDROGEN_XH2INVCOST",
	"XH2COST":       "HYDROGEN_XH2COST",
	"XH2LOSS":       "HYDROGEN_XH2LOSS",
	"FLEXMAXLIMIT":  "FLEXDEM_FLEXMAXLIMIT",
	"FLEXYDEMAND":   "FLEXDEM_FLEXYDEMAND",
}

// SymbolNames converts a list of .inc file names into the unique
// symbol names they define, in first-seen order.
func SymbolNames(files []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range files {
		f = strings.TrimSpace(strings.TrimSuffix(f, ".inc"))
		if i := strings.LastIndex(f, "/"); i >= 0 {
			f = f[i+1:]
		}
		if f == "" {
			continue
		}
		for _, r := range symbolNameReplacements {
			f = strings.Replace(f, r[0], r[1], -1)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Fill specifies the value that aggregated groups without any values
// are given.
type Fill int

const (
	// FillEPS writes empty groups as EPS.
	FillEPS Fill = iota
	// FillZero writes empty groups as 0.
	FillZero
)

// AggregateOptions specify which symbols are aggregated and how.
type AggregateOptions struct {
	// Symbols are the names of the symbols to aggregate.
	Symbols []string

	// Exceptions are symbols that should not be aggregated.
	Exceptions []string

	// Mean and Median list the parameters that should be aggregated
	// with the mean or median instead of the sum.
	Mean, Median []string

	// ZeroFill lists the parameters whose empty groups should be
	// written as zero instead of EPS.
	ZeroFill []string

	// OutputDir is the directory the aggregated .inc files are
	// written to.
	OutputDir string
}

// AggFunc returns the aggregation function for the named symbol.
func (o *AggregateOptions) AggFunc(symbol string) incfile.AggFunc {
	switch {
	case contains(o.Mean, symbol):
		return incfile.Mean
	case contains(o.Median, symbol):
		return incfile.Median
	default:
		return incfile.Sum
	}
}

// Fill returns the fill type for the named symbol.
func (o *AggregateOptions) Fill(symbol string) Fill {
	if contains(o.ZeroFill, symbol) {
		return FillZero
	}
	return FillEPS
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// Aggregator renames and merges the regions of Balmorel symbols
// according to a clustering.
type Aggregator struct {
	// Clusters maps original region names to cluster names.
	Clusters map[string]string

	Log logrus.FieldLogger
}

// region maps a region name to its cluster. Regions that are not
// part of the clustering keep their names.
func (a *Aggregator) region(r string) (string, bool) {
	if c, ok := a.Clusters[r]; ok {
		return c, true
	}
	return r, true
}

// Area maps an area (or a country, region, or area in CCCRRRAAA)
// to its clustered name. DENMARK is left alone. The region is the
// part of the name before the first underscore and the suffix is the
// part after it; suffixes containing OFF become _OFF so that all
// offshore areas of a cluster are merged.
func (a *Aggregator) Area(area string) (string, error) {
	if area == "DENMARK" {
		return area, nil
	}
	parts := strings.Split(area, "_")
	region, suffix := parts[0], ""
	if len(parts) > 1 {
		suffix = "_" + parts[1]
	}
	c, ok := a.Clusters[region]
	if !ok {
		return "", fmt.Errorf("balprep: region %s of %s is not in the clustering", region, area)
	}
	if strings.Contains(suffix, "OFF") {
		suffix = "_OFF"
	}
	return c + suffix, nil
}

func (a *Aggregator) renameAreas(s *incfile.Symbol, dim string) (*incfile.Symbol, error) {
	var err error
	out, rerr := incfile.Rename(s, dim, func(l string) (string, bool) {
		n, e := a.Area(l)
		if e != nil && err == nil {
			err = e
		}
		return n, true
	})
	if rerr != nil {
		return nil, rerr
	}
	if err != nil {
		return nil, fmt.Errorf("balprep: renaming %s of %s: %v", dim, s.Name, err)
	}
	return out, nil
}

var quotedLabel = regexp.MustCompile(`'([^']*)'`)

// renameSuffix renames quoted region and area labels in GAMS
// statements.
func (a *Aggregator) renameSuffix(suffix string) string {
	return quotedLabel.ReplaceAllStringFunc(suffix, func(q string) string {
		l := q[1 : len(q)-1]
		if c, ok := a.Clusters[l]; ok {
			return "'" + c + "'"
		}
		if strings.Contains(l, "_") {
			if n, err := a.Area(l); err == nil {
				return "'" + n + "'"
			}
		}
		return q
	})
}

// geographicDim returns the dimension that decides how a parameter's
// regions are renamed.
func geographicDim(s *incfile.Symbol) string {
	for _, d := range []string{"RRR", "IRRRE", "CCCRRRAAA", "AAA"} {
		if s.HasDim(d) {
			return d
		}
	}
	return ""
}

// Parameter aggregates a parameter. It returns nil if s has no
// geographic dimension.
func (a *Aggregator) Parameter(s *incfile.Symbol, agg incfile.AggFunc, fill Fill) (*incfile.Symbol, error) {
	var err error
	switch geographicDim(s) {
	case "RRR":
		s, err = incfile.Rename(s, "RRR", a.region)
	case "IRRRE":
		if s, err = incfile.Rename(s, "IRRRE", a.region); err != nil {
			return nil, err
		}
		if s.HasDim("IRRRI") {
			if s, err = incfile.Rename(s, "IRRRI", a.region); err != nil {
				return nil, err
			}
			e, i := dimIndex(s, "IRRRE"), dimIndex(s, "IRRRI")
			s, err = incfile.Filter(s, func(l []string, _ float64) bool { return l[e] != l[i] })
		}
	case "CCCRRRAAA":
		s, err = a.renameAreas(s, "CCCRRRAAA")
	case "AAA":
		s, err = a.renameAreas(s, "AAA")
	default:
		a.Log.WithField("symbol", s.Name).Info("no geographic data; skipping")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Links within a cluster are not part of the total.
	before := incfile.Total(s)
	g, err := incfile.GroupBy(s, agg)
	if err != nil {
		return nil, err
	}
	g, err = fillEmptyGroups(s, g, agg, fill)
	if err != nil {
		return nil, err
	}
	g.Suffix = a.renameSuffix(s.Suffix)

	if agg == incfile.Sum {
		after := incfile.Total(g)
		if !isClose(after, before, 0.01) {
			return nil, fmt.Errorf("balprep: aggregating %s: sum of values before (%0.2f) is not equal to the sum of values after (%0.2f)",
				s.Name, before, after)
		}
	}
	return g, nil
}

func dimIndex(s *incfile.Symbol, dim string) int {
	for i, d := range s.Dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// isClose reports whether a and b are equal within a relative
// tolerance of b.
func isClose(a, b, rtol float64) bool {
	return math.Abs(a-b) <= 1e-8+rtol*math.Abs(b)
}

// fillEmptyGroups adds the groups of s that have no values in the
// aggregate g. Sums of empty groups are zero; other aggregates are
// zero or NaN (written as EPS) depending on fill.
func fillEmptyGroups(s, g *incfile.Symbol, agg incfile.AggFunc, fill Fill) (*incfile.Symbol, error) {
	have := make(map[string]bool)
	labels := g.Labels()
	values := g.Values()
	for _, l := range labels {
		have[strings.Join(l, incfile.LabelSep)] = true
	}
	var changed bool
	for _, l := range s.Labels() {
		k := strings.Join(l, incfile.LabelSep)
		if have[k] {
			continue
		}
		have[k] = true
		changed = true
		labels = append(labels, l)
		if agg == incfile.Sum || fill == FillZero {
			values = append(values, 0)
		} else {
			values = append(values, math.NaN())
		}
	}
	if fill == FillZero {
		for i, v := range values {
			if math.IsNaN(v) {
				values[i] = 0
				changed = true
			}
		}
	}
	if !changed {
		return g, nil
	}
	out, err := incfile.NewSymbol(g.Name, g.Text, g.Kind, g.Dims, labels, values)
	if err != nil {
		return nil, err
	}
	out.File = g.File
	return out, nil
}

// Set renames the regions and areas in every CCCRRRAAA, RRR, and AAA
// dimension of a set.
func (a *Aggregator) Set(s *incfile.Symbol) (*incfile.Symbol, error) {
	var err error
	for _, d := range s.Dims {
		if d == "CCCRRRAAA" || d == "RRR" || d == "AAA" {
			if s, err = a.renameAreas(s, d); err != nil {
				return nil, err
			}
		}
	}
	out := *s
	out.Suffix = a.renameSuffix(s.Suffix)
	return &out, nil
}

// AggregatedFile returns the .inc file for an aggregated symbol. Parameters
// with more than one dimension are written as tables whose last
// dimension forms the columns.
func AggregatedFile(s *incfile.Symbol) (*incfile.File, error) {
	var f *incfile.File
	switch {
	case s.Kind == incfile.Set:
		f = incfile.SetFile(s)
	case len(s.Dims) > 1:
		var err error
		f, err = incfile.TableFile(s, s.Dims[:len(s.Dims)-1], s.Dims[len(s.Dims)-1], incfile.EPSMissing)
		if err != nil {
			return nil, err
		}
	default:
		f = incfile.ParameterFile(s, incfile.EPSMissing)
	}
	if n, ok := UniqueNames[s.Name]; ok {
		f.Name = n
	}
	if s.Suffix != "" {
		f.Suffix += "\n" + s.Suffix
	}
	return f, nil
}

// Aggregate aggregates the symbols in db and writes them to
// o.OutputDir. It returns the paths of the written files.
func Aggregate(db incfile.Database, o AggregateOptions, clusters map[string]string, log logrus.FieldLogger) ([]string, error) {
	a := &Aggregator{Clusters: clusters, Log: log}
	symbols := o.Symbols
	if len(symbols) == 0 {
		symbols = db.Names()
	}
	var symbolsToDo []string
	for _, s := range symbols {
		if !contains(o.Exceptions, s) {
			symbolsToDo = append(symbolsToDo, s)
		}
	}
	log.Infof("will attempt to aggregate %s", strings.Join(symbolsToDo, ","))

	var paths []string
	for _, name := range symbolsToDo {
		start := time.Now()
		s, ok := db[name]
		if !ok {
			log.WithField("symbol", name).Warn("symbol not found in input data; skipping")
			continue
		}
		var out *incfile.Symbol
		var err error
		if s.Kind == incfile.Set {
			out, err = a.Set(s)
		} else {
			out, err = a.Parameter(s, o.AggFunc(name), o.Fill(name))
		}
		if err != nil {
			return paths, err
		}
		if out == nil {
			continue
		}
		f, err := AggregatedFile(out)
		if err != nil {
			return paths, err
		}
		path, err := f.Save(o.OutputDir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
		if d := time.Since(start); d > time.Minute {
			log.WithField("symbol", name).Warnf("aggregation took %0.2f minutes", d.Minutes())
		}
	}
	return paths, nil
}
