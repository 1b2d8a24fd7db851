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
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
)

// Names of the demand variables in demand datasets.
const (
	ElectricityDemandVar = "electricity_demand_mwh"
	HeatDemandVar        = "heat_demand_mwh"
)

// ReadSymbolCDF reads the netCDF variable v as a parameter in long
// format. The labels of each dimension are taken from the variable's
// attribute with the dimension's name (labels separated by newlines)
// or, failing that, from a numeric coordinate variable with the
// dimension's name. Dimensions with neither are numbered from 1.
// Fill values become NaN.
func ReadSymbolCDF(r cdf.ReaderWriterAt, v string) (*incfile.Symbol, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening %s file: %v", v, err)
	}
	dims := f.Header.Dimensions(v)
	if dims == nil {
		return nil, fmt.Errorf("balprep: netCDF file has no variable %s", v)
	}
	lengths := f.Header.Lengths(v)
	coords := make([][]string, len(dims))
	for i, d := range dims {
		if coords[i], err = cdfLabels(f, v, d, lengths[i]); err != nil {
			return nil, err
		}
	}
	values, err := readCDFFloats(f, v)
	if err != nil {
		return nil, err
	}
	fill := math.NaN()
	switch fv := f.Header.FillValue(v).(type) {
	case float64:
		fill = fv
	case float32:
		fill = float64(fv)
	}

	labels := make([][]string, len(values))
	idx := make([]int, len(dims))
	for i := range values {
		l := make([]string, len(dims))
		for j, k := range idx {
			l[j] = coords[j][k]
		}
		labels[i] = l
		if values[i] == fill {
			values[i] = math.NaN()
		}
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < lengths[j] {
				break
			}
			idx[j] = 0
		}
	}
	return incfile.NewSymbol(v, "", incfile.Parameter, dims, labels, values)
}

func cdfLabels(f *cdf.File, v, d string, n int) ([]string, error) {
	if a, ok := f.Header.GetAttribute(v, d).(string); ok {
		out := strings.Split(a, "\n")
		if len(out) != n {
			return nil, fmt.Errorf("balprep: %s has %d %s labels but length %d", v, len(out), d, n)
		}
		return out, nil
	}
	out := make([]string, n)
	if dd := f.Header.Dimensions(d); len(dd) == 1 && dd[0] == d {
		c, err := readCDFFloats(f, d)
		if err != nil {
			return nil, err
		}
		for i, x := range c {
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		}
		return out, nil
	}
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out, nil
}

func readCDFFloats(f *cdf.File, v string) ([]float64, error) {
	rd := f.Reader(v, nil, nil)
	buf := rd.Zero(-1)
	if _, err := rd.Read(buf); err != nil {
		return nil, fmt.Errorf("balprep: reading %s: %v", v, err)
	}
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, e := range b {
			out[i] = float64(e)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, e := range b {
			out[i] = float64(e)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(b))
		for i, e := range b {
			out[i] = float64(e)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("balprep: %s has unsupported type %T", v, buf)
	}
}

// WriteSymbolCDF writes parameter s to w as the netCDF variable v over
// s's dimensions, in the format read by ReadSymbolCDF. Missing records
// are written as NaN.
func WriteSymbolCDF(w cdf.ReaderWriterAt, s *incfile.Symbol, v string) error {
	labels := s.Labels()
	values := s.Values()
	coords := make([][]string, len(s.Dims))
	index := make([]map[string]int, len(s.Dims))
	lengths := make([]int, len(s.Dims))
	for j := range s.Dims {
		index[j] = make(map[string]int)
		for _, l := range labels {
			if _, ok := index[j][l[j]]; !ok {
				index[j][l[j]] = len(coords[j])
				coords[j] = append(coords[j], l[j])
			}
		}
		lengths[j] = len(coords[j])
	}
	h := cdf.NewHeader(s.Dims, lengths)
	h.AddVariable(v, s.Dims, []float64{0})
	if s.Text != "" {
		h.AddAttribute(v, "description", s.Text)
	}
	for j, d := range s.Dims {
		h.AddAttribute(v, d, strings.Join(coords[j], "\n"))
	}
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("balprep: creating %s file: %v", v, err)
	}
	n := 1
	for _, l := range lengths {
		n *= l
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.NaN()
	}
	for i, l := range labels {
		k := 0
		for j := range s.Dims {
			k = k*lengths[j] + index[j][l[j]]
		}
		data[k] = values[i]
	}
	wr := f.Writer(v, nil, nil)
	if _, err := wr.Write(data); err != nil {
		return fmt.Errorf("balprep: writing %s: %v", v, err)
	}
	return nil
}

// DemandRecord is one record of a long-format demand CSV file. Week
// and hour are empty for annual data.
type DemandRecord struct {
	Year         string  `csv:"year"`
	User         string  `csv:"user"`
	Municipality string  `csv:"municipality"`
	Week         string  `csv:"week"`
	Hour         string  `csv:"hour"`
	Value        float64 `csv:"value"`
}

// ReadDemandCSV reads long-format demand records as the parameter
// name with dimensions (year, user, municipality) and, if any record
// has them, week and hour.
func ReadDemandCSV(r io.Reader, name string) (*incfile.Symbol, error) {
	var recs []*DemandRecord
	if err := gocsv.Unmarshal(r, &recs); err != nil {
		return nil, fmt.Errorf("balprep: reading %s: %v", name, err)
	}
	hourly := false
	for _, rec := range recs {
		if rec.Week != "" || rec.Hour != "" {
			hourly = true
			break
		}
	}
	dims := []string{"year", "user", "municipality"}
	if hourly {
		dims = append(dims, "week", "hour")
	}
	labels := make([][]string, len(recs))
	values := make([]float64, len(recs))
	for i, rec := range recs {
		labels[i] = []string{rec.Year, rec.User, rec.Municipality}
		if hourly {
			if rec.Week == "" || rec.Hour == "" {
				return nil, fmt.Errorf("balprep: %s record %d has no week or hour", name, i+1)
			}
			labels[i] = append(labels[i], rec.Week, rec.Hour)
		}
		values[i] = rec.Value
	}
	return incfile.NewSymbol(name, "", incfile.Parameter, dims, labels, values)
}

// SumTo sums s over all dimensions not in dims and returns the result
// with dimensions dims, in that order.
func SumTo(s *incfile.Symbol, dims []string) (*incfile.Symbol, error) {
	cols := make([]int, len(dims))
	for i, d := range dims {
		if cols[i] = dimIndex(s, d); cols[i] < 0 {
			return nil, fmt.Errorf("balprep: %s has no dimension %s", s.Name, d)
		}
	}
	labels := s.Labels()
	for i, l := range labels {
		p := make([]string, len(cols))
		for j, c := range cols {
			p[j] = l[c]
		}
		labels[i] = p
	}
	p, err := incfile.NewSymbol(s.Name, s.Text, s.Kind, dims, labels, s.Values())
	if err != nil {
		return nil, err
	}
	return incfile.GroupBy(p, incfile.Sum)
}

// lastLabel returns the greatest label of dimension dim in GAMS label
// order.
func lastLabel(s *incfile.Symbol, dim string) string {
	j := dimIndex(s, dim)
	var last string
	for _, l := range s.Labels() {
		if last == "" || incfile.LabelLess(last, l[j]) {
			last = l[j]
		}
	}
	return last
}

// DemandOptions hold the metadata written with demand files.
type DemandOptions struct {
	// Source is written as a comment at the top of each file.
	Source string

	// ProjectionYear is the model year whose demand is copied from
	// the last year in the data.
	ProjectionYear string
}

func (o DemandOptions) comment() string {
	if o.Source == "" {
		return ""
	}
	return "* " + o.Source + "\n"
}

// convertDemand renames the dimensions and elements of a demand
// dataset and checks that the total demand did not change.
func convertDemand(s *incfile.Symbol, conv *Converter, log logrus.FieldLogger) (*incfile.Symbol, error) {
	out, err := conv.Apply(s)
	if err != nil {
		return nil, err
	}
	log.WithField("symbol", s.Name).Infof("total demand: %.2f TWh", incfile.Total(out)/1e6)
	return out, nil
}

// ElectricityDemandFiles creates the annual electricity demand DE and
// its hourly variation DE_VAR_T from an electricity demand dataset
// with dimensions year, user, municipality, week, and hour. conv is
// normally the electricity preset.
func ElectricityDemandFiles(s *incfile.Symbol, conv *Converter, o DemandOptions, log logrus.FieldLogger) ([]*incfile.File, error) {
	d, err := convertDemand(s, conv, log)
	if err != nil {
		return nil, err
	}
	for _, dim := range []string{"Y", "DEUSER", "R", "S", "T"} {
		if dimIndex(d, dim) < 0 {
			return nil, fmt.Errorf("balprep: electricity demand has no %s dimension after conversion; it has %v", dim, d.Dims)
		}
	}

	annual, err := SumTo(d, []string{"R", "DEUSER", "Y"})
	if err != nil {
		return nil, err
	}
	if annual, err = incfile.Select(annual, []string{"RRR", "DEUSER", "YYY"}); err != nil {
		return nil, err
	}
	annual.Name, annual.Text = "DE1", "Annual electricity consumption (MWh)"
	de, err := incfile.TableFile(annual, []string{"RRR", "DEUSER"}, "YYY", incfile.KeepZeros)
	if err != nil {
		return nil, err
	}
	de.Name = "DE"
	de.Prefix = o.comment() + incfile.Declaration("TABLE", "DE1", annual.Dims, annual.Text, ",") + "\n"
	lines := []string{"", ";", "DE(YYY,RRR,DEUSER)=DE1(RRR,DEUSER,YYY);"}
	if o.ProjectionYear != "" {
		lines = append(lines, fmt.Sprintf("DE('%s',RRR,DEUSER) = DE('%s', RRR, DEUSER);", o.ProjectionYear, lastLabel(annual, "YYY")))
	}
	de.Suffix = strings.Join(append(lines, "DE1(RRR,DEUSER,YYY) = 0;"), "\n")

	hourly, err := SumTo(d, []string{"DEUSER", "S", "T", "R"})
	if err != nil {
		return nil, err
	}
	if hourly, err = incfile.Select(hourly, []string{"DEUSER", "SSS", "TTT", "RRR"}); err != nil {
		return nil, err
	}
	hourly.Name, hourly.Text = "DE_VAR_T1", "Variation in electricity demand"
	vart, err := incfile.TableFile(hourly, []string{"DEUSER", "SSS", "TTT"}, "RRR", incfile.KeepZeros)
	if err != nil {
		return nil, err
	}
	vart.Name = "DE_VAR_T"
	vart.Prefix = o.comment() + incfile.Declaration("TABLE", "DE_VAR_T1", hourly.Dims, hourly.Text, ",") + "\n"
	vart.Suffix = strings.Join([]string{
		"",
		";",
		"PARAMETER DE_VAR_T(RRR,DEUSER,SSS,TTT) 'Variation in electricity demand';",
		"DE_VAR_T(RRR,DEUSER,SSS,TTT) =  DE_VAR_T1(DEUSER,SSS,TTT,RRR); ",
		"DE_VAR_T1(DEUSER,SSS,TTT,RRR) = 0;",
	}, "\n")
	return []*incfile.File{de, vart}, nil
}

// HeatUserGroup describes one of the files heat demand is split into.
type HeatUserGroup struct {
	// File is the name of the file.
	File string

	// Table is the name of the table holding the data.
	Table string

	// Users maps the heat users in this group to the suffix that
	// turns a region into the area where the user's demand lives.
	Users map[string]string

	// Declare adds a declaration of DH before the table.
	Declare bool

	// Suffix holds the GAMS statements after the table. %[1]s is
	// replaced by the projection year and %[2]s by the last year in
	// the data.
	Suffix []string
}

// HeatUserGroups are the district heating, industry, and individual
// user heat demand files.
var HeatUserGroups = []HeatUserGroup{
	{
		File: "DH", Table: "DH1", Declare: true,
		Users: map[string]string{"RESH": "_A"},
		Suffix: []string{
			"DH(YYY,AAA,DHUSER)  = DH1(DHUSER,AAA,YYY);",
			"DH1(DHUSER,AAA,YYY) = 0;",
			"DH('%[1]s',AAA,DHUSER) = DH('%[2]s', AAA, DHUSER);",
		},
	},
	{
		File: "INDUSTRY_DH", Table: "DH1_IND", Declare: true,
		Users: map[string]string{
			"IND-PHL": "_IND-LT-NODH",
			"IND-PHM": "_IND-MT-NODH",
			"IND-PHH": "_IND-HT-NODH",
		},
		Suffix: []string{
			"DH(YYY,AAA,DHUSER)$DH1_IND(DHUSER,AAA,YYY)  = DH1_IND(DHUSER,AAA,YYY);",
			"DH('%[1]s',AAA,DHUSER)$DH1_IND(DHUSER,AAA,'%[2]s') = DH('%[2]s', AAA, DHUSER)$DH1_IND(DHUSER,AAA,'%[2]s');",
			"DH1_IND(DHUSER,AAA,YYY)=0;",
		},
	},
	{
		File: "INDIVUSERS_DH", Table: "DH1_INDIVHEATING",
		Users: map[string]string{"RESIDENTIAL": "_IDVU-SPACEHEAT"},
		Suffix: []string{
			"DH1_INDIVHEATING(DHUSER,AAA,'%[1]s') = DH1_INDIVHEATING(DHUSER,AAA,'%[2]s');",
			"DH(YYY,AAA,DHUSER)$DH1_INDIVHEATING(DHUSER,AAA,YYY)  = DH1_INDIVHEATING(DHUSER,AAA,YYY);",
			"DH1_INDIVHEATING(DHUSER,AAA,YYY)=0;",
		},
	},
}

// HeatDemandFiles creates the annual heat demand files of each group
// in HeatUserGroups from a heat demand dataset with dimensions year,
// user, and municipality (and optionally week and hour, which are
// summed). conv is normally the heat preset. Groups without data are
// skipped with a warning. The second return value maps each region to
// the areas that received demand.
func HeatDemandFiles(s *incfile.Symbol, conv *Converter, o DemandOptions, log logrus.FieldLogger) ([]*incfile.File, map[string][]string, error) {
	d, err := convertDemand(s, conv, log)
	if err != nil {
		return nil, nil, err
	}
	annual, err := SumTo(d, []string{"DHUSER", "A", "Y"})
	if err != nil {
		return nil, nil, err
	}
	last := lastLabel(annual, "Y")
	projection := o.ProjectionYear
	if projection == "" {
		projection = last
	}
	areas := make(map[string][]string)
	var files []*incfile.File
	for _, g := range HeatUserGroups {
		seen := make(map[string]bool)
		group, err := incfile.Filter(annual, func(l []string, _ float64) bool {
			_, ok := g.Users[l[0]]
			return ok
		})
		if err != nil {
			return nil, nil, err
		}
		if group.Len() == 0 {
			log.WithField("file", g.File).Warn("no heat demand for this group")
			continue
		}
		labels := group.Labels()
		for _, l := range labels {
			region := l[1]
			l[1] += g.Users[l[0]]
			if !seen[l[1]] {
				seen[l[1]] = true
				areas[region] = append(areas[region], l[1])
			}
		}
		t, err := incfile.NewSymbol(g.Table, "", incfile.Parameter,
			[]string{"DHUSER", "AAA", "YYY"}, labels, group.Values())
		if err != nil {
			return nil, nil, err
		}
		log.WithField("file", g.File).Infof("heat demand: %.2f TWh", incfile.Total(t)/1e6)
		f, err := incfile.TableFile(t, []string{"DHUSER", "AAA"}, "YYY", incfile.KeepZeros)
		if err != nil {
			return nil, nil, err
		}
		f.Name = g.File
		f.Prefix = o.comment()
		if g.Declare {
			f.Prefix += "PARAMETER DH(YYY,AAA,DHUSER)  'Annual brutto heat consumption';\n"
		}
		f.Prefix += incfile.Declaration("TABLE", g.Table, t.Dims, "", ",") + "\n"
		suffix := make([]string, len(g.Suffix))
		for i, l := range g.Suffix {
			suffix[i] = fmt.Sprintf(l, projection, last)
		}
		f.Suffix = strings.Join(append([]string{"", ";"}, suffix...), "\n")
		files = append(files, f)
	}
	return files, areas, nil
}

// IndustryHeatProfile gives the table and heat user of an industry
// heat variation file.
type IndustryHeatProfile struct {
	File, Table, User, AreaSuffix string
}

// IndustryHeatProfiles are the industry process heat variation files.
// The high temperature file includes the other two.
var IndustryHeatProfiles = []IndustryHeatProfile{
	{"INDUSTRY_DH_VAR_T", "DH_VAR_T_IND", "IND-PHH", "_IND-HT-NODH"},
	{"INDUSTRY_DH_VAR_T2", "DH_VAR_T_INDMT", "IND-PHM", "_IND-MT-NODH"},
	{"INDUSTRY_DH_VAR_T3", "DH_VAR_T_INDLT", "IND-PHL", "_IND-LT-NODH"},
}

// IndustryHeatVariationFiles creates heat variation profiles for
// industry process heat from the industry electricity demand profile
// of an electricity demand dataset converted with the electricity
// preset, where the industry user is called PII.
func IndustryHeatVariationFiles(s *incfile.Symbol, conv *Converter, log logrus.FieldLogger) ([]*incfile.File, error) {
	d, err := conv.Apply(s)
	if err != nil {
		return nil, err
	}
	user := dimIndex(d, "DEUSER")
	if user < 0 {
		return nil, fmt.Errorf("balprep: electricity demand has no DEUSER dimension after conversion")
	}
	d, err = incfile.Filter(d, func(l []string, _ float64) bool { return l[user] == "PII" })
	if err != nil {
		return nil, err
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("balprep: electricity demand has no industry (PII) profile")
	}
	profile, err := SumTo(d, []string{"S", "T", "R"})
	if err != nil {
		return nil, err
	}
	var files []*incfile.File
	for i, p := range IndustryHeatProfiles {
		labels := profile.Labels()
		for _, l := range labels {
			l[2] += p.AreaSuffix
		}
		t, err := incfile.NewSymbol(p.Table, "", incfile.Parameter,
			[]string{"SSS", "TTT", "AAA"}, labels, profile.Values())
		if err != nil {
			return nil, err
		}
		f, err := incfile.TableFile(t, []string{"SSS", "TTT"}, "AAA", incfile.KeepZeros)
		if err != nil {
			return nil, err
		}
		f.Name = p.File
		f.Prefix = incfile.Declaration("TABLE", p.Table, t.Dims, "", ",") + "\n"
		suffix := []string{
			"",
			";",
			"* Collect series to other heat series, if there is a industry heat series",
			fmt.Sprintf("DH_VAR_T(AAA,'%[1]s',SSS,TTT)$(SUM((S,T), %[2]s(S,T,AAA))) = %[2]s(SSS,TTT,AAA);", p.User, p.Table),
			fmt.Sprintf("%s(SSS,TTT,AAA)=0;", p.Table),
		}
		if i == 0 {
			for _, other := range IndustryHeatProfiles[1:] {
				suffix = append(suffix,
					fmt.Sprintf("$if     EXIST '../data/%[1]s.inc' $INCLUDE '../data/%[1]s.inc';", other.File),
					fmt.Sprintf("$if not EXIST '../data/%[1]s.inc' $INCLUDE '../../base/data/%[1]s.inc';", other.File))
			}
		}
		f.Suffix = strings.Join(suffix, "\n")
		files = append(files, f)
	}
	return files, nil
}
