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
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/balprep/incfile"
	"github.com/spatialmodel/balprep/internal/hash"
	"github.com/tealeg/xlsx"
)

// sheetCache holds previously read spreadsheet tables so that the
// same sheet is not parsed more than once.
var (
	sheetCache     *requestcache.Cache
	sheetCacheOnce sync.Once
)

type sheetRequest struct {
	File, Sheet string
}

// ReadSheet returns the trimmed cell text of every row of a sheet in
// an xlsx workbook. If sheet is empty the first sheet is read.
func ReadSheet(file, sheet string) ([][]string, error) {
	sheetCacheOnce.Do(func() {
		sheetCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			r := req.(sheetRequest)
			return readSheet(r.File, r.Sheet)
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(100))
	})
	req := sheetRequest{File: file, Sheet: sheet}
	r := sheetCache.NewRequest(context.Background(), req, hash.Hash(req))
	rows, err := r.Result()
	if err != nil {
		return nil, err
	}
	return rows.([][]string), nil
}

func readSheet(file, sheet string) ([][]string, error) {
	f, err := xlsx.OpenFile(file)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening xlsx file: %v", err)
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("balprep: %s has no sheets", file)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("balprep: %s has no sheet %s", file, sheet)
		}
	}
	out := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = strings.TrimSpace(c.Value)
		}
		out = append(out, cells)
	}
	return out, nil
}

// BiomassColumns are the columns of a biomass availability sheet.
var BiomassColumns = []string{"Y", "CRA", "F", "Flow", "Value"}

var biomassReplacer = map[string]*strings.Replacer{
	"Y":   strings.NewReplacer("2020", "2050"),
	"CRA": strings.NewReplacer("Hoeje_Taastrup", "Hoeje-Taastrup"),
	"F":   strings.NewReplacer("_Gen", "", "WOOD_PELLETS", "WOODPELLETS"),
}

// BiomassAvailability reads the fuel availability (GJ per year) by
// year, geographic entity, and fuel from a sheet with the columns in
// BiomassColumns. The Flow column is ignored. Labels are corrected to
// the model's names and EPS values become zero.
func BiomassAvailability(file, sheet string) (*incfile.Symbol, error) {
	rows, err := ReadSheet(file, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("balprep: biomass sheet in %s is empty", file)
	}
	col := make(map[string]int)
	for i, h := range rows[0] {
		col[h] = i
	}
	for _, c := range BiomassColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("balprep: biomass sheet in %s has no column %s; it has %v", file, c, rows[0])
		}
	}
	dims := []string{"Y", "CRA", "F"}
	var labels [][]string
	var values []float64
	for i, row := range rows[1:] {
		cell := func(c string) string {
			if j := col[c]; j < len(row) {
				return row[j]
			}
			return ""
		}
		if cell("CRA") == "" && cell("F") == "" {
			continue
		}
		l := make([]string, len(dims))
		for j, d := range dims {
			l[j] = biomassReplacer[d].Replace(cell(d))
		}
		var v float64
		if s := strings.Replace(cell("Value"), "EPS", "0", -1); s != "" {
			if v, err = parseFloat(s); err != nil {
				return nil, fmt.Errorf("balprep: biomass sheet row %d: %v", i+2, err)
			}
		}
		labels = append(labels, l)
		values = append(values, v)
	}
	return incfile.NewSymbol("GMAXF", "Maximum fuel use (GJ) per year", incfile.Parameter, dims, labels, values)
}

// BiomassOptions hold the national biomass assumptions.
type BiomassOptions struct {
	// Domestic potentials in PJ per year.
	WoodPotential, StrawPotential, BiogasPotential float64

	// WoodImport allows the import of wood pellets.
	WoodImport bool

	// Year is the model year the potentials apply to.
	Year string

	// Country is the geographic entity holding national totals.
	Country string

	// MunicipalWaste is the national municipal waste availability in
	// GJ per year, set for all years.
	MunicipalWaste float64
}

// DefaultBiomassOptions returns the options used for Denmark.
func DefaultBiomassOptions() BiomassOptions {
	return BiomassOptions{
		Year:           "2050",
		Country:        "DENMARK",
		MunicipalWaste: 763308,
	}
}

// PJToGJ converts an energy in PJ to GJ.
func PJToGJ(pj float64) (float64, error) {
	const joulesPerPJ, joulesPerGJ = 1e15, 1e9
	gj := unit.Div(unit.New(pj*joulesPerPJ, unit.Joule), unit.New(joulesPerGJ, unit.Joule))
	if err := gj.Check(unit.Dimless); err != nil {
		return 0, fmt.Errorf("balprep: converting PJ to GJ: %v", err)
	}
	return gj.Value(), nil
}

// fuelTotal sums the availability of fuel over all entities except
// the country.
func fuelTotal(s *incfile.Symbol, country, fuel string) float64 {
	var t float64
	values := s.Values()
	for i, l := range s.Labels() {
		if l[1] != country && l[2] == fuel {
			t += values[i]
		}
	}
	return t
}

func distributionKey(year, country, fuel string, potential float64) string {
	return fmt.Sprintf("GMAXF('%[1]s', CCCRRRAAA, '%[3]s') = GMAXF('%[1]s', CCCRRRAAA, '%[3]s') / GMAXF('%[1]s', '%[2]s', '%[3]s') * ", year, country, fuel) +
		fmt.Sprintf("%0.2f;", potential)
}

// GMAXFFile creates the maximum fuel use table from biomass
// availability. Zeros are written as EPS. The national statements
// after the table set the domestic potentials and use the regional
// availability as the key to distribute them.
func GMAXFFile(s *incfile.Symbol, o BiomassOptions) (*incfile.File, error) {
	t, err := incfile.Select(s, []string{"YYY", "CCCRRRAAA", "FFF"})
	if err != nil {
		return nil, err
	}
	t.Name, t.Text = "GMAXF", "Maximum fuel use (GJ) per year"
	f, err := incfile.TableFile(t, []string{"YYY", "CCCRRRAAA"}, "FFF", incfile.EPSZeros)
	if err != nil {
		return nil, err
	}
	f.Prefix = incfile.Declaration("TABLE", t.Name, t.Dims, t.Text, ", ") + "\n"

	var pot [3]float64
	for i, p := range []float64{o.BiogasPotential, o.StrawPotential, o.WoodPotential} {
		if pot[i], err = PJToGJ(p); err != nil {
			return nil, err
		}
	}
	y, c := o.Year, o.Country
	lines := []string{
		"",
		";",
		"",
		fmt.Sprintf("GMAXF('%s', '%s', 'BIOGAS') = %0.2f;", y, c, pot[0]),
		fmt.Sprintf("GMAXF('%s', '%s', 'WOODCHIPS') = EPS;", y, c),
		fmt.Sprintf("GMAXF('%s', '%s', 'WOODWASTE') = EPS;", y, c),
		fmt.Sprintf("GMAXF('%s', '%s', 'STRAW') = %0.2f;", y, c, fuelTotal(t, c, "STRAW")),
		fmt.Sprintf("GMAXF('%s', '%s', 'WOOD') = %0.2f;", y, c, fuelTotal(t, c, "WOOD")),
		"* Use existing potentials as distribution key for input potentials for straw and wood, defined below",
		distributionKey(y, c, "STRAW", pot[1]),
		distributionKey(y, c, "WOOD", pot[2]),
	}
	if o.WoodImport {
		lines = append(lines, "* Allow import of woodpellets",
			fmt.Sprintf("GMAXF('%s', '%s', 'WOODPELLETS') = %0.2f;", y, c, fuelTotal(t, c, "WOODPELLETS")))
	} else {
		lines = append(lines, "* Disallow import of woodpellets",
			fmt.Sprintf("GMAXF('%s', '%s', 'WOODPELLETS') = EPS;", y, c))
	}
	lines = append(lines, fmt.Sprintf("GMAXF(Y,'%s','MUNIWASTE') = %s;", c, formatNumber(o.MunicipalWaste)))
	f.Suffix = strings.Join(lines, "\n")
	return f, nil
}

// euroPerJouleMeter is the dimension of fuel transport cost.
var euroPerJouleMeter = unit.Dimensions{Euro: 1, unit.MassDim: -1, unit.LengthDim: -3, unit.TimeDim: 2}

// TransportCostFor returns the cost in €/GJ of transporting fuel over
// the distance d in metres, for a cost in €/GJ/km.
func TransportCostFor(cost, d float64) (float64, error) {
	const joulesPerGJ, metresPerKm = 1e9, 1e3
	c := unit.Mul(unit.New(cost/joulesPerGJ/metresPerKm, euroPerJouleMeter), unit.New(d, unit.Meter))
	if err := c.Check(unit.Dimensions{Euro: 1, unit.MassDim: -1, unit.LengthDim: -2, unit.TimeDim: 2}); err != nil {
		return 0, fmt.Errorf("balprep: fuel transport cost: %v", err)
	}
	return c.Value() * joulesPerGJ, nil
}

// FuelTransportCostFile creates the cost of transporting one GJ of
// straw between connected regions, for a cost in €/GJ/km. Wood is
// given the same cost as straw.
func (g *Grid) FuelTransportCostFile(cost float64) (*incfile.File, error) {
	n := len(g.Names)
	labels := make([][]string, 0, n*n)
	values := make([]float64, 0, n*n)
	for i, a := range g.Names {
		for j, b := range g.Names {
			var v float64
			if i != j && g.Connections.Connected(i, j) {
				var err error
				if v, err = TransportCostFor(cost, g.Distance.Get(i, j)); err != nil {
					return nil, err
				}
			}
			labels = append(labels, []string{"STRAW", a, b})
			values = append(values, v)
		}
	}
	s, err := incfile.NewSymbol("FUELTRANSPORT_COST",
		"Cost of transporting one GJ of fuel F from region IRRRE to IRRRI", incfile.Parameter,
		[]string{"FFF", "IRRRE", "IRRRI"}, labels, values)
	if err != nil {
		return nil, err
	}
	f, err := incfile.TableFile(s, []string{"FFF", "IRRRE"}, "IRRRI", incfile.BlankZeros)
	if err != nil {
		return nil, err
	}
	f.Prefix = incfile.Declaration("TABLE", s.Name, s.Dims, s.Text, ", ") + "\n"
	f.Suffix = "\n;\nFUELTRANSPORT_COST(\"WOOD\", IRRRE, IRRRI) = FUELTRANSPORT_COST(\"STRAW\", IRRRE, IRRRI);\n"
	return f, nil
}
