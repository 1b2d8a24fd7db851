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
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/balprep/incfile"
)

// BaseYear is the year that transmission data is written for. Other
// years are assigned from it in GAMS.
const BaseYear = "2016"

// Carrier is an energy carrier that is transmitted between regions.
type Carrier string

// Carriers with transmission grids.
const (
	Electricity Carrier = "electricity"
	Hydrogen    Carrier = "hydrogen"
)

// ParseCarrier parses a carrier name.
func ParseCarrier(s string) (Carrier, error) {
	switch c := Carrier(strings.ToLower(strings.TrimSpace(s))); c {
	case Electricity, Hydrogen:
		return c, nil
	default:
		return "", fmt.Errorf("balprep: invalid carrier %q; must be electricity or hydrogen", s)
	}
}

// Symbol returns the prefix of the carrier's transmission symbols.
func (c Carrier) Symbol() string {
	if c == Hydrogen {
		return "XH2"
	}
	return "X"
}

// FilePrefix returns the prefix of the carrier's add-on file names.
func (c Carrier) FilePrefix() string {
	if c == Hydrogen {
		return "HYDROGEN_"
	}
	return ""
}

func (c Carrier) title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// GridAssumptions hold the cost and loss assumptions for the grid of
// one carrier.
type GridAssumptions struct {
	// InvestmentCost is the cost of new transmission capacity
	// in €/MW/m.
	InvestmentCost float64

	// Lifetime is the lifetime of grid elements in years.
	Lifetime float64

	// TransmissionLoss is the fraction of energy lost per metre.
	TransmissionLoss float64

	// TransmissionCost is in €/MWh.
	TransmissionCost float64

	// DistributionLoss is a fraction and DistributionCost is in €/MWh.
	DistributionLoss float64
	DistributionCost float64

	// IndustryTechnologies and IndividualTechnologies are the
	// distribution losses of technologies in industry and individual
	// user areas.
	IndustryTechnologies   float64
	IndividualTechnologies float64
}

// Euro is the dimension of money.
var Euro unit.Dimension

func init() {
	Euro = unit.NewDimension("EUR")
}

var (
	// euroPerWattMeter is the dimension of investment cost per
	// capacity per length.
	euroPerWattMeter = unit.Dimensions{Euro: 1, unit.MassDim: -1, unit.LengthDim: -3, unit.TimeDim: 3}
	euroPerWatt      = unit.Dimensions{Euro: 1, unit.MassDim: -1, unit.LengthDim: -2, unit.TimeDim: 3}
	perMeter         = unit.Dimensions{unit.LengthDim: -1}
)

const wattsPerMW = 1e6

// InvestmentCostFor returns the cost of 1 MW of transmission capacity
// over the distance d in metres, in €/MW.
func (a GridAssumptions) InvestmentCostFor(d float64) (float64, error) {
	cost := unit.New(a.InvestmentCost/wattsPerMW, euroPerWattMeter)
	c := unit.Mul(cost, unit.New(d, unit.Meter))
	if err := c.Check(euroPerWatt); err != nil {
		return 0, fmt.Errorf("balprep: investment cost: %v", err)
	}
	return c.Value() * wattsPerMW, nil
}

// LossFor returns the fraction of energy lost over the distance d
// in metres.
func (a GridAssumptions) LossFor(d float64) (float64, error) {
	l := unit.Mul(unit.New(a.TransmissionLoss, perMeter), unit.New(d, unit.Meter))
	if err := l.Check(unit.Dimless); err != nil {
		return 0, fmt.Errorf("balprep: transmission loss: %v", err)
	}
	return l.Value(), nil
}

// Grid holds the distances and connections between regions.
type Grid struct {
	Names []string

	// Distance holds the centroid distances in metres.
	Distance *sparse.DenseArray

	Connections *Connectivity
}

// NewGrid calculates the distances between regions and aligns the
// connections with them.
func NewGrid(regions Regions, conn *Connectivity, metricProj string) (*Grid, error) {
	d, err := DistanceMatrix(regions, metricProj)
	if err != nil {
		return nil, err
	}
	names := regions.Names()
	return &Grid{Names: names, Distance: d, Connections: conn.Reorder(names)}, nil
}

// pairSymbol creates a symbol over (IRRRE, IRRRI), or (YYY, IRRRE,
// IRRRI) if year is not empty, holding v(i, j) for every pair of
// regions.
func pairSymbol(names []string, name, text, year string, v func(i, j int) (float64, error)) (*incfile.Symbol, error) {
	dims := []string{"IRRRE", "IRRRI"}
	if year != "" {
		dims = append([]string{"YYY"}, dims...)
	}
	n := len(names)
	labels := make([][]string, 0, n*n)
	values := make([]float64, 0, n*n)
	for i, a := range names {
		for j, b := range names {
			x, err := v(i, j)
			if err != nil {
				return nil, err
			}
			l := []string{a, b}
			if year != "" {
				l = append([]string{year}, l...)
			}
			labels = append(labels, l)
			values = append(values, x)
		}
	}
	return incfile.NewSymbol(name, text, incfile.Parameter, dims, labels, values)
}

func (g *Grid) connected(i, j int) float64 {
	if g.Connections.Connected(i, j) {
		return 1
	}
	return 0
}

func matrixFile(s *incfile.Symbol, file, suffix string) (*incfile.File, error) {
	f, err := incfile.TableFile(s, s.Dims[:len(s.Dims)-1], s.Dims[len(s.Dims)-1], incfile.BlankZeros)
	if err != nil {
		return nil, err
	}
	f.Name = file
	f.Prefix = incfile.Declaration("TABLE", s.Name, s.Dims, s.Text, ",") + "\n"
	f.Suffix += suffix
	return f, nil
}

// TransmissionFiles creates the investment cost, loss, and cost
// tables of carrier c, and for electricity also the distribution loss
// and cost parameters.
func (g *Grid) TransmissionFiles(c Carrier, a GridAssumptions) ([]*incfile.File, error) {
	x, p := c.Symbol(), c.FilePrefix()
	var files []*incfile.File

	inv, err := pairSymbol(g.Names, x+"INVCOST",
		fmt.Sprintf("Investment cost in new %s transmission capacity (Money/MW)", c.title()), BaseYear,
		func(i, j int) (float64, error) {
			v, err := a.InvestmentCostFor(g.Distance.Get(i, j))
			return g.connected(i, j) * v, err
		})
	if err != nil {
		return nil, err
	}
	f, err := matrixFile(inv, p+inv.Name,
		fmt.Sprintf("\n%[1]s(YYY,IRRRE,IRRRI) = %[1]s('%[2]s',IRRRE,IRRRI);", inv.Name, BaseYear))
	if err != nil {
		return nil, err
	}
	files = append(files, f)

	loss, err := pairSymbol(g.Names, x+"LOSS",
		fmt.Sprintf("%s transmission loss between regions (fraction)", c.title()), "",
		func(i, j int) (float64, error) { return a.LossFor(g.Distance.Get(i, j)) })
	if err != nil {
		return nil, err
	}
	if f, err = matrixFile(loss, p+loss.Name, ""); err != nil {
		return nil, err
	}
	files = append(files, f)

	cost, err := pairSymbol(g.Names, x+"COST",
		fmt.Sprintf("%s transmission cost between regions (Money/MWh)", c.title()), "",
		func(i, j int) (float64, error) { return g.connected(i, j) * a.TransmissionCost, nil })
	if err != nil {
		return nil, err
	}
	if f, err = matrixFile(cost, p+cost.Name, ""); err != nil {
		return nil, err
	}
	files = append(files, f)

	if c != Electricity {
		return files, nil
	}
	for _, d := range []struct {
		name, text string
		v          float64
	}{
		{"DISLOSS_E", "Loss in electricity distribution", a.DistributionLoss},
		{"DISCOST_E", "Cost of electricity distribution (Money/MWh)", a.DistributionCost},
	} {
		labels := make([][]string, len(g.Names))
		values := make([]float64, len(g.Names))
		for i, n := range g.Names {
			labels[i] = []string{n}
			values[i] = d.v
		}
		s, err := incfile.NewSymbol(d.name, d.text, incfile.Parameter, []string{"RRR"}, labels, values)
		if err != nil {
			return nil, err
		}
		f := incfile.ParameterFile(s, incfile.KeepZeros)
		f.Name = p + d.name
		files = append(files, f)
	}
	return files, nil
}

// OffshoreLosses are the distribution losses of offshore wind
// resource grades RG1, RG2, and RG3.
var OffshoreLosses = map[string]float64{"RG1": 0.1, "RG2": 0.2, "RG3": 0.2}

func formatNumber(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

const offshoreLossCondition = "AND (AGKN(IA,G) OR SUM(Y, GKFX(Y,IA,G))))"

// DistributionLossFiles creates the technology specific distribution
// loss files: DISLOSS_E_AG for offshore wind, INDUSTRY_DISLOSS_E_AG for
// the low, medium, and high temperature variants of industryAreas
// (which are named after their -HT variant), and
// INDIVUSERS_DISLOSS_E_AG for individualAreas.
func DistributionLossFiles(offshore map[string]float64, a GridAssumptions, industryAreas, individualAreas []string) ([]*incfile.File, error) {
	for _, rg := range []string{"RG1", "RG2", "RG3"} {
		if _, ok := offshore[rg]; !ok {
			return nil, fmt.Errorf("balprep: missing offshore distribution loss for %s", rg)
		}
	}
	lines := []string{
		fmt.Sprintf("DISLOSS_E_AG(IA,G)$(GDATA(G,'GDTECHGROUP') EQ WINDTURBINE_OFFSHORE %s=%s;",
			offshoreLossCondition, formatNumber(offshore["RG1"])),
	}
	for _, rg := range []string{"RG2", "RG3"} {
		if rg == "RG3" {
			lines = append(lines, "*Offshore type 3")
		}
		for k := 1; k <= 5; k++ {
			lines = append(lines, fmt.Sprintf("DISLOSS_E_AG(IA,G)$(GDATA(G,'GDSUBTECHGROUP') EQ %s_OFF%d %s=%s;",
				rg, k, offshoreLossCondition, formatNumber(offshore[rg])))
		}
	}
	files := []*incfile.File{{
		Name: "DISLOSS_E_AG",
		Prefix: "PARAMETER DISLOSS_E_AG(AAA,GGG)  'Loss in electricity distribution associated to specific technology in a particular area';\n" +
			"*Source for offshore losses: https://www.sciencedirect.com/science/article/pii/S0378779605002609\n",
		Body: strings.Join(lines, "\n"),
	}}

	techCondition := func(area string) string {
		return fmt.Sprintf("$((GDATA(G,'GDTYPE') EQ GETOH OR  GDATA(G,'GDTYPE') EQ GESTO OR GDATA(G,'GDTYPE') EQ GESTOS)  AND (SUM(Y,GKFX(Y,'%[1]s',G)) OR AGKN('%[1]s',G)))", area)
	}

	var ind strings.Builder
	for _, t := range []string{"-LT", "-MT", "-HT"} {
		for _, area := range industryAreas {
			area = strings.Replace(area, "-HT", t, -1)
			fmt.Fprintf(&ind, "DISLOSS_E_AG_IND('%s',G)%s=%s;\n", area, techCondition(area), formatNumber(a.IndustryTechnologies))
		}
	}
	files = append(files, &incfile.File{
		Name:   "INDUSTRY_DISLOSS_E_AG",
		Prefix: "PARAMETER DISLOSS_E_AG_IND(AAA,GGG)  'Loss in electricity distribution associated to specific technology in a particular area' ;\n",
		Body:   ind.String(),
		Suffix: "\nDISLOSS_E_AG(IA,G)$DISLOSS_E_AG_IND(IA,G)= DISLOSS_E_AG_IND(IA,G);\nDISLOSS_E_AG_IND(IA,G)=0;",
	})

	indiv := make([]string, len(individualAreas))
	for i, area := range individualAreas {
		indiv[i] = fmt.Sprintf("DISLOSS_E_AG_INDIVUSERS('%s',G)%s=%s;", area, techCondition(area), formatNumber(a.IndividualTechnologies))
	}
	files = append(files, &incfile.File{
		Name:   "INDIVUSERS_DISLOSS_E_AG",
		Prefix: "PARAMETER DISLOSS_E_AG_INDIVUSERS(AAA,GGG)  'Loss in electricity distribution associated to specific technology in a particular area' ;\n",
		Body:   strings.Join(indiv, "\n"),
		Suffix: "\nDISLOSS_E_AG(IA,G)$DISLOSS_E_AG_INDIVUSERS(IA,G)= DISLOSS_E_AG_INDIVUSERS(IA,G);\nDISLOSS_E_AG_INDIVUSERS(IA,G)=0;",
	})
	return files, nil
}
