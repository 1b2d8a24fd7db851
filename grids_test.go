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
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

func testAssumptions() GridAssumptions {
	return GridAssumptions{
		InvestmentCost:         2,
		Lifetime:               40,
		TransmissionLoss:       3e-8,
		TransmissionCost:       0.1,
		DistributionLoss:       0.05,
		DistributionCost:       5,
		IndustryTechnologies:   0.02,
		IndividualTechnologies: 0.04,
	}
}

// testGrid returns three regions where A and B are connected and
// 100 km apart and C is isolated.
func testGrid() *Grid {
	names := []string{"A", "B", "C"}
	d := sparse.ZerosDense(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j {
				d.Set(100000, i, j)
			}
		}
	}
	c := NewConnectivity(names)
	if err := c.Set("A", "B", 1); err != nil {
		panic(err)
	}
	return &Grid{Names: names, Distance: d, Connections: c}
}

func TestParseCarrier(t *testing.T) {
	c, err := ParseCarrier(" Hydrogen")
	if err != nil {
		t.Fatal(err)
	}
	if c != Hydrogen || c.Symbol() != "XH2" || c.FilePrefix() != "HYDROGEN_" {
		t.Errorf("wrong hydrogen carrier: %v", c)
	}
	if Electricity.Symbol() != "X" || Electricity.FilePrefix() != "" {
		t.Error("wrong electricity carrier")
	}
	if _, err := ParseCarrier("heat"); err == nil {
		t.Error("expected an error")
	}
}

func TestInvestmentCostAndLoss(t *testing.T) {
	a := testAssumptions()
	c, err := a.InvestmentCostFor(100000)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c-200000) > 1e-6 {
		t.Errorf("investment cost = %g", c)
	}
	l, err := a.LossFor(100000)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(l-0.003) > 1e-12 {
		t.Errorf("loss = %g", l)
	}
}

func TestTransmissionFiles(t *testing.T) {
	g := testGrid()
	files, err := g.TransmissionFiles(Electricity, testAssumptions())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if want := []string{"XINVCOST", "XLOSS", "XCOST", "DISLOSS_E", "DISCOST_E"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names: have %v, want %v", names, want)
	}
	inv := files[0]
	if !strings.HasPrefix(inv.Prefix, "TABLE XINVCOST(YYY,IRRRE,IRRRI) 'Investment cost in new Electricity transmission capacity (Money/MW)'") {
		t.Errorf("XINVCOST prefix: %q", inv.Prefix)
	}
	if want := "\n;\nXINVCOST(YYY,IRRRE,IRRRI) = XINVCOST('2016',IRRRE,IRRRI);"; inv.Suffix != want {
		t.Errorf("XINVCOST suffix: have %q, want %q", inv.Suffix, want)
	}
	// C is not connected so it has no investment cost.
	for _, line := range strings.Split(inv.Body, "\n")[1:] {
		fields := strings.Fields(line)
		switch fields[2] {
		case "A", "B":
			if len(fields) != 4 {
				t.Errorf("XINVCOST row %q should have one value", line)
			}
		case "C":
			if len(fields) != 3 {
				t.Errorf("XINVCOST row %q should be empty", line)
			}
		}
	}
	// Losses are written for all pairs of different regions.
	for _, line := range strings.Split(files[1].Body, "\n")[1:] {
		if n := len(strings.Fields(line)); n != 3 {
			t.Errorf("XLOSS row %q should have two values", line)
		}
	}
	b := new(bytes.Buffer)
	files[3].WriteTo(b)
	want := "PARAMETER DISLOSS_E(RRR) 'Loss in electricity distribution'\n/\nA  0.05\nB  0.05\nC  0.05\n/;\n"
	if b.String() != want {
		t.Errorf("DISLOSS_E:\nhave %q\nwant %q", b.String(), want)
	}

	files, err = g.TransmissionFiles(Hydrogen, testAssumptions())
	if err != nil {
		t.Fatal(err)
	}
	names = names[:0]
	for _, f := range files {
		names = append(names, f.Name)
	}
	if want := []string{"HYDROGEN_XH2INVCOST", "HYDROGEN_XH2LOSS", "HYDROGEN_XH2COST"}; !reflect.DeepEqual(names, want) {
		t.Errorf("hydrogen names: have %v, want %v", names, want)
	}
}

func TestNewGrid(t *testing.T) {
	r := testRegions()
	c, err := TouchConnectivity(r, MetricProj, 1)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGrid(r, c, MetricProj)
	if err != nil {
		t.Fatal(err)
	}
	// 0.1 degrees of longitude at 55 degrees north is about 6.4 km.
	if d := g.Distance.Get(0, 1); d < 6000 || d > 7000 {
		t.Errorf("distance between DK_1 and DK_2 = %g m", d)
	}
	if !g.Connections.Connected(0, 3) || g.Connections.Connected(0, 4) {
		t.Error("wrong connections")
	}
}

func TestDistributionLossFiles(t *testing.T) {
	a := testAssumptions()
	files, err := DistributionLossFiles(OffshoreLosses, a,
		[]string{"Aarhus_IND-HT-NODH"}, []string{"Aarhus_IDVU-SPACEHEAT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("have %d files", len(files))
	}
	if n := len(strings.Split(files[0].Body, "\n")); n != 12 {
		t.Errorf("DISLOSS_E_AG has %d lines; want 12", n)
	}
	if !strings.Contains(files[0].Body, "EQ RG3_OFF5 "+offshoreLossCondition+"=0.2;") {
		t.Errorf("missing RG3_OFF5 loss:\n%s", files[0].Body)
	}
	for _, area := range []string{"Aarhus_IND-LT-NODH", "Aarhus_IND-MT-NODH", "Aarhus_IND-HT-NODH"} {
		if !strings.Contains(files[1].Body, "DISLOSS_E_AG_IND('"+area+"',G)") {
			t.Errorf("missing %s:\n%s", area, files[1].Body)
		}
	}
	if !strings.HasSuffix(files[2].Body, "OR AGKN('Aarhus_IDVU-SPACEHEAT',G)))=0.04;") {
		t.Errorf("individual user losses:\n%s", files[2].Body)
	}

	if _, err := DistributionLossFiles(map[string]float64{"RG1": 0.1}, a, nil, nil); err == nil {
		t.Error("expected an error for missing offshore losses")
	}
}

func TestFuelTransportCostFile(t *testing.T) {
	c, err := TransportCostFor(0.01, 100000)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c-1) > 1e-9 {
		t.Errorf("transport cost = %g; want 1", c)
	}
	f, err := testGrid().FuelTransportCostFile(0.01)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(f.Prefix, "TABLE FUELTRANSPORT_COST(FFF, IRRRE, IRRRI) ") {
		t.Errorf("prefix: %q", f.Prefix)
	}
	lines := strings.Split(f.Body, "\n")
	if want := "STRAW . A     1"; len(lines) != 4 || strings.TrimRight(lines[1], " ") != want {
		t.Errorf("have:\n%s\nwant second line %q", f.Body, want)
	}
	if !strings.HasSuffix(f.Suffix, "FUELTRANSPORT_COST(\"WOOD\", IRRRE, IRRRI) = FUELTRANSPORT_COST(\"STRAW\", IRRRE, IRRRI);\n") {
		t.Errorf("suffix: %q", f.Suffix)
	}
}
