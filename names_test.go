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
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/balprep/incfile"
)

func TestTransliterate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Århus", "Aarhus"},
		{"Høje-Taastrup", "Hoeje-Taastrup"},
		{"Ærø", "Aeroe"},
		{"Odense", "Odense"},
	}
	for _, test := range tests {
		if have := Transliterate(test.in); have != test.want {
			t.Errorf("%s: have %s, want %s", test.in, have, test.want)
		}
		if have := DefaultConversions().Transliterate(test.in); have != test.want {
			t.Errorf("%s: conversions have %s, want %s", test.in, have, test.want)
		}
	}
}

func TestNormalizeRegionCode(t *testing.T) {
	if have := NormalizeRegionCode("DNK.1.2_1"); have != "DK_1_2_1" {
		t.Errorf("have %s", have)
	}
}

func TestSeasonTermLabels(t *testing.T) {
	if Season(1) != "S01" || Season(52) != "S52" || Term(1) != "T001" || Term(168) != "T168" {
		t.Error("wrong labels")
	}
}

func TestPreset(t *testing.T) {
	c := DefaultConversions()
	for _, p := range []string{"electricity", "Heat", "grid"} {
		if _, err := c.Preset(p); err != nil {
			t.Error(err)
		}
	}
	if _, err := c.Preset("gas"); err == nil {
		t.Error("unknown preset should fail")
	}
	custom, err := ReadConversions(strings.NewReader(`
[grid.dims]
from = "IRRRE"
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := custom.Preset("heat"); err == nil {
		t.Error("undefined preset should fail")
	}
}

func TestConverterApply(t *testing.T) {
	s, err := incfile.NewSymbol("electricity_demand_mwh", "", incfile.Parameter,
		[]string{"year", "user", "municipality", "week", "hour"},
		[][]string{
			{"2023", "residential", "Århus", "1", "1"},
			{"2023", "industry", "Århus", "1", "2"},
			{"2023", "public", "Ærø", "2", "1"},
		},
		[]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	conv, err := DefaultConversions().Preset("electricity")
	if err != nil {
		t.Fatal(err)
	}
	out, err := conv.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Y", "DEUSER", "R", "S", "T"}; !reflect.DeepEqual(out.Dims, want) {
		t.Errorf("dims: have %v, want %v", out.Dims, want)
	}
	wantLabels := [][]string{
		{"2023", "RESE", "Aarhus", "S01", "T001"},
		{"2023", "PII", "Aarhus", "S01", "T002"},
		{"2023", "OTHER", "Aeroe", "S02", "T001"},
	}
	if have := out.Labels(); !reflect.DeepEqual(have, wantLabels) {
		t.Errorf("labels: have %v, want %v", have, wantLabels)
	}
	if have := out.Values(); !reflect.DeepEqual(have, []float64{1, 2, 3}) {
		t.Errorf("values changed: %v", have)
	}
}

func TestConverterHeat(t *testing.T) {
	s, err := incfile.NewSymbol("heat_demand_mwh", "", incfile.Parameter,
		[]string{"year", "user", "municipality"},
		[][]string{
			{"2019", "district_heating", "Køge"},
			{"2019", "industry_phh", "Køge"},
			{"2019", "individual", "Køge"},
		},
		[]float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	conv, err := DefaultConversions().Preset("heat")
	if err != nil {
		t.Fatal(err)
	}
	out, err := conv.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"2019", "RESH", "Koege"},
		{"2019", "IND-PHH", "Koege"},
		{"2019", "RESIDENTIAL", "Koege"},
	}
	if have := out.Labels(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}
