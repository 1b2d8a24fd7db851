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
	"bytes"
	"math"
	"os"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func xkfx(t *testing.T) *Symbol {
	s, err := NewSymbol("XKFX", "Initial transmission capacity between regions", Parameter,
		[]string{"YYY", "IRRRE", "IRRRI"},
		[][]string{
			{"2016", "DK_1", "DK_2"},
			{"2016", "DK_2", "DK_1"},
			{"2016", "DK_2", "DK_3"},
			{"2016", "DK_3", "DK_2"},
		},
		[]float64{600, 590, 0, 1200})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTableFile(t *testing.T) {
	f, err := TableFile(xkfx(t), []string{"YYY", "IRRRE"}, "IRRRI", BlankZeros)
	if err != nil {
		t.Fatal(err)
	}
	f.Suffix += "\nXKFX(YYY,IRRRE,IRRRI)$(YYY.VAL GT 2016) = XKFX('2016',IRRRE,IRRRI);"
	b := new(bytes.Buffer)
	if _, err := f.WriteTo(b); err != nil {
		t.Fatal(err)
	}
	want := `TABLE XKFX(YYY, IRRRE, IRRRI) 'Initial transmission capacity between regions'
             DK_1  DK_2  DK_3
2016 . DK_1         600
2016 . DK_2   590
2016 . DK_3        1200
;
XKFX(YYY,IRRRE,IRRRI)$(YYY.VAL GT 2016) = XKFX('2016',IRRRE,IRRRI);`
	if b.String() != want {
		t.Errorf("have:\n%s\nwant:\n%s", b.String(), want)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		z    Zeros
		want string
	}{
		{v: 0, z: KeepZeros, want: "0"},
		{v: 0, z: BlankZeros, want: ""},
		{v: 1e-12, z: EPSZeros, want: "EPS"},
		{v: math.NaN(), z: EPSZeros, want: "EPS"},
		{v: math.NaN(), z: KeepZeros, want: ""},
		{v: 3.318383e-08, z: BlankZeros, want: "3.318383e-08"},
		{v: 1e6, z: KeepZeros, want: "1e+06"},
		{v: 0.05, z: KeepZeros, want: "0.05"},
	}
	for _, test := range tests {
		if have := FormatValue(test.v, test.z); have != test.want {
			t.Errorf("FormatValue(%g, %d) = %q; want %q", test.v, test.z, have, test.want)
		}
	}
}

func TestSortLabels(t *testing.T) {
	l := []string{"2050 . b", "2016 . b", "2016 . a", "999 . a", "S10", "S02"}
	SortLabels(l)
	want := []string{"999 . a", "2016 . a", "2016 . b", "2050 . b", "S02", "S10"}
	if !reflect.DeepEqual(l, want) {
		t.Errorf("%v != %v", l, want)
	}
}

func TestParameterAndSetFile(t *testing.T) {
	p, err := NewSymbol("DISLOSS_E", "Loss in electricity distribution", Parameter,
		[]string{"RRR"}, [][]string{{"DK_2"}, {"DK_1"}}, []float64{0.05, 0.05})
	if err != nil {
		t.Fatal(err)
	}
	b := new(bytes.Buffer)
	ParameterFile(p, KeepZeros).WriteTo(b)
	want := "PARAMETER DISLOSS_E(RRR) 'Loss in electricity distribution'\n/\nDK_1  0.05\nDK_2  0.05\n/;\n"
	if b.String() != want {
		t.Errorf("have:\n%q\nwant:\n%q", b.String(), want)
	}

	s, err := NewSymbol("RRRAAA", "Assignment of areas to regions", Set,
		[]string{"RRR", "AAA"}, [][]string{{"DK_2", "DK_2_A"}, {"DK_1", "DK_1_A"}, {"DK_1", "DK_1_A"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b.Reset()
	SetFile(s).WriteTo(b)
	want = "SET RRRAAA(RRR, AAA) 'Assignment of areas to regions'\n/\nDK_1 . DK_1_A\nDK_2 . DK_2_A\n/\n;"
	if b.String() != want {
		t.Errorf("have:\n%q\nwant:\n%q", b.String(), want)
	}
}

func TestRead(t *testing.T) {
	const file = `* Data from Energinet Dataservice 2023
TABLE   DE1(RRR,DEUSER,YYY)   'Annual electricity consumption (MWh)'
                 2023     2050
Aabenraa . PII   10.5
Aabenraa . RESE   3.25   EPS
Aarhus . PII                 7
;
DE(YYY,RRR,DEUSER)=DE1(RRR,DEUSER,YYY);
DE1(RRR,DEUSER,YYY) = 0;

PARAMETER DISCOST_E(RRR)  'Cost of electricity distribution (Money/MWh)'
/
Aabenraa   5
Aarhus     5.5
/;

SET CCCRRR(CCC,RRR) 'Regions in countries'
/
DENMARK . Aabenraa
DENMARK . Aarhus
/
;
`
	syms, err := Read(strings.NewReader(file), "DE")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 3 {
		t.Fatalf("have %d symbols, want 3", len(syms))
	}

	de := syms[0]
	if de.Name != "DE1" || de.File != "DE" || de.Kind != Parameter {
		t.Errorf("unexpected symbol %s (%s) of kind %s", de.Name, de.File, de.Kind)
	}
	if !reflect.DeepEqual(de.Dims, []string{"RRR", "DEUSER", "YYY"}) {
		t.Errorf("dims: %v", de.Dims)
	}
	type rec struct {
		labels string
		value  float64
	}
	var have []rec
	for i, l := range de.Labels() {
		have = append(have, rec{strings.Join(l, ","), de.Values()[i]})
	}
	sort.Slice(have, func(i, j int) bool { return have[i].labels < have[j].labels })
	want := []rec{
		{"Aabenraa,PII,2023", 10.5},
		{"Aabenraa,RESE,2023", 3.25},
		{"Aabenraa,RESE,2050", 0},
		{"Aarhus,PII,2050", 7},
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("records: %s", pretty.Diff(have, want))
	}
	wantSuffix := "DE(YYY,RRR,DEUSER)=DE1(RRR,DEUSER,YYY);\nDE1(RRR,DEUSER,YYY) = 0;"
	if de.Suffix != wantSuffix {
		t.Errorf("suffix: %q != %q", de.Suffix, wantSuffix)
	}

	dc := syms[1]
	if dc.Name != "DISCOST_E" || dc.Len() != 2 || Total(dc) != 10.5 {
		t.Errorf("DISCOST_E: %s has %d records totalling %g", dc.Name, dc.Len(), Total(dc))
	}

	set := syms[2]
	if set.Kind != Set || !reflect.DeepEqual(set.Labels(), [][]string{{"DENMARK", "Aabenraa"}, {"DENMARK", "Aarhus"}}) {
		t.Errorf("set: %v", set.Labels())
	}
}

func TestWriteReadTable(t *testing.T) {
	f, err := TableFile(xkfx(t), []string{"YYY", "IRRRE"}, "IRRRI", KeepZeros)
	if err != nil {
		t.Fatal(err)
	}
	const dir = "tmp_incfile"
	defer os.RemoveAll(dir)
	path, err := f.Save(dir)
	if err != nil {
		t.Fatal(err)
	}
	syms, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 {
		t.Fatalf("have %d symbols", len(syms))
	}
	if have, want := Total(syms[0]), 2390.; have != want {
		t.Errorf("total %g != %g", have, want)
	}
	if syms[0].Len() != 4 {
		t.Errorf("have %d records, want 4", syms[0].Len())
	}
}

func TestGroupBy(t *testing.T) {
	s, err := NewSymbol("DE", "", Parameter, []string{"YYY", "RRR"},
		[][]string{{"2016", "CL0"}, {"2016", "CL0"}, {"2016", "CL1"}, {"2016", "CL1"}},
		[]float64{1, 2, 4, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		f    AggFunc
		want map[string]float64
	}{
		{f: Sum, want: map[string]float64{"CL0": 3, "CL1": 4}},
		{f: Mean, want: map[string]float64{"CL0": 1.5, "CL1": 4}},
		{f: Median, want: map[string]float64{"CL0": 1.5, "CL1": 4}},
	} {
		t.Run(string(test.f), func(t *testing.T) {
			g, err := GroupBy(s, test.f)
			if err != nil {
				t.Fatal(err)
			}
			have := make(map[string]float64)
			for i, l := range g.Labels() {
				have[l[1]] = g.Values()[i]
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("%v != %v", have, test.want)
			}
		})
	}
}

func TestGroupByExactLabels(t *testing.T) {
	labels := [][]string{{"X_Y", "Z"}, {"X", "Y_Z"}, {"NA", "1.50"}, {"2016", "007"}}
	s, err := NewSymbol("P", "", Parameter, []string{"A", "B"}, labels, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	g, err := GroupBy(s, Sum)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.Labels(), labels) {
		t.Errorf("labels: %# v", pretty.Formatter(g.Labels()))
	}
	if want := []float64{1, 2, 3, 4}; !reflect.DeepEqual(g.Values(), want) {
		t.Errorf("values: %v != %v", g.Values(), want)
	}
}

func TestGroupByMedianOdd(t *testing.T) {
	s, err := NewSymbol("P", "", Parameter, []string{"R"},
		[][]string{{"A"}, {"A"}, {"A"}, {"B"}}, []float64{9, 1, 4, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	g, err := GroupBy(s, Median)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 1 || g.Values()[0] != 4 {
		t.Errorf("%v %v", g.Labels(), g.Values())
	}
}
