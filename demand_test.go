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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/balprep/incfile"
)

const testElectricityDemand = `year,user,municipality,week,hour,value
2022,residential,Århus,1,1,10
2022,industry,Århus,1,1,5
2022,industry,Århus,1,2,3
2023,residential,Odense,1,1,7
`

const testHeatDemand = `year,user,municipality,value
2019,district_heating,Køge,100
2019,industry_phh,Køge,20
2019,individual,Køge,30
2020,district_heating,Køge,110
`

func readTestDemand(t *testing.T, data, name string) *incfile.Symbol {
	s, err := ReadDemandCSV(strings.NewReader(data), name)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testPreset(t *testing.T, name string) *Converter {
	c, err := DefaultConversions().Preset(name)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestReadDemandCSV(t *testing.T) {
	s := readTestDemand(t, testElectricityDemand, ElectricityDemandVar)
	if want := []string{"year", "user", "municipality", "week", "hour"}; !reflect.DeepEqual(s.Dims, want) {
		t.Errorf("electricity dims: %v", s.Dims)
	}
	h := readTestDemand(t, testHeatDemand, HeatDemandVar)
	if want := []string{"year", "user", "municipality"}; !reflect.DeepEqual(h.Dims, want) {
		t.Errorf("heat dims: %v", h.Dims)
	}
	if _, err := ReadDemandCSV(strings.NewReader("year,user,municipality,week,hour,value\n2022,a,b,1,,3\n"), "x"); err == nil {
		t.Error("expected an error for a record without an hour")
	}
}

func TestSumTo(t *testing.T) {
	s := readTestDemand(t, testElectricityDemand, ElectricityDemandVar)
	sum, err := SumTo(s, []string{"municipality", "year"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"Århus,2022": 18, "Odense,2023": 7}
	if have := valueMap(sum); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if _, err := SumTo(s, []string{"region"}); err == nil {
		t.Error("expected an error for a missing dimension")
	}
}

func TestElectricityDemandFiles(t *testing.T) {
	s := readTestDemand(t, testElectricityDemand, ElectricityDemandVar)
	o := DemandOptions{Source: "Energinet", ProjectionYear: "2050"}
	files, err := ElectricityDemandFiles(s, testPreset(t, "electricity"), o, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Name != "DE" || files[1].Name != "DE_VAR_T" {
		t.Fatalf("files: %# v", pretty.Formatter(files))
	}
	b := new(bytes.Buffer)
	files[0].WriteTo(b)
	want := "* Energinet\n" +
		"TABLE DE1(RRR,DEUSER,YYY) 'Annual electricity consumption (MWh)'\n" +
		"               2022  2023\n" +
		"Aarhus . PII      8\n" +
		"Aarhus . RESE    10\n" +
		"Odense . RESE           7\n" +
		";\n" +
		"DE(YYY,RRR,DEUSER)=DE1(RRR,DEUSER,YYY);\n" +
		"DE('2050',RRR,DEUSER) = DE('2023', RRR, DEUSER);\n" +
		"DE1(RRR,DEUSER,YYY) = 0;"
	if b.String() != want {
		t.Errorf("have:\n%s\nwant:\n%s", b.String(), want)
	}

	vart := files[1]
	if !strings.HasPrefix(vart.Prefix, "* Energinet\nTABLE DE_VAR_T1(DEUSER,SSS,TTT,RRR) 'Variation in electricity demand'") {
		t.Errorf("DE_VAR_T prefix: %q", vart.Prefix)
	}
	lines := strings.Split(vart.Body, "\n")
	if len(lines) != 4 || strings.Fields(lines[0])[0] != "Aarhus" {
		t.Errorf("DE_VAR_T body:\n%s", vart.Body)
	}
	if !strings.Contains(vart.Suffix, "DE_VAR_T(RRR,DEUSER,SSS,TTT) =  DE_VAR_T1(DEUSER,SSS,TTT,RRR);") {
		t.Errorf("DE_VAR_T suffix: %q", vart.Suffix)
	}

	o.ProjectionYear = ""
	files, err = ElectricityDemandFiles(s, testPreset(t, "electricity"), o, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(files[0].Suffix, "DE('") {
		t.Errorf("no projection was requested: %q", files[0].Suffix)
	}
}

func TestHeatDemandFiles(t *testing.T) {
	s := readTestDemand(t, testHeatDemand, HeatDemandVar)
	files, areas, err := HeatDemandFiles(s, testPreset(t, "heat"), DemandOptions{}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if want := []string{"DH", "INDUSTRY_DH", "INDIVUSERS_DH"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names: have %v, want %v", names, want)
	}
	wantAreas := map[string][]string{"Koege": {"Koege_A", "Koege_IND-HT-NODH", "Koege_IDVU-SPACEHEAT"}}
	if !reflect.DeepEqual(areas, wantAreas) {
		t.Errorf("areas: have %v, want %v", areas, wantAreas)
	}
	b := new(bytes.Buffer)
	files[0].WriteTo(b)
	want := "PARAMETER DH(YYY,AAA,DHUSER)  'Annual brutto heat consumption';\n" +
		"TABLE DH1(DHUSER,AAA,YYY)\n" +
		"                2019  2020\n" +
		"RESH . Koege_A   100   110\n" +
		";\n" +
		"DH(YYY,AAA,DHUSER)  = DH1(DHUSER,AAA,YYY);\n" +
		"DH1(DHUSER,AAA,YYY) = 0;\n" +
		"DH('2020',AAA,DHUSER) = DH('2020', AAA, DHUSER);"
	if b.String() != want {
		t.Errorf("have:\n%s\nwant:\n%s", b.String(), want)
	}
	if strings.Contains(files[2].Prefix, "PARAMETER DH") {
		t.Error("individual user file should not declare DH")
	}
	if !strings.Contains(files[2].Body, "RESIDENTIAL . Koege_IDVU-SPACEHEAT    30") {
		t.Errorf("individual user body:\n%s", files[2].Body)
	}
}

func TestIndustryHeatVariationFiles(t *testing.T) {
	s := readTestDemand(t, testElectricityDemand, ElectricityDemandVar)
	files, err := IndustryHeatVariationFiles(s, testPreset(t, "electricity"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("have %d files", len(files))
	}
	want := "            Aarhus_IND-MT-NODH\nS01 . T001                   5\nS01 . T002                   3"
	if files[1].Body != want {
		t.Errorf("have:\n%s\nwant:\n%s", files[1].Body, want)
	}
	if !strings.Contains(files[0].Suffix, "$INCLUDE '../data/INDUSTRY_DH_VAR_T3.inc'") {
		t.Errorf("first file should include the others: %q", files[0].Suffix)
	}
	if strings.Contains(files[2].Suffix, "$INCLUDE") {
		t.Errorf("last file should not include others: %q", files[2].Suffix)
	}
	if !strings.Contains(files[2].Suffix, "DH_VAR_T(AAA,'IND-PHL',SSS,TTT)$(SUM((S,T), DH_VAR_T_INDLT(S,T,AAA))) = DH_VAR_T_INDLT(SSS,TTT,AAA);") {
		t.Errorf("low temperature suffix: %q", files[2].Suffix)
	}

	noIndustry := readTestDemand(t, "year,user,municipality,week,hour,value\n2022,residential,Odense,1,1,1\n", ElectricityDemandVar)
	if _, err := IndustryHeatVariationFiles(noIndustry, testPreset(t, "electricity"), testLogger()); err == nil {
		t.Error("expected an error without industry demand")
	}
}

func TestSymbolCDF(t *testing.T) {
	s, err := incfile.NewSymbol("demand", "Demand (MWh)", incfile.Parameter,
		[]string{"year", "user", "municipality"},
		[][]string{
			{"2022", "residential", "Aarhus"},
			{"2022", "industry", "Odense"},
		},
		[]float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "demand.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := WriteSymbolCDF(f, s, ElectricityDemandVar); err != nil {
		t.Fatal(err)
	}
	s2, err := ReadSymbolCDF(f, ElectricityDemandVar)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s2.Dims, s.Dims) {
		t.Errorf("dims: have %v, want %v", s2.Dims, s.Dims)
	}
	if s2.Len() != 4 {
		t.Errorf("have %d records; want 4", s2.Len())
	}
	have := make(map[string]float64)
	for k, v := range valueMap(s2) {
		if !math.IsNaN(v) {
			have[k] = v
		}
	}
	want := map[string]float64{"2022,residential,Aarhus": 1, "2022,industry,Odense": 2}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if _, err := ReadSymbolCDF(f, HeatDemandVar); err == nil {
		t.Error("expected an error for a missing variable")
	}
}
