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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/balprep/incfile"
)

func TestTouchConnectivity(t *testing.T) {
	c, err := TouchConnectivity(testRegions(), MetricProj, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i != j && !c.Connected(i, j) {
				t.Errorf("%s and %s should touch", c.Names[i], c.Names[j])
			}
		}
		if c.Connected(i, 4) || c.Connected(4, i) {
			t.Errorf("%s should not touch DK_5", c.Names[i])
		}
	}
	if !c.Symmetric() {
		t.Error("not symmetric")
	}
	if have, want := c.Isolated(), []string{"DK_5"}; !reflect.DeepEqual(have, want) {
		t.Errorf("isolated: have %v, want %v", have, want)
	}
	if have, want := c.Components(), [][]int{{0, 1, 2, 3}, {4}}; !reflect.DeepEqual(have, want) {
		t.Errorf("components: have %v, want %v", have, want)
	}
}

func TestDistanceConnectivity(t *testing.T) {
	c, err := DistanceConnectivity(testRegions(), MetricProj, 8000)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Connected(0, 1) || !c.Connected(2, 3) {
		t.Error("horizontal neighbours should be connected")
	}
	if c.Connected(0, 2) || c.Connected(0, 4) || c.Connected(0, 0) {
		t.Error("regions more than 8 km apart should not be connected")
	}
}

func TestParseLinks(t *testing.T) {
	links, err := ParseLinks([]string{"DK_1:DK_5", "DK_2:DK_5:0.5"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Link{{"DK_1", "DK_5", 1}, {"DK_2", "DK_5", 0.5}}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("have %v, want %v", links, want)
	}
	for _, bad := range []string{"DK_1", "DK_1:DK_2:x", "a:b:c:d"} {
		if _, err := ParseLinks([]string{bad}); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}

	c := NewConnectivity(testRegions().Names())
	c.ApplyLinks(append(links, Link{"DK_1", "DK_9", 1}), testLogger())
	if c.Get(0, 4) != 1 || c.Get(4, 0) != 1 || c.Get(1, 4) != 0.5 {
		t.Errorf("links not applied: %v", c.Elements)
	}
}

func TestSymmetrize(t *testing.T) {
	c := NewConnectivity([]string{"a", "b", "c"})
	c.DenseArray.Set(1, 0, 1)
	c.DenseArray.Set(2, 2, 1)
	c.DenseArray.Set(3, 1, 2)
	if c.Symmetric() {
		t.Fatal("should not be symmetric")
	}
	c.Symmetrize(testLogger())
	want := []float64{
		0, 1, 0,
		1, 0, 3,
		0, 3, 0,
	}
	if !reflect.DeepEqual(c.Elements, want) {
		t.Errorf("have %v, want %v", c.Elements, want)
	}
}

func TestReorder(t *testing.T) {
	c := NewConnectivity([]string{"a", "b", "c"})
	if err := c.Set("a", "c", 1); err != nil {
		t.Fatal(err)
	}
	r := c.Reorder([]string{"c", "x", "a"})
	want := []float64{
		0, 0, 1,
		0, 0, 0,
		1, 0, 0,
	}
	if !reflect.DeepEqual(r.Elements, want) {
		t.Errorf("have %v, want %v", r.Elements, want)
	}
	if err := r.Set("a", "b", 1); err == nil {
		t.Error("setting a missing region should fail")
	}
}

func TestConnectivityFromXINVCOST(t *testing.T) {
	s, err := incfile.NewSymbol("XINVCOST", "", incfile.Parameter,
		[]string{"YYY", "IRRRE", "IRRRI"},
		[][]string{
			{"2016", "DK_1", "DK_2"},
			{"2016", "DK_2", "DK_1"},
			{"2016", "DK_2", "DK_3"},
			{"2016", "DK_3", "DK_3"},
			{"2030", "DK_3", "DK_4"},
		},
		[]float64{10, 10, 0, 5, 7})
	if err != nil {
		t.Fatal(err)
	}
	c, err := ConnectivityFromXINVCOST(s, "2016", []string{"DK_5"})
	if err != nil {
		t.Fatal(err)
	}
	if have, want := c.Names, []string{"DK_1", "DK_2", "DK_3", "DK_4", "DK_5"}; !reflect.DeepEqual(have, want) {
		t.Errorf("names: have %v, want %v", have, want)
	}
	want := []float64{
		0, 1, 0, 0, 0,
		1, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	}
	if !reflect.DeepEqual(c.Elements, want) {
		t.Errorf("have %v, want %v", c.Elements, want)
	}
}

func TestConnectivityCDF(t *testing.T) {
	c, err := TouchConnectivity(testRegions(), MetricProj, 1)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "connectivity.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := c.WriteCDF(f); err != nil {
		t.Fatal(err)
	}
	c2, err := ReadConnectivityCDF(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Names, c2.Names) || !reflect.DeepEqual(c.Elements, c2.Elements) {
		t.Errorf("round trip changed the matrix: %s", pretty.Diff(c.Elements, c2.Elements))
	}
}
