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
	"io/ioutil"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// square returns a region covering the 0.1 degree square whose lower
// left corner is at (9+0.1*x, 55+0.1*y).
func square(name string, x, y float64) *Region {
	x0, y0 := 9+0.1*x, 55+0.1*y
	return &Region{
		Name:    name,
		Country: "DK",
		Polygonal: geom.Polygon{{
			{X: x0, Y: y0},
			{X: x0 + 0.1, Y: y0},
			{X: x0 + 0.1, Y: y0 + 0.1},
			{X: x0, Y: y0 + 0.1},
		}},
	}
}

// testRegions returns a 2x2 block of squares and one square far away:
//
//	DK_3 DK_4
//	DK_1 DK_2         DK_5
func testRegions() Regions {
	return Regions{
		square("DK_1", 0, 0),
		square("DK_2", 1, 0),
		square("DK_3", 0, 1),
		square("DK_4", 1, 1),
		square("DK_5", 10, 0),
	}
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func TestRegions(t *testing.T) {
	r := testRegions()
	if have, want := r.Names(), []string{"DK_1", "DK_2", "DK_3", "DK_4", "DK_5"}; !reflect.DeepEqual(have, want) {
		t.Errorf("names: have %v, want %v", have, want)
	}
	if i := r.Index()["DK_4"]; i != 3 {
		t.Errorf("index of DK_4 = %d", i)
	}
	c := r.Centroids()[0]
	if math.Abs(c.X-9.05) > 1e-9 || math.Abs(c.Y-55.05) > 1e-9 {
		t.Errorf("centroid of DK_1 = %v", c)
	}
}

func TestDistanceMatrix(t *testing.T) {
	d, err := DistanceMatrix(testRegions(), MetricProj)
	if err != nil {
		t.Fatal(err)
	}
	// 0.1 degrees of longitude at 55°N is about 6.4 km and 0.1
	// degrees of latitude about 11.1 km.
	if v := d.Get(0, 1); v < 6000 || v > 6800 {
		t.Errorf("DK_1-DK_2 distance %g m", v)
	}
	if v := d.Get(0, 2); v < 10800 || v > 11400 {
		t.Errorf("DK_1-DK_3 distance %g m", v)
	}
	if d.Get(1, 0) != d.Get(0, 1) || d.Get(2, 2) != 0 {
		t.Error("distance matrix is not symmetric with a zero diagonal")
	}
}

func TestLineIntersects(t *testing.T) {
	p := square("a", 0, 0).Polygonal
	tests := []struct {
		line []geom.Point
		want bool
	}{
		{[]geom.Point{{X: 8.9, Y: 55.05}, {X: 9.2, Y: 55.05}}, true},
		{[]geom.Point{{X: 9.02, Y: 55.02}, {X: 9.03, Y: 55.03}}, true},
		{[]geom.Point{{X: 8.9, Y: 54.9}, {X: 8.95, Y: 55.3}}, false},
	}
	for i, test := range tests {
		if have := lineIntersects(test.line, p); have != test.want {
			t.Errorf("%d: have %v, want %v", i, have, test.want)
		}
	}
}
