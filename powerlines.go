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
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// KVToMW gives the assumed transmission capacity in MW of power lines
// by voltage in kV.
var KVToMW = map[float64]float64{
	132: 100,
	220: 200,
	300: 300,
	380: 400,
	500: 900,
	750: 2200,
}

// PowerLine is a record of a power line registry such as the ENTSO-E
// grid extract.
type PowerLine struct {
	ID       string `csv:"link_id"`
	Voltage  string `csv:"voltage"`
	Geometry string `csv:"geometry"`
}

// ReadPowerLines reads power line records from CSV. quote is the
// character used to quote fields; registries exported with single
// quotes around the WKT geometry use '\''.
func ReadPowerLines(r io.Reader, quote rune) ([]*PowerLine, error) {
	if quote != '"' {
		b, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("balprep: reading power lines: %v", err)
		}
		r = strings.NewReader(strings.NewReplacer(string(quote), `"`, `"`, string(quote)).Replace(string(b)))
	}
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	var lines []*PowerLine
	if err := gocsv.UnmarshalCSV(cr, &lines); err != nil {
		return nil, fmt.Errorf("balprep: reading power lines: %v", err)
	}
	return lines, nil
}

// Capacity returns the assumed capacity of the line in MW. ok is
// false if the line has no voltage or a voltage not in KVToMW.
func (l *PowerLine) Capacity() (mw float64, ok bool) {
	if strings.TrimSpace(l.Voltage) == "" {
		return 0, false
	}
	kv, err := parseFloat(l.Voltage)
	if err != nil {
		return 0, false
	}
	mw, ok = KVToMW[kv]
	return mw, ok
}

// Paths returns the vertices of each part of the line geometry.
func (l *PowerLine) Paths() ([][]geom.Point, error) {
	g, err := wkt.Unmarshal(l.Geometry)
	if err != nil {
		return nil, fmt.Errorf("balprep: power line %s: %v", l.ID, err)
	}
	path := func(ls *gogeom.LineString) []geom.Point {
		c := ls.Coords()
		out := make([]geom.Point, len(c))
		for i, p := range c {
			out[i] = geom.Point{X: p.X(), Y: p.Y()}
		}
		return out
	}
	switch t := g.(type) {
	case *gogeom.LineString:
		return [][]geom.Point{path(t)}, nil
	case *gogeom.MultiLineString:
		out := make([][]geom.Point, t.NumLineStrings())
		for i := range out {
			out[i] = path(t.LineString(i))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("balprep: power line %s has geometry type %T; it needs to be a line", l.ID, g)
	}
}

func pathBounds(paths [][]geom.Point) *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range paths {
		for _, pt := range p {
			b.Extend(pt.Bounds())
		}
	}
	return b
}

// LineCapacities sums the capacity of the power lines between
// neighbouring regions. A line adds its capacity between every pair of
// regions that it intersects and that are within tol metres of each
// other in metricProj. The returned matrix holds capacities in MW.
func LineCapacities(regions Regions, lines []*PowerLine, metricProj string, tol float64, log logrus.FieldLogger) (*Connectivity, error) {
	touch, err := TouchConnectivity(regions, metricProj, tol)
	if err != nil {
		return nil, err
	}
	tree := rtree.NewTree(25, 50)
	for i, r := range regions {
		tree.Insert(&indexedRegion{Region: r, i: i})
	}
	out := NewConnectivity(regions.Names())
	var skipped int
	for _, l := range lines {
		mw, ok := l.Capacity()
		if !ok {
			skipped++
			continue
		}
		paths, err := l.Paths()
		if err != nil {
			return nil, err
		}
		var hit []int
		for _, g := range tree.SearchIntersect(pathBounds(paths)) {
			r := g.(*indexedRegion)
			for _, p := range paths {
				if lineIntersects(p, r.Polygonal) {
					hit = append(hit, r.i)
					break
				}
			}
		}
		sort.Ints(hit)
		for _, i := range hit {
			for _, j := range hit {
				if i != j && touch.Connected(i, j) {
					out.DenseArray.Set(out.Get(i, j)+mw, i, j)
				}
			}
		}
	}
	if skipped > 0 {
		log.Warnf("skipped %d power lines without a known voltage", skipped)
	}
	return out, nil
}

// XKFXFile creates the initial transmission capacity table from a
// capacity matrix.
func XKFXFile(c *Connectivity) (*incfile.File, error) {
	s, err := pairSymbol(c.Names, "XKFX", "Initial transmission capacity between regions", BaseYear,
		func(i, j int) (float64, error) { return c.Get(i, j), nil })
	if err != nil {
		return nil, err
	}
	return matrixFile(s, s.Name,
		fmt.Sprintf("\nXKFX(YYY,IRRRE,IRRRI)$(YYY.VAL GT %[1]s) = XKFX('%[1]s',IRRRE,IRRRI);", BaseYear))
}
