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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// DistanceMatrix returns the distances in metres between the centroids
// of the regions after projecting them to the metric spatial reference
// given by metricProj.
func DistanceMatrix(regions Regions, metricProj string) (*sparse.DenseArray, error) {
	metric, err := projectRegions(regions, metricProj)
	if err != nil {
		return nil, err
	}
	c := metric.Centroids()
	d := sparse.ZerosDense(len(c), len(c))
	for i := range c {
		for j := i + 1; j < len(c); j++ {
			v := math.Hypot(c[i].X-c[j].X, c[i].Y-c[j].Y)
			d.Set(v, i, j)
			d.Set(v, j, i)
		}
	}
	return d, nil
}

func projectRegions(regions Regions, metricProj string) (Regions, error) {
	geo, err := proj.Parse(GeographicProj)
	if err != nil {
		panic(err)
	}
	metric, err := proj.Parse(metricProj)
	if err != nil {
		return nil, fmt.Errorf("balprep: parsing metric projection: %v", err)
	}
	return regions.Transform(geo, metric)
}

// indexedRegion is a region stored in a spatial index.
type indexedRegion struct {
	*Region
	i int
}

// touchingPairs returns the pairs of regions whose boundaries are
// within tol of each other. Regions are expected to be in a metric
// projection.
func touchingPairs(regions Regions, tol float64) [][2]int {
	tree := rtree.NewTree(25, 50)
	for i, r := range regions {
		tree.Insert(&indexedRegion{Region: r, i: i})
	}
	var pairs [][2]int
	for i, r := range regions {
		b := r.Bounds().Copy()
		b.Min.X -= tol
		b.Min.Y -= tol
		b.Max.X += tol
		b.Max.Y += tol
		for _, g := range tree.SearchIntersect(b) {
			j := g.(*indexedRegion).i
			if j <= i {
				continue
			}
			if boundaryDistance(r.Polygonal, regions[j].Polygonal, tol) <= tol {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// boundaryDistance returns the minimum distance between the rings of
// two polygons, stopping early once a distance of at most tol is
// found.
func boundaryDistance(a, b geom.Polygonal, tol float64) float64 {
	min := math.Inf(1)
	for _, pa := range a.Polygons() {
		for _, ra := range pa {
			for _, pb := range b.Polygons() {
				for _, rb := range pb {
					for i := 0; i < len(ra); i++ {
						a1, a2 := ra[i], ra[(i+1)%len(ra)]
						for j := 0; j < len(rb); j++ {
							d := segmentDistance(a1, a2, rb[j], rb[(j+1)%len(rb)])
							if d < min {
								min = d
								if min <= tol {
									return min
								}
							}
						}
					}
				}
			}
		}
	}
	return min
}

// segmentDistance returns the minimum distance between segments p1-p2
// and q1-q2.
func segmentDistance(p1, p2, q1, q2 geom.Point) float64 {
	if segmentsIntersect(p1, p2, q1, q2) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(p1, q1, q2), pointSegmentDistance(p2, q1, q2)),
		math.Min(pointSegmentDistance(q1, p1, p2), pointSegmentDistance(q2, p1, p2)),
	)
}

func pointSegmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func cross(o, a, b geom.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func onSegment(p, a, b geom.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect returns whether segments p1-p2 and q1-q2 share
// at least one point.
func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(p1, q1, q2):
		return true
	case d2 == 0 && onSegment(p2, q1, q2):
		return true
	case d3 == 0 && onSegment(q1, p1, p2):
		return true
	case d4 == 0 && onSegment(q2, p1, p2):
		return true
	}
	return false
}

// lineIntersects returns whether the polyline crosses or lies within
// the polygon.
func lineIntersects(line []geom.Point, p geom.Polygonal) bool {
	if len(line) == 0 {
		return false
	}
	if line[0].Within(p) != geom.Outside {
		return true
	}
	for _, poly := range p.Polygons() {
		for _, ring := range poly {
			for i := 0; i+1 < len(line); i++ {
				for j := 0; j < len(ring); j++ {
					if segmentsIntersect(line[i], line[i+1], ring[j], ring[(j+1)%len(ring)]) {
						return true
					}
				}
			}
		}
	}
	return false
}
