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
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Linkage is the criterion used to decide which clusters to merge.
type Linkage string

// Linkage criteria.
const (
	Ward     Linkage = "ward"
	Complete Linkage = "complete"
	Average  Linkage = "average"
	Single   Linkage = "single"
)

// ParseLinkage parses a linkage name, ignoring case.
func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(strings.ToLower(strings.TrimSpace(s))); l {
	case Ward, Complete, Average, Single:
		return l, nil
	default:
		return "", fmt.Errorf("balprep: invalid linkage %q; must be ward, complete, average, or single", s)
	}
}

// StandardScale centers each column of m on zero and scales it to
// unit (population) variance, in place. Columns with zero variance
// are only centered.
func StandardScale(m *mat.Dense) {
	r, c := m.Dims()
	if r == 0 {
		return
	}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, variance := stat.MeanVariance(col, nil)
		std := 1.
		if r > 1 {
			std = math.Sqrt(variance * float64(r-1) / float64(r))
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		floats.AddConst(-mean, col)
		floats.Scale(1/std, col)
		m.SetCol(j, col)
	}
}

// Agglomerative performs bottom-up hierarchical clustering of the rows
// of x until n clusters remain. If conn is not nil, only clusters that
// contain connected rows may be merged, and for the complete, average,
// and single linkages the distance between two clusters only accounts
// for the pairs of connected sides. Components of conn that are not
// connected to each other are first joined at their closest pair of
// rows, so exactly n clusters are always formed.
//
// The returned labels are numbered in order of first appearance.
func Agglomerative(x mat.Matrix, n int, linkage Linkage, conn *Connectivity) ([]int, error) {
	rows, cols := x.Dims()
	if n < 1 || n > rows {
		return nil, fmt.Errorf("balprep: cannot form %d clusters from %d regions", n, rows)
	}
	if conn != nil && conn.Len() != rows {
		return nil, fmt.Errorf("balprep: connectivity has %d regions but there are %d feature rows", conn.Len(), rows)
	}
	switch linkage {
	case Ward, Complete, Average, Single:
	default:
		return nil, fmt.Errorf("balprep: invalid linkage %q", linkage)
	}

	d := make([][]float64, rows)
	adj := make([][]bool, rows)
	for i := range d {
		d[i] = make([]float64, rows)
		adj[i] = make([]bool, rows)
	}
	ri := make([]float64, cols)
	rj := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(ri, i, x)
		for j := i + 1; j < rows; j++ {
			mat.Row(rj, j, x)
			v := floats.Distance(ri, rj, 2)
			d[i][j], d[j][i] = v, v
			connected := conn == nil || conn.Connected(i, j) || conn.Connected(j, i)
			adj[i][j], adj[j][i] = connected, connected
		}
	}
	joinComponents(adj, d)

	size := make([]float64, rows)
	active := make([]bool, rows)
	parent := make([]int, rows)
	for i := range size {
		size[i] = 1
		active[i] = true
		parent[i] = i
	}

	for clusters := rows; clusters > n; clusters-- {
		a, b := -1, -1
		best := math.Inf(1)
		for i := 0; i < rows; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < rows; j++ {
				if active[j] && adj[i][j] && (a < 0 || d[i][j] < best) {
					best, a, b = d[i][j], i, j
				}
			}
		}
		if a < 0 {
			return nil, fmt.Errorf("balprep: no connected clusters remain to merge")
		}
		// Merge b into a using the Lance-Williams update. Ward distances
		// are kept for every pair; the other linkages only combine the
		// sides that are connected to k.
		for k := 0; k < rows; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			inA, inB := adj[a][k], adj[b][k]
			var v float64
			switch {
			case linkage == Ward:
				t := size[a] + size[b] + size[k]
				v = math.Sqrt(math.Max(0, ((size[a]+size[k])*d[a][k]*d[a][k]+
					(size[b]+size[k])*d[b][k]*d[b][k]-
					size[k]*d[a][b]*d[a][b])/t))
			case inA && inB:
				switch linkage {
				case Complete:
					v = math.Max(d[a][k], d[b][k])
				case Single:
					v = math.Min(d[a][k], d[b][k])
				case Average:
					v = (size[a]*d[a][k] + size[b]*d[b][k]) / (size[a] + size[b])
				}
			case inA:
				v = d[a][k]
			case inB:
				v = d[b][k]
			default:
				continue
			}
			d[a][k], d[k][a] = v, v
			adj[a][k] = inA || inB
			adj[k][a] = adj[a][k]
		}
		size[a] += size[b]
		active[b] = false
		parent[b] = a
	}

	root := func(i int) int {
		for parent[i] != i {
			i = parent[i]
		}
		return i
	}
	labels := make([]int, rows)
	ids := make(map[int]int)
	for i := range labels {
		r := root(i)
		id, ok := ids[r]
		if !ok {
			id = len(ids)
			ids[r] = id
		}
		labels[i] = id
	}
	return labels, nil
}

// joinComponents connects each pair of components of the adjacency
// matrix adj at the pair of rows with the smallest distance in d.
func joinComponents(adj [][]bool, d [][]float64) {
	n := len(adj)
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	var comps [][]int
	for start := 0; start < n; start++ {
		if comp[start] >= 0 {
			continue
		}
		c := len(comps)
		members := []int{start}
		comp[start] = c
		for k := 0; k < len(members); k++ {
			i := members[k]
			for j := 0; j < n; j++ {
				if comp[j] < 0 && adj[i][j] {
					comp[j] = c
					members = append(members, j)
				}
			}
		}
		comps = append(comps, members)
	}
	for ci := 0; ci < len(comps); ci++ {
		for cj := ci + 1; cj < len(comps); cj++ {
			a, b := -1, -1
			best := math.Inf(1)
			for _, i := range comps[ci] {
				for _, j := range comps[cj] {
					if d[i][j] < best || a < 0 {
						best, a, b = d[i][j], i, j
					}
				}
			}
			adj[a][b], adj[b][a] = true, true
		}
	}
}

// ClusterName returns the name of the cluster with the given label.
func ClusterName(label int) string { return fmt.Sprintf("CL%d", label) }

// Clustering assigns each region to a cluster.
type Clustering struct {
	Regions []string
	Labels  []int
}

// NumClusters returns the number of distinct clusters.
func (c *Clustering) NumClusters() int {
	seen := make(map[int]bool)
	for _, l := range c.Labels {
		seen[l] = true
	}
	return len(seen)
}

// Map returns the cluster name of each region.
func (c *Clustering) Map() map[string]string {
	out := make(map[string]string, len(c.Regions))
	for i, r := range c.Regions {
		out[r] = ClusterName(c.Labels[i])
	}
	return out
}

// Members returns the regions in each cluster, indexed by label.
// Regions keep their order within each cluster.
func (c *Clustering) Members() [][]string {
	n := 0
	for _, l := range c.Labels {
		if l+1 > n {
			n = l + 1
		}
	}
	out := make([][]string, n)
	for i, r := range c.Regions {
		out[c.Labels[i]] = append(out[c.Labels[i]], r)
	}
	return out
}

// ClusterOptions specify how regions are clustered.
type ClusterOptions struct {
	// N is the requested number of clusters.
	N int

	Linkage Linkage

	// Connectivity, if not nil, restricts merges to connected
	// regions. It is reordered to match the feature rows.
	Connectivity *Connectivity
}

// Cluster scales the features and clusters the regions.
func Cluster(f *Features, o ClusterOptions, log logrus.FieldLogger) (*Clustering, error) {
	x := f.Matrix()
	StandardScale(x)
	var conn *Connectivity
	if o.Connectivity != nil {
		conn = o.Connectivity.Reorder(f.Regions)
		conn.Symmetrize(log)
		for _, r := range conn.Isolated() {
			log.WithField("region", r).Warn("region is not connected to any other region")
		}
		if nc := len(conn.Components()); nc > 1 {
			log.Warnf("connectivity has %d components; joining them at their closest regions", nc)
		}
	}
	labels, err := Agglomerative(x, o.N, o.Linkage, conn)
	if err != nil {
		return nil, err
	}
	c := &Clustering{Regions: f.Regions, Labels: labels}
	log.Infof("clustered %d regions into %d clusters using %s linkage", len(f.Regions), c.NumClusters(), o.Linkage)
	return c, nil
}
