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
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
)

// Connectivity is a square matrix describing which regions are
// neighbours. A non-zero element means the two regions are connected.
type Connectivity struct {
	// Names holds the region names in matrix order.
	Names []string

	*sparse.DenseArray

	index map[string]int
}

// NewConnectivity returns an empty connectivity matrix for the
// given regions.
func NewConnectivity(names []string) *Connectivity {
	c := &Connectivity{
		Names:      append([]string(nil), names...),
		DenseArray: sparse.ZerosDense(len(names), len(names)),
		index:      make(map[string]int, len(names)),
	}
	for i, n := range names {
		c.index[n] = i
	}
	return c
}

// Len returns the number of regions.
func (c *Connectivity) Len() int { return len(c.Names) }

// Connected returns whether regions i and j are connected.
func (c *Connectivity) Connected(i, j int) bool { return c.Get(i, j) != 0 }

// Set sets the connection value between regions a and b in
// both directions.
func (c *Connectivity) Set(a, b string, v float64) error {
	i, ok := c.index[a]
	if !ok {
		return fmt.Errorf("balprep: region %s is not in the connectivity matrix", a)
	}
	j, ok := c.index[b]
	if !ok {
		return fmt.Errorf("balprep: region %s is not in the connectivity matrix", b)
	}
	c.DenseArray.Set(v, i, j)
	c.DenseArray.Set(v, j, i)
	return nil
}

// Link is a manual connectivity correction.
type Link struct {
	A, B  string
	Value float64
}

// DKMunicipalityLinks connect Danish municipalities that are linked by
// bridges or sea cables but whose boundaries do not touch.
var DKMunicipalityLinks = []Link{
	{"DK_5_8_1", "DK_5_13_1", 1},
	{"DK_4_13_1", "DK_5_15_1", 1},
	{"DK_4_3_1", "DK_4_17_1", 1},
	{"DK_4_9_1", "DK_4_17_1", 1},
	{"DK_4_8_1", "DK_5_12_1", 1},
	{"DK_5_12_1", "DK_5_18_1", 1},
	{"DK_5_6_1", "DK_5_17_1", 1},
	{"DK_2_13_1", "DK_4_5_1", 1},
	{"DK_2_10_1", "DK_2_13_1", 1},
	{"DK_3_3_1", "DK_3_6_1", 1},
	{"DK_5_3_1", "DK_5_9_1", 1},
	{"DK_2_16_1", "DK_3_8_1", 1},
	{"DK_3_8_1", "DK_3_10_1", 1},
	{"DK_2_16_1", "DK_3_11_1", 1},
}

// ParseLinks parses manual connectivity corrections in the form
// "a:b:value", where ":value" may be omitted and defaults to 1.
func ParseLinks(s []string) ([]Link, error) {
	out := make([]Link, 0, len(s))
	for _, l := range s {
		parts := strings.Split(l, ":")
		switch len(parts) {
		case 2:
			out = append(out, Link{A: parts[0], B: parts[1], Value: 1})
		case 3:
			v, err := parseFloat(parts[2])
			if err != nil {
				return nil, fmt.Errorf("balprep: invalid connection value in %q: %v", l, err)
			}
			out = append(out, Link{A: parts[0], B: parts[1], Value: v})
		default:
			return nil, fmt.Errorf("balprep: invalid connection %q; format must be a:b or a:b:value", l)
		}
	}
	return out, nil
}

// ApplyLinks sets the given connections in both directions.
// Links between regions that are not in the matrix are skipped
// with a warning.
func (c *Connectivity) ApplyLinks(links []Link, log logrus.FieldLogger) {
	for _, l := range links {
		if err := c.Set(l.A, l.B, l.Value); err != nil {
			log.WithField("region", l.A+"-"+l.B).Warn(err)
		}
	}
}

// Symmetric returns whether the matrix equals its transpose.
func (c *Connectivity) Symmetric() bool {
	n := c.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if c.Get(i, j) != c.Get(j, i) {
				return false
			}
		}
	}
	return true
}

// Symmetrize makes the matrix symmetric by taking the larger of each
// pair of mirrored elements. It logs a warning if the matrix was
// not already symmetric.
func (c *Connectivity) Symmetrize(log logrus.FieldLogger) {
	if c.Symmetric() {
		return
	}
	log.Warn("connectivity matrix is not symmetric; using the larger of each mirrored pair")
	n := c.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := c.Get(i, j)
			if w := c.Get(j, i); w > v {
				v = w
			}
			c.DenseArray.Set(v, i, j)
			c.DenseArray.Set(v, j, i)
		}
	}
}

// Isolated returns the names of regions that are connected to no
// other region.
func (c *Connectivity) Isolated() []string {
	var out []string
	n := c.Len()
	for i := 0; i < n; i++ {
		connected := false
		for j := 0; j < n; j++ {
			if i != j && c.Connected(i, j) {
				connected = true
				break
			}
		}
		if !connected {
			out = append(out, c.Names[i])
		}
	}
	return out
}

// Components returns the connected components of the matrix as lists
// of region indices. Components are ordered by their smallest index.
func (c *Connectivity) Components() [][]int {
	n := c.Len()
	seen := make([]bool, n)
	var out [][]int
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for k := 0; k < len(comp); k++ {
			i := comp[k]
			for j := 0; j < n; j++ {
				if !seen[j] && i != j && c.Connected(i, j) {
					seen[j] = true
					comp = append(comp, j)
				}
			}
		}
		sort.Ints(comp)
		out = append(out, comp)
	}
	return out
}

// Reorder returns a copy of the matrix with its regions in the order
// given by names. Regions missing from c are left unconnected.
func (c *Connectivity) Reorder(names []string) *Connectivity {
	out := NewConnectivity(names)
	for i, a := range names {
		ci, ok := c.index[a]
		if !ok {
			continue
		}
		for j, b := range names {
			if cj, ok := c.index[b]; ok {
				out.DenseArray.Set(c.Get(ci, cj), i, j)
			}
		}
	}
	return out
}

// TouchConnectivity connects regions whose boundaries are within tol
// metres of each other after projecting to metricProj.
func TouchConnectivity(regions Regions, metricProj string, tol float64) (*Connectivity, error) {
	metric, err := projectRegions(regions, metricProj)
	if err != nil {
		return nil, err
	}
	c := NewConnectivity(regions.Names())
	for _, p := range touchingPairs(metric, tol) {
		c.DenseArray.Set(1, p[0], p[1])
		c.DenseArray.Set(1, p[1], p[0])
	}
	return c, nil
}

// DistanceConnectivity connects regions whose centroids are at most
// maxDist metres apart.
func DistanceConnectivity(regions Regions, metricProj string, maxDist float64) (*Connectivity, error) {
	d, err := DistanceMatrix(regions, metricProj)
	if err != nil {
		return nil, err
	}
	c := NewConnectivity(regions.Names())
	for i := range regions {
		for j := range regions {
			if i != j && d.Get(i, j) <= maxDist {
				c.DenseArray.Set(1, i, j)
			}
		}
	}
	return c, nil
}

// ConnectivityFromXINVCOST connects every pair of regions with an
// investment cost entry in the given year of an XINVCOST symbol
// with dimensions (YYY, IRRRE, IRRRI). Regions that only appear in
// names are included unconnected.
func ConnectivityFromXINVCOST(s *incfile.Symbol, year string, names []string) (*Connectivity, error) {
	if len(s.Dims) != 3 {
		return nil, fmt.Errorf("balprep: %s has dimensions %v; want (YYY, IRRRE, IRRRI)", s.Name, s.Dims)
	}
	labels := s.Labels()
	values := s.Values()
	regionSet := make(map[string]bool)
	for _, n := range names {
		regionSet[n] = true
	}
	for _, l := range labels {
		regionSet[l[1]] = true
		regionSet[l[2]] = true
	}
	all := make([]string, 0, len(regionSet))
	for n := range regionSet {
		all = append(all, n)
	}
	sort.Strings(all)
	c := NewConnectivity(all)
	for i, l := range labels {
		if year != "" && l[0] != year {
			continue
		}
		if values[i] == 0 || l[1] == l[2] {
			continue
		}
		if err := c.Set(l[1], l[2], 1); err != nil {
			return nil, err
		}
	}
	return c, nil
}

const connectivityVar = "connection"

// WriteCDF writes the matrix to w in netCDF format as the variable
// "connection" over dimensions IRRRE and IRRRI. The region names
// are stored in the "regions" attribute, separated by newlines.
func (c *Connectivity) WriteCDF(w cdf.ReaderWriterAt) error {
	n := c.Len()
	h := cdf.NewHeader([]string{"IRRRE", "IRRRI"}, []int{n, n})
	h.AddAttribute("", "comment", "Connectivity between regions")
	h.AddVariable(connectivityVar, []string{"IRRRE", "IRRRI"}, []float64{0})
	h.AddAttribute(connectivityVar, "description", "1 if the regions are connected, otherwise 0")
	h.AddAttribute(connectivityVar, "regions", strings.Join(c.Names, "\n"))
	h.Define()
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("balprep: creating connectivity file: %v", err)
	}
	wr := f.Writer(connectivityVar, []int{0, 0}, []int{n, n})
	if _, err := wr.Write(c.Elements); err != nil {
		return fmt.Errorf("balprep: writing connectivity: %v", err)
	}
	return nil
}

// ReadConnectivityCDF reads a matrix written by WriteCDF.
func ReadConnectivityCDF(r cdf.ReaderWriterAt) (*Connectivity, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening connectivity file: %v", err)
	}
	names, ok := f.Header.GetAttribute(connectivityVar, "regions").(string)
	if !ok {
		return nil, fmt.Errorf("balprep: connectivity file has no region names")
	}
	c := NewConnectivity(strings.Split(names, "\n"))
	dims := f.Header.Lengths(connectivityVar)
	if len(dims) != 2 || dims[0] != c.Len() || dims[1] != c.Len() {
		return nil, fmt.Errorf("balprep: connectivity has shape %v but %d region names", dims, c.Len())
	}
	rd := f.Reader(connectivityVar, nil, nil)
	buf := rd.Zero(-1)
	if _, err := rd.Read(buf); err != nil {
		return nil, fmt.Errorf("balprep: reading connectivity: %v", err)
	}
	switch v := buf.(type) {
	case []float64:
		copy(c.Elements, v)
	case []float32:
		for i, e := range v {
			c.Elements[i] = float64(e)
		}
	case []int32:
		for i, e := range v {
			c.Elements[i] = float64(e)
		}
	default:
		return nil, fmt.Errorf("balprep: connectivity has unsupported type %T", buf)
	}
	return c, nil
}
