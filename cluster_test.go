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

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

func TestParseLinkage(t *testing.T) {
	if l, err := ParseLinkage(" Ward "); err != nil || l != Ward {
		t.Errorf("have %q, %v", l, err)
	}
	if _, err := ParseLinkage("centroid"); err == nil {
		t.Error("centroid linkage should not parse")
	}
}

func TestStandardScale(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})
	StandardScale(m)
	s := math.Sqrt(1.5)
	want := mat.NewDense(3, 2, []float64{
		-s, 0,
		0, 0,
		s, 0,
	})
	if !mat.EqualApprox(m, want, 1e-12) {
		t.Errorf("have %v, want %v", mat.Formatted(m), mat.Formatted(want))
	}
}

func TestAgglomerative(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 0.1, 10, 10.2})
	for _, l := range []Linkage{Ward, Complete, Average, Single} {
		labels, err := Agglomerative(x, 2, l, nil)
		if err != nil {
			t.Fatal(err)
		}
		if want := []int{0, 0, 1, 1}; !reflect.DeepEqual(labels, want) {
			t.Errorf("%s: have %v, want %v", l, labels, want)
		}
	}

	// 0 and 1 are never neighbours, so 1 joins the far pair.
	path := NewConnectivity([]string{"a", "b", "c", "d"})
	path.Set("a", "c", 1)
	path.Set("c", "d", 1)
	path.Set("d", "b", 1)
	labels, err := Agglomerative(x, 2, Ward, path)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 1, 1, 1}; !reflect.DeepEqual(labels, want) {
		t.Errorf("path: have %v, want %v", labels, want)
	}

	// Two components, {a, c} and {b, d}, are joined at a-b.
	conn := NewConnectivity([]string{"a", "b", "c", "d"})
	conn.Set("a", "c", 1)
	conn.Set("b", "d", 1)
	for _, test := range []struct {
		n    int
		want []int
	}{
		{n: 1, want: []int{0, 0, 0, 0}},
		{n: 2, want: []int{0, 0, 0, 1}},
		{n: 3, want: []int{0, 0, 1, 2}},
	} {
		labels, err := Agglomerative(x, test.n, Ward, conn)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(labels, test.want) {
			t.Errorf("components, n=%d: have %v, want %v", test.n, labels, test.want)
		}
	}

	if _, err := Agglomerative(x, 5, Ward, nil); err == nil {
		t.Error("more clusters than rows should fail")
	}
	if _, err := Agglomerative(x, 2, Ward, NewConnectivity([]string{"a"})); err == nil {
		t.Error("mismatched connectivity should fail")
	}
}

func TestAgglomerativeConnectedLinkage(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		-2, 0,
		0, 0,
		1, 0,
		1, 2.1,
	})
	conn := NewConnectivity([]string{"p0", "p1", "p2", "p3"})
	conn.Set("p0", "p1", 1)
	conn.Set("p1", "p2", 1)
	conn.Set("p2", "p3", 1)
	// After p1 and p2 merge, p0 only touches p1 and p3 only touches
	// p2, so the merged cluster is 2 from p0 and 2.1 from p3.
	for _, l := range []Linkage{Complete, Average, Single} {
		labels, err := Agglomerative(x, 2, l, conn)
		if err != nil {
			t.Fatal(err)
		}
		if want := []int{0, 0, 0, 1}; !reflect.DeepEqual(labels, want) {
			t.Errorf("%s: have %v, want %v", l, labels, want)
		}
	}
}

func TestClustering(t *testing.T) {
	c := &Clustering{
		Regions: []string{"DK_1", "DK_2", "DK_3", "DK_4"},
		Labels:  []int{0, 1, 0, 2},
	}
	if n := c.NumClusters(); n != 3 {
		t.Errorf("NumClusters = %d", n)
	}
	wantMap := map[string]string{"DK_1": "CL0", "DK_2": "CL1", "DK_3": "CL0", "DK_4": "CL2"}
	if have := c.Map(); !reflect.DeepEqual(have, wantMap) {
		t.Errorf("map: have %v, want %v", have, wantMap)
	}
	wantMembers := [][]string{{"DK_1", "DK_3"}, {"DK_2"}, {"DK_4"}}
	if have := c.Members(); !reflect.DeepEqual(have, wantMembers) {
		t.Errorf("members: have %v, want %v", have, wantMembers)
	}

	b := new(bytes.Buffer)
	WriteClusterSummary(b, c)
	for _, s := range []string{"CL0", "DK_1, DK_3", "TOTAL"} {
		if !strings.Contains(strings.ToUpper(b.String()), strings.ToUpper(s)) {
			t.Errorf("summary does not contain %q:\n%s", s, b.String())
		}
	}
}

func TestCluster(t *testing.T) {
	f := &Features{
		Regions: []string{"DK_1", "DK_2", "DK_3", "DK_4", "DK_5"},
		Names:   []string{"DE", "WNDFLH"},
		Data: [][]float64{
			{100, 3000},
			{110, 3100},
			{500, 2000},
			{520, 1900},
			{300, math.NaN()},
		},
	}
	conn, err := TouchConnectivity(testRegions(), MetricProj, 1)
	if err != nil {
		t.Fatal(err)
	}
	conn.ApplyLinks([]Link{{"DK_4", "DK_5", 1}}, testLogger())
	c, err := Cluster(f, ClusterOptions{N: 2, Linkage: Ward, Connectivity: conn}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.NumClusters() != 2 {
		t.Fatalf("have %d clusters", c.NumClusters())
	}
	if c.Labels[0] != c.Labels[1] || c.Labels[2] != c.Labels[3] || c.Labels[0] == c.Labels[2] {
		t.Errorf("labels %v", c.Labels)
	}
}

func TestClusterDisconnected(t *testing.T) {
	f := &Features{
		Regions: []string{"DK_1", "DK_2", "DK_3", "DK_4", "DK_5"},
		Names:   []string{"DE"},
		Data:    [][]float64{{100}, {110}, {500}, {520}, {300}},
	}
	conn, err := TouchConnectivity(testRegions(), MetricProj, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 2, 4} {
		b := new(bytes.Buffer)
		log := logrus.New()
		log.Out = b
		c, err := Cluster(f, ClusterOptions{N: n, Linkage: Ward, Connectivity: conn}, log)
		if err != nil {
			t.Fatal(err)
		}
		if c.NumClusters() != n {
			t.Errorf("n=%d: have %d clusters, labels %v", n, c.NumClusters(), c.Labels)
		}
		if !strings.Contains(b.String(), "connectivity has 2 components") {
			t.Errorf("n=%d: missing warning in log:\n%s", n, b.String())
		}
	}
}
