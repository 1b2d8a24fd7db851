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
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/jedib0t/go-pretty/v6/table"
	goshp "github.com/jonas-p/go-shp"
)

// wgs84WKT is written to the .prj file of output shapefiles.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// GeofileName returns the base name of the geometry file written for
// a clustering of the given features into n clusters.
func GeofileName(params []string, n int, secondOrder bool) string {
	name := fmt.Sprintf("%s_%dcluster_geofile", strings.Join(params, "-"), n)
	if secondOrder {
		name += "_2nd-order"
	}
	return name
}

func removeShapefile(path string) {
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
}

func writePrj(path string) error {
	return os.WriteFile(strings.TrimSuffix(path, ".shp")+".prj", []byte(wgs84WKT), 0644)
}

// WriteClustering writes each region's polygon with its cluster to the
// shapefile path. The attribute columns are "index" (the region name),
// "cluster_na" (the cluster name), and "cluster_gr" (the cluster label).
// regions must be in the same order as c.Regions.
func WriteClustering(path string, regions Regions, c *Clustering) error {
	if len(regions) != len(c.Regions) {
		return fmt.Errorf("balprep: %d regions but %d clustered regions", len(regions), len(c.Regions))
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("balprep: creating clustering directory: %v", err)
	}
	removeShapefile(path)
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON,
		goshp.StringField("index", 50),
		goshp.StringField("cluster_na", 20),
		goshp.NumberField("cluster_gr", 10),
	)
	if err != nil {
		return fmt.Errorf("balprep: creating clustering file: %v", err)
	}
	for i, r := range regions {
		if r.Name != c.Regions[i] {
			e.Close()
			return fmt.Errorf("balprep: region %s does not match clustered region %s", r.Name, c.Regions[i])
		}
		if err := e.EncodeFields(r.Polygonal, r.Name, ClusterName(c.Labels[i]), c.Labels[i]); err != nil {
			e.Close()
			return fmt.Errorf("balprep: writing clustering file: %v", err)
		}
	}
	e.Close()
	return writePrj(path)
}

// ClusterGeometry merges the polygons of the regions in each cluster.
// The returned regions are named after the clusters, in label order.
func ClusterGeometry(regions Regions, c *Clustering) (Regions, error) {
	if len(regions) != len(c.Regions) {
		return nil, fmt.Errorf("balprep: %d regions but %d clustered regions", len(regions), len(c.Regions))
	}
	merged := make(Regions, len(c.Members()))
	for i, r := range regions {
		l := c.Labels[i]
		if merged[l] == nil {
			merged[l] = &Region{Polygonal: r.Polygonal, Name: ClusterName(l), Country: r.Country}
			continue
		}
		merged[l].Polygonal = merged[l].Union(r.Polygonal)
	}
	var out Regions
	for _, r := range merged {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// WriteGeofile writes the merged polygon of each cluster to the
// shapefile path with the attribute column "cluster_na".
func WriteGeofile(path string, clusters Regions) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("balprep: creating geofile directory: %v", err)
	}
	removeShapefile(path)
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, goshp.StringField("cluster_na", 20))
	if err != nil {
		return fmt.Errorf("balprep: creating geofile: %v", err)
	}
	for _, r := range clusters {
		if err := e.EncodeFields(r.Polygonal, r.Name); err != nil {
			e.Close()
			return fmt.Errorf("balprep: writing geofile: %v", err)
		}
	}
	e.Close()
	return writePrj(path)
}

// ReadClustering reads a clustering from a file written by
// WriteClustering. Regions are returned in file order.
func ReadClustering(path string) (*Clustering, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening clustering file: %v", err)
	}
	defer d.Close()
	c := new(Clustering)
	for {
		_, f, more := d.DecodeRowFields("index", "cluster_na", "cluster_gr")
		if !more {
			break
		}
		name := strings.TrimSpace(f["cluster_na"])
		v, err := parseFloat(f["cluster_gr"])
		l := int(v)
		if err != nil || float64(l) != v || l < 0 {
			return nil, fmt.Errorf("balprep: invalid cluster label %q for %s", f["cluster_gr"], f["index"])
		}
		if name != ClusterName(l) {
			return nil, fmt.Errorf("balprep: cluster %s has label %d", name, l)
		}
		c.Regions = append(c.Regions, strings.TrimSpace(f["index"]))
		c.Labels = append(c.Labels, l)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("balprep: reading clustering file: %v", err)
	}
	if len(c.Regions) == 0 {
		return nil, fmt.Errorf("balprep: clustering file %s is empty", path)
	}
	return c, nil
}

// ReadGeofile reads the cluster polygons written by WriteGeofile.
func ReadGeofile(path string) (Regions, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening geofile: %v", err)
	}
	defer d.Close()
	var out Regions
	for {
		g, f, more := d.DecodeRowFields("cluster_na")
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("balprep: geofile geometry has type %T; it needs to be a polygon", g)
		}
		out = append(out, &Region{Polygonal: p, Name: strings.TrimSpace(f["cluster_na"])})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("balprep: reading geofile: %v", err)
	}
	return out, nil
}

// WriteClusterSummary writes a table of the clusters and their
// member regions to w.
func WriteClusterSummary(w io.Writer, c *Clustering) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Cluster", "Regions", "Members"})
	for l, m := range c.Members() {
		if len(m) == 0 {
			continue
		}
		t.AppendRow(table.Row{ClusterName(l), strconv.Itoa(len(m)), strings.Join(m, ", ")})
	}
	t.AppendFooter(table.Row{"Total", strconv.Itoa(len(c.Regions)), ""})
	t.Render()
}
