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
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
)

// GeographicProj is the spatial reference that region geometry is held in.
const GeographicProj = "+proj=longlat +datum=WGS84 +no_defs"

// MetricProj is the default projection used to calculate distances
// and touching boundaries (UTM zone 32N).
const MetricProj = "+proj=utm +zone=32 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

// Region is a named polygon such as a municipality or a NUTS area.
type Region struct {
	geom.Polygonal
	Name    string
	Country string
}

// Regions is a list of regions.
type Regions []*Region

// Names returns the names of the regions, in order.
func (r Regions) Names() []string {
	out := make([]string, len(r))
	for i, rr := range r {
		out[i] = rr.Name
	}
	return out
}

// Index returns a map from region name to position in the list.
func (r Regions) Index() map[string]int {
	out := make(map[string]int, len(r))
	for i, rr := range r {
		out[rr.Name] = i
	}
	return out
}

// Centroids returns the centroid of each region.
func (r Regions) Centroids() []geom.Point {
	out := make([]geom.Point, len(r))
	for i, rr := range r {
		out[i] = rr.Centroid()
	}
	return out
}

// Transform returns a copy of the regions projected from spatial
// reference from to spatial reference to.
func (r Regions) Transform(from, to *proj.SR) (Regions, error) {
	t, err := from.NewTransform(to)
	if err != nil {
		return nil, fmt.Errorf("balprep: creating projection transform: %v", err)
	}
	out := make(Regions, len(r))
	for i, rr := range r {
		g, err := rr.Polygonal.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("balprep: projecting region %s: %v", rr.Name, err)
		}
		out[i] = &Region{Polygonal: g.(geom.Polygonal), Name: rr.Name, Country: rr.Country}
	}
	return out, nil
}

// regionSource describes how to read region names out of a
// particular boundary dataset.
type regionSource struct {
	idField      string
	levelField   string
	level        int
	countryField string
	normalize    func(string) string
}

var regionSources = map[string]regionSource{
	"dkmunicipalities": {idField: "GID_2", countryField: "GID_0", normalize: NormalizeRegionCode},
	"nuts1":            {idField: "NUTS_ID", levelField: "LEVL_CODE", level: 1, countryField: "CNTR_CODE"},
	"nuts2":            {idField: "NUTS_ID", levelField: "LEVL_CODE", level: 2, countryField: "CNTR_CODE"},
	"nuts3":            {idField: "NUTS_ID", levelField: "LEVL_CODE", level: 3, countryField: "CNTR_CODE"},
	"nordpool":         {idField: "zoneName"},
	"nordpoolreal":     {idField: "RRR"},
	"balmorelvreareas": {idField: "Region", countryField: "Country"},
}

// RegionChoices lists the region datasets LoadRegions understands.
var RegionChoices = []string{"DK Municipalities", "NUTS1", "NUTS2", "NUTS3", "Nordpool", "NordpoolReal", "BalmorelVREAreas"}

// RegionOptions specify which regions to load from a boundary file.
type RegionOptions struct {
	// Choice is the kind of boundary dataset, one of RegionChoices.
	Choice string

	// NameField, if set, overrides the attribute the region names
	// are read from. For DK Municipalities, "NAME_2" gives the
	// transliterated municipality names instead of GADM codes.
	NameField string

	// Countries, if not empty, restricts the regions to the given
	// country codes.
	Countries []string

	// Exclude lists region names to leave out.
	Exclude []string
}

func choiceKey(choice string) string {
	return strings.ToLower(strings.Replace(choice, " ", "", -1))
}

// LoadRegions reads region polygons from the shapefile filename and
// returns them in geographic coordinates. Polygons that share a name
// are merged.
func LoadRegions(filename string, o RegionOptions, log logrus.FieldLogger) (Regions, error) {
	src, ok := regionSources[choiceKey(o.Choice)]
	if !ok {
		return nil, fmt.Errorf("balprep: invalid region choice %q; valid choices are %s",
			o.Choice, strings.Join(RegionChoices, ", "))
	}
	if o.NameField != "" {
		src.idField = o.NameField
		if o.NameField == "NAME_2" {
			src.normalize = Transliterate
		} else {
			src.normalize = nil
		}
	}
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("balprep: opening region file: %v", err)
	}
	defer d.Close()

	var trans proj.Transformer
	prj := strings.TrimSuffix(filename, ".shp") + ".prj"
	if _, err := os.Stat(prj); err == nil {
		fileSR, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("balprep: reading region projection: %v", err)
		}
		geoSR, err := proj.Parse(GeographicProj)
		if err != nil {
			panic(err)
		}
		trans, err = fileSR.NewTransform(geoSR)
		if err != nil {
			return nil, fmt.Errorf("balprep: creating region projection transform: %v", err)
		}
	} else {
		log.WithField("file", filename).Warn("region file has no .prj file; assuming geographic coordinates")
	}

	fields := []string{src.idField}
	if src.levelField != "" {
		fields = append(fields, src.levelField)
	}
	if src.countryField != "" {
		fields = append(fields, src.countryField)
	}
	countries := make(map[string]bool)
	for _, c := range o.Countries {
		countries[c] = true
	}
	exclude := make(map[string]bool)
	for _, e := range o.Exclude {
		exclude[e] = true
	}

	var out Regions
	index := make(map[string]int)
	for {
		g, f, more := d.DecodeRowFields(fields...)
		if !more {
			break
		}
		if src.levelField != "" {
			level, err := strconv.ParseFloat(strings.TrimSpace(f[src.levelField]), 64)
			if err != nil {
				return nil, fmt.Errorf("balprep: invalid %s in region file: %v", src.levelField, err)
			}
			if int(level) != src.level {
				continue
			}
		}
		name := strings.TrimSpace(f[src.idField])
		if src.normalize != nil {
			name = src.normalize(name)
		}
		country := strings.TrimSpace(f[src.countryField])
		if src.countryField == "" && len(name) >= 2 {
			country = name[:2]
		}
		if country == "DNK" {
			country = "DK"
		}
		if name == "" || exclude[name] || (len(countries) > 0 && !countries[country]) {
			continue
		}
		if trans != nil {
			g, err = g.Transform(trans)
			if err != nil {
				return nil, fmt.Errorf("balprep: projecting region %s: %v", name, err)
			}
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("balprep: region %s has geometry type %T; it needs to be a polygon", name, g)
		}
		if i, ok := index[name]; ok {
			out[i].Polygonal = out[i].Union(p)
			continue
		}
		index[name] = len(out)
		out = append(out, &Region{Polygonal: p, Name: name, Country: country})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("balprep: reading region file: %v", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("balprep: no regions found in %s for choice %q", filename, o.Choice)
	}
	log.WithField("file", filename).Infof("loaded %d regions", len(out))
	return out, nil
}
