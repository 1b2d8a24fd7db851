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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/balprep/incfile"
)

// Geography holds the countries, regions, and areas of a Balmorel
// model.
type Geography struct {
	// Countries maps each country to its regions.
	Countries map[string][]string `json:"countries" toml:"countries"`

	// Regions maps each region to its areas.
	Regions map[string][]string `json:"regions" toml:"regions"`
}

// ReadGeography reads a geography in JSON or TOML format. format
// is "json" or "toml".
func ReadGeography(r io.Reader, format string) (*Geography, error) {
	g := new(Geography)
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.NewDecoder(r).Decode(g); err != nil {
			return nil, fmt.Errorf("balprep: reading geography: %v", err)
		}
	case "toml":
		if _, err := toml.DecodeReader(r, g); err != nil {
			return nil, fmt.Errorf("balprep: reading geography: %v", err)
		}
	default:
		return nil, fmt.Errorf("balprep: invalid geography format %q", format)
	}
	return g, nil
}

// GeographyFromRegions returns a geography where all regions belong to
// country and each region r has the areas r+suffix for each of the
// suffixes.
func GeographyFromRegions(country string, regions []string, suffixes ...string) *Geography {
	g := &Geography{
		Countries: map[string][]string{country: append([]string(nil), regions...)},
		Regions:   make(map[string][]string, len(regions)),
	}
	for _, r := range regions {
		for _, s := range suffixes {
			g.Regions[r] = append(g.Regions[r], r+s)
		}
	}
	return g
}

// Validate checks that every region belongs to exactly one country
// and every area to exactly one region.
func (g *Geography) Validate() error {
	regionCountry := make(map[string]string)
	for c, rs := range g.Countries {
		for _, r := range rs {
			if other, ok := regionCountry[r]; ok && other != c {
				return fmt.Errorf("balprep: region %s is in both %s and %s", r, other, c)
			}
			regionCountry[r] = c
		}
	}
	areaRegion := make(map[string]string)
	for r, as := range g.Regions {
		if _, ok := regionCountry[r]; !ok {
			return fmt.Errorf("balprep: region %s is not in any country", r)
		}
		for _, a := range as {
			if other, ok := areaRegion[a]; ok && other != r {
				return fmt.Errorf("balprep: area %s is in both %s and %s", a, other, r)
			}
			areaRegion[a] = r
		}
	}
	return nil
}

func sortedMapKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (g *Geography) pairs(m map[string][]string) [][]string {
	var out [][]string
	for _, k := range sortedMapKeys(m) {
		for _, v := range m[k] {
			out = append(out, []string{k, v})
		}
	}
	return out
}

func (g *Geography) list(m map[string][]string, values bool) [][]string {
	var out [][]string
	for _, k := range sortedMapKeys(m) {
		if !values {
			out = append(out, []string{k})
			continue
		}
		for _, v := range m[k] {
			out = append(out, []string{v})
		}
	}
	return out
}

// offshoreAppendix includes the offshore version of a set file.
func offshoreAppendix(name string) string {
	return strings.Join([]string{
		"",
		"$onmulti",
		fmt.Sprintf("$if     EXIST '../data/OFFSHORE_%[1]s.inc' $INCLUDE '../data/OFFSHORE_%[1]s.inc';", name),
		fmt.Sprintf("$if not EXIST '../data/OFFSHORE_%[1]s.inc' $INCLUDE '../../base/data/OFFSHORE_%[1]s.inc';", name),
		"$offmulti",
	}, "\n")
}

// SetFilePrefixes are the prefixes of add-on set files and the
// description of their areas.
var SetFilePrefixes = map[string]string{
	"":            "All areas",
	"INDUSTRY_":   "All areas",
	"INDIVUSERS_": "Individual user areas",
}

// SetFiles creates the geographic set files CCCRRRAAA, CCCRRR, RRRAAA,
// RRR, AAA, and CCC. Their file names start with prefix. Files without
// a prefix include the offshore sets; files with a prefix come with an
// extra file declaring the prefixed area set.
func (g *Geography) SetFiles(prefix string) ([]*incfile.File, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	areaText, ok := SetFilePrefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("balprep: invalid set file prefix %q", prefix)
	}
	countries := g.list(g.Countries, false)
	regions := g.list(g.Countries, true)
	areas := g.list(g.Regions, true)
	all := append(append(append([][]string(nil), countries...), regions...), areas...)

	sets := []struct {
		name, text string
		dims       []string
		labels     [][]string
		offshore   bool
	}{
		{"CCCRRRAAA", "All geographic entities", nil, all, true},
		{"CCCRRR", "Regions in countries", []string{"CCC", "RRR"}, g.pairs(g.Countries), false},
		{"RRRAAA", "Areas in regions", []string{"RRR", "AAA"}, g.pairs(g.Regions), true},
		{"RRR", "All regions", []string{"CCCRRRAAA"}, regions, false},
		{"AAA", "All areas", []string{"CCCRRRAAA"}, areas, true},
		{"CCC", "All countries", []string{"CCCRRRAAA"}, countries, false},
	}
	var files []*incfile.File
	for _, set := range sets {
		dims := set.dims
		if dims == nil {
			dims = []string{set.name}
		}
		s, err := incfile.NewSymbol(set.name, set.text, incfile.Set, dims, set.labels, nil)
		if err != nil {
			return nil, err
		}
		f := incfile.SetFile(s)
		f.Prefix = incfile.Declaration("SET", set.name, set.dims, set.text, ",") + "\n/\n"
		f.Name = prefix + set.name
		if prefix == "" && set.offshore {
			f.Suffix += offshoreAppendix(set.name)
		}
		files = append(files, f)
		if set.name == "AAA" && prefix != "" {
			p := *f
			p.Name = prefix + prefix + "AAA"
			p.Prefix = incfile.Declaration("SET", prefix+"AAA", set.dims, areaText, ",") + "\n/\n"
			files = append(files, &p)
		}
	}
	return files, nil
}
