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
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/balprep/incfile"
	"gonum.org/v1/gonum/floats"
)

// Balmorel time resolution.
const (
	Weeks        = 52
	HoursPerWeek = 168
	HoursPerYear = Weeks * HoursPerWeek
)

// HourlyRecord is one value of an hourly time series.
type HourlyRecord struct {
	Time   string  `csv:"time"`
	Region string  `csv:"region"`
	Value  float64 `csv:"value"`
}

// ReadHourly reads hourly records from CSV with the columns time,
// region, and value.
func ReadHourly(r io.Reader) ([]*HourlyRecord, error) {
	var recs []*HourlyRecord
	if err := gocsv.Unmarshal(r, &recs); err != nil {
		return nil, fmt.Errorf("balprep: reading hourly data: %v", err)
	}
	return recs, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses a time stamp in one of the common layouts. Time
// stamps without a zone are in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("balprep: invalid time %q", s)
}

// SeasonTerm returns the Balmorel season (ISO week) and term (hour of
// the ISO week, starting at 1 on Monday at midnight) of t.
func SeasonTerm(t time.Time) (week, hour int) {
	_, week = t.ISOWeek()
	day := (int(t.Weekday())+6)%7 + 1
	return week, t.Hour() + 1 + (day-1)*24
}

// ProfileOptions specify how hourly time series become Balmorel
// profiles.
type ProfileOptions struct {
	// Name is the profile name, such as WND or SOLE. The profile
	// table is called Name_VAR_T and the full load hours NameFLH.
	Name string

	// Text describes the profile.
	Text string

	// Start and End bound the records that are used
	// (Start <= t < End).
	Start, End time.Time

	// RegionDim is the GAMS dimension of the regions, for example
	// AAA or RRR.
	RegionDim string

	// RegionSuffix is appended to region names, for example _A to
	// turn regions into areas.
	RegionSuffix string

	// Renames correct region names in the input data.
	Renames map[string]string
}

// DefaultProfileWindow is the weather year that profiles are made
// from: the 52 ISO weeks starting on Monday 2 January 2012.
var DefaultProfileWindow = [2]time.Time{
	time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC),
	time.Date(2012, 12, 31, 0, 0, 0, 0, time.UTC),
}

// DefaultProfileRenames correct municipality names in renewable
// generation data.
var DefaultProfileRenames = map[string]string{
	"Århus":          "Aarhus",
	"Høje Taastrup":  "Høje-Taastrup",
	"Vesthimmerland": "Vesthimmerlands",
}

// Profile holds normalized hourly profiles by region.
type Profile struct {
	Name, Text, RegionDim string

	Regions []string

	// Values holds the profile of each region as
	// [region][(week-1)*HoursPerWeek+hour-1]. Hours without data
	// are NaN.
	Values [][]float64
}

// NewProfile averages the records within the time window for each
// region, week, and hour and normalizes each region's values by their
// maximum. Hours without records are left out of the profile.
func NewProfile(recs []*HourlyRecord, o ProfileOptions, log logrus.FieldLogger) (*Profile, error) {
	if o.Start.IsZero() && o.End.IsZero() {
		o.Start, o.End = DefaultProfileWindow[0], DefaultProfileWindow[1]
	}
	if o.RegionDim == "" {
		o.RegionDim = "AAA"
	}
	type acc struct{ sum, n []float64 }
	data := make(map[string]*acc)
	for _, r := range recs {
		t, err := ParseTime(r.Time)
		if err != nil {
			return nil, err
		}
		if t.Before(o.Start) || !t.Before(o.End) {
			continue
		}
		week, hour := SeasonTerm(t)
		if week > Weeks {
			continue
		}
		region := r.Region
		if n, ok := o.Renames[region]; ok {
			region = n
		}
		region += o.RegionSuffix
		a, ok := data[region]
		if !ok {
			a = &acc{sum: make([]float64, HoursPerYear), n: make([]float64, HoursPerYear)}
			data[region] = a
		}
		i := (week-1)*HoursPerWeek + hour - 1
		a.sum[i] += r.Value
		a.n[i]++
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("balprep: no %s data between %s and %s", o.Name, o.Start, o.End)
	}
	p := &Profile{Name: o.Name, Text: o.Text, RegionDim: o.RegionDim}
	for r := range data {
		p.Regions = append(p.Regions, r)
	}
	sort.Strings(p.Regions)
	for _, r := range p.Regions {
		a := data[r]
		v := make([]float64, HoursPerYear)
		var missing int
		max := math.Inf(-1)
		for i := range v {
			if a.n[i] == 0 {
				missing++
				v[i] = math.NaN()
				continue
			}
			v[i] = a.sum[i] / a.n[i]
			max = math.Max(max, v[i])
		}
		if missing > 0 {
			log.WithField("region", r).Warnf("%d of %d hours are missing from %s and are left blank", missing, HoursPerYear, o.Name)
		}
		if max > 0 {
			floats.Scale(1/max, v)
		} else {
			log.WithField("region", r).Warnf("%s profile is zero", o.Name)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

// FullLoadHours returns the sum of each region's normalized profile
// over the hours that have data.
func (p *Profile) FullLoadHours() []float64 {
	out := make([]float64, len(p.Values))
	for i, v := range p.Values {
		for _, x := range v {
			if !math.IsNaN(x) {
				out[i] += x
			}
		}
	}
	return out
}

// CapacityFactors returns the full load hours of each region divided
// by the number of hours in the year.
func (p *Profile) CapacityFactors() []float64 {
	out := p.FullLoadHours()
	floats.Scale(1./HoursPerYear, out)
	return out
}

// Symbol returns the profile in long format over the dimensions
// (RegionDim, SSS, TTT). Missing hours keep their NaN value and are
// written as blank table cells.
func (p *Profile) Symbol() (*incfile.Symbol, error) {
	labels := make([][]string, 0, len(p.Regions)*HoursPerYear)
	values := make([]float64, 0, len(p.Regions)*HoursPerYear)
	for i, r := range p.Regions {
		for w := 1; w <= Weeks; w++ {
			for h := 1; h <= HoursPerWeek; h++ {
				labels = append(labels, []string{r, Season(w), Term(h)})
				values = append(values, p.Values[i][(w-1)*HoursPerWeek+h-1])
			}
		}
	}
	return incfile.NewSymbol(p.Name+"_VAR_T", p.Text, incfile.Parameter,
		[]string{p.RegionDim, "SSS", "TTT"}, labels, values)
}

// Files returns the profile table, with the regions and seasons as
// rows and the terms as columns, and the full load hours parameter.
func (p *Profile) Files() ([]*incfile.File, error) {
	s, err := p.Symbol()
	if err != nil {
		return nil, err
	}
	vart, err := incfile.TableFile(s, []string{p.RegionDim, "SSS"}, "TTT", incfile.KeepZeros)
	if err != nil {
		return nil, err
	}
	flh := p.FullLoadHours()
	labels := make([][]string, len(p.Regions))
	for i, r := range p.Regions {
		labels[i] = []string{r}
	}
	fs, err := incfile.NewSymbol(p.Name+"FLH", "Full load hours (hours)", incfile.Parameter,
		[]string{p.RegionDim}, labels, flh)
	if err != nil {
		return nil, err
	}
	return []*incfile.File{vart, incfile.ParameterFile(fs, incfile.KeepZeros)}, nil
}
