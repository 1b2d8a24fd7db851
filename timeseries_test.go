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
	"time"
)

func TestSeasonTerm(t *testing.T) {
	for _, test := range []struct {
		t          string
		week, hour int
	}{
		{"2012-01-02 00:00:00", 1, 1},
		{"2012-01-08T23:00:00", 1, 168},
		{"2012-01-09 05:00", 2, 6},
		{"2012-12-30T12:00:00Z", 52, 157},
	} {
		tm, err := ParseTime(test.t)
		if err != nil {
			t.Errorf("%s: %v", test.t, err)
			continue
		}
		w, h := SeasonTerm(tm)
		if w != test.week || h != test.hour {
			t.Errorf("%s: have week %d hour %d, want week %d hour %d", test.t, w, h, test.week, test.hour)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("expected an error")
	}
}

const testHourly = `time,region,value
2011-12-31 23:00:00,Århus,100
2012-01-02 00:00:00,Århus,2
2012-01-02 00:00:00,Århus,4
2012-01-02 01:00:00,Århus,6
2012-01-02 00:00:00,Odense,0
2012-12-31 00:00:00,Odense,7
`

func testProfile(t *testing.T) *Profile {
	recs, err := ReadHourly(strings.NewReader(testHourly))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 6 {
		t.Fatalf("have %d records", len(recs))
	}
	p, err := NewProfile(recs, ProfileOptions{
		Name:         "WND",
		Text:         "Variation of wind generation",
		RegionSuffix: "_A",
		Renames:      DefaultProfileRenames,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewProfile(t *testing.T) {
	p := testProfile(t)
	if want := []string{"Aarhus_A", "Odense_A"}; !reflect.DeepEqual(p.Regions, want) {
		t.Fatalf("regions: have %v, want %v", p.Regions, want)
	}
	if p.RegionDim != "AAA" {
		t.Errorf("region dimension %s", p.RegionDim)
	}
	if p.Values[0][0] != 0.5 || p.Values[0][1] != 1 || !math.IsNaN(p.Values[0][2]) {
		t.Errorf("Aarhus values: %v", p.Values[0][:3])
	}
	if p.Values[1][0] != 0 || !math.IsNaN(p.Values[1][1]) {
		t.Errorf("Odense values: %v", p.Values[1][:2])
	}
	if have, want := p.FullLoadHours(), []float64{1.5, 0}; !reflect.DeepEqual(have, want) {
		t.Errorf("full load hours: have %v, want %v", have, want)
	}
	if cf := p.CapacityFactors()[0]; math.Abs(cf-1.5/8736) > 1e-15 {
		t.Errorf("capacity factor %g", cf)
	}

	_, err := NewProfile([]*HourlyRecord{{Time: "2020-01-01 00:00", Region: "x", Value: 1}},
		ProfileOptions{Name: "SOLE"}, testLogger())
	if err == nil {
		t.Error("expected an error for data outside the window")
	}
}

func TestProfileFiles(t *testing.T) {
	files, err := testProfile(t).Files()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Name != "WND_VAR_T" || files[1].Name != "WNDFLH" {
		t.Fatalf("files: %v", files)
	}
	lines := strings.Split(files[0].Body, "\n")
	if len(lines) != 1+2*Weeks {
		t.Errorf("WND_VAR_T has %d lines", len(lines))
	}
	// Hours without data are blank rather than zero.
	for i, want := range map[int]string{
		1:         "Aarhus_A . S01   0.5     1",
		2:         "Aarhus_A . S02",
		1 + Weeks: "Odense_A . S01     0",
	} {
		if lines[i] != want {
			t.Errorf("row %d: have %q, want %q", i, lines[i], want)
		}
	}
	if !strings.HasPrefix(files[0].Prefix, "TABLE WND_VAR_T(AAA, SSS, TTT) 'Variation of wind generation'") {
		t.Errorf("prefix: %q", files[0].Prefix)
	}
	b := new(bytes.Buffer)
	files[1].WriteTo(b)
	want := "PARAMETER WNDFLH(AAA) 'Full load hours (hours)'\n/\nAarhus_A  1.5\nOdense_A  0\n/;\n"
	if b.String() != want {
		t.Errorf("have:\n%q\nwant:\n%q", b.String(), want)
	}
}

func TestDefaultProfileWindow(t *testing.T) {
	w := DefaultProfileWindow
	if have := w[1].Sub(w[0]); have != HoursPerYear*time.Hour {
		t.Errorf("window is %v long", have)
	}
}
