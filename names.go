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
	_ "embed"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/balprep/incfile"
)

//go:embed names.toml
var defaultNames string

// Converter renames the dimensions and elements of a dataset so that
// they match Balmorel's sets.
type Converter struct {
	// Dims maps original dimension names to Balmorel set names.
	Dims map[string]string `toml:"dims"`

	// Elements maps original dimension names to substring
	// replacements for that dimension's elements.
	Elements map[string]map[string]string `toml:"elements"`

	// Transliterate lists the original dimensions whose elements
	// should be transliterated to ASCII.
	Transliterate struct {
		Dims []string `toml:"dims"`
	} `toml:"transliterate"`

	// SeasonsAndTerms specifies whether week and hour numbers in the
	// S and T dimensions should be replaced by season and term labels.
	SeasonsAndTerms bool `toml:"seasons_and_terms"`

	translit *strings.Replacer
}

// Conversions holds a set of named converters and the character
// transliteration table they share.
type Conversions struct {
	Transliteration map[string]string `toml:"transliteration"`
	Electricity     *Converter        `toml:"electricity"`
	Heat            *Converter        `toml:"heat"`
	Grid            *Converter        `toml:"grid"`

	replacer *strings.Replacer
}

// DefaultConversions returns the built-in conversion dictionaries.
func DefaultConversions() *Conversions {
	c, err := ReadConversions(strings.NewReader(defaultNames))
	if err != nil {
		panic(err)
	}
	return c
}

// ReadConversions reads conversion dictionaries in TOML format.
func ReadConversions(r io.Reader) (*Conversions, error) {
	c := new(Conversions)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("balprep: reading name conversions: %v", err)
	}
	c.replacer = newReplacer(c.Transliteration)
	for _, conv := range []*Converter{c.Electricity, c.Heat, c.Grid} {
		if conv != nil {
			conv.translit = c.replacer
		}
	}
	return c, nil
}

// Preset returns the converter with the given name:
// "electricity", "heat", or "grid".
func (c *Conversions) Preset(name string) (*Converter, error) {
	var conv *Converter
	switch strings.ToLower(name) {
	case "electricity":
		conv = c.Electricity
	case "heat":
		conv = c.Heat
	case "grid":
		conv = c.Grid
	default:
		return nil, fmt.Errorf("balprep: invalid name conversion preset %q", name)
	}
	if conv == nil {
		return nil, fmt.Errorf("balprep: name conversion preset %q is not defined", name)
	}
	return conv, nil
}

// Transliterate replaces Danish characters with their ASCII
// transliterations.
func (c *Conversions) Transliterate(s string) string {
	return c.replacer.Replace(s)
}

var defaultTransliteration = newReplacer(map[string]string{
	"æ": "ae", "ø": "oe", "å": "aa", "Æ": "Ae", "Ø": "Oe", "Å": "Aa",
})

// Transliterate replaces the Danish characters æ, ø, and å (and their
// capitals) with ae, oe, and aa.
func Transliterate(s string) string {
	return defaultTransliteration.Replace(s)
}

// newReplacer creates a replacer that applies longer keys first.
func newReplacer(m map[string]string) *strings.Replacer {
	keys := sortedKeys(m)
	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, m[k])
	}
	return strings.NewReplacer(args...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// NormalizeRegionCode converts GADM codes such as "DNK.1.2_1" to
// Balmorel region codes such as "DK_1_2_1".
func NormalizeRegionCode(code string) string {
	return strings.Replace(strings.Replace(code, "DNK", "DK", -1), ".", "_", -1)
}

// Season returns the Balmorel season label (S01-S52) for a one-based
// week number.
func Season(week int) string { return fmt.Sprintf("S%02d", week) }

// Term returns the Balmorel term label (T001-T168) for a one-based
// hour-of-week number.
func Term(hour int) string { return fmt.Sprintf("T%03d", hour) }

// Apply renames the dimensions and elements of s. Values are never
// modified; Apply checks this and returns an error if they were.
func (c *Converter) Apply(s *incfile.Symbol) (*incfile.Symbol, error) {
	labels := s.Labels()
	before := s.Values()

	translit := make(map[string]bool)
	for _, d := range c.Transliterate.Dims {
		translit[d] = true
	}
	replacers := make(map[string]*strings.Replacer)
	for dim, m := range c.Elements {
		replacers[dim] = newReplacer(m)
	}
	tr := c.translit
	if tr == nil {
		tr = defaultTransliteration
	}

	dims := make([]string, len(s.Dims))
	for j, d := range s.Dims {
		dims[j] = d
		if n, ok := c.Dims[d]; ok {
			dims[j] = n
		}
		r, rename := replacers[d]
		for i := range labels {
			if rename {
				labels[i][j] = r.Replace(labels[i][j])
			}
			if translit[d] {
				labels[i][j] = tr.Replace(labels[i][j])
			}
		}
	}
	if c.SeasonsAndTerms {
		for j, d := range dims {
			switch d {
			case "S":
				if err := positionalLabels(labels, j, Season); err != nil {
					return nil, fmt.Errorf("balprep: converting %s weeks: %v", s.Name, err)
				}
			case "T":
				if err := positionalLabels(labels, j, Term); err != nil {
					return nil, fmt.Errorf("balprep: converting %s hours: %v", s.Name, err)
				}
			}
		}
	}
	out, err := incfile.NewSymbol(s.Name, s.Text, s.Kind, dims, labels, before)
	if err != nil {
		return nil, err
	}
	out.File, out.Suffix = s.File, s.Suffix
	if err := sameValues(before, out.Values()); err != nil {
		return nil, fmt.Errorf("balprep: converting names of %s: %v", s.Name, err)
	}
	return out, nil
}

// positionalLabels replaces the numeric labels in column j by the
// labels produced by f for their one-based rank. Non-numeric labels
// are left as they are.
func positionalLabels(labels [][]string, j int, f func(int) string) error {
	var nums []float64
	seen := make(map[float64]bool)
	for _, l := range labels {
		v, err := strconv.ParseFloat(l[j], 64)
		if err != nil {
			return nil
		}
		if !seen[v] {
			seen[v] = true
			nums = append(nums, v)
		}
	}
	sort.Float64s(nums)
	rank := make(map[float64]int, len(nums))
	for i, v := range nums {
		rank[v] = i + 1
	}
	for _, l := range labels {
		v, _ := strconv.ParseFloat(l[j], 64)
		l[j] = f(rank[v])
	}
	return nil
}

func sameValues(before, after []float64) error {
	if len(before) != len(after) {
		return fmt.Errorf("%d values before conversion but %d after", len(before), len(after))
	}
	for i := range before {
		a, b := before[i], after[i]
		if math.IsNaN(a) {
			a = 0
		}
		if math.IsNaN(b) {
			b = 0
		}
		if a != b {
			return fmt.Errorf("values are not the same after conversion: %g != %g at record %d", a, b, i)
		}
	}
	return nil
}
