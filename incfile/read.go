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

package incfile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var declRegexp = regexp.MustCompile(`(?i)^\s*(TABLE|PARAMETERS?|SETS?|SCALARS?)\s+([A-Za-z_][A-Za-z0-9_]*)\s*(\(([^)]*)\))?\s*('([^']*)'|"([^"]*)")?\s*(.*)$`)

// token is a whitespace-delimited piece of a line and its position.
type token struct {
	text       string
	start, end int
}

// tokenize splits a line into tokens. Quoted labels may contain spaces;
// the quotes are removed.
func tokenize(line string) []token {
	var toks []token
	i := 0
	for i < len(line) {
		if line[i] == ' ' || line[i] == '\t' {
			i++
			continue
		}
		start := i
		if line[i] == '\'' || line[i] == '"' {
			q := line[i]
			j := strings.IndexByte(line[i+1:], q)
			if j >= 0 {
				toks = append(toks, token{text: line[i+1 : i+1+j], start: start, end: i + 2 + j})
				i = i + 2 + j
				continue
			}
		}
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		toks = append(toks, token{text: line[start:i], start: start, end: i})
	}
	return toks
}

// ParseValue parses a GAMS numeric value. EPS is returned as 0.
func ParseValue(s string) (float64, error) {
	switch strings.ToUpper(s) {
	case EPS:
		return 0, nil
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NA", "UNDF":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// splitLabel consumes a possibly multi-dimensional label
// ("a . b . c") from the start of toks.
func splitLabel(toks []token) (labels []string, rest []token) {
	if len(toks) == 0 {
		return nil, nil
	}
	// Labels may also be written "a.b" without spaces.
	labels = append(labels, strings.Split(toks[0].text, ".")...)
	i := 1
	for i+1 < len(toks) && toks[i].text == "." {
		labels = append(labels, strings.Split(toks[i+1].text, ".")...)
		i += 2
	}
	return labels, toks[i:]
}

// isNumericLabel reports whether a label looks like a number, in
// which case it must not be split on '.'.
func isNumericLabel(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// splitLabelNumeric is like splitLabel but keeps numeric tokens whole.
func splitLabelNumeric(toks []token) (labels []string, rest []token) {
	if len(toks) == 0 {
		return nil, nil
	}
	split := func(s string) []string {
		if isNumericLabel(s) {
			return []string{s}
		}
		return strings.Split(s, ".")
	}
	labels = append(labels, split(toks[0].text)...)
	i := 1
	for i+1 < len(toks) && toks[i].text == "." {
		labels = append(labels, split(toks[i+1].text)...)
		i += 2
	}
	return labels, toks[i:]
}

type symbolBuilder struct {
	sym    *Symbol
	labels [][]string
	values []float64
	suffix []string
}

func (b *symbolBuilder) finish() (*Symbol, error) {
	s, err := NewSymbol(b.sym.Name, b.sym.Text, b.sym.Kind, b.sym.Dims, b.labels, b.values)
	if err != nil {
		return nil, err
	}
	s.File = b.sym.File
	s.Suffix = strings.TrimSpace(strings.Join(b.suffix, "\n"))
	return s, nil
}

func uniqueDims(dims []string) []string {
	seen := make(map[string]int)
	out := make([]string, len(dims))
	for i, d := range dims {
		d = strings.TrimSpace(d)
		seen[d]++
		if seen[d] > 1 {
			out[i] = fmt.Sprintf("%s_%d", d, seen[d]-1)
		} else {
			out[i] = d
		}
	}
	return out
}

// Read reads all TABLE, PARAMETER, and SET data statements in r.
// Statements that follow a symbol's data (for example assignments)
// are stored in that symbol's Suffix. Declarations without data are
// treated as statements. name is used as the File of each symbol.
func Read(r io.Reader, name string) ([]*Symbol, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("incfile: reading %s: %v", name, err)
	}

	var syms []*Symbol
	var cur *symbolBuilder
	flush := func() error {
		if cur == nil {
			return nil
		}
		s, err := cur.finish()
		if err != nil {
			return err
		}
		syms = append(syms, s)
		cur = nil
		return nil
	}

	nextData := func(i int) int {
		for i < len(lines) {
			t := strings.TrimSpace(lines[i])
			if t != "" && !strings.HasPrefix(t, "*") {
				return i
			}
			i++
		}
		return i
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		m := declRegexp.FindStringSubmatch(line)
		if m == nil {
			if cur != nil && trimmed != "" {
				cur.suffix = append(cur.suffix, line)
			}
			continue
		}
		keyword := strings.ToUpper(m[1])
		rest := strings.TrimSpace(m[8])
		if strings.HasPrefix(keyword, "SCALAR") || strings.HasPrefix(rest, ";") {
			// Declarations without data belong to the statements of
			// the current symbol.
			if cur != nil {
				cur.suffix = append(cur.suffix, line)
			}
			continue
		}
		var dims []string
		if m[4] != "" {
			dims = uniqueDims(strings.Split(m[4], ","))
		}
		text := m[6]
		if text == "" {
			text = m[7]
		}
		b := &symbolBuilder{sym: &Symbol{Name: m[2], Text: text, Dims: dims, File: name}}

		switch {
		case keyword == "TABLE":
			if len(dims) < 2 {
				return nil, fmt.Errorf("incfile: %s: table %s must have at least two dimensions", name, m[2])
			}
			b.sym.Kind = Parameter
			end, err := readTable(lines, nextData(i+1), b)
			if err != nil {
				return nil, fmt.Errorf("incfile: %s: %v", name, err)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			cur = b
			i = end
		default:
			if strings.HasPrefix(keyword, "SET") {
				b.sym.Kind = Set
				if len(b.sym.Dims) == 0 {
					b.sym.Dims = []string{"*"}
				}
			} else {
				b.sym.Kind = Parameter
			}
			start := i + 1
			var first string
			if strings.HasPrefix(rest, "/") {
				first = strings.TrimSpace(strings.TrimPrefix(rest, "/"))
			} else {
				j := nextData(i + 1)
				if j >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[j]), "/") {
					if cur != nil {
						cur.suffix = append(cur.suffix, line)
					}
					continue
				}
				first = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[j]), "/"))
				start = j + 1
			}
			end, err := readList(lines, first, start, b)
			if err != nil {
				return nil, fmt.Errorf("incfile: %s: %v", name, err)
			}
			if j := nextData(end + 1); j < len(lines) && strings.TrimSpace(lines[j]) == ";" {
				end = j
			}
			if err := flush(); err != nil {
				return nil, err
			}
			cur = b
			i = end
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return syms, nil
}

// readTable reads the header and rows of a table starting at line i.
// It returns the index of the line holding the terminating ';'.
func readTable(lines []string, i int, b *symbolBuilder) (int, error) {
	if i >= len(lines) {
		return i, fmt.Errorf("table %s has no header", b.sym.Name)
	}
	header := tokenize(lines[i])
	nIndex := len(b.sym.Dims) - 1
	for i++; i < len(lines); i++ {
		line := lines[i]
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "*") {
			continue
		}
		if t == ";" {
			return i, nil
		}
		if strings.HasPrefix(t, "+") {
			return i, fmt.Errorf("table %s: continuation blocks are not supported", b.sym.Name)
		}
		done := false
		if strings.HasSuffix(t, ";") {
			done = true
			line = line[:strings.LastIndex(line, ";")]
		}
		toks := tokenize(line)
		labels, vals := splitLabelNumeric(toks)
		if len(labels) != nIndex {
			return i, fmt.Errorf("table %s: row %q has %d index labels, want %d", b.sym.Name, strings.TrimSpace(line), len(labels), nIndex)
		}
		for _, v := range vals {
			col, err := matchColumn(header, v)
			if err != nil {
				return i, fmt.Errorf("table %s: %v", b.sym.Name, err)
			}
			f, err := ParseValue(v.text)
			if err != nil {
				return i, fmt.Errorf("table %s: parsing value %q: %v", b.sym.Name, v.text, err)
			}
			row := make([]string, 0, nIndex+1)
			row = append(row, labels...)
			row = append(row, col)
			b.labels = append(b.labels, row)
			b.values = append(b.values, f)
		}
		if done {
			return i, nil
		}
	}
	return i, fmt.Errorf("table %s is not terminated", b.sym.Name)
}

// matchColumn finds the header column a value token belongs to: the
// column whose span overlaps the token, or failing that the column
// with the nearest right edge.
func matchColumn(header []token, v token) (string, error) {
	if len(header) == 0 {
		return "", fmt.Errorf("table has no columns")
	}
	best := -1
	bestDist := math.MaxInt32
	for j, h := range header {
		if h.start < v.end && v.start < h.end {
			d := h.end - v.end
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = j, d
			}
		}
	}
	if best >= 0 {
		return header[best].text, nil
	}
	for j, h := range header {
		d := h.end - v.end
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	return header[best].text, nil
}

// readList reads the records of a slash-delimited data list. first holds
// any text following the opening '/' on its line and i is the line after
// that. It returns the index of the last line of the statement.
func readList(lines []string, first string, i int, b *symbolBuilder) (int, error) {
	process := func(text string) (closed bool, err error) {
		text = strings.TrimSpace(text)
		if k := strings.Index(text, "/"); k >= 0 && !strings.Contains(text[:k], "'") {
			closed = true
			text = text[:k]
		}
		for _, rec := range strings.Split(text, ",") {
			rec = strings.TrimSpace(rec)
			if rec == "" || strings.HasPrefix(rec, "*") {
				continue
			}
			toks := tokenize(rec)
			if b.sym.Kind == Set {
				labels, rest := splitLabel(toks)
				if len(labels) != len(b.sym.Dims) {
					return closed, fmt.Errorf("set %s: element %q has %d labels, want %d", b.sym.Name, rec, len(labels), len(b.sym.Dims))
				}
				_ = rest // explanatory text
				b.labels = append(b.labels, labels)
				continue
			}
			if len(toks) < 2 {
				continue
			}
			labels, vals := splitLabelNumeric(toks[:len(toks)-1])
			if len(vals) != 0 || len(labels) != len(b.sym.Dims) {
				return closed, fmt.Errorf("parameter %s: record %q does not match dimensions %v", b.sym.Name, rec, b.sym.Dims)
			}
			f, err := ParseValue(toks[len(toks)-1].text)
			if err != nil {
				return closed, fmt.Errorf("parameter %s: parsing value %q: %v", b.sym.Name, toks[len(toks)-1].text, err)
			}
			b.labels = append(b.labels, labels)
			b.values = append(b.values, f)
		}
		return closed, nil
	}
	closed, err := process(first)
	if err != nil || closed {
		return i - 1, err
	}
	for ; i < len(lines); i++ {
		closed, err := process(lines[i])
		if err != nil {
			return i, err
		}
		if closed {
			return i, nil
		}
	}
	return i, fmt.Errorf("%s is not terminated", b.sym.Name)
}

// Database holds symbols by name.
type Database map[string]*Symbol

// ReadFile reads the symbols in a single .inc file.
func ReadFile(path string) ([]*Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("incfile: %v", err)
	}
	defer f.Close()
	return Read(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// ReadDir reads every .inc file in dir, in lexical order. Records of a
// symbol that is defined in more than one file are appended to the
// first definition, the way GAMS treats data added under $onmulti.
func ReadDir(dir string) (Database, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.inc"))
	if err != nil {
		return nil, fmt.Errorf("incfile: %v", err)
	}
	sort.Strings(files)
	db := make(Database)
	for _, file := range files {
		syms, err := ReadFile(file)
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			if err := db.add(s); err != nil {
				return nil, err
			}
		}
	}
	return db, nil
}

func (db Database) add(s *Symbol) error {
	old, ok := db[s.Name]
	if !ok {
		db[s.Name] = s
		return nil
	}
	if old.Kind != s.Kind || len(old.Dims) != len(s.Dims) {
		return fmt.Errorf("incfile: %s in %s does not match its definition in %s", s.Name, s.File, old.File)
	}
	if s.Len() == 0 {
		return nil
	}
	// Align column names before binding rows.
	data := s.Data
	for j, d := range s.Dims {
		if d != old.Dims[j] {
			data = data.Rename(old.Dims[j], d)
		}
	}
	if old.Len() == 0 {
		old.Data = data
	} else {
		old.Data = old.Data.RBind(data)
	}
	if old.Data.Err != nil {
		return fmt.Errorf("incfile: merging %s: %v", s.Name, old.Data.Err)
	}
	if s.Suffix != "" {
		if old.Suffix != "" {
			old.Suffix += "\n"
		}
		old.Suffix += s.Suffix
	}
	return nil
}

// Names returns the sorted names of the symbols in the database.
func (db Database) Names() []string {
	names := make([]string, 0, len(db))
	for n := range db {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
