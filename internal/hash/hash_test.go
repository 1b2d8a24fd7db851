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

package hash

import (
	"math"
	"testing"
)

type request struct {
	File, Sheet string
}

type named string

func (n named) String() string { return "name:" + string(n) }

func TestHash(t *testing.T) {
	a := Hash(request{File: "a.xlsx", Sheet: "S1"})
	if a != Hash(request{File: "a.xlsx", Sheet: "S1"}) {
		t.Error("equal requests have different keys")
	}
	if a == Hash(request{File: "a.xlsx", Sheet: "S2"}) {
		t.Error("different requests have the same key")
	}
	if h := Hash(named("x")); h != "name:x" {
		t.Errorf("stringer key %q", h)
	}
	// Channels cannot be gob encoded.
	c := struct {
		C chan int
		V float64
	}{V: math.NaN()}
	if Hash(c) == "" {
		t.Error("empty key")
	}
}
