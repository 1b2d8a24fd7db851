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

// Package balprep prepares input data for the Balmorel energy system
// model. It clusters regions into larger ones, aggregates existing
// Balmorel input files to match a clustering, and creates grid,
// geography, demand, profile, and biomass input files from public
// datasets.
package balprep

import (
	"strings"

	"github.com/spf13/cast"
)

// Version gives the version number.
const Version = "0.3.0"

// parseFloat parses a number that may be surrounded by whitespace.
func parseFloat(s string) (float64, error) {
	return cast.ToFloat64E(strings.TrimSpace(s))
}
