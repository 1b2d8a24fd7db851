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
	"strings"

	"github.com/spatialmodel/balprep/incfile"
)

// DefaultRelaxationCapacity is the transmission capacity in MW given
// to links within a cluster when relaxing transmission.
const DefaultRelaxationCapacity = 1e6

// TransmissionRelaxation creates GAMS assignments that give every
// pair of regions within the same cluster the transmission capacity
// cap in both directions, so that a model run on the original regions
// behaves as if each cluster were a single region.
func TransmissionRelaxation(c *Clustering, cap float64) *incfile.File {
	var b strings.Builder
	for _, members := range c.Members() {
		seen := make(map[string]bool)
		var nodes []string
		for _, m := range members {
			if !seen[m] {
				seen[m] = true
				nodes = append(nodes, m)
			}
		}
		for i, a := range nodes {
			for _, z := range nodes[i+1:] {
				fmt.Fprintf(&b, "XKFX(YYY,'%s','%s') = %0.2f;\n", a, z, cap)
				fmt.Fprintf(&b, "XKFX(YYY,'%s','%s') = %0.2f;\n", z, a, cap)
			}
		}
	}
	return &incfile.File{Name: "transmisson_relaxation", Body: b.String()}
}
