/*
Copyright © 2024 the trigrid authors.
This file is part of trigrid.

trigrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

trigrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with trigrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package trigrid

import (
	"fmt"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// neighborStep is how far beyond an edge, as a fraction of the edge
// length, the point used to find the neighbor across it is placed.
const neighborStep = 0.1

// Neighbors returns the cells at the same level that share an edge with
// id, in the order of the edges v0→v1, v1→v2 and v2→v0.
func Neighbors(id cellid.ID) ([]cellid.ID, error) {
	t, err := Triangle(id)
	if err != nil {
		return nil, err
	}
	c := t.Centroid()
	edges := t.Edges()
	out := make([]cellid.ID, 0, 3)
	for i := range t {
		m := geodesic.Midpoint(t[i], t[(i+1)%3])
		// Continue along the great circle from the centroid through the
		// edge midpoint until just past the edge.
		toEdge := geodesic.Angle(c, m)
		p := geodesic.Interpolate(c, m, 1+neighborStep*edges[i]/toEdge)
		n, _, err := locate(p, id.Level())
		if err != nil {
			return nil, fmt.Errorf("trigrid: neighbor %d of %v: %w", i, id, err)
		}
		if n != id && !containsID(out, n) {
			out = append(out, n)
		}
	}
	return out, nil
}
