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
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// BBox is a geographic bounding box in degrees. Boxes that cross the
// antimeridian are not supported; split them in two.
type BBox struct {
	West, South, East, North float64
}

// NewBBox returns the box held in v as [west, south, east, north].
func NewBBox(v []float64) (BBox, error) {
	if len(v) != 4 {
		return BBox{}, &cellid.FormatError{
			Field: "bbox",
			Value: fmt.Sprint(v),
			Want:  "four numbers [west, south, east, north]",
		}
	}
	b := BBox{West: v[0], South: v[1], East: v[2], North: v[3]}
	return b, b.Validate()
}

// Validate checks that the edges of b are in range and in order.
func (b BBox) Validate() error {
	for _, e := range []struct {
		name     string
		v, limit float64
	}{
		{"west", b.West, 180},
		{"south", b.South, 90},
		{"east", b.East, 180},
		{"north", b.North, 90},
	} {
		if math.IsNaN(e.v) || e.v < -e.limit || e.v > e.limit {
			return rangeErr(e.name, e.v, -e.limit, e.limit)
		}
	}
	if b.South > b.North {
		return &cellid.FormatError{Field: "bbox", Value: b.String(), Want: "south <= north"}
	}
	if b.West > b.East {
		return &cellid.FormatError{Field: "bbox", Value: b.String(), Want: "west <= east"}
	}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.West, b.South, b.East, b.North)
}

// Bounds returns b as planar bounds with X holding the longitude.
func (b BBox) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.West, Y: b.South},
		Max: geom.Point{X: b.East, Y: b.North},
	}
}

// containsLon reports whether longitude lon is within b, treating -180
// and 180 as the same meridian.
func (b BBox) containsLon(lon float64) bool {
	if lon >= b.West && lon <= b.East {
		return true
	}
	switch lon {
	case 180:
		return b.West <= -180
	case -180:
		return b.East >= 180
	}
	return false
}

// containsPoint reports whether p is within b. The poles match any
// longitude.
func (b BBox) containsPoint(p r3.Vec) bool {
	lat, lon := geodesic.ToLatLon(p)
	if lat < b.South || lat > b.North {
		return false
	}
	if math.Abs(p.Z) > 1-angleTolerance {
		return true
	}
	return b.containsLon(lon)
}

// corners returns the corners of b on the unit sphere.
func (b BBox) corners() [4]r3.Vec {
	return [4]r3.Vec{
		geodesic.FromLatLon(b.South, b.West),
		geodesic.FromLatLon(b.South, b.East),
		geodesic.FromLatLon(b.North, b.East),
		geodesic.FromLatLon(b.North, b.West),
	}
}

// intersects reports whether spherical triangle t and b share any point.
// Either a corner of one lies within the other or their boundaries
// cross; edges of t are great-circle arcs while the sides of b are
// parallels and meridians, so the crossings are solved for directly.
func (b BBox) intersects(t geodesic.Triangle) bool {
	for _, v := range t {
		if b.containsPoint(v) {
			return true
		}
	}
	for _, c := range b.corners() {
		if t.Contains(c) {
			return true
		}
	}
	for i := range t {
		a, ok := newArc(t[i], t[(i+1)%3])
		if !ok {
			continue
		}
		for _, lat := range [2]float64{b.South, b.North} {
			for _, p := range a.crossParallel(lat) {
				if _, lon := geodesic.ToLatLon(p); b.containsLon(lon) {
					return true
				}
			}
		}
		for _, lon := range [2]float64{b.West, b.East} {
			for _, p := range a.crossMeridian(lon) {
				if lat, _ := geodesic.ToLatLon(p); lat >= b.South-1e-9 && lat <= b.North+1e-9 {
					return true
				}
			}
		}
	}
	return false
}

var (
	northPole = r3.Vec{Z: 1}
	southPole = r3.Vec{Z: -1}
)

// triangleBounds returns longitude/latitude bounds that enclose t.
// Triangles that contain a pole or cross the antimeridian span all
// longitudes.
func triangleBounds(t geodesic.Triangle) *geom.Bounds {
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	var lons [3]float64
	wrap := false
	for i, v := range t {
		_, lons[i] = geodesic.ToLatLon(v)
		b.Min.X = math.Min(b.Min.X, lons[i])
		b.Max.X = math.Max(b.Max.X, lons[i])
		if math.Abs(lons[i]) > 180-1e-9 {
			wrap = true
		}
		if a, ok := newArc(v, t[(i+1)%3]); ok {
			lo, hi := a.latRange()
			b.Min.Y = math.Min(b.Min.Y, lo)
			b.Max.Y = math.Max(b.Max.Y, hi)
		} else {
			lat, _ := geodesic.ToLatLon(v)
			b.Min.Y = math.Min(b.Min.Y, lat)
			b.Max.Y = math.Max(b.Max.Y, lat)
		}
	}
	for i := range lons {
		if math.Abs(lons[i]-lons[(i+1)%3]) > 180 {
			wrap = true
		}
	}
	if t.Contains(northPole) {
		b.Max.Y = 90
		wrap = true
	}
	if t.Contains(southPole) {
		b.Min.Y = -90
		wrap = true
	}
	if wrap {
		b.Min.X, b.Max.X = -180, 180
	}
	return b
}
