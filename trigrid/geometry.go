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

// Package trigrid is a global hierarchical grid of spherical triangles.
// The 20 faces of an icosahedron are split recursively into four children
// down to level 21, where cells are about 7 m across. This package turns
// cell identifiers into geometry and answers which cells contain a point,
// overlap a box, are near a point or lie along a path.
//
// Geographic geometry uses ctessum/geom types with X holding the longitude
// and Y the latitude, both in degrees. All functions are pure and safe for
// concurrent use.
package trigrid

import (
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// Triangle returns the corners of cell id on the unit sphere, found by
// replaying the cell's path from its seed face.
func Triangle(id cellid.ID) (geodesic.Triangle, error) {
	if err := id.Validate(); err != nil {
		return geodesic.Triangle{}, err
	}
	t := geodesic.Face(id.Face())
	for i := 0; i < id.Level()-1; i++ {
		t = geodesic.Subdivide(t)[id.Digit(i)]
	}
	return t, nil
}

// Polygon returns the boundary of cell id as a closed ring of three
// corners, the first corner repeated at the end.
func Polygon(id cellid.ID) (geom.Polygon, error) {
	t, err := Triangle(id)
	if err != nil {
		return nil, err
	}
	return trianglePolygon(t), nil
}

func trianglePolygon(t geodesic.Triangle) geom.Polygon {
	p0, p1, p2 := lonLat(t[0]), lonLat(t[1]), lonLat(t[2])
	return geom.Polygon{geom.Path{p0, p1, p2, p0}}
}

// Centroid returns the normalized mean of the corners of cell id.
// It is good enough for display and indexing but is not the true
// area-weighted spherical centroid.
func Centroid(id cellid.ID) (geom.Point, error) {
	t, err := Triangle(id)
	if err != nil {
		return geom.Point{}, err
	}
	return lonLat(t.Centroid()), nil
}

// Vertices returns the three corners of cell id.
func Vertices(id cellid.ID) ([3]geom.Point, error) {
	t, err := Triangle(id)
	if err != nil {
		return [3]geom.Point{}, err
	}
	return [3]geom.Point{lonLat(t[0]), lonLat(t[1]), lonLat(t[2])}, nil
}

// Area returns the area of cell id in m², from the spherical excess of
// its corners (L'Huilier's formula) on a sphere of radius
// geodesic.EarthRadius.
func Area(id cellid.ID) (float64, error) {
	t, err := Triangle(id)
	if err != nil {
		return 0, err
	}
	return t.Excess() * geodesic.EarthRadius * geodesic.EarthRadius, nil
}

// Perimeter returns the summed great-circle length of the edges of cell
// id in meters.
func Perimeter(id cellid.ID) (float64, error) {
	t, err := Triangle(id)
	if err != nil {
		return 0, err
	}
	e := t.Edges()
	return (e[0] + e[1] + e[2]) * geodesic.EarthRadius, nil
}

// CrossesAntimeridian reports whether any two consecutive points of the
// rings of p are more than 180° of longitude apart, which happens when
// an edge crosses the ±180° meridian.
func CrossesAntimeridian(p geom.Polygon) bool {
	for _, ring := range p {
		for i := 1; i < len(ring); i++ {
			if math.Abs(ring[i].X-ring[i-1].X) > 180 {
				return true
			}
		}
	}
	return false
}

// Cell holds the derived properties of a cell: what an external store
// keeps next to its own state for the cell.
type Cell struct {
	ID        cellid.ID     `json:"id"`
	Face      int           `json:"face"`
	Level     int           `json:"level"`
	Path      []int         `json:"path"`
	Polygon   geom.Polygon  `json:"-"`
	Centroid  geom.Point    `json:"-"`
	Vertices  [3]geom.Point `json:"-"`
	Area      float64       `json:"area_m2"`
	Perimeter float64       `json:"perimeter_m"`

	// CrossesAntimeridian is true if Polygon has an edge that crosses
	// the ±180° meridian.
	CrossesAntimeridian bool `json:"crosses_antimeridian"`
}

// Describe computes all the properties of cell id in one traversal.
func Describe(id cellid.ID) (*Cell, error) {
	t, err := Triangle(id)
	if err != nil {
		return nil, err
	}
	e := t.Edges()
	c := &Cell{
		ID:        id,
		Face:      id.Face(),
		Level:     id.Level(),
		Path:      id.Path(),
		Polygon:   trianglePolygon(t),
		Centroid:  lonLat(t.Centroid()),
		Vertices:  [3]geom.Point{lonLat(t[0]), lonLat(t[1]), lonLat(t[2])},
		Area:      t.Excess() * geodesic.EarthRadius * geodesic.EarthRadius,
		Perimeter: (e[0] + e[1] + e[2]) * geodesic.EarthRadius,
	}
	c.CrossesAntimeridian = CrossesAntimeridian(c.Polygon)
	return c, nil
}

// lonLat converts a point on the unit sphere to a geographic point.
func lonLat(v r3.Vec) geom.Point {
	lat, lon := geodesic.ToLatLon(v)
	return geom.Point{X: lon, Y: lat}
}
