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

package geodesic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NumFaces is the number of faces of the seed icosahedron.
const NumFaces = 20

// NumVertices is the number of vertices of the seed icosahedron.
const NumVertices = 12

// SideTolerance is the slack allowed when deciding which side of an
// edge plane a point is on.
const SideTolerance = 1e-10

// φ is the golden ratio.
var φ = (1 + math.Sqrt(5)) / 2

// vertices are the corners of the seed icosahedron, projected onto the
// unit sphere.
var vertices = func() [NumVertices]r3.Vec {
	raw := [NumVertices]r3.Vec{
		{X: -1, Y: φ}, {X: 1, Y: φ}, {X: -1, Y: -φ}, {X: 1, Y: -φ},
		{Y: -1, Z: φ}, {Y: 1, Z: φ}, {Y: -1, Z: -φ}, {Y: 1, Z: -φ},
		{X: φ, Z: -1}, {X: φ, Z: 1}, {X: -φ, Z: -1}, {X: -φ, Z: 1},
	}
	var v [NumVertices]r3.Vec
	for i, p := range raw {
		v[i] = Normalize(p)
	}
	return v
}()

// faces index into vertices. Each face is wound counter-clockwise when
// viewed from outside the sphere.
var faces = [NumFaces][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// Vertex returns seed vertex i. It panics if i is not in [0, 11].
func Vertex(i int) r3.Vec {
	if i < 0 || i >= NumVertices {
		panic(fmt.Errorf("geodesic: vertex index %d out of range [0, %d]", i, NumVertices-1))
	}
	return vertices[i]
}

// FaceIndices returns the vertex indices of seed face i.
// It panics if i is not in [0, 19].
func FaceIndices(i int) [3]int {
	checkFace(i)
	return faces[i]
}

// Triangle is a spherical triangle given by its three corners.
type Triangle [3]r3.Vec

// Face returns seed face i. It panics if i is not in [0, 19]: a bad face
// index is a programming error and is never clamped.
func Face(i int) Triangle {
	checkFace(i)
	f := faces[i]
	return Triangle{vertices[f[0]], vertices[f[1]], vertices[f[2]]}
}

func checkFace(i int) {
	if i < 0 || i >= NumFaces {
		panic(fmt.Errorf("geodesic: face index %d out of range [0, %d]", i, NumFaces-1))
	}
}

// Subdivide splits t into four triangles using the midpoints of its
// edges. The order of the result is fixed and is what the digits of a
// cell path refer to:
//
//	0: [v0, m01, m20]  (corner at v0)
//	1: [m01, v1, m12]  (corner at v1)
//	2: [m20, m12, v2]  (corner at v2)
//	3: [m01, m12, m20] (center)
func Subdivide(t Triangle) [4]Triangle {
	m01 := Midpoint(t[0], t[1])
	m12 := Midpoint(t[1], t[2])
	m20 := Midpoint(t[2], t[0])
	return [4]Triangle{
		{t[0], m01, m20},
		{m01, t[1], m12},
		{m20, m12, t[2]},
		{m01, m12, m20},
	}
}

// Child returns child i of t as ordered by Subdivide.
func (t Triangle) Child(i int) Triangle {
	return Subdivide(t)[i]
}

// Contains reports whether p is inside t or on its boundary.
func (t Triangle) Contains(p r3.Vec) bool {
	return InTriangle(p, t[0], t[1], t[2])
}

// InTriangle reports whether p lies inside the spherical triangle
// (v0, v1, v2). For each edge, p must be on the same side of the plane
// through the edge and the sphere center as the opposite vertex. Points
// within SideTolerance of an edge plane count as inside. The test is
// exact on the sphere, so it holds for triangles of any size.
//
// Edge normals are normalized, so SideTolerance is an angle in radians
// (about 0.6 mm on the ground) whatever the size of the triangle.
func InTriangle(p, v0, v1, v2 r3.Vec) bool {
	return sameSide(p, v2, v0, v1) &&
		sameSide(p, v0, v1, v2) &&
		sameSide(p, v1, v2, v0)
}

// sameSide reports whether p and opposite lie on the same side of the
// great circle through a and b.
func sameSide(p, opposite, a, b r3.Vec) bool {
	n := Normalize(r3.Cross(a, b))
	dp := r3.Dot(n, p)
	do := r3.Dot(n, opposite)
	return (dp >= -SideTolerance && do >= -SideTolerance) ||
		(dp <= SideTolerance && do <= SideTolerance)
}

// Centroid returns the normalized mean of the corners of t. It is close
// to, but not the same as, the true spherical centroid.
func (t Triangle) Centroid() r3.Vec {
	return Normalize(r3.Add(r3.Add(t[0], t[1]), t[2]))
}

// Edges returns the great-circle lengths in radians of the edges
// v0→v1, v1→v2 and v2→v0.
func (t Triangle) Edges() [3]float64 {
	return [3]float64{
		Angle(t[0], t[1]),
		Angle(t[1], t[2]),
		Angle(t[2], t[0]),
	}
}

// Excess returns the spherical excess of t in steradians, which is its
// area on the unit sphere. It uses L'Huilier's formula.
func (t Triangle) Excess() float64 {
	e := t.Edges()
	a, b, c := e[0], e[1], e[2]
	s := (a + b + c) / 2
	x := math.Tan(s/2) * math.Tan((s-a)/2) * math.Tan((s-b)/2) * math.Tan((s-c)/2)
	if x < 0 {
		// Rounding on degenerate triangles.
		x = 0
	}
	return 4 * math.Atan(math.Sqrt(x))
}

// Normal returns the outward unit normal of the plane through the
// corners of t, following their winding.
func (t Triangle) Normal() r3.Vec {
	return Normalize(r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0])))
}
