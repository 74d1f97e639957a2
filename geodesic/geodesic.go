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

// Package geodesic holds the seed icosahedron that the trigrid cells are
// built from, along with conversions between geographic coordinates and
// points on the unit sphere and the great-circle helpers used to subdivide
// and search the cells.
//
// All points are r3.Vec values of unit length. Nothing in this package
// holds mutable state, so every function is safe for concurrent use.
package geodesic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadius is the mean radius of the Earth in meters.
const EarthRadius = 6371008.8

// UnitTolerance is the allowed deviation of a point's norm from 1.
const UnitTolerance = 1e-9

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// FromLatLon converts a latitude and longitude in degrees to a point
// on the unit sphere. Latitude must be within [-90, 90] and longitude
// within [-180, 180]; checking that is left to the caller.
func FromLatLon(lat, lon float64) r3.Vec {
	φ := lat * degToRad
	λ := lon * degToRad
	cosφ := math.Cos(φ)
	return r3.Vec{
		X: cosφ * math.Cos(λ),
		Y: cosφ * math.Sin(λ),
		Z: math.Sin(φ),
	}
}

// ToLatLon converts a point on the unit sphere to latitude and longitude
// in degrees. It is the inverse of FromLatLon.
func ToLatLon(p r3.Vec) (lat, lon float64) {
	z := math.Max(-1, math.Min(1, p.Z))
	return math.Asin(z) * radToDeg, math.Atan2(p.Y, p.X) * radToDeg
}

// Normalize projects v onto the unit sphere.
func Normalize(v r3.Vec) r3.Vec {
	return r3.Unit(v)
}

// IsUnit reports whether p lies on the unit sphere within UnitTolerance.
func IsUnit(p r3.Vec) bool {
	return math.Abs(r3.Norm(p)-1) <= UnitTolerance
}

// Midpoint returns the point halfway along the great-circle arc between
// a and b, computed by averaging the two vectors and renormalizing.
// a and b must not be antipodal.
func Midpoint(a, b r3.Vec) r3.Vec {
	return Normalize(r3.Scale(0.5, r3.Add(a, b)))
}

// Angle returns the great-circle angle between a and b in radians.
// The dot product is clamped to [-1, 1] before taking the inverse cosine.
func Angle(a, b r3.Vec) float64 {
	d := r3.Dot(a, b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b r3.Vec) float64 {
	return Angle(a, b) * EarthRadius
}

// Interpolate returns the point a fraction f of the way along the
// great-circle arc from a to b. f = 0 returns a and f = 1 returns b.
// When a and b are antipodal the arc is not unique; the one passing
// through Perpendicular(a) is used.
func Interpolate(a, b r3.Vec, f float64) r3.Vec {
	θ := Angle(a, b)
	sinθ := math.Sin(θ)
	if sinθ < 1e-12 {
		if r3.Dot(a, b) > 0 {
			// a and b coincide.
			return a
		}
		m := Perpendicular(a)
		if f <= 0.5 {
			return Interpolate(a, m, 2*f)
		}
		return Interpolate(m, b, 2*f-1)
	}
	wa := math.Sin((1-f)*θ) / sinθ
	wb := math.Sin(f*θ) / sinθ
	return Normalize(r3.Add(r3.Scale(wa, a), r3.Scale(wb, b)))
}

// Perpendicular returns a unit vector orthogonal to p. The result only
// depends on p.
func Perpendicular(p r3.Vec) r3.Vec {
	axis := r3.Vec{Z: 1}
	if math.Abs(p.Z) > 0.9 {
		axis = r3.Vec{X: 1}
	}
	return Normalize(r3.Cross(p, axis))
}
