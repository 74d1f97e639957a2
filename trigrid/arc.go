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
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// angleTolerance is the slack in radians used when deciding whether a
// solution of an arc equation falls within the arc.
const angleTolerance = 1e-12

// arc is the short great-circle arc from a to b, parameterized as
//
//	p(θ) = a·cos θ + u·sin θ,  0 ≤ θ ≤ length
//
// where u is the unit vector in the plane of the arc perpendicular to a.
type arc struct {
	a, u   r3.Vec
	length float64
}

// newArc returns the arc from a to b. ok is false if a and b coincide,
// in which case the arc has no direction.
func newArc(a, b r3.Vec) (c arc, ok bool) {
	c.a = a
	c.length = geodesic.Angle(a, b)
	perp := r3.Sub(b, r3.Scale(r3.Dot(a, b), a))
	if c.length < angleTolerance || r3.Norm(perp) == 0 {
		return c, false
	}
	c.u = r3.Unit(perp)
	return c, true
}

// at returns the point at angle θ along the arc.
func (c arc) at(θ float64) r3.Vec {
	return r3.Add(r3.Scale(math.Cos(θ), c.a), r3.Scale(math.Sin(θ), c.u))
}

// within maps θ onto [0, 2π) and reports whether it falls on the arc.
func (c arc) within(θ float64) (float64, bool) {
	θ = math.Mod(θ, 2*math.Pi)
	if θ < 0 {
		θ += 2 * math.Pi
	}
	if θ > 2*math.Pi-angleTolerance {
		θ = 0
	}
	return θ, θ <= c.length+angleTolerance
}

// latRange returns the lowest and highest latitude in degrees reached on
// the arc. An arc can bulge poleward of both its ends, so the extremes of
// z along the arc are solved for rather than read off the ends.
func (c arc) latRange() (min, max float64) {
	min, _ = geodesic.ToLatLon(c.a)
	max = min
	end, _ := geodesic.ToLatLon(c.at(c.length))
	min, max = math.Min(min, end), math.Max(max, end)

	// z(θ) = R cos(θ - α).
	R := math.Hypot(c.a.Z, c.u.Z)
	α := math.Atan2(c.u.Z, c.a.Z)
	if _, ok := c.within(α); ok {
		max = math.Max(max, asinDeg(R))
	}
	if _, ok := c.within(α + math.Pi); ok {
		min = math.Min(min, -asinDeg(R))
	}
	return min, max
}

// crossParallel returns the points where the arc crosses the parallel at
// latitude lat.
func (c arc) crossParallel(lat float64) []r3.Vec {
	s := math.Sin(lat * math.Pi / 180)
	R := math.Hypot(c.a.Z, c.u.Z)
	if R < angleTolerance || math.Abs(s) > R {
		// The arc runs along the equator or never reaches lat.
		return nil
	}
	α := math.Atan2(c.u.Z, c.a.Z)
	δ := math.Acos(math.Max(-1, math.Min(1, s/R)))
	var pts []r3.Vec
	for _, θ := range [2]float64{α - δ, α + δ} {
		if θ, ok := c.within(θ); ok {
			pts = append(pts, c.at(θ))
		}
	}
	return pts
}

// crossMeridian returns the points where the arc crosses the half
// meridian at longitude lon.
func (c arc) crossMeridian(lon float64) []r3.Vec {
	λ := lon * math.Pi / 180
	// m is the normal of the meridian plane; d points from the axis
	// towards the meridian's half of that plane.
	m := r3.Vec{X: -math.Sin(λ), Y: math.Cos(λ)}
	d := r3.Vec{X: math.Cos(λ), Y: math.Sin(λ)}
	am, um := r3.Dot(c.a, m), r3.Dot(c.u, m)
	if math.Abs(am) < angleTolerance && math.Abs(um) < angleTolerance {
		// The arc lies in the meridian plane.
		return nil
	}
	θ0 := math.Atan2(-am, um)
	var pts []r3.Vec
	for _, θ := range [2]float64{θ0, θ0 + math.Pi} {
		θ, ok := c.within(θ)
		if !ok {
			continue
		}
		p := c.at(θ)
		if r3.Dot(p, d) >= -angleTolerance {
			pts = append(pts, p)
		}
	}
	return pts
}

func asinDeg(x float64) float64 {
	return math.Asin(math.Max(-1, math.Min(1, x))) * 180 / math.Pi
}
