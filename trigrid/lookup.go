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
	"sort"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// PathStep is the shortest distance in meters between the samples taken
// by CellsAlongPath.
const PathStep = 1000.0

// PointToCell returns the cell at level that contains the point at lat,
// lon (degrees).
//
// The seed faces are tested in order and the first one containing the
// point is descended into one level at a time. When exactly one child
// contains the point it is chosen. Points on a shared edge or vertex are
// claimed by several children, and rounding can leave a point claimed by
// none; in both cases the child with the nearest centroid is chosen,
// among the claimants if there are any and among all four otherwise,
// with ties going to the lowest child index. This is a heuristic, not a
// proof of correctness near edges, but it always gives the same answer
// for the same input.
func PointToCell(lat, lon float64, level int) (cellid.ID, error) {
	if err := checkLatLon(lat, lon); err != nil {
		return cellid.ID{}, err
	}
	if err := checkLevel(level); err != nil {
		return cellid.ID{}, err
	}
	id, _, err := locate(geodesic.FromLatLon(lat, lon), level)
	return id, err
}

// locate returns the cell at level containing p and its triangle.
func locate(p r3.Vec, level int) (cellid.ID, geodesic.Triangle, error) {
	face := -1
	for i := 0; i < geodesic.NumFaces; i++ {
		if geodesic.Face(i).Contains(p) {
			face = i
			break
		}
	}
	if face < 0 {
		return cellid.ID{}, geodesic.Triangle{}, ErrNotFound
	}
	id, err := cellid.Seed(face)
	if err != nil {
		return cellid.ID{}, geodesic.Triangle{}, err
	}
	t := geodesic.Face(face)
	for id.Level() < level {
		children := geodesic.Subdivide(t)
		i := pickChild(children, p)
		if id, err = id.Child(i); err != nil {
			return cellid.ID{}, geodesic.Triangle{}, err
		}
		t = children[i]
	}
	return id, t, nil
}

// pickChild returns the index of the child that p descends into.
func pickChild(children [4]geodesic.Triangle, p r3.Vec) int {
	var claims [4]bool
	n, last := 0, -1
	for i, c := range children {
		if c.Contains(p) {
			claims[i] = true
			n++
			last = i
		}
	}
	if n == 1 {
		return last
	}
	best, bestDist := 0, math.Inf(1)
	for i, c := range children {
		if n > 1 && !claims[i] {
			continue
		}
		if d := geodesic.Angle(p, c.Centroid()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// CellsInBbox returns the cells at level that overlap b, in the order of
// cellid.Less. The search is depth first from the seed faces and skips
// the descendants of any cell that does not overlap b. It stops once
// maxResults cells have been found, so a full result is only guaranteed
// when fewer than maxResults cells are returned.
func CellsInBbox(b BBox, level, maxResults int) ([]cellid.ID, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		return nil, &cellid.FormatError{
			Field: "maxResults",
			Value: fmt.Sprint(maxResults),
			Want:  "a positive number",
		}
	}
	bounds := b.Bounds()

	type node struct {
		id cellid.ID
		t  geodesic.Triangle
	}
	stack := make([]node, 0, geodesic.NumFaces+3*level)
	for f := geodesic.NumFaces - 1; f >= 0; f-- {
		id, err := cellid.Seed(f)
		if err != nil {
			return nil, err
		}
		stack = append(stack, node{id: id, t: geodesic.Face(f)})
	}
	var out []cellid.ID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !bounds.Overlaps(triangleBounds(n.t)) || !b.intersects(n.t) {
			continue
		}
		if n.id.Level() == level {
			out = append(out, n.id)
			if len(out) == maxResults {
				break
			}
			continue
		}
		ids, err := n.id.Children()
		if err != nil {
			return nil, err
		}
		tris := geodesic.Subdivide(n.t)
		for i := 3; i >= 0; i-- {
			stack = append(stack, node{id: ids[i], t: tris[i]})
		}
	}
	return out, nil
}

// NearestCells returns up to count cells at level ordered by the
// great-circle distance from the point to their centroids. The
// candidates are the cell containing the point, its siblings and its
// edge neighbors.
func NearestCells(lat, lon float64, level, count int) ([]cellid.ID, error) {
	if count <= 0 {
		return nil, &cellid.FormatError{
			Field: "count",
			Value: fmt.Sprint(count),
			Want:  "a positive number",
		}
	}
	id, err := PointToCell(lat, lon, level)
	if err != nil {
		return nil, err
	}
	candidates := []cellid.ID{id}
	if level > cellid.MinLevel {
		s, err := id.Siblings()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, s...)
	}
	nb, err := Neighbors(id)
	if err != nil {
		return nil, err
	}
	for _, n := range nb {
		if !containsID(candidates, n) {
			candidates = append(candidates, n)
		}
	}

	p := geodesic.FromLatLon(lat, lon)
	dist := make(map[cellid.ID]float64, len(candidates))
	for _, c := range candidates {
		t, err := Triangle(c)
		if err != nil {
			return nil, err
		}
		dist[c] = geodesic.Angle(p, t.Centroid())
	}
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := dist[candidates[i]], dist[candidates[j]]
		if di != dj {
			return di < dj
		}
		return cellid.Less(candidates[i], candidates[j])
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// CellsAlongPath returns the distinct cells at level met along the
// great-circle path from start to end, in the order they are met. X holds
// the longitude and Y the latitude of the end points. The path is
// sampled at both ends and at even steps of at least PathStep meters or
// 1% of its length, whichever is larger, so cells that the path only
// clips may be missed.
func CellsAlongPath(start, end geom.Point, level int) ([]cellid.ID, error) {
	for _, p := range []geom.Point{start, end} {
		if err := checkLatLon(p.Y, p.X); err != nil {
			return nil, err
		}
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}
	a := geodesic.FromLatLon(start.Y, start.X)
	b := geodesic.FromLatLon(end.Y, end.X)
	length := geodesic.Distance(a, b)
	step := math.Max(PathStep, length/100)
	n := int(math.Ceil(length / step))
	if n < 1 {
		n = 1
	}

	var out []cellid.ID
	seen := make(map[cellid.ID]bool)
	for i := 0; i <= n; i++ {
		var p r3.Vec
		switch i {
		case 0:
			p = a
		case n:
			p = b
		default:
			p = geodesic.Interpolate(a, b, float64(i)/float64(n))
		}
		id, _, err := locate(p, level)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// Contains reports whether the point at lat, lon lies within cell id,
// boundary included.
func Contains(id cellid.ID, lat, lon float64) (bool, error) {
	if err := checkLatLon(lat, lon); err != nil {
		return false, err
	}
	t, err := Triangle(id)
	if err != nil {
		return false, err
	}
	return t.Contains(geodesic.FromLatLon(lat, lon)), nil
}

func containsID(ids []cellid.ID, id cellid.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
