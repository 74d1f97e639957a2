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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
	"github.com/moldovancsaba/blockmass-sub003/geodesic"
)

// Index is a spatial index over an arbitrary set of cells, for example
// the cells that a persistence layer reports as claimed. Cells of
// different levels may be mixed. An Index may be read concurrently but
// Insert must not be called concurrently with any other method.
type Index struct {
	tree  *rtree.Rtree
	cells map[cellid.ID]*indexedCell
}

// indexedCell is the rtree entry for a cell. Its bounds are
// triangleBounds rather than the bounds of the planar polygon, which are
// wrong for cells that contain a pole or cross the antimeridian.
type indexedCell struct {
	geom.Polygon
	id     cellid.ID
	t      geodesic.Triangle
	bounds *geom.Bounds
}

func (c *indexedCell) Bounds() *geom.Bounds { return c.bounds }

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		tree:  rtree.NewTree(25, 50),
		cells: make(map[cellid.ID]*indexedCell),
	}
}

// Insert adds cells to the index. Cells already present are skipped.
func (x *Index) Insert(ids ...cellid.ID) error {
	for _, id := range ids {
		if _, ok := x.cells[id]; ok {
			continue
		}
		t, err := Triangle(id)
		if err != nil {
			return err
		}
		c := &indexedCell{
			Polygon: trianglePolygon(t),
			id:      id,
			t:       t,
			bounds:  triangleBounds(t),
		}
		x.tree.Insert(c)
		x.cells[id] = c
	}
	return nil
}

// Len returns the number of cells in the index.
func (x *Index) Len() int { return len(x.cells) }

// Has reports whether id has been inserted.
func (x *Index) Has(id cellid.ID) bool {
	_, ok := x.cells[id]
	return ok
}

// Search returns the indexed cells that overlap b, in the order of
// cellid.Less.
func (x *Index) Search(b BBox) ([]cellid.ID, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return x.collect(b.Bounds(), b.intersects), nil
}

// Containing returns the indexed cells that contain the point at lat,
// lon, in the order of cellid.Less. Nested cells of different levels
// may all contain the point, as may cells sharing the edge it lies on.
func (x *Index) Containing(lat, lon float64) ([]cellid.ID, error) {
	if err := checkLatLon(lat, lon); err != nil {
		return nil, err
	}
	p := geodesic.FromLatLon(lat, lon)
	pt := geom.Point{X: lon, Y: lat}
	return x.collect(pt.Bounds(), func(t geodesic.Triangle) bool {
		return t.Contains(p)
	}), nil
}

func (x *Index) collect(b *geom.Bounds, match func(geodesic.Triangle) bool) []cellid.ID {
	var out []cellid.ID
	for _, g := range x.tree.SearchIntersect(b) {
		c := g.(*indexedCell)
		if match(c.t) {
			out = append(out, c.id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return cellid.Less(out[i], out[j]) })
	return out
}
