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
	"errors"
	"reflect"
	"testing"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
)

func TestIndex(t *testing.T) {
	x := NewIndex()
	hungary := BBox{West: 18, South: 46, East: 21, North: 49}
	claimed, err := CellsInBbox(hungary, 6, 100)
	if err != nil {
		t.Fatal(err)
	}
	pole := cellid.MustNew(6, 3, 0, 2)
	if err := x.Insert(claimed...); err != nil {
		t.Fatal(err)
	}
	if err := x.Insert(budapest5, pole, claimed[0]); err != nil {
		t.Fatal(err)
	}
	if x.Len() != len(claimed)+2 {
		t.Errorf("Len() = %d; want %d", x.Len(), len(claimed)+2)
	}
	if !x.Has(pole) || x.Has(cellid.MustNew(0, 1)) {
		t.Error("Has gives the wrong answer")
	}

	got, err := x.Search(hungary)
	if err != nil {
		t.Fatal(err)
	}
	want := append([]cellid.ID{budapest5}, claimed...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search(hungary) = %v; want %v", got, want)
	}

	// Nested cells of different levels both contain the point.
	got, err = x.Containing(47.4979, 19.0402)
	if err != nil {
		t.Fatal(err)
	}
	l6, _ := PointToCell(47.4979, 19.0402, 6)
	if want := []cellid.ID{budapest5, l6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Containing(Budapest) = %v; want %v", got, want)
	}

	// The pole cell spans every longitude.
	for _, lon := range []float64{-180, -45, 0, 90, 180} {
		got, err = x.Containing(90, lon)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []cellid.ID{pole}) {
			t.Errorf("Containing(90, %g) = %v", lon, got)
		}
	}
	got, err = x.Search(BBox{West: 100, South: 89, East: 101, North: 90})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []cellid.ID{pole}) {
		t.Errorf("Search near the pole = %v", got)
	}

	got, err = x.Containing(-33.87, 151.21)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Containing(Sydney) = %v; want nothing", got)
	}

	if err := x.Insert(cellid.ID{}); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("inserting the zero ID: err = %v", err)
	}
	if _, err := x.Search(BBox{West: 1, East: 0}); !errors.Is(err, cellid.ErrFormat) {
		t.Errorf("bad bbox: err = %v", err)
	}
}
