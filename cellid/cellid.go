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

// Package cellid defines the identifier of a trigrid cell and its
// checksummed text encoding.
//
// A cell is addressed by the seed face it descends from, its level and
// the path of child digits taken from the seed face down to the cell.
// Level 1 cells are the 20 seed faces and have an empty path; each
// further level appends one digit in [0, 3].
//
// The text form looks like
//
//	STEP-TRI-v1:F5-21210000000000000000-CAT
//
// where F is the face letter, 5 the level, the middle segment the path
// padded with zeros to MaxPathLen digits and CAT a checksum. The format is
// a published contract and must not change.
package cellid

import (
	"fmt"
	"math"
)

const (
	// NumFaces is the number of seed faces.
	NumFaces = 20

	// MinLevel is the level of the seed faces.
	MinLevel = 1

	// MaxLevel is the finest level.
	MaxLevel = 21

	// MaxPathLen is the length of the path of a cell at MaxLevel.
	MaxPathLen = MaxLevel - 1

	// seedSideLength is the approximate edge length of a seed face in meters.
	seedSideLength = 8000000.0
)

// ID identifies a cell. IDs are values: two IDs are equal (==) iff their
// face, level and path are equal, so they can be used as map keys.
// The zero ID is not valid.
type ID struct {
	face  uint8
	level uint8
	// path holds level-1 digits, two bits each, the first digit in the
	// most significant position.
	path uint64
}

// New returns the ID of the cell with the given face, level and path.
// len(path) must equal level-1.
func New(face, level int, path []int) (ID, error) {
	if err := checkFace(face); err != nil {
		return ID{}, err
	}
	if err := checkLevel(level); err != nil {
		return ID{}, err
	}
	if len(path) != level-1 {
		return ID{}, formatErr("path length", len(path), fmt.Sprintf("%d digits for level %d", level-1, level))
	}
	bits, err := PathToUint(path)
	if err != nil {
		return ID{}, err
	}
	return ID{face: uint8(face), level: uint8(level), path: bits}, nil
}

// MustNew is like New but panics on error.
func MustNew(face, level int, path ...int) ID {
	id, err := New(face, level, path)
	if err != nil {
		panic(err)
	}
	return id
}

// Seed returns the level-1 ID of seed face face.
func Seed(face int) (ID, error) {
	return New(face, MinLevel, nil)
}

// Face returns the seed face index in [0, 19].
func (id ID) Face() int { return int(id.face) }

// Level returns the level in [1, 21].
func (id ID) Level() int { return int(id.level) }

// Path returns a copy of the child digits from the seed face to the cell.
func (id ID) Path() []int {
	return UintToPath(id.path, id.Level()-1)
}

// PathUint returns the path packed as by PathToUint.
func (id ID) PathUint() uint64 { return id.path }

// Digit returns the i'th path digit.
func (id ID) Digit(i int) int {
	n := id.Level() - 1
	if i < 0 || i >= n {
		panic(fmt.Errorf("cellid: digit %d out of range for a level %d cell", i, id.level))
	}
	return int(id.path>>(2*uint(n-1-i))) & 3
}

// Validate checks that id lies within the face, level and path bounds.
// Only IDs not created by this package can be invalid.
func (id ID) Validate() error {
	if err := checkFace(id.Face()); err != nil {
		return err
	}
	if err := checkLevel(id.Level()); err != nil {
		return err
	}
	if id.path>>(2*uint(id.level-1)) != 0 {
		return formatErr("path", id.path, fmt.Sprintf("at most %d digits", id.level-1))
	}
	return nil
}

// Parent returns the cell that id was subdivided from.
// Seed cells have no parent.
func (id ID) Parent() (ID, error) {
	if err := id.Validate(); err != nil {
		return ID{}, err
	}
	if id.level == MinLevel {
		return ID{}, formatErr("level", id.level, "a level above 1 to have a parent")
	}
	return ID{face: id.face, level: id.level - 1, path: id.path >> 2}, nil
}

// Children returns the four cells id subdivides into. Child i has the
// path of id followed by digit i.
func (id ID) Children() ([4]ID, error) {
	var c [4]ID
	if err := id.Validate(); err != nil {
		return c, err
	}
	if id.level == MaxLevel {
		return c, formatErr("level", id.level, fmt.Sprintf("a level below %d to have children", MaxLevel))
	}
	for i := range c {
		c[i] = ID{face: id.face, level: id.level + 1, path: id.path<<2 | uint64(i)}
	}
	return c, nil
}

// Child returns child i of id.
func (id ID) Child(i int) (ID, error) {
	if i < 0 || i > 3 {
		return ID{}, formatErr("child index", i, "0-3")
	}
	c, err := id.Children()
	if err != nil {
		return ID{}, err
	}
	return c[i], nil
}

// Siblings returns the other three children of id's parent, in child
// order.
func (id ID) Siblings() ([]ID, error) {
	p, err := id.Parent()
	if err != nil {
		return nil, err
	}
	c, _ := p.Children()
	s := make([]ID, 0, 3)
	for _, cc := range c {
		if cc != id {
			s = append(s, cc)
		}
	}
	return s, nil
}

// Ancestor returns the cell at the given level that contains id.
// level may equal id's own level.
func (id ID) Ancestor(level int) (ID, error) {
	if err := id.Validate(); err != nil {
		return ID{}, err
	}
	if level < MinLevel || level > id.Level() {
		return ID{}, formatErr("level", level, fmt.Sprintf("%d-%d", MinLevel, id.level))
	}
	shift := 2 * uint(id.Level()-level)
	return ID{face: id.face, level: uint8(level), path: id.path >> shift}, nil
}

// IsAncestorOf reports whether other lies within id at a finer (or the
// same) level.
func (id ID) IsAncestorOf(other ID) bool {
	if id.face != other.face || id.level > other.level || id.level == 0 {
		return false
	}
	return other.path>>(2*uint(other.level-id.level)) == id.path
}

// Less orders IDs by face, then level, then path.
func Less(a, b ID) bool {
	if a.face != b.face {
		return a.face < b.face
	}
	if a.level != b.level {
		return a.level < b.level
	}
	return a.path < b.path
}

// PathToUint packs a path into an integer, two bits per digit with the
// first digit most significant. A path of the maximum length fills 40 bits.
func PathToUint(path []int) (uint64, error) {
	if len(path) > MaxPathLen {
		return 0, formatErr("path length", len(path), fmt.Sprintf("at most %d digits", MaxPathLen))
	}
	var v uint64
	for _, d := range path {
		if d < 0 || d > 3 {
			return 0, formatErr("path digit", d, "0-3")
		}
		v = v<<2 | uint64(d)
	}
	return v, nil
}

// UintToPath is the inverse of PathToUint for a path of length n.
func UintToPath(v uint64, n int) []int {
	path := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		path[i] = int(v & 3)
		v >>= 2
	}
	return path
}

// CellCount returns the number of cells at level: 20 × 4^(level-1).
func CellCount(level int) (uint64, error) {
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	return uint64(NumFaces) << (2 * uint(level-1)), nil
}

// SideLength returns the approximate edge length in meters of a cell at
// level: 8,000 km halved at every level.
func SideLength(level int) (float64, error) {
	if err := checkLevel(level); err != nil {
		return 0, err
	}
	return seedSideLength / math.Exp2(float64(level-1)), nil
}

func checkFace(face int) error {
	if face < 0 || face >= NumFaces {
		return formatErr("face", face, fmt.Sprintf("0-%d", NumFaces-1))
	}
	return nil
}

func checkLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return formatErr("level", level, fmt.Sprintf("%d-%d", MinLevel, MaxLevel))
	}
	return nil
}
