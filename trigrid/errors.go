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
	"fmt"
	"math"

	"github.com/moldovancsaba/blockmass-sub003/cellid"
)

// ErrNotFound is returned when no seed face contains a point. Since the
// seed faces cover the sphere this indicates a floating point problem
// with the input, such as a NaN coordinate that slipped past validation.
var ErrNotFound = errors.New("trigrid: no face contains the point")

// rangeErr returns a format error for a value outside [min, max].
func rangeErr(field string, value, min, max float64) error {
	return &cellid.FormatError{
		Field: field,
		Value: fmt.Sprint(value),
		Want:  fmt.Sprintf("a number in [%g, %g]", min, max),
	}
}

// checkLatLon returns a format error if lat or lon is not a finite
// coordinate.
func checkLatLon(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return rangeErr("latitude", lat, -90, 90)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return rangeErr("longitude", lon, -180, 180)
	}
	return nil
}

func checkLevel(level int) error {
	if level < cellid.MinLevel || level > cellid.MaxLevel {
		return &cellid.FormatError{
			Field: "level",
			Value: fmt.Sprint(level),
			Want:  fmt.Sprintf("%d-%d", cellid.MinLevel, cellid.MaxLevel),
		}
	}
	return nil
}
