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

package cellid

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the family of errors caused by malformed or
	// out-of-range input: a badly shaped encoded string, an invalid
	// face, level or path, or out-of-range coordinates.
	ErrFormat = errors.New("cellid: invalid input")

	// ErrIntegrity is returned when an encoded identifier is well formed
	// but its checksum does not match its content. None of the values
	// embedded in such a string can be trusted.
	ErrIntegrity = errors.New("cellid: checksum mismatch")
)

// FormatError describes a rejected input value.
type FormatError struct {
	// Field names the part of the input that was rejected,
	// for example "level" or "prefix".
	Field string

	// Value is the offending value as given by the caller.
	Value string

	// Want describes the accepted values.
	Want string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cellid: invalid %s %q: want %s", e.Field, e.Value, e.Want)
}

// Unwrap makes errors.Is(err, ErrFormat) true.
func (e *FormatError) Unwrap() error { return ErrFormat }

// IntegrityError is returned by Decode when the checksum embedded in an
// encoded identifier does not match the one computed from its content.
type IntegrityError struct {
	Input    string
	Checksum string // the checksum found in Input
	Expected string // the checksum computed from Input's content
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %q carries checksum %s but its content hashes to %s",
		ErrIntegrity, e.Input, e.Checksum, e.Expected)
}

// Unwrap makes errors.Is(err, ErrIntegrity) true.
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

func formatErr(field string, value interface{}, want string) error {
	return &FormatError{Field: field, Value: fmt.Sprint(value), Want: want}
}
