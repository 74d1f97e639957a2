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
along with trigrid.  If not, see <http://www.gnu.org/licenses/>.*/

// Package hash computes the short checksums embedded in encoded cell
// identifiers and the keys used to cache batch results.
package hash

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// ChecksumLen is the number of characters returned by Checksum.
const ChecksumLen = 3

// Checksum returns the first 15 bits of the SHA-256 digest of s written
// with the RFC 4648 base32 alphabet (A-Z, 2-7), most significant symbol
// first. Three base32 symbols hold exactly 15 bits, so the symbols are
// taken from the encoding of the first two digest bytes.
func Checksum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base32.StdEncoding.EncodeToString(sum[:2])[:ChecksumLen]
}

// Key returns a cache key for the specified object.
func Key(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()

	e := gob.NewEncoder(h)
	if err := e.Encode(object); err == nil {
		bKey := h.Sum([]byte{})
		return fmt.Sprintf("%x", bKey[0:h.Size()])
	}
	// gob can't encode unexported fields or NaN values, so fall back
	// to spew.
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	bKey := h.Sum([]byte{})
	return fmt.Sprintf("%x", bKey[0:h.Size()])
}
