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
	"fmt"
	"strconv"
	"strings"

	"github.com/moldovancsaba/blockmass-sub003/internal/hash"
)

// Prefix starts every encoded ID. It names the format and its version.
const Prefix = "STEP-TRI-v1:"

// Encode returns the text form of id after checking that id is valid.
func Encode(id ID) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	body := id.body()
	return Prefix + body + "-" + hash.Checksum(body), nil
}

// body returns the checksummed part of the text form:
// {faceChar}{level}-{pathDigits}.
func (id ID) body() string {
	var b strings.Builder
	b.Grow(3 + 1 + MaxPathLen)
	b.WriteByte('A' + id.face)
	b.WriteString(strconv.Itoa(id.Level()))
	b.WriteByte('-')
	n := id.Level() - 1
	for i := 0; i < n; i++ {
		b.WriteByte('0' + byte(id.Digit(i)))
	}
	for i := n; i < MaxPathLen; i++ {
		b.WriteByte('0')
	}
	return b.String()
}

// String returns the text form of id, or a description of the problem
// if id is not valid.
func (id ID) String() string {
	s, err := Encode(id)
	if err != nil {
		return fmt.Sprintf("cellid.ID(face=%d, level=%d, path=%#x: %v)", id.face, id.level, id.path, err)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	s, err := Encode(id)
	return []byte(s), err
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := Decode(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Decode parses the text form of an ID. A string whose shape is wrong
// returns a *FormatError; a well formed string whose checksum does not
// match returns an *IntegrityError.
func Decode(s string) (ID, error) {
	if !strings.HasPrefix(s, Prefix) {
		return ID{}, formatErr("prefix", s, "a string starting with "+Prefix)
	}
	seg := strings.Split(strings.TrimPrefix(s, Prefix), "-")
	if len(seg) != 3 {
		return ID{}, formatErr("segment count", len(seg), "3 segments separated by '-'")
	}
	head, digits, sum := seg[0], seg[1], seg[2]

	if len(head) < 2 {
		return ID{}, formatErr("face and level", head, "a face letter A-T followed by a level")
	}
	if head[0] < 'A' || head[0] >= 'A'+NumFaces {
		return ID{}, formatErr("face letter", head[:1], "A-T")
	}
	face := int(head[0] - 'A')
	levelStr := head[1:]
	if !isDecimal(levelStr) {
		return ID{}, formatErr("level", levelStr, fmt.Sprintf("a decimal number %d-%d", MinLevel, MaxLevel))
	}
	level, err := strconv.Atoi(levelStr)
	if err != nil || level < MinLevel || level > MaxLevel {
		return ID{}, formatErr("level", levelStr, fmt.Sprintf("%d-%d", MinLevel, MaxLevel))
	}

	if len(digits) != MaxPathLen {
		return ID{}, formatErr("path", digits, fmt.Sprintf("%d digits", MaxPathLen))
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '3' {
			return ID{}, formatErr("path digit", digits[i:i+1], "0-3")
		}
	}
	if len(sum) != hash.ChecksumLen {
		return ID{}, formatErr("checksum", sum, fmt.Sprintf("%d characters", hash.ChecksumLen))
	}

	if want := hash.Checksum(head + "-" + digits); sum != want {
		return ID{}, &IntegrityError{Input: s, Checksum: sum, Expected: want}
	}

	if strings.Trim(digits[level-1:], "0") != "" {
		return ID{}, formatErr("path padding", digits[level-1:], "zeros after the first level-1 digits")
	}
	id := ID{face: uint8(face), level: uint8(level)}
	for i := 0; i < level-1; i++ {
		id.path = id.path<<2 | uint64(digits[i]-'0')
	}
	return id, nil
}

// MustDecode is like Decode but panics on error.
func MustDecode(s string) ID {
	id, err := Decode(s)
	if err != nil {
		panic(err)
	}
	return id
}

// isDecimal reports whether s is a decimal number without sign or
// leading zeros.
func isDecimal(s string) bool {
	if s == "" || (s[0] == '0' && len(s) > 1) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
