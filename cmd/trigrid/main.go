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

// Command trigrid is a command-line interface for the trigrid global
// triangular cell index.
package main

import (
	"fmt"
	"os"

	"github.com/moldovancsaba/blockmass-sub003/trigridutil"
)

func main() {
	if err := trigridutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
