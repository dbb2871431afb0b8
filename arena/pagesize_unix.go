// Copyright (c) 2024 The aggregation-interpreter Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build unix

package arena

import "golang.org/x/sys/unix"

// platformPageSize picks the arena's default heap page size from the OS
// page size, the same per-platform query the teacher uses to size its VM
// memory mappings (see vm/malloc_linux.go, vm/malloc_windows.go).
func platformPageSize() int {
	if n := unix.Getpagesize(); n > 0 {
		return n
	}
	return 4096
}
