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

//go:build windows

package arena

import "golang.org/x/sys/windows"

// platformPageSize mirrors platformPageSize (pagesize_unix.go) for
// Windows, querying GetSystemInfo the way vm/malloc_windows.go reaches for
// golang.org/x/sys/windows instead of syscall directly.
func platformPageSize() int {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	if info.PageSize > 0 {
		return int(info.PageSize)
	}
	return 4096
}
