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

// Package config loads the optional tuning file SPEC_FULL.md section 2.3
// describes: arena page sizing, the CLI's default print format, and
// logger verbosity, giving the teacher's sigs.k8s.io/yaml dependency a
// concrete home the way cmd/sneller and cmd/snellerd let an optional file
// override hard-coded defaults.
package config

import (
	"os"

	"sigs.k8s.io/yaml"
)

// Config is the full set of tunable knobs. Every field has a sane
// zero-file default (see Default).
type Config struct {
	// ArenaInitialPageSize is a size, in bytes, for an arena's inline
	// first page (spec section 5's ~80-byte initial page). It is loaded
	// but not read by package arena, whose initial page size is a
	// constant.
	ArenaInitialPageSize int `json:"arenaInitialPageSize"`

	// ArenaGrowthCapBytes is a cap on a single arena page growth request.
	// It is loaded but not read by package arena, whose Alloc compares
	// against its own constant cap before reporting ErrTooLarge.
	ArenaGrowthCapBytes int `json:"arenaGrowthCapBytes"`

	// PrintFormat names a disassembly style ("text" or "compact"). It is
	// loaded but not read: cmd/aggif has no --format flag and
	// Prepare.Print has a single output style.
	PrintFormat string `json:"printFormat"`

	// LogVerbose makes cmd/aggif log the query id and SQL text of the
	// statement it prepares; user-facing parse/load/compile diagnostics
	// are unaffected (spec section 2.1's separation between operational
	// logging and the caret reporter).
	LogVerbose bool `json:"logVerbose"`
}

// Default returns the hard-coded defaults used when no config file is
// given, matching spec section 5's allocator shape.
func Default() Config {
	return Config{
		ArenaInitialPageSize: 80,
		ArenaGrowthCapBytes:  0x40000000,
		PrintFormat:          "text",
		LogVerbose:           false,
	}
}

// Load reads a YAML tuning file at path and overlays it onto Default(),
// via sigs.k8s.io/yaml's strict JSON-tag-based unmarshalling (the same
// library the teacher's go.mod declares). Fields absent from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
