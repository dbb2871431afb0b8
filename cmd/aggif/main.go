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

// Command aggif is the CLI surface spec section 6.4 describes: one SQL
// argument, exit 0 on success, 1 on any parse/load/compile/print failure,
// diagnostics on stderr, grounded on cmd/dump/main.go and cmd/sdb/main.go's
// plain stdlib-flag CLI style (no third-party CLI framework anywhere in
// the retrieved teacher slice).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/svenssonaxel/aggregation-interpreter/config"
	"github.com/svenssonaxel/aggregation-interpreter/diag"
	"github.com/svenssonaxel/aggregation-interpreter/prepare"
	"github.com/svenssonaxel/aggregation-interpreter/record"
	"github.com/svenssonaxel/aggregation-interpreter/sql"
)

func main() {
	table := flag.String("table", "t", "table name the query's FROM clause must name")
	columns := flag.String("columns", "a,b,c", "comma-separated column names, declared as int64")
	configPath := flag.String("config", "", "optional YAML tuning file (see package config)")
	verbose := flag.Bool("verbose", false, "log the query id and SQL text being prepared to stderr")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "aggif: loading config: %s\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *verbose {
		cfg.LogVerbose = true
	}
	logger := log.New(os.Stderr, "aggif: ", log.Lshortfile)

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: aggif [flags] 'SELECT ...'")
		os.Exit(1)
	}
	sqlText := args[0]

	cols := strings.Split(*columns, ",")
	catalog := record.NewMapCatalog(*table, cols)

	p := prepare.New(sqlText, catalog)
	if cfg.LogVerbose {
		logger.Printf("query %s: preparing %q", p.QueryID(), sqlText)
	}

	if err := p.Run(); err != nil {
		reportFailure(p, err)
		os.Exit(1)
	}

	if err := p.Print(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "aggif: print: %s\n", err)
		os.Exit(1)
	}
}

// reportFailure prints a caret diagnostic for lexical/syntactic failures
// (which carry a byte position) and a plain message otherwise (spec
// section 7's per-stage error kinds).
func reportFailure(p *prepare.Prepare, err error) {
	if lex := p.Lexer(); lex != nil {
		if posErr, ok := asPosError(err); ok {
			src := append([]byte(nil), lex.Source()...)
			diag.Restore(src, lex.UndoLog())
			pos, length := posErr.Position()
			diag.NewReporter(os.Stderr).Print(src, pos, length, posErr.Error())
			return
		}
	}
	fmt.Fprintf(os.Stderr, "aggif: %s\n", err)
}

func asPosError(err error) (sql.PosError, bool) {
	for err != nil {
		if pe, ok := err.(sql.PosError); ok {
			return pe, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
