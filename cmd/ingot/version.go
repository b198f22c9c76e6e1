// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// overwritten at build time through -ldflags.
var (
	cliVersion     = "v0.1.0+dev"
	cliVersionHash = "unknown"
)

type VersionCmd struct {
	version string
	hash    string
}

func (cmd *VersionCmd) Execute(_ []string) error {
	fmt.Printf("Ingot CLI %s (%s)\n", cmd.version, cmd.hash)
	return nil
}

var versionCmd VersionCmd

func Version(_ context.Context, parser *flags.Parser) error {
	versionCmd = VersionCmd{
		version: cliVersion,
		hash:    cliVersionHash,
	}

	_, err := parser.AddCommand("version", "Show version info", "Show version info", &versionCmd)
	return err
}
