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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"code.ingotprotocol.io/ingot/config"

	"github.com/BurntSushi/toml"
	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	Home  string `description:"Directory in which the configuration is created" long:"home" short:"d"`
	Force bool   `description:"Overwrite an existing configuration"             long:"force" short:"f"`
}

func (cmd *InitCmd) Execute(_ []string) error {
	cfgPath := filepath.Join(cmd.Home, "config.toml")
	if _, err := os.Stat(cfgPath); err == nil && !cmd.Force {
		return fmt.Errorf("configuration already exists at %q, remove it first or re-run using -f", cfgPath)
	}

	if err := os.MkdirAll(cmd.Home, 0o700); err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(config.NewDefaultConfig()); err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o600); err != nil {
		return err
	}

	fmt.Printf("configuration generated at %s\n", cfgPath)
	return nil
}

var initCmd InitCmd

func Init(_ context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{
		Home: defaultHome(),
	}

	_, err := parser.AddCommand("init", "Initialize an ingot node",
		"Generate the minimal configuration required for an ingot node to start", &initCmd)
	return err
}
