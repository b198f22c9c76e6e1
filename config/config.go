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

package config

import (
	"os"
	"path/filepath"

	"code.ingotprotocol.io/ingot/core/broker"
	"code.ingotprotocol.io/ingot/core/collateral"
	"code.ingotprotocol.io/ingot/core/metrics"
	"code.ingotprotocol.io/ingot/core/netparams"
	"code.ingotprotocol.io/ingot/core/vaults"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/BurntSushi/toml"
)

// Config ties together all other application configuration types.
type Config struct {
	Logging           logging.Config    `group:"Logging" namespace:"logging"`
	Broker            broker.Config     `group:"Broker" namespace:"broker"`
	Collateral        collateral.Config `group:"Collateral" namespace:"collateral"`
	Vaults            vaults.Config     `group:"Vaults" namespace:"vaults"`
	Metrics           metrics.Config    `group:"Metrics" namespace:"metrics"`
	NetworkParameters netparams.Config  `group:"NetworkParameters" namespace:"netparams"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Logging:           logging.NewDefaultConfig(),
		Broker:            broker.NewDefaultConfig(),
		Collateral:        collateral.NewDefaultConfig(),
		Vaults:            vaults.NewDefaultConfig(),
		Metrics:           metrics.NewDefaultConfig(),
		NetworkParameters: netparams.NewDefaultConfig(),
	}
}

// Read loads the configuration from rootPath/config.toml, layered over the
// defaults.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
