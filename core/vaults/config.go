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

package vaults

import (
	"time"

	"code.ingotprotocol.io/ingot/config/encoding"
	"code.ingotprotocol.io/ingot/logging"
)

const namedLogger = "vaults"

// Config represents the configuration of the vaults engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// CycleInterval is how often the engine checks for positions to
	// send to auction.
	CycleInterval encoding.Duration `long:"cycle-interval"`

	ReserveQueueSize     int    `long:"reserve-queue-size"`
	ReserveReportRetries uint64 `long:"reserve-report-retries"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		CycleInterval:        encoding.Duration{Duration: time.Hour},
		ReserveQueueSize:     100,
		ReserveReportRetries: 5,
	}
}
