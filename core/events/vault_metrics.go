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

package events

import (
	"context"

	"code.ingotprotocol.io/ingot/libs/num"
)

// VaultMetrics aggregates the lifetime counters of a vault manager. They
// are cumulative, a replayed stream can diff consecutive events to get
// per-cycle figures.
type VaultMetrics struct {
	*Base
	asset                string
	numActiveVaults      uint64
	totalCollateral      *num.Uint
	totalDebt            *num.Uint
	numLiquidatingVaults  uint64
	liquidatingCollateral *num.Uint
	liquidatingDebt       *num.Uint
	numLiquidatedVaults   uint64
	totalProceedsMinted   *num.Uint
	totalOverage          *num.Uint
	totalShortfall        *num.Uint
	totalPenalty          *num.Uint
}

func NewVaultMetricsEvent(
	ctx context.Context,
	asset string,
	numActive uint64,
	totalCollateral, totalDebt *num.Uint,
	numLiquidating uint64,
	liquidatingCollateral, liquidatingDebt *num.Uint,
	numLiquidated uint64,
	proceedsMinted, overage, shortfall, penalty *num.Uint,
) *VaultMetrics {
	return &VaultMetrics{
		Base:                  newBase(ctx, VaultMetricsEvent),
		asset:                 asset,
		numActiveVaults:       numActive,
		totalCollateral:       totalCollateral.Clone(),
		totalDebt:             totalDebt.Clone(),
		numLiquidatingVaults:  numLiquidating,
		liquidatingCollateral: liquidatingCollateral.Clone(),
		liquidatingDebt:       liquidatingDebt.Clone(),
		numLiquidatedVaults:   numLiquidated,
		totalProceedsMinted:   proceedsMinted.Clone(),
		totalOverage:          overage.Clone(),
		totalShortfall:        shortfall.Clone(),
		totalPenalty:          penalty.Clone(),
	}
}

func (v VaultMetrics) Asset() string {
	return v.asset
}

func (v VaultMetrics) NumActiveVaults() uint64 {
	return v.numActiveVaults
}

func (v VaultMetrics) TotalCollateral() *num.Uint {
	return v.totalCollateral.Clone()
}

func (v VaultMetrics) TotalDebt() *num.Uint {
	return v.totalDebt.Clone()
}

func (v VaultMetrics) NumLiquidatingVaults() uint64 {
	return v.numLiquidatingVaults
}

func (v VaultMetrics) LiquidatingCollateral() *num.Uint {
	return v.liquidatingCollateral.Clone()
}

func (v VaultMetrics) LiquidatingDebt() *num.Uint {
	return v.liquidatingDebt.Clone()
}

func (v VaultMetrics) NumLiquidatedVaults() uint64 {
	return v.numLiquidatedVaults
}

func (v VaultMetrics) TotalProceedsMinted() *num.Uint {
	return v.totalProceedsMinted.Clone()
}

func (v VaultMetrics) TotalOverage() *num.Uint {
	return v.totalOverage.Clone()
}

func (v VaultMetrics) TotalShortfall() *num.Uint {
	return v.totalShortfall.Clone()
}

func (v VaultMetrics) TotalPenalty() *num.Uint {
	return v.totalPenalty.Clone()
}
