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
	"time"

	"code.ingotprotocol.io/ingot/libs/num"
)

// AssetState reports the interest accounting for a debt asset after a
// charging pass: the compounded ratio, the annual rate in force and when
// interest was last recorded.
type AssetState struct {
	*Base
	asset            string
	compoundedRatio  num.Decimal
	interestRate     num.Decimal
	latestUpdate     time.Time
	totalDebt        *num.Uint
	totalAccruedFees *num.Uint
}

func NewAssetStateEvent(
	ctx context.Context,
	asset string,
	compoundedRatio, interestRate num.Decimal,
	latestUpdate time.Time,
	totalDebt, totalAccruedFees *num.Uint,
) *AssetState {
	return &AssetState{
		Base:             newBase(ctx, AssetStateEvent),
		asset:            asset,
		compoundedRatio:  compoundedRatio,
		interestRate:     interestRate,
		latestUpdate:     latestUpdate,
		totalDebt:        totalDebt.Clone(),
		totalAccruedFees: totalAccruedFees.Clone(),
	}
}

func (a AssetState) Asset() string {
	return a.asset
}

func (a AssetState) CompoundedRatio() num.Decimal {
	return a.compoundedRatio
}

func (a AssetState) InterestRate() num.Decimal {
	return a.interestRate
}

func (a AssetState) LatestUpdate() time.Time {
	return a.latestUpdate
}

func (a AssetState) TotalDebt() *num.Uint {
	return a.totalDebt.Clone()
}

func (a AssetState) TotalAccruedFees() *num.Uint {
	return a.totalAccruedFees.Clone()
}
