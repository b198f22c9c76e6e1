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

package types

import (
	"fmt"
	"time"

	"code.ingotprotocol.io/ingot/libs/num"
)

// PriceQuote is one observation from the price oracle: how much of the debt
// asset one unit of collateral is worth at the given time.
type PriceQuote struct {
	Price num.Decimal
	Time  time.Time
}

func (q PriceQuote) String() string {
	return fmt.Sprintf("quote{price: %s, time: %s}", q.Price.String(), q.Time.Format(time.RFC3339))
}

// AuctionDeposit one cycle's batch handed to the auction: the collateral to
// sell, how much debt asset the sale should aim to recover, and the price
// the liquidation decision was made at.
type AuctionDeposit struct {
	CollateralAccount string
	Collateral        *num.Uint
	Goal              *num.Uint
	Price             num.Decimal
}

// AuctionProceeds what came back from the auction once it settled: the debt
// asset received and whatever collateral went unsold.
type AuctionProceeds struct {
	Minted     *num.Uint
	Collateral *num.Uint
}

func (p AuctionProceeds) String() string {
	return fmt.Sprintf("proceeds{minted: %s, collateral: %s}", p.Minted.String(), p.Collateral.String())
}
