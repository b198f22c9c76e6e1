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

	"code.ingotprotocol.io/ingot/core/types"
)

// LedgerMovements - a collection of ledger movements to be sent out in a
// single batch, as produced by one collateral call.
type LedgerMovements struct {
	*Base
	ledgerMovements []*types.LedgerMovement
}

func NewLedgerMovements(ctx context.Context, ledgerMovements []*types.LedgerMovement) *LedgerMovements {
	return &LedgerMovements{
		Base:            newBase(ctx, LedgerMovementsEvent),
		ledgerMovements: ledgerMovements,
	}
}

// LedgerMovements returns the ledger movements.
func (t *LedgerMovements) LedgerMovements() []*types.LedgerMovement {
	return t.ledgerMovements
}
