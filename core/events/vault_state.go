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
	"fmt"

	"code.ingotprotocol.io/ingot/libs/num"
)

// VaultState carries a snapshot of a single vault after any balance or
// phase change. Phase travels as a string to keep the event package free
// of vault package imports.
type VaultState struct {
	*Base
	id                    string
	owner                 string
	phase                 string
	collateral            *num.Uint
	debtSnapshot          *num.Uint
	interestSnapshotRatio num.Decimal
}

func NewVaultStateEvent(
	ctx context.Context,
	id, owner, phase string,
	collateral, debtSnapshot *num.Uint,
	interestSnapshotRatio num.Decimal,
) *VaultState {
	return &VaultState{
		Base:                  newBase(ctx, VaultStateEvent),
		id:                    id,
		owner:                 owner,
		phase:                 phase,
		collateral:            collateral.Clone(),
		debtSnapshot:          debtSnapshot.Clone(),
		interestSnapshotRatio: interestSnapshotRatio,
	}
}

func (v VaultState) VaultID() string {
	return v.id
}

func (v VaultState) IsParty(id string) bool {
	return v.owner == id
}

func (v VaultState) PartyID() string {
	return v.owner
}

func (v VaultState) Phase() string {
	return v.phase
}

func (v VaultState) Collateral() *num.Uint {
	return v.collateral.Clone()
}

func (v VaultState) DebtSnapshot() *num.Uint {
	return v.debtSnapshot.Clone()
}

func (v VaultState) InterestSnapshotRatio() num.Decimal {
	return v.interestSnapshotRatio
}

func (v VaultState) String() string {
	return fmt.Sprintf("vault %s (%s) collateral %s debt %s",
		v.id, v.phase, v.collateral.String(), v.debtSnapshot.String())
}
