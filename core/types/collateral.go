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

	"code.ingotprotocol.io/ingot/libs/num"
)

type AccountType int

const (
	AccountTypeUnspecified AccountType = iota
	// AccountTypeGeneral a party's general account, the source of vault
	// collateral deposits and the destination of payouts.
	AccountTypeGeneral
	// AccountTypeVaultCollateral custody of one vault's collateral, owned by
	// the vault until it's closed.
	AccountTypeVaultCollateral
	// AccountTypeLiquidation cycle-scoped custody for collateral on its way
	// to, or back from, the auction.
	AccountTypeLiquidation
	// AccountTypeReserve the protocol reserve pool, sink for penalties,
	// overages and unsold collateral.
	AccountTypeReserve
	// AccountTypeFeePool destination of minting fees and accrued interest,
	// protocol revenue.
	AccountTypeFeePool
	// AccountTypeExternal source/sink for mint and burn operations, never
	// holds a balance of its own.
	AccountTypeExternal
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeGeneral:
		return "general"
	case AccountTypeVaultCollateral:
		return "vault-collateral"
	case AccountTypeLiquidation:
		return "liquidation"
	case AccountTypeReserve:
		return "reserve"
	case AccountTypeFeePool:
		return "fee-pool"
	case AccountTypeExternal:
		return "external"
	default:
		return "unspecified"
	}
}

// Account represents a single asset balance held by the ledger.
type Account struct {
	ID      string
	Owner   string
	Asset   string
	Balance *num.Uint
	Type    AccountType
}

func (a *Account) Clone() *Account {
	cpy := *a
	cpy.Balance = a.Balance.Clone()
	return &cpy
}

func (a Account) String() string {
	return fmt.Sprintf("account{id: %s, owner: %s, asset: %s, balance: %s, type: %s}",
		a.ID, a.Owner, a.Asset, a.Balance.String(), a.Type.String())
}

type TransferType int

const (
	TransferTypeUnspecified TransferType = iota
	// TransferTypeCollateralDeposit collateral moved from a party's general
	// account into vault custody.
	TransferTypeCollateralDeposit
	// TransferTypeCollateralRelease collateral returned from vault custody to
	// the owner.
	TransferTypeCollateralRelease
	// TransferTypeLiquidationCustody collateral moved from vault custody into
	// the cycle liquidation account.
	TransferTypeLiquidationCustody
	// TransferTypeLiquidationPayout proceeds returned from the liquidation
	// account to a vault or its owner.
	TransferTypeLiquidationPayout
	// TransferTypeReserve funds routed to the reserve pool.
	TransferTypeReserve
	// TransferTypeMintFee minting fee taken as protocol revenue.
	TransferTypeMintFee
	// TransferTypeInterestRevenue newly accrued interest minted to the fee
	// pool.
	TransferTypeInterestRevenue
	// TransferTypeRepay debt asset handed back to be burned.
	TransferTypeRepay
	// TransferTypeMint a mint of the debt asset.
	TransferTypeMint
	// TransferTypeBurn a burn of the debt asset.
	TransferTypeBurn
	// TransferTypeDeposit funds entering the system from outside.
	TransferTypeDeposit
	// TransferTypeWithdraw funds leaving the system.
	TransferTypeWithdraw
)

func (t TransferType) String() string {
	switch t {
	case TransferTypeCollateralDeposit:
		return "collateral-deposit"
	case TransferTypeCollateralRelease:
		return "collateral-release"
	case TransferTypeLiquidationCustody:
		return "liquidation-custody"
	case TransferTypeLiquidationPayout:
		return "liquidation-payout"
	case TransferTypeReserve:
		return "reserve"
	case TransferTypeMintFee:
		return "mint-fee"
	case TransferTypeInterestRevenue:
		return "interest-revenue"
	case TransferTypeRepay:
		return "repay"
	case TransferTypeMint:
		return "mint"
	case TransferTypeBurn:
		return "burn"
	case TransferTypeDeposit:
		return "deposit"
	case TransferTypeWithdraw:
		return "withdraw"
	default:
		return "unspecified"
	}
}

// Transfer is a single scheduled ledger move, part of a batch which is
// applied atomically.
type Transfer struct {
	FromAccount string
	ToAccount   string
	Amount      *num.Uint
	Type        TransferType
	Reference   string
}

func (t *Transfer) Clone() *Transfer {
	cpy := *t
	cpy.Amount = t.Amount.Clone()
	return &cpy
}

func (t Transfer) String() string {
	return fmt.Sprintf("transfer{from: %s, to: %s, amount: %s, type: %s, reference: %s}",
		t.FromAccount, t.ToAccount, t.Amount.String(), t.Type.String(), t.Reference)
}

// LedgerEntry one applied balance move, the post-application balances of
// both sides are recorded for auditing.
type LedgerEntry struct {
	FromAccount        string
	ToAccount          string
	Amount             *num.Uint
	Type               TransferType
	Timestamp          int64
	FromAccountBalance *num.Uint
	ToAccountBalance   *num.Uint
}

// LedgerMovement the result of applying one transfer batch.
type LedgerMovement struct {
	Entries []*LedgerEntry
}
