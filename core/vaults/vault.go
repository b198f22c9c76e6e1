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
	"code.ingotprotocol.io/ingot/core/interest"
	"code.ingotprotocol.io/ingot/libs/num"

	"github.com/pkg/errors"
)

var (
	// ErrInsufficientCollateralization the vault would breach the margin
	// requirement.
	ErrInsufficientCollateralization = errors.New("insufficient collateralization")
	// ErrVaultBelowMinimumDebt the requested debt is under the governed
	// minimum for a new vault.
	ErrVaultBelowMinimumDebt = errors.New("vault debt below governed minimum")
	// ErrVaultNotCloseable close was requested in a phase that does not
	// allow it.
	ErrVaultNotCloseable = errors.New("vault not closeable in its current phase")
	// ErrInvalidPhaseTransition the requested phase change is not part of
	// the vault lifecycle.
	ErrInvalidPhaseTransition = errors.New("invalid vault phase transition")
	// ErrVaultNotActive the operation requires an active vault.
	ErrVaultNotActive = errors.New("vault is not active")
	// ErrVaultNotFound no vault registered under the given ID.
	ErrVaultNotFound = errors.New("vault not found")
	// ErrNotVaultOwner the party does not hold the vault.
	ErrNotVaultOwner = errors.New("party does not own the vault")
	// ErrDebtCeilingExceeded minting would push the asset past its ceiling.
	ErrDebtCeilingExceeded = errors.New("debt ceiling exceeded")
	// ErrOutstandingDebt the vault still carries debt.
	ErrOutstandingDebt = errors.New("vault has outstanding debt")
)

// Phase is a vault's lifecycle state.
type Phase int32

const (
	PhaseActive Phase = iota
	PhaseLiquidating
	PhaseLiquidated
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseLiquidating:
		return "liquidating"
	case PhaseLiquidated:
		return "liquidated"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func canTransition(from, to Phase) bool {
	switch from {
	case PhaseActive:
		return to == PhaseLiquidating || to == PhaseClosed
	case PhaseLiquidating:
		// back to Active is the abort-liquidation path
		return to == PhaseLiquidated || to == PhaseActive
	case PhaseLiquidated:
		return to == PhaseClosed
	default:
		// Closed is terminal
		return false
	}
}

// Vault is one collateralized debt position. It records a debt snapshot
// and the manager's compounded ratio at snapshot time rather than a live
// debt value, the true debt is always derived from the pair. Collateral
// custody lives in a dedicated ledger account owned by the vault ID.
type Vault struct {
	id                string
	owner             string
	collateralAccount string
	phase             Phase

	// mirror of the custody account balance
	collateral       *num.Uint
	debtSnapshot     *num.Uint
	interestSnapshot num.Decimal

	// debt frozen when the vault was marked liquidating, interest keeps
	// accruing on the snapshot but the cycle settles against this figure
	debtAtLiquidation *num.Uint

	// set while ownership is being handed over, mutes state events until
	// the new holder attaches
	observerMuted bool
}

func newVault(id, owner, collateralAccount string) *Vault {
	return &Vault{
		id:                id,
		owner:             owner,
		collateralAccount: collateralAccount,
		phase:             PhaseActive,
		collateral:        num.UintZero(),
		debtSnapshot:      num.UintZero(),
		interestSnapshot:  num.DecimalOne(),
	}
}

func (v *Vault) ID() string { return v.id }

func (v *Vault) Owner() string { return v.owner }

func (v *Vault) CollateralAccount() string { return v.collateralAccount }

func (v *Vault) Phase() Phase { return v.phase }

func (v *Vault) Collateral() *num.Uint { return v.collateral.Clone() }

func (v *Vault) DebtSnapshot() *num.Uint { return v.debtSnapshot.Clone() }

func (v *Vault) InterestSnapshot() num.Decimal { return v.interestSnapshot }

// CurrentDebt derives the live debt from the snapshot pair and the
// manager's current compounded ratio.
func (v *Vault) CurrentDebt(currentRatio num.Decimal) *num.Uint {
	return interest.CalculateCurrentDebt(v.debtSnapshot, v.interestSnapshot, currentRatio)
}

// NormalizedDebt scales the snapshot back to the epoch-zero ratio so
// vaults snapshotted at different times order consistently.
func (v *Vault) NormalizedDebt() *num.Uint {
	return interest.ReverseInterest(v.debtSnapshot, v.interestSnapshot)
}

// DebtAtLiquidation returns the debt the vault carried into the current
// liquidation cycle, nil when not liquidating.
func (v *Vault) DebtAtLiquidation() *num.Uint {
	if v.debtAtLiquidation == nil {
		return nil
	}
	return v.debtAtLiquidation.Clone()
}

// updateSnapshot rewrites the debt snapshot at the given ratio. Called
// on every principal-changing operation.
func (v *Vault) updateSnapshot(debt *num.Uint, ratio num.Decimal) {
	v.debtSnapshot = debt.Clone()
	v.interestSnapshot = ratio
}

func (v *Vault) setCollateral(c *num.Uint) {
	v.collateral = c.Clone()
}

func (v *Vault) transition(to Phase) error {
	if !canTransition(v.phase, to) {
		return errors.Wrapf(ErrInvalidPhaseTransition, "%s -> %s", v.phase, to)
	}
	v.phase = to
	return nil
}

// markLiquidating freezes the debt figure the cycle will settle against.
func (v *Vault) markLiquidating(currentRatio num.Decimal) error {
	if err := v.transition(PhaseLiquidating); err != nil {
		return err
	}
	v.debtAtLiquidation = v.CurrentDebt(currentRatio)
	return nil
}

// markLiquidated settles the vault: its debt is gone, whatever
// collateral was returned by the cycle is all it has left.
func (v *Vault) markLiquidated(returnedCollateral *num.Uint) error {
	if err := v.transition(PhaseLiquidated); err != nil {
		return err
	}
	v.debtSnapshot = num.UintZero()
	v.interestSnapshot = num.DecimalOne()
	v.debtAtLiquidation = nil
	v.collateral = returnedCollateral.Clone()
	return nil
}

// abortLiquidation returns the vault to Active with its debt restored at
// the given ratio. The penalty, if any, has already left the collateral.
func (v *Vault) abortLiquidation(restoredDebt, restoredCollateral *num.Uint, currentRatio num.Decimal) error {
	if err := v.transition(PhaseActive); err != nil {
		return err
	}
	v.updateSnapshot(restoredDebt, currentRatio)
	v.debtAtLiquidation = nil
	v.collateral = restoredCollateral.Clone()
	return nil
}

// close requires a fully repaid Active vault, or a settled Liquidated
// one. Remaining collateral is the caller's to release.
func (v *Vault) close() error {
	switch v.phase {
	case PhaseActive:
		if !v.debtSnapshot.IsZero() {
			return ErrOutstandingDebt
		}
	case PhaseLiquidated:
		// no repayment required
	default:
		return ErrVaultNotCloseable
	}
	return v.transition(PhaseClosed)
}

// muteObserver suspends state publication while ownership changes hands.
func (v *Vault) muteObserver() { v.observerMuted = true }

// attachObserver resumes state publication for the new holder.
func (v *Vault) attachObserver(newOwner string) {
	v.owner = newOwner
	v.observerMuted = false
}
