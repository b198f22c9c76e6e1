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
	"code.ingotprotocol.io/ingot/libs/num"
)

// AffectedVault is one position taken into a liquidation cycle, with the
// balances the cycle settles against. CurrentDebt may exceed
// DebtAtLiquidation when interest accrued while the auction ran.
type AffectedVault struct {
	ID                string
	Collateral        *num.Uint
	DebtAtLiquidation *num.Uint
	CurrentDebt       *num.Uint
}

// VaultDistribution is one payout instruction of a plan. Reinstate marks
// the vault to be returned to Active with its debt restored rather than
// settled as liquidated.
type VaultDistribution struct {
	VaultID    string
	Collateral *num.Uint
	Minted     *num.Uint
	Reinstate  bool
}

// PlanInputs is everything the planner needs. Vaults must be ordered
// best to worst collateralized. Price is debt asset per unit of
// collateral, locked at the start of the cycle.
type PlanInputs struct {
	MintedProceeds     *num.Uint
	CollateralProceeds *num.Uint
	TotalDebt          *num.Uint
	TotalCollateral    *num.Uint
	Price              num.Decimal
	PenaltyRate        num.Decimal
	Vaults             []AffectedVault
}

// DistributionPlan is the complete outcome of one liquidation cycle:
// what to burn, what each vault gets back, what the reserve absorbs, and
// what shortfall to report. Conservation holds at every step of its
// construction: DebtToBurn + Shortfall == TotalDebt taken into the
// cycle, and the collateral buckets always sum to the collateral
// proceeds, so a partially built plan is still safe to apply.
type DistributionPlan struct {
	DebtToBurn           *num.Uint
	MintedForReserve     *num.Uint
	CollateralForReserve *num.Uint
	Shortfall            *num.Uint
	// PhantomDebt is interest accrued between the liquidation mark and
	// settlement on vaults liquidated for real. It is subtracted from
	// the manager's aggregate, never attributed to a single vault.
	PhantomDebt *num.Uint
	// ReinstatedDebt is restored to the manager's aggregate for vaults
	// returning to Active.
	ReinstatedDebt *num.Uint
	CollateralSold *num.Uint
	TotalPenalty   *num.Uint
	Transfers      []*VaultDistribution
}

// CalculateDistributionPlan computes the plan for arbitrary non-negative
// inputs and never panics outward. Any fault mid-calculation yields the
// partial plan built so far, which by construction routes everything not
// yet assigned to the reserve.
func CalculateDistributionPlan(in PlanInputs) (plan *DistributionPlan) {
	plan = &DistributionPlan{
		DebtToBurn:           num.UintZero(),
		MintedForReserve:     num.UintZero(),
		CollateralForReserve: in.CollateralProceeds.Clone(),
		Shortfall:            num.UintZero(),
		PhantomDebt:          num.UintZero(),
		ReinstatedDebt:       num.UintZero(),
		CollateralSold:       num.UintZero(),
		TotalPenalty:         num.UintZero(),
		Transfers:            []*VaultDistribution{},
	}
	defer func() {
		// a fault leaves the plan partial but consistent
		recover() //nolint:errcheck
	}()
	plan.calculate(in)
	return plan
}

func (p *DistributionPlan) calculate(in PlanInputs) {
	if in.CollateralProceeds.LTE(in.TotalCollateral) {
		p.CollateralSold.Sub(in.TotalCollateral, in.CollateralProceeds)
	}
	overage, shortfall := num.UintZero(), num.UintZero()
	if in.MintedProceeds.GTE(in.TotalDebt) {
		overage.Sub(in.MintedProceeds, in.TotalDebt)
	} else {
		shortfall.Sub(in.TotalDebt, in.MintedProceeds)
	}
	p.Shortfall = shortfall
	p.TotalPenalty = totalPenaltyInCollateral(in.TotalDebt, in.PenaltyRate, in.Price)

	switch {
	case shortfall.IsZero():
		p.distributeNoShortfall(in, overage)
	case in.CollateralProceeds.IsZero():
		p.distributeAllCollateralSold(in)
	default:
		p.reinstateBestVaults(in)
	}
}

// distributeNoShortfall burns the full debt, routes the overage to the
// reserve, and returns the unsold collateral net of penalty to the
// vaults pro-rata by their collateral share.
func (p *DistributionPlan) distributeNoShortfall(in PlanInputs, overage *num.Uint) {
	p.DebtToBurn = in.TotalDebt.Clone()
	p.MintedForReserve = overage.Clone()

	distributable := num.UintZero()
	if in.CollateralProceeds.GTE(p.TotalPenalty) {
		distributable.Sub(in.CollateralProceeds, p.TotalPenalty)
	}
	remaining := distributable.Clone()
	for _, v := range in.Vaults {
		p.addPhantomDebt(v)
		if remaining.IsZero() || in.TotalCollateral.IsZero() {
			continue
		}
		share := num.Min(proRataShare(v.Collateral, distributable, in.TotalCollateral), remaining)
		if share.IsZero() {
			continue
		}
		remaining.Sub(remaining, share)
		p.payCollateral(v.ID, share, false)
	}
}

// distributeAllCollateralSold handles the case where the auction sold
// every unit of collateral yet the debt is not covered. The penalty is
// charged in debt-asset terms, and whatever proceeds remain above it are
// handed back pro-rata by the original collateral share. Collateral
// share, not debt share, is the only stable reference left once the
// collateral itself is gone.
func (p *DistributionPlan) distributeAllCollateralSold(in PlanInputs) {
	penaltyInMinted, _ := num.UintFromDecimalCeil(in.TotalDebt.ToDecimal().Mul(in.PenaltyRate))
	recovered := num.Min(num.UintZero().Add(in.TotalDebt, penaltyInMinted), in.MintedProceeds)
	p.DebtToBurn = recovered.Clone()

	remaining := num.UintZero().Sub(in.MintedProceeds, recovered)
	for _, v := range in.Vaults {
		p.addPhantomDebt(v)
		if remaining.IsZero() || in.TotalCollateral.IsZero() {
			continue
		}
		share := proRataShare(v.Collateral, num.UintZero().Sub(in.MintedProceeds, recovered), in.TotalCollateral)
		give := num.Min(share, remaining)
		if give.IsZero() {
			continue
		}
		remaining.Sub(remaining, give)
		p.Transfers = append(p.Transfers, &VaultDistribution{
			VaultID:    v.ID,
			Collateral: num.UintZero(),
			Minted:     give,
		})
	}
	// integer dust that fit no share
	p.MintedForReserve = remaining
}

// reinstateBestVaults handles a partial shortfall with collateral left
// over. Proceeds are burned in full, then vaults are returned to Active
// from best to worst while the remaining collateral covers their
// penalty-adjusted balance and their debt fits within the cycle's debt
// still unaccounted for. The first vault failing either test is
// liquidated for real, along with every worse-ranked one.
func (p *DistributionPlan) reinstateBestVaults(in PlanInputs) {
	p.DebtToBurn = in.MintedProceeds.Clone()

	reconstitute := in.CollateralProceeds.GTE(p.TotalPenalty)
	collatRemaining := num.UintZero()
	if reconstitute {
		collatRemaining.Sub(in.CollateralProceeds, p.TotalPenalty)
	}
	debtRemaining := in.TotalDebt.Clone()

	for _, v := range in.Vaults {
		if reconstitute {
			penaltyShare := penaltyShareInCollateral(v.DebtAtLiquidation, p.TotalPenalty, in.TotalDebt)
			if v.Collateral.GTE(penaltyShare) {
				postPenalty := num.UintZero().Sub(v.Collateral, penaltyShare)
				if collatRemaining.GTE(postPenalty) && debtRemaining.GTE(v.DebtAtLiquidation) {
					collatRemaining.Sub(collatRemaining, postPenalty)
					debtRemaining.Sub(debtRemaining, v.DebtAtLiquidation)
					p.ReinstatedDebt.Add(p.ReinstatedDebt, v.DebtAtLiquidation)
					p.payCollateral(v.ID, postPenalty, true)
					continue
				}
			}
		}
		// this vault and all worse ones go down
		reconstitute = false
		p.addPhantomDebt(v)
	}
}

// payCollateral appends a collateral payout, moving the amount out of
// the reserve bucket so the plan stays conserved.
func (p *DistributionPlan) payCollateral(vaultID string, amount *num.Uint, reinstate bool) {
	p.CollateralForReserve.Sub(p.CollateralForReserve, amount)
	p.Transfers = append(p.Transfers, &VaultDistribution{
		VaultID:    vaultID,
		Collateral: amount,
		Minted:     num.UintZero(),
		Reinstate:  reinstate,
	})
}

func (p *DistributionPlan) addPhantomDebt(v AffectedVault) {
	if v.CurrentDebt.GT(v.DebtAtLiquidation) {
		p.PhantomDebt.Add(p.PhantomDebt, num.UintZero().Sub(v.CurrentDebt, v.DebtAtLiquidation))
	}
}

// totalPenaltyInCollateral is ceil(totalDebt * penaltyRate / price),
// the cycle's liquidation fee expressed in collateral at the locked
// price.
func totalPenaltyInCollateral(totalDebt *num.Uint, penaltyRate, price num.Decimal) *num.Uint {
	if price.IsZero() {
		return num.UintZero()
	}
	penalty, _ := num.UintFromDecimalCeil(
		totalDebt.ToDecimal().Mul(penaltyRate).Div(price))
	return penalty
}

// penaltyShareInCollateral is floor(debt * totalPenalty / totalDebt),
// one vault's slice of the cycle penalty.
func penaltyShareInCollateral(debt, totalPenalty, totalDebt *num.Uint) *num.Uint {
	if totalDebt.IsZero() {
		return num.UintZero()
	}
	share := num.UintZero().Mul(debt, totalPenalty)
	return share.Div(share, totalDebt)
}

// proRataShare is floor(amount * portion / total).
func proRataShare(amount, portion, total *num.Uint) *num.Uint {
	share := num.UintZero().Mul(amount, portion)
	return share.Div(share, total)
}
