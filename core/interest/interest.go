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

// Package interest holds the pure compounding arithmetic of the vault
// engine. Debt accrues per whole charging period, aggregate debt is
// rescaled once per charge, and individual positions are never touched:
// a position's live debt is derived lazily from its snapshot and the
// manager's current compounded ratio.
package interest

import (
	"time"

	"code.ingotprotocol.io/ingot/libs/num"
)

// Params are the governed interest parameters for one debt asset. Rate
// is the rate applied once per whole charging period, the caller derives
// it from the annual rate. RecordingPeriod only drives how often state
// is published, it never alters the arithmetic.
type Params struct {
	Rate            num.Decimal
	ChargingPeriod  time.Duration
	RecordingPeriod time.Duration
}

// State is the interest accounting of a manager at a point in time.
type State struct {
	CompoundedRatio num.Decimal
	TotalDebt       *num.Uint
	LatestUpdate    time.Time
}

// Result of a charge pass. Accrued is the newly created debt, to be
// minted and moved to the fee pool as protocol revenue.
type Result struct {
	State   State
	Accrued *num.Uint
}

// Charge advances the compounded ratio by the number of whole charging
// periods elapsed between state.LatestUpdate and now, and rescales the
// aggregate debt by the same growth factor. Zero whole periods elapsed
// is a no-op, so calling twice at the same instant charges nothing the
// second time. LatestUpdate only ever advances by whole periods, the
// remainder is carried into the next call.
func Charge(p Params, s State, now time.Time) Result {
	elapsed := now.Sub(s.LatestUpdate)
	if p.ChargingPeriod <= 0 || elapsed < p.ChargingPeriod {
		return Result{State: s, Accrued: num.UintZero()}
	}
	periods := int64(elapsed / p.ChargingPeriod)
	growth := num.DecimalOne().Add(p.Rate).Pow(num.DecimalFromInt64(periods))
	newRatio := s.CompoundedRatio.Mul(growth)
	newDebt := CalculateCurrentDebt(s.TotalDebt, s.CompoundedRatio, newRatio)
	accrued := num.UintZero().Sub(newDebt, s.TotalDebt)
	return Result{
		State: State{
			CompoundedRatio: newRatio,
			TotalDebt:       newDebt,
			LatestUpdate:    s.LatestUpdate.Add(time.Duration(periods) * p.ChargingPeriod),
		},
		Accrued: accrued,
	}
}

// CalculateCurrentDebt scales a debt snapshot from the ratio it was
// recorded at to the current ratio, rounding against the debtor.
func CalculateCurrentDebt(snapshot *num.Uint, snapshotRatio, currentRatio num.Decimal) *num.Uint {
	if snapshot.IsZero() || snapshotRatio.Equal(currentRatio) {
		return snapshot.Clone()
	}
	d := snapshot.ToDecimal().Mul(currentRatio).Div(snapshotRatio)
	u, _ := num.UintFromDecimalCeil(d)
	return u
}

// ReverseInterest normalizes a debt back to the epoch-zero scale of the
// given ratio, rounding down. Used to key the risk index, where all
// positions must be comparable regardless of when they were snapshotted.
func ReverseInterest(debt *num.Uint, ratio num.Decimal) *num.Uint {
	if debt.IsZero() || ratio.Equal(num.DecimalOne()) {
		return debt.Clone()
	}
	u, _ := num.UintFromDecimal(debt.ToDecimal().Div(ratio))
	return u
}

// DebtCosts is the outcome of a borrow/repay recomputation.
type DebtCosts struct {
	// NewDebt is the debt after the adjustment settles.
	NewDebt *num.Uint
	// ToMint is the amount of new debt asset to create, the wanted
	// amount plus the fee.
	ToMint *num.Uint
	// Fee charged on the wanted amount, rounded up.
	Fee *num.Uint
	// Surplus is the part of give that exceeds what was owed, returned
	// to the caller rather than applied to debt.
	Surplus *num.Uint
}

// CalculateDebtCosts recomputes the debt of a position given what the
// holder gives back and what they want minted, at the given fee rate.
func CalculateDebtCosts(currentDebt, give, want *num.Uint, feeRate num.Decimal) DebtCosts {
	fee, _ := num.UintFromDecimalCeil(want.ToDecimal().Mul(feeRate))
	toMint := num.UintZero().Add(want, fee)
	ceiling := num.UintZero().Add(currentDebt, toMint)
	maxGive := num.Min(give, ceiling)
	return DebtCosts{
		NewDebt: num.UintZero().Sub(ceiling, maxGive),
		ToMint:  toMint,
		Fee:     fee,
		Surplus: num.UintZero().Sub(give, maxGive),
	}
}
