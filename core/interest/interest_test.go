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

package interest_test

import (
	"testing"
	"time"

	"code.ingotprotocol.io/ingot/core/interest"
	"code.ingotprotocol.io/ingot/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharge(t *testing.T) {
	t.Run("no whole period elapsed is a no-op", testChargeNoPeriod)
	t.Run("single period compounds once", testChargeSinglePeriod)
	t.Run("multiple periods compound per period", testChargeMultiplePeriods)
	t.Run("remainder is carried to the next call", testChargeRemainder)
	t.Run("charging twice at the same instant is idempotent", testChargeIdempotent)
}

func testParams() interest.Params {
	return interest.Params{
		Rate:            num.MustDecimalFromString("0.01"),
		ChargingPeriod:  time.Hour,
		RecordingPeriod: 24 * time.Hour,
	}
}

func testChargeNoPeriod(t *testing.T) {
	start := time.Unix(1000000, 0)
	state := interest.State{
		CompoundedRatio: num.DecimalOne(),
		TotalDebt:       num.NewUint(100000),
		LatestUpdate:    start,
	}
	res := interest.Charge(testParams(), state, start.Add(59*time.Minute))
	assert.True(t, res.Accrued.IsZero())
	assert.Equal(t, state.LatestUpdate, res.State.LatestUpdate)
	assert.True(t, state.CompoundedRatio.Equal(res.State.CompoundedRatio))
	assert.True(t, state.TotalDebt.EQ(res.State.TotalDebt))
}

func testChargeSinglePeriod(t *testing.T) {
	start := time.Unix(1000000, 0)
	state := interest.State{
		CompoundedRatio: num.DecimalOne(),
		TotalDebt:       num.NewUint(100000),
		LatestUpdate:    start,
	}
	res := interest.Charge(testParams(), state, start.Add(time.Hour))
	assert.Equal(t, "1.01", res.State.CompoundedRatio.String())
	assert.Equal(t, "101000", res.State.TotalDebt.String())
	assert.Equal(t, "1000", res.Accrued.String())
	assert.Equal(t, start.Add(time.Hour), res.State.LatestUpdate)
}

func testChargeMultiplePeriods(t *testing.T) {
	start := time.Unix(1000000, 0)
	state := interest.State{
		CompoundedRatio: num.DecimalOne(),
		TotalDebt:       num.NewUint(100000),
		LatestUpdate:    start,
	}
	res := interest.Charge(testParams(), state, start.Add(3*time.Hour))
	// 1.01^3
	assert.Equal(t, "1.030301", res.State.CompoundedRatio.String())
	// ceil(100000 * 1.030301)
	assert.Equal(t, "103031", res.State.TotalDebt.String())
	assert.Equal(t, "3031", res.Accrued.String())
}

func testChargeRemainder(t *testing.T) {
	start := time.Unix(1000000, 0)
	state := interest.State{
		CompoundedRatio: num.DecimalOne(),
		TotalDebt:       num.NewUint(100000),
		LatestUpdate:    start,
	}
	res := interest.Charge(testParams(), state, start.Add(90*time.Minute))
	// only one whole period charged, the half period remains pending
	assert.Equal(t, start.Add(time.Hour), res.State.LatestUpdate)
	assert.Equal(t, "1.01", res.State.CompoundedRatio.String())

	// the next call 30 minutes later completes the second period
	res2 := interest.Charge(testParams(), res.State, start.Add(2*time.Hour))
	assert.Equal(t, start.Add(2*time.Hour), res2.State.LatestUpdate)
	assert.Equal(t, "1.0201", res2.State.CompoundedRatio.String())
}

func testChargeIdempotent(t *testing.T) {
	start := time.Unix(1000000, 0)
	state := interest.State{
		CompoundedRatio: num.DecimalOne(),
		TotalDebt:       num.NewUint(100000),
		LatestUpdate:    start,
	}
	now := start.Add(time.Hour)
	res := interest.Charge(testParams(), state, now)
	require.False(t, res.Accrued.IsZero())

	// second charge at the same instant accrues nothing, twice
	res2 := interest.Charge(testParams(), res.State, now)
	assert.True(t, res2.Accrued.IsZero())
	assert.True(t, res.State.TotalDebt.EQ(res2.State.TotalDebt))
	res3 := interest.Charge(testParams(), res2.State, now)
	assert.True(t, res3.Accrued.IsZero())
	assert.True(t, res.State.TotalDebt.EQ(res3.State.TotalDebt))
}

func TestCurrentDebt(t *testing.T) {
	t.Run("scales by ratio growth rounding up", testCurrentDebtScales)
	t.Run("round-trips with reverse interest on exact inputs", testRoundTrip)
}

func testCurrentDebtScales(t *testing.T) {
	snap := num.NewUint(1000)
	ratio0 := num.DecimalOne()
	ratio1 := num.MustDecimalFromString("1.05")
	assert.Equal(t, "1050", interest.CalculateCurrentDebt(snap, ratio0, ratio1).String())

	// unchanged ratio returns the snapshot as is
	assert.Equal(t, "1000", interest.CalculateCurrentDebt(snap, ratio1, ratio1).String())

	// rounding is against the debtor
	snap = num.NewUint(999)
	assert.Equal(t, "1049", interest.CalculateCurrentDebt(snap, ratio0, ratio1).String())

	// zero debt stays zero, whatever the ratios
	assert.True(t, interest.CalculateCurrentDebt(num.UintZero(), ratio0, ratio1).IsZero())
}

func testRoundTrip(t *testing.T) {
	// identity holds whenever debt divides exactly by the ratio
	for _, tc := range []struct {
		debt  uint64
		ratio string
	}{
		{debt: 1050, ratio: "1.05"},
		{debt: 121, ratio: "1.21"},
		{debt: 2000000, ratio: "1.25"},
		{debt: 42, ratio: "1"},
	} {
		d := num.NewUint(tc.debt)
		r := num.MustDecimalFromString(tc.ratio)
		normalized := interest.ReverseInterest(d, r)
		back := interest.CalculateCurrentDebt(normalized, r, r)
		// snapshotRatio == currentRatio, identity must hold exactly
		assert.True(t, normalized.EQ(back), "normalize(%d, %s)", tc.debt, tc.ratio)
		restored := interest.CalculateCurrentDebt(normalized, num.DecimalOne(), r)
		assert.True(t, d.EQ(restored), "restore(%d, %s)", tc.debt, tc.ratio)
	}
}

func TestCalculateDebtCosts(t *testing.T) {
	t.Run("borrow mints want plus fee", testDebtCostsBorrow)
	t.Run("repay reduces debt", testDebtCostsRepay)
	t.Run("overpayment becomes surplus", testDebtCostsSurplus)
	t.Run("identity holds across inputs", testDebtCostsIdentity)
}

func testDebtCostsBorrow(t *testing.T) {
	feeRate := num.MustDecimalFromString("0.02")
	res := interest.CalculateDebtCosts(num.NewUint(1000), num.UintZero(), num.NewUint(500), feeRate)
	assert.Equal(t, "10", res.Fee.String())
	assert.Equal(t, "510", res.ToMint.String())
	assert.Equal(t, "1510", res.NewDebt.String())
	assert.True(t, res.Surplus.IsZero())

	// fee rounds up
	res = interest.CalculateDebtCosts(num.UintZero(), num.UintZero(), num.NewUint(501), feeRate)
	assert.Equal(t, "11", res.Fee.String())
	assert.Equal(t, "512", res.ToMint.String())
}

func testDebtCostsRepay(t *testing.T) {
	feeRate := num.MustDecimalFromString("0.02")
	res := interest.CalculateDebtCosts(num.NewUint(1000), num.NewUint(400), num.UintZero(), feeRate)
	assert.True(t, res.Fee.IsZero())
	assert.True(t, res.ToMint.IsZero())
	assert.Equal(t, "600", res.NewDebt.String())
	assert.True(t, res.Surplus.IsZero())
}

func testDebtCostsSurplus(t *testing.T) {
	feeRate := num.MustDecimalFromString("0.02")
	res := interest.CalculateDebtCosts(num.NewUint(1000), num.NewUint(1500), num.UintZero(), feeRate)
	assert.True(t, res.NewDebt.IsZero())
	assert.Equal(t, "500", res.Surplus.String())
}

func testDebtCostsIdentity(t *testing.T) {
	feeRate := num.MustDecimalFromString("0.015")
	for _, tc := range []struct {
		debt, give, want uint64
	}{
		{0, 0, 0},
		{1000, 0, 500},
		{1000, 400, 0},
		{1000, 1500, 0},
		{1000, 1500, 200},
		{123456, 789, 1011},
	} {
		currentDebt := num.NewUint(tc.debt)
		give := num.NewUint(tc.give)
		want := num.NewUint(tc.want)
		res := interest.CalculateDebtCosts(currentDebt, give, want, feeRate)

		// newDebt = currentDebt + toMint - surplus - maxGive, where
		// maxGive = give - surplus
		maxGive := num.UintZero().Sub(give, res.Surplus)
		expected := num.UintZero().Add(currentDebt, res.ToMint)
		expected.Sub(expected, maxGive)
		assert.True(t, res.NewDebt.EQ(expected), "debt=%d give=%d want=%d", tc.debt, tc.give, tc.want)

		// toMint >= want iff want > 0
		if tc.want > 0 {
			assert.True(t, res.ToMint.GTE(want))
		} else {
			assert.True(t, res.ToMint.IsZero())
		}
	}
}
