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

package vaults_test

import (
	"math/rand"
	"testing"

	"code.ingotprotocol.io/ingot/core/vaults"
	"code.ingotprotocol.io/ingot/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributionPlan(t *testing.T) {
	t.Run("proceeds exactly cover the debt with all collateral sold", testPlanExactRecoveryAllSold)
	t.Run("no shortfall returns collateral net of penalty pro-rata", testPlanNoShortfallReturnsCollateral)
	t.Run("all collateral sold and debt not covered burns the proceeds", testPlanFullShortfall)
	t.Run("partial shortfall reinstates the best vaults", testPlanReinstatesBestVaults)
	t.Run("reinstatement stops at the first vault that does not fit", testPlanReinstatementStops)
	t.Run("burn plus shortfall always equals the cycle debt", testPlanInvariantHolds)
	t.Run("arbitrary inputs always produce a plan", testPlanNeverPanics)
}

func testPlanExactRecoveryAllSold(t *testing.T) {
	plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
		MintedProceeds:     num.NewUint(1680),
		CollateralProceeds: num.UintZero(),
		TotalDebt:          num.NewUint(1680),
		TotalCollateral:    num.NewUint(400),
		Price:              num.MustDecimalFromString("4"),
		PenaltyRate:        num.MustDecimalFromString("0.1"),
		Vaults: []vaults.AffectedVault{
			{
				ID:                "v1",
				Collateral:        num.UintZero(),
				DebtAtLiquidation: num.UintZero(),
				CurrentDebt:       num.UintZero(),
			},
		},
	})
	require.NotNil(t, plan)
	assert.Equal(t, "1680", plan.DebtToBurn.String())
	assert.Equal(t, "0", plan.MintedForReserve.String())
	assert.Equal(t, "0", plan.Shortfall.String())
	assert.Equal(t, "42", plan.TotalPenalty.String())
	assert.Equal(t, "400", plan.CollateralSold.String())
	assert.Empty(t, plan.Transfers)
	assert.Equal(t, "0", plan.ReinstatedDebt.String())
}

func testPlanNoShortfallReturnsCollateral(t *testing.T) {
	plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
		MintedProceeds:     num.NewUint(1200),
		CollateralProceeds: num.NewUint(200),
		TotalDebt:          num.NewUint(1000),
		TotalCollateral:    num.NewUint(500),
		Price:              num.MustDecimalFromString("4"),
		PenaltyRate:        num.MustDecimalFromString("0.1"),
		Vaults: []vaults.AffectedVault{
			{
				ID:                "best",
				Collateral:        num.NewUint(300),
				DebtAtLiquidation: num.NewUint(400),
				CurrentDebt:       num.NewUint(400),
			},
			{
				ID:                "worst",
				Collateral:        num.NewUint(200),
				DebtAtLiquidation: num.NewUint(600),
				CurrentDebt:       num.NewUint(610),
			},
		},
	})
	require.NotNil(t, plan)
	assert.Equal(t, "1000", plan.DebtToBurn.String())
	assert.Equal(t, "200", plan.MintedForReserve.String())
	assert.Equal(t, "0", plan.Shortfall.String())
	// ceil(1000 * 0.1 / 4)
	assert.Equal(t, "25", plan.TotalPenalty.String())
	assert.Equal(t, "300", plan.CollateralSold.String())
	// 175 distributable, split 300:200
	require.Len(t, plan.Transfers, 2)
	assert.Equal(t, "best", plan.Transfers[0].VaultID)
	assert.Equal(t, "105", plan.Transfers[0].Collateral.String())
	assert.False(t, plan.Transfers[0].Reinstate)
	assert.Equal(t, "worst", plan.Transfers[1].VaultID)
	assert.Equal(t, "70", plan.Transfers[1].Collateral.String())
	// penalty stays behind for the reserve
	assert.Equal(t, "25", plan.CollateralForReserve.String())
	// interest accrued on the stale mark
	assert.Equal(t, "10", plan.PhantomDebt.String())
}

func testPlanFullShortfall(t *testing.T) {
	plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
		MintedProceeds:     num.NewUint(900),
		CollateralProceeds: num.UintZero(),
		TotalDebt:          num.NewUint(1000),
		TotalCollateral:    num.NewUint(500),
		Price:              num.MustDecimalFromString("4"),
		PenaltyRate:        num.MustDecimalFromString("0.1"),
		Vaults: []vaults.AffectedVault{
			{
				ID:                "v1",
				Collateral:        num.NewUint(500),
				DebtAtLiquidation: num.NewUint(1000),
				CurrentDebt:       num.NewUint(1000),
			},
		},
	})
	require.NotNil(t, plan)
	assert.Equal(t, "900", plan.DebtToBurn.String())
	assert.Equal(t, "100", plan.Shortfall.String())
	assert.Equal(t, "500", plan.CollateralSold.String())
	assert.Empty(t, plan.Transfers)
	assert.Equal(t, "0", plan.CollateralForReserve.String())
}

func testPlanReinstatesBestVaults(t *testing.T) {
	plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
		MintedProceeds:     num.NewUint(800),
		CollateralProceeds: num.NewUint(200),
		TotalDebt:          num.NewUint(1000),
		TotalCollateral:    num.NewUint(350),
		Price:              num.MustDecimalFromString("4"),
		PenaltyRate:        num.MustDecimalFromString("0.1"),
		Vaults: []vaults.AffectedVault{
			{
				ID:                "best",
				Collateral:        num.NewUint(150),
				DebtAtLiquidation: num.NewUint(400),
				CurrentDebt:       num.NewUint(400),
			},
			{
				ID:                "worst",
				Collateral:        num.NewUint(200),
				DebtAtLiquidation: num.NewUint(600),
				CurrentDebt:       num.NewUint(612),
			},
		},
	})
	require.NotNil(t, plan)
	assert.Equal(t, "800", plan.DebtToBurn.String())
	assert.Equal(t, "200", plan.Shortfall.String())
	assert.Equal(t, "25", plan.TotalPenalty.String())
	// best fits: penalty share floor(400*25/1000)=10, gets 140 back
	require.Len(t, plan.Transfers, 1)
	assert.Equal(t, "best", plan.Transfers[0].VaultID)
	assert.Equal(t, "140", plan.Transfers[0].Collateral.String())
	assert.True(t, plan.Transfers[0].Reinstate)
	assert.Equal(t, "400", plan.ReinstatedDebt.String())
	// worst is liquidated for real, its accrued interest is phantom
	assert.Equal(t, "12", plan.PhantomDebt.String())
	assert.Equal(t, "60", plan.CollateralForReserve.String())
}

func testPlanReinstatementStops(t *testing.T) {
	// not enough collateral came back to cover even the best vault
	plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
		MintedProceeds:     num.NewUint(800),
		CollateralProceeds: num.NewUint(200),
		TotalDebt:          num.NewUint(1000),
		TotalCollateral:    num.NewUint(500),
		Price:              num.MustDecimalFromString("4"),
		PenaltyRate:        num.MustDecimalFromString("0.1"),
		Vaults: []vaults.AffectedVault{
			{
				ID:                "best",
				Collateral:        num.NewUint(300),
				DebtAtLiquidation: num.NewUint(400),
				CurrentDebt:       num.NewUint(400),
			},
			{
				ID:                "worst",
				Collateral:        num.NewUint(200),
				DebtAtLiquidation: num.NewUint(600),
				CurrentDebt:       num.NewUint(600),
			},
		},
	})
	require.NotNil(t, plan)
	assert.Empty(t, plan.Transfers)
	assert.Equal(t, "0", plan.ReinstatedDebt.String())
	// everything unsold goes to the reserve
	assert.Equal(t, "200", plan.CollateralForReserve.String())
}

func testPlanInvariantHolds(t *testing.T) {
	cases := []struct {
		minted, collateral uint64
	}{
		{0, 0},
		{0, 500},
		{400, 0},
		{400, 200},
		{1000, 0},
		{1000, 500},
		{1500, 100},
	}
	for _, c := range cases {
		plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
			MintedProceeds:     num.NewUint(c.minted),
			CollateralProceeds: num.NewUint(c.collateral),
			TotalDebt:          num.NewUint(1000),
			TotalCollateral:    num.NewUint(500),
			Price:              num.MustDecimalFromString("4"),
			PenaltyRate:        num.MustDecimalFromString("0.1"),
			Vaults: []vaults.AffectedVault{
				{
					ID:                "v1",
					Collateral:        num.NewUint(500),
					DebtAtLiquidation: num.NewUint(1000),
					CurrentDebt:       num.NewUint(1000),
				},
			},
		})
		require.NotNil(t, plan)
		sum := num.Sum(plan.DebtToBurn, plan.Shortfall)
		assert.Equal(t, "1000", sum.String(),
			"minted %d collateral %d", c.minted, c.collateral)
	}
}

func testPlanNeverPanics(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	randUint := func() *num.Uint {
		return num.NewUint(uint64(r.Int63n(1_000_000)))
	}
	for i := 0; i < 2000; i++ {
		nVaults := r.Intn(5)
		vs := make([]vaults.AffectedVault, 0, nVaults)
		for j := 0; j < nVaults; j++ {
			vs = append(vs, vaults.AffectedVault{
				ID:                "v",
				Collateral:        randUint(),
				DebtAtLiquidation: randUint(),
				CurrentDebt:       randUint(),
			})
		}
		// totals deliberately unrelated to the per vault balances
		plan := vaults.CalculateDistributionPlan(vaults.PlanInputs{
			MintedProceeds:     randUint(),
			CollateralProceeds: randUint(),
			TotalDebt:          randUint(),
			TotalCollateral:    randUint(),
			Price:              num.DecimalFromInt64(r.Int63n(10)),
			PenaltyRate:        num.MustDecimalFromString("0.1"),
			Vaults:             vs,
		})
		require.NotNil(t, plan)
		require.NotNil(t, plan.DebtToBurn)
		require.NotNil(t, plan.Shortfall)
		require.NotNil(t, plan.CollateralForReserve)
	}
}
