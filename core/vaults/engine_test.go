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
	"context"
	"testing"
	"time"

	"code.ingotprotocol.io/ingot/core/collateral"
	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/core/netparams"
	"code.ingotprotocol.io/ingot/core/types"
	"code.ingotprotocol.io/ingot/core/vaults"
	"code.ingotprotocol.io/ingot/core/vaults/mocks"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDebtAsset       = "IST"
	testCollateralAsset = "ATOM"
	alice               = "alice"
)

type testEngine struct {
	*vaults.Engine
	ctrl    *gomock.Controller
	broker  *mocks.MockBroker
	col     *collateral.Engine
	oracle  *mocks.MockPriceOracle
	auction *mocks.MockAuctionService
	params  *netparams.Store
	evts    []events.Event
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()

	te := &testEngine{ctrl: ctrl}
	broker := mocks.NewMockBroker(ctrl)
	broker.EXPECT().Send(gomock.Any()).AnyTimes().Do(func(evt events.Event) {
		te.evts = append(te.evts, evt)
	})
	broker.EXPECT().SendBatch(gomock.Any()).AnyTimes()

	col := collateral.New(log, collateral.NewDefaultConfig(), broker)
	require.NoError(t, col.EnableAsset(ctx, testDebtAsset))
	require.NoError(t, col.EnableAsset(ctx, testCollateralAsset))

	params := netparams.New(log, netparams.NewDefaultConfig(), broker)
	oracle := mocks.NewMockPriceOracle(ctrl)
	auction := mocks.NewMockAuctionService(ctrl)

	te.Engine = vaults.New(
		log, vaults.NewDefaultConfig(),
		col, oracle, auction, params, broker, nil,
		testDebtAsset, testCollateralAsset,
	)
	te.broker = broker
	te.col = col
	te.oracle = oracle
	te.auction = auction
	te.params = params
	return te
}

func (te *testEngine) lastVaultMetrics(t *testing.T) *events.VaultMetrics {
	t.Helper()
	for i := len(te.evts) - 1; i >= 0; i-- {
		if m, ok := te.evts[i].(*events.VaultMetrics); ok {
			return m
		}
	}
	t.Fatal("no vault metrics event published")
	return nil
}

func (te *testEngine) fundParty(t *testing.T, party, asset string, amount uint64) {
	t.Helper()
	_, err := te.col.Deposit(context.Background(), party, asset, num.NewUint(amount))
	require.NoError(t, err)
}

func (te *testEngine) generalBalance(t *testing.T, party, asset string) string {
	t.Helper()
	acc, err := te.col.GetPartyGeneralAccount(party, asset)
	require.NoError(t, err)
	return acc.Balance.String()
}

// openTestVault funds alice, sets the price and opens a vault with 1000
// collateral and 150000 debt (150750 with the default 0.5% mint fee).
func (te *testEngine) openTestVault(t *testing.T) string {
	t.Helper()
	te.fundParty(t, alice, testCollateralAsset, 2000)
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("1000"), Time: time.Now()})
	id, err := te.OpenVault(context.Background(), alice, num.NewUint(1000), num.NewUint(150000))
	require.NoError(t, err)
	return id
}

func TestOpenVault(t *testing.T) {
	t.Run("opening a vault locks collateral and mints debt", testOpenVault)
	t.Run("below the minimum debt fails with no ledger mutation", testOpenVaultBelowMinimum)
	t.Run("insufficient collateral is rejected", testOpenVaultInsufficientCollateral)
	t.Run("no oracle quote yet is rejected", testOpenVaultNoQuote)
	t.Run("the debt ceiling caps minting", testOpenVaultDebtCeiling)
}

func testOpenVault(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)

	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseActive, v.Phase())
	assert.Equal(t, "1000", v.Collateral().String())
	// wanted debt plus the 0.5% mint fee
	assert.Equal(t, "150750", v.DebtSnapshot().String())

	assert.Equal(t, "1000", te.generalBalance(t, alice, testCollateralAsset))
	assert.Equal(t, "150000", te.generalBalance(t, alice, testDebtAsset))

	custody, err := te.col.GetAccountByID(v.CollateralAccount())
	require.NoError(t, err)
	assert.Equal(t, "1000", custody.Balance.String())

	feePool, err := te.col.GetAccountByID(te.col.FeePoolAccountID(testDebtAsset))
	require.NoError(t, err)
	assert.Equal(t, "750", feePool.Balance.String())
}

func testOpenVaultBelowMinimum(t *testing.T) {
	te := getTestEngine(t)
	te.fundParty(t, alice, testCollateralAsset, 2000)
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("1000"), Time: time.Now()})

	before := len(te.col.GetPartyAccounts(alice))
	_, err := te.OpenVault(context.Background(), alice, num.NewUint(1000), num.NewUint(50000))
	assert.ErrorIs(t, err, vaults.ErrVaultBelowMinimumDebt)

	assert.Equal(t, "2000", te.generalBalance(t, alice, testCollateralAsset))
	assert.Len(t, te.col.GetPartyAccounts(alice), before)
}

func testOpenVaultInsufficientCollateral(t *testing.T) {
	te := getTestEngine(t)
	te.fundParty(t, alice, testCollateralAsset, 2000)
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("1000"), Time: time.Now()})

	// max debt for 10 ATOM at 1000 is 10000/1.75
	_, err := te.OpenVault(context.Background(), alice, num.NewUint(10), num.NewUint(150000))
	assert.ErrorIs(t, err, vaults.ErrInsufficientCollateralization)
}

func testOpenVaultNoQuote(t *testing.T) {
	te := getTestEngine(t)
	te.fundParty(t, alice, testCollateralAsset, 2000)

	_, err := te.OpenVault(context.Background(), alice, num.NewUint(1000), num.NewUint(150000))
	assert.ErrorIs(t, err, vaults.ErrNoPriceQuote)
}

func testOpenVaultDebtCeiling(t *testing.T) {
	te := getTestEngine(t)
	te.fundParty(t, alice, testCollateralAsset, 2000)
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("1000"), Time: time.Now()})
	require.NoError(t, te.params.Update(context.Background(), netparams.VaultsDebtCeiling, "120000"))

	_, err := te.OpenVault(context.Background(), alice, num.NewUint(1000), num.NewUint(150000))
	assert.ErrorIs(t, err, vaults.ErrDebtCeilingExceeded)
}

func TestAdjustVault(t *testing.T) {
	t.Run("repaying debt reduces the snapshot", testAdjustRepay)
	t.Run("repaying an underwater vault is allowed", testAdjustRepayUnderwater)
	t.Run("withdrawing collateral is margin checked", testAdjustWithdraw)
	t.Run("a failed repayment leaves the ledger untouched", testAdjustFailedRepaymentRollsBack)
	t.Run("only the owner can adjust", testAdjustNotOwner)
}

func testAdjustRepay(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()

	zero := num.UintZero()
	require.NoError(t, te.AdjustVault(ctx, alice, id, zero, zero, num.NewUint(50000), zero))

	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, "100750", v.DebtSnapshot().String())
	assert.Equal(t, "100000", te.generalBalance(t, alice, testDebtAsset))
}

func testAdjustRepayUnderwater(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()
	zero := num.UintZero()

	// the position is deep underwater at this price, de-risking must
	// still go through
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("200"), Time: time.Now()})
	require.NoError(t, te.AdjustVault(ctx, alice, id, zero, zero, num.NewUint(1000), zero))

	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, "149750", v.DebtSnapshot().String())
	assert.Equal(t, "149000", te.generalBalance(t, alice, testDebtAsset))
}

func testAdjustWithdraw(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()
	zero := num.UintZero()

	// pulling out 500 leaves max debt 500*1000/1.75 = 285714, fine
	require.NoError(t, te.AdjustVault(ctx, alice, id, zero, num.NewUint(500), zero, zero))
	assert.Equal(t, "1500", te.generalBalance(t, alice, testCollateralAsset))

	// pulling out 300 more leaves max debt 200*1000/1.75 = 114285 < 150750
	err := te.AdjustVault(ctx, alice, id, zero, num.NewUint(300), zero, zero)
	assert.ErrorIs(t, err, vaults.ErrInsufficientCollateralization)
	assert.Equal(t, "1500", te.generalBalance(t, alice, testCollateralAsset))
}

func testAdjustFailedRepaymentRollsBack(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()
	zero := num.UintZero()

	// alice holds 150000 IST, the repayment needs 150750: the burn
	// fails after the collateral legs, which must be reversed
	err := te.AdjustVault(ctx, alice, id, zero, num.NewUint(100), num.NewUint(150750), zero)
	require.Error(t, err)

	v, gerr := te.GetVault(id)
	require.NoError(t, gerr)
	assert.Equal(t, "1000", v.Collateral().String())
	assert.Equal(t, "150750", v.DebtSnapshot().String())
	custody, cerr := te.col.GetAccountByID(v.CollateralAccount())
	require.NoError(t, cerr)
	assert.Equal(t, "1000", custody.Balance.String())
	assert.Equal(t, "1000", te.generalBalance(t, alice, testCollateralAsset))
	assert.Equal(t, "150000", te.generalBalance(t, alice, testDebtAsset))
}

func testAdjustNotOwner(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	zero := num.UintZero()

	err := te.AdjustVault(context.Background(), "mallory", id, zero, zero, zero, zero)
	assert.ErrorIs(t, err, vaults.ErrNotVaultOwner)
}

func TestCloseVault(t *testing.T) {
	t.Run("closing repays the debt and releases the collateral", testCloseVault)
	t.Run("closing an unknown vault fails", testCloseUnknown)
}

func testCloseVault(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()

	// alice holds 150000, the vault owes 150750
	te.fundParty(t, alice, testDebtAsset, 1000)
	require.NoError(t, te.CloseVault(ctx, alice, id))

	assert.Equal(t, "2000", te.generalBalance(t, alice, testCollateralAsset))
	assert.Equal(t, "250", te.generalBalance(t, alice, testDebtAsset))
	_, err := te.GetVault(id)
	assert.ErrorIs(t, err, vaults.ErrVaultNotFound)
}

func testCloseUnknown(t *testing.T) {
	te := getTestEngine(t)
	err := te.CloseVault(context.Background(), alice, "no-such-vault")
	assert.ErrorIs(t, err, vaults.ErrVaultNotFound)
}

func TestTransferVault(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()

	require.NoError(t, te.TransferVault(ctx, alice, "bob", id))
	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, "bob", v.Owner())

	// the outgoing holder lost all access
	zero := num.UintZero()
	err = te.AdjustVault(ctx, alice, id, zero, zero, zero, zero)
	assert.ErrorIs(t, err, vaults.ErrNotVaultOwner)
}

func TestLiquidation(t *testing.T) {
	t.Run("a breached vault is sent to auction and settled", testLiquidationCompletes)
	t.Run("no buyer aborts the cycle and restores the vault", testLiquidationAborts)
	t.Run("healthy vaults are left alone", testLiquidationNoBreach)
	t.Run("a second cycle cannot start while one is in flight", testLiquidationSingleCycle)
	t.Run("an emptied vault does not shadow breaching ones", testLiquidationEmptiedVaultDoesNotShadow)
}

// breachTestVault opens the standard vault then drops the price far
// enough that its debt exceeds the maximum.
func (te *testEngine) breachTestVault(t *testing.T) (string, chan *types.AuctionProceeds) {
	t.Helper()
	id := te.openTestVault(t)
	// max debt becomes 1000*200/1.75 = 114285 < 150750
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("200"), Time: time.Now()})

	proceeds := make(chan *types.AuctionProceeds, 1)
	te.auction.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
		func(_ context.Context, d types.AuctionDeposit) (<-chan *types.AuctionProceeds, error) {
			assert.Equal(t, "1000", d.Collateral.String())
			assert.Equal(t, "150750", d.Goal.String())
			return proceeds, nil
		})
	require.NoError(t, te.StartLiquidationCycle(context.Background()))
	return id, proceeds
}

func testLiquidationCompletes(t *testing.T) {
	te := getTestEngine(t)
	id, _ := te.breachTestVault(t)
	ctx := context.Background()

	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseLiquidating, v.Phase())

	custody, err := te.col.GetAccountByID(v.CollateralAccount())
	require.NoError(t, err)
	assert.Equal(t, "0", custody.Balance.String())
	liq, err := te.col.GetAccountByID(te.col.LiquidationAccountID(testCollateralAsset))
	require.NoError(t, err)
	assert.Equal(t, "1000", liq.Balance.String())

	// everything sold, debt fully recovered with some overage
	te.HandleAuctionResult(ctx, &types.AuctionProceeds{
		Minted:     num.NewUint(160000),
		Collateral: num.UintZero(),
	})

	v, err = te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseLiquidated, v.Phase())
	assert.True(t, v.DebtSnapshot().IsZero())

	reserve, err := te.col.GetAccountByID(te.col.ReserveAccountID(testDebtAsset))
	require.NoError(t, err)
	assert.Equal(t, "9250", reserve.Balance.String())
	liq, err = te.col.GetAccountByID(te.col.LiquidationAccountID(testCollateralAsset))
	require.NoError(t, err)
	assert.Equal(t, "0", liq.Balance.String())

	// the settled vault can be closed, nothing comes back
	require.NoError(t, te.CloseVault(ctx, alice, id))
}

func testLiquidationAborts(t *testing.T) {
	te := getTestEngine(t)
	id, _ := te.breachTestVault(t)

	te.HandleAuctionResult(context.Background(), nil)

	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseActive, v.Phase())
	assert.Equal(t, "150750", v.DebtSnapshot().String())
	assert.Equal(t, "1000", v.Collateral().String())

	custody, err := te.col.GetAccountByID(v.CollateralAccount())
	require.NoError(t, err)
	assert.Equal(t, "1000", custody.Balance.String())
}

func testLiquidationNoBreach(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)

	// no auction deposit is expected at this price
	require.NoError(t, te.StartLiquidationCycle(context.Background()))
	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseActive, v.Phase())
}

func testLiquidationSingleCycle(t *testing.T) {
	te := getTestEngine(t)
	te.breachTestVault(t)

	err := te.StartLiquidationCycle(context.Background())
	assert.ErrorIs(t, err, vaults.ErrLiquidationInProgress)
}

func testLiquidationEmptiedVaultDoesNotShadow(t *testing.T) {
	te := getTestEngine(t)
	id := te.openTestVault(t)
	ctx := context.Background()
	zero := num.UintZero()

	// alice clears her vault completely but leaves it open
	te.fundParty(t, alice, testDebtAsset, 1000)
	require.NoError(t, te.AdjustVault(ctx, alice, id, zero, num.NewUint(1000), num.NewUint(150750), zero))
	v, err := te.GetVault(id)
	require.NoError(t, err)
	assert.True(t, v.DebtSnapshot().IsZero())
	assert.True(t, v.Collateral().IsZero())

	// bob opens his own vault, then the price collapse breaches it
	te.fundParty(t, "bob", testCollateralAsset, 2000)
	bobID, err := te.OpenVault(ctx, "bob", num.NewUint(1000), num.NewUint(150000))
	require.NoError(t, err)
	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("200"), Time: time.Now()})

	proceeds := make(chan *types.AuctionProceeds, 1)
	te.auction.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
		func(_ context.Context, d types.AuctionDeposit) (<-chan *types.AuctionProceeds, error) {
			assert.Equal(t, "1000", d.Collateral.String())
			return proceeds, nil
		})
	require.NoError(t, te.StartLiquidationCycle(ctx))

	bob, err := te.GetVault(bobID)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseLiquidating, bob.Phase())
	v, err = te.GetVault(id)
	require.NoError(t, err)
	assert.Equal(t, vaults.PhaseActive, v.Phase())
}

func TestLockQuote(t *testing.T) {
	te := getTestEngine(t)
	assert.ErrorIs(t, te.LockQuote(), vaults.ErrNoPriceQuote)

	te.OnPriceQuote(types.PriceQuote{Price: num.MustDecimalFromString("1000"), Time: time.Now()})
	assert.NoError(t, te.LockQuote())
}

func TestLiquidationMetrics(t *testing.T) {
	te := getTestEngine(t)
	te.breachTestVault(t)

	// the in-flight cycle publishes its subtotals
	m := te.lastVaultMetrics(t)
	assert.Equal(t, uint64(1), m.NumLiquidatingVaults())
	assert.Equal(t, "1000", m.LiquidatingCollateral().String())
	assert.Equal(t, "150750", m.LiquidatingDebt().String())

	te.HandleAuctionResult(context.Background(), &types.AuctionProceeds{
		Minted:     num.NewUint(160000),
		Collateral: num.UintZero(),
	})
	m = te.lastVaultMetrics(t)
	assert.Equal(t, uint64(0), m.NumLiquidatingVaults())
	assert.Equal(t, "0", m.LiquidatingCollateral().String())
	assert.Equal(t, uint64(1), m.NumLiquidatedVaults())
}

func TestInterestCharging(t *testing.T) {
	te := getTestEngine(t)
	te.openTestVault(t)
	ctx := context.Background()

	now := time.Now()
	// first tick only anchors the schedule
	te.OnTick(ctx, now)
	feePool, err := te.col.GetAccountByID(te.col.FeePoolAccountID(testDebtAsset))
	require.NoError(t, err)
	assert.Equal(t, "750", feePool.Balance.String())

	// two charging periods later some interest accrued
	te.OnTick(ctx, now.Add(2*time.Hour))
	feePool, err = te.col.GetAccountByID(te.col.FeePoolAccountID(testDebtAsset))
	require.NoError(t, err)
	accrued := num.UintZero().Sub(feePool.Balance, num.NewUint(750))
	assert.False(t, accrued.IsZero())

	// same timestamp again is a no-op
	before := feePool.Balance.Clone()
	te.OnTick(ctx, now.Add(2*time.Hour))
	feePool, err = te.col.GetAccountByID(te.col.FeePoolAccountID(testDebtAsset))
	require.NoError(t, err)
	assert.Equal(t, before.String(), feePool.Balance.String())
}
