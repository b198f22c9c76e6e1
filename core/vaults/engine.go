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
	"context"
	"fmt"
	"sync"
	"time"

	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/core/interest"
	"code.ingotprotocol.io/ingot/core/metrics"
	"code.ingotprotocol.io/ingot/core/netparams"
	"code.ingotprotocol.io/ingot/core/types"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/pkg/errors"
)

var (
	// ErrEngineHalted a fatal infrastructure fault shut the engine down.
	ErrEngineHalted = errors.New("vaults engine is halted")
	// ErrNoPriceQuote no oracle quote has been observed yet.
	ErrNoPriceQuote = errors.New("no price quote available")
	// ErrLiquidationInProgress a liquidation cycle is already in flight.
	ErrLiquidationInProgress = errors.New("liquidation cycle in progress")
)

// hoursPerYear converts the governed annual interest rate to the
// charging period scale.
const hoursPerYear = 24 * 365

// Collateral is the ledger the engine settles against.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/collateral_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults Collateral
type Collateral interface {
	CreatePartyGeneralAccount(ctx context.Context, party, asset string) (string, error)
	CreateVaultCollateralAccount(ctx context.Context, vaultID, asset string) (string, error)
	RemoveAccount(id string) error
	GetAccountByID(id string) (*types.Account, error)
	LiquidationAccountID(asset string) string
	ReserveAccountID(asset string) string
	FeePoolAccountID(asset string) string
	Transfer(ctx context.Context, transfer *types.Transfer) (*types.LedgerMovement, error)
	TransferBatch(ctx context.Context, transfers []*types.Transfer) ([]*types.LedgerMovement, error)
	Mint(ctx context.Context, asset, toAccount string, amount *num.Uint) (*types.LedgerMovement, error)
	Burn(ctx context.Context, asset, fromAccount string, amount *num.Uint) (*types.LedgerMovement, error)
}

// PriceOracle streams the collateral price in debt asset terms.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/price_oracle_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults PriceOracle
type PriceOracle interface {
	Subscribe(ctx context.Context, asset string) (<-chan types.PriceQuote, error)
}

// AuctionService sells a batch of collateral. The returned channel
// yields exactly one result when the auction settles, a nil result
// meaning no buyer was found and the whole batch comes back.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/auction_service_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults AuctionService
type AuctionService interface {
	Deposit(ctx context.Context, deposit types.AuctionDeposit) (<-chan *types.AuctionProceeds, error)
}

// Parameters exposes the governed parameters, read fresh on each use.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/parameters_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults Parameters
type Parameters interface {
	GetDecimal(key string) (num.Decimal, error)
	GetUint(key string) (*num.Uint, error)
	GetDuration(key string) (time.Duration, error)
}

// Broker send events.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// cycle is one liquidation round in flight: the vaults taken in, the
// balances frozen at the mark, and the channel the auction settles on.
type cycle struct {
	lockedPrice     num.Decimal
	totalDebt       *num.Uint
	totalCollateral *num.Uint
	// best to worst collateralized
	affected []AffectedVault
	vaults   map[string]*Vault
	proceeds <-chan *types.AuctionProceeds
}

// Engine owns every vault of one collateral type. It charges interest
// on the aggregate, keeps the risk-ordered index current, decides which
// vaults go to auction and settles the proceeds. All mutation for one
// collateral type is serialized through the engine's lock.
type Engine struct {
	log *logging.Logger
	cfg Config
	mu  sync.Mutex

	debtAsset       string
	collateralAsset string

	collateral Collateral
	oracle     PriceOracle
	auction    AuctionService
	params     Parameters
	broker     Broker
	reserve    *ReserveReporter

	vaults map[string]*Vault
	index  *prioritizedVaults
	seq    uint64

	interestState    interest.State
	totalCollateral  *num.Uint
	totalAccruedFees *num.Uint
	lastRecorded     time.Time

	latestQuote *types.PriceQuote
	lockedQuote *types.PriceQuote
	cycle       *cycle

	liquidationsCompleted uint64
	liquidationsAborted   uint64
	numLiquidated         uint64
	totalProceedsReceived *num.Uint
	totalOverage          *num.Uint
	totalShortfall        *num.Uint
	totalPenaltyCharged   *num.Uint
	totalCollateralSold   *num.Uint

	currentTime time.Time
	halted      bool
}

// New instantiates the vaults engine for one collateral type.
func New(
	log *logging.Logger,
	cfg Config,
	collateral Collateral,
	oracle PriceOracle,
	auction AuctionService,
	params Parameters,
	broker Broker,
	reserve *ReserveReporter,
	debtAsset, collateralAsset string,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:             log,
		cfg:             cfg,
		debtAsset:       debtAsset,
		collateralAsset: collateralAsset,
		collateral:      collateral,
		oracle:          oracle,
		auction:         auction,
		params:          params,
		broker:          broker,
		reserve:         reserve,
		vaults:          map[string]*Vault{},
		index:           newPrioritizedVaults(),
		interestState: interest.State{
			CompoundedRatio: num.DecimalOne(),
			TotalDebt:       num.UintZero(),
		},
		totalCollateral:       num.UintZero(),
		totalAccruedFees:      num.UintZero(),
		totalProceedsReceived: num.UintZero(),
		totalOverage:          num.UintZero(),
		totalShortfall:        num.UintZero(),
		totalPenaltyCharged:   num.UintZero(),
		totalCollateralSold:   num.UintZero(),
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

// Run drives the engine until ctx is cancelled: it watches the oracle
// feed, charges interest, starts liquidation cycles on the configured
// interval and settles auction proceeds. A permanently failed oracle
// feed is fatal, the engine halts rather than operate on stale prices.
func (e *Engine) Run(ctx context.Context) error {
	quotes, err := e.oracle.Subscribe(ctx, e.collateralAsset)
	if err != nil {
		return errors.Wrap(err, "could not subscribe to the price oracle")
	}
	cycleTicker := time.NewTicker(e.cfg.CycleInterval.Get())
	defer cycleTicker.Stop()
	interestTicker := time.NewTicker(time.Minute)
	defer interestTicker.Stop()

	for {
		// a nil channel blocks forever, so proceeds are only selected
		// on while a cycle is in flight
		var proceeds <-chan *types.AuctionProceeds
		e.mu.Lock()
		if e.cycle != nil {
			proceeds = e.cycle.proceeds
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case q, ok := <-quotes:
			if !ok {
				e.halt()
				return errors.Wrap(ErrEngineHalted, "price oracle feed closed")
			}
			e.OnPriceQuote(q)
		case t := <-interestTicker.C:
			e.OnTick(ctx, t)
		case <-cycleTicker.C:
			if err := e.StartLiquidationCycle(ctx); err != nil {
				e.log.Error("could not start liquidation cycle", logging.Error(err))
			}
		case p := <-proceeds:
			e.HandleAuctionResult(ctx, p)
		}
	}
}

func (e *Engine) halt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.halted = true
	e.log.Error("halting vaults engine",
		logging.String("collateral-asset", e.collateralAsset),
	)
}

// OnPriceQuote stores the latest oracle observation.
func (e *Engine) OnPriceQuote(q types.PriceQuote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latestQuote = &q
	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("price quote received", logging.String("quote", q.String()))
	}
}

// OnTick charges interest on the aggregate debt. Newly accrued interest
// is minted straight into the fee pool as protocol revenue. The per
// vault debt is untouched, it is derived lazily from the compounded
// ratio.
func (e *Engine) OnTick(ctx context.Context, t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentTime = t
	if e.halted {
		return
	}
	if e.interestState.LatestUpdate.IsZero() {
		e.interestState.LatestUpdate = t
		e.lastRecorded = t
		return
	}

	p, err := e.interestParams()
	if err != nil {
		e.log.Error("could not read interest parameters", logging.Error(err))
		return
	}
	res := interest.Charge(p, e.interestState, t)
	if !res.Accrued.IsZero() {
		feePool := e.collateral.FeePoolAccountID(e.debtAsset)
		if _, err := e.collateral.Mint(ctx, e.debtAsset, feePool, res.Accrued); err != nil {
			e.log.Error("could not mint accrued interest", logging.Error(err))
			return
		}
		e.totalAccruedFees.Add(e.totalAccruedFees, res.Accrued)
		metrics.InterestCounterAdd(res.Accrued.ToDecimal().InexactFloat64(), e.collateralAsset)
	}
	e.interestState = res.State

	if t.Sub(e.lastRecorded) >= p.RecordingPeriod {
		e.lastRecorded = t
		annual, _ := e.params.GetDecimal(netparams.VaultsInterestRate)
		e.broker.Send(events.NewAssetStateEvent(
			ctx, e.debtAsset,
			e.interestState.CompoundedRatio, annual,
			e.interestState.LatestUpdate,
			e.interestState.TotalDebt, e.totalAccruedFees,
		))
	}
}

func (e *Engine) interestParams() (interest.Params, error) {
	annual, err := e.params.GetDecimal(netparams.VaultsInterestRate)
	if err != nil {
		return interest.Params{}, err
	}
	charging, err := e.params.GetDuration(netparams.VaultsInterestChargingPeriod)
	if err != nil {
		return interest.Params{}, err
	}
	recording, err := e.params.GetDuration(netparams.VaultsInterestRecordingPeriod)
	if err != nil {
		return interest.Params{}, err
	}
	// scale the annual rate down to one charging period
	rate := annual.Mul(num.DecimalFromFloat(charging.Hours())).
		Div(num.DecimalFromInt64(hoursPerYear))
	return interest.Params{
		Rate:            rate,
		ChargingPeriod:  charging,
		RecordingPeriod: recording,
	}, nil
}

// OpenVault creates a vault for the party, locks the given collateral
// and mints the wanted debt plus the mint fee. Validation happens
// before any ledger mutation.
func (e *Engine) OpenVault(ctx context.Context, party string, collateralAmount, debtWanted *num.Uint) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return "", ErrEngineHalted
	}

	minDebt, err := e.params.GetUint(netparams.VaultsDebtMinimum)
	if err != nil {
		return "", err
	}
	if debtWanted.LT(minDebt) {
		return "", ErrVaultBelowMinimumDebt
	}
	feeRate, err := e.params.GetDecimal(netparams.VaultsMintFee)
	if err != nil {
		return "", err
	}
	costs := interest.CalculateDebtCosts(num.UintZero(), num.UintZero(), debtWanted, feeRate)
	if err := e.checkCollateralization(collateralAmount, costs.NewDebt); err != nil {
		return "", err
	}
	if err := e.checkDebtCeiling(costs.ToMint); err != nil {
		return "", err
	}

	e.seq++
	id := fmt.Sprintf("vault-%s-%d", e.collateralAsset, e.seq)
	custody, err := e.collateral.CreateVaultCollateralAccount(ctx, id, e.collateralAsset)
	if err != nil {
		return "", err
	}
	generalCollateral, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.collateralAsset)
	if err != nil {
		return "", err
	}
	if _, err := e.collateral.Transfer(ctx, &types.Transfer{
		FromAccount: generalCollateral,
		ToAccount:   custody,
		Amount:      collateralAmount.Clone(),
		Type:        types.TransferTypeCollateralDeposit,
		Reference:   id,
	}); err != nil {
		_ = e.collateral.RemoveAccount(custody)
		return "", err
	}

	if err := e.mintToParty(ctx, party, costs); err != nil {
		// unwind the deposit, the vault never existed
		if _, terr := e.collateral.Transfer(ctx, &types.Transfer{
			FromAccount: custody,
			ToAccount:   generalCollateral,
			Amount:      collateralAmount.Clone(),
			Type:        types.TransferTypeCollateralRelease,
			Reference:   id,
		}); terr != nil {
			e.log.Panic("could not unwind a collateral deposit",
				logging.String("vault-id", id), logging.Error(terr))
		}
		_ = e.collateral.RemoveAccount(custody)
		return "", err
	}

	v := newVault(id, party, custody)
	v.setCollateral(collateralAmount)
	v.updateSnapshot(costs.NewDebt, e.interestState.CompoundedRatio)
	e.vaults[id] = v
	e.interestState.TotalDebt.Add(e.interestState.TotalDebt, costs.ToMint)
	e.handleBalanceChange(ctx, num.UintZero(), num.UintZero(), v)

	e.log.Info("vault opened",
		logging.String("vault-id", id),
		logging.String("party", party),
		logging.BigUint("collateral", collateralAmount),
		logging.BigUint("debt", costs.NewDebt),
	)
	return id, nil
}

// AdjustVault changes a vault's balances: collateral in or out, debt
// repaid or additionally minted, in one operation.
func (e *Engine) AdjustVault(
	ctx context.Context,
	party, vaultID string,
	giveCollateral, wantCollateral, giveDebt, wantDebt *num.Uint,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return ErrEngineHalted
	}
	v, err := e.ownedVault(party, vaultID)
	if err != nil {
		return err
	}
	if v.phase != PhaseActive {
		return ErrVaultNotActive
	}

	newCollateral := num.UintZero().Add(v.collateral, giveCollateral)
	if newCollateral.LT(wantCollateral) {
		return ErrInsufficientCollateralization
	}
	newCollateral.Sub(newCollateral, wantCollateral)

	feeRate, err := e.params.GetDecimal(netparams.VaultsMintFee)
	if err != nil {
		return err
	}
	currentDebt := v.CurrentDebt(e.interestState.CompoundedRatio)
	costs := interest.CalculateDebtCosts(currentDebt, giveDebt, wantDebt, feeRate)
	// only a withdrawal can worsen the position, a pure deposit or
	// repayment always goes through even on an underwater vault
	if !wantCollateral.IsZero() || !wantDebt.IsZero() {
		if err := e.checkCollateralization(newCollateral, costs.NewDebt); err != nil {
			return err
		}
	}
	if !costs.ToMint.IsZero() {
		if err := e.checkDebtCeiling(costs.ToMint); err != nil {
			return err
		}
	}

	generalCollateral, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.collateralAsset)
	if err != nil {
		return err
	}
	transfers := make([]*types.Transfer, 0, 2)
	if !giveCollateral.IsZero() {
		transfers = append(transfers, &types.Transfer{
			FromAccount: generalCollateral,
			ToAccount:   v.collateralAccount,
			Amount:      giveCollateral.Clone(),
			Type:        types.TransferTypeCollateralDeposit,
			Reference:   vaultID,
		})
	}
	if !wantCollateral.IsZero() {
		transfers = append(transfers, &types.Transfer{
			FromAccount: v.collateralAccount,
			ToAccount:   generalCollateral,
			Amount:      wantCollateral.Clone(),
			Type:        types.TransferTypeCollateralRelease,
			Reference:   vaultID,
		})
	}
	if len(transfers) > 0 {
		if _, err := e.collateral.TransferBatch(ctx, transfers); err != nil {
			return err
		}
	}

	// reverses the collateral legs when a later debt operation fails,
	// so an error leaves the ledger exactly as it was
	unwindCollateral := func() {
		if len(transfers) == 0 {
			return
		}
		reversed := make([]*types.Transfer, 0, len(transfers))
		for _, tr := range transfers {
			ty := types.TransferTypeCollateralDeposit
			if tr.Type == types.TransferTypeCollateralDeposit {
				ty = types.TransferTypeCollateralRelease
			}
			reversed = append(reversed, &types.Transfer{
				FromAccount: tr.ToAccount,
				ToAccount:   tr.FromAccount,
				Amount:      tr.Amount.Clone(),
				Type:        ty,
				Reference:   vaultID,
			})
		}
		if _, err := e.collateral.TransferBatch(ctx, reversed); err != nil {
			e.log.Panic("could not unwind collateral transfers",
				logging.String("vault-id", vaultID), logging.Error(err))
		}
	}

	// repaid is what actually reduces debt, the surplus stays with the
	// party
	repaid := num.UintZero().Sub(giveDebt, costs.Surplus)
	if !repaid.IsZero() {
		generalDebt, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.debtAsset)
		if err != nil {
			unwindCollateral()
			return err
		}
		if _, err := e.collateral.Burn(ctx, e.debtAsset, generalDebt, repaid); err != nil {
			unwindCollateral()
			return err
		}
		e.interestState.TotalDebt.Sub(e.interestState.TotalDebt, repaid)
	}
	if !costs.ToMint.IsZero() {
		if err := e.mintToParty(ctx, party, costs); err != nil {
			if !repaid.IsZero() {
				// restore the repaid debt before returning the collateral
				generalDebt, gerr := e.collateral.CreatePartyGeneralAccount(ctx, party, e.debtAsset)
				if gerr == nil {
					_, gerr = e.collateral.Mint(ctx, e.debtAsset, generalDebt, repaid)
				}
				if gerr != nil {
					e.log.Panic("could not restore repaid debt",
						logging.String("vault-id", vaultID), logging.Error(gerr))
				}
				e.interestState.TotalDebt.Add(e.interestState.TotalDebt, repaid)
			}
			unwindCollateral()
			return err
		}
		e.interestState.TotalDebt.Add(e.interestState.TotalDebt, costs.ToMint)
	}

	oldNormalized, oldCollateral := v.NormalizedDebt(), v.Collateral()
	e.index.Remove(v)
	v.setCollateral(newCollateral)
	v.updateSnapshot(costs.NewDebt, e.interestState.CompoundedRatio)
	e.handleBalanceChange(ctx, oldNormalized, oldCollateral, v)
	return nil
}

// CloseVault settles and removes a vault. An Active vault must repay
// its full debt from the party's general account; a Liquidated one has
// none left. All remaining collateral is released to the party.
func (e *Engine) CloseVault(ctx context.Context, party, vaultID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return ErrEngineHalted
	}
	v, err := e.ownedVault(party, vaultID)
	if err != nil {
		return err
	}
	if v.phase != PhaseActive && v.phase != PhaseLiquidated {
		return ErrVaultNotCloseable
	}

	if v.phase == PhaseActive && !v.debtSnapshot.IsZero() {
		debt := v.CurrentDebt(e.interestState.CompoundedRatio)
		generalDebt, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.debtAsset)
		if err != nil {
			return err
		}
		if _, err := e.collateral.Burn(ctx, e.debtAsset, generalDebt, debt); err != nil {
			return err
		}
		e.interestState.TotalDebt.Sub(e.interestState.TotalDebt, debt)
		v.updateSnapshot(num.UintZero(), e.interestState.CompoundedRatio)
	}

	oldNormalized, oldCollateral := v.NormalizedDebt(), v.Collateral()
	if !v.collateral.IsZero() {
		generalCollateral, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.collateralAsset)
		if err != nil {
			return err
		}
		if _, err := e.collateral.Transfer(ctx, &types.Transfer{
			FromAccount: v.collateralAccount,
			ToAccount:   generalCollateral,
			Amount:      v.collateral.Clone(),
			Type:        types.TransferTypeCollateralRelease,
			Reference:   vaultID,
		}); err != nil {
			return err
		}
	}
	e.index.Remove(v)
	if err := v.close(); err != nil {
		return err
	}
	v.setCollateral(num.UintZero())
	e.handleBalanceChange(ctx, oldNormalized, oldCollateral, v)
	if err := e.collateral.RemoveAccount(v.collateralAccount); err != nil {
		e.log.Warn("could not remove the custody account",
			logging.String("vault-id", vaultID), logging.Error(err))
	}
	delete(e.vaults, vaultID)
	e.log.Info("vault closed", logging.String("vault-id", vaultID))
	return nil
}

// TransferVault hands the vault over to a new owner. State publication
// is muted while the handover is in flight so the outgoing holder never
// observes the new holder's position.
func (e *Engine) TransferVault(ctx context.Context, party, newOwner, vaultID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return ErrEngineHalted
	}
	v, err := e.ownedVault(party, vaultID)
	if err != nil {
		return err
	}
	v.muteObserver()
	v.attachObserver(newOwner)
	e.sendVaultState(ctx, v)
	e.log.Info("vault transferred",
		logging.String("vault-id", vaultID),
		logging.String("from", party),
		logging.String("to", newOwner),
	)
	return nil
}

// GetVault returns the vault with the given ID.
func (e *Engine) GetVault(vaultID string) (*Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vaults[vaultID]
	if !ok {
		return nil, ErrVaultNotFound
	}
	return v, nil
}

// LockQuote freezes the latest oracle quote for the next liquidation
// cycle.
func (e *Engine) LockQuote() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lockQuoteLocked()
}

func (e *Engine) lockQuoteLocked() error {
	if e.latestQuote == nil {
		return ErrNoPriceQuote
	}
	q := *e.latestQuote
	e.lockedQuote = &q
	return nil
}

// StartLiquidationCycle locks the current quote, collects every vault
// whose debt exceeds the maximum for its collateral at the locked
// price, moves their collateral into liquidation custody and hands the
// batch to the auction. A cycle with no quote or no breaching vault is
// a no-op. Only one cycle runs at a time.
func (e *Engine) StartLiquidationCycle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return ErrEngineHalted
	}
	if e.cycle != nil {
		return ErrLiquidationInProgress
	}
	if err := e.lockQuoteLocked(); err != nil {
		// expected on the first cycle after a start
		return nil
	}
	q := *e.lockedQuote

	margin, err := e.params.GetDecimal(netparams.VaultsLiquidationMargin)
	if err != nil {
		return err
	}
	padding, err := e.params.GetDecimal(netparams.VaultsLiquidationPadding)
	if err != nil {
		return err
	}

	// worst collateralized first, stop at the first healthy vault
	breaching := []*Vault{}
	e.index.Ascend(func(v *Vault) bool {
		debt := v.CurrentDebt(e.interestState.CompoundedRatio)
		if debt.LTE(maxDebtFor(v.collateral, q.Price, margin, padding)) {
			return false
		}
		breaching = append(breaching, v)
		return true
	})
	if len(breaching) == 0 {
		return nil
	}

	c := &cycle{
		lockedPrice:     q.Price,
		totalDebt:       num.UintZero(),
		totalCollateral: num.UintZero(),
		vaults:          map[string]*Vault{},
	}
	liqAccount := e.collateral.LiquidationAccountID(e.collateralAsset)
	transfers := make([]*types.Transfer, 0, len(breaching))
	for _, v := range breaching {
		e.index.Remove(v)
		if err := v.markLiquidating(e.interestState.CompoundedRatio); err != nil {
			e.log.Panic("active vault refused liquidation mark",
				logging.String("vault-id", v.id), logging.Error(err))
		}
		c.totalDebt.Add(c.totalDebt, v.debtAtLiquidation)
		c.totalCollateral.Add(c.totalCollateral, v.collateral)
		e.totalCollateral.Sub(e.totalCollateral, v.collateral)
		c.vaults[v.id] = v
		// prepend, the planner wants best to worst
		c.affected = append([]AffectedVault{{
			ID:                v.id,
			Collateral:        v.Collateral(),
			DebtAtLiquidation: v.DebtAtLiquidation(),
		}}, c.affected...)
		transfers = append(transfers, &types.Transfer{
			FromAccount: v.collateralAccount,
			ToAccount:   liqAccount,
			Amount:      v.Collateral(),
			Type:        types.TransferTypeLiquidationCustody,
			Reference:   v.id,
		})
		e.sendVaultState(ctx, v)
	}
	if _, err := e.collateral.TransferBatch(ctx, transfers); err != nil {
		// nothing moved, put everyone back
		e.abortCycleLocked(ctx, c)
		return err
	}

	proceeds, err := e.auction.Deposit(ctx, types.AuctionDeposit{
		CollateralAccount: liqAccount,
		Collateral:        c.totalCollateral.Clone(),
		Goal:              c.totalDebt.Clone(),
		Price:             c.lockedPrice,
	})
	if err != nil {
		if rerr := e.returnCustody(ctx, c); rerr != nil {
			e.log.Panic("could not return custodied collateral", logging.Error(rerr))
		}
		e.abortCycleLocked(ctx, c)
		return err
	}
	c.proceeds = proceeds
	e.cycle = c
	e.sendMetrics(ctx)
	e.log.Info("liquidation cycle started",
		logging.Int("vaults", len(breaching)),
		logging.BigUint("total-debt", c.totalDebt),
		logging.BigUint("total-collateral", c.totalCollateral),
		logging.Decimal("locked-price", c.lockedPrice),
	)
	return nil
}

// HandleAuctionResult settles the in-flight cycle. A nil result means
// the auction found no buyer and every vault goes back to Active with
// its collateral and debt intact.
func (e *Engine) HandleAuctionResult(ctx context.Context, proceeds *types.AuctionProceeds) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.cycle
	if c == nil {
		e.log.Warn("auction result received with no cycle in flight")
		return
	}
	e.cycle = nil
	e.lockedQuote = nil

	if proceeds == nil {
		if err := e.returnCustody(ctx, c); err != nil {
			e.log.Panic("could not return custodied collateral", logging.Error(err))
		}
		e.abortCycleLocked(ctx, c)
		e.log.Info("liquidation cycle aborted, no buyer found")
		return
	}
	e.distributeProceeds(ctx, c, proceeds)
}

// distributeProceeds runs the planner over the auction outcome and
// applies the plan: one atomic transfer batch for all payouts, burns
// against recovered proceeds, reinstated vaults back into the index,
// overage and shortfall reported to the reserve in the background.
func (e *Engine) distributeProceeds(ctx context.Context, c *cycle, proceeds *types.AuctionProceeds) {
	penaltyRate, err := e.params.GetDecimal(netparams.VaultsLiquidationPenalty)
	if err != nil {
		e.log.Error("could not read the penalty rate", logging.Error(err))
		penaltyRate = num.DecimalZero()
	}
	for i := range c.affected {
		v := c.vaults[c.affected[i].ID]
		c.affected[i].CurrentDebt = v.CurrentDebt(e.interestState.CompoundedRatio)
	}
	plan := CalculateDistributionPlan(PlanInputs{
		MintedProceeds:     proceeds.Minted,
		CollateralProceeds: proceeds.Collateral,
		TotalDebt:          c.totalDebt,
		TotalCollateral:    c.totalCollateral,
		Price:              c.lockedPrice,
		PenaltyRate:        penaltyRate,
		Vaults:             c.affected,
	})

	liqCollateral := e.collateral.LiquidationAccountID(e.collateralAsset)
	liqDebt := e.collateral.LiquidationAccountID(e.debtAsset)
	reserveAccount := e.collateral.ReserveAccountID(e.collateralAsset)

	// the sold collateral left the system to the auction buyers, the
	// debt asset they paid enters it
	if !plan.CollateralSold.IsZero() {
		if _, err := e.collateral.Burn(ctx, e.collateralAsset, liqCollateral, plan.CollateralSold); err != nil {
			e.log.Panic("could not settle sold collateral", logging.Error(err))
		}
	}
	if !proceeds.Minted.IsZero() {
		if _, err := e.collateral.Mint(ctx, e.debtAsset, liqDebt, proceeds.Minted); err != nil {
			e.log.Panic("could not settle auction proceeds", logging.Error(err))
		}
	}

	transfers := []*types.Transfer{}
	payouts := map[string]*VaultDistribution{}
	for _, t := range plan.Transfers {
		payouts[t.VaultID] = t
		v := c.vaults[t.VaultID]
		if !t.Collateral.IsZero() {
			transfers = append(transfers, &types.Transfer{
				FromAccount: liqCollateral,
				ToAccount:   v.collateralAccount,
				Amount:      t.Collateral.Clone(),
				Type:        types.TransferTypeLiquidationPayout,
				Reference:   t.VaultID,
			})
		}
		if !t.Minted.IsZero() {
			owner, err := e.collateral.CreatePartyGeneralAccount(ctx, v.owner, e.debtAsset)
			if err != nil {
				e.log.Panic("could not resolve the owner account", logging.Error(err))
			}
			transfers = append(transfers, &types.Transfer{
				FromAccount: liqDebt,
				ToAccount:   owner,
				Amount:      t.Minted.Clone(),
				Type:        types.TransferTypeLiquidationPayout,
				Reference:   t.VaultID,
			})
		}
	}
	if !plan.CollateralForReserve.IsZero() {
		transfers = append(transfers, &types.Transfer{
			FromAccount: liqCollateral,
			ToAccount:   reserveAccount,
			Amount:      plan.CollateralForReserve.Clone(),
			Type:        types.TransferTypeReserve,
		})
	}
	if !plan.MintedForReserve.IsZero() {
		transfers = append(transfers, &types.Transfer{
			FromAccount: liqDebt,
			ToAccount:   e.collateral.ReserveAccountID(e.debtAsset),
			Amount:      plan.MintedForReserve.Clone(),
			Type:        types.TransferTypeReserve,
		})
	}
	if len(transfers) > 0 {
		if _, err := e.collateral.TransferBatch(ctx, transfers); err != nil {
			e.log.Panic("could not apply the distribution plan", logging.Error(err))
		}
	}
	if !plan.DebtToBurn.IsZero() {
		if _, err := e.collateral.Burn(ctx, e.debtAsset, liqDebt, plan.DebtToBurn); err != nil {
			e.log.Panic("could not burn recovered debt", logging.Error(err))
		}
	}

	// settle the vaults themselves
	for _, av := range c.affected {
		v := c.vaults[av.ID]
		p := payouts[av.ID]
		if p != nil && p.Reinstate {
			if err := v.abortLiquidation(av.DebtAtLiquidation, p.Collateral, e.interestState.CompoundedRatio); err != nil {
				e.log.Panic("could not reinstate vault",
					logging.String("vault-id", v.id), logging.Error(err))
			}
			e.index.Add(v)
			e.totalCollateral.Add(e.totalCollateral, v.collateral)
			e.liquidationsAborted++
			metrics.LiquidationCounterInc(e.collateralAsset, "reinstated")
		} else {
			returned := num.UintZero()
			if p != nil {
				returned = p.Collateral.Clone()
			}
			if err := v.markLiquidated(returned); err != nil {
				e.log.Panic("could not settle liquidated vault",
					logging.String("vault-id", v.id), logging.Error(err))
			}
			e.liquidationsCompleted++
			e.numLiquidated++
			metrics.LiquidationCounterInc(e.collateralAsset, "completed")
		}
		e.sendVaultState(ctx, v)
	}

	// the cycle's debt leaves the books as burned or shortfall, the
	// reinstated share comes back, and interest accrued on stale marks
	// is erased rather than attributed
	removed := num.Sum(plan.DebtToBurn, plan.Shortfall, plan.PhantomDebt)
	e.interestState.TotalDebt.Sub(e.interestState.TotalDebt, num.Min(removed, e.interestState.TotalDebt))
	e.interestState.TotalDebt.Add(e.interestState.TotalDebt, plan.ReinstatedDebt)

	e.totalProceedsReceived.Add(e.totalProceedsReceived, proceeds.Minted)
	e.totalOverage.Add(e.totalOverage, plan.MintedForReserve)
	e.totalShortfall.Add(e.totalShortfall, plan.Shortfall)
	e.totalPenaltyCharged.Add(e.totalPenaltyCharged, plan.TotalPenalty)
	e.totalCollateralSold.Add(e.totalCollateralSold, plan.CollateralSold)

	if e.reserve != nil {
		e.reserve.ReportShortfall(e.debtAsset, plan.Shortfall)
		e.reserve.ReportOverage(e.debtAsset, plan.MintedForReserve)
	}
	reinstated := 0
	for _, t := range plan.Transfers {
		if t.Reinstate {
			reinstated++
		}
	}
	e.sendMetrics(ctx)
	e.log.Info("liquidation cycle settled",
		logging.BigUint("burned", plan.DebtToBurn),
		logging.BigUint("shortfall", plan.Shortfall),
		logging.BigUint("penalty", plan.TotalPenalty),
		logging.Int("reinstated", reinstated),
	)
}

// returnCustody moves the whole cycle batch back from liquidation
// custody to the vaults.
func (e *Engine) returnCustody(ctx context.Context, c *cycle) error {
	liqAccount := e.collateral.LiquidationAccountID(e.collateralAsset)
	transfers := make([]*types.Transfer, 0, len(c.vaults))
	for _, av := range c.affected {
		v := c.vaults[av.ID]
		transfers = append(transfers, &types.Transfer{
			FromAccount: liqAccount,
			ToAccount:   v.collateralAccount,
			Amount:      av.Collateral.Clone(),
			Type:        types.TransferTypeLiquidationPayout,
			Reference:   v.id,
		})
	}
	_, err := e.collateral.TransferBatch(ctx, transfers)
	return err
}

// abortCycleLocked returns every vault of the cycle to Active with debt
// and collateral as they were at the mark.
func (e *Engine) abortCycleLocked(ctx context.Context, c *cycle) {
	for _, av := range c.affected {
		v := c.vaults[av.ID]
		if err := v.abortLiquidation(av.DebtAtLiquidation, av.Collateral, e.interestState.CompoundedRatio); err != nil {
			e.log.Panic("could not abort liquidation",
				logging.String("vault-id", v.id), logging.Error(err))
		}
		e.index.Add(v)
		e.totalCollateral.Add(e.totalCollateral, v.collateral)
		e.liquidationsAborted++
		metrics.LiquidationCounterInc(e.collateralAsset, "aborted")
		e.sendVaultState(ctx, v)
	}
	e.sendMetrics(ctx)
}

func (e *Engine) mintToParty(ctx context.Context, party string, costs interest.DebtCosts) error {
	general, err := e.collateral.CreatePartyGeneralAccount(ctx, party, e.debtAsset)
	if err != nil {
		return err
	}
	if _, err := e.collateral.Mint(ctx, e.debtAsset, general, costs.ToMint); err != nil {
		return err
	}
	if costs.Fee.IsZero() {
		return nil
	}
	if _, err := e.collateral.Transfer(ctx, &types.Transfer{
		FromAccount: general,
		ToAccount:   e.collateral.FeePoolAccountID(e.debtAsset),
		Amount:      costs.Fee.Clone(),
		Type:        types.TransferTypeMintFee,
	}); err != nil {
		// roll the mint back, the position is left untouched
		if _, berr := e.collateral.Burn(ctx, e.debtAsset, general, costs.ToMint); berr != nil {
			e.log.Panic("could not roll back a mint", logging.Error(berr))
		}
		return err
	}
	return nil
}

func (e *Engine) checkCollateralization(collateral, debt *num.Uint) error {
	if debt.IsZero() {
		return nil
	}
	if e.latestQuote == nil {
		return ErrNoPriceQuote
	}
	margin, err := e.params.GetDecimal(netparams.VaultsLiquidationMargin)
	if err != nil {
		return err
	}
	padding, err := e.params.GetDecimal(netparams.VaultsLiquidationPadding)
	if err != nil {
		return err
	}
	if debt.GT(maxDebtFor(collateral, e.latestQuote.Price, margin, padding)) {
		return ErrInsufficientCollateralization
	}
	return nil
}

func (e *Engine) checkDebtCeiling(toMint *num.Uint) error {
	ceiling, err := e.params.GetUint(netparams.VaultsDebtCeiling)
	if err != nil {
		return err
	}
	if num.UintZero().Add(e.interestState.TotalDebt, toMint).GT(ceiling) {
		return ErrDebtCeilingExceeded
	}
	return nil
}

func (e *Engine) ownedVault(party, vaultID string) (*Vault, error) {
	v, ok := e.vaults[vaultID]
	if !ok {
		return nil, ErrVaultNotFound
	}
	if v.owner != party {
		return nil, ErrNotVaultOwner
	}
	return v, nil
}

// handleBalanceChange is the single synchronization point after a
// vault's balances changed: the vault was removed from the index before
// the mutation, it is re-inserted here, the aggregates follow, and the
// new state is published. Always called within the operation that
// changed the balance, so the index is never observably stale.
func (e *Engine) handleBalanceChange(ctx context.Context, oldNormalizedDebt, oldCollateral *num.Uint, v *Vault) {
	if v.phase == PhaseActive {
		// a debt free vault cannot breach, it has no place in the risk
		// index where it would compare equal to everything
		if !v.debtSnapshot.IsZero() {
			e.index.Add(v)
		}
		e.totalCollateral.Sub(e.totalCollateral, oldCollateral)
		e.totalCollateral.Add(e.totalCollateral, v.collateral)
	} else {
		e.totalCollateral.Sub(e.totalCollateral, num.Min(oldCollateral, e.totalCollateral))
	}
	if e.log.IsDebug() {
		e.log.Debug("vault balances changed",
			logging.String("vault-id", v.id),
			logging.BigUint("old-normalized-debt", oldNormalizedDebt),
			logging.BigUint("old-collateral", oldCollateral),
			logging.BigUint("collateral", v.collateral),
		)
	}
	metrics.TotalDebtGaugeSet(e.interestState.TotalDebt.ToDecimal().InexactFloat64(), e.collateralAsset)
	metrics.TotalCollateralGaugeSet(e.totalCollateral.ToDecimal().InexactFloat64(), e.collateralAsset)
	e.sendVaultState(ctx, v)
}

func (e *Engine) sendVaultState(ctx context.Context, v *Vault) {
	if v.observerMuted {
		return
	}
	e.broker.Send(events.NewVaultStateEvent(
		ctx, v.id, v.owner, v.phase.String(),
		v.collateral, v.debtSnapshot, v.interestSnapshot,
	))
}

func (e *Engine) sendMetrics(ctx context.Context) {
	liquidating := uint64(0)
	liquidatingCollateral, liquidatingDebt := num.UintZero(), num.UintZero()
	if e.cycle != nil {
		liquidating = uint64(len(e.cycle.vaults))
		liquidatingCollateral = e.cycle.totalCollateral.Clone()
		liquidatingDebt = e.cycle.totalDebt.Clone()
	}
	e.broker.Send(events.NewVaultMetricsEvent(
		ctx, e.collateralAsset,
		uint64(e.index.Len()),
		e.totalCollateral, e.interestState.TotalDebt,
		liquidating, liquidatingCollateral, liquidatingDebt,
		e.numLiquidated,
		e.totalProceedsReceived, e.totalOverage, e.totalShortfall, e.totalPenaltyCharged,
	))
}

// maxDebtFor is the debt cap for the collateral at the given price:
// floor(collateral * price / (margin + padding)).
func maxDebtFor(collateral *num.Uint, price, margin, padding num.Decimal) *num.Uint {
	bound := margin.Add(padding)
	if bound.IsZero() {
		return num.UintZero()
	}
	m, _ := num.UintFromDecimal(collateral.ToDecimal().Mul(price).Div(bound))
	return m
}
