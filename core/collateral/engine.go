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

package collateral

import (
	"context"
	"fmt"
	"sort"
	"time"

	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/core/types"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/pkg/errors"
)

var (
	// ErrAccountDoesNotExist signals that an account referenced by a
	// transfer has never been created.
	ErrAccountDoesNotExist = errors.New("account does not exist")
	// ErrAccountAlreadyExists signals a second create for the same owner,
	// asset and type.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrInsufficientFunds signals the source account cannot cover the
	// transfer amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidTransfer signals a nil or zero-amount transfer.
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// systemOwner is the owner of the asset-scoped system accounts.
const systemOwner = "*"

// Broker send events.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.ingotprotocol.io/ingot/core/collateral Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the ledger of the protocol. It owns every account, applies
// transfers between them and is the only component allowed to create or
// destroy units of an asset.
type Engine struct {
	log *logging.Logger
	cfg Config

	broker      Broker
	currentTime time.Time

	accs map[string]*types.Account
	// per party, all their account IDs
	partiesAccs map[string][]string
	// units created minus units destroyed, per asset
	issued map[string]*num.Uint
}

// New instantiates a new collateral engine.
func New(log *logging.Logger, conf Config, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())
	return &Engine{
		log:         log,
		cfg:         conf,
		broker:      broker,
		accs:        map[string]*types.Account{},
		partiesAccs: map[string][]string{},
		issued:      map[string]*num.Uint{},
	}
}

// ReloadConf updates the internal configuration of the engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

// OnTick keeps the engine's notion of time current, ledger entries are
// stamped with it.
func (e *Engine) OnTick(_ context.Context, t time.Time) {
	e.currentTime = t
}

func accountID(asset, owner string, ty types.AccountType) string {
	return fmt.Sprintf("%s!%s!%s", asset, owner, ty.String())
}

// EnableAsset creates the system accounts for an asset: the external
// account units are issued against, the liquidation custody account, the
// reserve and the fee pool.
func (e *Engine) EnableAsset(ctx context.Context, asset string) error {
	if _, ok := e.issued[asset]; ok {
		return ErrAccountAlreadyExists
	}
	e.issued[asset] = num.UintZero()
	for _, ty := range []types.AccountType{
		types.AccountTypeExternal,
		types.AccountTypeLiquidation,
		types.AccountTypeReserve,
		types.AccountTypeFeePool,
	} {
		if _, err := e.createAccount(ctx, systemOwner, asset, ty); err != nil {
			return err
		}
	}
	e.log.Info("new asset enabled", logging.String("asset", asset))
	return nil
}

// AssetEnabled returns whether system accounts exist for the asset.
func (e *Engine) AssetEnabled(asset string) bool {
	_, ok := e.issued[asset]
	return ok
}

// CreatePartyGeneralAccount creates the top level account for a party
// for the given asset, returning its ID. Idempotent.
func (e *Engine) CreatePartyGeneralAccount(ctx context.Context, party, asset string) (string, error) {
	id := accountID(asset, party, types.AccountTypeGeneral)
	if _, ok := e.accs[id]; ok {
		return id, nil
	}
	return e.createAccount(ctx, party, asset, types.AccountTypeGeneral)
}

// CreateVaultCollateralAccount creates the custody account of one vault.
// The owner is the vault ID, never the party, so collateral is out of
// reach of the holder until released by the engine.
func (e *Engine) CreateVaultCollateralAccount(ctx context.Context, vaultID, asset string) (string, error) {
	id := accountID(asset, vaultID, types.AccountTypeVaultCollateral)
	if _, ok := e.accs[id]; ok {
		return "", ErrAccountAlreadyExists
	}
	return e.createAccount(ctx, vaultID, asset, types.AccountTypeVaultCollateral)
}

func (e *Engine) createAccount(ctx context.Context, owner, asset string, ty types.AccountType) (string, error) {
	id := accountID(asset, owner, ty)
	if _, ok := e.accs[id]; ok {
		return "", ErrAccountAlreadyExists
	}
	acc := &types.Account{
		ID:      id,
		Owner:   owner,
		Asset:   asset,
		Balance: num.UintZero(),
		Type:    ty,
	}
	e.accs[id] = acc
	e.partiesAccs[owner] = append(e.partiesAccs[owner], id)
	e.broker.Send(events.NewAccountEvent(ctx, *acc))
	if e.log.IsDebug() {
		e.log.Debug("account created", logging.String("account-id", id))
	}
	return id, nil
}

// RemoveAccount deletes an emptied account. Balances must have been
// transferred out first.
func (e *Engine) RemoveAccount(id string) error {
	acc, ok := e.accs[id]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if !acc.Balance.IsZero() {
		return ErrInsufficientFunds
	}
	delete(e.accs, id)
	ids := e.partiesAccs[acc.Owner]
	for i, aid := range ids {
		if aid == id {
			e.partiesAccs[acc.Owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// GetAccountByID returns a clone of the account.
func (e *Engine) GetAccountByID(id string) (*types.Account, error) {
	acc, ok := e.accs[id]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, id)
	}
	return acc.Clone(), nil
}

// GetPartyGeneralAccount returns a clone of a party's general account.
func (e *Engine) GetPartyGeneralAccount(party, asset string) (*types.Account, error) {
	return e.GetAccountByID(accountID(asset, party, types.AccountTypeGeneral))
}

// LiquidationAccountID returns the ID of the cycle custody account.
func (e *Engine) LiquidationAccountID(asset string) string {
	return accountID(asset, systemOwner, types.AccountTypeLiquidation)
}

// ReserveAccountID returns the ID of the reserve account.
func (e *Engine) ReserveAccountID(asset string) string {
	return accountID(asset, systemOwner, types.AccountTypeReserve)
}

// FeePoolAccountID returns the ID of the protocol revenue account.
func (e *Engine) FeePoolAccountID(asset string) string {
	return accountID(asset, systemOwner, types.AccountTypeFeePool)
}

func (e *Engine) externalAccountID(asset string) string {
	return accountID(asset, systemOwner, types.AccountTypeExternal)
}

// IssuedAmount returns units created minus destroyed for the asset.
func (e *Engine) IssuedAmount(asset string) *num.Uint {
	iss, ok := e.issued[asset]
	if !ok {
		return num.UintZero()
	}
	return iss.Clone()
}

// Deposit credits a party's general account from the outside world.
func (e *Engine) Deposit(ctx context.Context, party, asset string, amount *num.Uint) (*types.LedgerMovement, error) {
	genID, err := e.CreatePartyGeneralAccount(ctx, party, asset)
	if err != nil {
		return nil, err
	}
	ext, ok := e.accs[e.externalAccountID(asset)]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, asset)
	}
	// external first holds the incoming funds, then the transfer below
	// keeps the ledger double-sided
	ext.Balance.AddSum(amount)
	return e.applyTransfer(ctx, &types.Transfer{
		FromAccount: ext.ID,
		ToAccount:   genID,
		Amount:      amount.Clone(),
		Type:        types.TransferTypeDeposit,
	})
}

// Withdraw debits a party's general account back to the outside world.
func (e *Engine) Withdraw(ctx context.Context, party, asset string, amount *num.Uint) (*types.LedgerMovement, error) {
	gen, ok := e.accs[accountID(asset, party, types.AccountTypeGeneral)]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, party)
	}
	mv, err := e.applyTransfer(ctx, &types.Transfer{
		FromAccount: gen.ID,
		ToAccount:   e.externalAccountID(asset),
		Amount:      amount.Clone(),
		Type:        types.TransferTypeWithdraw,
	})
	if err != nil {
		return nil, err
	}
	// external funds left the system
	ext := e.accs[e.externalAccountID(asset)]
	ext.Balance.Sub(ext.Balance, amount)
	return mv, nil
}

// Transfer moves an amount between two existing accounts, fails without
// mutation if the source cannot cover it.
func (e *Engine) Transfer(ctx context.Context, transfer *types.Transfer) (*types.LedgerMovement, error) {
	if err := e.validateTransfer(transfer, nil); err != nil {
		return nil, err
	}
	return e.applyTransfer(ctx, transfer)
}

// TransferBatch applies all transfers or none. Each transfer is checked
// against the balances left by the previous legs, so a batch can safely
// chain moves through an intermediate account.
func (e *Engine) TransferBatch(ctx context.Context, transfers []*types.Transfer) ([]*types.LedgerMovement, error) {
	// working copy of every balance the batch touches
	working := map[string]*num.Uint{}
	for i, t := range transfers {
		if err := e.validateTransfer(t, working); err != nil {
			return nil, errors.Wrapf(err, "transfer %d", i)
		}
		from := working[t.FromAccount]
		from.Sub(from, t.Amount)
		working[t.ToAccount].AddSum(t.Amount)
	}

	// all legs validated, now commit
	movements := make([]*types.LedgerMovement, 0, len(transfers))
	for _, t := range transfers {
		mv, err := e.applyTransfer(ctx, t)
		if err != nil {
			// cannot happen, balances were validated above
			e.log.Panic("transfer failed after validation",
				logging.String("from", t.FromAccount),
				logging.String("to", t.ToAccount),
				logging.Error(err),
			)
		}
		movements = append(movements, mv)
	}
	return movements, nil
}

func (e *Engine) validateTransfer(t *types.Transfer, working map[string]*num.Uint) error {
	if t == nil || t.Amount == nil || t.Amount.IsZero() {
		return ErrInvalidTransfer
	}
	from, ok := e.accs[t.FromAccount]
	if !ok {
		return errors.Wrap(ErrAccountDoesNotExist, t.FromAccount)
	}
	to, ok := e.accs[t.ToAccount]
	if !ok {
		return errors.Wrap(ErrAccountDoesNotExist, t.ToAccount)
	}
	balance := from.Balance
	if working != nil {
		if b, ok := working[from.ID]; ok {
			balance = b
		} else {
			working[from.ID] = from.Balance.Clone()
			balance = working[from.ID]
		}
		if _, ok := working[to.ID]; !ok {
			working[to.ID] = to.Balance.Clone()
		}
	}
	if balance.LT(t.Amount) {
		return errors.Wrap(ErrInsufficientFunds, t.FromAccount)
	}
	return nil
}

func (e *Engine) applyTransfer(ctx context.Context, t *types.Transfer) (*types.LedgerMovement, error) {
	from, ok := e.accs[t.FromAccount]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, t.FromAccount)
	}
	to, ok := e.accs[t.ToAccount]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, t.ToAccount)
	}
	if from.Balance.LT(t.Amount) {
		return nil, errors.Wrap(ErrInsufficientFunds, t.FromAccount)
	}
	from.Balance.Sub(from.Balance, t.Amount)
	to.Balance.AddSum(t.Amount)

	mv := &types.LedgerMovement{
		Entries: []*types.LedgerEntry{
			{
				FromAccount:        from.ID,
				ToAccount:          to.ID,
				Amount:             t.Amount.Clone(),
				Type:               t.Type,
				Timestamp:          e.currentTime.UnixNano(),
				FromAccountBalance: from.Balance.Clone(),
				ToAccountBalance:   to.Balance.Clone(),
			},
		},
	}
	e.broker.SendBatch([]events.Event{
		events.NewAccountEvent(ctx, *from),
		events.NewAccountEvent(ctx, *to),
	})
	e.broker.Send(events.NewLedgerMovements(ctx, []*types.LedgerMovement{mv}))
	return mv, nil
}

// Mint creates new units of the asset directly into the target account.
// The caller is responsible for the debt ceiling check.
func (e *Engine) Mint(ctx context.Context, asset, toAccount string, amount *num.Uint) (*types.LedgerMovement, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrInvalidTransfer
	}
	iss, ok := e.issued[asset]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, asset)
	}
	ext, ok := e.accs[e.externalAccountID(asset)]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, asset)
	}
	ext.Balance.AddSum(amount)
	mv, err := e.applyTransfer(ctx, &types.Transfer{
		FromAccount: ext.ID,
		ToAccount:   toAccount,
		Amount:      amount.Clone(),
		Type:        types.TransferTypeMint,
	})
	if err != nil {
		ext.Balance.Sub(ext.Balance, amount)
		return nil, err
	}
	iss.AddSum(amount)
	return mv, nil
}

// Burn destroys units of the asset held by the source account.
func (e *Engine) Burn(ctx context.Context, asset, fromAccount string, amount *num.Uint) (*types.LedgerMovement, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrInvalidTransfer
	}
	iss, ok := e.issued[asset]
	if !ok {
		return nil, errors.Wrap(ErrAccountDoesNotExist, asset)
	}
	mv, err := e.applyTransfer(ctx, &types.Transfer{
		FromAccount: fromAccount,
		ToAccount:   e.externalAccountID(asset),
		Amount:      amount.Clone(),
		Type:        types.TransferTypeBurn,
	})
	if err != nil {
		return nil, err
	}
	ext := e.accs[e.externalAccountID(asset)]
	ext.Balance.Sub(ext.Balance, amount)
	iss.Sub(iss, amount)
	return mv, nil
}

// GetPartyAccounts returns clones of all accounts owned by a party,
// ordered by ID for determinism.
func (e *Engine) GetPartyAccounts(party string) []*types.Account {
	ids := e.partiesAccs[party]
	out := make([]*types.Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := e.accs[id]; ok {
			out = append(out, acc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
