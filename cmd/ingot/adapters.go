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

package main

import (
	"context"
	"time"

	"code.ingotprotocol.io/ingot/core/types"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"
)

// devPriceFeed emits the same quote on a fixed interval. It stands in
// for a real oracle connection in development deployments.
type devPriceFeed struct {
	log      *logging.Logger
	price    num.Decimal
	interval time.Duration
}

func newDevPriceFeed(log *logging.Logger, price num.Decimal, interval time.Duration) *devPriceFeed {
	return &devPriceFeed{
		log:      log.Named("dev-price-feed"),
		price:    price,
		interval: interval,
	}
}

func (f *devPriceFeed) Subscribe(ctx context.Context, asset string) (<-chan types.PriceQuote, error) {
	out := make(chan types.PriceQuote, 1)
	out <- types.PriceQuote{Price: f.price, Time: time.Now()}
	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case out <- types.PriceQuote{Price: f.price, Time: t}:
				default:
					// consumer is behind, skip the quote rather than block
				}
			}
		}
	}()
	f.log.Info("development price feed started",
		logging.String("asset", asset),
		logging.Decimal("price", f.price),
	)
	return out, nil
}

// loggedAuction is the stand-in when no auction venue is configured.
// Every batch comes back unsold, so liquidation cycles abort and the
// collateral returns to the vaults.
type loggedAuction struct {
	log *logging.Logger
}

func newLoggedAuction(log *logging.Logger) *loggedAuction {
	return &loggedAuction{log: log.Named("auction-client")}
}

func (a *loggedAuction) Deposit(_ context.Context, deposit types.AuctionDeposit) (<-chan *types.AuctionProceeds, error) {
	a.log.Warn("no auction venue configured, the batch will come back unsold",
		logging.BigUint("collateral", deposit.Collateral),
		logging.BigUint("goal", deposit.Goal),
		logging.Decimal("price", deposit.Price),
	)
	out := make(chan *types.AuctionProceeds, 1)
	out <- nil
	return out, nil
}

// loggedReserve records overage and shortfall reports in the log when
// no reserve endpoint is configured.
type loggedReserve struct {
	log *logging.Logger
}

func newLoggedReserve(log *logging.Logger) *loggedReserve {
	return &loggedReserve{log: log.Named("reserve-client")}
}

func (r *loggedReserve) ReportShortfall(_ context.Context, asset string, amount *num.Uint) error {
	r.log.Info("shortfall reported",
		logging.String("asset", asset),
		logging.BigUint("amount", amount),
	)
	return nil
}

func (r *loggedReserve) ReportOverage(_ context.Context, asset string, amount *num.Uint) error {
	r.log.Info("overage reported",
		logging.String("asset", asset),
		logging.BigUint("amount", amount),
	)
	return nil
}
