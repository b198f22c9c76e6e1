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

	"code.ingotprotocol.io/ingot/config"
	"code.ingotprotocol.io/ingot/core/broker"
	"code.ingotprotocol.io/ingot/core/collateral"
	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/core/metrics"
	"code.ingotprotocol.io/ingot/core/netparams"
	"code.ingotprotocol.io/ingot/core/vaults"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type RunCmd struct {
	ctx context.Context

	Home            string `description:"Directory holding config.toml"                              long:"home"             short:"d"`
	Env             string `description:"Logger environment, one of dev or prod"                    long:"env"`
	DebtAsset       string `description:"Symbol of the debt asset minted against collateral"        long:"debt-asset"`
	CollateralAsset string `description:"Symbol of the collateral asset"                            long:"collateral-asset"`
	OraclePrice     string `description:"Fixed quote emitted by the development price feed"         long:"oracle-price"`
}

func (cmd *RunCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromEnv(cmd.Env)
	defer log.AtExit()

	price, err := num.DecimalFromString(cmd.OraclePrice)
	if err != nil {
		return errors.Wrap(err, "invalid oracle price")
	}

	ctx, cancel := context.WithCancel(cmd.ctx)
	defer cancel()

	watcher, err := config.NewFromFile(ctx, log, cmd.Home)
	if err != nil {
		return errors.Wrap(err, "could not load the configuration")
	}
	cfg := watcher.Get()

	if bool(cfg.Metrics.Enabled) {
		metrics.Start(cfg.Metrics)
	}

	bro := broker.New(ctx, log, cfg.Broker)
	col := collateral.New(log, cfg.Collateral, bro)
	for _, asset := range []string{cmd.DebtAsset, cmd.CollateralAsset} {
		if err := col.EnableAsset(ctx, asset); err != nil {
			return errors.Wrapf(err, "could not enable asset %s", asset)
		}
	}

	params := netparams.New(log, cfg.NetworkParameters, bro)
	if err := params.UponGenesis(ctx, nil); err != nil {
		return errors.Wrap(err, "could not initialise network parameters")
	}

	reserve := vaults.NewReserveReporter(log, cfg.Vaults, newLoggedReserve(log))
	reserve.Start(ctx)

	engine := vaults.New(log, cfg.Vaults, col,
		newDevPriceFeed(log, price, 5*time.Second),
		newLoggedAuction(log),
		params, bro, reserve,
		cmd.DebtAsset, cmd.CollateralAsset,
	)

	watcher.OnConfigUpdate(
		func(c config.Config) { engine.ReloadConf(c.Vaults) },
		func(c config.Config) { col.ReloadConf(c.Collateral) },
	)

	// no chain here, flush config changes and parameter watchers on
	// wall clock ticks
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				bro.Send(events.NewTime(ctx, t))
				watcher.OnTimeUpdate(ctx, t)
				params.OnChainTimeUpdate(ctx, t)
			}
		}
	}()

	log.Info("ingot node started",
		logging.String("debt-asset", cmd.DebtAsset),
		logging.String("collateral-asset", cmd.CollateralAsset),
	)

	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("ingot node stopped")
	return nil
}

var runCmd RunCmd

func Run(ctx context.Context, parser *flags.Parser) error {
	runCmd = RunCmd{
		ctx:             ctx,
		Home:            defaultHome(),
		Env:             "dev",
		DebtAsset:       "IST",
		CollateralAsset: "ATOM",
		OraclePrice:     "10",
	}

	_, err := parser.AddCommand("run", "Run an ingot node",
		"Start the vaults engine and its watch loops", &runCmd)
	return err
}
