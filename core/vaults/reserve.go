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

	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/cenkalti/backoff/v4"
)

// ReserveService is the external sink for protocol level overage and
// shortfall figures.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/reserve_service_mock.go -package mocks code.ingotprotocol.io/ingot/core/vaults ReserveService
type ReserveService interface {
	ReportShortfall(ctx context.Context, asset string, amount *num.Uint) error
	ReportOverage(ctx context.Context, asset string, amount *num.Uint) error
}

type reserveReport struct {
	asset     string
	amount    *num.Uint
	shortfall bool
}

// ReserveReporter ships overage and shortfall reports to the reserve on
// a background queue. Reporting is fire-and-forget from the caller's
// point of view: failures are retried with exponential backoff and
// finally logged, they never block settlement.
type ReserveReporter struct {
	log     *logging.Logger
	svc     ReserveService
	queue   chan reserveReport
	retries uint64
}

func NewReserveReporter(log *logging.Logger, cfg Config, svc ReserveService) *ReserveReporter {
	log = log.Named(namedLogger + ".reserve")
	log.SetLevel(cfg.Level.Get())
	return &ReserveReporter{
		log:     log,
		svc:     svc,
		queue:   make(chan reserveReport, cfg.ReserveQueueSize),
		retries: cfg.ReserveReportRetries,
	}
}

// Start consumes the queue until ctx is cancelled.
func (r *ReserveReporter) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case rep := <-r.queue:
				r.deliver(ctx, rep)
			}
		}
	}()
}

// ReportShortfall enqueues without blocking. A full queue drops the
// report with an error log rather than stalling the caller.
func (r *ReserveReporter) ReportShortfall(asset string, amount *num.Uint) {
	r.enqueue(reserveReport{asset: asset, amount: amount.Clone(), shortfall: true})
}

// ReportOverage enqueues without blocking, sharing the shortfall queue.
func (r *ReserveReporter) ReportOverage(asset string, amount *num.Uint) {
	r.enqueue(reserveReport{asset: asset, amount: amount.Clone()})
}

func (r *ReserveReporter) enqueue(rep reserveReport) {
	if rep.amount.IsZero() {
		return
	}
	select {
	case r.queue <- rep:
	default:
		r.log.Error("reserve report queue full, dropping report",
			logging.String("asset", rep.asset),
			logging.BigUint("amount", rep.amount),
			logging.Bool("shortfall", rep.shortfall),
		)
	}
}

func (r *ReserveReporter) deliver(ctx context.Context, rep reserveReport) {
	op := func() error {
		if err := ctx.Err(); err != nil {
			// shutting down, kill the retry loop
			return backoff.Permanent(err)
		}
		if rep.shortfall {
			return r.svc.ReportShortfall(ctx, rep.asset, rep.amount)
		}
		return r.svc.ReportOverage(ctx, rep.asset, rep.amount)
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries))
	if err != nil {
		r.log.Error("giving up on reserve report",
			logging.String("asset", rep.asset),
			logging.BigUint("amount", rep.amount),
			logging.Bool("shortfall", rep.shortfall),
			logging.Error(err),
		)
	}
}
