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

package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported.
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signals the type of the instrument is not expected.
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	engineTime         *prometheus.CounterVec
	vaultGauge         *prometheus.GaugeVec
	totalDebtGauge     *prometheus.GaugeVec
	collateralGauge    *prometheus.GaugeVec
	liquidationCounter *prometheus.CounterVec
	interestCounter    *prometheus.CounterVec
)

// abstract prometheus types.
type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
}

// InstrumentOption - vararg for instrument options setting.
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface,
// slice of label names.
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument.
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace.
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type.
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures and registers a new metrics instrument.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := opt.gauge()
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := opt.counter()
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		o := opt.histogram()
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Start enables metrics (given config).
func Start(conf Config) {
	if !conf.Enabled {
		return
	}
	if err := setupMetrics(); err != nil {
		panic("could not set up metrics")
	}
	http.Handle(conf.Path, promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", conf.Port), nil))
	}()
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

// Gauge returns a prometheus Gauge instrument.
func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

// GaugeVec returns a prometheus GaugeVec instrument.
func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

// Counter returns a prometheus Counter instrument.
func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

// CounterVec returns a prometheus CounterVec instrument.
func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func setupMetrics() error {
	h, err := AddInstrument(
		Counter,
		"engine_seconds_total",
		Namespace("ingot"),
		Vectors("asset", "engine", "fn"),
	)
	if err != nil {
		return err
	}
	est, err := h.CounterVec()
	if err != nil {
		return err
	}
	engineTime = est

	h, err = AddInstrument(
		Gauge,
		"vaults",
		Namespace("ingot"),
		Vectors("asset", "phase"),
		Help("Number of vaults per phase"),
	)
	if err != nil {
		return err
	}
	vg, err := h.GaugeVec()
	if err != nil {
		return err
	}
	vaultGauge = vg

	h, err = AddInstrument(
		Gauge,
		"total_debt",
		Namespace("ingot"),
		Vectors("asset"),
		Help("Aggregate outstanding debt"),
	)
	if err != nil {
		return err
	}
	tdg, err := h.GaugeVec()
	if err != nil {
		return err
	}
	totalDebtGauge = tdg

	h, err = AddInstrument(
		Gauge,
		"total_collateral",
		Namespace("ingot"),
		Vectors("asset"),
		Help("Aggregate custodied collateral"),
	)
	if err != nil {
		return err
	}
	tcg, err := h.GaugeVec()
	if err != nil {
		return err
	}
	collateralGauge = tcg

	h, err = AddInstrument(
		Counter,
		"liquidations_total",
		Namespace("ingot"),
		Vectors("asset", "outcome"),
		Help("Number of vault liquidations by outcome"),
	)
	if err != nil {
		return err
	}
	lc, err := h.CounterVec()
	if err != nil {
		return err
	}
	liquidationCounter = lc

	h, err = AddInstrument(
		Counter,
		"interest_accrued_total",
		Namespace("ingot"),
		Vectors("asset"),
		Help("Cumulative interest accrued"),
	)
	if err != nil {
		return err
	}
	ic, err := h.CounterVec()
	if err != nil {
		return err
	}
	interestCounter = ic

	return nil
}

// EngineTimeCounterAdd increments the trackers for engine time spent.
func EngineTimeCounterAdd(seconds float64, labelValues ...string) {
	if engineTime == nil {
		return
	}
	engineTime.WithLabelValues(labelValues...).Add(seconds)
}

// VaultGaugeAdd adjusts the number of vaults in a phase.
func VaultGaugeAdd(n int, labelValues ...string) {
	if vaultGauge == nil {
		return
	}
	vaultGauge.WithLabelValues(labelValues...).Add(float64(n))
}

// TotalDebtGaugeSet updates the aggregate debt gauge.
func TotalDebtGaugeSet(v float64, asset string) {
	if totalDebtGauge == nil {
		return
	}
	totalDebtGauge.WithLabelValues(asset).Set(v)
}

// TotalCollateralGaugeSet updates the aggregate collateral gauge.
func TotalCollateralGaugeSet(v float64, asset string) {
	if collateralGauge == nil {
		return
	}
	collateralGauge.WithLabelValues(asset).Set(v)
}

// LiquidationCounterInc counts one vault liquidation outcome, outcome is
// one of "completed", "reinstated", "aborted".
func LiquidationCounterInc(asset, outcome string) {
	if liquidationCounter == nil {
		return
	}
	liquidationCounter.WithLabelValues(asset, outcome).Inc()
}

// InterestCounterAdd adds newly accrued interest to the running total.
func InterestCounterAdd(v float64, asset string) {
	if interestCounter == nil {
		return
	}
	interestCounter.WithLabelValues(asset).Add(v)
}
