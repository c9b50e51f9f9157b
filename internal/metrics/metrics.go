// internal/metrics/metrics.go
//
// Prometheus metrics for the curve engine:
//   - curve_trades_total{direction,result} - buy/sell attempts by outcome
//   - curve_fees_lamports_total            - accumulated protocol fees
//   - curve_reserves_lamports{asset}       - current escrow reserves per curve
//   - curve_graduations_total              - completed graduations
//
// Registered against a dedicated registry and served at /metrics by
// the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Registry *prometheus.Registry

	Trades      *prometheus.CounterVec
	Fees        prometheus.Counter
	Reserves    *prometheus.GaugeVec
	Graduations prometheus.Counter
}

// New builds and registers the engine's metric set.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curve_trades_total",
				Help: "Curve trades by direction and result",
			},
			[]string{"direction", "result"},
		),
		Fees: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "curve_fees_lamports_total",
				Help: "Protocol fees collected, in lamports",
			},
		),
		Reserves: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "curve_reserves_lamports",
				Help: "Current escrow reserves per curve, in lamports",
			},
			[]string{"asset"},
		),
		Graduations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "curve_graduations_total",
				Help: "Curves that crossed the graduation threshold",
			},
		),
	}

	m.Registry.MustRegister(m.Trades, m.Fees, m.Reserves, m.Graduations)
	return m
}

// ObserveTrade records one trade attempt.
func (m *Metrics) ObserveTrade(direction string, err error, fee uint64) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.Trades.WithLabelValues(direction, result).Inc()
	if err == nil && fee > 0 {
		m.Fees.Add(float64(fee))
	}
}

// SetReserves updates the per-curve reserve gauge.
func (m *Metrics) SetReserves(asset string, lamports uint64) {
	m.Reserves.WithLabelValues(asset).Set(float64(lamports))
}
