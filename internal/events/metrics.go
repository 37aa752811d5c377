package events

import (
	"context"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"walienPool/internal/curve"
	"walienPool/internal/model"
)

const (
	stableDecimals = 6
	saleDecimals   = 9
)

// Metrics exports sale activity as Prometheus metrics.
type Metrics struct {
	EventsTotal    *prometheus.CounterVec
	StableVolume   prometheus.Counter
	AllocationSold prometheus.Counter
	AllocationPaid prometheus.Counter
	LastPrice      prometheus.Gauge
	LastIndex      prometheus.Gauge
}

// NewMetrics registers the sale metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walien",
				Subsystem: "sale",
				Name:      "events_total",
				Help:      "Committed sale events by name",
			},
			[]string{"event"},
		),
		StableVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "walien",
			Subsystem: "sale",
			Name:      "stable_volume_total",
			Help:      "Stable tokens spent on purchases, in whole tokens",
		}),
		AllocationSold: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "walien",
			Subsystem: "sale",
			Name:      "allocation_sold_total",
			Help:      "Sale tokens allocated to purchases, in whole tokens",
		}),
		AllocationPaid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "walien",
			Subsystem: "sale",
			Name:      "allocation_claimed_total",
			Help:      "Sale tokens delivered by claims, in whole tokens",
		}),
		LastPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "walien",
			Subsystem: "sale",
			Name:      "price",
			Help:      "Stable-token price of one sale token after the last purchase",
		}),
		LastIndex: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "walien",
			Subsystem: "sale",
			Name:      "last_position_index",
			Help:      "Index of the most recently created position",
		}),
	}
}

func (m *Metrics) Emit(_ context.Context, ev model.Event) error {
	m.EventsTotal.WithLabelValues(ev.EventName()).Inc()
	switch e := ev.(type) {
	case model.BuyEvent:
		m.StableVolume.Add(wholeUnits(e.UsdcAmount, stableDecimals))
		m.AllocationSold.Add(wholeUnits(e.WalienAmount, saleDecimals))
		m.LastPrice.Set(curve.UIPrice(&e.PriceAfter, saleDecimals, stableDecimals).InexactFloat64())
		m.LastIndex.Set(float64(e.PositionIndex))
	case model.ClaimEvent:
		m.AllocationPaid.Add(wholeUnits(e.WalienAmount, saleDecimals))
	}
	return nil
}

func wholeUnits(amount uint64, decimals int32) float64 {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).InexactFloat64()
}
