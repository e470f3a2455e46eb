package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurpay_charges_total",
			Help: "Subscription charge attempts by outcome",
		},
		[]string{"outcome"},
	)

	chargedAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurpay_charged_amount_total",
			Help: "Cumulative amount moved by successful charges, per fund type",
		},
		[]string{"fund_type"},
	)
)

// RecordCharge counts one charge attempt under the given outcome label.
func RecordCharge(outcome string) {
	chargesTotal.WithLabelValues(outcome).Inc()
}

// RecordChargedAmount adds a successful charge's amount to the running total
// for its fund type.
func RecordChargedAmount(fundType string, amount uint64) {
	chargedAmountTotal.WithLabelValues(fundType).Add(float64(amount))
}
