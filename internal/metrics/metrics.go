// Package metrics exposes booking counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports to.  Nop satisfies it for
// tests and for binaries that do not scrape.
type Recorder interface {
	ReservationCreated(source string)
	ReservationPaid(method string)
	ReservationCancelled()
	PaymentRefunded()
	BookingConflict(path string)
	WebhookOutcome(outcome string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	created   *prometheus.CounterVec
	paid      *prometheus.CounterVec
	cancelled prometheus.Counter
	refunded  prometheus.Counter
	conflicts *prometheus.CounterVec
	webhook   *prometheus.CounterVec
}

// NewCollector creates the counters and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "reservations_created_total",
			Help:      "Reservations created, by source.",
		}, []string{"source"}),
		paid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "reservations_paid_total",
			Help:      "Reservations moved to paid, by payment method.",
		}, []string{"method"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "reservations_cancelled_total",
			Help:      "Reservations cancelled.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "payments_refunded_total",
			Help:      "Payments refunded.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "conflicts_total",
			Help:      "Booking attempts rejected because the timeslot was taken.",
		}, []string{"path"}),
		webhook: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "webhook_requests_total",
			Help:      "External intake requests, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.created, c.paid, c.cancelled, c.refunded, c.conflicts, c.webhook)
	return c
}

func (c *Collector) ReservationCreated(source string) { c.created.WithLabelValues(source).Inc() }
func (c *Collector) ReservationPaid(method string)    { c.paid.WithLabelValues(method).Inc() }
func (c *Collector) ReservationCancelled()            { c.cancelled.Inc() }
func (c *Collector) PaymentRefunded()                 { c.refunded.Inc() }
func (c *Collector) BookingConflict(path string)      { c.conflicts.WithLabelValues(path).Inc() }
func (c *Collector) WebhookOutcome(outcome string)    { c.webhook.WithLabelValues(outcome).Inc() }

// Handler serves the registry for scraping.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) ReservationCreated(string) {}
func (Nop) ReservationPaid(string)    {}
func (Nop) ReservationCancelled()     {}
func (Nop) PaymentRefunded()          {}
func (Nop) BookingConflict(string)    {}
func (Nop) WebhookOutcome(string)     {}
