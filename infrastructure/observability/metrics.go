package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"socialstakes/events"
	"socialstakes/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the service. Each instance
// owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	usersRegistered     prometheus.Counter
	betsCreated         *prometheus.CounterVec
	betsJoined          prometheus.Counter
	stakeVolume         prometheus.Counter
	betsSettled         *prometheus.CounterVec
	payoutVolume        prometheus.Counter
	balanceTransactions *prometheus.CounterVec
	eventsForwarded     *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewMetrics creates and registers every instrument
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		usersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "users_registered_total",
			Help:      "Users registered.",
		}),
		betsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bets_created_total",
			Help:      "Bets created, by category.",
		}, []string{LabelCategory}),
		betsJoined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bets_joined_total",
			Help:      "Stakes placed on bets.",
		}),
		stakeVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stake_volume_total",
			Help:      "Sum of staked amounts in minor units.",
		}),
		betsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bets_settled_total",
			Help:      "Bets reaching a terminal state, by result.",
		}, []string{LabelResult}),
		payoutVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "payout_volume_total",
			Help:      "Sum of winnings paid out in minor units.",
		}),
		balanceTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "balance_transactions_total",
			Help:      "Balance changes, by transaction type.",
		}, []string{LabelType}),
		eventsForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_forwarded_total",
			Help:      "Domain events forwarded to an external sink.",
		}, []string{LabelSink, LabelEventType, LabelResult}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{LabelMethod, LabelRoute, LabelStatus}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelMethod, LabelRoute}),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Subscribe counts domain events as they are emitted after commit
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(_ context.Context, event events.Event) {
		m.observe(event)
	})
}

func (m *Metrics) observe(event events.Event) {
	switch e := event.(type) {
	case events.UserCreatedEvent:
		m.usersRegistered.Inc()
	case events.BetCreatedEvent:
		m.betsCreated.WithLabelValues(string(e.Category)).Inc()
	case events.BetJoinedEvent:
		m.betsJoined.Inc()
		m.stakeVolume.Add(float64(e.Amount))
	case events.BetResolvedEvent:
		if e.Refunded {
			m.betsSettled.WithLabelValues(ResultRefunded).Inc()
		} else {
			m.betsSettled.WithLabelValues(ResultResolved).Inc()
			m.payoutVolume.Add(float64(e.TotalPool))
		}
	case events.BetStateChangeEvent:
		if e.NewState == models.BetStatusCancelled {
			m.betsSettled.WithLabelValues(ResultCancelled).Inc()
		}
	case events.BalanceChangeEvent:
		m.balanceTransactions.WithLabelValues(string(e.TransactionType)).Inc()
	}
}

// RecordForward counts one forwarding attempt
func (m *Metrics) RecordForward(sink string, eventType events.EventType, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.eventsForwarded.WithLabelValues(sink, string(eventType), result).Inc()
}

// RecordHTTPRequest counts one request and its latency
func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
