package metrics

import (
	"time"
	"modelkiosk/sources/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService struct {
	log *tracing.Logger
}

var (
	updatesHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_updates_handled_total",
			Help: "Total number of updates handled by the poller",
		},
		[]string{"status"},
	)

	updatesIgnored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_updates_ignored_total",
			Help: "Total number of updates ignored",
		},
		[]string{"reason"},
	)

	commandsUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_commands_used_total",
			Help: "Total number of commands used",
		},
		[]string{"command"},
	)

	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_messages_sent_total",
			Help: "Total number of messages sent by the diplomat",
		},
		[]string{"status"},
	)

	generationsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_generations_settled_total",
			Help: "Total number of generations by payment status",
		},
		[]string{"model", "payment_status"},
	)

	chargesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_charges_settled_total",
			Help: "Total number of ledger transitions",
		},
		[]string{"transition"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelkiosk_generation_duration_seconds",
			Help:    "Duration of upstream generation requests",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"model"},
	)

	duplicatesSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "modelkiosk_duplicates_suppressed_total",
			Help: "Total number of replayed updates suppressed by the idempotency gate",
		},
	)

	leaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelkiosk_lease_transitions_total",
			Help: "Total number of instance lease transitions",
		},
		[]string{"transition"},
	)

	statsTotalUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkiosk_stats_total_users",
			Help: "Total number of users",
		},
	)

	statsTotalGenerations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkiosk_stats_total_generations",
			Help: "Total number of generations",
		},
	)

	statsTotalRevenue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkiosk_stats_total_revenue",
			Help: "Total revenue from committed charges",
		},
	)

	statsPendingCharges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelkiosk_stats_pending_charges",
			Help: "Number of charges currently pending",
		},
	)
)

func init() {
	prometheus.MustRegister(updatesHandled)
	prometheus.MustRegister(updatesIgnored)
	prometheus.MustRegister(commandsUsed)
	prometheus.MustRegister(messagesSent)
	prometheus.MustRegister(generationsSettled)
	prometheus.MustRegister(chargesSettled)
	prometheus.MustRegister(generationDuration)
	prometheus.MustRegister(duplicatesSuppressed)
	prometheus.MustRegister(leaseTransitions)
	prometheus.MustRegister(statsTotalUsers)
	prometheus.MustRegister(statsTotalGenerations)
	prometheus.MustRegister(statsTotalRevenue)
	prometheus.MustRegister(statsPendingCharges)
}

func NewMetricsService(log *tracing.Logger) *MetricsService {
	return &MetricsService{
		log: log,
	}
}

func (s *MetricsService) RecordUpdateHandled(status string) {
	updatesHandled.WithLabelValues(status).Inc()
}

func (s *MetricsService) RecordUpdateIgnored(reason string) {
	updatesIgnored.WithLabelValues(reason).Inc()
}

func (s *MetricsService) RecordCommandUsed(command string) {
	commandsUsed.WithLabelValues(command).Inc()
}

func (s *MetricsService) RecordMessageSent(status string) {
	messagesSent.WithLabelValues(status).Inc()
}

func (s *MetricsService) RecordGenerationSettled(model string, paymentStatus string) {
	generationsSettled.WithLabelValues(model, paymentStatus).Inc()
}

func (s *MetricsService) RecordChargeTransition(transition string) {
	chargesSettled.WithLabelValues(transition).Inc()
}

func (s *MetricsService) RecordGenerationDuration(duration time.Duration, model string) {
	generationDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (s *MetricsService) RecordDuplicateSuppressed() {
	duplicatesSuppressed.Inc()
}

func (s *MetricsService) RecordLeaseTransition(transition string) {
	leaseTransitions.WithLabelValues(transition).Inc()
}

func (s *MetricsService) SetTotalUsers(count float64) {
	statsTotalUsers.Set(count)
}

func (s *MetricsService) SetTotalGenerations(count float64) {
	statsTotalGenerations.Set(count)
}

func (s *MetricsService) SetTotalRevenue(revenue float64) {
	statsTotalRevenue.Set(revenue)
}

func (s *MetricsService) SetPendingCharges(count float64) {
	statsPendingCharges.Set(count)
}
