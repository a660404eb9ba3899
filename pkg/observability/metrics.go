package observability

import (
	"context"
	"errors"

	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records guide activity as Prometheus series.
type Metrics struct {
	sessionsStarted *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	activeSessions  *prometheus.GaugeVec
	sessionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by a previous call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolguide_sessions_started_total",
				Help: "Total number of guide sessions started",
			},
			[]string{"guide"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolguide_transitions_total",
				Help: "Total number of state transitions",
			},
			[]string{"guide", "from", "to"},
		),
		sessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolguide_sessions_ended_total",
				Help: "Total number of guide sessions that reached a final status",
			},
			[]string{"guide", "status"},
		),
		activeSessions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolguide_active_sessions",
				Help: "Sessions started by this process that have not ended yet",
			},
			[]string{"guide"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolguide_session_duration_seconds",
				Help:    "Time from session start to final status",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"guide", "status"},
		),
	}

	var err error
	if m.sessionsStarted, err = register(reg, m.sessionsStarted); err != nil {
		return nil, err
	}
	if m.transitions, err = register(reg, m.transitions); err != nil {
		return nil, err
	}
	if m.sessionsEnded, err = register(reg, m.sessionsEnded); err != nil {
		return nil, err
	}
	if m.activeSessions, err = register(reg, m.activeSessions); err != nil {
		return nil, err
	}
	if m.sessionDuration, err = register(reg, m.sessionDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
// Durations are measured from the session's start event to its end event,
// so only sessions started by this process are timed.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	starts := newStartTimes()
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.TransitionEvent) {
			m.sessionsStarted.WithLabelValues(e.Guide).Inc()
			m.activeSessions.WithLabelValues(e.Guide).Inc()
			starts.put(e.SessionID, e.Timestamp)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.Guide, string(e.From), string(e.To)).Inc()
		},
		OnSessionEnd: func(ctx context.Context, e *domain.TransitionEvent) {
			m.sessionsEnded.WithLabelValues(e.Guide, string(e.Status)).Inc()
			if started, ok := starts.take(e.SessionID); ok {
				m.activeSessions.WithLabelValues(e.Guide).Dec()
				m.sessionDuration.WithLabelValues(e.Guide, string(e.Status)).Observe(e.Timestamp.Sub(started).Seconds())
			}
		},
	}
}
