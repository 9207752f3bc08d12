// Package metrics exports control-session activity to Prometheus
package metrics

import (
	"errors"
	"net/http"

	"github.com/bnema/screenctl/internal/base128"
	"github.com/bnema/screenctl/internal/controller"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "screenctl"

// Collector holds the agent metrics
type Collector struct {
	registry *prometheus.Registry

	framesTotal    *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	sessionErrors  *prometheus.CounterVec
	sessionsTotal  prometheus.Counter
	activeSessions prometheus.Gauge
}

// New creates a collector with its own registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Decoded control frames by message type",
		}, []string{"type"}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injected_events_total",
			Help:      "Synthesized motion events by action",
		}, []string{"action"}),

		sessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Sessions terminated by a fatal stream error, by kind",
		}, []string{"kind"}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Control sessions accepted",
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Control sessions currently running",
		}),
	}
}

// Handler serves the metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SessionStarted counts a new session and returns the observer for it
func (c *Collector) SessionStarted() controller.Observer {
	c.sessionsTotal.Inc()
	c.activeSessions.Inc()
	return &sessionObserver{c: c}
}

type sessionObserver struct {
	c *Collector
}

func (o *sessionObserver) FrameDecoded(msg message.Message) {
	o.c.framesTotal.WithLabelValues(msg.Type().String()).Inc()
}

func (o *sessionObserver) EventInjected(event input.MotionEvent) {
	o.c.eventsTotal.WithLabelValues(event.Action.String()).Inc()
}

func (o *sessionObserver) SessionEnded(err error) {
	o.c.activeSessions.Dec()
	if err != nil {
		o.c.sessionErrors.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// ErrorKind names the taxonomy class of a session error
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, base128.ErrEndOfStream):
		return "end_of_stream"
	case errors.Is(err, base128.ErrPrematureEndOfStream):
		return "premature_end_of_stream"
	case errors.Is(err, base128.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, message.ErrUnexpectedMessageType):
		return "unexpected_message_type"
	case errors.Is(err, base128.ErrIO):
		return "io"
	default:
		return "other"
	}
}
