// Package metrics collects and exposes Prometheus metrics for hale.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kahiteam/hale/internal/events"
)

// Collector holds all hale-specific Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	// Signal handling.
	SignalsReceived   *prometheus.CounterVec
	SignalsForwarded  *prometheus.CounterVec
	SignalsSuppressed *prometheus.CounterVec
	Actions           *prometheus.CounterVec

	// Process lifecycle.
	ChildLaunchFailures prometheus.Counter
	ChildExitCode       prometheus.Gauge
	DescendantsReaped   prometheus.Counter
	Heartbeats          prometheus.Counter

	SupervisorState *prometheus.GaugeVec
	BuildInfo       *prometheus.GaugeVec
}

// supervisorStates are the values of the state label, in lifecycle order.
var supervisorStates = []string{"running", "bereaved", "terminated"}

// New creates and registers all hale metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	// Register default Go runtime metrics.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		SignalsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hale_signals_received_total",
				Help: "Signals received by the supervisor, by signal name.",
			},
			[]string{"signal"},
		),

		SignalsForwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hale_signals_forwarded_total",
				Help: "Signals delivered to the child, by delivered and received signal.",
			},
			[]string{"signal", "received"},
		),

		SignalsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hale_signals_suppressed_total",
				Help: "Signals dropped by a rewrite to 0.",
			},
			[]string{"signal"},
		),

		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hale_actions_total",
				Help: "Signal actions launched, by result.",
			},
			[]string{"signal", "result"},
		),

		ChildLaunchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hale_child_launch_failures_total",
				Help: "Times the requested program could not be started.",
			},
		),

		ChildExitCode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hale_child_exit_code",
				Help: "Exit code of the managed child; -1 while it runs.",
			},
		),

		DescendantsReaped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hale_descendants_reaped_total",
				Help: "Processes other than the managed child reaped by the supervisor.",
			},
		),

		Heartbeats: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hale_heartbeats_total",
				Help: "Waits that timed out with no signal pending.",
			},
		),

		SupervisorState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hale_supervisor_state",
				Help: "1 for the current supervisor state, 0 otherwise.",
			},
			[]string{"state"},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hale_info",
				Help: "Build information about hale.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.SignalsReceived,
		c.SignalsForwarded,
		c.SignalsSuppressed,
		c.Actions,
		c.ChildLaunchFailures,
		c.ChildExitCode,
		c.DescendantsReaped,
		c.Heartbeats,
		c.SupervisorState,
		c.BuildInfo,
	)

	c.ChildExitCode.Set(-1)
	c.SetState("running")
	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetState marks state as current and clears the others.
func (c *Collector) SetState(state string) {
	for _, s := range supervisorStates {
		v := 0.0
		if s == state {
			v = 1
		}
		c.SupervisorState.WithLabelValues(s).Set(v)
	}
}

// Attach subscribes the collector to supervisor events. It returns the
// subscription ids so callers can detach.
func (c *Collector) Attach(bus *events.Bus) []uint64 {
	handlers := map[events.EventType]events.HandlerFunc{
		events.SignalReceived: func(e events.Event) {
			c.SignalsReceived.WithLabelValues(e.Data["signal"]).Inc()
		},
		events.SignalForwarded: func(e events.Event) {
			c.SignalsForwarded.WithLabelValues(e.Data["signal"], e.Data["received"]).Inc()
		},
		events.SignalSuppressed: func(e events.Event) {
			c.SignalsSuppressed.WithLabelValues(e.Data["signal"]).Inc()
		},
		events.ActionStarted: func(e events.Event) {
			c.Actions.WithLabelValues(e.Data["signal"], "started").Inc()
		},
		events.ActionFailed: func(e events.Event) {
			c.Actions.WithLabelValues(e.Data["signal"], "failed").Inc()
		},
		events.ChildLaunchFailed: func(events.Event) {
			c.ChildLaunchFailures.Inc()
		},
		events.ChildExited: func(e events.Event) {
			if code, err := strconv.Atoi(e.Data["code"]); err == nil {
				c.ChildExitCode.Set(float64(code))
			}
		},
		events.DescendantReaped: func(events.Event) {
			c.DescendantsReaped.Inc()
		},
		events.Heartbeat: func(events.Event) {
			c.Heartbeats.Inc()
		},
		events.SupervisorStateRunning:    func(events.Event) { c.SetState("running") },
		events.SupervisorStateBereaved:   func(events.Event) { c.SetState("bereaved") },
		events.SupervisorStateTerminated: func(events.Event) { c.SetState("terminated") },
	}

	ids := make([]uint64, 0, len(handlers))
	for typ, h := range handlers {
		ids = append(ids, bus.Subscribe(typ, h))
	}
	return ids
}
