package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/gray-logic-node/internal/device"
)

const namespace = "graylogic_node"

// Metrics holds the node's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands      *prometheus.CounterVec
	stateChanges  *prometheus.CounterVec
	configSaves   *prometheus.CounterVec
	buttonPresses prometheus.Counter
	power         *prometheus.GaugeVec
	relay         *prometheus.GaugeVec
	hue           *prometheus.GaugeVec
	saturation    *prometheus.GaugeVec
	brightness    *prometheus.GaugeVec
	linkState     *prometheus.GaugeVec
}

// LinkStates lists every value ObserveLinkState sets to 1 or 0.
var LinkStates = []string{"disconnected", "connecting", "subscribing", "ready"}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Inbound messages by dispatch outcome.",
			},
			[]string{"outcome"},
		),
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_changes_total",
				Help:      "Applied device state changes by source.",
			},
			[]string{"source"},
		),
		configSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_saves_total",
				Help:      "Device record saves by result.",
			},
			[]string{"result"},
		),
		buttonPresses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "button_presses_total",
				Help:      "Local button presses.",
			},
		),
		power: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "power",
				Help:      "Current power state (1 on, 0 off).",
			},
			[]string{"id"},
		),
		relay: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "relay_closed",
				Help:      "Current relay position (1 closed, 0 open).",
			},
			[]string{"id"},
		),
		hue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hue_degrees",
				Help:      "Current hue in degrees.",
			},
			[]string{"id"},
		),
		saturation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "saturation_percent",
				Help:      "Current saturation in percent.",
			},
			[]string{"id"},
		),
		brightness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "brightness_percent",
				Help:      "Current brightness in percent.",
			},
			[]string{"id"},
		),
		linkState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "link_state",
				Help:      "Broker link lifecycle state (1 for the current state).",
			},
			[]string{"state"},
		),
	}
	reg.MustRegister(m.commands)
	reg.MustRegister(m.stateChanges)
	reg.MustRegister(m.configSaves)
	reg.MustRegister(m.buttonPresses)
	reg.MustRegister(m.power)
	reg.MustRegister(m.relay)
	reg.MustRegister(m.hue)
	reg.MustRegister(m.saturation)
	reg.MustRegister(m.brightness)
	reg.MustRegister(m.linkState)
	return m
}

// NewRegistry returns a registry carrying the Go runtime and build info
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// ObserveCommand counts one dispatched inbound message.
func (m *Metrics) ObserveCommand(outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(outcome).Inc()
}

// ObserveState counts an applied change and updates the state gauges.
func (m *Metrics) ObserveState(id string, variant device.Variant, snap device.Snapshot, source string) {
	if m == nil {
		return
	}
	m.stateChanges.WithLabelValues(source).Inc()
	m.power.WithLabelValues(id).Set(boolToFloat(snap.Power))

	if variant == device.VariantRelay {
		m.relay.WithLabelValues(id).Set(boolToFloat(snap.RelayPosition))
		return
	}
	m.hue.WithLabelValues(id).Set(snap.HueDegrees())
	m.saturation.WithLabelValues(id).Set(snap.SaturationPercent())
	m.brightness.WithLabelValues(id).Set(snap.BrightnessPercent())
}

// ObserveButtonPress counts one local button press.
func (m *Metrics) ObserveButtonPress() {
	if m == nil {
		return
	}
	m.buttonPresses.Inc()
}

// ObserveConfigSave counts a device record save.
func (m *Metrics) ObserveConfigSave(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.configSaves.WithLabelValues(result).Inc()
}

// ObserveLinkState marks state as current.
func (m *Metrics) ObserveLinkState(state string) {
	if m == nil {
		return
	}
	for _, s := range LinkStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.linkState.WithLabelValues(s).Set(v)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
