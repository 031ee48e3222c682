package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
	"github.com/nerrad567/gray-logic-node/internal/peripheral"
)

// historyTimeout bounds one state history insert.
const historyTimeout = 2 * time.Second

// Outcome reports what a dispatched message did.
type Outcome int

const (
	// OutcomeIgnored means the topic or tag was not for this node.
	OutcomeIgnored Outcome = iota

	// OutcomeRejected means the payload could not be parsed or validated.
	OutcomeRejected

	// OutcomeUnchanged means the command was valid but state already matched.
	OutcomeUnchanged

	// OutcomeApplied means state changed and the peripheral was driven.
	OutcomeApplied

	// OutcomeQueried means state was republished without change.
	OutcomeQueried

	// OutcomeMaintenance means the node must hand over to maintenance.
	OutcomeMaintenance

	// OutcomeDropped means the message arrived while the event queue was
	// full and was never dispatched.
	OutcomeDropped
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeApplied:
		return "applied"
	case OutcomeQueried:
		return "queried"
	case OutcomeMaintenance:
		return "maintenance"
	case OutcomeDropped:
		return "dropped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Publisher sends retained messages on the link.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// StateWriter receives applied snapshots for telemetry.
type StateWriter interface {
	WriteState(deviceID string, variant device.Variant, snap device.Snapshot, source string)
}

// Metrics receives dispatch counters.
type Metrics interface {
	ObserveCommand(outcome string)
	ObserveState(id string, variant device.Variant, snap device.Snapshot, source string)
}

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) ObserveCommand(string)                                        {}
func (noopMetrics) ObserveState(string, device.Variant, device.Snapshot, string) {}

// ColorState is the JSON published on the state/color topic.
type ColorState struct {
	Hue        int    `json:"hue"`
	Saturation int    `json:"saturation"`
	Brightness int    `json:"brightness"`
	RGB        [3]int `json:"rgb"`
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	ClientID  string
	State     *device.State
	Store     *nodeconfig.Store
	Driver    peripheral.Driver
	Publisher Publisher

	// Optional sinks for applied changes.
	History   device.StateHistoryRepository
	Telemetry StateWriter
	Metrics   Metrics

	Logger Logger
}

// Dispatcher applies commands to the device state.
//
// Thread Safety: not safe for concurrent use. The Controller calls it from
// its event loop only.
type Dispatcher struct {
	clientID  string
	topics    mqtt.Topics
	state     *device.State
	store     *nodeconfig.Store
	driver    peripheral.Driver
	publisher Publisher

	history   device.StateHistoryRepository
	telemetry StateWriter
	metrics   Metrics
	logger    Logger

	online bool

	// current mirrors the last recorded snapshot for readers outside the
	// event loop.
	current atomic.Pointer[device.Snapshot]
}

// NewDispatcher creates a Dispatcher. ClientID, State, Store, Driver and
// Publisher are required.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	switch {
	case opts.ClientID == "":
		return nil, fmt.Errorf("%w: client id", ErrMissingDependency)
	case opts.State == nil:
		return nil, fmt.Errorf("%w: state", ErrMissingDependency)
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: config store", ErrMissingDependency)
	case opts.Driver == nil:
		return nil, fmt.Errorf("%w: driver", ErrMissingDependency)
	case opts.Publisher == nil:
		return nil, fmt.Errorf("%w: publisher", ErrMissingDependency)
	}

	d := &Dispatcher{
		clientID:  opts.ClientID,
		state:     opts.State,
		store:     opts.Store,
		driver:    opts.Driver,
		publisher: opts.Publisher,
		history:   opts.History,
		telemetry: opts.Telemetry,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if d.metrics == nil {
		d.metrics = noopMetrics{}
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	snap := d.state.Snapshot()
	d.current.Store(&snap)
	return d, nil
}

// Current returns the most recently applied snapshot. It is safe to call
// from any goroutine.
func (d *Dispatcher) Current() device.Snapshot {
	return *d.current.Load()
}

// Variant reports the variant of the driven peripheral.
func (d *Dispatcher) Variant() device.Variant {
	return d.driver.Variant()
}

// SetOnline tells the dispatcher whether the link can carry publications.
// State is not published while offline.
func (d *Dispatcher) SetOnline(online bool) {
	d.online = online
}

// Dispatch handles one inbound message. Messages on topics other than the
// node's control and config topics are ignored.
//
// Parameters:
//   - topic: Topic the message arrived on
//   - payload: Raw message body
//
// Returns:
//   - Outcome: What the message did to the node, for metrics and tests
func (d *Dispatcher) Dispatch(topic string, payload []byte) Outcome {
	var cmd Command
	switch topic {
	case d.topics.Control(d.clientID):
		parsed, err := ParseControl(payload)
		if err != nil {
			outcome := OutcomeRejected
			if errors.Is(err, ErrUnknownCommand) {
				outcome = OutcomeIgnored
			}
			d.logger.Warn("discarding control message", "payload", string(payload), "error", err)
			d.metrics.ObserveCommand(outcome.String())
			return outcome
		}
		cmd = parsed
	case d.topics.Config(d.clientID):
		cmd = ReplaceConfig{Document: payload}
	default:
		d.logger.Debug("ignoring message on foreign topic", "topic", topic)
		return OutcomeIgnored
	}

	return d.Execute(cmd, device.StateHistorySourceControl)
}

// Drop records a message that was discarded before dispatch.
func (d *Dispatcher) Drop(topic string) {
	d.logger.Warn("event queue full, dropping message", "topic", topic)
	d.metrics.ObserveCommand(OutcomeDropped.String())
}

// Execute applies cmd. source is recorded with any resulting change.
//
// The peripheral is driven only when the state changed; state is published
// either way.
func (d *Dispatcher) Execute(cmd Command, source string) Outcome {
	outcome := d.execute(cmd, source)
	d.logger.Debug("command handled", "command", cmd.Name(), "outcome", outcome.String())
	d.metrics.ObserveCommand(outcome.String())
	return outcome
}

func (d *Dispatcher) execute(cmd Command, source string) Outcome {
	var changed bool

	switch c := cmd.(type) {
	case SetHue:
		changed = d.state.SetHue(c.Degrees)
	case SetSaturation:
		changed = d.state.SetSaturation(c.Percent)
	case SetBrightness:
		changed = d.state.SetBrightness(c.Percent)
	case SetPower:
		changed = d.state.SetPower(c.On)
	case SetRGB:
		changed = d.state.SetRGB(c.Color)
	case ToggleRelay:
		changed = d.toggle()
	case QueryState:
		d.PublishState()
		return OutcomeQueried
	case ReplaceConfig:
		var ok bool
		changed, ok = d.replaceConfig(c.Document)
		if !ok {
			return OutcomeRejected
		}
		source = device.StateHistorySourceConfig
	case EnterMaintenanceMode:
		d.logger.Info("maintenance mode requested")
		return OutcomeMaintenance
	default:
		return OutcomeIgnored
	}

	if changed {
		d.apply(source)
	}
	d.PublishState()

	if changed {
		return OutcomeApplied
	}
	return OutcomeUnchanged
}

// toggle inverts power. Relay nodes invert the read-back relay position
// so a press always flips the physical output.
func (d *Dispatcher) toggle() bool {
	snap := d.state.Snapshot()
	if d.driver.Variant() == device.VariantRelay {
		on := !snap.RelayPosition
		return d.state.SetPower(on) || snap.RelayPosition != on
	}
	return d.state.SetPower(!snap.Power)
}

// replaceConfig merges a remote document and applies its live values.
// Variant and pin changes take effect on the next start.
func (d *Dispatcher) replaceConfig(doc []byte) (changed, ok bool) {
	cfg, err := d.store.MergeRemote(doc)
	if err != nil {
		d.logger.Warn("rejecting remote config", "error", err)
		return false, false
	}
	d.logger.Info("remote config accepted", "variant", string(cfg.Variant))
	if cfg.Variant != d.driver.Variant() {
		d.logger.Warn("variant change takes effect after restart",
			"running", string(d.driver.Variant()),
			"configured", string(cfg.Variant))
	}

	changed = d.state.SetPower(cfg.DefaultOn)
	if d.driver.Variant() == device.VariantLED {
		changed = d.state.SetHue(cfg.Hue) || changed
		changed = d.state.SetSaturation(cfg.Saturation) || changed
		changed = d.state.SetBrightness(cfg.Brightness) || changed
	}
	return changed, true
}

// ApplyBoot drives the peripheral with the initial state.
func (d *Dispatcher) ApplyBoot() {
	d.apply(device.StateHistorySourceBoot)
}

// apply drives the peripheral with the current snapshot and records it.
// Drivers that can read their output back update the relay position.
func (d *Dispatcher) apply(source string) {
	if err := d.driver.Apply(d.state.Snapshot()); err != nil {
		d.logger.Error("applying state to peripheral failed", "error", err)
	}

	if pr, ok := d.driver.(peripheral.PositionReporter); ok {
		pos, err := pr.Position()
		if err != nil {
			d.logger.Warn("reading relay position failed", "error", err)
		} else {
			d.state.SetRelayPosition(pos)
		}
	}

	d.record(d.state.Snapshot(), source)
}

func (d *Dispatcher) record(snap device.Snapshot, source string) {
	d.current.Store(&snap)

	variant := d.driver.Variant()
	d.metrics.ObserveState(d.clientID, variant, snap, source)

	if d.telemetry != nil {
		d.telemetry.WriteState(d.clientID, variant, snap, source)
	}

	if d.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := d.history.RecordStateChange(ctx, d.clientID, snap, source); err != nil {
			d.logger.Warn("recording state history failed", "error", err)
		}
	}
}

// PublishState publishes the current state. Relay nodes report the relay
// position; LED nodes report power and, on the colour topic, the stored
// colour.
func (d *Dispatcher) PublishState() {
	if !d.online {
		return
	}

	snap := d.state.Snapshot()
	power := snap.PowerPayload()
	if d.driver.Variant() == device.VariantRelay {
		power = device.OnOff(snap.RelayPosition)
	}

	if err := d.publisher.PublishRetained(d.topics.State(d.clientID), []byte(power)); err != nil {
		d.logger.Warn("publishing state failed", "error", err)
	}

	if d.driver.Variant() != device.VariantLED {
		return
	}

	payload, err := json.Marshal(ColorStateOf(snap))
	if err != nil {
		d.logger.Error("encoding colour state failed", "error", err)
		return
	}
	if err := d.publisher.PublishRetained(d.topics.StateColor(d.clientID), payload); err != nil {
		d.logger.Warn("publishing colour state failed", "error", err)
	}
}

// ColorStateOf converts a snapshot to its published colour form.
func ColorStateOf(snap device.Snapshot) ColorState {
	c := snap.Color()
	return ColorState{
		Hue:        int(math.Round(snap.HueDegrees())),
		Saturation: int(math.Round(snap.SaturationPercent())),
		Brightness: int(math.Round(snap.BrightnessPercent())),
		RGB:        [3]int{int(c.R), int(c.G), int(c.B)},
	}
}
