package controller

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/nerrad567/gray-logic-node/internal/color"
	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
	"github.com/nerrad567/gray-logic-node/internal/peripheral"
)

var topics mqtt.Topics

type ledFixture struct {
	d      *Dispatcher
	id     string
	state  *device.State
	driver *recordingDriver
	pub    *fakePublisher
	store  *nodeconfig.Store
}

func newLEDFixture(t *testing.T) *ledFixture {
	t.Helper()
	store, _, cfg := loadStore(t, nodeconfig.Defaults())
	f := &ledFixture{
		id:     cfg.ClientID,
		state:  device.NewState(cfg.StateDefaults()),
		driver: &recordingDriver{variant: device.VariantLED},
		pub:    &fakePublisher{},
		store:  store,
	}
	d, err := NewDispatcher(DispatcherOptions{
		ClientID:  f.id,
		State:     f.state,
		Store:     store,
		Driver:    f.driver,
		Publisher: f.pub,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	d.SetOnline(true)
	f.d = d
	return f
}

func (f *ledFixture) control(payload string) Outcome {
	return f.d.Dispatch(topics.Control(f.id), []byte(payload))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewDispatcherRequiresDependencies(t *testing.T) {
	store, _, cfg := loadStore(t, nodeconfig.Defaults())
	full := DispatcherOptions{
		ClientID:  cfg.ClientID,
		State:     device.NewState(cfg.StateDefaults()),
		Store:     store,
		Driver:    &recordingDriver{variant: device.VariantLED},
		Publisher: &fakePublisher{},
	}

	tests := map[string]func(o *DispatcherOptions){
		"client id": func(o *DispatcherOptions) { o.ClientID = "" },
		"state":     func(o *DispatcherOptions) { o.State = nil },
		"store":     func(o *DispatcherOptions) { o.Store = nil },
		"driver":    func(o *DispatcherOptions) { o.Driver = nil },
		"publisher": func(o *DispatcherOptions) { o.Publisher = nil },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := full
			mutate(&opts)
			if _, err := NewDispatcher(opts); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("NewDispatcher() error = %v, want ErrMissingDependency", err)
			}
		})
	}

	if _, err := NewDispatcher(full); err != nil {
		t.Errorf("NewDispatcher(full) error = %v", err)
	}
}

func TestDispatchIgnoresForeignTopics(t *testing.T) {
	f := newLEDFixture(t)

	for _, topic := range []string{"other/control", f.id + "/state", f.id, ""} {
		if got := f.d.Dispatch(topic, []byte("power:off")); got != OutcomeIgnored {
			t.Errorf("Dispatch(%q) = %v, want ignored", topic, got)
		}
	}
	if len(f.driver.applies()) != 0 || f.pub.count() != 0 {
		t.Error("foreign topic caused side effects")
	}
}

func TestDispatchMalformedCommandLeavesStateUntouched(t *testing.T) {
	f := newLEDFixture(t)
	before := f.state.Snapshot()

	for _, payload := range []string{"h:notanumber", "rgb:1:2", "power:", "b"} {
		if got := f.control(payload); got != OutcomeRejected {
			t.Errorf("Dispatch(%q) = %v, want rejected", payload, got)
		}
	}
	if got := f.control("sparkle:5"); got != OutcomeIgnored {
		t.Errorf("unknown tag = %v, want ignored", got)
	}

	if after := f.state.Snapshot(); after != before {
		t.Errorf("state changed: %+v -> %+v", before, after)
	}
	if n := len(f.driver.applies()); n != 0 {
		t.Errorf("driver applied %d times, want 0", n)
	}
	if f.pub.count() != 0 {
		t.Errorf("published %d messages for rejected commands", f.pub.count())
	}
}

func TestDispatchSetPowerIdempotent(t *testing.T) {
	f := newLEDFixture(t)

	if got := f.control("power:off"); got != OutcomeApplied {
		t.Fatalf("first power:off = %v, want applied", got)
	}
	first := f.state.Snapshot()
	if got := f.control("power:off"); got != OutcomeUnchanged {
		t.Fatalf("second power:off = %v, want unchanged", got)
	}

	if second := f.state.Snapshot(); second != first {
		t.Errorf("state differs after repeat: %+v vs %+v", first, second)
	}
	if n := len(f.driver.applies()); n != 1 {
		t.Errorf("driver applied %d times, want 1", n)
	}
	want := []string{"off", "off"}
	if got := f.pub.payloads(topics.State(f.id)); !reflect.DeepEqual(got, want) {
		t.Errorf("state payloads = %v, want %v", got, want)
	}
}

func TestDispatchColourCommands(t *testing.T) {
	tests := []struct {
		payload string
		hue     float64
		sat     float64
		val     float64
	}{
		{"h:180", 0.5, 0, 0.02},
		{"h:720", 1, 0, 0.02},
		{"s:50", 0, 0.5, 0.02},
		{"b:-10", 0, 0, 0},
		{"brightness:150", 0, 0, 1},
		{"rgb:255:0:0", 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			f := newLEDFixture(t)
			if got := f.control(tt.payload); got != OutcomeApplied {
				t.Fatalf("Dispatch(%q) = %v, want applied", tt.payload, got)
			}
			snap := f.state.Snapshot()
			if !approx(snap.Hue, tt.hue) || !approx(snap.Saturation, tt.sat) || !approx(snap.Value, tt.val) {
				t.Errorf("hsv = (%v, %v, %v), want (%v, %v, %v)",
					snap.Hue, snap.Saturation, snap.Value, tt.hue, tt.sat, tt.val)
			}
			applied := f.driver.applies()
			if len(applied) != 1 || applied[0] != snap {
				t.Errorf("driver got %+v, want one apply of %+v", applied, snap)
			}
		})
	}
}

func TestPowerOffPreservesColour(t *testing.T) {
	f := newLEDFixture(t)
	f.control("rgb:0:255:0")
	colour := f.state.Snapshot().Color()

	f.control("power:off")
	off := f.driver.applies()
	if out := off[len(off)-1].Output(); out != color.Black {
		t.Errorf("output while off = %+v, want black", out)
	}

	f.control("power:on")
	if got := f.state.Snapshot().Output(); got != colour {
		t.Errorf("output after power on = %+v, want %+v", got, colour)
	}
}

func TestCurrentTracksAppliedState(t *testing.T) {
	f := newLEDFixture(t)
	if got := f.d.Current(); got != f.state.Snapshot() {
		t.Errorf("Current() before any command = %+v, want %+v", got, f.state.Snapshot())
	}

	f.control("b:75")
	if got := f.d.Current(); !approx(got.Value, 0.75) {
		t.Errorf("Current().Value = %v, want 0.75", got.Value)
	}

	f.control("h:oops")
	if got := f.d.Current(); !approx(got.Value, 0.75) {
		t.Errorf("rejected command moved Current(): %+v", got)
	}
}

func TestPublishColourState(t *testing.T) {
	f := newLEDFixture(t)
	f.control("rgb:255:0:0")

	payloads := f.pub.payloads(topics.StateColor(f.id))
	if len(payloads) != 1 {
		t.Fatalf("colour payloads = %v, want 1", payloads)
	}

	var got ColorState
	if err := json.Unmarshal([]byte(payloads[0]), &got); err != nil {
		t.Fatalf("colour payload %q: %v", payloads[0], err)
	}
	want := ColorState{Hue: 0, Saturation: 100, Brightness: 100, RGB: [3]int{255, 0, 0}}
	if got != want {
		t.Errorf("colour state = %+v, want %+v", got, want)
	}
}

func TestDispatchQueryState(t *testing.T) {
	f := newLEDFixture(t)

	if got := f.control("state?"); got != OutcomeQueried {
		t.Fatalf("state? = %v, want queried", got)
	}
	if n := len(f.driver.applies()); n != 0 {
		t.Errorf("query applied %d times", n)
	}
	if got := f.pub.payloads(topics.State(f.id)); !reflect.DeepEqual(got, []string{"on"}) {
		t.Errorf("state payloads = %v, want [on]", got)
	}
}

func TestDispatchMaintenance(t *testing.T) {
	f := newLEDFixture(t)
	before := f.state.Snapshot()

	if got := f.control("webrepl"); got != OutcomeMaintenance {
		t.Fatalf("webrepl = %v, want maintenance", got)
	}
	if f.state.Snapshot() != before || f.pub.count() != 0 {
		t.Error("maintenance request changed or published state")
	}
}

func TestOfflineSuppressesPublish(t *testing.T) {
	f := newLEDFixture(t)
	f.d.SetOnline(false)

	if got := f.control("power:off"); got != OutcomeApplied {
		t.Fatalf("power:off = %v, want applied", got)
	}
	if f.pub.count() != 0 {
		t.Errorf("published %d messages while offline", f.pub.count())
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newLEDFixture(t)
	f.pub.err = errors.New("not connected")

	if got := f.control("power:off"); got != OutcomeApplied {
		t.Errorf("power:off = %v, want applied", got)
	}
	if f.state.Snapshot().Power {
		t.Error("state not updated when publish failed")
	}
}

func TestDriverFailureStillPublishes(t *testing.T) {
	f := newLEDFixture(t)
	f.driver.err = errors.New("strip unplugged")

	if got := f.control("power:off"); got != OutcomeApplied {
		t.Errorf("power:off = %v, want applied", got)
	}
	if got := f.pub.payloads(topics.State(f.id)); !reflect.DeepEqual(got, []string{"off"}) {
		t.Errorf("state payloads = %v, want [off]", got)
	}
}

func TestReplaceConfig(t *testing.T) {
	f := newLEDFixture(t)
	doc := `{"hue":120,"saturation":100,"brightness":50,"power":false,"neopixel_pin":4,"neopixel_count":30}`

	if got := f.d.Dispatch(topics.Config(f.id), []byte(doc)); got != OutcomeApplied {
		t.Fatalf("config replace = %v, want applied", got)
	}

	snap := f.state.Snapshot()
	if snap.Power || !approx(snap.HueDegrees(), 120) || !approx(snap.Saturation, 1) || !approx(snap.Value, 0.5) {
		t.Errorf("state after replace = %+v", snap)
	}
	cfg := f.store.Current()
	if cfg.NeopixelCount != 30 || cfg.DefaultOn || cfg.ClientID != f.id {
		t.Errorf("stored config = %+v", cfg)
	}
}

func TestReplaceConfigRejected(t *testing.T) {
	f := newLEDFixture(t)
	before := f.store.Current()

	for _, doc := range []string{`{"hue":120}`, `not json`, `{"variant":"toaster","power":true}`} {
		if got := f.d.Dispatch(topics.Config(f.id), []byte(doc)); got != OutcomeRejected {
			t.Errorf("Dispatch(config %s) = %v, want rejected", doc, got)
		}
	}
	if f.store.Current() != before {
		t.Error("rejected config changed the store")
	}
	if len(f.driver.applies()) != 0 {
		t.Error("rejected config drove the peripheral")
	}
}

func newRelayDispatcher(t *testing.T) (*Dispatcher, string, *device.State, *peripheral.SimulatedRelay, *fakePublisher) {
	t.Helper()
	base := nodeconfig.Defaults()
	base.Variant = device.VariantRelay
	base.DefaultOn = false
	store, _, cfg := loadStore(t, base)

	relay := peripheral.NewSimulatedRelay(cfg.RelayPin, cfg.LEDPin, nil)
	state := device.NewState(cfg.StateDefaults())
	pub := &fakePublisher{}
	d, err := NewDispatcher(DispatcherOptions{
		ClientID:  cfg.ClientID,
		State:     state,
		Store:     store,
		Driver:    peripheral.NewRelayDriver(relay),
		Publisher: pub,
	})
	if err != nil {
		t.Fatal(err)
	}
	d.SetOnline(true)
	d.ApplyBoot()
	return d, cfg.ClientID, state, relay, pub
}

func TestToggleRelayTwice(t *testing.T) {
	d, id, state, relay, pub := newRelayDispatcher(t)
	if state.Snapshot().RelayPosition {
		t.Fatal("relay should start open")
	}

	for i := 0; i < 2; i++ {
		if got := d.Dispatch(topics.Control(id), []byte("toggle")); got != OutcomeApplied {
			t.Fatalf("toggle %d = %v, want applied", i+1, got)
		}
	}

	if state.Snapshot().RelayPosition {
		t.Error("relay position not back to open")
	}
	if closed, _ := relay.Relay(); closed {
		t.Error("hardware relay still closed")
	}
	want := []string{"on", "off"}
	if got := pub.payloads(topics.State(id)); !reflect.DeepEqual(got, want) {
		t.Errorf("state payloads = %v, want %v", got, want)
	}
	if got := pub.payloads(topics.StateColor(id)); len(got) != 0 {
		t.Errorf("relay node published colour state %v", got)
	}
}

func TestToggleRelayFollowsHardware(t *testing.T) {
	d, _, state, relay, _ := newRelayDispatcher(t)

	// Relay closed behind the controller's back.
	if err := relay.SetRelay(true); err != nil {
		t.Fatal(err)
	}
	state.SetRelayPosition(true)

	d.Execute(ToggleRelay{}, device.StateHistorySourceButton)
	if closed, _ := relay.Relay(); closed {
		t.Error("toggle did not open the closed relay")
	}
}

func TestToggleLED(t *testing.T) {
	f := newLEDFixture(t)
	f.control("toggle")
	if f.state.Snapshot().Power {
		t.Error("toggle did not switch the strip off")
	}
	f.control("toggle")
	if !f.state.Snapshot().Power {
		t.Error("second toggle did not switch the strip on")
	}
}

func TestAppliedChangesAreRecorded(t *testing.T) {
	store, _, cfg := loadStore(t, nodeconfig.Defaults())
	history := &fakeHistory{}
	telemetry := &fakeTelemetry{}
	metrics := &fakeMetrics{}

	d, err := NewDispatcher(DispatcherOptions{
		ClientID:  cfg.ClientID,
		State:     device.NewState(cfg.StateDefaults()),
		Store:     store,
		Driver:    &recordingDriver{variant: device.VariantLED},
		Publisher: &fakePublisher{},
		History:   history,
		Telemetry: telemetry,
		Metrics:   metrics,
	})
	if err != nil {
		t.Fatal(err)
	}

	d.ApplyBoot()
	d.Dispatch(topics.Control(cfg.ClientID), []byte("h:90"))
	d.Dispatch(topics.Control(cfg.ClientID), []byte("h:90"))
	d.Dispatch(topics.Control(cfg.ClientID), []byte("h:bad"))
	d.Execute(ToggleRelay{}, device.StateHistorySourceButton)

	wantSources := []string{
		device.StateHistorySourceBoot,
		device.StateHistorySourceControl,
		device.StateHistorySourceButton,
	}
	if got := history.sources(); !reflect.DeepEqual(got, wantSources) {
		t.Errorf("history sources = %v, want %v", got, wantSources)
	}
	if telemetry.writes != 3 || metrics.states != 3 {
		t.Errorf("telemetry writes = %d, metric states = %d, want 3", telemetry.writes, metrics.states)
	}
	wantOutcomes := map[string]int{"applied": 2, "unchanged": 1, "rejected": 1}
	if !reflect.DeepEqual(metrics.outcomes, wantOutcomes) {
		t.Errorf("outcomes = %v, want %v", metrics.outcomes, wantOutcomes)
	}
}
