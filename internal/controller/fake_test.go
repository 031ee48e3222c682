package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
)

type publication struct {
	topic   string
	payload string
}

// fakePublisher records retained publications.
type fakePublisher struct {
	mu   sync.Mutex
	msgs []publication
	err  error
}

func (p *fakePublisher) PublishRetained(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publication{topic: topic, payload: string(payload)})
	return p.err
}

// payloads returns every payload published to topic, in order.
func (p *fakePublisher) payloads(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// recordingDriver records every snapshot it is asked to apply.
type recordingDriver struct {
	mu      sync.Mutex
	variant device.Variant
	applied []device.Snapshot
	err     error
}

func (d *recordingDriver) Apply(snap device.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied = append(d.applied, snap)
	return d.err
}

func (d *recordingDriver) Variant() device.Variant { return d.variant }

func (d *recordingDriver) applies() []device.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]device.Snapshot(nil), d.applied...)
}

type historyEntry struct {
	deviceID string
	snap     device.Snapshot
	source   string
}

// fakeHistory implements device.StateHistoryRepository in memory.
type fakeHistory struct {
	mu      sync.Mutex
	entries []historyEntry
}

func (h *fakeHistory) RecordStateChange(_ context.Context, deviceID string, snap device.Snapshot, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{deviceID: deviceID, snap: snap, source: source})
	return nil
}

func (h *fakeHistory) GetHistory(context.Context, string, time.Time, int) ([]device.StateHistoryEntry, error) {
	return nil, nil
}

func (h *fakeHistory) sources() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.source)
	}
	return out
}

// fakeTelemetry counts WriteState calls.
type fakeTelemetry struct {
	mu     sync.Mutex
	writes int
}

func (f *fakeTelemetry) WriteState(string, device.Variant, device.Snapshot, string) {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
}

// fakeMetrics counts outcomes by label.
type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	states   int
}

func (m *fakeMetrics) ObserveCommand(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *fakeMetrics) ObserveState(string, device.Variant, device.Snapshot, string) {
	m.mu.Lock()
	m.states++
	m.mu.Unlock()
}

func fixedHardware() ([]byte, error) { return []byte("test-machine"), nil }

// loadStore returns a store that has completed its first load from empty
// storage seeded with cfg as defaults.
func loadStore(t *testing.T, cfg nodeconfig.Config) (*nodeconfig.Store, *nodeconfig.MemoryStorage, nodeconfig.Config) {
	t.Helper()
	mem := nodeconfig.NewMemoryStorage()
	store := nodeconfig.NewStore(mem, cfg)
	store.SetHardwareIDSource(fixedHardware)
	loaded := store.Load()
	if loaded.ClientID == "" {
		t.Fatal("Load() did not derive a client id")
	}
	return store, mem, loaded
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
