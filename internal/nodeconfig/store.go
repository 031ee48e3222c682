package nodeconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-node/internal/device"
)

// Logger is the logging interface used by the store.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Store owns the persisted configuration record.
//
// Thread Safety: all methods are safe for concurrent use.
type Store struct {
	storage  Storage
	defaults Config
	hardware HardwareIDSource
	logger   Logger
	onSave   func(error)

	mu      sync.RWMutex
	current Config
}

// NewStore creates a Store that reads and writes through storage and falls
// back to defaults. The hardware id source defaults to the machine id.
func NewStore(storage Storage, defaults Config) *Store {
	return &Store{
		storage:  storage,
		defaults: defaults,
		hardware: MachineHardwareID(DefaultMachineIDPath),
		logger:   noopLogger{},
		current:  defaults,
	}
}

// SetLogger sets the logger for load/save diagnostics.
func (s *Store) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// SetHardwareIDSource overrides how the client identifier is derived.
func (s *Store) SetHardwareIDSource(src HardwareIDSource) {
	s.hardware = src
}

// OnSave registers a callback told about the result of every write.
func (s *Store) OnSave(fn func(err error)) {
	s.onSave = fn
}

// Current returns the in-memory configuration.
func (s *Store) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads the persisted record and merges it over the defaults.
//
// A missing or malformed record is treated as first boot: defaults are
// returned and written back. A record without a client id gets one derived
// from the hardware identity, which is then persisted. Save failures are
// logged and the returned config stays authoritative in memory.
//
// Returns:
//   - Config: The validated record, with its variant normalised
func (s *Store) Load() Config {
	cfg, err := s.decode()
	needsSave := false
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("no persisted config, using defaults", "error", err)
		} else {
			s.logger.Warn("persisted config unusable, using defaults", "error", err)
		}
		cfg = s.defaults
		needsSave = true
	}

	if cfg.ClientID == "" {
		cfg.ClientID = s.deriveClientID()
		s.logger.Info("client id generated", "client_id", cfg.ClientID)
		needsSave = true
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	if needsSave {
		if err := s.Save(cfg); err != nil {
			s.logger.Warn("could not save config", "error", err)
		}
	} else {
		s.logger.Info("config loaded")
	}

	return cfg
}

// decode reads storage and decodes it over the defaults.
func (s *Store) decode() (Config, error) {
	data, err := s.storage.Read()
	if err != nil {
		return Config{}, err
	}

	cfg := s.defaults
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.Variant, _ = device.ParseVariant(string(cfg.Variant)) //nolint:errcheck // validated above
	return cfg, nil
}

func (s *Store) deriveClientID() string {
	if s.hardware != nil {
		hw, err := s.hardware()
		if err == nil && len(hw) > 0 {
			return ClientIDFromHardware(hw)
		}
		s.logger.Warn("hardware id unavailable, using random client id", "error", err)
	}
	return RandomClientID()
}

// Save serialises the full record and writes it to storage. The in-memory
// copy is updated even when the write fails.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	err := s.write(cfg)
	if s.onSave != nil {
		s.onSave(err)
	}
	return err
}

func (s *Store) write(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrSaveFailed, err)
	}
	if err := s.storage.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

// MergeRemote validates a remote replacement document and merges it over
// the current record.
//
// Every key in RequiredRemoteKeys for the resulting variant must be present
// and non-null, otherwise ErrMissingKeys is returned and nothing changes.
// The remote "power" key sets DefaultOn. The client id is immutable and a
// remote value is ignored. An accepted record is saved; a save failure is
// logged and the merged record is still returned.
//
// Parameters:
//   - partial: JSON object received on the config topic
//
// Returns:
//   - Config: The merged record now held by the store
//   - error: ErrMalformed, ErrMissingKeys, or a validation error
func (s *Store) MergeRemote(partial []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(partial, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	current := s.Current()
	cfg := current
	if err := json.Unmarshal(partial, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	variant, err := device.ParseVariant(string(cfg.Variant))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	cfg.Variant = variant

	var missing []string
	for _, key := range RequiredRemoteKeys(variant) {
		value, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("%w: %v", ErrMissingKeys, missing)
	}

	var power bool
	if err := json.Unmarshal(raw["power"], &power); err != nil {
		return Config{}, fmt.Errorf("%w: power: %w", ErrMalformed, err)
	}
	cfg.DefaultOn = power

	if cfg.ClientID != current.ClientID {
		s.logger.Warn("ignoring remote client id change", "remote", cfg.ClientID)
		cfg.ClientID = current.ClientID
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := s.Save(cfg); err != nil {
		s.logger.Warn("could not save remote config, keeping it in memory", "error", err)
	}

	return cfg, nil
}
