package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/link"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	return path
}

// TestRun_InvalidSettings verifies run fails before touching hardware or the
// broker when settings do not validate.
func TestRun_InvalidSettings(t *testing.T) {
	t.Setenv("GRAYLOGIC_NODE_CONFIG", writeSettings(t, `
mqtt:
  port: 70000
  qos: 5
logging:
  output: discard
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid settings")
	}
}

// TestRun_BrokerUnreachable boots a node against a closed port. The device
// record and history database are created, then the session fails.
func TestRun_BrokerUnreachable(t *testing.T) {
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "config.json")
	machineID := filepath.Join(dir, "machine-id")
	if err := os.WriteFile(machineID, []byte("0123456789abcdef\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GRAYLOGIC_NODE_BROKER", "127.0.0.1")
	t.Setenv("GRAYLOGIC_NODE_CONFIG", writeSettings(t, `
node:
  config_path: "`+recordPath+`"
  hardware_id_path: "`+machineID+`"
mqtt:
  port: 19999
  connect_timeout: 2
database:
  enabled: true
  path: "`+filepath.Join(dir, "history.db")+`"
logging:
  level: debug
  output: discard
`))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx)
	if !errors.Is(err, link.ErrConnectFailed) {
		t.Fatalf("run() error = %v, want ErrConnectFailed", err)
	}

	cfg := nodeconfig.NewStore(nodeconfig.NewFileStorage(recordPath), nodeconfig.Defaults()).Load()
	want := nodeconfig.ClientIDFromHardware([]byte("0123456789abcdef"))
	if cfg.ClientID != want {
		t.Errorf("persisted client id = %q, want %q", cfg.ClientID, want)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "history.db")); statErr != nil {
		t.Errorf("history database not created: %v", statErr)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYLOGIC_NODE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/node.yaml"
	t.Setenv("GRAYLOGIC_NODE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestOpenStorage(t *testing.T) {
	if _, ok := openStorage("").(*nodeconfig.MemoryStorage); !ok {
		t.Error("empty path should use memory storage")
	}
	if _, ok := openStorage("/tmp/x.json").(*nodeconfig.FileStorage); !ok {
		t.Error("path should use file storage")
	}
}

// TestRunMaintenance_NoBinary verifies a node without a maintenance program
// stops cleanly.
func TestRunMaintenance_NoBinary(t *testing.T) {
	err := runMaintenance(context.Background(), config.MaintenanceConfig{}, "graylogic_test", logging.Discard())
	if err != nil {
		t.Errorf("runMaintenance() error = %v, want nil", err)
	}
}

func TestRunMaintenance_RunsProgram(t *testing.T) {
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("/bin/true not available")
	}

	s := config.MaintenanceConfig{Binary: "/bin/true", GracefulTimeout: 1}
	if err := runMaintenance(context.Background(), s, "graylogic_test", logging.Discard()); err != nil {
		t.Errorf("runMaintenance() error = %v, want nil", err)
	}
}
