package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

const defaultGracefulTimeout = 10 * time.Second

// ErrNoBinary is returned by Run when Config.Binary is empty.
var ErrNoBinary = errors.New("process: no binary configured")

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration
}

// MaintenanceConfig builds the Config for the node's maintenance entry
// point. The node's client id is passed in the environment.
func MaintenanceConfig(s config.MaintenanceConfig, clientID string) Config {
	return Config{
		Name:            "maintenance",
		Binary:          s.Binary,
		Args:            s.Args,
		Env:             []string{"GRAYLOGIC_NODE_CLIENT_ID=" + clientID},
		GracefulTimeout: time.Duration(s.GracefulTimeout) * time.Second,
	}
}

// Logger defines the logging interface for the process manager.
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

// Manager runs a subprocess once and waits for it.
type Manager struct {
	config  Config
	logger  Logger
	running atomic.Bool
}

// NewManager creates a new process manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = defaultGracefulTimeout
	}
	return &Manager{
		config: cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Run starts the subprocess and blocks until it exits.
//
// Cancelling ctx terminates the process group: SIGTERM first, then SIGKILL
// after GracefulTimeout. A process stopped that way returns ctx.Err().
func (m *Manager) Run(ctx context.Context) error {
	if m.config.Binary == "" {
		return ErrNoBinary
	}

	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("process %s is already running", m.config.Name)
	}
	defer m.running.Store(false)

	cmd, err := m.start()
	if err != nil {
		return err
	}

	exitCh := make(chan error, 1)
	go func() {
		exitCh <- cmd.Wait()
	}()

	select {
	case err := <-exitCh:
		if err != nil {
			m.logger.Warn("process exited with error", "name", m.config.Name, "error", err)
			return fmt.Errorf("%s: %w", m.config.Name, err)
		}
		m.logger.Info("process exited", "name", m.config.Name)
		return nil

	case <-ctx.Done():
		m.terminate(cmd, exitCh)
		return ctx.Err()
	}
}

// start launches the subprocess in its own process group.
func (m *Manager) start() (*exec.Cmd, error) {
	m.logger.Info("starting process",
		"name", m.config.Name,
		"binary", m.config.Binary,
		"args", m.config.Args,
	)

	cmd := exec.Command(m.config.Binary, m.config.Args...) //nolint:gosec // Binary comes from operator settings

	// Own process group so shutdown signals reach children too
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	go m.captureOutput("stdout", stdout)
	go m.captureOutput("stderr", stderr)

	m.logger.Info("process started",
		"name", m.config.Name,
		"pid", cmd.Process.Pid,
	)

	return cmd, nil
}

// captureOutput logs each line the process writes.
func (m *Manager) captureOutput(stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.logger.Debug("process output",
			"name", m.config.Name,
			"stream", stream,
			"output", scanner.Text(),
		)
	}
}

// terminate sends SIGTERM to the process group, then SIGKILL after the
// graceful timeout, and waits for exit.
func (m *Manager) terminate(cmd *exec.Cmd, exitCh <-chan error) {
	pid := cmd.Process.Pid
	m.logger.Info("stopping process", "name", m.config.Name, "pid", pid)

	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Warn("failed to send SIGTERM to process group", "name", m.config.Name, "error", err)
	}

	select {
	case <-exitCh:
		m.logger.Info("process stopped gracefully", "name", m.config.Name)
		return
	case <-time.After(m.config.GracefulTimeout):
		m.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", m.config.Name,
			"timeout", m.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Error("killing process group", "name", m.config.Name, "error", err)
	}
	<-exitCh
	m.logger.Info("process killed", "name", m.config.Name)
}
