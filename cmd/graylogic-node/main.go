// Gray Logic Node - MQTT controlled LED strip and relay node
//
// The node listens on {client_id}/control and {client_id}/config, drives an
// addressable LED strip or a relay, and publishes its state back on
// {client_id}/state. Reconnection is left to the service supervisor: the
// process exits non-zero when the broker session ends unexpectedly.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-node/migrations"

	"github.com/nerrad567/gray-logic-node/internal/api"
	"github.com/nerrad567/gray-logic-node/internal/controller"
	"github.com/nerrad567/gray-logic-node/internal/device"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-node/internal/link"
	"github.com/nerrad567/gray-logic-node/internal/nodeconfig"
	"github.com/nerrad567/gray-logic-node/internal/peripheral"
	"github.com/nerrad567/gray-logic-node/internal/process"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default settings file path
const defaultConfigPath = "configs/node.yaml"

// pruneInterval is how often old state history rows are deleted.
const pruneInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the node together and blocks until shutdown, link loss or a
// maintenance hand-off. It returns nil for a clean shutdown and after the
// maintenance program exits.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Node",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	settingsPath := getConfigPath()
	settings, err := config.Load(settingsPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	log = logging.New(settings.Logging, version)
	log.Info("settings loaded", "path", settingsPath, "level", settings.Logging.Level)

	// Metrics (served by the API server)
	var nodeMetrics *metrics.Metrics
	var metricsHandler http.Handler
	if settings.Metrics.Enabled {
		reg := metrics.NewRegistry()
		nodeMetrics = metrics.New(reg)
		metricsHandler = metrics.Handler(reg)
	}

	// Device record
	store := nodeconfig.NewStore(openStorage(settings.Node.ConfigPath), nodeconfig.Defaults())
	store.SetLogger(log)
	store.OnSave(nodeMetrics.ObserveConfigSave)
	store.SetHardwareIDSource(nodeconfig.MachineHardwareID(settings.Node.HardwareIDPath))
	cfg := store.Load()
	log = log.With("client_id", cfg.ClientID)
	log.Info("device record loaded", "variant", string(cfg.Variant), "broker", cfg.Broker)

	// Peripheral
	hw, err := peripheral.Open(settings.Peripheral.Driver, cfg, log)
	if err != nil {
		return fmt.Errorf("opening peripheral: %w", err)
	}
	log.Info("peripheral opened", "driver", settings.Peripheral.Driver)

	// Health checks reported by /health
	checks := map[string]api.HealthChecker{}

	// State history (optional)
	var history *device.SQLiteStateHistoryRepository
	if settings.Database.Enabled {
		db, dbErr := openDatabase(ctx, settings.Database, log)
		if dbErr != nil {
			return dbErr
		}
		checks["database"] = db
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		history = device.NewSQLiteStateHistoryRepository(db.DB)
		go pruneHistory(ctx, history, settings.GetRetention(), log)
	} else {
		log.Info("state history disabled")
	}

	// Telemetry (optional)
	var influxClient *influxdb.Client
	if settings.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, settings.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		checks["influxdb"] = influxClient
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", settings.InfluxDB.URL, "bucket", settings.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Broker session
	mqttOpts := mqtt.NewOptions(settings.MQTT, cfg.Broker, cfg.ClientID)
	mqttClient := mqtt.New(mqttOpts)
	mqttClient.SetLogger(log)
	checks["mqtt"] = mqttClient

	lc := link.New(mqttClient, link.Options{
		Topics:         mqtt.Topics{}.Inbound(cfg.ClientID),
		QoS:            mqttOpts.QoS,
		ConnectTimeout: settings.GetConnectTimeout(),
	})
	lc.SetLogger(log)
	lc.OnStateChange(func(s link.State) {
		nodeMetrics.ObserveLinkState(s.String())
		if influxClient != nil {
			influxClient.WriteLinkState(cfg.ClientID, s.String())
		}
	})
	log.Info("connecting to broker", "url", mqttOpts.BrokerURL())

	// Controller
	opts := controller.DispatcherOptions{
		ClientID:  cfg.ClientID,
		State:     device.NewState(cfg.StateDefaults()),
		Store:     store,
		Driver:    hw.Driver,
		Publisher: mqttClient,
		Metrics:   nodeMetrics,
		Logger:    log,
	}
	if history != nil {
		opts.History = history
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}
	dispatcher, err := controller.NewDispatcher(opts)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	// Status API (optional)
	if settings.API.Enabled {
		deps := api.Deps{
			Config:   settings.API,
			Logger:   log,
			ClientID: cfg.ClientID,
			State:    dispatcher,
			Link:     lc,
			Metrics:  metricsHandler,
			Version:  version,
			Checks:   checks,
		}
		if history != nil {
			deps.History = history
		}
		apiServer, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr = apiServer.Start(ctx); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
	}

	var button peripheral.Button
	if hw.Button != nil {
		button = hw.Button
	}
	ctrl := controller.New(dispatcher, lc, button)
	ctrl.SetLogger(log)
	ctrl.OnButtonPress(nodeMetrics.ObserveButtonPress)

	err = ctrl.Run(ctx)
	switch {
	case errors.Is(err, controller.ErrMaintenanceRequested):
		return runMaintenance(ctx, settings.Maintenance, cfg.ClientID, log)
	case err != nil:
		return fmt.Errorf("control loop: %w", err)
	}

	log.Info("Gray Logic Node stopped")
	return nil
}

// getConfigPath returns the settings file path.
// Uses GRAYLOGIC_NODE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_NODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStorage returns file storage for path, or memory storage when no
// path is configured.
func openStorage(path string) nodeconfig.Storage {
	if path == "" {
		return nodeconfig.NewMemoryStorage()
	}
	return nodeconfig.NewFileStorage(path)
}

// openDatabase opens the state history database and applies migrations.
func openDatabase(ctx context.Context, s config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.NewConfig(s))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	log.Info("state history database ready", "path", db.Path())
	return db, nil
}

// pruneHistory deletes history older than retention until ctx is done.
func pruneHistory(ctx context.Context, repo *device.SQLiteStateHistoryRepository, retention time.Duration, log *logging.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		n, err := repo.PruneHistory(ctx, retention)
		if err != nil && ctx.Err() == nil {
			log.Warn("pruning state history failed", "error", err)
		} else if n > 0 {
			log.Info("pruned state history", "rows", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runMaintenance hands the node over to the maintenance program and waits
// for it. Without a configured program the node simply stops.
func runMaintenance(ctx context.Context, s config.MaintenanceConfig, clientID string, log *logging.Logger) error {
	mgr := process.NewManager(process.MaintenanceConfig(s, clientID))
	mgr.SetLogger(log)

	log.Info("entering maintenance mode", "binary", s.Binary)
	err := mgr.Run(ctx)
	switch {
	case errors.Is(err, process.ErrNoBinary):
		log.Warn("no maintenance program configured, stopping")
		return nil
	case errors.Is(err, context.Canceled):
		log.Info("maintenance interrupted by shutdown")
		return nil
	case err != nil:
		return fmt.Errorf("maintenance program: %w", err)
	}
	log.Info("maintenance program finished")
	return nil
}
