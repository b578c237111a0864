// Gray Logic Bus - device bus network service
//
// This is the main entry point for the bus service. It places the nodes
// described by the layout file, scans every controller's bus on the bus
// loop, and exposes the discovered devices over HTTP and WebSocket.
// Label and facade changes are persisted to SQLite and replicated over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-bus/internal/api"
	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/cable"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-bus/internal/layout"
	"github.com/nerrad567/gray-logic-bus/internal/nodestore"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
	"github.com/nerrad567/gray-logic-bus/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := run
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		cmd = migrateDown
	}
	if err := cmd(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Bus",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Bus network and loop
	world := bus.NewWorld()
	network := bus.NewNetwork(world, bus.Config{MaxElements: cfg.Bus.MaxElements})
	network.SetLogger(log.Component("bus"))

	provider := bus.NewCapabilityDeviceProvider(rpc.NewBinder(cfg.Bus.BinderCacheSize))
	provider.SetLogger(log.Component("rpc"))
	network.AddDeviceProvider(provider)

	loop := bus.NewLoop(network, cfg.Bus.TickInterval)
	loop.SetLogger(log.Component("bus"))

	// Observers
	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	network.AddObserver(collector)

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	network.AddObserver(hub)
	replicator := replication.NewReplicator(hub)

	applier := replication.NewApplier(world, loop)

	var (
		sink   *replication.MQTTSink
		source *replication.Source
	)
	if cfg.Replication.Enabled {
		topics := mqtt.NewTopics(cfg.Replication.TopicPrefix)
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, topics)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"prefix", topics.Prefix(),
		)

		qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated to 0..2
		sink = replication.NewMQTTSink(mqttClient, topics, qos)
		sink.SetLogger(log.Component("replication"))
		replicator.AddSink(sink)
		network.AddObserver(sink)

		source = replication.NewSource(mqttClient, topics, qos, applier)
		source.SetLogger(log.Component("replication"))
	} else {
		log.Info("replication disabled")
	}

	var telemetry *influxdb.Client
	if cfg.InfluxDB.Enabled {
		telemetry, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetry.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		telemetry.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		network.AddObserver(telemetry)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Persistence must listen before the layout places nodes.
	persister := nodestore.NewPersister(world, nodestore.NewSQLiteRepository(db.DB))
	persister.SetLogger(log.Component("nodestore"))

	placed, err := placeLayout(cfg, network, replicator)
	if err != nil {
		return err
	}
	log.Info("layout placed",
		"path", cfg.Bus.LayoutFile,
		"cables", len(placed.Cables),
		"interfaces", len(placed.Interfaces),
		"controllers", len(placed.Controllers),
	)

	restored, err := persister.Restore(ctx)
	if err != nil {
		log.Warn("some stored nodes could not be restored", "error", err)
	}
	log.Info("node state restored", "nodes", restored)

	loop.AfterTick(func(ctx context.Context) {
		if flushErr := persister.Flush(ctx); flushErr != nil {
			log.Warn("persisting node state", "error", flushErr, "pending", persister.Pending())
		}
	})

	schemaStatus := func(ctx context.Context) (int, int, error) {
		applied, pending, statusErr := db.GetMigrationStatus(ctx, migrations.FS)
		return len(applied), len(pending), statusErr
	}
	apiDeps := api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Metrics:       cfg.Metrics,
		Logger:        log.Component("api"),
		Network:       network,
		Executor:      loop,
		Applier:       applier,
		Hub:           hub,
		Collector:     collector,
		InvokeTimeout: cfg.Bus.InvokeTimeout,
		Schema:        schemaStatus,
		Version:       version,
	}
	if telemetry != nil {
		apiDeps.Telemetry = telemetry
	}
	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	if sink != nil {
		g.Go(func() error {
			return sink.Run(gctx)
		})
	}
	if source != nil {
		g.Go(func() error {
			return source.Run(gctx)
		})
	}

	log.Info("initialisation complete", "tick_interval", cfg.Bus.TickInterval)
	err = g.Wait()

	log.Info("shutdown signal received, cleaning up")

	// The loop has stopped, so state can be read from here.
	if flushErr := persister.Flush(context.Background()); flushErr != nil {
		log.Error("final flush of node state failed", "error", flushErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("Gray Logic Bus stopped")
	return nil
}

// migrateDown rolls back the most recent schema migration and returns.
func migrateDown(ctx context.Context) error {
	log := logging.Default()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // nothing left to do on failure

	if err := db.MigrateDown(ctx, migrations.FS); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	applied, pending, err := db.GetMigrationStatus(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("migration rolled back",
		"path", cfg.Database.Path,
		"applied", len(applied),
		"pending", len(pending),
	)
	return nil
}

// placeLayout loads the layout file and places its nodes. A missing layout
// file is not an error: the bus starts empty.
func placeLayout(cfg *config.Config, network *bus.Network, sink replication.Sink) (*layout.Placed, error) {
	if cfg.Bus.LayoutFile == "" {
		return &layout.Placed{}, nil
	}
	if _, err := os.Stat(cfg.Bus.LayoutFile); errors.Is(err, os.ErrNotExist) {
		return &layout.Placed{}, nil
	}

	l, err := layout.Load(cfg.Bus.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}
	placed, err := l.Build(network, layout.Deps{Cable: cable.Options{
		Energy: cable.Energy{
			Base:             cfg.Bus.Energy.Base,
			CablePerTick:     cfg.Bus.Energy.CablePerTick,
			InterfacePerTick: cfg.Bus.Energy.InterfacePerTick,
		},
		Sink: sink,
	}})
	if err != nil {
		return nil, fmt.Errorf("placing layout: %w", err)
	}
	return placed, nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
