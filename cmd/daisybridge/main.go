// Daisy Bridge - Teleco Daisy to MQTT gateway
//
// This is the main entry point for the Daisy Bridge daemon. The bridge
// logs into the Teleco Daisy cloud service, discovers an account's
// installations and devices, and republishes their state onto an MQTT
// broker while forwarding MQTT commands back to the cloud.
//
// Run with -discover to print the account inventory and exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/daisy-bridge/internal/bridge"
	"github.com/nerrad567/daisy-bridge/internal/daisy"
	"github.com/nerrad567/daisy-bridge/internal/infrastructure/config"
	"github.com/nerrad567/daisy-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/daisy-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	discover := flag.Bool("discover", false, "print the account's installations, rooms and devices, then exit")
	flag.Parse()

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *discover); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context, discover bool) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Daisy Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Log into the Daisy cloud service
	client := daisy.NewClient(daisy.Config{
		BaseURL:        cfg.Daisy.BaseURL,
		HTTPTimeout:    cfg.GetHTTPTimeout(),
		AckInterval:    cfg.GetAckInterval(),
		AckMaxAttempts: cfg.Daisy.Ack.MaxAttempts,
	})
	if err := client.Login(ctx, cfg.Daisy.Email, cfg.Daisy.Password); err != nil {
		return fmt.Errorf("logging into Daisy cloud: %w", err)
	}
	log.Info("Daisy cloud session established")

	if discover {
		return runDiscover(ctx, client)
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Start the bridge
	b, err := bridge.New(bridge.Options{
		Daisy:          client,
		MQTT:           mqttClient,
		Topics:         mqttClient.Topics(),
		QoS:            byte(cfg.MQTT.QoS),
		PollInterval:   cfg.GetPollInterval(),
		CommandTimeout: cfg.GetCommandTimeout(),
		Installations:  cfg.Bridge.Installations,
		Logger:         log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	// Verify the broker connection is healthy before settling in
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Daisy Bridge stopped")
	return nil
}

// runDiscover walks the account's installations, rooms and devices and
// prints them with their current status items.
func runDiscover(ctx context.Context, client *daisy.Client) error {
	installs, err := client.Installations(ctx)
	if err != nil {
		return fmt.Errorf("listing installations: %w", err)
	}

	for i := range installs {
		inst := &installs[i]

		reachable := "unknown"
		if active, err := client.InstallationActive(ctx, inst); err == nil {
			reachable = fmt.Sprintf("%t", active)
		}
		fmt.Printf("Installation %s (%s), firmware %s, active: %s\n",
			inst.Code, inst.Description, inst.FirmwareVersion, reachable)

		rooms, err := client.Rooms(ctx, inst)
		if err != nil {
			return fmt.Errorf("listing rooms for %s: %w", inst.Code, err)
		}

		for _, room := range rooms {
			fmt.Printf("  Room %d: %s\n", room.ID, room.Description)
			for _, device := range room.Devices {
				info := device.Info()
				fmt.Printf("    Device %d: %s (type %d, model %d)\n",
					info.InstallationDeviceID, info.Label, info.TypeID, info.ModelID)

				items, err := device.UpdateState(ctx)
				if err != nil {
					fmt.Printf("      status unavailable: %v\n", err)
					continue
				}
				for _, item := range items {
					if item.LowLevel != "" {
						fmt.Printf("      %s = %s (%s)\n", item.Code, item.Value, item.LowLevel)
					} else {
						fmt.Printf("      %s = %s\n", item.Code, item.Value)
					}
				}
			}
		}
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses DAISYBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DAISYBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
