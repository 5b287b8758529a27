package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
	"github.com/nerrad567/daisy-bridge/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// defaultPollInterval is the state refresh period when options leave
	// it unset.
	defaultPollInterval = 30 * time.Second

	// defaultCommandTimeout bounds a single command dispatch including its
	// acknowledgment wait.
	defaultCommandTimeout = 150 * time.Second
)

// Bridge republishes Teleco Daisy cloud state onto MQTT and forwards MQTT
// commands to the cloud. It handles:
//   - Discovering installations, rooms and devices at startup
//   - Periodic state polling with retained state publishes on change
//   - Receiving device commands and publishing acknowledgment results
//   - Per-installation health reporting
//
// Cloud calls are serialized: the vendor service shares one session and
// tolerates little concurrency, so the poll loop and command handlers take
// the same lock.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	daisy  *daisy.Client
	mqtt   MQTTClient
	topics mqtt.Topics
	qos    byte

	pollInterval   time.Duration
	commandTimeout time.Duration
	installFilter  map[string]bool // empty means every installation

	// Device index built at Start.
	devices   map[string]map[int]daisy.Device // installation code -> device id
	installs  []*daisy.Installation
	indexMu   sync.RWMutex
	daisyMu   sync.Mutex // serializes every cloud call
	stateseen map[string]map[string]any
	stateMu   sync.Mutex

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger Logger
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Daisy is the logged-in cloud client.
	Daisy *daisy.Client

	// MQTT is the MQTT client implementation.
	MQTT MQTTClient

	// Topics builds the bridge's topic names.
	Topics mqtt.Topics

	// QoS is the quality-of-service level for bridge publishes.
	QoS byte

	// PollInterval is the state refresh period. Zero means the default.
	PollInterval time.Duration

	// CommandTimeout bounds a command dispatch including its
	// acknowledgment wait. Zero means the default.
	CommandTimeout time.Duration

	// Installations restricts the bridge to the named installation codes.
	// Empty means every installation on the account.
	Installations []string

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Daisy == nil {
		return nil, fmt.Errorf("daisy client is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	commandTimeout := opts.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}

	filter := make(map[string]bool, len(opts.Installations))
	for _, code := range opts.Installations {
		filter[code] = true
	}

	// Bridge-level context aborts in-flight commands on Stop
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		daisy:          opts.Daisy,
		mqtt:           opts.MQTT,
		topics:         opts.Topics,
		qos:            opts.QoS,
		pollInterval:   pollInterval,
		commandTimeout: commandTimeout,
		installFilter:  filter,
		devices:        make(map[string]map[int]daisy.Device),
		stateseen:      make(map[string]map[string]any),
		done:           make(chan struct{}),
		ctx:            ctx,
		ctxCancel:      ctxCancel,
		logger:         opts.Logger,
	}, nil
}

// Start discovers the account's installations and devices, publishes the
// discovery inventory, subscribes to command topics, and begins the state
// poll loop.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.discover(ctx); err != nil {
		return fmt.Errorf("discovering installations: %w", err)
	}

	commandTopic := b.topics.AllDeviceCommands()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	// Seed retained state before the first tick
	b.pollOnce()

	b.wg.Add(1)
	go b.pollLoop()

	b.indexMu.RLock()
	installCount := len(b.installs)
	deviceCount := 0
	for _, byID := range b.devices {
		deviceCount += len(byID)
	}
	b.indexMu.RUnlock()

	b.logInfo("bridge started",
		"installations", installCount,
		"devices", deviceCount,
		"poll_interval", b.pollInterval)

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Abort in-flight commands and polls
		b.ctxCancel()

		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// discover loads the account's installations and rooms, builds the device
// index, and publishes one retained discovery message per installation.
func (b *Bridge) discover(ctx context.Context) error {
	b.daisyMu.Lock()
	defer b.daisyMu.Unlock()

	installs, err := b.daisy.Installations(ctx)
	if err != nil {
		return err
	}

	index := make(map[string]map[int]daisy.Device)
	var kept []*daisy.Installation

	for i := range installs {
		inst := &installs[i]
		if len(b.installFilter) > 0 && !b.installFilter[inst.Code] {
			continue
		}

		rooms, err := b.daisy.Rooms(ctx, inst)
		if err != nil {
			return fmt.Errorf("loading rooms for %s: %w", inst.Code, err)
		}

		byID := make(map[int]daisy.Device)
		discovery := DiscoveryMessage{
			Installation: inst.Code,
			Description:  inst.Description,
			Timestamp:    time.Now().UTC(),
		}
		for _, room := range rooms {
			dr := DiscoveryRoom{ID: room.ID, Description: room.Description}
			for _, device := range room.Devices {
				info := device.Info()
				byID[info.InstallationDeviceID] = device
				dr.Devices = append(dr.Devices, DiscoveryDevice{
					DeviceID: info.InstallationDeviceID,
					Label:    info.Label,
					Type:     behaviorName(device),
					TypeID:   info.TypeID,
					ModelID:  info.ModelID,
				})
			}
			discovery.Rooms = append(discovery.Rooms, dr)
		}

		index[inst.Code] = byID
		kept = append(kept, inst)

		if err := b.publishJSON(b.topics.Discovery(inst.Code), discovery, true); err != nil {
			b.logError("failed to publish discovery", err)
		}

		b.logInfo("installation discovered",
			"installation", inst.Code,
			"rooms", len(rooms),
			"devices", len(byID))
	}

	b.indexMu.Lock()
	b.devices = index
	b.installs = kept
	b.indexMu.Unlock()

	return nil
}

// pollLoop refreshes device state on the configured interval until Stop.
func (b *Bridge) pollLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.pollOnce()
		}
	}
}

// pollOnce refreshes every indexed device and publishes changed states
// retained. A failing device marks its installation unreachable but does
// not stop the sweep.
func (b *Bridge) pollOnce() {
	b.indexMu.RLock()
	installs := b.installs
	devices := b.devices
	b.indexMu.RUnlock()

	for _, inst := range installs {
		var firstErr error

		for deviceID, device := range devices[inst.Code] {
			items, err := b.refreshDevice(device)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				b.logWarn("state refresh failed",
					"installation", inst.Code,
					"device", deviceID,
					"error", err)
				continue
			}
			b.publishState(inst.Code, deviceID, device, items)
		}

		b.publishHealth(inst.Code, firstErr)

		select {
		case <-b.done:
			return
		default:
		}
	}
}

// refreshDevice performs one serialized status query.
func (b *Bridge) refreshDevice(device daisy.Device) ([]daisy.StatusItem, error) {
	b.daisyMu.Lock()
	defer b.daisyMu.Unlock()
	return device.UpdateState(b.ctx)
}

// publishState publishes a retained state message when the device's state
// differs from the last published one.
func (b *Bridge) publishState(installation string, deviceID int, device daisy.Device, items []daisy.StatusItem) {
	state := buildState(device, items)
	topic := b.topics.DeviceState(installation, deviceID)

	b.stateMu.Lock()
	unchanged := reflect.DeepEqual(b.stateseen[topic], state)
	if !unchanged {
		b.stateseen[topic] = state
	}
	b.stateMu.Unlock()
	if unchanged {
		return
	}

	msg := StateMessage{
		Installation: installation,
		DeviceID:     deviceID,
		Timestamp:    time.Now().UTC(),
		Type:         behaviorName(device),
		State:        state,
	}
	if err := b.publishJSON(topic, msg, true); err != nil {
		b.logError("failed to publish state", err)
	}
}

// publishHealth publishes an installation's retained reachability status.
func (b *Bridge) publishHealth(installation string, pollErr error) {
	msg := HealthMessage{
		Installation: installation,
		Timestamp:    time.Now().UTC(),
		Reachable:    pollErr == nil,
	}
	if pollErr != nil {
		msg.Error = pollErr.Error()
	}
	if err := b.publishJSON(b.topics.Health(installation), msg, true); err != nil {
		b.logError("failed to publish health", err)
	}
}

// handleCommand decodes a device command, dispatches it to the cloud, and
// publishes the acknowledgment result. It runs on the MQTT client's
// handler goroutine; the dispatch itself blocks on the cloud ack.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	installation, deviceID, err := b.topics.ParseDeviceCommand(topic)
	if err != nil {
		return err
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	device, err := b.lookupDevice(installation, deviceID)
	if err != nil {
		b.publishAck(installation, deviceID, cmd.ID, daisy.AckResult{}, err)
		return err
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.commandTimeout)
	defer cancel()

	b.daisyMu.Lock()
	result, err := dispatch(ctx, device, cmd)
	b.daisyMu.Unlock()

	b.publishAck(installation, deviceID, cmd.ID, result, err)
	if err != nil {
		return err
	}

	// Refresh the device so the retained state reflects the command
	if items, rerr := b.refreshDevice(device); rerr == nil {
		b.publishState(installation, deviceID, device, items)
	}

	return nil
}

// lookupDevice resolves a command target against the discovery index.
func (b *Bridge) lookupDevice(installation string, deviceID int) (daisy.Device, error) {
	b.indexMu.RLock()
	defer b.indexMu.RUnlock()

	byID, ok := b.devices[installation]
	if !ok {
		return nil, fmt.Errorf("%w: installation %q", ErrUnknownDevice, installation)
	}
	device, ok := byID[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: device %d in %q", ErrUnknownDevice, deviceID, installation)
	}
	return device, nil
}

// publishAck publishes the acknowledgment outcome of a command.
func (b *Bridge) publishAck(installation string, deviceID int, commandID string, result daisy.AckResult, dispatchErr error) {
	msg := AckMessage{
		CommandID:       commandID,
		Timestamp:       time.Now().UTC(),
		Installation:    installation,
		DeviceID:        deviceID,
		ActionReference: result.ActionReference,
	}

	switch {
	case dispatchErr == nil && result.Ok():
		msg.Status = AckCompleted
	case errors.Is(dispatchErr, daisy.ErrAckTimeout):
		msg.Status = AckTimeout
		msg.Error = dispatchErr.Error()
	default:
		msg.Status = AckFailed
		if dispatchErr != nil {
			msg.Error = dispatchErr.Error()
		} else {
			msg.Error = "command reached a terminal failure state"
		}
	}

	if err := b.publishJSON(b.topics.DeviceAck(installation, deviceID), msg, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// publishJSON marshals and publishes one message.
func (b *Bridge) publishJSON(topic string, msg any, retained bool) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", topic, err)
	}
	return b.mqtt.Publish(topic, payload, b.qos, retained)
}

// logInfo logs at info level if a logger is configured.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs at warn level if a logger is configured.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error if a logger is configured.
func (b *Bridge) logError(msg string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}
