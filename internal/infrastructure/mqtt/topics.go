package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTopicPrefix is the base for all bridge topics when the config
// leaves mqtt.topic_prefix empty.
const DefaultTopicPrefix = "daisy"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Device topics follow the flat scheme: {prefix}/{category}/{installation}/{device}
//
//	topics := mqtt.Topics{Prefix: "daisy"}
//	stateTopic := topics.DeviceState("INST-A", 101)
//	// Returns: "daisy/state/INST-A/101"
type Topics struct {
	// Prefix is the leading topic segment. Empty means DefaultTopicPrefix.
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// DeviceState returns the topic for a device's state updates. State
// messages are published retained so new subscribers see the last state.
//
// Example: daisy/state/INST-A/101
func (t Topics) DeviceState(installation string, deviceID int) string {
	return fmt.Sprintf("%s/state/%s/%d", t.prefix(), installation, deviceID)
}

// DeviceCommand returns the topic on which the bridge accepts commands
// for a device.
//
// Example: daisy/command/INST-A/101
func (t Topics) DeviceCommand(installation string, deviceID int) string {
	return fmt.Sprintf("%s/command/%s/%d", t.prefix(), installation, deviceID)
}

// DeviceAck returns the topic for command acknowledgment results.
//
// Example: daisy/ack/INST-A/101
func (t Topics) DeviceAck(installation string, deviceID int) string {
	return fmt.Sprintf("%s/ack/%s/%d", t.prefix(), installation, deviceID)
}

// Discovery returns the topic for an installation's device inventory.
//
// Example: daisy/discovery/INST-A
func (t Topics) Discovery(installation string) string {
	return fmt.Sprintf("%s/discovery/%s", t.prefix(), installation)
}

// Health returns the topic for an installation's reachability status.
//
// Example: daisy/health/INST-A
func (t Topics) Health(installation string) string {
	return fmt.Sprintf("%s/health/%s", t.prefix(), installation)
}

// SystemStatus returns the bridge's own online/offline status topic,
// also used as the Last Will topic.
//
// Example: daisy/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// AllDeviceCommands returns a pattern matching every device command topic.
//
// Pattern: daisy/command/+/+
func (t Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/command/+/+", t.prefix())
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: daisy/state/+/+
func (t Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/+/+", t.prefix())
}

// AllTopics returns a pattern matching every bridge topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: daisy/#
func (t Topics) AllTopics() string {
	return t.prefix() + "/#"
}

// ParseDeviceCommand extracts the installation code and device id from a
// command topic built by DeviceCommand.
//
// Returns ErrInvalidTopic when the topic does not match the command scheme.
func (t Topics) ParseDeviceCommand(topic string) (string, int, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != t.prefix() || parts[1] != "command" {
		return "", 0, fmt.Errorf("%w: %q is not a device command topic", ErrInvalidTopic, topic)
	}
	deviceID, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad device id in %q", ErrInvalidTopic, topic)
	}
	return parts[2], deviceID, nil
}
