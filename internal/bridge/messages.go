package bridge

import (
	"time"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
)

// MQTT message types exchanged between the bridge and its consumers.

// Command actions accepted on device command topics. Which actions apply
// depends on the target device's type.
const (
	ActionOpen          = "open"
	ActionStop          = "stop"
	ActionClose         = "close"
	ActionOpenPercent   = "open_percent"
	ActionTurnOn        = "turn_on"
	ActionTurnOff       = "turn_off"
	ActionSetBrightness = "set_brightness"
	ActionSetColor      = "set_color"
	ActionSetLevel      = "set_level"
)

// CommandMessage is received on a device command topic.
// Topic: {prefix}/command/{installation}/{device}
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with the ack.
	// Optional; the bridge generates one when empty.
	ID string `json:"id,omitempty"`

	// Action is the command name (e.g., "open", "set_brightness").
	Action string `json:"action"`

	// Parameters contains action-specific values.
	// Examples:
	//   {"percent": 66} for open_percent
	//   {"brightness": 80} for set_brightness
	//   {"brightness": 80, "r": 255, "g": 0, "b": 0} for set_color
	//   {"level": 75} for set_level
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckCompleted indicates the cloud confirmed the command was processed.
	AckCompleted AckStatus = "completed"

	// AckFailed indicates the command was refused or reported a terminal
	// failure.
	AckFailed AckStatus = "failed"

	// AckTimeout indicates the acknowledgment budget was exhausted before
	// the cloud reached a terminal state.
	AckTimeout AckStatus = "timeout"
)

// AckMessage is published after a command finishes.
// Topic: {prefix}/ack/{installation}/{device}
type AckMessage struct {
	// CommandID is the ID from the original command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgment was published (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Installation is the installation's vendor code.
	Installation string `json:"installation"`

	// DeviceID is the installation device id.
	DeviceID int `json:"device_id"`

	// Status indicates the acknowledgment outcome.
	Status AckStatus `json:"status"`

	// ActionReference is the cloud's correlation token for the submission,
	// when one was issued.
	ActionReference string `json:"action_reference,omitempty"`

	// Error is a human-readable failure description when Status is not
	// "completed".
	Error string `json:"error,omitempty"`
}

// StateMessage is published when a device's state is refreshed.
// Topic: {prefix}/state/{installation}/{device}
// QoS: 1, Retained: Yes
type StateMessage struct {
	// Installation is the installation's vendor code.
	Installation string `json:"installation"`

	// DeviceID is the installation device id.
	DeviceID int `json:"device_id"`

	// Timestamp is when the state was observed (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Type names the resolved device behavior
	// ("slat_cover", "shade_cover", "rgb_light", ...).
	Type string `json:"type"`

	// State contains the parsed device state. Structure depends on type:
	//   slat_cover:  {"is_closed": true, "position": 0}
	//   rgb_light:   {"is_on": true, "brightness": 80, "rgb": {"r":255,"g":0,"b":0}}
	// Unparsed fields are omitted until the first refresh reports them.
	State map[string]any `json:"state"`
}

// DiscoveryMessage is published once per installation after startup.
// Topic: {prefix}/discovery/{installation}
// QoS: 1, Retained: Yes
type DiscoveryMessage struct {
	// Installation is the installation's vendor code.
	Installation string `json:"installation"`

	// Description is the installation's display name.
	Description string `json:"description"`

	// Timestamp is when discovery ran (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Rooms lists the installation's rooms with their devices.
	Rooms []DiscoveryRoom `json:"rooms"`
}

// DiscoveryRoom is one room in a discovery message.
type DiscoveryRoom struct {
	ID          int               `json:"id"`
	Description string            `json:"description"`
	Devices     []DiscoveryDevice `json:"devices"`
}

// DiscoveryDevice is one device in a discovery message.
type DiscoveryDevice struct {
	DeviceID int    `json:"device_id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	TypeID   int    `json:"type_id"`
	ModelID  int    `json:"model_id"`
}

// HealthMessage reports an installation's cloud reachability.
// Topic: {prefix}/health/{installation}
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Installation string    `json:"installation"`
	Timestamp    time.Time `json:"timestamp"`
	Reachable    bool      `json:"reachable"`
	Error        string    `json:"error,omitempty"`
}

// behaviorName names a resolved device behavior for discovery and state
// messages.
func behaviorName(device daisy.Device) string {
	switch device.(type) {
	case *daisy.SlatCover:
		return "slat_cover"
	case *daisy.ShadeCover:
		return "shade_cover"
	case *daisy.RGBLight:
		return "rgb_light"
	case *daisy.WhiteLight:
		return "white_light"
	case *daisy.LevelLight:
		return "level_light"
	case *daisy.Heater:
		return "heater"
	default:
		return "generic"
	}
}
