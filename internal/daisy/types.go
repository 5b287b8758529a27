package daisy

import "strconv"

// Installation identifies one physical Daisy control hub under an account.
//
// The numeric ID keys metadata queries (room list, status list); the vendor
// install code keys the tmate command channel (submission, ack polling,
// node status). Installations are immutable after discovery.
type Installation struct {
	ID              int
	Code            string // vendor install code, command-channel routing key
	Description     string
	FirmwareVersion string
	DeviceID        int // idInstallationDevice of the hub itself
	Order           int
	Latitude        float64
	Longitude       float64
	ActiveTimer     string
	Weekend         string
	Workdays        string
}

// Room is a named grouping of devices within an installation. Rooms are
// read-only after discovery; the device list order is the vendor's.
type Room struct {
	ID          int // idInstallationRoom
	TypeID      int // idRoomtype
	Description string
	Order       int
	Devices     []Device
}

// DeviceInfo carries the vendor identity of a controllable endpoint.
//
// TypeID and ModelID form the discriminator pair that selects the device
// behavior. Index is the vendor-side channel used inside command payloads
// (serialized as deviceCode); InstallationDeviceID routes status queries
// and acknowledgments.
type DeviceInfo struct {
	Code                 string
	Index                int
	Order                int
	TypeID               int // idDevicetype
	ModelID              int // idDevicemodel
	InstallationDeviceID int
	Label                string
	RemoteControlCode    string
	Favorite             string
	Feedback             string
	ActiveTimer          string
	DirectOnly           string
}

// StatusItem is one (code, value) reading returned by a device status
// query. Items are transient: produced per query, never persisted.
type StatusItem struct {
	ID       int    // idInstallationDeviceStatusitem
	ModelID  int    // idDevicetypeStatusitemModel
	Code     string // statusitemCode, e.g. "OPEN_CLOSE", "POWER", "COLOR"
	Name     string // statusItem
	Value    string // statusValue
	LowLevel string // lowlevelStatusitem, often absent
}

// Status item codes recognized by the built-in behaviors. Unrecognized
// codes are ignored during state refresh, never treated as errors.
const (
	statusOpenClose = "OPEN_CLOSE"
	statusLevel     = "LEVEL"
	statusPower     = "POWER"
	statusColor     = "COLOR"
)

// CommandRecord is one vendor-formatted instruction inside a command batch.
// Records are constructed fresh per control invocation and never mutated
// after submission. The JSON field names are part of the wire contract.
type CommandRecord struct {
	DeviceCode           string  `json:"deviceCode"`
	InstallationDeviceID int     `json:"idInstallationDevice"`
	Action               string  `json:"commandAction"`
	CommandID            int     `json:"commandId"`
	Param                string  `json:"commandParam"`
	LowLevel             *string `json:"lowlevelCommand"`
}

// Command action names used by the built-in behaviors.
const (
	actionOpenStopClose = "OPEN_STOP_CLOSE"
	actionLevel         = "LEVEL"
	actionPower         = "POWER"
	actionColor         = "COLOR"
)

// commandDef is one row of a per-family command table: the numeric command
// id, the command parameter string, and the low-level channel code. The
// tables are data, not logic; they differ per device family and hardware
// generation.
type commandDef struct {
	ID       int
	Param    string
	LowLevel string // empty means the record carries a null lowlevelCommand
}

// record builds the wire record for this definition against a device.
func (cd commandDef) record(action string, info DeviceInfo) CommandRecord {
	rec := CommandRecord{
		DeviceCode:           strconv.Itoa(info.Index),
		InstallationDeviceID: info.InstallationDeviceID,
		Action:               action,
		CommandID:            cd.ID,
		Param:                cd.Param,
	}
	if cd.LowLevel != "" {
		ll := cd.LowLevel
		rec.LowLevel = &ll
	}
	return rec
}

// AckResult is the outcome of one submitted command batch.
//
// Success is nil when acknowledgment was skipped (ignoreAck), true when the
// backend reported the batch processed, false on any other terminal state.
type AckResult struct {
	Success         *bool
	ActionReference string
}

// Ok reports whether the backend confirmed the batch as processed.
func (r AckResult) Ok() bool {
	return r.Success != nil && *r.Success
}

// RGB is a 24-bit color triple. Each channel is in [0, 255].
type RGB struct {
	R, G, B int
}
