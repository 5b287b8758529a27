package daisy

// Wire-side response shapes. Field names mirror the vendor API exactly;
// conversion to the exported types happens immediately after decoding so
// nothing else in the package sees vendor naming.

type installationWire struct {
	ID              int      `json:"idInstallation"`
	Code            string   `json:"instCode"`
	Description     string   `json:"instDescription"`
	FirmwareVersion string   `json:"firmwareVersion"`
	DeviceID        int      `json:"idInstallationDevice"`
	Order           int      `json:"installationOrder"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ActiveTimer     string   `json:"activetimer"`
	Weekend         *string  `json:"weekend"`
	Workdays        *string  `json:"workdays"`
}

func (w installationWire) toInstallation() Installation {
	inst := Installation{
		ID:              w.ID,
		Code:            w.Code,
		Description:     w.Description,
		FirmwareVersion: w.FirmwareVersion,
		DeviceID:        w.DeviceID,
		Order:           w.Order,
		ActiveTimer:     w.ActiveTimer,
	}
	if w.Latitude != nil {
		inst.Latitude = *w.Latitude
	}
	if w.Longitude != nil {
		inst.Longitude = *w.Longitude
	}
	if w.Weekend != nil {
		inst.Weekend = *w.Weekend
	}
	if w.Workdays != nil {
		inst.Workdays = *w.Workdays
	}
	return inst
}

type deviceWire struct {
	Code                 string  `json:"deviceCode"`
	Index                int     `json:"deviceIndex"`
	Order                int     `json:"deviceOrder"`
	TypeID               int     `json:"idDevicetype"`
	ModelID              int     `json:"idDevicemodel"`
	InstallationDeviceID int     `json:"idInstallationDevice"`
	Label                string  `json:"label"`
	RemoteControlCode    string  `json:"remoteControlCode"`
	Favorite             string  `json:"favorite"`
	Feedback             string  `json:"feedback"`
	ActiveTimer          string  `json:"activetimer"`
	DirectOnly           *string `json:"directOnly"`
}

func (w deviceWire) toInfo() DeviceInfo {
	info := DeviceInfo{
		Code:                 w.Code,
		Index:                w.Index,
		Order:                w.Order,
		TypeID:               w.TypeID,
		ModelID:              w.ModelID,
		InstallationDeviceID: w.InstallationDeviceID,
		Label:                w.Label,
		RemoteControlCode:    w.RemoteControlCode,
		Favorite:             w.Favorite,
		Feedback:             w.Feedback,
		ActiveTimer:          w.ActiveTimer,
	}
	if w.DirectOnly != nil {
		info.DirectOnly = *w.DirectOnly
	}
	return info
}

type roomWire struct {
	ID          int          `json:"idInstallationRoom"`
	TypeID      int          `json:"idRoomtype"`
	Description string       `json:"roomDescription"`
	Order       int          `json:"roomOrder"`
	Devices     []deviceWire `json:"deviceList"`
}

type statusItemWire struct {
	ID       int     `json:"idInstallationDeviceStatusitem"`
	ModelID  int     `json:"idDevicetypeStatusitemModel"`
	Code     string  `json:"statusitemCode"`
	Name     string  `json:"statusItem"`
	Value    string  `json:"statusValue"`
	LowLevel *string `json:"lowlevelStatusitem"`
}

func (w statusItemWire) toStatusItem() StatusItem {
	item := StatusItem{
		ID:      w.ID,
		ModelID: w.ModelID,
		Code:    w.Code,
		Name:    w.Name,
		Value:   w.Value,
	}
	if w.LowLevel != nil {
		item.LowLevel = *w.LowLevel
	}
	return item
}

// DeviceCommand is one catalog entry from the room configuration list: a
// command the backend advertises for a device. Informational only.
type DeviceCommand struct {
	Action                      string
	Code                        string
	Param                       string
	DeviceIndex                 int
	ModelCommandID              int
	InstallationDeviceCommandID int
	LowLevel                    string
}

// DeviceCatalog pairs a device identity with its advertised command list.
type DeviceCatalog struct {
	Info     DeviceInfo
	Commands []DeviceCommand
}

// RoomConfiguration mirrors Room but carries command catalogs instead of
// controllable behaviors.
type RoomConfiguration struct {
	ID          int
	TypeID      int
	Description string
	Order       int
	Devices     []DeviceCatalog
}

type deviceCommandWire struct {
	Action                      string  `json:"commandAction"`
	Code                        string  `json:"commandCode"`
	Param                       string  `json:"commandParam"`
	DeviceIndex                 int     `json:"deviceIndex"`
	ModelCommandID              int     `json:"idDevicetypeCommandModel"`
	InstallationDeviceCommandID int     `json:"idInstallationDeviceCommand"`
	LowLevel                    *string `json:"lowlevelCommand"`
}

type deviceCatalogWire struct {
	deviceWire
	Commands []deviceCommandWire `json:"deviceCommandList"`
}

type roomConfigurationWire struct {
	ID          int                 `json:"idInstallationRoom"`
	TypeID      int                 `json:"idRoomtype"`
	Description string              `json:"roomDescription"`
	Order       int                 `json:"roomOrder"`
	Devices     []deviceCatalogWire `json:"deviceList"`
}

func (w roomConfigurationWire) toRoomConfiguration() RoomConfiguration {
	room := RoomConfiguration{
		ID:          w.ID,
		TypeID:      w.TypeID,
		Description: w.Description,
		Order:       w.Order,
		Devices:     make([]DeviceCatalog, 0, len(w.Devices)),
	}
	for _, dw := range w.Devices {
		catalog := DeviceCatalog{
			Info:     dw.toInfo(),
			Commands: make([]DeviceCommand, 0, len(dw.Commands)),
		}
		for _, cw := range dw.Commands {
			cmd := DeviceCommand{
				Action:                      cw.Action,
				Code:                        cw.Code,
				Param:                       cw.Param,
				DeviceIndex:                 cw.DeviceIndex,
				ModelCommandID:              cw.ModelCommandID,
				InstallationDeviceCommandID: cw.InstallationDeviceCommandID,
			}
			if cw.LowLevel != nil {
				cmd.LowLevel = *cw.LowLevel
			}
			catalog.Commands = append(catalog.Commands, cmd)
		}
		room.Devices = append(room.Devices, catalog)
	}
	return room
}
