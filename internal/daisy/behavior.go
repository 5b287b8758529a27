package daisy

import "context"

// Device is the behavior contract shared by every resolved device.
//
// The concrete set is closed: *SlatCover, *ShadeCover, *RGBLight,
// *WhiteLight, *LevelLight, *Heater and *GenericDevice. Callers reach the
// control surface of a family through a type switch or assertion; the
// shared interface only exposes identity and status refresh.
type Device interface {
	// Info returns the vendor identity of the device.
	Info() DeviceInfo

	// Installation returns the hub the device belongs to.
	Installation() *Installation

	// UpdateState queries the device's status items, applies every
	// recognized item to the behavior's cached state, and returns the
	// full raw sequence. Unrecognized item codes are ignored.
	// Refreshing twice against an unchanged backend yields identical
	// cached state.
	UpdateState(ctx context.Context) ([]StatusItem, error)
}

// baseDevice carries the identity and the non-owning references every
// behavior needs to act: the installation it routes through and the client
// holding the session.
type baseDevice struct {
	info   DeviceInfo
	inst   *Installation
	client *Client
}

func (d *baseDevice) Info() DeviceInfo { return d.info }

func (d *baseDevice) Installation() *Installation { return d.inst }

// fetchStatus retrieves the raw status items for this device.
func (d *baseDevice) fetchStatus(ctx context.Context) ([]StatusItem, error) {
	return d.client.StatusDeviceList(ctx, d.inst, d.info.InstallationDeviceID)
}

// send submits a single command record built from one table row.
func (d *baseDevice) send(ctx context.Context, action string, cmd commandDef) (AckResult, error) {
	record := cmd.record(action, d.info)
	return d.client.FeedCommands(ctx, d.inst, []CommandRecord{record}, false)
}

// GenericDevice is the fallback for unknown type/model pairs. It exposes
// status refresh only; the raw items from the last refresh are cached.
type GenericDevice struct {
	baseDevice

	// LastStatus holds the raw items from the most recent UpdateState.
	LastStatus []StatusItem
}

func newGenericDevice(base baseDevice) Device {
	return &GenericDevice{baseDevice: base}
}

// UpdateState refreshes and caches the raw status items.
func (d *GenericDevice) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.LastStatus = items
	return items, nil
}
