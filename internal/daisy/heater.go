package daisy

import (
	"context"
	"fmt"
)

// heaterCommands is the four-channel heater's command table: power rows
// plus one LEVEL row per supported output level.
type heaterCommands struct {
	On     commandDef
	Off    commandDef
	Levels map[int]commandDef // keyed by level percent: 50, 75, 100
}

var heaterCommandTable = heaterCommands{
	On:  commandDef{ID: 170, Param: "ON", LowLevel: "CH1"},
	Off: commandDef{ID: 171, Param: "OFF", LowLevel: "CH4"},
	Levels: map[int]commandDef{
		50:  {ID: 172, Param: "LEV2", LowLevel: "CH2"},
		75:  {ID: 173, Param: "LEV3", LowLevel: "CH3"},
		100: {ID: 174, Param: "LEV4", LowLevel: "CH4"},
	},
}

// Heater is a four-channel radiant heater (type 21, model 20). The backend
// reports no interpretable state for this family; UpdateState returns the
// raw items untouched.
type Heater struct {
	baseDevice
}

func newHeater(base baseDevice) Device {
	return &Heater{baseDevice: base}
}

// UpdateState returns the device's raw status items. No fields are cached;
// the heater's status codes carry no documented meaning.
func (d *Heater) UpdateState(ctx context.Context) ([]StatusItem, error) {
	return d.fetchStatus(ctx)
}

// TurnOn switches the heater on.
func (d *Heater) TurnOn(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, heaterCommandTable.On)
}

// TurnOff switches the heater off.
func (d *Heater) TurnOff(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, heaterCommandTable.Off)
}

// SetLevel sets the heater output to 50, 75 or 100 percent. Other values
// are ErrInvalidParameter.
func (d *Heater) SetLevel(ctx context.Context, level int) (AckResult, error) {
	cmd, ok := heaterCommandTable.Levels[level]
	if !ok {
		return AckResult{}, fmt.Errorf("%w: heater level must be 50, 75 or 100, got %d",
			ErrInvalidParameter, level)
	}
	return d.send(ctx, actionLevel, cmd)
}
