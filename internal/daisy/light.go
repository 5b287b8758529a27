package daisy

import (
	"context"
	"fmt"
	"strconv"
)

// lightCommands is one light family's command table: power on/off rows and
// the row carrying an encoded color parameter.
type lightCommands struct {
	On    commandDef
	Off   commandDef
	Color commandDef // Param filled in per call with the encoded color
}

var (
	// RGB controllers address no low-level channel.
	rgbLightCommands = lightCommands{
		On:    commandDef{ID: 138, Param: "ON"},
		Off:   commandDef{ID: 138, Param: "OFF"},
		Color: commandDef{ID: 137},
	}

	// Legacy white dimmers share the RGB wire format with a fixed white
	// triple and their own id/channel rows.
	whiteLightCommands = lightCommands{
		On:    commandDef{ID: 146, Param: "ON", LowLevel: "CH1"},
		Off:   commandDef{ID: 147, Param: "OFF", LowLevel: "CH8"},
		Color: commandDef{ID: 146, LowLevel: "CH1"},
	}
)

// whiteRGB is the triple used when a white-only light has no cached color.
var whiteRGB = RGB{R: 255, G: 255, B: 255}

// applyLightStatus folds one status item into cached light state, shared by
// every light family. Returns the possibly-updated fields.
func applyLightStatus(item StatusItem, isOn *bool, brightness *int, rgb *RGB) (*bool, *int, *RGB) {
	switch item.Code {
	case statusPower:
		on := item.Value == "ON"
		isOn = &on
	case statusColor:
		if b, c, err := decodeColor(item.Value); err == nil {
			brightness = &b
			rgb = &c
		}
	}
	return isOn, brightness, rgb
}

// RGBLight is a color-capable light (type 23, model 32).
type RGBLight struct {
	baseDevice

	// IsOn is the power flag from the last refresh.
	IsOn *bool

	// Brightness is the 0-100 brightness from the last refresh.
	Brightness *int

	// RGB is the color triple from the last refresh.
	RGB *RGB
}

func newRGBLight(base baseDevice) Device {
	return &RGBLight{baseDevice: base}
}

// UpdateState refreshes power, brightness and color from the device's
// status items and returns the raw sequence.
func (d *RGBLight) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		d.IsOn, d.Brightness, d.RGB = applyLightStatus(item, d.IsOn, d.Brightness, d.RGB)
	}
	return items, nil
}

// TurnOn switches the light on.
func (d *RGBLight) TurnOn(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, rgbLightCommands.On)
}

// TurnOff switches the light off.
func (d *RGBLight) TurnOff(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, rgbLightCommands.Off)
}

// SetColor sets the color triple and brightness in one command. Brightness
// must be in [0, 100] and each channel in [0, 255]; out-of-range values are
// ErrInvalidParameter before any network call.
func (d *RGBLight) SetColor(ctx context.Context, rgb RGB, brightness int) (AckResult, error) {
	encoded, err := encodeColor(brightness, rgb)
	if err != nil {
		return AckResult{}, err
	}
	cmd := rgbLightCommands.Color
	cmd.Param = encoded
	return d.send(ctx, actionColor, cmd)
}

// WhiteLight is a legacy dimmable white light (type 21 or 25 hardware that
// predates the four-level generations).
type WhiteLight struct {
	baseDevice

	// IsOn is the power flag from the last refresh.
	IsOn *bool

	// Brightness is the 0-100 brightness from the last refresh.
	Brightness *int

	// rgb caches the color triple some firmware reports alongside
	// brightness; reused when setting brightness.
	rgb *RGB
}

func newWhiteLight(base baseDevice) Device {
	return &WhiteLight{baseDevice: base}
}

// UpdateState refreshes power and brightness from the device's status items
// and returns the raw sequence.
func (d *WhiteLight) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		d.IsOn, d.Brightness, d.rgb = applyLightStatus(item, d.IsOn, d.Brightness, d.rgb)
	}
	return items, nil
}

// TurnOn switches the light on.
func (d *WhiteLight) TurnOn(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, whiteLightCommands.On)
}

// TurnOff switches the light off.
func (d *WhiteLight) TurnOff(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, whiteLightCommands.Off)
}

// SetBrightness sets the brightness, reusing the last reported color triple
// (plain white when none is cached). Brightness outside [0, 100] is
// ErrInvalidParameter.
func (d *WhiteLight) SetBrightness(ctx context.Context, brightness int) (AckResult, error) {
	rgb := whiteRGB
	if d.rgb != nil {
		rgb = *d.rgb
	}
	encoded, err := encodeColor(brightness, rgb)
	if err != nil {
		return AckResult{}, err
	}
	cmd := whiteLightCommands.Color
	cmd.Param = encoded
	return d.send(ctx, actionColor, cmd)
}

// levelCommands is a four-level light generation's command table: power
// rows plus one LEVEL row per quantized band.
type levelCommands struct {
	On    commandDef
	Off   commandDef
	Bands map[int]commandDef // keyed by band: 25, 50, 75, 100
}

// The two known four-level hardware generations use disjoint id tables.
var (
	levelCommandsGen1 = levelCommands{
		On:  commandDef{ID: 146, Param: "ON", LowLevel: "CH1"},
		Off: commandDef{ID: 147, Param: "OFF", LowLevel: "CH8"},
		Bands: map[int]commandDef{
			25:  {ID: 148, Param: "LEV1", LowLevel: "CH1"},
			50:  {ID: 149, Param: "LEV2", LowLevel: "CH2"},
			75:  {ID: 150, Param: "LEV3", LowLevel: "CH3"},
			100: {ID: 151, Param: "LEV4", LowLevel: "CH4"},
		},
	}
	levelCommandsGen2 = levelCommands{
		On:  commandDef{ID: 156, Param: "ON", LowLevel: "CH1"},
		Off: commandDef{ID: 157, Param: "OFF", LowLevel: "CH8"},
		Bands: map[int]commandDef{
			25:  {ID: 158, Param: "LEV1", LowLevel: "CH1"},
			50:  {ID: 159, Param: "LEV2", LowLevel: "CH2"},
			75:  {ID: 160, Param: "LEV3", LowLevel: "CH3"},
			100: {ID: 161, Param: "LEV4", LowLevel: "CH4"},
		},
	}
)

// quantizeBand maps a 1-100 brightness to the nearest supported band.
// Bands: 1-37 → 25, 38-62 → 50, 63-87 → 75, 88-100 → 100.
func quantizeBand(brightness int) int {
	switch {
	case brightness <= 37:
		return 25
	case brightness <= 62:
		return 50
	case brightness <= 87:
		return 75
	default:
		return 100
	}
}

// LevelLight is a four-level white light (type 21, models 17 and 34). Its
// dimmer only supports four discrete bands; requested brightness is
// quantized before being sent.
type LevelLight struct {
	baseDevice

	// IsOn is the power flag from the last refresh.
	IsOn *bool

	// Brightness is the band value from the last refresh.
	Brightness *int

	cmds levelCommands
}

func newLevelLight(base baseDevice, cmds levelCommands) Device {
	return &LevelLight{baseDevice: base, cmds: cmds}
}

// UpdateState refreshes power and band level from the device's status items
// and returns the raw sequence.
func (d *LevelLight) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		switch item.Code {
		case statusPower:
			on := item.Value == "ON"
			d.IsOn = &on
		case statusLevel:
			if level, perr := strconv.Atoi(item.Value); perr == nil {
				d.Brightness = &level
			}
		}
	}
	return items, nil
}

// TurnOn switches the light on.
func (d *LevelLight) TurnOn(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, d.cmds.On)
}

// TurnOff switches the light off.
func (d *LevelLight) TurnOff(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionPower, d.cmds.Off)
}

// SetBrightness quantizes the requested brightness to the nearest band and
// issues the band's LEVEL command. Zero turns the light off instead;
// values outside [0, 100] are ErrInvalidParameter.
func (d *LevelLight) SetBrightness(ctx context.Context, brightness int) (AckResult, error) {
	if brightness < 0 || brightness > 100 {
		return AckResult{}, fmt.Errorf("%w: brightness must be between 0 and 100, got %d",
			ErrInvalidParameter, brightness)
	}
	if brightness == 0 {
		return d.TurnOff(ctx)
	}
	return d.send(ctx, actionLevel, d.cmds.Bands[quantizeBand(brightness)])
}
