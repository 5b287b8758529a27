package bridge

import (
	"context"
	"fmt"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
)

// dispatch routes a command to the behavior method matching the device's
// resolved type. Validation failures surface as the daisy package's
// parameter errors; actions that do not apply to the type are
// ErrUnsupportedAction.
func dispatch(ctx context.Context, device daisy.Device, cmd CommandMessage) (daisy.AckResult, error) {
	switch d := device.(type) {
	case *daisy.SlatCover:
		switch cmd.Action {
		case ActionOpen:
			return d.Open(ctx)
		case ActionStop:
			return d.Stop(ctx)
		case ActionClose:
			return d.Close(ctx)
		case ActionOpenPercent:
			percent, err := intParam(cmd.Parameters, "percent")
			if err != nil {
				return daisy.AckResult{}, err
			}
			return d.OpenPercent(ctx, percent)
		}

	case *daisy.ShadeCover:
		switch cmd.Action {
		case ActionOpen:
			return d.Open(ctx)
		case ActionStop:
			return d.Stop(ctx)
		case ActionClose:
			return d.Close(ctx)
		}

	case *daisy.RGBLight:
		switch cmd.Action {
		case ActionTurnOn:
			return d.TurnOn(ctx)
		case ActionTurnOff:
			return d.TurnOff(ctx)
		case ActionSetColor:
			brightness, err := intParam(cmd.Parameters, "brightness")
			if err != nil {
				return daisy.AckResult{}, err
			}
			rgb, err := rgbParams(cmd.Parameters)
			if err != nil {
				return daisy.AckResult{}, err
			}
			return d.SetColor(ctx, rgb, brightness)
		}

	case *daisy.WhiteLight:
		switch cmd.Action {
		case ActionTurnOn:
			return d.TurnOn(ctx)
		case ActionTurnOff:
			return d.TurnOff(ctx)
		case ActionSetBrightness:
			brightness, err := intParam(cmd.Parameters, "brightness")
			if err != nil {
				return daisy.AckResult{}, err
			}
			return d.SetBrightness(ctx, brightness)
		}

	case *daisy.LevelLight:
		switch cmd.Action {
		case ActionTurnOn:
			return d.TurnOn(ctx)
		case ActionTurnOff:
			return d.TurnOff(ctx)
		case ActionSetBrightness:
			brightness, err := intParam(cmd.Parameters, "brightness")
			if err != nil {
				return daisy.AckResult{}, err
			}
			return d.SetBrightness(ctx, brightness)
		}

	case *daisy.Heater:
		switch cmd.Action {
		case ActionTurnOn:
			return d.TurnOn(ctx)
		case ActionTurnOff:
			return d.TurnOff(ctx)
		case ActionSetLevel:
			level, err := intParam(cmd.Parameters, "level")
			if err != nil {
				return daisy.AckResult{}, err
			}
			return d.SetLevel(ctx, level)
		}
	}

	return daisy.AckResult{}, fmt.Errorf("%w: %q for %s device",
		ErrUnsupportedAction, cmd.Action, behaviorName(device))
}

// intParam extracts an integer parameter. JSON numbers decode as float64;
// fractional values are rejected rather than truncated.
func intParam(params map[string]any, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing parameter %q", ErrBadPayload, key)
	}
	f, ok := raw.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: parameter %q must be an integer", ErrBadPayload, key)
	}
	return int(f), nil
}

// rgbParams extracts the r/g/b channel parameters of a set_color command.
func rgbParams(params map[string]any) (daisy.RGB, error) {
	r, err := intParam(params, "r")
	if err != nil {
		return daisy.RGB{}, err
	}
	g, err := intParam(params, "g")
	if err != nil {
		return daisy.RGB{}, err
	}
	b, err := intParam(params, "b")
	if err != nil {
		return daisy.RGB{}, err
	}
	return daisy.RGB{R: r, G: g, B: b}, nil
}
