package bridge

import (
	"github.com/nerrad567/daisy-bridge/internal/daisy"
)

// buildState converts a device's cached fields into the state map carried
// by a StateMessage. Fields a device has not yet reported are left out so
// consumers can tell "unknown" from a zero value. Devices with no parsed
// representation carry their raw status items instead.
func buildState(device daisy.Device, items []daisy.StatusItem) map[string]any {
	state := make(map[string]any)

	switch d := device.(type) {
	case *daisy.SlatCover:
		putBool(state, "is_closed", d.IsClosed)
		putInt(state, "position", d.Position)

	case *daisy.ShadeCover:
		putBool(state, "is_closed", d.IsClosed)

	case *daisy.RGBLight:
		putBool(state, "is_on", d.IsOn)
		putInt(state, "brightness", d.Brightness)
		if d.RGB != nil {
			state["rgb"] = map[string]int{"r": d.RGB.R, "g": d.RGB.G, "b": d.RGB.B}
		}

	case *daisy.WhiteLight:
		putBool(state, "is_on", d.IsOn)
		putInt(state, "brightness", d.Brightness)

	case *daisy.LevelLight:
		putBool(state, "is_on", d.IsOn)
		putInt(state, "brightness", d.Brightness)

	default:
		state["status"] = rawItems(items)
	}

	return state
}

// rawItems projects status items into a JSON-friendly list.
func rawItems(items []daisy.StatusItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"code":  item.Code,
			"value": item.Value,
		}
		if item.LowLevel != "" {
			entry["lowlevel"] = item.LowLevel
		}
		out = append(out, entry)
	}
	return out
}

func putBool(state map[string]any, key string, v *bool) {
	if v != nil {
		state[key] = *v
	}
}

func putInt(state map[string]any, key string, v *int) {
	if v != nil {
		state[key] = *v
	}
}
