package bridge

import (
	"errors"
	"testing"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
)

func TestIntParam(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    int
		wantErr bool
	}{
		{"valid", map[string]any{"percent": float64(66)}, 66, false},
		{"zero", map[string]any{"percent": float64(0)}, 0, false},
		{"missing", map[string]any{}, 0, true},
		{"fractional", map[string]any{"percent": 66.5}, 0, true},
		{"wrong type", map[string]any{"percent": "66"}, 0, true},
		{"nil params", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intParam(tt.params, "percent")
			if tt.wantErr {
				if !errors.Is(err, ErrBadPayload) {
					t.Fatalf("expected ErrBadPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("intParam: %v", err)
			}
			if got != tt.want {
				t.Fatalf("intParam = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRGBParams(t *testing.T) {
	rgb, err := rgbParams(map[string]any{
		"r": float64(200), "g": float64(10), "b": float64(0),
	})
	if err != nil {
		t.Fatalf("rgbParams: %v", err)
	}
	if rgb != (daisy.RGB{R: 200, G: 10, B: 0}) {
		t.Fatalf("unexpected channels: %+v", rgb)
	}

	if _, err := rgbParams(map[string]any{"r": float64(1), "g": float64(2)}); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload for missing channel, got %v", err)
	}
}

func TestBehaviorName(t *testing.T) {
	inst := &daisy.Installation{ID: 11, Code: "INST-A"}
	client := daisy.NewClient(daisy.Config{})

	tests := []struct {
		name    string
		typeID  int
		modelID int
		want    string
	}{
		{"slat cover", 24, 27, "slat_cover"},
		{"shade cover", 22, 1, "shade_cover"},
		{"rgb light", 23, 32, "rgb_light"},
		{"white light", 25, 1, "white_light"},
		{"level light", 21, 17, "level_light"},
		{"heater", 21, 20, "heater"},
		{"unknown", 99, 99, "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := daisy.NewDevice(daisy.DeviceInfo{TypeID: tt.typeID, ModelID: tt.modelID}, inst, client)
			if got := behaviorName(device); got != tt.want {
				t.Fatalf("behaviorName = %q, want %q", got, tt.want)
			}
		})
	}
}
