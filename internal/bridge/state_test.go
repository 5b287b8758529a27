package bridge

import (
	"reflect"
	"testing"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
)

func TestBuildStateOmitsUnknownFields(t *testing.T) {
	closed := true
	cover := &daisy.SlatCover{IsClosed: &closed}

	state := buildState(cover, nil)
	want := map[string]any{"is_closed": true}
	if !reflect.DeepEqual(state, want) {
		t.Fatalf("buildState = %v, want %v", state, want)
	}
}

func TestBuildStateSlatWithPosition(t *testing.T) {
	closed := false
	position := 66
	cover := &daisy.SlatCover{IsClosed: &closed, Position: &position}

	state := buildState(cover, nil)
	want := map[string]any{"is_closed": false, "position": 66}
	if !reflect.DeepEqual(state, want) {
		t.Fatalf("buildState = %v, want %v", state, want)
	}
}

func TestBuildStateRGBLight(t *testing.T) {
	on := true
	brightness := 80
	light := &daisy.RGBLight{
		IsOn:       &on,
		Brightness: &brightness,
		RGB:        &daisy.RGB{R: 10, G: 200, B: 3},
	}

	state := buildState(light, nil)
	want := map[string]any{
		"is_on":      true,
		"brightness": 80,
		"rgb":        map[string]int{"r": 10, "g": 200, "b": 3},
	}
	if !reflect.DeepEqual(state, want) {
		t.Fatalf("buildState = %v, want %v", state, want)
	}
}

func TestBuildStateGenericCarriesRawItems(t *testing.T) {
	inst := &daisy.Installation{ID: 11, Code: "INST-A"}
	device := daisy.NewDevice(daisy.DeviceInfo{TypeID: 99, ModelID: 99}, inst, daisy.NewClient(daisy.Config{}))

	items := []daisy.StatusItem{
		{Code: "CUSTOM", Value: "42", LowLevel: "CH2"},
		{Code: "OTHER", Value: "ON"},
	}
	state := buildState(device, items)

	raw, ok := state["status"].([]map[string]any)
	if !ok || len(raw) != 2 {
		t.Fatalf("expected raw status list, got %v", state)
	}
	if raw[0]["code"] != "CUSTOM" || raw[0]["lowlevel"] != "CH2" {
		t.Fatalf("unexpected first item: %v", raw[0])
	}
	if _, present := raw[1]["lowlevel"]; present {
		t.Fatalf("empty lowlevel must be omitted: %v", raw[1])
	}
}
