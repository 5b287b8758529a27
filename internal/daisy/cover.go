package daisy

import (
	"context"
	"fmt"
	"strconv"
)

// coverMotion keys the per-family open/stop/close command tables.
type coverMotion string

const (
	coverOpen  coverMotion = "open"
	coverStop  coverMotion = "stop"
	coverClose coverMotion = "close"
)

// Open/stop/close command tables. The triples differ per cover family;
// they are data, not logic.
var (
	slatCoverOSC = map[coverMotion]commandDef{
		coverOpen:  {ID: 94, Param: "OPEN", LowLevel: "CH4"},
		coverStop:  {ID: 95, Param: "STOP", LowLevel: "CH7"},
		coverClose: {ID: 96, Param: "CLOSE", LowLevel: "CH1"},
	}
	shadeCoverOSC = map[coverMotion]commandDef{
		coverOpen:  {ID: 75, Param: "OPEN", LowLevel: "CH5"},
		coverStop:  {ID: 76, Param: "STOP", LowLevel: "CH7"},
		coverClose: {ID: 77, Param: "CLOSE", LowLevel: "CH8"},
	}
)

// slatLevelCommands maps the slat cover's partial-open percentages to LEVEL
// commands. A 100% open routes through the OSC table instead.
var slatLevelCommands = map[int]commandDef{
	33:  {ID: 97, Param: "LEV2", LowLevel: "CH2"},
	66:  {ID: 98, Param: "LEV3", LowLevel: "CH3"},
	100: {ID: 99, Param: "LEV4", LowLevel: "CH4"},
}

// applyOpenClose interprets an OPEN_CLOSE status value as a tri-state
// closed flag: CLOSE, OPEN, or unknown (nil).
func applyOpenClose(value string) *bool {
	switch value {
	case "CLOSE":
		closed := true
		return &closed
	case "OPEN":
		closed := false
		return &closed
	default:
		return nil
	}
}

// SlatCover is a slat/louver cover (type 24, model 27). It supports
// stepwise partial opening in addition to full open/stop/close, and
// reports both a closed flag and a 0-100 position.
type SlatCover struct {
	baseDevice

	// IsClosed is the tri-state closed flag from the last refresh.
	IsClosed *bool

	// Position is the 0-100 slat position from the last refresh.
	Position *int
}

func newSlatCover(base baseDevice) Device {
	return &SlatCover{baseDevice: base}
}

// UpdateState refreshes the closed flag and position from the device's
// status items and returns the raw sequence.
func (d *SlatCover) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		switch item.Code {
		case statusOpenClose:
			d.IsClosed = applyOpenClose(item.Value)
		case statusLevel:
			if pos, perr := strconv.Atoi(item.Value); perr == nil {
				d.Position = &pos
			}
		}
	}
	return items, nil
}

// Open fully opens the cover.
func (d *SlatCover) Open(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, slatCoverOSC[coverOpen])
}

// OpenPercent opens the cover to one of the supported positions: 33, 66 or
// 100 percent. 100 routes through the plain open command; other values are
// ErrInvalidParameter.
func (d *SlatCover) OpenPercent(ctx context.Context, percent int) (AckResult, error) {
	if percent == 100 {
		return d.Open(ctx)
	}
	cmd, ok := slatLevelCommands[percent]
	if !ok {
		return AckResult{}, fmt.Errorf("%w: cover percent must be 33, 66 or 100, got %d",
			ErrInvalidParameter, percent)
	}
	return d.send(ctx, actionLevel, cmd)
}

// Stop halts cover movement.
func (d *SlatCover) Stop(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, slatCoverOSC[coverStop])
}

// Close fully closes the cover.
func (d *SlatCover) Close(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, slatCoverOSC[coverClose])
}

// ShadeCover is a shade or awning cover (type 22). It has no partial-open
// variant; opening always issues the family's plain open command.
type ShadeCover struct {
	baseDevice

	// IsClosed is the tri-state closed flag from the last refresh.
	IsClosed *bool
}

func newShadeCover(base baseDevice) Device {
	return &ShadeCover{baseDevice: base}
}

// UpdateState refreshes the closed flag from the device's status items and
// returns the raw sequence.
func (d *ShadeCover) UpdateState(ctx context.Context) ([]StatusItem, error) {
	items, err := d.fetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Code == statusOpenClose {
			d.IsClosed = applyOpenClose(item.Value)
		}
	}
	return items, nil
}

// Open opens the cover.
func (d *ShadeCover) Open(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, shadeCoverOSC[coverOpen])
}

// Stop halts cover movement.
func (d *ShadeCover) Stop(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, shadeCoverOSC[coverStop])
}

// Close closes the cover.
func (d *ShadeCover) Close(ctx context.Context) (AckResult, error) {
	return d.send(ctx, actionOpenStopClose, shadeCoverOSC[coverClose])
}
