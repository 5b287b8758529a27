package daisy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// tmate message codes. WS-000 acknowledges acceptance of a command batch;
// WS-300 is the only message id the ack query may legally answer with.
const (
	msgCommandAccepted = "WS-000"
	msgAckResponse     = "WS-300"
)

// Terminal and non-terminal acknowledgment status texts.
const (
	ackReceived  = "RCV"  // queued, poll again
	ackProcessed = "PROC" // terminal success
)

// tmateMessage is the response shape shared by the command submission and
// acknowledgment services.
type tmateMessage struct {
	MessageID       string `json:"MessageID"`
	MessageText     string `json:"MessageText"`
	ActionReference string `json:"ActionReference"`
}

// FeedCommands submits a command batch for an installation and waits for
// the backend's asynchronous acknowledgment.
//
// The batch is routed by the installation's vendor code and tagged with the
// fixed non-scenario fields. A response whose message id is not the
// acceptance code is ErrCommandRejected. With ignoreAck set the call
// returns immediately after acceptance with an indeterminate result
// (AckResult.Success == nil) and never polls.
func (c *Client) FeedCommands(ctx context.Context, inst *Installation, commands []CommandRecord, ignoreAck bool) (AckResult, error) {
	body, err := c.tmatePost(ctx, pathFeedCommands, map[string]any{
		"commandsList":   commands,
		"idInstallation": inst.Code,
		"idScenario":     0,
		"isScenario":     false,
	})
	if err != nil {
		return AckResult{}, err
	}

	var msg tmateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return AckResult{}, fmt.Errorf("daisy: decode command response: %w", err)
	}
	if msg.MessageID != msgCommandAccepted {
		return AckResult{}, fmt.Errorf("%w: %s", ErrCommandRejected, compact(body))
	}

	result := AckResult{ActionReference: msg.ActionReference}
	if ignoreAck {
		return result, nil
	}
	return c.awaitAck(ctx, inst, msg.ActionReference)
}

// awaitAck polls the acknowledgment service until the action reaches a
// terminal state.
//
// State machine: a response that is not the expected ack message id is
// fatal (ErrAckProtocol, backend protocol change). RCV means the action is
// still queued: wait one interval and requery. PROC is terminal success.
// Any other status text is terminal failure, reported as Success=false
// without an error. The attempt budget guards against a backend that
// reports RCV forever; exhausting it is ErrAckTimeout.
func (c *Client) awaitAck(ctx context.Context, inst *Installation, actionReference string) (AckResult, error) {
	result := AckResult{ActionReference: actionReference}

	for attempt := 1; ; attempt++ {
		body, err := c.tmatePost(ctx, pathGetAck, map[string]any{
			"id":             actionReference,
			"idInstallation": inst.Code,
		})
		if err != nil {
			return result, err
		}

		var msg tmateMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return result, fmt.Errorf("daisy: decode ack response: %w", err)
		}
		if msg.MessageID != msgAckResponse {
			return result, fmt.Errorf("%w: %s", ErrAckProtocol, compact(body))
		}

		switch msg.MessageText {
		case ackReceived:
			// still queued
		case ackProcessed:
			ok := true
			result.Success = &ok
			return result, nil
		default:
			failed := false
			result.Success = &failed
			return result, nil
		}

		if c.ackMaxAttempts > 0 && attempt >= c.ackMaxAttempts {
			return result, fmt.Errorf("%w: action %s still queued after %d attempts",
				ErrAckTimeout, actionReference, attempt)
		}

		if err := sleep(ctx, c.ackInterval); err != nil {
			return result, err
		}
	}
}

// sleep waits for the given duration, honoring context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
