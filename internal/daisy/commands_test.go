package daisy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

// tmateScript scripts the command submission and acknowledgment services:
// submission is accepted with a fixed action reference and each ack query
// consumes the next status text from the sequence.
type tmateScript struct {
	t        *testing.T
	ackTexts []string

	submissions int
	ackQueries  int
	lastBatch   map[string]any
}

func (s *tmateScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/" + pathFeedCommands:
		s.submissions++
		s.lastBatch = decodeRequest(s.t, r)
		io.WriteString(w, `{"MessageID":"WS-000","ActionReference":"ref-42"}`)
	case "/" + pathGetAck:
		payload := decodeRequest(s.t, r)
		if payload["id"] != "ref-42" {
			s.t.Fatalf("ack query for wrong action reference: %v", payload)
		}
		if payload["idInstallation"] != "INST-A" {
			s.t.Fatalf("ack query must be keyed by vendor code: %v", payload)
		}
		if s.ackQueries >= len(s.ackTexts) {
			s.t.Fatalf("unexpected ack query #%d", s.ackQueries+1)
		}
		text := s.ackTexts[s.ackQueries]
		s.ackQueries++
		fmt.Fprintf(w, `{"MessageID":"WS-300","MessageText":%q}`, text)
	default:
		s.t.Fatalf("unexpected path: %s", r.URL.Path)
	}
}

func testRecord() CommandRecord {
	ll := "CH1"
	return CommandRecord{
		DeviceCode:           "1",
		InstallationDeviceID: 101,
		Action:               "OPEN_STOP_CLOSE",
		CommandID:            96,
		Param:                "CLOSE",
		LowLevel:             &ll,
	}
}

func TestFeedCommandsPayloadShape(t *testing.T) {
	script := &tmateScript{t: t, ackTexts: []string{"PROC"}}
	c := newTestClient(t, script)
	inst := &Installation{ID: 11, Code: "INST-A"}

	result, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if err != nil {
		t.Fatalf("FeedCommands: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ActionReference != "ref-42" {
		t.Fatalf("unexpected action reference: %q", result.ActionReference)
	}

	batch := script.lastBatch
	if batch["idInstallation"] != "INST-A" {
		t.Fatalf("batch must be routed by vendor code: %v", batch)
	}
	if batch["idScenario"] != float64(0) || batch["isScenario"] != false {
		t.Fatalf("batch must carry the fixed scenario fields: %v", batch)
	}
	commands, ok := batch["commandsList"].([]any)
	if !ok || len(commands) != 1 {
		t.Fatalf("unexpected commandsList: %v", batch["commandsList"])
	}
	record, _ := commands[0].(map[string]any)
	want := map[string]any{
		"deviceCode":           "1",
		"idInstallationDevice": float64(101),
		"commandAction":        "OPEN_STOP_CLOSE",
		"commandId":            float64(96),
		"commandParam":         "CLOSE",
		"lowlevelCommand":      "CH1",
	}
	for key, value := range want {
		if record[key] != value {
			t.Errorf("record[%q] = %v, want %v", key, record[key], value)
		}
	}
	if len(record) != len(want) {
		t.Errorf("record carries unexpected fields: %v", record)
	}
}

func TestFeedCommandsRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"MessageID":"WS-904","MessageText":"invalid installation"}`)
	}))
	inst := &Installation{ID: 11, Code: "INST-A"}

	_, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("expected ErrCommandRejected, got %v", err)
	}
}

func TestFeedCommandsIgnoreAck(t *testing.T) {
	script := &tmateScript{t: t}
	c := newTestClient(t, script)
	inst := &Installation{ID: 11, Code: "INST-A"}

	result, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, true)
	if err != nil {
		t.Fatalf("FeedCommands: %v", err)
	}
	if result.Success != nil {
		t.Fatalf("ignoreAck must return an indeterminate result, got %+v", result)
	}
	if result.ActionReference != "ref-42" {
		t.Fatalf("unexpected action reference: %q", result.ActionReference)
	}
	if script.ackQueries != 0 {
		t.Fatalf("ignoreAck must not poll, issued %d queries", script.ackQueries)
	}
}

func TestAwaitAckPollsUntilProcessed(t *testing.T) {
	script := &tmateScript{t: t, ackTexts: []string{"RCV", "RCV", "PROC"}}
	c := newTestClient(t, script)
	inst := &Installation{ID: 11, Code: "INST-A"}

	result, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if err != nil {
		t.Fatalf("FeedCommands: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("expected success, got %+v", result)
	}
	if script.ackQueries != 3 {
		t.Fatalf("expected exactly 3 ack queries, got %d", script.ackQueries)
	}
}

func TestAwaitAckTerminalFailure(t *testing.T) {
	script := &tmateScript{t: t, ackTexts: []string{"RCV", "FOO"}}
	c := newTestClient(t, script)
	inst := &Installation{ID: 11, Code: "INST-A"}

	result, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if err != nil {
		t.Fatalf("FeedCommands: %v", err)
	}
	if result.Success == nil || *result.Success {
		t.Fatalf("expected terminal failure, got %+v", result)
	}
	if script.ackQueries != 2 {
		t.Fatalf("terminal failure must stop polling, issued %d queries", script.ackQueries)
	}
}

func TestAwaitAckProtocolMismatch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+pathFeedCommands {
			io.WriteString(w, `{"MessageID":"WS-000","ActionReference":"ref-42"}`)
			return
		}
		io.WriteString(w, `{"MessageID":"WS-500","MessageText":"RCV"}`)
	}))
	inst := &Installation{ID: 11, Code: "INST-A"}

	_, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if !errors.Is(err, ErrAckProtocol) {
		t.Fatalf("expected ErrAckProtocol, got %v", err)
	}
}

func TestAwaitAckBudgetExhausted(t *testing.T) {
	queries := 0
	server := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+pathFeedCommands {
			io.WriteString(w, `{"MessageID":"WS-000","ActionReference":"ref-42"}`)
			return
		}
		queries++
		io.WriteString(w, `{"MessageID":"WS-300","MessageText":"RCV"}`)
	})

	c := newTestClient(t, server)
	c.ackMaxAttempts = 3
	inst := &Installation{ID: 11, Code: "INST-A"}

	_, err := c.FeedCommands(context.Background(), inst, []CommandRecord{testRecord()}, false)
	if !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("expected ErrAckTimeout, got %v", err)
	}
	if queries != 3 {
		t.Fatalf("expected the budget to allow exactly 3 queries, got %d", queries)
	}
}

func TestAwaitAckHonorsCancellation(t *testing.T) {
	script := &tmateScript{t: t, ackTexts: []string{"RCV", "RCV", "RCV", "RCV"}}
	c := newTestClient(t, script)
	inst := &Installation{ID: 11, Code: "INST-A"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FeedCommands(ctx, inst, []CommandRecord{testRecord()}, false)
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
