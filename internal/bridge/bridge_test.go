package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/daisy-bridge/internal/daisy"
	"github.com/nerrad567/daisy-bridge/internal/infrastructure/mqtt"
)

// ============================================================================
// Test doubles
// ============================================================================

type publishRecord struct {
	topic    string
	payload  []byte
	retained bool
}

// fakeMQTT records publishes and captures the command subscription so tests
// can inject inbound messages without a broker.
type fakeMQTT struct {
	mu        sync.Mutex
	published []publishRecord
	handlers  map[string]mqtt.MessageHandler
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishRecord{topic: topic, payload: payload, retained: retained})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) IsConnected() bool { return true }

// inject delivers a payload on a concrete topic through the wildcard
// command subscription, the way the broker would.
func (f *fakeMQTT) inject(t *testing.T, topic string, payload []byte) error {
	t.Helper()

	f.mu.Lock()
	handler, ok := f.handlers["daisy/command/+/+"]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no command subscription registered: %v", f.subscriptions())
	}
	return handler(topic, payload)
}

func (f *fakeMQTT) subscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, 0, len(f.handlers))
	for topic := range f.handlers {
		topics = append(topics, topic)
	}
	return topics
}

// onTopic returns every publish that went to the given topic.
func (f *fakeMQTT) onTopic(topic string) []publishRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishRecord
	for _, rec := range f.published {
		if rec.topic == topic {
			out = append(out, rec)
		}
	}
	return out
}

// lastOn decodes the most recent publish on a topic into a generic map.
func (f *fakeMQTT) lastOn(t *testing.T, topic string) (map[string]any, bool) {
	t.Helper()

	records := f.onTopic(topic)
	if len(records) == 0 {
		return nil, false
	}
	var decoded map[string]any
	if err := json.Unmarshal(records[len(records)-1].payload, &decoded); err != nil {
		t.Fatalf("decoding payload on %s: %v", topic, err)
	}
	return decoded, true
}

// cloudScript serves the vendor endpoints the bridge exercises: login,
// discovery, status and the tmate command channel. The reported cover
// position is mutable so polls can observe changes.
type cloudScript struct {
	t *testing.T

	mu          sync.Mutex
	coverValue  string // OPEN_CLOSE status text served to status queries
	ackText     string // acknowledgment status text, "PROC" for success
	submissions int
	lastBatch   map[string]any
}

func (s *cloudScript) setCoverValue(v string) {
	s.mu.Lock()
	s.coverValue = v
	s.mu.Unlock()
}

func (s *cloudScript) submissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions
}

func (s *cloudScript) batch() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBatch
}

func (s *cloudScript) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/teleco/services/account-login":
		io.WriteString(w, `{"codEsito":"S","valRisultato":{"idSession":"sess-1","idAccount":4321}}`)

	case "/teleco/services/account-installation-list":
		io.WriteString(w, `{"codEsito":"S","valRisultato":{"installationList":[
			{"idInstallation":11,"instCode":"INST-A","instDescription":"Terrace",
			 "firmwareVersion":"2.4","idInstallationDevice":500,"installationOrder":1},
			{"idInstallation":12,"instCode":"INST-B","instDescription":"Cabin",
			 "firmwareVersion":"2.4","idInstallationDevice":501,"installationOrder":2}]}}`)

	case "/teleco/services/room-list":
		payload := s.decode(r)
		if payload["idInstallation"] != float64(11) {
			s.t.Fatalf("room list for unexpected installation: %v", payload)
		}
		io.WriteString(w, `{"codEsito":"S","valRisultato":{"roomList":[
			{"idInstallationRoom":7,"idRoomtype":1,"roomDescription":"Garden","roomOrder":1,
			 "deviceList":[
				{"deviceCode":"","deviceIndex":4,"deviceOrder":1,"idDevicetype":24,
				 "idDevicemodel":27,"idInstallationDevice":101,"label":"Pergola",
				 "remoteControlCode":"","favorite":"N","feedback":"Y","activetimer":"N"}]}]}}`)

	case "/teleco/services/status-device-list":
		s.mu.Lock()
		value := s.coverValue
		s.mu.Unlock()
		fmt.Fprintf(w, `{"codEsito":"S","valRisultato":{"statusitemList":[
			{"idInstallationDeviceStatusitem":1,"idDevicetypeStatusitemModel":2,
			 "statusitemCode":"OPEN_CLOSE","statusItem":"Position","statusValue":%q}]}}`, value)

	case "/teleco/services/tmate20/feedthecommands/":
		s.mu.Lock()
		s.submissions++
		s.mu.Unlock()
		batch := s.decode(r)
		s.mu.Lock()
		s.lastBatch = batch
		s.mu.Unlock()
		io.WriteString(w, `{"MessageID":"WS-000","ActionReference":"ref-42"}`)

	case "/teleco/services/tmate20/getackcommand/":
		s.mu.Lock()
		text := s.ackText
		s.mu.Unlock()
		fmt.Fprintf(w, `{"MessageID":"WS-300","MessageText":%q}`, text)

	default:
		s.t.Fatalf("unexpected path: %s", r.URL.Path)
	}
}

func (s *cloudScript) decode(r *http.Request) map[string]any {
	s.t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.t.Fatalf("reading request body: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		s.t.Fatalf("decoding request body: %v", err)
	}
	return decoded
}

// newTestBridge starts a scripted cloud backend and a bridge pointed at it,
// restricted to INST-A. The poll interval is effectively disabled so tests
// drive refreshes explicitly.
func newTestBridge(t *testing.T) (*Bridge, *fakeMQTT, *cloudScript) {
	t.Helper()

	script := &cloudScript{t: t, coverValue: "CLOSE", ackText: "PROC"}
	server := httptest.NewServer(script)
	t.Cleanup(server.Close)

	client := daisy.NewClient(daisy.Config{
		BaseURL:     server.URL + "/",
		AckInterval: time.Millisecond,
	})
	if err := client.Login(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	broker := newFakeMQTT()
	b, err := New(Options{
		Daisy:          client,
		MQTT:           broker,
		Topics:         mqtt.Topics{Prefix: "daisy"},
		QoS:            1,
		PollInterval:   time.Hour,
		CommandTimeout: 5 * time.Second,
		Installations:  []string{"INST-A"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(b.Stop)

	return b, broker, script
}

// ============================================================================
// Construction
// ============================================================================

func TestNewRequiresClients(t *testing.T) {
	if _, err := New(Options{MQTT: newFakeMQTT()}); err == nil {
		t.Fatal("expected error without daisy client")
	}
	if _, err := New(Options{Daisy: daisy.NewClient(daisy.Config{})}); err == nil {
		t.Fatal("expected error without MQTT client")
	}
}

// ============================================================================
// Discovery and startup
// ============================================================================

func TestStartPublishesDiscovery(t *testing.T) {
	_, broker, _ := newTestBridge(t)

	records := broker.onTopic("daisy/discovery/INST-A")
	if len(records) != 1 {
		t.Fatalf("expected one discovery publish, got %d", len(records))
	}
	if !records[0].retained {
		t.Fatal("discovery must be retained")
	}

	var msg DiscoveryMessage
	if err := json.Unmarshal(records[0].payload, &msg); err != nil {
		t.Fatalf("decoding discovery: %v", err)
	}
	if msg.Installation != "INST-A" || msg.Description != "Terrace" {
		t.Fatalf("unexpected discovery header: %+v", msg)
	}
	if len(msg.Rooms) != 1 || msg.Rooms[0].Description != "Garden" {
		t.Fatalf("unexpected rooms: %+v", msg.Rooms)
	}
	devices := msg.Rooms[0].Devices
	if len(devices) != 1 {
		t.Fatalf("expected one device, got %+v", devices)
	}
	if devices[0].DeviceID != 101 || devices[0].Type != "slat_cover" || devices[0].Label != "Pergola" {
		t.Fatalf("unexpected device entry: %+v", devices[0])
	}
}

func TestStartHonorsInstallationFilter(t *testing.T) {
	_, broker, _ := newTestBridge(t)

	if got := broker.onTopic("daisy/discovery/INST-B"); len(got) != 0 {
		t.Fatalf("filtered installation must not be discovered: %v", got)
	}
	if got := broker.onTopic("daisy/health/INST-B"); len(got) != 0 {
		t.Fatalf("filtered installation must not report health: %v", got)
	}
}

func TestStartSubscribesToCommands(t *testing.T) {
	_, broker, _ := newTestBridge(t)

	for _, topic := range broker.subscriptions() {
		if topic == "daisy/command/+/+" {
			return
		}
	}
	t.Fatalf("missing command subscription, got %v", broker.subscriptions())
}

func TestStartSeedsRetainedState(t *testing.T) {
	_, broker, _ := newTestBridge(t)

	records := broker.onTopic("daisy/state/INST-A/101")
	if len(records) != 1 {
		t.Fatalf("expected one seed state publish, got %d", len(records))
	}
	if !records[0].retained {
		t.Fatal("state must be retained")
	}

	var msg StateMessage
	if err := json.Unmarshal(records[0].payload, &msg); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if msg.Type != "slat_cover" || msg.Installation != "INST-A" || msg.DeviceID != 101 {
		t.Fatalf("unexpected state header: %+v", msg)
	}
	if closed, ok := msg.State["is_closed"].(bool); !ok || !closed {
		t.Fatalf("expected is_closed true, got %v", msg.State)
	}

	health, ok := broker.lastOn(t, "daisy/health/INST-A")
	if !ok {
		t.Fatal("missing health publish")
	}
	if health["reachable"] != true {
		t.Fatalf("expected reachable installation, got %v", health)
	}
}

// ============================================================================
// Polling
// ============================================================================

func TestPollPublishesOnlyOnChange(t *testing.T) {
	b, broker, script := newTestBridge(t)

	b.pollOnce()
	if got := len(broker.onTopic("daisy/state/INST-A/101")); got != 1 {
		t.Fatalf("unchanged poll must not republish, got %d state publishes", got)
	}

	script.setCoverValue("OPEN")
	b.pollOnce()

	records := broker.onTopic("daisy/state/INST-A/101")
	if len(records) != 2 {
		t.Fatalf("changed poll must republish, got %d state publishes", len(records))
	}
	var msg StateMessage
	if err := json.Unmarshal(records[1].payload, &msg); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if closed, ok := msg.State["is_closed"].(bool); !ok || closed {
		t.Fatalf("expected is_closed false after change, got %v", msg.State)
	}
}

// ============================================================================
// Command handling
// ============================================================================

func TestHandleCommandCompleted(t *testing.T) {
	_, broker, script := newTestBridge(t)

	payload := []byte(`{"id":"cmd-1","action":"close"}`)
	if err := broker.inject(t, "daisy/command/INST-A/101", payload); err != nil {
		t.Fatalf("inject: %v", err)
	}

	if script.submissionCount() != 1 {
		t.Fatalf("expected one cloud submission, got %d", script.submissionCount())
	}
	batch := script.batch()
	if batch["idInstallation"] != "INST-A" {
		t.Fatalf("submission routed to wrong installation: %v", batch)
	}
	commands, ok := batch["commandsList"].([]any)
	if !ok || len(commands) != 1 {
		t.Fatalf("unexpected commands list: %v", batch)
	}
	record := commands[0].(map[string]any)
	if record["commandId"] != float64(96) || record["commandParam"] != "CLOSE" {
		t.Fatalf("unexpected command record: %v", record)
	}

	ack, ok := broker.lastOn(t, "daisy/ack/INST-A/101")
	if !ok {
		t.Fatal("missing ack publish")
	}
	if ack["command_id"] != "cmd-1" {
		t.Fatalf("ack must echo the command id: %v", ack)
	}
	if ack["status"] != string(AckCompleted) {
		t.Fatalf("expected completed ack, got %v", ack)
	}
	if ack["action_reference"] != "ref-42" {
		t.Fatalf("ack must carry the cloud action reference: %v", ack)
	}
}

func TestHandleCommandGeneratesID(t *testing.T) {
	_, broker, _ := newTestBridge(t)

	if err := broker.inject(t, "daisy/command/INST-A/101", []byte(`{"action":"open"}`)); err != nil {
		t.Fatalf("inject: %v", err)
	}

	ack, ok := broker.lastOn(t, "daisy/ack/INST-A/101")
	if !ok {
		t.Fatal("missing ack publish")
	}
	id, _ := ack["command_id"].(string)
	if id == "" {
		t.Fatalf("expected a generated command id, got %v", ack)
	}
}

func TestHandleCommandUnknownDevice(t *testing.T) {
	_, broker, script := newTestBridge(t)

	err := broker.inject(t, "daisy/command/INST-A/999", []byte(`{"id":"cmd-9","action":"open"}`))
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
	if script.submissionCount() != 0 {
		t.Fatal("unknown device must not reach the cloud")
	}

	ack, ok := broker.lastOn(t, "daisy/ack/INST-A/999")
	if !ok {
		t.Fatal("missing failure ack")
	}
	if ack["status"] != string(AckFailed) || ack["command_id"] != "cmd-9" {
		t.Fatalf("unexpected failure ack: %v", ack)
	}
}

func TestHandleCommandBadPayload(t *testing.T) {
	_, broker, script := newTestBridge(t)

	err := broker.inject(t, "daisy/command/INST-A/101", []byte(`{not json`))
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
	if script.submissionCount() != 0 {
		t.Fatal("malformed payload must not reach the cloud")
	}
}

func TestHandleCommandUnsupportedAction(t *testing.T) {
	_, broker, script := newTestBridge(t)

	err := broker.inject(t, "daisy/command/INST-A/101", []byte(`{"id":"cmd-3","action":"turn_on"}`))
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
	if script.submissionCount() != 0 {
		t.Fatal("unsupported action must not reach the cloud")
	}

	ack, ok := broker.lastOn(t, "daisy/ack/INST-A/101")
	if !ok {
		t.Fatal("missing failure ack")
	}
	if ack["status"] != string(AckFailed) {
		t.Fatalf("expected failed ack, got %v", ack)
	}
	if msg, _ := ack["error"].(string); !strings.Contains(msg, "turn_on") {
		t.Fatalf("failure ack should name the action: %v", ack)
	}
}

func TestHandleCommandTerminalFailure(t *testing.T) {
	_, broker, script := newTestBridge(t)
	script.mu.Lock()
	script.ackText = "ERR"
	script.mu.Unlock()

	if err := broker.inject(t, "daisy/command/INST-A/101", []byte(`{"id":"cmd-4","action":"close"}`)); err != nil {
		t.Fatalf("inject: %v", err)
	}

	ack, ok := broker.lastOn(t, "daisy/ack/INST-A/101")
	if !ok {
		t.Fatal("missing ack publish")
	}
	if ack["status"] != string(AckFailed) {
		t.Fatalf("terminal failure must ack as failed: %v", ack)
	}
	if msg, _ := ack["error"].(string); msg == "" {
		t.Fatalf("failure ack must explain itself: %v", ack)
	}
}

func TestHandleCommandInvalidTopic(t *testing.T) {
	_, broker, script := newTestBridge(t)

	err := broker.inject(t, "daisy/command/INST-A/not-a-number", []byte(`{"action":"open"}`))
	if !errors.Is(err, mqtt.ErrInvalidTopic) {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
	if script.submissionCount() != 0 {
		t.Fatal("invalid topic must not reach the cloud")
	}
}

// ============================================================================
// Shutdown
// ============================================================================

func TestStopIsIdempotent(t *testing.T) {
	b, _, _ := newTestBridge(t)

	b.Stop()
	b.Stop()
}
