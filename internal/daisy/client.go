package daisy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production Daisy service endpoint.
const DefaultBaseURL = "https://tmate.telecoautomation.com/"

// Fixed transport-level credentials. The Daisy backend authenticates the
// application with HTTP basic auth on every request; user identity is
// carried separately in the session envelope.
const (
	transportUser = "teleco"
	transportPass = "tmate20"
)

// Service paths relative to the base URL. The tmate20 paths are scoped to
// an installation's vendor code rather than the account session.
const (
	pathLogin             = "teleco/services/account-login"
	pathInstallationList  = "teleco/services/account-installation-list"
	pathRoomList          = "teleco/services/room-list"
	pathRoomConfiguration = "teleco/services/room-configuration-list"
	pathStatusDeviceList  = "teleco/services/status-device-list"
	pathScenarioList      = "teleco/services/scenario-list"
	pathScenarioCommands  = "teleco/services/command-scenario-list"
	pathNodeStatus        = "teleco/services/tmate20/nodestatus/"
	pathFeedCommands      = "teleco/services/tmate20/feedthecommands/"
	pathGetAck            = "teleco/services/tmate20/getackcommand/"
)

// resultOK is the success result code carried by session-enveloped
// responses in the codEsito field.
const resultOK = "S"

// Default dispatch settings (see Config).
const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultAckInterval    = 500 * time.Millisecond
	defaultAckMaxAttempts = 240 // 2 minutes at the default interval
)

// Config holds client settings. The zero value is usable: it targets the
// production endpoint with the default timeouts.
type Config struct {
	// BaseURL overrides the service endpoint. Used by tests.
	BaseURL string

	// HTTPTimeout bounds each individual request round-trip.
	// Defaults to 15s.
	HTTPTimeout time.Duration

	// AckInterval is the delay between acknowledgment poll attempts.
	// The backend contract expects 500ms; defaults to that.
	AckInterval time.Duration

	// AckMaxAttempts bounds acknowledgment polling. When the budget is
	// exhausted ErrAckTimeout is returned. Zero means the default budget;
	// negative means unbounded (the vendor app's original behavior).
	AckMaxAttempts int
}

// Client talks to the Daisy cloud service.
//
// The session credential pair (account id, session id) is established once
// by Login and read by every subsequent call. Client is not safe for
// concurrent use; callers issuing control operations from multiple
// goroutines must serialize access.
type Client struct {
	baseURL        string
	http           *http.Client
	ackInterval    time.Duration
	ackMaxAttempts int

	accountID int
	sessionID string
}

// NewClient creates a Daisy client. Call Login before any other operation.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	interval := cfg.AckInterval
	if interval <= 0 {
		interval = defaultAckInterval
	}

	attempts := cfg.AckMaxAttempts
	switch {
	case attempts == 0:
		attempts = defaultAckMaxAttempts
	case attempts < 0:
		attempts = 0 // unbounded
	}

	return &Client{
		baseURL:        baseURL,
		http:           &http.Client{Timeout: timeout},
		ackInterval:    interval,
		ackMaxAttempts: attempts,
	}
}

// Login authenticates the account and stores the session credential pair.
// A non-success result code surfaces as ErrAuthFailed and is never retried.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := c.doPost(ctx, pathLogin, map[string]any{
		"email": email,
		"pwd":   password,
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("daisy: decode login response: %w", err)
	}
	if env.Result != resultOK {
		return fmt.Errorf("%w: %s", ErrAuthFailed, compact(body))
	}

	var session struct {
		AccountID int    `json:"idAccount"`
		SessionID string `json:"idSession"`
	}
	if err := json.Unmarshal(env.Value, &session); err != nil {
		return fmt.Errorf("daisy: decode login session: %w", err)
	}

	c.accountID = session.AccountID
	c.sessionID = session.SessionID
	return nil
}

// Installations lists the account's control hubs.
func (c *Client) Installations(ctx context.Context) ([]Installation, error) {
	value, err := c.post(ctx, pathInstallationList, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Installations []installationWire `json:"installationList"`
	}
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("daisy: decode installation list: %w", err)
	}

	installations := make([]Installation, 0, len(list.Installations))
	for _, w := range list.Installations {
		installations = append(installations, w.toInstallation())
	}
	return installations, nil
}

// InstallationActive reports whether the installation's hub is reachable
// from the vendor backend. Routed through the tmate channel by vendor code.
func (c *Client) InstallationActive(ctx context.Context, inst *Installation) (bool, error) {
	body, err := c.tmatePost(ctx, pathNodeStatus, map[string]any{
		"idInstallation": inst.Code,
	})
	if err != nil {
		return false, err
	}

	var status struct {
		NodeActive bool `json:"nodeActive"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return false, fmt.Errorf("daisy: decode node status: %w", err)
	}
	return status.NodeActive, nil
}

// Rooms lists the installation's rooms with their devices resolved into
// concrete behaviors. Unknown device type/model pairs degrade to generic
// refresh-only devices; resolution never fails.
func (c *Client) Rooms(ctx context.Context, inst *Installation) ([]Room, error) {
	value, err := c.post(ctx, pathRoomList, map[string]any{
		"idInstallation": inst.ID,
	})
	if err != nil {
		return nil, err
	}

	var list struct {
		Rooms []roomWire `json:"roomList"`
	}
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("daisy: decode room list: %w", err)
	}

	rooms := make([]Room, 0, len(list.Rooms))
	for _, rw := range list.Rooms {
		room := Room{
			ID:          rw.ID,
			TypeID:      rw.TypeID,
			Description: rw.Description,
			Order:       rw.Order,
			Devices:     make([]Device, 0, len(rw.Devices)),
		}
		for _, dw := range rw.Devices {
			room.Devices = append(room.Devices, NewDevice(dw.toInfo(), inst, c))
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// RoomConfigurations lists rooms with the vendor's per-device command
// catalog instead of controllable behaviors. Useful for auditing what the
// backend believes each device supports.
func (c *Client) RoomConfigurations(ctx context.Context, inst *Installation) ([]RoomConfiguration, error) {
	value, err := c.post(ctx, pathRoomConfiguration, map[string]any{
		"idInstallation": inst.ID,
	})
	if err != nil {
		return nil, err
	}

	var list struct {
		Rooms []roomConfigurationWire `json:"roomList"`
	}
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("daisy: decode room configuration list: %w", err)
	}

	rooms := make([]RoomConfiguration, 0, len(list.Rooms))
	for _, rw := range list.Rooms {
		rooms = append(rooms, rw.toRoomConfiguration())
	}
	return rooms, nil
}

// StatusDeviceList queries the current status items for one device. The
// raw ordered sequence is returned; interpretation is the behavior's job.
func (c *Client) StatusDeviceList(ctx context.Context, inst *Installation, installationDeviceID int) ([]StatusItem, error) {
	value, err := c.post(ctx, pathStatusDeviceList, map[string]any{
		"idInstallation":       inst.ID,
		"idInstallationDevice": installationDeviceID,
	})
	if err != nil {
		return nil, err
	}

	var list struct {
		Items []statusItemWire `json:"statusitemList"`
	}
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("daisy: decode status item list: %w", err)
	}

	items := make([]StatusItem, 0, len(list.Items))
	for _, w := range list.Items {
		items = append(items, w.toStatusItem())
	}
	return items, nil
}

// Scenarios returns the raw scenario list for an installation. Scenario
// authoring is out of scope; the payload is exposed undecoded for
// inspection only.
func (c *Client) Scenarios(ctx context.Context, inst *Installation) (json.RawMessage, error) {
	return c.post(ctx, pathScenarioList, map[string]any{
		"idInstallation": inst.ID,
	})
}

// ScenarioCommands returns the raw command list of one scenario.
func (c *Client) ScenarioCommands(ctx context.Context, inst *Installation, scenarioID int) (json.RawMessage, error) {
	return c.post(ctx, pathScenarioCommands, map[string]any{
		"idInstallation":         inst.ID,
		"idInstallationScenario": scenarioID,
	})
}

// envelope is the session-enveloped response wrapper: codEsito is the
// result code ("S" on success) and valRisultato the actual payload.
type envelope struct {
	Result string          `json:"codEsito"`
	Value  json.RawMessage `json:"valRisultato"`
}

// post sends a session-enveloped request: the payload is merged with the
// session and account ids, and the response must carry a success result
// code. Returns the valRisultato payload.
func (c *Client) post(ctx context.Context, path string, payload map[string]any) (json.RawMessage, error) {
	if c.sessionID == "" {
		return nil, ErrNotLoggedIn
	}

	merged := map[string]any{
		"idSession": c.sessionID,
		"idAccount": c.accountID,
	}
	for k, v := range payload {
		merged[k] = v
	}

	body, err := c.doPost(ctx, path, merged)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("daisy: decode response for %s: %w", path, err)
	}
	if env.Result != resultOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrRequestFailed, path, compact(body))
	}
	return env.Value, nil
}

// tmatePost sends an installation-scoped request on the tmate channel:
// only the session id is merged in, and the raw response body is returned
// without envelope checks (the tmate services use message-id signaling
// instead of codEsito).
func (c *Client) tmatePost(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	if c.sessionID == "" {
		return nil, ErrNotLoggedIn
	}

	merged := map[string]any{
		"idSession": c.sessionID,
	}
	for k, v := range payload {
		merged[k] = v
	}

	return c.doPost(ctx, path, merged)
}

// doPost performs one authenticated round-trip and returns the response
// body. Non-2xx statuses are request failures carrying the body.
func (c *Client) doPost(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("daisy: encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("daisy: build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(transportUser, transportPass)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daisy: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("daisy: read response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: http %d: %s", ErrRequestFailed, path, resp.StatusCode, compact(body))
	}
	return body, nil
}

// compact trims a raw response for inclusion in error text.
func compact(body []byte) string {
	const maxErrBody = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrBody {
		return s[:maxErrBody] + "..."
	}
	return s
}
