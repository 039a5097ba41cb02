package streamdeck

import (
	"encoding/json"
	"fmt"
)

// Inbound event names
const (
	EventKeyDown                  = "keyDown"
	EventKeyUp                    = "keyUp"
	EventWillAppear               = "willAppear"
	EventWillDisappear            = "willDisappear"
	EventDeviceDidConnect         = "deviceDidConnect"
	EventDeviceDidDisconnect      = "deviceDidDisconnect"
	EventDidReceiveSettings       = "didReceiveSettings"
	EventDidReceiveGlobalSettings = "didReceiveGlobalSettings"
	EventSendToPlugin             = "sendToPlugin"
	EventApplicationDidLaunch     = "applicationDidLaunch"
	EventApplicationDidTerminate  = "applicationDidTerminate"
)

// Outbound event names
const (
	eventSetState                = "setState"
	eventSendToPropertyInspector = "sendToPropertyInspector"
	eventLogMessage              = "logMessage"
)

// Event is one message from the Stream Deck application
type Event struct {
	Action     string          `json:"action,omitempty"`
	Event      string          `json:"event"`
	Context    string          `json:"context,omitempty"`
	Device     string          `json:"device,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	DeviceInfo json.RawMessage `json:"deviceInfo,omitempty"`
}

type Coordinates struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// KeyPayload is the payload of keyDown and keyUp
type KeyPayload struct {
	Settings         json.RawMessage `json:"settings"`
	Coordinates      Coordinates     `json:"coordinates"`
	State            int             `json:"state"`
	UserDesiredState int             `json:"userDesiredState"`
	IsInMultiAction  bool            `json:"isInMultiAction"`
}

// AppearPayload is the payload of willAppear, willDisappear and didReceiveSettings
type AppearPayload struct {
	Settings        json.RawMessage `json:"settings"`
	Coordinates     Coordinates     `json:"coordinates"`
	State           int             `json:"state"`
	IsInMultiAction bool            `json:"isInMultiAction"`
}

type DeviceSize struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

type DeviceInfo struct {
	ID   string     `json:"id,omitempty"`
	Name string     `json:"name"`
	Type int        `json:"type"`
	Size DeviceSize `json:"size"`
}

// ApplicationPayload is the payload of applicationDidLaunch and applicationDidTerminate
type ApplicationPayload struct {
	Application string `json:"application"`
}

// KeyPayload decodes the payload of a key event
func (e Event) KeyPayload() (KeyPayload, error) {
	var p KeyPayload
	if err := decodePayload(e.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode %s payload: %w", e.Event, err)
	}
	return p, nil
}

// AppearPayload decodes the payload of an appear, disappear or settings event
func (e Event) AppearPayload() (AppearPayload, error) {
	var p AppearPayload
	if err := decodePayload(e.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode %s payload: %w", e.Event, err)
	}
	return p, nil
}

// Info decodes deviceInfo of a deviceDidConnect event
func (e Event) Info() (DeviceInfo, error) {
	var info DeviceInfo
	if err := decodePayload(e.DeviceInfo, &info); err != nil {
		return info, fmt.Errorf("failed to decode device info: %w", err)
	}
	info.ID = e.Device
	return info, nil
}

// PayloadField returns a top-level string field of the payload, or ""
func (e Event) PayloadField(name string) string {
	var fields map[string]json.RawMessage
	if err := decodePayload(e.Payload, &fields); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(fields[name], &s); err != nil {
		return ""
	}
	return s
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

type setStateMessage struct {
	Event   string          `json:"event"`
	Context string          `json:"context"`
	Payload setStatePayload `json:"payload"`
}

type setStatePayload struct {
	State int `json:"state"`
}

type propertyInspectorMessage struct {
	Action  string `json:"action"`
	Event   string `json:"event"`
	Context string `json:"context"`
	Payload any    `json:"payload"`
}

type logMessage struct {
	Event   string            `json:"event"`
	Payload map[string]string `json:"payload"`
}

type registerMessage struct {
	Event string `json:"event"`
	UUID  string `json:"uuid"`
}
