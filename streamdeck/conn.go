package streamdeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the Stream Deck application
	writeWait = 10 * time.Second

	// Outbound messages buffered before senders block
	sendBuffer = 256
)

// ErrClosed is returned when sending on a closed connection
var ErrClosed = errors.New("streamdeck: connection closed")

// Handler receives events from the Stream Deck application. Methods are
// called one at a time from the connection's read loop.
type Handler interface {
	KeyDown(ctx context.Context, ev Event)
	KeyUp(ctx context.Context, ev Event)
	WillAppear(ctx context.Context, ev Event)
	WillDisappear(ctx context.Context, ev Event)
	DidReceiveSettings(ctx context.Context, ev Event)
	DidReceiveGlobalSettings(ctx context.Context, ev Event)
	SendToPlugin(ctx context.Context, ev Event)
	DeviceDidConnect(ctx context.Context, ev Event)
	DeviceDidDisconnect(ctx context.Context, ev Event)
}

// Conn is a registered plugin connection to the Stream Deck application
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// Dial connects to the Stream Deck application and registers the plugin
func Dial(ctx context.Context, args Args) (*Conn, error) {
	url := fmt.Sprintf("ws://127.0.0.1:%d", args.Port)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Stream Deck at %s: %w", url, err)
	}

	reg := registerMessage{Event: args.RegisterEvent, UUID: args.PluginUUID}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(reg); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to register plugin: %w", err)
	}

	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()

	slog.Info("Registered with Stream Deck", "url", url, "uuid", args.PluginUUID)
	return c, nil
}

// Run reads events and passes them to h until the connection drops or
// ctx is done. A ctx cancellation is not an error.
func (c *Conn) Run(ctx context.Context, h Handler) error {
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.Close()
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("Stream Deck closed the connection")
				return nil
			}
			return fmt.Errorf("failed to read from Stream Deck: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("Ignoring malformed event", "error", err, "data", string(data))
			continue
		}

		route(ctx, h, ev)
	}
}

// Close shuts the connection down; safe to call more than once
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// SetState switches the button with the given context to state
func (c *Conn) SetState(buttonContext string, state int) error {
	return c.sendJSON(setStateMessage{
		Event:   eventSetState,
		Context: buttonContext,
		Payload: setStatePayload{State: state},
	})
}

// SendToPropertyInspector sends payload to the property inspector of a button
func (c *Conn) SendToPropertyInspector(action, buttonContext string, payload any) error {
	return c.sendJSON(propertyInspectorMessage{
		Action:  action,
		Event:   eventSendToPropertyInspector,
		Context: buttonContext,
		Payload: payload,
	})
}

// LogMessage writes msg to the Stream Deck application's plugin log
func (c *Conn) LogMessage(msg string) error {
	return c.sendJSON(logMessage{
		Event:   eventLogMessage,
		Payload: map[string]string{"message": msg},
	})
}

func (c *Conn) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// writePump is the only goroutine writing to the websocket
func (c *Conn) writePump() {
	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Error("Failed to write to Stream Deck", "error", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func route(ctx context.Context, h Handler, ev Event) {
	switch ev.Event {
	case EventKeyDown:
		h.KeyDown(ctx, ev)
	case EventKeyUp:
		h.KeyUp(ctx, ev)
	case EventWillAppear:
		h.WillAppear(ctx, ev)
	case EventWillDisappear:
		h.WillDisappear(ctx, ev)
	case EventDidReceiveSettings:
		h.DidReceiveSettings(ctx, ev)
	case EventDidReceiveGlobalSettings:
		h.DidReceiveGlobalSettings(ctx, ev)
	case EventSendToPlugin:
		h.SendToPlugin(ctx, ev)
	case EventDeviceDidConnect:
		h.DeviceDidConnect(ctx, ev)
	case EventDeviceDidDisconnect:
		h.DeviceDidDisconnect(ctx, ev)
	case EventApplicationDidLaunch, EventApplicationDidTerminate:
		var p ApplicationPayload
		if err := decodePayload(ev.Payload, &p); err == nil {
			slog.Info("Monitored application event", "event", ev.Event, "application", p.Application)
		}
	default:
		slog.Debug("Ignoring event", "event", ev.Event, "action", ev.Action)
	}
}
