package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"markestedt/zoomdeck/config"
	"markestedt/zoomdeck/registry"
	"markestedt/zoomdeck/storage"
	"markestedt/zoomdeck/zoom"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Only bound to localhost
	},
}

// Snapshot is the live plugin state shown on the dashboard
type Snapshot struct {
	Status   zoom.Status          `json:"status"`
	PolledAt time.Time            `json:"polledAt"`
	Buttons  []registry.ButtonRef `json:"buttons"`
	Visible  []string             `json:"visible"`
	Polling  bool                 `json:"polling"`
}

// StatusSource provides the live plugin state
type StatusSource interface {
	Snapshot() Snapshot
}

// Server represents the dashboard web server
type Server struct {
	db     *storage.DB
	config *config.Config
	source StatusSource
	hub    *Hub
	mu     sync.RWMutex
}

// NewServer creates a new web server. db may be nil when history is disabled.
func NewServer(db *storage.DB, cfg *config.Config, source StatusSource) *Server {
	return &Server{
		db:     db,
		config: cfg,
		source: source,
		hub:    NewHub(),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/actions", s.handleActions)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Start serves on localhost until ctx is done
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	port := s.GetConfig().Web.Port
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting web server", "port", port, "url", fmt.Sprintf("http://localhost:%d", port))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GetConfig returns the current configuration (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// BroadcastStatus pushes a status change to all connected clients
func (s *Server) BroadcastStatus(status zoom.Status) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: status,
	})
}

// BroadcastAction pushes a key press to all connected clients
func (s *Server) BroadcastAction(a *storage.ActionRecord) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeAction,
		Data: ActionMessage{
			Action:    a.Action,
			Context:   a.Context,
			Resynced:  a.Resynced,
			NewState:  a.NewState,
			Timestamp: a.Timestamp.Format(time.RFC3339),
		},
	})
}

// ActionMessage is the dashboard view of a key press
type ActionMessage struct {
	Action    string `json:"action"`
	Context   string `json:"context"`
	Resynced  bool   `json:"resynced"`
	NewState  int    `json:"newState"`
	Timestamp string `json:"timestamp"`
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	if !s.hub.add(client) {
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}
