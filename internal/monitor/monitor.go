// Package monitor exposes a relay's counters over HTTP: a WebSocket stream
// of periodic snapshots on /ws and a one-shot JSON snapshot on /counters.
// It is read-only and never touches the relay loop.
package monitor

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

// DefaultInterval is the snapshot period for WebSocket clients.
const DefaultInterval = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON document sent for each snapshot.
type Message struct {
	Component string        `json:"component"`
	Time      time.Time     `json:"time"`
	Counters  util.Snapshot `json:"counters"`
}

// Server streams counter snapshots of one component.
type Server struct {
	component string
	src       util.CounterSource
	interval  time.Duration

	listener net.Listener
	done     chan struct{}
	once     sync.Once
}

// NewServer creates a monitor for src. A non-positive interval selects
// DefaultInterval.
func NewServer(component string, src util.CounterSource, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Server{
		component: component,
		src:       src,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/counters", s.handleCounters)
	return mux
}

// Start begins listening on addr and returns the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start monitor: %w", err)
	}
	s.listener = listener

	go func() {
		_ = http.Serve(listener, s.Handler())
	}()

	return listener.Addr(), nil
}

// Close stops the listener and ends every open stream.
func (s *Server) Close() {
	s.once.Do(func() { close(s.done) })
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) message() Message {
	return Message{
		Component: s.component,
		Time:      time.Now().UTC(),
		Counters:  s.src.Counters(),
	}
}

func (s *Server) handleCounters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.message())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.message()); err != nil {
			util.LogDebug("monitor client %s dropped: %v", r.RemoteAddr, err)
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-s.done:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		}
	}
}
