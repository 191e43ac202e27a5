package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/store"
	"github.com/NotCoffee418/emu_power/pkg/types"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	broadcastBuffer = 64
	writeTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

type commandRequest struct {
	Name     string            `json:"name"`
	Params   map[string]string `json:"params"`
	Expected entities.Kind     `json:"expected"`
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type server struct {
	session *emu.Session
	updates chan []byte

	clientsMu sync.RWMutex
	clients   map[*wsClient]bool
}

func newServer(session *emu.Session) *server {
	s := &server{
		session: session,
		updates: make(chan []byte, broadcastBuffer),
		clients: make(map[*wsClient]bool),
	}
	// Runs on the reader goroutine, so never block here
	session.Store().Subscribe(func(e store.Entity) {
		data, err := encodeEntity(e)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("Failed to encode entity")
			return
		}
		select {
		case s.updates <- data:
		default:
			log.Warn().Str("kind", string(e.Kind)).Msg("Broadcast queue full, dropping update")
		}
	})
	return s
}

func encodeEntity(e store.Entity) ([]byte, error) {
	update, err := types.EntityUpdateFromEntity(e)
	if err != nil {
		return nil, err
	}
	return update.ToJsonBytes()
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("GET /latest/{kind}", s.handleLatest)
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJson(w, status, map[string]string{"error": msg})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := "closed"
	if s.session.IsOpen() {
		status = "open"
	}
	writeJson(w, http.StatusOK, map[string]any{
		"message": "EMU Power API",
		"status":  status,
		"kinds":   s.session.Store().Kinds(),
	})
}

func (s *server) handleLatest(w http.ResponseWriter, r *http.Request) {
	desc, ok := entities.Classify(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown kind")
		return
	}
	entity, ok := s.session.GetData(desc.Kind)
	if !ok {
		writeError(w, http.StatusNotFound, "No data available yet")
		return
	}
	s.writeEntity(w, http.StatusOK, entity)
}

func (s *server) writeEntity(w http.ResponseWriter, status int, entity store.Entity) {
	update, err := types.EntityUpdateFromEntity(entity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJson(w, status, update)
}

func (s *server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Expected != "" {
		if _, ok := entities.Classify(string(req.Expected)); !ok {
			writeError(w, http.StatusBadRequest, "Unknown expected kind")
			return
		}
	}

	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd := wire.NewCommand(req.Name)
	for _, k := range keys {
		cmd.Params = append(cmd.Params, wire.Set(k, req.Params[k]))
	}

	entity, err := s.session.IssueCommand(r.Context(), cmd, req.Expected)
	switch {
	case errors.Is(err, emu.ErrNoResponse):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, emu.ErrNotOpen), errors.Is(err, emu.ErrReaderStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, wire.ErrEmptyCommandName):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	case entity == nil:
		writeJson(w, http.StatusAccepted, map[string]string{"status": "sent"})
	default:
		s.writeEntity(w, http.StatusOK, *entity)
	}
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	client := &wsClient{conn: conn}
	s.addClient(client)
	defer s.removeClient(client)

	// Send what we already know
	for _, kind := range s.session.Store().Kinds() {
		entity, ok := s.session.Store().Peek(kind)
		if !ok {
			continue
		}
		data, err := encodeEntity(entity)
		if err != nil {
			continue
		}
		if err := client.send(data); err != nil {
			return
		}
	}

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast forwards stored entities to all websocket clients until ctx is done.
func (s *server) broadcast(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-s.updates:
			s.clientsMu.RLock()
			clients := make([]*wsClient, 0, len(s.clients))
			for client := range s.clients {
				clients = append(clients, client)
			}
			s.clientsMu.RUnlock()

			for _, client := range clients {
				if err := client.send(data); err != nil {
					s.removeClient(client)
				}
			}
		}
	}
}

func (s *server) addClient(client *wsClient) {
	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()
}

func (s *server) removeClient(client *wsClient) {
	s.clientsMu.Lock()
	delete(s.clients, client)
	s.clientsMu.Unlock()
	client.conn.Close()
}

func (s *server) clientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// pollDemand asks the device for demand every interval until ctx is done.
func (s *server) pollDemand(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.session.GetInstantaneousDemand(ctx, nil, true); err != nil {
				log.Debug().Err(err).Msg("Demand request failed")
			}
		}
	}
}
