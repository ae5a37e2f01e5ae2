package devreload

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const DefaultPath = "/__reload"

type MessageType string

const (
	MessageReload MessageType = "reload"
	MessageError  MessageType = "error"
)

// Message is sent to browsers over the reload socket.
type Message struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error,omitempty"`
	File  string      `json:"file,omitempty"`
}

// Hub keeps the browsers connected to the reload socket and tells them to re-render.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("reload socket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(conn)
}

func (h *Hub) NotifyReload(file string) {
	h.broadcast(Message{Type: MessageReload, File: file})
}

func (h *Hub) NotifyError(err error) {
	h.broadcast(Message{Type: MessageError, Error: err.Error()})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(client)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Script returns the browser snippet that reloads the page when the hub says so.
func Script(path string) string {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	return `(function(){` +
		`var p=location.protocol==="https:"?"wss:":"ws:";` +
		`var ws=new WebSocket(p+"//"+location.host+"` + path + `");` +
		`ws.onmessage=function(e){var m=JSON.parse(e.data);` +
		`if(m.type==="reload"){location.reload();}` +
		`else if(m.type==="error"){console.error("[reload] "+m.error);}};` +
		`ws.onclose=function(){setTimeout(function(){location.reload();},1000);};` +
		`})();`
}
