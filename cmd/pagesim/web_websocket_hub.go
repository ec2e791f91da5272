package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sibexico/pagesim/replacement"
	"github.com/sibexico/pagesim/timeline"
)

// Event types pushed to WebSocket clients
const (
	eventReset      = "reset"
	eventRender     = "render"
	eventUnrender   = "unrender"
	eventState      = "state"
	eventCommentary = "commentary"
)

type wsEvent struct {
	Type       string                        `json:"type"`
	Step       *replacement.Step             `json:"step,omitempty"`
	Narration  string                        `json:"narration,omitempty"`
	State      *timeline.State               `json:"state,omitempty"`
	Result     *replacement.SimulationResult `json:"result,omitempty"`
	Commentary string                        `json:"commentary,omitempty"`
	Available  bool                          `json:"available,omitempty"`
}

// wsWriteWait bounds a single write so a stalled client cannot block the hub
var wsWriteWait = 10 * time.Second

type wsClient struct {
	conn  *websocket.Conn
	hello []byte
}

type wsHub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	register  chan wsClient
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
	writeWait time.Duration
	logger    *slog.Logger
}

func newHub(logger *slog.Logger) *wsHub {
	hub := &wsHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan wsClient),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 64),
		done:      make(chan struct{}),
		writeWait: wsWriteWait,
		logger:    logger,
	}
	go hub.run()
	return hub
}

// run owns the client set; every write to a connection happens here
func (h *wsHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.conn] = true
			if client.hello != nil {
				h.send(client.conn, client.hello)
			}
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				h.send(conn, msg)
			}
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = nil
			return
		}
	}
}

func (h *wsHub) send(conn *websocket.Conn, msg []byte) {
	conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		h.logger.Warn("Failed to send event to WebSocket client", "error", err)
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *wsHub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *wsHub) handle(ws *WebServer, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	state := ws.nav.State()
	hello, _ := json.Marshal(wsEvent{Type: eventState, State: &state, Narration: ws.nav.Narration()})

	select {
	case h.register <- wsClient{conn: conn, hello: hello}:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
			}
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("WebSocket error", "error", err)
				}
				break
			}

			var req controlRequest
			if err := json.Unmarshal(message, &req); err == nil {
				if _, err := ws.applyControl(&req); err != nil {
					h.logger.Debug("Ignoring WebSocket control message", "action", req.Action, "error", err)
				}
			}
		}
	}()
}

// publish queues an event without blocking. Presenter callbacks run under
// the navigator lock, so a full queue drops the event.
func (h *wsHub) publish(event wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event for WebSocket", "type", event.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping event", "type", event.Type)
	}
}

// webPresenter turns navigator callbacks into WebSocket events
type webPresenter struct {
	hub *wsHub
}

func (p webPresenter) Render(step replacement.Step) {
	p.hub.publish(wsEvent{Type: eventRender, Step: &step, Narration: step.Narration()})
}

func (p webPresenter) Unrender(step replacement.Step) {
	p.hub.publish(wsEvent{Type: eventUnrender, Step: &step})
}

func (p webPresenter) Reset(result *replacement.SimulationResult) {
	p.hub.publish(wsEvent{Type: eventReset, Result: result})
}

func (p webPresenter) StateChanged(state timeline.State) {
	p.hub.publish(wsEvent{Type: eventState, State: &state})
}
