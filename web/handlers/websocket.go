package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/snagasawa/tubuyaki/internal/engine"
)

// CaptureMessage is a client-to-server message on the capture socket.
// A "capture" message carries the finalized text of a capture session
// (speech recognition result or manual entry).
type CaptureMessage struct {
	Type    string `json:"type"`
	RawText string `json:"rawText,omitempty"`
}

// CaptureEvent is a server-to-client message. Every connected client sees
// record_created events, so multiple open views stay in sync.
type CaptureEvent struct {
	Type            string      `json:"type"` // "record_created" | "error"
	Record          interface{} `json:"record,omitempty"`
	Warning         string      `json:"warning,omitempty"`
	ConfirmQuestion string      `json:"confirmQuestion,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// CreateFunc runs the create flow for a finalized capture.
type CreateFunc func(ctx context.Context, rawText string) (*engine.ProcessOutcome, error)

// CaptureHub manages capture WebSocket connections: it receives finalized
// capture text from clients, runs the create flow, and broadcasts the
// resulting record to all connected clients.
type CaptureHub struct {
	create     CreateFunc
	clients    map[clientInterface]bool
	broadcast  chan interface{}
	register   chan clientInterface
	unregister chan clientInterface
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// clientInterface allows for both real clients and mock clients.
type clientInterface interface {
	getSendChannel() chan []byte
	close()
}

// Client represents a capture WebSocket connection.
type Client struct {
	hub  *CaptureHub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewCaptureHub creates a capture hub running creates through the given function.
func NewCaptureHub(create CreateFunc) *CaptureHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &CaptureHub{
		create:     create,
		clients:    make(map[clientInterface]bool),
		broadcast:  make(chan interface{}, 256),
		register:   make(chan clientInterface),
		unregister: make(chan clientInterface),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's message processing loop.
func (h *CaptureHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Capture client connected (total: %d)", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.getSendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Capture client disconnected (total: %d)", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("ERROR: Failed to marshal capture event: %v", err)
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				sendChan := client.getSendChannel()
				select {
				case sendChan <- data:
				default:
					// Client's send channel is full, disconnect them
					close(sendChan)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			log.Println("Capture hub stopping...")
			return
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *CaptureHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.getSendChannel())
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// Broadcast sends an event to all connected clients.
func (h *CaptureHub) Broadcast(event interface{}) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("WARNING: capture broadcast channel full, dropping event")
	}
}

// Register adds a client to the hub.
func (h *CaptureHub) Register(client clientInterface) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *CaptureHub) Unregister(client clientInterface) {
	h.unregister <- client
}

// HandleCapture runs the create flow for finalized capture text and
// broadcasts the outcome. Errors are broadcast as error events so the
// capturing client learns about them through the same channel.
func (h *CaptureHub) HandleCapture(ctx context.Context, rawText string) {
	outcome, err := h.create(ctx, rawText)
	if err != nil {
		log.Printf("Capture: create failed: %v", err)
		h.Broadcast(CaptureEvent{Type: "error", Error: err.Error()})
		return
	}
	h.Broadcast(CaptureEvent{
		Type:            "record_created",
		Record:          outcome.Record,
		Warning:         outcome.Warning,
		ConfirmQuestion: outcome.ConfirmQuestion,
	})
}

// ServeHTTP handles WebSocket upgrade requests on the capture endpoint.
func (h *CaptureHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		log.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// writePump sends events to the WebSocket connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()

		if err != nil {
			log.Printf("ERROR: WebSocket write failed: %v", err)
			return
		}
	}
}

// readPump reads capture messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			// Connection closed
			return
		}

		var msg CaptureMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Capture: ignoring malformed message: %v", err)
			continue
		}
		if msg.Type == "capture" && msg.RawText != "" {
			c.hub.HandleCapture(context.Background(), msg.RawText)
		}
	}
}

// MockClient is a mock client for testing.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) getSendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {
	// No-op for mock client
}
