package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go-inventory-ledger/internal/model"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the broadcast queue is full.
var ErrQueueFull = errors.New("ws: broadcast queue full")

// Client is the part of a websocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans committed stock events out to every connected websocket client.
// Each client has its own send queue and writer goroutine; a client whose
// queue is full is dropped.
type Hub struct {
	clients    map[Client]*subscriber
	register   chan Client
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	logger     *zap.Logger
	queueSize  int
}

type subscriber struct {
	conn Client
	send chan []byte
}

const (
	broadcastBuffer = 64
	clientQueueSize = 32
)

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[Client]*subscriber),
		register:   make(chan Client),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger,
		queueSize:  clientQueueSize,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every remaining client. It never writes to a connection itself.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn, sub := range h.clients {
				h.drop(conn, sub)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.register:
			sub := &subscriber{conn: conn, send: make(chan []byte, h.queueSize)}
			h.mutex.Lock()
			h.clients[conn] = sub
			n := len(h.clients)
			h.mutex.Unlock()
			go h.writePump(sub)
			h.logger.Info("WS client connected", zap.Int("clients", n))

		case conn := <-h.unregister:
			h.mutex.Lock()
			if sub, ok := h.clients[conn]; ok {
				h.drop(conn, sub)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn, sub := range h.clients {
				select {
				case sub.send <- message:
				default:
					h.logger.Warn("Dropping slow WS client")
					h.drop(conn, sub)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// drop must be called with h.mutex held.
func (h *Hub) drop(conn Client, sub *subscriber) {
	delete(h.clients, conn)
	close(sub.send)
	conn.Close()
}

func (h *Hub) writePump(sub *subscriber) {
	for message := range sub.send {
		if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("Dropping WS client", zap.Error(err))
			h.Leave(sub.conn)
			// Drain until Run closes the queue.
			for range sub.send {
			}
			return
		}
	}
}

// Join adds a client. After Run has returned the client is closed instead.
func (h *Hub) Join(conn Client) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Leave removes and closes a client.
func (h *Hub) Leave(conn Client) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues the event for broadcast and never blocks. When the queue
// is full the event is dropped and ErrQueueFull returned; after Run has
// stopped the event is discarded.
func (h *Hub) Publish(_ context.Context, event model.StockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	default:
	}
	select {
	case h.broadcast <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
