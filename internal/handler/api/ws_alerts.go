package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "StructBreak/internal/domain/models"
	xlogger "StructBreak/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AlertHub fans accepted signals out to connected WebSocket clients. It
// implements SignalPublisher, so the scanner treats it like any other sink.
type AlertHub struct {
	logger *xlogger.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan models.QualifiedSignal
}

func NewAlertHub(logger *xlogger.Logger) *AlertHub {
	return &AlertHub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *AlertHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/alerts", h.Serve)
}

// Serve upgrades the connection and streams signals until the peer leaves.
func (h *AlertHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		conn: conn,
		send: make(chan models.QualifiedSignal, wsSendBuffer),
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client connected", xlogger.Int("clients", n))

	go h.writeLoop(client)
	h.readLoop(client) // blocks until disconnect
	return nil
}

// readLoop discards inbound frames; the socket is one-way. It exists to
// notice disconnects and pong replies.
func (h *AlertHub) readLoop(client *wsClient) {
	defer h.drop(client)
	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *AlertHub) writeLoop(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case sig, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteJSON(sig); err != nil {
				h.drop(client)
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(client)
				return
			}
		}
	}
}

func (h *AlertHub) drop(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

// Publish broadcasts one signal to every connected client. Slow clients are
// skipped rather than allowed to stall the scan.
func (h *AlertHub) Publish(_ context.Context, sig models.QualifiedSignal) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- sig:
		default:
		}
	}
	return nil
}

func (h *AlertHub) PublishBatch(ctx context.Context, sigs []models.QualifiedSignal) error {
	for _, sig := range sigs {
		if err := h.Publish(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *AlertHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		_ = client.conn.Close()
	}
	return nil
}
