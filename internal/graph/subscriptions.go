package graph

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
)

// graphql-transport-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type clientMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type serverMessage struct {
	ID      string      `json:"id,omitempty"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// SubscriptionHandler serves GraphQL subscriptions over websocket using
// the graphql-transport-ws message flow: connection_init/ack, subscribe,
// next, complete.
type SubscriptionHandler struct {
	schema   graphql.Schema
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewSubscriptionHandler creates a websocket handler for the schema.
func NewSubscriptionHandler(schema graphql.Schema, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		schema: schema,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"graphql-transport-ws"},
			// CORS is wide open on the HTTP side as well.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsConn wraps a websocket connection with serialized writes and the
// set of live subscriptions.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]context.CancelFunc
}

func (c *wsConn) write(msg serverMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) addSub(id string, cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.subs[id]; exists {
		return false
	}
	c.subs[id] = cancel
	return true
}

func (c *wsConn) cancelSub(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.subs[id]; ok {
		cancel()
		delete(c.subs, id)
	}
}

func (c *wsConn) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.subs {
		cancel()
		delete(c.subs, id)
	}
}

func (h *SubscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	client := &wsConn{conn: conn, subs: make(map[string]context.CancelFunc)}
	defer client.cancelAll()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", "remote_addr", r.RemoteAddr, "error", err)
			}
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			if err := client.write(serverMessage{Type: msgConnectionAck}); err != nil {
				return
			}
		case msgPing:
			if err := client.write(serverMessage{Type: msgPong}); err != nil {
				return
			}
		case msgSubscribe:
			h.handleSubscribe(r.Context(), client, msg)
		case msgComplete:
			client.cancelSub(msg.ID)
		}
	}
}

// handleSubscribe starts one subscription and streams its results until
// the source channel closes or the client completes.
func (h *SubscriptionHandler) handleSubscribe(ctx context.Context, client *wsConn, msg clientMessage) {
	var payload subscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.write(serverMessage{ID: msg.ID, Type: msgError, Payload: []map[string]interface{}{
			{"message": "invalid subscribe payload"},
		}})
		return
	}

	subCtx, cancel := context.WithCancel(ctx)
	if !client.addSub(msg.ID, cancel) {
		cancel()
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(4409, "subscriber already exists: "+msg.ID), closeDeadline())
		return
	}

	results := graphql.Subscribe(graphql.Params{
		Schema:         h.schema,
		RequestString:  payload.Query,
		OperationName:  payload.OperationName,
		VariableValues: payload.Variables,
		Context:        subCtx,
	})

	go func() {
		defer client.cancelSub(msg.ID)
		for result := range results {
			if err := client.write(serverMessage{ID: msg.ID, Type: msgNext, Payload: result}); err != nil {
				return
			}
		}
		client.write(serverMessage{ID: msg.ID, Type: msgComplete})
	}()
}

func closeDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}
