package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"course-chat-service/internal/auth"
	"course-chat-service/internal/messaging"
	"course-chat-service/internal/models"
	"course-chat-service/internal/observability"
	"course-chat-service/internal/repositories"
)

const wsEventsRoutingKey = "ws_events.direct"

// Gateway runs the realtime side of the chat: handshake, connection registry
// maintenance, presence broadcasts and inbound send events.
type Gateway struct {
	registry *Registry
	verifier auth.Verifier
	users    repositories.UserRepository
	service  messaging.Service
	upgrader websocket.Upgrader
}

// NewGateway constructs a Gateway. allowedOrigin restricts browser handshakes;
// empty allows any origin.
func NewGateway(registry *Registry, verifier auth.Verifier, users repositories.UserRepository, service messaging.Service, allowedOrigin string) *Gateway {
	return &Gateway{
		registry: registry,
		verifier: verifier,
		users:    users,
		service:  service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// inboundEvent is a client frame. Only "send" is understood.
type inboundEvent struct {
	Type       string `json:"type"`
	ReceiverID int    `json:"receiver_id"`
	Text       string `json:"text"`
	Image      string `json:"image"`
	ClientRef  string `json:"client_ref"`
}

// Handle authenticates the handshake, upgrades the connection and registers
// it. Credential sources follow the fixed priority of auth.TokenFromRequest.
// A handshake failure rejects the request before the upgrade with a reason
// that distinguishes a missing token, a bad token and a misconfigured server.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("course-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.TokenFromRequest(c.Request)
	identity, err := g.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": auth.FailureReason(err)})
		return
	}

	user, err := g.users.FindByID(ctx, identity.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "reason": "user not found"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      user.ID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)

	if displaced := g.registry.Register(user.ID, client); displaced != nil {
		// Last-connect-wins: the old connection stays open but no longer
		// receives pushes, and its close cannot evict this one.
		log.Printf("user %d reconnected, displacing conn %s", user.ID, displaced.Info().ConnID)
	}
	g.broadcastPresence()

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishLifecycleEvent(ctx, info, "ws_connect", "")

	// The connection outlives the upgrade request, whose context is
	// canceled once this handler returns.
	go g.readLoop(context.Background(), client, user)
}

// readLoop processes inbound frames in arrival order, so one client's send
// events are handled sequentially.
func (g *Gateway) readLoop(ctx context.Context, client *Client, user models.User) {
	info := client.Info()
	var closeReason string
	defer func() {
		if g.registry.Unregister(user.ID, client) {
			g.broadcastPresence()
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.publishLifecycleEvent(ctx, info, "ws_disconnect", closeReason)
		client.Close()
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				g.publishLifecycleEvent(ctx, info, "ws_error", closeReason)
			}
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(data, &event); err != nil {
			g.sendError(client, "", "invalid_request", "malformed event")
			continue
		}
		if event.Type != "send" {
			g.sendError(client, event.ClientRef, "invalid_request", "unknown event type")
			continue
		}

		msg, err := g.service.Send(ctx, user, event.ReceiverID, event.Text, event.Image)
		if err != nil {
			g.sendError(client, event.ClientRef, errorCode(err), err.Error())
			continue
		}
		if err := client.Send(models.Event{Type: models.EventAck, ClientRef: event.ClientRef, Message: &msg}); err != nil {
			log.Printf("websocket ack write error: %v", err)
			return
		}
	}
}

// broadcastPresence pushes the full online-user set to every connection.
// Delivery is best-effort; failures are handled inside Broadcast.
func (g *Gateway) broadcastPresence() {
	g.registry.Broadcast(models.Event{
		Type:    models.EventOnlineUsers,
		UserIDs: g.registry.OnlineIDs(),
	})
}

func (g *Gateway) sendError(client *Client, clientRef, code, message string) {
	err := client.Send(models.Event{Type: models.EventError, ClientRef: clientRef, Code: code, Error: message})
	if err != nil {
		log.Printf("websocket error write error: %v", err)
	}
}

func (g *Gateway) publishLifecycleEvent(ctx context.Context, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, messaging.ErrForbidden):
		return "forbidden"
	case errors.Is(err, messaging.ErrSelfChat), errors.Is(err, repositories.ErrEmptyMessage):
		return "invalid_request"
	case errors.Is(err, repositories.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, messaging.ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}
