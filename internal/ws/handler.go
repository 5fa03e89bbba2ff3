package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Abubakar312/chat-app-backend/internal/auth"
	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/config"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/Abubakar312/chat-app-backend/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// Handler upgrades authenticated requests to socket connections and routes
// their events to the chat service.
type Handler struct {
	hub      *Hub
	chat     *chat.Service
	tokens   TokenVerifier
	config   config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, svc *chat.Service, tokens TokenVerifier, cfg config.WebSocketConfig, cors config.CORSConfig) *Handler {
	allowed := make(map[string]bool, len(cors.AllowedOrigins))
	for _, o := range cors.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	allowAll := cors.AllowAllOrigins()

	return &Handler{
		hub:    hub,
		chat:   svc,
		tokens: tokens,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeHTTP authenticates the request, upgrades it and starts the pumps.
// Browsers cannot set headers on a websocket handshake, so the token may
// also come as the "token" query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.Ctx(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequest(r)
	}
	if token == "" {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		writeMsg(w, http.StatusUnauthorized, "Token is not valid")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(uuid.NewString(), userID, h.hub, conn, h.config, logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleFrame)
}

func (h *Handler) handleFrame(c *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		metrics.SocketEvents.WithLabelValues("invalid", "error").Inc()
		h.hub.Reply(c, chat.EventError, ErrorPayload{
			Error: ErrorBody{Code: CodeBadRequest, Message: "malformed frame"},
		})
		return
	}

	// Store work of a connection that drops mid-event still runs to
	// completion, so it is not tied to the connection's lifetime.
	ctx := logging.WithLogger(context.Background(), c.logger)
	data, err := h.dispatch(ctx, c, in)
	h.respond(c, in, data, err)
}

func (h *Handler) dispatch(ctx context.Context, c *Client, in Inbound) (any, error) {
	switch in.Event {
	case chat.EventSetup:
		userID, err := decodeID(in.Data)
		if err != nil {
			return nil, err
		}
		if userID != "" && userID != c.userID {
			return nil, fmt.Errorf("%w: userId does not match the connection", common.ErrUnauthenticated)
		}
		h.hub.Setup(c)
		return nil, nil

	case chat.EventJoinRoom:
		room, err := decodeID(in.Data)
		if err != nil {
			return nil, err
		}
		if err := h.chat.AuthorizeJoin(ctx, room, c.userID); err != nil {
			return nil, err
		}
		h.hub.Join(c, room)
		return nil, nil

	case chat.EventLeaveRoom:
		room, err := decodeID(in.Data)
		if err != nil {
			return nil, err
		}
		h.hub.Leave(c, room)
		return nil, nil

	case chat.EventChatMessage:
		var input chat.SendInput
		if err := decodeData(in.Data, &input); err != nil {
			return nil, err
		}
		return h.chat.Send(ctx, c.userID, input)

	case chat.EventMessagesSeen:
		var input chat.SeenInput
		if err := decodeData(in.Data, &input); err != nil {
			return nil, err
		}
		return h.chat.MarkSeen(ctx, c.userID, input)

	default:
		return nil, fmt.Errorf("%w: unknown event %q", common.ErrValidation, in.Event)
	}
}

// respond acknowledges the event when the client asked for it and reports
// failures either way.
func (h *Handler) respond(c *Client, in Inbound, data any, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		event := c.logger.Warn()
		if errorBody(err).Code == CodeInternal {
			event = c.logger.Error()
		}
		event.Err(err).Str(logging.FieldEvent, in.Event).Msg("socket event failed")
	}
	metrics.SocketEvents.WithLabelValues(eventLabel(in.Event), result).Inc()

	if in.Ack != "" {
		ack := AckPayload{Ack: in.Ack, OK: err == nil, Data: data}
		if err != nil {
			body := errorBody(err)
			ack.Error = &body
			ack.Data = nil
		}
		h.hub.Reply(c, chat.EventAck, ack)
		return
	}
	if err != nil {
		h.hub.Reply(c, chat.EventError, ErrorPayload{Event: in.Event, Error: errorBody(err)})
	}
}

// eventLabel bounds the metric label set to the known events.
func eventLabel(event string) string {
	switch event {
	case chat.EventSetup, chat.EventJoinRoom, chat.EventLeaveRoom, chat.EventChatMessage, chat.EventMessagesSeen:
		return event
	default:
		return "unknown"
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}
