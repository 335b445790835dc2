package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	chatdomain "marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/internal/gateway/domain"
	"marketplace_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// wsConn serialize concurrent writers on one socket
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// WriteJSON marshal and send one text frame
func (c *wsConn) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// connSession per-connection registration state
type connSession struct {
	registered    bool
	sawStructured bool
	identityKey   string
	role          chatdomain.Role
	userID        string
}

// ChatWebsocketHandler websocket entry point of the gateway
type ChatWebsocketHandler struct {
	routeUC *RouteMessageUseCase
	pubsub  repository.PubSub
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(routeUC *RouteMessageUseCase, pubsub repository.PubSub) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		routeUC: routeUC,
		pubsub:  pubsub,
	}
}

// HandleConnection run the read loop of one client connection.
// Per-connection errors are logged and never propagate to other
// connections.
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	wsc := newWSConn(conn)
	sess := &connSession{}

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		if sess.registered {
			h.routeUC.UnregisterConnection(ctx, sess.identityKey)
		}
		logger.Log.Info("websocket close", zap.String("identity", sess.identityKey))
		conn.Close()
		cancel()
	}()

	// fiber handles close frames itself, SetCloseHandler taps them out
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// periodic ping keep-alive
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping message")); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.textMessageAction(ctx, ctxClose, wsc, sess, message)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx, ctxClose context.Context, wsc *wsConn, sess *connSession, msg []byte) {
	ev, ok := domain.ParseFrame(msg)
	if !ok {
		// plain text is only meaningful as the registration frame, and
		// only before the first successful structured parse
		if sess.registered || sess.sawStructured {
			logger.Log.Warn("malformed frame dropped", zap.String("identity", sess.identityKey))
			return
		}
		role, userID := domain.ParseRegistration(string(msg))
		if userID == "" {
			logger.Log.Warn("empty registration frame dropped")
			return
		}
		sess.role = role
		sess.userID = userID
		sess.identityKey = h.routeUC.RegisterConnection(ctx, role, userID, wsc)
		sess.registered = true
		logger.Log.Info("websocket registered", zap.String("identity", sess.identityKey))

		// authoritative post-flush count updates reach this connection
		// over the identity's push channel
		if err := h.pubsub.SubscribeCountUpdates(ctxClose, sess.identityKey, func(update chatdomain.CountUpdate) {
			if err := wsc.WriteJSON(domain.CountFrame(update.ConversationID, update.Count)); err != nil {
				logger.Log.Errorf("count update push failed:", err)
			}
		}); err != nil {
			logger.Log.Errorf("count update subscribe failed:", err)
		}
		return
	}

	sess.sawStructured = true
	if !sess.registered {
		// sends before registration are dropped
		logger.Log.Warn("chat event before registration dropped")
		return
	}

	if ev.Type == domain.FrameMarkAsSeen {
		if err := h.routeUC.MarkSeen(ctx, sess.role, sess.userID, ev.ConversationID); err != nil {
			logger.Log.Errorf("mark-as-seen failed:", err, zap.String("identity", sess.identityKey))
		}
		return
	}

	if ev.FromUserID == "" {
		ev.FromUserID = sess.userID
	}
	if ev.SenderType == "" {
		ev.SenderType = string(sess.role)
	}
	if err := h.routeUC.RouteChatEvent(ctx, ev); err != nil {
		// connection stays alive for other traffic
		logger.Log.Errorf("route chat event failed:", err, zap.String("identity", sess.identityKey))
	}
}
