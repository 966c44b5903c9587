package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsReadLimit   = 4096
	wsIdleTimeout = 5 * time.Minute
)

// EchoHandler serves a websocket that echoes every text frame back.
type EchoHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewEchoHandler constructs an EchoHandler. An empty allowedOrigins list or a
// "*" entry accepts any origin.
func NewEchoHandler(allowedOrigins []string, logger *zap.Logger) *EchoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return &EchoHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// Echo upgrades the connection and answers each message until the client leaves.
func (h *EchoHandler) Echo(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		kind, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Message text was: %s", data))); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
