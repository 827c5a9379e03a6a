package websocket

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/internal/application/gateway"
	"github.com/aescanero/llmgate/pkg/domain/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// Handler handles WebSocket connections
type Handler struct {
	gateway *gateway.Manager
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(gw *gateway.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		gateway: gw,
		logger:  logger,
	}
}

// StreamRequest is an inbound chat request on the WebSocket
type StreamRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Messages  []chat.Message `json:"messages"`
	Config    chat.Config    `json:"config"`
}

// StreamFrame is an outbound message on the WebSocket. Type is one of
// "delta", "finish" or "error".
type StreamFrame struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Delta     *chat.StreamDelta      `json:"delta,omitempty"`
	Finish    *chat.ResponseMetadata `json:"finish,omitempty"`
	Error     *chat.Error            `json:"error,omitempty"`
}

// HandleChatStream streams chat completions over a WebSocket. Each text
// message from the client is a chat request; the response is streamed
// back as delta frames followed by a finish frame.
func (h *Handler) HandleChatStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("failed to read message", zap.Error(err))
			}
			return
		}

		var req StreamRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.writeFrame(conn, StreamFrame{
				Type:  "error",
				Error: chat.NewError(chat.ErrorInvalidRequest, "malformed request: "+err.Error()),
			})
			continue
		}

		if !h.streamResponse(c, conn, req) {
			return
		}
	}
}

// streamResponse runs one chat request and streams the response back.
// It returns false when the connection is no longer usable.
func (h *Handler) streamResponse(c *gin.Context, conn *websocket.Conn, req StreamRequest) bool {
	stream, sessionID, err := h.gateway.StreamChat(c.Request.Context(), req.SessionID, req.Messages, req.Config)
	if err != nil {
		return h.writeFrame(conn, StreamFrame{
			Type:      "error",
			SessionID: req.SessionID,
			Error:     chat.AsError(err),
		})
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return true
			}
			h.logger.Error("stream failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return h.writeFrame(conn, StreamFrame{
				Type:      "error",
				SessionID: sessionID,
				Error:     chat.AsError(err),
			})
		}

		frame := StreamFrame{SessionID: sessionID}
		switch {
		case event.Delta != nil:
			frame.Type = "delta"
			frame.Delta = event.Delta
		case event.Finish != nil:
			frame.Type = "finish"
			frame.Finish = event.Finish
		default:
			continue
		}

		if !h.writeFrame(conn, frame) {
			return false
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame StreamFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal frame", zap.Error(err))
		return true
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Error("failed to write message", zap.Error(err))
		return false
	}
	return true
}
