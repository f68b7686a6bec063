package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"plantio/internal/adapter/api/middleware"
	"plantio/internal/domain/entity"
	ws "plantio/internal/infrastructure/websocket"
	"plantio/internal/usecase"
	"plantio/pkg/errors"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	chatUseCase    *usecase.ChatUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, chatUseCase *usecase.ChatUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		chatUseCase:    chatUseCase,
	}
}

// HandleWebSocket upgrades the connection and starts the client's read and
// write pumps. Browsers cannot set headers on the handshake, so the token
// rides in the query string.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	userID, err := h.authMiddleware.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager, h.handleClientMessage)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) handleClientMessage(client *ws.Client, raw []byte) {
	var msg ws.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(client, "", "Invalid message format")
		return
	}

	switch msg.Type {
	case ws.MessageTypePing:
		h.sendToClient(client, ws.MessageTypePong, "", nil)

	case ws.MessageTypeJoinRoom:
		h.joinRoom(client, msg.ChatID)

	case ws.MessageTypeLeaveRoom:
		h.leaveRoom(client, msg.ChatID)

	case ws.MessageTypeMarkRead:
		if _, err := h.chatUseCase.MarkRead(context.Background(), msg.ChatID, client.UserID); err != nil {
			h.sendError(client, msg.ChatID, "Failed to mark room as read")
		}

	default:
		h.sendError(client, msg.ChatID, "Unknown message type")
	}
}

// joinRoom subscribes the client to the room's live message stream. Each
// snapshot pushes the full sorted message list; joining another room cancels
// the previous subscription first.
func (h *WebSocketHandler) joinRoom(client *ws.Client, chatID string) {
	if chatID == "" {
		h.sendError(client, chatID, "chat_id is required")
		return
	}

	cancelListen, err := h.chatUseCase.SubscribeMessages(context.Background(), chatID, client.UserID, func(messages []*entity.ChatMessage) {
		h.sendToClient(client, ws.MessageTypeMessageList, chatID, messages)
	})
	if err != nil {
		log.Printf("WebSocket: %s failed to join room %s: %v", client.UserID, chatID, err)
		h.sendError(client, chatID, "Failed to join room")
		return
	}

	if client.ActiveChatRoom != "" {
		h.wsManager.RemoveClientFromChatRoom(client.ActiveChatRoom, client.UserID)
	}
	client.ActiveChatRoom = chatID
	h.wsManager.AddClientToChatRoom(chatID, client.UserID)

	if prev := client.SwapStreamCancel(cancelListen); prev != nil {
		prev()
	}
}

func (h *WebSocketHandler) leaveRoom(client *ws.Client, chatID string) {
	if chatID == "" {
		chatID = client.ActiveChatRoom
	}
	if chatID != "" {
		h.wsManager.RemoveClientFromChatRoom(chatID, client.UserID)
	}
	if client.ActiveChatRoom == chatID {
		client.ActiveChatRoom = ""
	}
	client.CancelStream()
}

func (h *WebSocketHandler) sendToClient(client *ws.Client, messageType, chatID string, data interface{}) {
	payload, err := json.Marshal(ws.ServerMessage{
		Type:      messageType,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("WebSocket: failed to marshal %s message: %v", messageType, err)
		return
	}
	h.wsManager.SendToUser(client.UserID, payload)
}

func (h *WebSocketHandler) sendError(client *ws.Client, chatID, message string) {
	h.sendToClient(client, ws.MessageTypeError, chatID, map[string]string{"message": message})
}
