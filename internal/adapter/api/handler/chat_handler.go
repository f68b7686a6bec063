package handler

import (
	"github.com/labstack/echo/v4"

	"plantio/internal/usecase"
	"plantio/pkg/response"
	"plantio/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type openRoomRequest struct {
	ChatType       string `json:"chat_type" validate:"required,oneof=admin_support seller_support"`
	SellerID       string `json:"seller_id"`
	OrderID        string `json:"order_id"`
	InitialMessage string `json:"initial_message"`
}

type sendMessageRequest struct {
	Message     string `json:"message" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text image file"`
}

type closeRoomRequest struct {
	ClosedByName string `json:"closed_by_name"`
}

// OpenRoom opens a support conversation, reusing the customer's active room
// for the channel when one exists.
func (h *ChatHandler) OpenRoom(c echo.Context) error {
	var req openRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.OpenRoom(c.Request().Context(), userID, usecase.OpenRoomInput{
		ChatType:       req.ChatType,
		SellerID:       req.SellerID,
		OrderID:        req.OrderID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

// GetUserRooms lists the authenticated user's support rooms, most recently
// active first.
func (h *ChatHandler) GetUserRooms(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	rooms, err := h.chatUseCase.ListRooms(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	total := int64(len(rooms))
	start, end := params.Bounds(len(rooms))

	return response.Paginated(c, rooms[start:end], total, params.Page, params.PageSize)
}

func (h *ChatHandler) GetRoomByID(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.GetRoom(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), chatID, userID, usecase.SendMessageInput{
		Message:     req.Message,
		MessageType: req.MessageType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetMessages returns the room's message log, oldest first.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	room, err := h.chatUseCase.MarkRead(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

// CloseRoom ends a conversation. The body is optional; closed_by_name
// overrides the display name on the closure notice.
func (h *ChatHandler) CloseRoom(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	var req closeRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.chatUseCase.CloseRoom(c.Request().Context(), chatID, userID, req.ClosedByName)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

func (h *ChatHandler) GetChatHistory(c echo.Context) error {
	userID := c.Get("uid").(string)

	history, err := h.chatUseCase.GetChatHistory(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, history)
}

// GetAdminRooms returns the consolidated admin support queue.
func (h *ChatHandler) GetAdminRooms(c echo.Context) error {
	rooms, err := h.chatUseCase.ListAdminRooms(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

func (h *ChatHandler) DeleteRoom(c echo.Context) error {
	chatID := c.Param("id")

	if err := h.chatUseCase.DeleteRoom(c.Request().Context(), chatID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
