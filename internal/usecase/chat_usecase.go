package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/internal/infrastructure/eventbus"
	"plantio/internal/infrastructure/ratelimit"
	"plantio/internal/infrastructure/websocket"
	"plantio/pkg/errors"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	wsManager   *websocket.Manager
	rateLimiter *ratelimit.RateLimiter
	bus         *eventbus.Bus
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	wsManager *websocket.Manager,
	rateLimiter *ratelimit.RateLimiter,
	bus *eventbus.Bus,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
		rateLimiter: rateLimiter,
		bus:         bus,
	}
}

type OpenRoomInput struct {
	ChatType       string `json:"chat_type" validate:"required,oneof=admin_support seller_support"`
	SellerID       string `json:"seller_id,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	InitialMessage string `json:"initial_message,omitempty"`
}

type SendMessageInput struct {
	Message     string `json:"message" validate:"required"`
	MessageType string `json:"message_type,omitempty" validate:"omitempty,oneof=text image file"`
}

// OpenRoom returns the customer's active room for the requested support
// channel, creating one if none exists. The lookup and the create are two
// separate operations, so two concurrent requests can both miss the lookup
// and create duplicate rooms; the admin listing consolidates those at read
// time instead of locking here.
func (uc *ChatUseCase) OpenRoom(ctx context.Context, customerID string, input OpenRoomInput) (*entity.ChatRoom, error) {
	if input.ChatType == entity.ChatTypeSellerSupport && input.SellerID == "" {
		return nil, errors.BadRequest("Seller id is required for seller support", nil)
	}

	if allowed, retryAfter := uc.rateLimiter.Allow(customerID, "open_room"); !allowed {
		return nil, errors.TooManyRequests("Too many new conversations", retryAfter)
	}

	customer, err := uc.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var existing *entity.ChatRoom
	if input.ChatType == entity.ChatTypeAdminSupport {
		existing, err = uc.chatRepo.FindActiveAdminRoom(ctx, customerID)
	} else {
		existing, err = uc.chatRepo.FindActiveSellerRoom(ctx, customerID, input.SellerID)
	}
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	if existing != nil {
		log.Printf("Reusing active %s room %s for customer %s", existing.ChatType, existing.ID, customerID)
		uc.bus.Publish(eventbus.RoomOpened{
			RoomID:     existing.ID,
			ChatType:   existing.ChatType,
			CustomerID: customerID,
			SellerID:   existing.SellerID,
			Reused:     true,
		})

		if input.InitialMessage != "" {
			if _, err := uc.SendMessage(ctx, existing.ID, customerID, SendMessageInput{Message: input.InitialMessage}); err != nil {
				return nil, err
			}
			return uc.chatRepo.GetRoomByID(ctx, existing.ID)
		}
		return existing, nil
	}

	room := &entity.ChatRoom{
		ChatType:     input.ChatType,
		CustomerID:   customerID,
		CustomerName: customer.Username,
		OrderID:      input.OrderID,
		Participants: []string{customerID},
		Status:       entity.RoomStatusActive,
	}

	if input.ChatType == entity.ChatTypeSellerSupport {
		seller, err := uc.userRepo.GetByID(ctx, input.SellerID)
		if err != nil {
			return nil, err
		}
		room.SellerID = seller.ID
		room.SellerName = seller.StoreName
		room.Participants = append(room.Participants, seller.ID)
	}

	if err := uc.chatRepo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	uc.upsertHistory(ctx, customer.ID, customer.Username, customer.Role, room.ID)
	if room.SellerID != "" {
		uc.upsertHistory(ctx, room.SellerID, room.SellerName, entity.SenderRoleSeller, room.ID)
	}

	uc.bus.Publish(eventbus.RoomOpened{
		RoomID:     room.ID,
		ChatType:   room.ChatType,
		CustomerID: customerID,
		SellerID:   room.SellerID,
		Reused:     false,
	})

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, room.ID, customerID, SendMessageInput{Message: input.InitialMessage}); err != nil {
			return nil, err
		}
		return uc.chatRepo.GetRoomByID(ctx, room.ID)
	}

	return room, nil
}

// SendMessage appends a message and then refreshes the room's denormalized
// last-message and unread caches in a second write.
func (uc *ChatUseCase) SendMessage(ctx context.Context, chatID, senderID string, input SendMessageInput) (*entity.ChatMessage, error) {
	room, err := uc.roomForWrite(ctx, chatID)
	if err != nil {
		return nil, err
	}

	sender, err := uc.resolveSender(ctx, room, senderID)
	if err != nil {
		return nil, err
	}

	if allowed, retryAfter := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		return nil, errors.TooManyRequests("Too many messages", retryAfter)
	}

	messageType := input.MessageType
	if messageType == "" {
		messageType = entity.MessageTypeText
	}

	message := &entity.ChatMessage{
		ChatID:      chatID,
		SenderID:    sender.ID,
		SenderName:  sender.Username,
		SenderRole:  sender.Role,
		Message:     input.Message,
		MessageType: messageType,
		Timestamp:   time.Now(),
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	room.LastMessage = message.Message
	room.LastMessageTime = message.Timestamp
	room.UnreadCount++
	if err := uc.chatRepo.UpdateRoom(ctx, room); err != nil {
		log.Printf("Failed to update room caches for %s: %v", chatID, err)
	}

	uc.notifyChatRoom(chatID, websocket.MessageTypeNewMessage, message, senderID)
	uc.notifyParticipants(room, websocket.MessageTypeChatListUpdate, room, senderID)

	return message, nil
}

// SendSystemMessage records an automated notification in the room. System
// messages refresh the last-message cache but never count as unread.
func (uc *ChatUseCase) SendSystemMessage(ctx context.Context, chatID, text string) (*entity.ChatMessage, error) {
	room, err := uc.roomForWrite(ctx, chatID)
	if err != nil {
		return nil, err
	}

	message := &entity.ChatMessage{
		ChatID:      chatID,
		SenderID:    entity.SenderRoleSystem,
		SenderName:  "System",
		SenderRole:  entity.SenderRoleSystem,
		Message:     text,
		MessageType: entity.MessageTypeSystemNotification,
		Timestamp:   time.Now(),
		IsRead:      true,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	room.LastMessage = message.Message
	room.LastMessageTime = message.Timestamp
	if err := uc.chatRepo.UpdateRoom(ctx, room); err != nil {
		log.Printf("Failed to update room caches for %s: %v", chatID, err)
	}

	uc.notifyChatRoom(chatID, websocket.MessageTypeNewMessage, message, "")

	return message, nil
}

// MarkRead flips every unread message from other senders, then recounts the
// remaining unread messages and writes the total back to the room. The
// recount repairs any drift the incremental cache picked up.
func (uc *ChatUseCase) MarkRead(ctx context.Context, chatID, userID string) (*entity.ChatRoom, error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.resolveSender(ctx, room, userID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	for _, message := range messages {
		if message.IsRead || message.SenderID == userID {
			continue
		}
		message.IsRead = true
		if err := uc.chatRepo.UpdateMessage(ctx, message); err != nil {
			log.Printf("Failed to mark message %s as read: %v", message.ID, err)
		}
	}

	unread, err := uc.chatRepo.CountUnread(ctx, chatID)
	if err != nil {
		return nil, err
	}

	room.UnreadCount = unread
	if err := uc.chatRepo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	uc.notifyChatRoom(chatID, websocket.MessageTypeReadReceipt, map[string]string{"user_id": userID}, userID)

	return room, nil
}

// CloseRoom ends a conversation. Closed is terminal: closing an already
// closed room is a no-op and there is no reopen path; customers start a new
// conversation instead. The closure notice is attributed to the closing
// actor; actorName overrides the display name, falling back to the actor's
// profile username.
func (uc *ChatUseCase) CloseRoom(ctx context.Context, chatID, actorID, actorName string) (*entity.ChatRoom, error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if room.Status == entity.RoomStatusClosed {
		return room, nil
	}

	actor, err := uc.resolveSender(ctx, room, actorID)
	if err != nil {
		return nil, err
	}
	if actorName == "" {
		actorName = actor.Username
	}

	closing := &entity.ChatMessage{
		ChatID:      chatID,
		SenderID:    actorID,
		SenderName:  actorName,
		SenderRole:  actor.Role,
		Message:     fmt.Sprintf("This conversation has been closed by %s.", actorName),
		MessageType: entity.MessageTypeSystemNotification,
		Timestamp:   time.Now(),
		IsRead:      true,
	}
	if err := uc.chatRepo.CreateMessage(ctx, closing); err != nil {
		return nil, err
	}

	room.Status = entity.RoomStatusClosed
	room.LastMessage = closing.Message
	room.LastMessageTime = closing.Timestamp
	room.UnreadCount = 0
	if err := uc.chatRepo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	log.Printf("Room %s closed by %s", chatID, actorID)
	uc.notifyChatRoom(chatID, websocket.MessageTypeRoomClosed, room, "")
	uc.notifyParticipants(room, websocket.MessageTypeChatListUpdate, room, "")

	return room, nil
}

// DeleteRoom tombstones a room and soft-deletes its message log. Deleted
// rooms disappear from every listing but their documents remain in place.
func (uc *ChatUseCase) DeleteRoom(ctx context.Context, chatID string) error {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return err
	}

	if err := uc.chatRepo.SoftDeleteMessages(ctx, chatID); err != nil {
		return err
	}

	room.Status = entity.RoomStatusDeleted
	room.LastMessage = ""
	room.UnreadCount = 0
	if err := uc.chatRepo.UpdateRoom(ctx, room); err != nil {
		return err
	}

	log.Printf("Room %s deleted", chatID)
	uc.notifyChatRoom(chatID, websocket.MessageTypeRoomUpdate, map[string]string{"status": entity.RoomStatusDeleted}, "")

	return nil
}

func (uc *ChatUseCase) GetRoom(ctx context.Context, chatID, userID string) (*entity.ChatRoom, error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.resolveSender(ctx, room, userID); err != nil {
		return nil, err
	}
	return room, nil
}

func (uc *ChatUseCase) ListRooms(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	return uc.chatRepo.ListRoomsByParticipant(ctx, userID)
}

// ListAdminRooms returns the support queue for admins, with each customer's
// admin rooms consolidated into a single entry.
func (uc *ChatUseCase) ListAdminRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	rooms, err := uc.chatRepo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	return ConsolidateAdminRooms(rooms), nil
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, chatID, userID string) ([]*entity.ChatMessage, error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.resolveSender(ctx, room, userID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListMessages(ctx, chatID)
}

// SubscribeMessages starts a live snapshot stream for the room. Every change
// to the message log delivers the full sorted list to onUpdate. The caller
// must invoke the returned cancel function when the subscriber goes away.
func (uc *ChatUseCase) SubscribeMessages(ctx context.Context, chatID, userID string, onUpdate func([]*entity.ChatMessage)) (func(), error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.resolveSender(ctx, room, userID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListenMessages(ctx, chatID, onUpdate)
}

func (uc *ChatUseCase) GetChatHistory(ctx context.Context, userID string) (*entity.ChatHistory, error) {
	history, err := uc.chatRepo.GetHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return &entity.ChatHistory{UserID: userID, ChatRooms: []string{}}, nil
		}
		return nil, err
	}
	return history, nil
}

// getVisibleRoom fetches a room, treating the deleted tombstone as absent.
func (uc *ChatUseCase) getVisibleRoom(ctx context.Context, chatID string) (*entity.ChatRoom, error) {
	room, err := uc.chatRepo.GetRoomByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if room.Status == entity.RoomStatusDeleted {
		return nil, errors.NotFound("Chat room", nil)
	}
	return room, nil
}

// roomForWrite additionally rejects closed rooms, which accept no new
// messages.
func (uc *ChatUseCase) roomForWrite(ctx context.Context, chatID string) (*entity.ChatRoom, error) {
	room, err := uc.getVisibleRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if room.Status == entity.RoomStatusClosed {
		return nil, errors.Conflict("Chat room is closed")
	}
	return room, nil
}

// resolveSender loads the acting user and verifies room access. Admins can
// act on any room; everyone else must be a participant.
func (uc *ChatUseCase) resolveSender(ctx context.Context, room *entity.ChatRoom, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Forbidden("You don't have access to this chat room", nil)
		}
		return nil, err
	}

	if user.Role != entity.SenderRoleAdmin && !room.IsParticipant(userID) {
		return nil, errors.Forbidden("You don't have access to this chat room", nil)
	}

	return user, nil
}

func (uc *ChatUseCase) upsertHistory(ctx context.Context, userID, userName, userRole, roomID string) {
	history, err := uc.chatRepo.GetHistory(ctx, userID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			log.Printf("Failed to load chat history for %s: %v", userID, err)
			return
		}
		history = &entity.ChatHistory{
			UserID:   userID,
			UserName: userName,
			UserRole: userRole,
		}
	}

	history.AddRoom(roomID)
	if err := uc.chatRepo.SaveHistory(ctx, history); err != nil {
		log.Printf("Failed to save chat history for %s: %v", userID, err)
	}
}

func (uc *ChatUseCase) notifyChatRoom(chatID, messageType string, data interface{}, excludeUserID string) {
	payload, err := marshalServerMessage(chatID, messageType, data)
	if err != nil {
		log.Printf("Failed to marshal %s notification: %v", messageType, err)
		return
	}
	uc.wsManager.SendToChatRoom(chatID, payload, excludeUserID)
}

func (uc *ChatUseCase) notifyParticipants(room *entity.ChatRoom, messageType string, data interface{}, excludeUserID string) {
	payload, err := marshalServerMessage(room.ID, messageType, data)
	if err != nil {
		log.Printf("Failed to marshal %s notification: %v", messageType, err)
		return
	}
	for _, userID := range room.Participants {
		if userID == excludeUserID {
			continue
		}
		uc.wsManager.SendToUser(userID, payload)
	}
}

func marshalServerMessage(chatID, messageType string, data interface{}) ([]byte, error) {
	message := websocket.ServerMessage{
		Type:      messageType,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("marshal server message: %w", err)
	}
	return payload, nil
}
