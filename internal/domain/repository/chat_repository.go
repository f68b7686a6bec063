package repository

import (
	"context"

	"plantio/internal/domain/entity"
)

type ChatRepository interface {
	// Room methods
	CreateRoom(ctx context.Context, room *entity.ChatRoom) error
	GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	UpdateRoom(ctx context.Context, room *entity.ChatRoom) error
	FindActiveAdminRoom(ctx context.Context, customerID string) (*entity.ChatRoom, error)
	FindActiveSellerRoom(ctx context.Context, customerID, sellerID string) (*entity.ChatRoom, error)
	ListRoomsByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error)
	ListRooms(ctx context.Context) ([]*entity.ChatRoom, error)

	// Message methods
	CreateMessage(ctx context.Context, message *entity.ChatMessage) error
	UpdateMessage(ctx context.Context, message *entity.ChatMessage) error
	ListMessages(ctx context.Context, chatID string) ([]*entity.ChatMessage, error)
	CountUnread(ctx context.Context, chatID string) (int, error)
	SoftDeleteMessages(ctx context.Context, chatID string) error

	// ListenMessages delivers the full non-deleted message list, sorted
	// ascending by timestamp, every time any message in the room changes.
	// The returned function cancels the subscription.
	ListenMessages(ctx context.Context, chatID string, onUpdate func([]*entity.ChatMessage)) (func(), error)

	// Chat history methods
	GetHistory(ctx context.Context, userID string) (*entity.ChatHistory, error)
	SaveHistory(ctx context.Context, history *entity.ChatHistory) error
}
