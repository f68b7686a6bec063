package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) rooms() *firestore.CollectionRef {
	return r.client.Collection("chatRooms")
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.rooms().Doc(chatID).Collection("messages")
}

func (r *firestoreChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := r.rooms().Doc(room.ID).Set(ctx, room)
	if err != nil {
		return errors.Internal("Failed to create chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := r.rooms().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room", nil)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

func (r *firestoreChatRepository) UpdateRoom(ctx context.Context, room *entity.ChatRoom) error {
	room.UpdatedAt = time.Now()

	_, err := r.rooms().Doc(room.ID).Set(ctx, room)
	if err != nil {
		return errors.Internal("Failed to update chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) FindActiveAdminRoom(ctx context.Context, customerID string) (*entity.ChatRoom, error) {
	query := r.rooms().
		Where("chatType", "==", entity.ChatTypeAdminSupport).
		Where("customerId", "==", customerID).
		Where("status", "==", entity.RoomStatusActive).
		Limit(1)

	return r.findOne(ctx, query)
}

func (r *firestoreChatRepository) FindActiveSellerRoom(ctx context.Context, customerID, sellerID string) (*entity.ChatRoom, error) {
	query := r.rooms().
		Where("chatType", "==", entity.ChatTypeSellerSupport).
		Where("customerId", "==", customerID).
		Where("sellerId", "==", sellerID).
		Where("status", "==", entity.RoomStatusActive).
		Limit(1)

	return r.findOne(ctx, query)
}

func (r *firestoreChatRepository) findOne(ctx context.Context, query firestore.Query) (*entity.ChatRoom, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Chat room", nil)
		}
		return nil, errors.Internal("Failed to query chat rooms", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

func (r *firestoreChatRepository) ListRoomsByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	query := r.rooms().
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	return r.listRooms(ctx, query)
}

func (r *firestoreChatRepository) ListRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	query := r.rooms().OrderBy("updatedAt", firestore.Desc)
	return r.listRooms(ctx, query)
}

func (r *firestoreChatRepository) listRooms(ctx context.Context, query firestore.Query) ([]*entity.ChatRoom, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch chat rooms", err)
	}

	var rooms []*entity.ChatRoom
	for _, doc := range docs {
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			log.Printf("Error parsing chat room data: %v", err)
			continue // Skip bad data instead of failing
		}
		// Deleted rooms are tombstones, never listed
		if room.Status == entity.RoomStatusDeleted {
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	_, err := r.messages(message.ChatID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) UpdateMessage(ctx context.Context, message *entity.ChatMessage) error {
	_, err := r.messages(message.ChatID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.ChatMessage, error) {
	query := r.messages(chatID).OrderBy("timestamp", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.Internal("Failed to fetch messages", err)
	}

	return parseMessages(docs), nil
}

func parseMessages(docs []*firestore.DocumentSnapshot) []*entity.ChatMessage {
	var messages []*entity.ChatMessage
	for _, doc := range docs {
		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data: %v", err)
			continue
		}
		if message.Deleted {
			continue
		}
		messages = append(messages, &message)
	}
	return messages
}

func (r *firestoreChatRepository) CountUnread(ctx context.Context, chatID string) (int, error) {
	docs, err := r.messages(chatID).Where("isRead", "==", false).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}

	count := 0
	for _, doc := range docs {
		var message entity.ChatMessage
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		if !message.Deleted {
			count++
		}
	}

	return count, nil
}

func (r *firestoreChatRepository) SoftDeleteMessages(ctx context.Context, chatID string) error {
	docs, err := r.messages(chatID).Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to fetch messages for deletion", err)
	}

	for _, doc := range docs {
		_, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "deleted", Value: true},
		})
		if err != nil {
			return errors.Internal("Failed to soft delete message", err)
		}
	}

	return nil
}

// ListenMessages streams the room's message list through Firestore snapshot
// listeners. Each snapshot delivers the full non-deleted list in timestamp
// order; the returned function stops the listener.
func (r *firestoreChatRepository) ListenMessages(ctx context.Context, chatID string, onUpdate func([]*entity.ChatMessage)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	snapshots := r.messages(chatID).OrderBy("timestamp", firestore.Asc).Snapshots(ctx)

	go func() {
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Firestore listener error for chat %s: %v", chatID, err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("Firestore listener error for chat %s: %v", chatID, err)
				return
			}

			onUpdate(parseMessages(docs))
		}
	}()

	return cancel, nil
}

func (r *firestoreChatRepository) GetHistory(ctx context.Context, userID string) (*entity.ChatHistory, error) {
	doc, err := r.client.Collection("chatHistories").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat history", nil)
		}
		return nil, errors.Internal("Failed to get chat history", err)
	}

	var history entity.ChatHistory
	if err := doc.DataTo(&history); err != nil {
		return nil, errors.Internal("Failed to parse chat history data", err)
	}

	return &history, nil
}

func (r *firestoreChatRepository) SaveHistory(ctx context.Context, history *entity.ChatHistory) error {
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	history.UpdatedAt = time.Now()

	_, err := r.client.Collection("chatHistories").Doc(history.UserID).Set(ctx, history)
	if err != nil {
		return errors.Internal("Failed to save chat history", err)
	}

	return nil
}
