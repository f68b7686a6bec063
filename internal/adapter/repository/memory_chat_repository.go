package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

// memoryChatRepository is an in-memory ChatRepository used by tests and the
// STORE_BACKEND=memory development mode. It mirrors the Firestore adapter's
// semantics, including listener notifications on every message change.
type memoryChatRepository struct {
	mu        sync.RWMutex
	rooms     map[string]*entity.ChatRoom
	messages  map[string][]*entity.ChatMessage
	histories map[string]*entity.ChatHistory

	listeners  map[string]map[int]func([]*entity.ChatMessage)
	listenerID int
}

func NewMemoryChatRepository() repository.ChatRepository {
	return &memoryChatRepository{
		rooms:     make(map[string]*entity.ChatRoom),
		messages:  make(map[string][]*entity.ChatMessage),
		histories: make(map[string]*entity.ChatHistory),
		listeners: make(map[string]map[int]func([]*entity.ChatMessage)),
	}
}

func cloneRoom(room *entity.ChatRoom) *entity.ChatRoom {
	copied := *room
	copied.Participants = append([]string(nil), room.Participants...)
	return &copied
}

func cloneMessage(message *entity.ChatMessage) *entity.ChatMessage {
	copied := *message
	return &copied
}

func (r *memoryChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = cloneRoom(room)

	return nil
}

func (r *memoryChatRepository) GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, errors.NotFound("Chat room", nil)
	}

	return cloneRoom(room), nil
}

func (r *memoryChatRepository) UpdateRoom(ctx context.Context, room *entity.ChatRoom) error {
	room.UpdatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; !ok {
		return errors.NotFound("Chat room", nil)
	}
	r.rooms[room.ID] = cloneRoom(room)

	return nil
}

func (r *memoryChatRepository) FindActiveAdminRoom(ctx context.Context, customerID string) (*entity.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, room := range r.rooms {
		if room.ChatType == entity.ChatTypeAdminSupport &&
			room.CustomerID == customerID &&
			room.Status == entity.RoomStatusActive {
			return cloneRoom(room), nil
		}
	}

	return nil, errors.NotFound("Chat room", nil)
}

func (r *memoryChatRepository) FindActiveSellerRoom(ctx context.Context, customerID, sellerID string) (*entity.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, room := range r.rooms {
		if room.ChatType == entity.ChatTypeSellerSupport &&
			room.CustomerID == customerID &&
			room.SellerID == sellerID &&
			room.Status == entity.RoomStatusActive {
			return cloneRoom(room), nil
		}
	}

	return nil, errors.NotFound("Chat room", nil)
}

func (r *memoryChatRepository) ListRoomsByParticipant(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []*entity.ChatRoom
	for _, room := range r.rooms {
		if room.Status == entity.RoomStatusDeleted {
			continue
		}
		if room.IsParticipant(userID) {
			rooms = append(rooms, cloneRoom(room))
		}
	}

	sortRoomsByUpdatedAt(rooms)
	return rooms, nil
}

func (r *memoryChatRepository) ListRooms(ctx context.Context) ([]*entity.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []*entity.ChatRoom
	for _, room := range r.rooms {
		if room.Status == entity.RoomStatusDeleted {
			continue
		}
		rooms = append(rooms, cloneRoom(room))
	}

	sortRoomsByUpdatedAt(rooms)
	return rooms, nil
}

func sortRoomsByUpdatedAt(rooms []*entity.ChatRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
}

func (r *memoryChatRepository) CreateMessage(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	r.mu.Lock()
	r.messages[message.ChatID] = append(r.messages[message.ChatID], cloneMessage(message))
	snapshot, callbacks := r.snapshotLocked(message.ChatID)
	r.mu.Unlock()

	notify(snapshot, callbacks)
	return nil
}

func (r *memoryChatRepository) UpdateMessage(ctx context.Context, message *entity.ChatMessage) error {
	r.mu.Lock()

	updated := false
	for i, existing := range r.messages[message.ChatID] {
		if existing.ID == message.ID {
			r.messages[message.ChatID][i] = cloneMessage(message)
			updated = true
			break
		}
	}

	if !updated {
		r.mu.Unlock()
		return errors.NotFound("Message", nil)
	}

	snapshot, callbacks := r.snapshotLocked(message.ChatID)
	r.mu.Unlock()

	notify(snapshot, callbacks)
	return nil
}

func (r *memoryChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.visibleMessagesLocked(chatID), nil
}

func (r *memoryChatRepository) visibleMessagesLocked(chatID string) []*entity.ChatMessage {
	var messages []*entity.ChatMessage
	for _, message := range r.messages[chatID] {
		if message.Deleted {
			continue
		}
		messages = append(messages, cloneMessage(message))
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages
}

func (r *memoryChatRepository) CountUnread(ctx context.Context, chatID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, message := range r.messages[chatID] {
		if !message.Deleted && !message.IsRead {
			count++
		}
	}

	return count, nil
}

func (r *memoryChatRepository) SoftDeleteMessages(ctx context.Context, chatID string) error {
	r.mu.Lock()
	for _, message := range r.messages[chatID] {
		message.Deleted = true
	}
	snapshot, callbacks := r.snapshotLocked(chatID)
	r.mu.Unlock()

	notify(snapshot, callbacks)
	return nil
}

func (r *memoryChatRepository) ListenMessages(ctx context.Context, chatID string, onUpdate func([]*entity.ChatMessage)) (func(), error) {
	r.mu.Lock()
	if r.listeners[chatID] == nil {
		r.listeners[chatID] = make(map[int]func([]*entity.ChatMessage))
	}
	id := r.listenerID
	r.listenerID++
	r.listeners[chatID][id] = onUpdate
	initial := r.visibleMessagesLocked(chatID)
	r.mu.Unlock()

	// Firestore listeners deliver the current result set first
	onUpdate(initial)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if subs, ok := r.listeners[chatID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(r.listeners, chatID)
			}
		}
	}

	return cancel, nil
}

func (r *memoryChatRepository) snapshotLocked(chatID string) ([]*entity.ChatMessage, []func([]*entity.ChatMessage)) {
	var callbacks []func([]*entity.ChatMessage)
	for _, fn := range r.listeners[chatID] {
		callbacks = append(callbacks, fn)
	}
	if len(callbacks) == 0 {
		return nil, nil
	}
	return r.visibleMessagesLocked(chatID), callbacks
}

func notify(snapshot []*entity.ChatMessage, callbacks []func([]*entity.ChatMessage)) {
	for _, fn := range callbacks {
		fn(snapshot)
	}
}

func (r *memoryChatRepository) GetHistory(ctx context.Context, userID string) (*entity.ChatHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history, ok := r.histories[userID]
	if !ok {
		return nil, errors.NotFound("Chat history", nil)
	}

	copied := *history
	copied.ChatRooms = append([]string(nil), history.ChatRooms...)
	return &copied, nil
}

func (r *memoryChatRepository) SaveHistory(ctx context.Context, history *entity.ChatHistory) error {
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	history.UpdatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *history
	copied.ChatRooms = append([]string(nil), history.ChatRooms...)
	r.histories[history.UserID] = &copied

	return nil
}
