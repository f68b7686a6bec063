package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantio/internal/adapter/repository"
	"plantio/internal/domain/entity"
	domainrepo "plantio/internal/domain/repository"
	"plantio/internal/infrastructure/eventbus"
	"plantio/internal/infrastructure/ratelimit"
	"plantio/internal/infrastructure/websocket"
	"plantio/pkg/errors"
)

func newTestChatUseCase(t *testing.T) (*ChatUseCase, domainrepo.ChatRepository, *eventbus.Bus) {
	t.Helper()

	chatRepo := repository.NewMemoryChatRepository()
	userRepo := repository.NewMemoryUserRepository()
	bus := eventbus.New()

	ctx := context.Background()
	users := []*entity.User{
		{ID: "customer-1", Email: "rosa@example.com", Username: "rosa", Role: "customer"},
		{ID: "customer-2", Email: "basil@example.com", Username: "basil", Role: "customer"},
		{ID: "admin-1", Email: "admin@example.com", Username: "fern", Role: "admin"},
		{ID: "seller-1", Email: "seller@example.com", Username: "ivy", Role: "seller", StoreName: "Ivy Greenhouse"},
	}
	for _, user := range users {
		require.NoError(t, userRepo.Save(ctx, user))
	}

	uc := NewChatUseCase(chatRepo, userRepo, websocket.NewManager(), ratelimit.NewRateLimiter(), bus)
	return uc, chatRepo, bus
}

func TestOpenRoomCreatesActiveRoom(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	assert.NotEmpty(t, room.ID)
	assert.Equal(t, entity.RoomStatusActive, room.Status)
	assert.Equal(t, entity.ChatTypeAdminSupport, room.ChatType)
	assert.Equal(t, "customer-1", room.CustomerID)
	assert.Equal(t, "rosa", room.CustomerName)
	assert.Contains(t, room.Participants, "customer-1")
	assert.Zero(t, room.UnreadCount)
}

func TestOpenRoomReusesActiveRoom(t *testing.T) {
	uc, _, bus := newTestChatUseCase(t)
	ctx := context.Background()

	events, cancel := bus.Subscribe(4)
	defer cancel()

	first, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	second, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	created := <-events
	assert.False(t, created.Reused)
	reused := <-events
	assert.True(t, reused.Reused)
	assert.Equal(t, first.ID, reused.RoomID)
}

func TestOpenRoomSeparateChannels(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	adminRoom, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	sellerRoom, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{
		ChatType: entity.ChatTypeSellerSupport,
		SellerID: "seller-1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, adminRoom.ID, sellerRoom.ID)
	assert.Equal(t, "seller-1", sellerRoom.SellerID)
	assert.Equal(t, "Ivy Greenhouse", sellerRoom.SellerName)
	assert.Contains(t, sellerRoom.Participants, "seller-1")
}

func TestOpenRoomSellerSupportRequiresSellerID(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)

	_, err := uc.OpenRoom(context.Background(), "customer-1", OpenRoomInput{ChatType: entity.ChatTypeSellerSupport})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestOpenRoomWithInitialMessage(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{
		ChatType:       entity.ChatTypeAdminSupport,
		InitialMessage: "My monstera arrived with broken leaves",
	})
	require.NoError(t, err)

	assert.Equal(t, "My monstera arrived with broken leaves", room.LastMessage)
	assert.Equal(t, 1, room.UnreadCount)

	messages, err := uc.ListMessages(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "customer-1", messages[0].SenderID)
}

func TestSendMessageUpdatesRoomCaches(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	message, err := uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "Is this plant pet safe?"})
	require.NoError(t, err)

	assert.Equal(t, "rosa", message.SenderName)
	assert.Equal(t, "customer", message.SenderRole)
	assert.Equal(t, entity.MessageTypeText, message.MessageType)
	assert.False(t, message.IsRead)

	updated, err := uc.GetRoom(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "Is this plant pet safe?", updated.LastMessage)
	assert.Equal(t, 1, updated.UnreadCount)
	assert.Equal(t, message.Timestamp.Unix(), updated.LastMessageTime.Unix())
}

func TestSendMessageNonParticipantForbidden(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-2", SendMessageInput{Message: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestSendMessageAdminAllowed(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	message, err := uc.SendMessage(ctx, room.ID, "admin-1", SendMessageInput{Message: "How can we help?"})
	require.NoError(t, err)
	assert.Equal(t, "admin", message.SenderRole)
}

func TestMarkReadRecomputesUnread(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "first"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "second"})
	require.NoError(t, err)

	current, err := uc.GetRoom(ctx, room.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, current.UnreadCount)

	marked, err := uc.MarkRead(ctx, room.ID, "admin-1")
	require.NoError(t, err)
	assert.Zero(t, marked.UnreadCount)

	messages, err := uc.ListMessages(ctx, room.ID, "admin-1")
	require.NoError(t, err)
	for _, message := range messages {
		assert.True(t, message.IsRead)
	}
}

func TestMarkReadKeepsOwnMessagesUnread(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "from customer"})
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, room.ID, "admin-1", SendMessageInput{Message: "from admin"})
	require.NoError(t, err)

	marked, err := uc.MarkRead(ctx, room.ID, "admin-1")
	require.NoError(t, err)

	// The admin's own reply has not been read by the customer yet.
	assert.Equal(t, 1, marked.UnreadCount)

	marked, err = uc.MarkRead(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	assert.Zero(t, marked.UnreadCount)
}

func TestListMessagesOrderedByTimestamp(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: text})
		require.NoError(t, err)
	}

	messages, err := uc.ListMessages(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Message)
	assert.Equal(t, "two", messages[1].Message)
	assert.Equal(t, "three", messages[2].Message)
	assert.True(t, !messages[1].Timestamp.Before(messages[0].Timestamp))
	assert.True(t, !messages[2].Timestamp.Before(messages[1].Timestamp))
}

func TestCloseRoomIsTerminal(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "before close"})
	require.NoError(t, err)

	closed, err := uc.CloseRoom(ctx, room.ID, "admin-1", "Fern from Support")
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusClosed, closed.Status)
	assert.Zero(t, closed.UnreadCount)

	// Closing again is a no-op, not an error.
	again, err := uc.CloseRoom(ctx, room.ID, "admin-1", "Fern from Support")
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusClosed, again.Status)

	// No new messages after close.
	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "too late"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))

	// The closure notice is attributed to the closing actor.
	messages, err := uc.ListMessages(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	last := messages[len(messages)-1]
	assert.Equal(t, entity.MessageTypeSystemNotification, last.MessageType)
	assert.Equal(t, "admin-1", last.SenderID)
	assert.Equal(t, "Fern from Support", last.SenderName)
	assert.Contains(t, last.Message, "Fern from Support")
}

func TestCloseRoomAttributionDefaultsToProfileName(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.CloseRoom(ctx, room.ID, "admin-1", "")
	require.NoError(t, err)

	messages, err := uc.ListMessages(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	last := messages[len(messages)-1]
	assert.Equal(t, "admin-1", last.SenderID)
	assert.Equal(t, "fern", last.SenderName)
}

func TestClosedRoomNotReused(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	first, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.CloseRoom(ctx, first.ID, "admin-1", "fern")
	require.NoError(t, err)

	second, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDeleteRoomTombstones(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "soon gone"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteRoom(ctx, room.ID))

	_, err = uc.GetRoom(ctx, room.ID, "customer-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "into the void"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	rooms, err := uc.ListRooms(ctx, "customer-1")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	adminRooms, err := uc.ListAdminRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, adminRooms)
}

func TestListAdminRoomsConsolidatesDuplicates(t *testing.T) {
	uc, chatRepo, _ := newTestChatUseCase(t)
	ctx := context.Background()

	// Two active admin rooms for the same customer, as left behind when
	// concurrent open requests both miss the dedup lookup.
	for _, unread := range []int{2, 3} {
		room := &entity.ChatRoom{
			ChatType:     entity.ChatTypeAdminSupport,
			CustomerID:   "customer-1",
			CustomerName: "rosa",
			Participants: []string{"customer-1"},
			Status:       entity.RoomStatusActive,
			UnreadCount:  unread,
		}
		require.NoError(t, chatRepo.CreateRoom(ctx, room))
	}

	other, err := uc.OpenRoom(ctx, "customer-2", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	rooms, err := uc.ListAdminRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	var merged, single *entity.ChatRoom
	for _, room := range rooms {
		if room.CustomerID == "customer-1" {
			merged = room
		} else {
			single = room
		}
	}

	require.NotNil(t, merged)
	assert.Equal(t, 5, merged.UnreadCount)
	assert.Equal(t, "rosa (2 conversations)", merged.CustomerName)

	require.NotNil(t, single)
	assert.Equal(t, other.ID, single.ID)
	assert.Equal(t, "basil", single.CustomerName)
}

func TestSubscribeMessagesStreamsSnapshots(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	var snapshots [][]*entity.ChatMessage
	cancel, err := uc.SubscribeMessages(ctx, room.ID, "customer-1", func(messages []*entity.ChatMessage) {
		snapshots = append(snapshots, messages)
	})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "streamed"})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(snapshots), 2)
	assert.Empty(t, snapshots[0])
	last := snapshots[len(snapshots)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "streamed", last[0].Message)

	cancel()
	seen := len(snapshots)

	_, err = uc.SendMessage(ctx, room.ID, "customer-1", SendMessageInput{Message: "after cancel"})
	require.NoError(t, err)
	assert.Equal(t, seen, len(snapshots))
}

func TestChatHistoryTracksRooms(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	adminRoom, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	sellerRoom, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{
		ChatType: entity.ChatTypeSellerSupport,
		SellerID: "seller-1",
	})
	require.NoError(t, err)

	history, err := uc.GetChatHistory(ctx, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, 2, history.TotalChats)
	assert.Contains(t, history.ChatRooms, adminRoom.ID)
	assert.Contains(t, history.ChatRooms, sellerRoom.ID)

	// Reopening an existing room does not duplicate the history entry.
	_, err = uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	history, err = uc.GetChatHistory(ctx, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, 2, history.TotalChats)

	sellerHistory, err := uc.GetChatHistory(ctx, "seller-1")
	require.NoError(t, err)
	assert.Contains(t, sellerHistory.ChatRooms, sellerRoom.ID)
}

func TestGetChatHistoryEmptyForNewUser(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)

	history, err := uc.GetChatHistory(context.Background(), "customer-2")
	require.NoError(t, err)
	assert.Zero(t, history.TotalChats)
	assert.Empty(t, history.ChatRooms)
}

func TestSellerSupportConversationFlow(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{
		ChatType:       entity.ChatTypeSellerSupport,
		SellerID:       "seller-1",
		InitialMessage: "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusActive, room.Status)
	assert.Equal(t, "Hello", room.LastMessage)
	assert.Equal(t, 1, room.UnreadCount)

	marked, err := uc.MarkRead(ctx, room.ID, "seller-1")
	require.NoError(t, err)
	assert.Zero(t, marked.UnreadCount)

	_, err = uc.SendMessage(ctx, room.ID, "seller-1", SendMessageInput{Message: "Hi Alice"})
	require.NoError(t, err)

	updated, err := uc.GetRoom(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "Hi Alice", updated.LastMessage)
	assert.Equal(t, 1, updated.UnreadCount)
}

func TestSystemMessageDoesNotCountUnread(t *testing.T) {
	uc, _, _ := newTestChatUseCase(t)
	ctx := context.Background()

	room, err := uc.OpenRoom(ctx, "customer-1", OpenRoomInput{ChatType: entity.ChatTypeAdminSupport})
	require.NoError(t, err)

	message, err := uc.SendSystemMessage(ctx, room.ID, "Your order has shipped")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageTypeSystemNotification, message.MessageType)

	updated, err := uc.GetRoom(ctx, room.ID, "customer-1")
	require.NoError(t, err)
	assert.Equal(t, "Your order has shipped", updated.LastMessage)
	assert.Zero(t, updated.UnreadCount)
}
