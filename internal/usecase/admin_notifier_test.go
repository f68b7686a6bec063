package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantio/internal/adapter/repository"
	"plantio/internal/domain/entity"
	"plantio/internal/infrastructure/eventbus"
	"plantio/internal/infrastructure/websocket"
)

func newTestAdminNotifier(t *testing.T) (*eventbus.Bus, *websocket.Client, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	userRepo := repository.NewMemoryUserRepository()
	require.NoError(t, userRepo.Save(ctx, &entity.User{
		ID: "admin-1", Email: "admin@example.com", Username: "fern", Role: "admin",
	}))

	manager := websocket.NewManager()
	manager.Start(ctx)

	client := &websocket.Client{UserID: "admin-1", Send: make(chan []byte, 8)}
	manager.Register <- client

	bus := eventbus.New()
	go NewAdminNotifier(userRepo, manager).Run(ctx, bus)

	return bus, client, cancel
}

func TestAdminNotifierPushesNewAdminRoomsToAdmins(t *testing.T) {
	bus, client, cancel := newTestAdminNotifier(t)
	defer cancel()

	var received websocket.ServerMessage
	require.Eventually(t, func() bool {
		bus.Publish(eventbus.RoomOpened{
			RoomID:     "room-1",
			ChatType:   entity.ChatTypeAdminSupport,
			CustomerID: "customer-1",
		})
		select {
		case payload := <-client.Send:
			require.NoError(t, json.Unmarshal(payload, &received))
			return true
		default:
			return false
		}
	}, time.Second, 20*time.Millisecond)

	assert.Equal(t, websocket.MessageTypeChatListUpdate, received.Type)
	assert.Equal(t, "room-1", received.ChatID)
}

func TestAdminNotifierIgnoresReusedAndSellerRooms(t *testing.T) {
	bus, client, cancel := newTestAdminNotifier(t)
	defer cancel()

	bus.Publish(eventbus.RoomOpened{
		RoomID:     "room-1",
		ChatType:   entity.ChatTypeAdminSupport,
		CustomerID: "customer-1",
		Reused:     true,
	})
	bus.Publish(eventbus.RoomOpened{
		RoomID:     "room-2",
		ChatType:   entity.ChatTypeSellerSupport,
		CustomerID: "customer-1",
		SellerID:   "seller-1",
	})

	time.Sleep(100 * time.Millisecond)

	select {
	case payload := <-client.Send:
		t.Fatalf("unexpected notification: %s", payload)
	default:
	}
}
