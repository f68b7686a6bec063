package usecase

import (
	"context"
	"log"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/internal/infrastructure/eventbus"
	"plantio/internal/infrastructure/websocket"
)

// AdminNotifier pushes a chat list update to every connected admin whenever
// a customer opens a new admin support conversation, so the admin queue
// refreshes without polling. Reused rooms and seller support rooms already
// reach their audience through the room's own participant notifications.
type AdminNotifier struct {
	userRepo  repository.UserRepository
	wsManager *websocket.Manager
}

func NewAdminNotifier(userRepo repository.UserRepository, wsManager *websocket.Manager) *AdminNotifier {
	return &AdminNotifier{
		userRepo:  userRepo,
		wsManager: wsManager,
	}
}

// Run consumes room-opened events until ctx is cancelled or the bus
// subscription is closed.
func (n *AdminNotifier) Run(ctx context.Context, bus *eventbus.Bus) {
	events, cancel := bus.Subscribe(16)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			n.notify(ctx, event)
		}
	}
}

func (n *AdminNotifier) notify(ctx context.Context, event eventbus.RoomOpened) {
	if event.ChatType != entity.ChatTypeAdminSupport || event.Reused {
		return
	}

	admins, err := n.userRepo.ListByRole(ctx, entity.SenderRoleAdmin)
	if err != nil {
		log.Printf("Failed to list admins for room %s notification: %v", event.RoomID, err)
		return
	}

	payload, err := marshalServerMessage(event.RoomID, websocket.MessageTypeChatListUpdate, map[string]string{
		"room_id":     event.RoomID,
		"customer_id": event.CustomerID,
	})
	if err != nil {
		log.Printf("Failed to marshal admin queue notification: %v", err)
		return
	}

	for _, admin := range admins {
		n.wsManager.SendToUser(admin.ID, payload)
	}
}
