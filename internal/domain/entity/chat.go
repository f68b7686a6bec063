package entity

import "time"

// Chat room categories. Admin-support rooms pair a customer with the admin
// pool; seller-support rooms pair a customer with one seller.
const (
	ChatTypeAdminSupport  = "admin_support"
	ChatTypeSellerSupport = "seller_support"
)

// Room lifecycle states. Closed and deleted are terminal; deleted is a
// tombstone excluded from every listing.
const (
	RoomStatusPending = "pending"
	RoomStatusActive  = "active"
	RoomStatusClosed  = "closed"
	RoomStatusDeleted = "deleted"
)

type ChatRoom struct {
	ID           string   `json:"id" firestore:"id"`
	ChatType     string   `json:"chat_type" firestore:"chatType"`
	CustomerID   string   `json:"customer_id" firestore:"customerId"`
	CustomerName string   `json:"customer_name" firestore:"customerName"`
	SellerID     string   `json:"seller_id,omitempty" firestore:"sellerId,omitempty"`
	SellerName   string   `json:"seller_name,omitempty" firestore:"sellerName,omitempty"`
	OrderID      string   `json:"order_id,omitempty" firestore:"orderId,omitempty"`
	Participants []string `json:"participants" firestore:"participants"`
	Status       string   `json:"status" firestore:"status"`

	// Denormalized cache of the message log, maintained by separate writes.
	LastMessage     string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageTime time.Time `json:"last_message_time" firestore:"lastMessageTime"`
	UnreadCount     int       `json:"unread_count" firestore:"unreadCount"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// IsParticipant reports whether the given user belongs to the room.
func (r *ChatRoom) IsParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
