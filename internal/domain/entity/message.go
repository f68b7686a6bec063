package entity

import "time"

const (
	SenderRoleCustomer = "customer"
	SenderRoleSeller   = "seller"
	SenderRoleAdmin    = "admin"
	SenderRoleSystem   = "system"
)

const (
	MessageTypeText               = "text"
	MessageTypeImage              = "image"
	MessageTypeFile               = "file"
	MessageTypeSystemNotification = "system_notification"
)

// ChatMessage is immutable once created except for the IsRead and Deleted
// flags.
type ChatMessage struct {
	ID          string    `json:"id" firestore:"id"`
	ChatID      string    `json:"chat_id" firestore:"chatId"`
	SenderID    string    `json:"sender_id" firestore:"senderId"`
	SenderName  string    `json:"sender_name" firestore:"senderName"`
	SenderRole  string    `json:"sender_role" firestore:"senderRole"`
	Message     string    `json:"message" firestore:"message"`
	MessageType string    `json:"message_type" firestore:"messageType"`
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
	IsRead      bool      `json:"is_read" firestore:"isRead"`
	Deleted     bool      `json:"deleted" firestore:"deleted"`
}
