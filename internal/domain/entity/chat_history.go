package entity

import "time"

// ChatHistory is a derived per-user index of the rooms a user has joined.
// It is never authoritative for room membership.
type ChatHistory struct {
	UserID     string    `json:"user_id" firestore:"userId"`
	UserName   string    `json:"user_name" firestore:"userName"`
	UserRole   string    `json:"user_role" firestore:"userRole"`
	ChatRooms  []string  `json:"chat_rooms" firestore:"chatRooms"`
	TotalChats int       `json:"total_chats" firestore:"totalChats"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}

// AddRoom appends a room id if it is not already present and keeps
// TotalChats equal to the set size.
func (h *ChatHistory) AddRoom(roomID string) {
	for _, id := range h.ChatRooms {
		if id == roomID {
			return
		}
	}
	h.ChatRooms = append(h.ChatRooms, roomID)
	h.TotalChats = len(h.ChatRooms)
}
