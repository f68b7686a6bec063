package websocket

// Client-to-server message types.
const (
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeJoinRoom  = "join_room"
	MessageTypeLeaveRoom = "leave_room"
	MessageTypeMarkRead  = "mark_read"
)

// Server-to-client message types.
const (
	MessageTypeNewMessage     = "new_message"
	MessageTypeMessageList    = "message_list"
	MessageTypeRoomUpdate     = "room_update"
	MessageTypeRoomClosed     = "room_closed"
	MessageTypeReadReceipt    = "read_receipt"
	MessageTypeChatListUpdate = "chat_list_update"
	MessageTypeError          = "error"
)

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id,omitempty"`
}

// ServerMessage is the envelope for everything pushed to clients.
type ServerMessage struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}
