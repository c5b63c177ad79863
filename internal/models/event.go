package models

// Websocket event types.
const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "onlineUsersChanged"
	EventAck         = "ack"
	EventError       = "error"
)

// Event is the envelope broadcast through websockets.
type Event struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	UserIDs []int    `json:"user_ids,omitempty"`
	// ClientRef echoes the client-supplied reference on ack/error so the UI
	// can reconcile optimistically inserted messages.
	ClientRef string `json:"client_ref,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}
