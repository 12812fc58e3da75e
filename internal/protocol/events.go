// Package protocol defines the websocket event payloads pushed to clients.
// The channel is server-to-client only: the client's "connect" is the
// authenticated upgrade itself and its "disconnect" is the socket close.
package protocol

import "github.com/fabiogreco/duet/internal/chat"

// EventType identifies websocket payload variants.
type EventType string

const (
	// EventOnlineUsers carries the full set of online user ids. Always a
	// complete snapshot, never a diff.
	EventOnlineUsers EventType = "getOnlineUsers"
	// EventNewMessage carries one freshly persisted message.
	EventNewMessage EventType = "newMessage"
)

type OnlineUsersEvent struct {
	Type  EventType `json:"type"`
	Users []string  `json:"users"`
}

type NewMessageEvent struct {
	Type    EventType    `json:"type"`
	Message chat.Message `json:"message"`
}
