// Package protocol defines the messages exchanged over the status websocket.
package protocol

import "encoding/json"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeAuth is sent by client immediately after connection to authenticate
	TypeAuth MessageType = "auth"

	// TypeStatus carries a full status snapshot from the server
	TypeStatus MessageType = "status"

	// TypeEvent carries a notification from the server
	TypeEvent MessageType = "event"

	// TypeAddTrap asks the server to register a trap code
	TypeAddTrap MessageType = "add_trap"

	// TypeRemoveTrap asks the server to unregister a trap code
	TypeRemoveTrap MessageType = "remove_trap"

	// TypeAllTraps turns the all-traps override on or off
	TypeAllTraps MessageType = "all_traps"

	// TypeError reports a rejected client request
	TypeError MessageType = "error"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// AuthPayload is the payload for TypeAuth
type AuthPayload struct {
	Token string `json:"token"`
}

// TrapPayload is the payload for TypeAddTrap and TypeRemoveTrap
type TrapPayload struct {
	Code string `json:"code"`
}

// AllTrapsPayload is the payload for TypeAllTraps
type AllTrapsPayload struct {
	Enabled bool `json:"enabled"`
}

// ErrorPayload is the payload for TypeError
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodePayload converts a decoded Message payload into v.
func DecodePayload(msg Message, v any) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
