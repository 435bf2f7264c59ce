// Package streaming defines the wire protocol spoken to a remote overlay renderer.
package streaming

import (
	"encoding/json"
)

// Message type constants matching the streaming protocol.
const (
	TypeHello       = "hello"
	TypeCreatePanel = "create_panel"
	TypeSetStyle    = "set_style"
	TypeAddClass    = "add_class"
	TypeDeletePanel = "delete_panel"
	TypeAck         = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload announces the client and the reference layout it renders in.
type HelloPayload struct {
	Client         string  `json:"client"`
	Version        string  `json:"version"`
	ReferenceWidth float64 `json:"referenceWidth"`
}

type CreatePanelPayload struct {
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

type SetStylePayload struct {
	Name     string `json:"name"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

type AddClassPayload struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type DeletePanelPayload struct {
	Name string `json:"name"`
}
