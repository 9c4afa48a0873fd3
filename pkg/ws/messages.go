package ws

import (
	"encoding/json"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants, all server -> client.
const (
	TypeSnapshot     = "rates:snapshot"
	TypeRatesUpdated = "rates:updated"
)

// SnapshotPayload describes the rates currently held. It is sent once
// when a client connects.
type SnapshotPayload struct {
	Dates       []string `json:"dates"`
	SlotCount   int      `json:"slotCount"`
	Fingerprint string   `json:"fingerprint"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// RatesUpdatedPayload announces that a refresh produced changed rates.
type RatesUpdatedPayload struct {
	EventID     string   `json:"eventId"`
	Dates       []string `json:"dates"`
	Fingerprint string   `json:"fingerprint"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
