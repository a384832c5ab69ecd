package types

import (
	"encoding/json"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

// ClientMessage is what a browser sends. Payload is decoded per type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"` // session.EventType or "error"
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RawServerMessage is the receiving side of ServerMessage.
type RawServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

const TypeError = "error"

type JoinPayload struct {
	Name string `json:"name"`
}

// FinalizePayload is the object form of finalize. JiraKey is the older
// spelling of ItemID.
type FinalizePayload struct {
	Point   *session.Point `json:"point"`
	ItemID  string         `json:"itemId,omitempty"`
	JiraKey string         `json:"jiraKey,omitempty"`
}

func (p FinalizePayload) Item() string {
	if p.ItemID != "" {
		return p.ItemID
	}
	return p.JiraKey
}

type ItemPayload struct {
	ItemID  string `json:"itemId,omitempty"`
	JiraKey string `json:"jiraKey,omitempty"`
}

func (p ItemPayload) Item() string {
	if p.ItemID != "" {
		return p.ItemID
	}
	return p.JiraKey
}

// ItemTextPayload carries an edit. Older clients name the text after the
// field being edited.
type ItemTextPayload struct {
	ItemPayload
	Text               *string `json:"text,omitempty"`
	AcceptanceCriteria *string `json:"acceptanceCriteria,omitempty"`
	Description        *string `json:"description,omitempty"`
}

func (p ItemTextPayload) TextFor(cmd session.CommandType) *string {
	if p.Text != nil {
		return p.Text
	}
	if cmd == session.CmdUpdateDescription {
		return p.Description
	}
	return p.AcceptanceCriteria
}

func Encode(b session.Broadcast) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: string(b.Type), Payload: b.Payload})
}

func EncodeError(msg string) []byte {
	data, _ := json.Marshal(ServerMessage{Type: TypeError, Error: msg})
	return data
}
