package client

import (
	"encoding/json"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

func message(typ session.CommandType, payload any) types.ClientMessage {
	m := types.ClientMessage{Type: string(typ)}
	if payload != nil {
		m.Payload, _ = json.Marshal(payload)
	}
	return m
}

func Join(name string) types.ClientMessage {
	return message(session.CmdJoin, types.JoinPayload{Name: name})
}

// Vote casts p, or retracts the vote when p is nil.
func Vote(p *session.Point) types.ClientMessage {
	m := message(session.CmdVote, nil)
	if p != nil {
		m.Payload, _ = json.Marshal(*p)
	} else {
		m.Payload = json.RawMessage("null")
	}
	return m
}

func Reveal() types.ClientMessage { return message(session.CmdReveal, nil) }

func Reset() types.ClientMessage { return message(session.CmdReset, nil) }

func Finalize(p session.Point, itemID string) types.ClientMessage {
	return message(session.CmdFinalize, types.FinalizePayload{Point: &p, ItemID: itemID})
}

func FetchItem(itemID string) types.ClientMessage {
	return message(session.CmdFetchItemDetails, types.ItemPayload{ItemID: itemID})
}

func UpdateAcceptanceCriteria(itemID, text string) types.ClientMessage {
	return message(session.CmdUpdateAcceptanceCriteria, types.ItemTextPayload{
		ItemPayload: types.ItemPayload{ItemID: itemID},
		Text:        &text,
	})
}

func UpdateDescription(itemID, text string) types.ClientMessage {
	return message(session.CmdUpdateDescription, types.ItemTextPayload{
		ItemPayload: types.ItemPayload{ItemID: itemID},
		Text:        &text,
	})
}
