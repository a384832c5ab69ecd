package ws

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

var ErrBadJSON = errors.New("bad json")
var ErrUnknownType = errors.New("unknown type")
var ErrBadPayload = errors.New("bad payload")

// toCommand decodes one client frame. The connection id is filled in by the
// caller. Payload shapes follow the browser client, which sends bare values
// for some events and objects for others.
func toCommand(data []byte) (session.Command, error) {
	var m types.ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return session.Command{}, ErrBadJSON
	}

	cmd := session.Command{Type: session.CommandType(m.Type)}
	switch cmd.Type {
	case session.CmdJoin:
		name, err := decodeName(m.Payload)
		if err != nil {
			return session.Command{}, err
		}
		cmd.Name = name

	case session.CmdVote:
		// a missing or null payload retracts the vote
		var p *session.Point
		if !isNull(m.Payload) {
			p = new(session.Point)
			if err := json.Unmarshal(m.Payload, p); err != nil {
				return session.Command{}, ErrBadPayload
			}
		}
		cmd.Point = p

	case session.CmdFinalize:
		if isObject(m.Payload) {
			var fp types.FinalizePayload
			if err := json.Unmarshal(m.Payload, &fp); err != nil {
				return session.Command{}, ErrBadPayload
			}
			cmd.Point, cmd.ItemID = fp.Point, fp.Item()
			break
		}
		if !isNull(m.Payload) {
			p := new(session.Point)
			if err := json.Unmarshal(m.Payload, p); err != nil {
				return session.Command{}, ErrBadPayload
			}
			cmd.Point = p
		}

	case session.CmdReveal, session.CmdReset:

	case session.CmdFetchItemDetails:
		if isObject(m.Payload) {
			var ip types.ItemPayload
			if err := json.Unmarshal(m.Payload, &ip); err != nil {
				return session.Command{}, ErrBadPayload
			}
			cmd.ItemID = ip.Item()
			break
		}
		if !isNull(m.Payload) {
			if err := json.Unmarshal(m.Payload, &cmd.ItemID); err != nil {
				return session.Command{}, ErrBadPayload
			}
		}

	case session.CmdUpdateAcceptanceCriteria, session.CmdUpdateDescription:
		var tp types.ItemTextPayload
		if !isNull(m.Payload) {
			if err := json.Unmarshal(m.Payload, &tp); err != nil {
				return session.Command{}, ErrBadPayload
			}
		}
		cmd.ItemID, cmd.Text = tp.Item(), tp.TextFor(cmd.Type)

	default:
		return session.Command{}, ErrUnknownType
	}
	return cmd, nil
}

func decodeName(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	if isObject(raw) {
		var jp types.JoinPayload
		if err := json.Unmarshal(raw, &jp); err != nil {
			return "", ErrBadPayload
		}
		return jp.Name, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", ErrBadPayload
	}
	return name, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
