// Package client is the participant side of a room: a local mirror of the
// server state, the UI decisions derived from it, and a websocket
// connection that keeps it current.
package client

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/DoyleJ11/planning-poker-backend/internal/markup"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

// Deck is the set of cards offered for voting.
var Deck = []session.Point{"0", "1", "2", "3", "5", "8", "13", "21"}

type ServerError struct{ Msg string }

func (e *ServerError) Error() string { return "server: " + e.Msg }

// View mirrors one room as seen by the participant called Name.
type View struct {
	Name string

	Participants []session.Participant
	Moderator    *string
	VoteCount    int
	Votes        map[string]session.Point
	Voted        []string
	Revealed     bool
	Results      *session.RevealPayload
	FinalPoint   *session.Point

	Summary            *string
	AcceptanceCriteria *string
	Description        *string

	Selected *session.Point
}

func NewView(name string) *View {
	return &View{Name: name}
}

// Apply folds one server message into the view. Unknown types are ignored.
func (v *View) Apply(m types.RawServerMessage) error {
	switch session.EventType(m.Type) {
	case session.EvtState:
		var p session.StatePayload
		if err := decode(m, &p); err != nil {
			return err
		}
		v.Participants, v.Moderator = p.Participants, p.Moderator
		v.VoteCount, v.Votes, v.Voted = p.Count, p.Votes, p.Voted
		v.setRevealed(p.Revealed)
		v.Results = nil
		if p.Revealed {
			v.Results = &session.RevealPayload{Votes: p.Votes, Participants: p.Participants}
		}
		v.FinalPoint = p.FinalPoint

	case session.EvtParticipants:
		var p session.ParticipantsPayload
		if err := decode(m, &p); err != nil {
			return err
		}
		v.Participants, v.Moderator = p.Participants, p.Moderator

	case session.EvtVoteUpdate:
		var p session.VoteUpdatePayload
		if err := decode(m, &p); err != nil {
			return err
		}
		v.VoteCount, v.Votes, v.Voted, v.Participants = p.Count, p.Votes, p.Voted, p.Participants
		if p.Count == 0 {
			// the server drops the reveal once the last vote is gone
			v.setRevealed(false)
			v.Results = nil
		}

	case session.EvtReveal:
		var p session.RevealPayload
		if err := decode(m, &p); err != nil {
			return err
		}
		v.Results = &p
		v.Votes = p.Votes
		v.setRevealed(len(p.Votes) > 0)

	case session.EvtFinal:
		var p session.FinalPayload
		if err := decode(m, &p); err != nil {
			return err
		}
		v.FinalPoint = &p.Point
		v.Summary, v.AcceptanceCriteria = p.Summary, p.AcceptanceCriteria

	case session.EvtReset:
		v.setRevealed(false)
		v.Results = nil
		v.FinalPoint = nil
		v.VoteCount, v.Votes, v.Voted = 0, nil, nil
		v.Summary, v.AcceptanceCriteria = nil, nil

	case session.EvtItemDetails:
		var p session.ItemDetails
		if err := decode(m, &p); err != nil {
			return err
		}
		v.Summary, v.AcceptanceCriteria, v.Description = p.Summary, p.AcceptanceCriteria, p.Description
		v.Selected = nil

	case types.TypeError:
		return &ServerError{Msg: m.Error}
	}
	return nil
}

func decode(m types.RawServerMessage, into any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, into); err != nil {
		return fmt.Errorf("decoding %s: %w", m.Type, err)
	}
	return nil
}

// setRevealed clears the selected card whenever the round flips.
func (v *View) setRevealed(r bool) {
	if r != v.Revealed {
		v.Selected = nil
	}
	v.Revealed = r
}

func (v *View) IsModerator() bool {
	return v.Name != "" && v.Moderator != nil && *v.Moderator == v.Name
}

// Select marks a card as chosen and returns the vote to send.
func (v *View) Select(p session.Point) types.ClientMessage {
	v.Selected = &p
	return Vote(&p)
}

// Deselect clears the chosen card and returns the retraction to send.
func (v *View) Deselect() types.ClientMessage {
	v.Selected = nil
	return Vote(nil)
}

// Controls says which parts of the room UI are shown.
type Controls struct {
	Cards      bool
	Reveal     bool
	Results    bool
	Finalize   bool
	StoryQueue bool
	EditItem   bool
}

func (v *View) Controls() Controls {
	mod := v.IsModerator()
	return Controls{
		Cards:      !v.Revealed,
		Reveal:     mod && !v.Revealed,
		Results:    v.Revealed && v.Results != nil,
		Finalize:   mod && v.Revealed,
		StoryQueue: mod,
		EditItem:   mod,
	}
}

type ResultLine struct {
	Name  string
	Point session.Point
}

// ResultLines lists revealed votes in join order.
func (v *View) ResultLines() []ResultLine {
	if v.Results == nil {
		return nil
	}
	var out []ResultLine
	for _, p := range v.Results.Participants {
		if pt, ok := v.Results.Votes[p.ID]; ok {
			out = append(out, ResultLine{Name: p.Name, Point: pt})
		}
	}
	return out
}

// Average is the mean of the numeric revealed votes.
func (v *View) Average() (float64, bool) {
	var sum float64
	var n int
	for _, l := range v.ResultLines() {
		if f, ok := l.Point.Numeric(); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Suggested is the smallest deck card at or above the average, which is
// what the finalize control starts from.
func (v *View) Suggested() (session.Point, bool) {
	avg, ok := v.Average()
	if !ok {
		return "", false
	}
	i := slices.IndexFunc(Deck, func(p session.Point) bool {
		f, _ := p.Numeric()
		return f >= avg
	})
	if i < 0 {
		return Deck[len(Deck)-1], true
	}
	return Deck[i], true
}

type Mode int

const (
	ModeText Mode = iota
	ModeHTML
)

func (v *View) RenderAcceptanceCriteria(mode Mode) string {
	return render(v.AcceptanceCriteria, mode)
}

func (v *View) RenderDescription(mode Mode) string {
	return render(v.Description, mode)
}

func render(s *string, mode Mode) string {
	if s == nil {
		return ""
	}
	if mode == ModeHTML {
		return markup.ToHTML(*s)
	}
	return markup.ToIndentedText(*s)
}
