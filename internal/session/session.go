package session

import (
	"errors"
	"maps"
)

var ErrNotJoined = errors.New("connection has not joined")
var ErrNotModerator = errors.New("only the moderator may do that")
var ErrMissingItem = errors.New("missing item id or text")
var ErrEmptyPoint = errors.New("empty point")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseVoting    Phase = "voting"
	PhaseRevealed  Phase = "revealed"
	PhaseFinalized Phase = "finalized"
)

// Rules are per-room policy switches. Both are off by default, which means
// anyone may drive the round and votes are visible before reveal.
type Rules struct {
	// ModeratorOnly restricts reveal, finalize, reset and item edits to
	// the moderator.
	ModeratorOnly bool
	// MaskVotes withholds vote values from everyone until reveal.
	MaskVotes bool
}

// Room is the authoritative state of one estimation room. It is not safe
// for concurrent use; the room actor is its only owner.
type Room struct {
	rules        Rules
	participants []Participant // join order
	votes        map[string]Point
	revealed     bool
	finalPoint   *Point
	moderator    string // a name, "" when unset
}

func NewRoom(rules Rules) *Room {
	return &Room{
		rules: rules,
		votes: make(map[string]Point),
	}
}

// Snapshot is an unmasked copy of the room state.
type Snapshot struct {
	Participants []Participant    `json:"participants"`
	Moderator    string           `json:"moderator,omitempty"`
	Votes        map[string]Point `json:"votes"`
	Revealed     bool             `json:"revealed"`
	FinalPoint   *Point           `json:"finalPoint"`
	Phase        Phase            `json:"phase"`
}

func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		Participants: r.participantList(),
		Moderator:    r.moderator,
		Votes:        maps.Clone(r.votes),
		Revealed:     r.revealed,
		FinalPoint:   r.finalPointCopy(),
		Phase:        r.Phase(),
	}
}

func (r *Room) Phase() Phase {
	switch {
	case r.finalPoint != nil:
		return PhaseFinalized
	case r.revealed:
		return PhaseRevealed
	default:
		return PhaseVoting
	}
}

// Apply runs one command against the room. Every successful mutation is
// followed by invariant repair and yields at most one broadcast. A rejected
// command leaves the room untouched.
func (r *Room) Apply(cmd Command) (Outcome, error) {
	switch cmd.Type {
	case CmdJoin:
		return r.join(cmd.ConnID, cmd.Name), nil
	case CmdVote:
		return r.vote(cmd.ConnID, cmd.Point)
	case CmdReveal:
		return r.reveal(cmd.ConnID)
	case CmdFinalize:
		return r.finalize(cmd.ConnID, cmd.Point, cmd.ItemID)
	case CmdReset:
		return r.reset(cmd.ConnID)
	case CmdDisconnect:
		return r.disconnect(cmd.ConnID)
	case CmdFetchItemDetails:
		if cmd.ItemID == "" {
			return Outcome{}, ErrMissingItem
		}
		return Outcome{Effect: RefreshItem{ItemID: cmd.ItemID}}, nil
	case CmdUpdateAcceptanceCriteria, CmdUpdateDescription:
		return r.updateItem(cmd)
	default:
		return Outcome{}, ErrUnsupportedCommand
	}
}

func (r *Room) join(connID, name string) Outcome {
	if i := r.indexOf(connID); i >= 0 {
		r.participants[i].Name = name
	} else {
		r.participants = append(r.participants, Participant{ID: connID, Name: name})
	}
	if r.moderator == "" {
		r.moderator = name
	}
	r.settle()
	return Outcome{Broadcast: r.participantsBroadcast()}
}

func (r *Room) vote(connID string, point *Point) (Outcome, error) {
	if r.indexOf(connID) < 0 {
		return Outcome{}, ErrNotJoined
	}
	if point == nil {
		delete(r.votes, connID)
	} else {
		if *point == "" {
			return Outcome{}, ErrEmptyPoint
		}
		r.votes[connID] = *point
	}
	r.settle()

	count, votes, voted := r.voteView()
	return Outcome{Broadcast: &Broadcast{Type: EvtVoteUpdate, Payload: VoteUpdatePayload{
		Count:        count,
		Votes:        votes,
		Voted:        voted,
		Participants: r.participantList(),
	}}}, nil
}

// reveal is idempotent: repeating it re-broadcasts the same data.
func (r *Room) reveal(connID string) (Outcome, error) {
	if err := r.authorize(connID); err != nil {
		return Outcome{}, err
	}
	r.revealed = true
	r.settle()
	return Outcome{Broadcast: &Broadcast{Type: EvtReveal, Payload: RevealPayload{
		Votes:        maps.Clone(r.votes),
		Participants: r.participantList(),
	}}}, nil
}

// finalize commits the estimate locally before any tracker work. With an
// item id the final broadcast is deferred until the tracker effect returns.
func (r *Room) finalize(connID string, point *Point, itemID string) (Outcome, error) {
	if err := r.authorize(connID); err != nil {
		return Outcome{}, err
	}
	if point == nil || *point == "" {
		return Outcome{}, ErrEmptyPoint
	}
	p := *point
	r.finalPoint = &p
	r.settle()

	if itemID == "" {
		return Outcome{Broadcast: FinalBroadcast(p, ItemDetails{})}, nil
	}
	return Outcome{Effect: PersistEstimate{ItemID: itemID, Point: p}}, nil
}

func (r *Room) reset(connID string) (Outcome, error) {
	if err := r.authorize(connID); err != nil {
		return Outcome{}, err
	}
	clear(r.votes)
	r.revealed = false
	r.finalPoint = nil
	r.settle()
	return Outcome{Broadcast: &Broadcast{Type: EvtReset}}, nil
}

func (r *Room) disconnect(connID string) (Outcome, error) {
	i := r.indexOf(connID)
	if i < 0 {
		return Outcome{}, ErrNotJoined
	}
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	delete(r.votes, connID)
	r.settle()
	return Outcome{Broadcast: r.participantsBroadcast()}, nil
}

func (r *Room) updateItem(cmd Command) (Outcome, error) {
	if cmd.ItemID == "" || cmd.Text == nil {
		return Outcome{}, ErrMissingItem
	}
	if err := r.authorize(cmd.ConnID); err != nil {
		return Outcome{}, err
	}
	if cmd.Type == CmdUpdateDescription {
		return Outcome{Effect: WriteDescription{ItemID: cmd.ItemID, Text: *cmd.Text}}, nil
	}
	return Outcome{Effect: WriteAcceptanceCriteria{ItemID: cmd.ItemID, Text: *cmd.Text}}, nil
}

// State is the room as a newly attached connection may see it.
func (r *Room) State() StatePayload {
	count, votes, voted := r.voteView()
	return StatePayload{
		Participants: r.participantList(),
		Moderator:    r.moderatorName(),
		Count:        count,
		Votes:        votes,
		Voted:        voted,
		Revealed:     r.revealed,
		FinalPoint:   r.finalPointCopy(),
		Phase:        r.Phase(),
	}
}

// settle restores the room invariants after a mutation: no reveal without
// votes, and a moderator name that a live participant still holds. When
// the name is gone the first participant in join order takes over.
func (r *Room) settle() {
	for id := range r.votes {
		if r.indexOf(id) < 0 {
			delete(r.votes, id)
		}
	}
	if len(r.votes) == 0 {
		r.revealed = false
	}
	if r.moderator != "" && r.holdsName(r.moderator) {
		return
	}
	r.moderator = ""
	if len(r.participants) > 0 {
		r.moderator = r.participants[0].Name
	}
}

func (r *Room) authorize(connID string) error {
	if !r.rules.ModeratorOnly {
		return nil
	}
	i := r.indexOf(connID)
	if i < 0 || r.participants[i].Name != r.moderator {
		return ErrNotModerator
	}
	return nil
}

// voteView applies vote masking: before reveal a masked room only says
// who has voted.
func (r *Room) voteView() (int, map[string]Point, []string) {
	voted := make([]string, 0, len(r.votes))
	for _, p := range r.participants {
		if _, ok := r.votes[p.ID]; ok {
			voted = append(voted, p.ID)
		}
	}
	if r.rules.MaskVotes && !r.revealed {
		return len(r.votes), nil, voted
	}
	return len(r.votes), maps.Clone(r.votes), voted
}

func (r *Room) participantsBroadcast() *Broadcast {
	return &Broadcast{Type: EvtParticipants, Payload: ParticipantsPayload{
		Participants: r.participantList(),
		Moderator:    r.moderatorName(),
	}}
}

func (r *Room) participantList() []Participant {
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (r *Room) moderatorName() *string {
	if r.moderator == "" {
		return nil
	}
	m := r.moderator
	return &m
}

func (r *Room) finalPointCopy() *Point {
	if r.finalPoint == nil {
		return nil
	}
	p := *r.finalPoint
	return &p
}

func (r *Room) indexOf(connID string) int {
	for i, p := range r.participants {
		if p.ID == connID {
			return i
		}
	}
	return -1
}

func (r *Room) holdsName(name string) bool {
	for _, p := range r.participants {
		if p.Name == name {
			return true
		}
	}
	return false
}
