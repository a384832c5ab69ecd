package session

type CommandType string

const (
	CmdJoin                     CommandType = "join"
	CmdVote                     CommandType = "vote"
	CmdReveal                   CommandType = "reveal"
	CmdFinalize                 CommandType = "finalize"
	CmdReset                    CommandType = "reset"
	CmdDisconnect               CommandType = "disconnect"
	CmdFetchItemDetails         CommandType = "fetchItemDetails"
	CmdUpdateAcceptanceCriteria CommandType = "updateAcceptanceCriteria"
	CmdUpdateDescription        CommandType = "updateDescription"
)

// Command is one inbound event, already attributed to the connection that
// sent it. Point is nil for a vote retraction.
type Command struct {
	Type   CommandType
	ConnID string
	Name   string
	Point  *Point
	ItemID string
	Text   *string
}

type EventType string

const (
	EvtState        EventType = "state"
	EvtParticipants EventType = "participants"
	EvtVoteUpdate   EventType = "voteUpdate"
	EvtReveal       EventType = "reveal"
	EvtFinal        EventType = "final"
	EvtReset        EventType = "reset"
	EvtItemDetails  EventType = "itemDetails"
)

// Broadcast is one outbound delta. Payload is nil for a bare reset.
type Broadcast struct {
	Type    EventType
	Payload any
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ParticipantsPayload struct {
	Participants []Participant `json:"participants"`
	Moderator    *string       `json:"moderator"`
}

// VoteUpdatePayload carries the vote count and, unless votes are masked,
// every vote by connection id. Voted lists who has voted in join order.
type VoteUpdatePayload struct {
	Count        int              `json:"count"`
	Votes        map[string]Point `json:"votes"`
	Voted        []string         `json:"voted"`
	Participants []Participant    `json:"participants"`
}

type RevealPayload struct {
	Votes        map[string]Point `json:"votes"`
	Participants []Participant    `json:"participants"`
}

type FinalPayload struct {
	Point              Point   `json:"point"`
	Summary            *string `json:"summary"`
	AcceptanceCriteria *string `json:"acceptanceCriteria"`
}

// ItemDetails is a snapshot of one tracker item. A nil field is unknown,
// either because the tracker has no value or because the lookup failed.
type ItemDetails struct {
	Summary            *string `json:"summary"`
	AcceptanceCriteria *string `json:"acceptanceCriteria"`
	Description        *string `json:"description"`
}

// StatePayload is sent to a connection when it attaches to a room.
type StatePayload struct {
	Participants []Participant    `json:"participants"`
	Moderator    *string          `json:"moderator"`
	Count        int              `json:"count"`
	Votes        map[string]Point `json:"votes"`
	Voted        []string         `json:"voted"`
	Revealed     bool             `json:"revealed"`
	FinalPoint   *Point           `json:"finalPoint"`
	Phase        Phase            `json:"phase"`
}

// Effect is tracker work requested by a command. It runs outside the room
// and yields at most one broadcast.
type Effect interface{ isEffect() }

type PersistEstimate struct {
	ItemID string
	Point  Point
}

type RefreshItem struct {
	ItemID string
}

type WriteAcceptanceCriteria struct {
	ItemID string
	Text   string
}

type WriteDescription struct {
	ItemID string
	Text   string
}

func (PersistEstimate) isEffect()         {}
func (RefreshItem) isEffect()             {}
func (WriteAcceptanceCriteria) isEffect() {}
func (WriteDescription) isEffect()        {}

// Outcome is the result of applying one command: at most one broadcast now
// and at most one effect whose completion may broadcast later.
type Outcome struct {
	Broadcast *Broadcast
	Effect    Effect
}

func FinalBroadcast(point Point, details ItemDetails) *Broadcast {
	return &Broadcast{Type: EvtFinal, Payload: FinalPayload{
		Point:              point,
		Summary:            details.Summary,
		AcceptanceCriteria: details.AcceptanceCriteria,
	}}
}

func DetailsBroadcast(details ItemDetails) *Broadcast {
	return &Broadcast{Type: EvtItemDetails, Payload: details}
}
