package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

type Msg interface{ isRoomMsg() }

// Connect attaches a connection's outbox. The room answers with a state
// message for that connection only.
type Connect struct {
	ConnID string
	Outbox chan session.Broadcast
}

func (Connect) isRoomMsg() {}

type Event struct {
	Cmd session.Command
}

func (Event) isRoomMsg() {}

// Leave detaches the outbox and removes the participant.
type Leave struct{ ConnID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// effectDone carries a finished tracker effect back into the loop.
type effectDone struct {
	broadcast *session.Broadcast
}

func (effectDone) isRoomMsg() {}

type View struct {
	Code       string
	NumClients int
	Snapshot   session.Snapshot
	State      session.StatePayload
}

type Options struct {
	Rules     session.Rules
	Tracker   session.Tracker
	Logger    *zap.Logger
	InboxSize int
}

type Room struct {
	code    string
	inbox   chan Msg
	state   *session.Room
	clients map[string]chan session.Broadcast
	tracker session.Tracker
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, code string, opts Options) *Room {
	ctx, cancel := context.WithCancel(parent)

	if opts.Tracker == nil {
		opts.Tracker = session.NoTracker{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 64
	}

	r := &Room{
		code:    code,
		inbox:   make(chan Msg, opts.InboxSize),
		state:   session.NewRoom(opts.Rules),
		clients: make(map[string]chan session.Broadcast),
		tracker: opts.Tracker,
		log:     opts.Logger.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Connect:
				r.clients[msg.ConnID] = msg.Outbox
				r.send(msg.ConnID, session.Broadcast{Type: session.EvtState, Payload: r.state.State()})

			case Leave:
				if ch, ok := r.clients[msg.ConnID]; ok {
					close(ch)
					delete(r.clients, msg.ConnID)
				}
				r.apply(session.Command{Type: session.CmdDisconnect, ConnID: msg.ConnID})

			case Event:
				r.apply(msg.Cmd)

			case effectDone:
				if msg.broadcast != nil {
					r.broadcast(*msg.broadcast)
				}

			case GetState:
				msg.Reply <- View{
					Code:       r.code,
					NumClients: len(r.clients),
					Snapshot:   r.state.Snapshot(),
					State:      r.state.State(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) apply(cmd session.Command) {
	out, err := r.state.Apply(cmd)
	if err != nil {
		// Rejected input is dropped without telling anyone.
		if !errors.Is(err, session.ErrNotJoined) || cmd.Type != session.CmdDisconnect {
			r.log.Debug("command rejected",
				zap.String("conn", cmd.ConnID),
				zap.String("cmd", string(cmd.Type)),
				zap.Error(err))
		}
		return
	}
	if out.Broadcast != nil {
		r.broadcast(*out.Broadcast)
	}
	if out.Effect != nil {
		r.startEffect(out.Effect)
	}
}

// startEffect does tracker work off the loop so other events keep flowing.
// The result re-enters through the inbox; a reset in the meantime does not
// cancel it.
func (r *Room) startEffect(eff session.Effect) {
	go func() {
		b := runEffect(r.ctx, r.tracker, eff, r.log)
		select {
		case r.inbox <- effectDone{broadcast: b}:
		case <-r.ctx.Done():
		}
	}()
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) broadcast(b session.Broadcast) {
	for id := range r.clients {
		r.send(id, b)
	}
}

func (r *Room) send(id string, b session.Broadcast) {
	ch := r.clients[id]
	select {
	case ch <- b:
	default:
		// Client is slow/full - drop them. The transport sees the closed
		// outbox, hangs up, and the Leave that follows removes the participant.
		r.log.Warn("dropping slow client", zap.String("conn", id))
		close(ch)
		delete(r.clients, id)
	}
}

func (r *Room) Code() string { return r.code }

// Inbox exposes the raw inbox for tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Send delivers msg unless the room has shut down.
func (r *Room) Send(msg Msg) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.inbox <- msg:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

// View asks the loop for its current state.
func (r *Room) View(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !r.Send(GetState{Reply: reply}) {
		return View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
	case <-r.ctx.Done():
	}
	return View{}, false
}
