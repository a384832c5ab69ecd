package hub

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom replies nil when the code is already taken.
type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom shuts the room down, which closes every attached outbox.
type RemoveRoom struct {
	Code  string
	Reply chan bool
}

type ListRooms struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   room.Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub starts the hub. Every room it creates gets a copy of opts.
func NewHub(parent context.Context, opts room.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if h.rooms[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				if r := h.rooms[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case RemoveRoom:
				r, ok := h.rooms[msg.Code]
				if ok {
					r.Send(room.Shutdown{})
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ListRooms:
				codes := make([]string, 0, len(h.rooms))
				for code := range h.rooms {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) newRoom(code string) *room.Room {
	r := room.New(h.ctx, code, h.opts)
	h.rooms[code] = r
	h.log.Info("room created", zap.String("room", code))
	return r
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Send(room.Shutdown{})
	}
	clear(h.rooms)
	h.cancel()
}

// Get is a convenience wrapper around GetRoom for request handlers.
func (h *Hub) Get(ctx context.Context, code string) *room.Room {
	return ask(ctx, h, func(reply chan *room.Room) HubMsg { return GetRoom{Code: code, Reply: reply} })
}

func (h *Hub) Create(ctx context.Context, code string) *room.Room {
	return ask(ctx, h, func(reply chan *room.Room) HubMsg { return CreateRoom{Code: code, Reply: reply} })
}

func (h *Hub) Ensure(ctx context.Context, code string) *room.Room {
	return ask(ctx, h, func(reply chan *room.Room) HubMsg { return EnsureRoom{Code: code, Reply: reply} })
}

func (h *Hub) Remove(ctx context.Context, code string) bool {
	return ask(ctx, h, func(reply chan bool) HubMsg { return RemoveRoom{Code: code, Reply: reply} })
}

func (h *Hub) List(ctx context.Context) []string {
	return ask(ctx, h, func(reply chan []string) HubMsg { return ListRooms{Reply: reply} })
}

// ask sends one request and waits for the reply, giving up with the zero
// value when ctx ends or the hub stops.
func ask[T any](ctx context.Context, h *Hub, build func(chan T) HubMsg) T {
	var zero T
	reply := make(chan T, 1)
	select {
	case h.inbox <- build(reply):
	case <-ctx.Done():
		return zero
	case <-h.ctx.Done():
		return zero
	}
	select {
	case v := <-reply:
		return v
	case <-ctx.Done():
		return zero
	case <-h.ctx.Done():
		return zero
	}
}
