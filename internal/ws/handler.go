package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/hub"
	"github.com/DoyleJ11/planning-poker-backend/internal/room"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

type Options struct {
	// DefaultRoom serves connections that name no room.
	DefaultRoom string
	OutboxSize  int
	// OriginPatterns are passed to websocket.Accept. Empty means same origin only.
	OriginPatterns []string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.OutboxSize <= 0 {
		o.OutboxSize = 16
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			code = opts.DefaultRoom
		}
		if code == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}

		rm := h.Get(r.Context(), code)
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		log := opts.Logger.With(zap.String("room", code), zap.String("conn", connID))
		log.Debug("client connected")

		out := make(chan session.Broadcast, opts.OutboxSize)
		if !rm.Send(room.Connect{ConnID: connID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer rm.Send(room.Leave{ConnID: connID})

		// Everything below stops when the outbox closes, a write fails, a ping
		// goes unanswered, or the request ends.
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine
		go func() {
			defer cancel()
			for b := range out {
				payload, err := types.Encode(b)
				if err != nil {
					log.Error("encode broadcast", zap.String("type", string(b.Type)), zap.Error(err))
					continue
				}
				wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
				err = conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				if err != nil {
					log.Debug("write failed", zap.Error(err))
					return
				}
			}
			// The room closed our outbox: we were too slow or the room is gone.
		}()

		go ping(ctx, cancel, conn, opts.PingInterval, log)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed")
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read failed", zap.Error(err))
					}
				}
				return
			}

			cmd, err := toCommand(data)
			if err != nil {
				wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
				_ = conn.Write(wctx, websocket.MessageText, types.EncodeError(err.Error()))
				wcancel()
				continue
			}
			cmd.ConnID = connID

			if !rm.Send(room.Event{Cmd: cmd}) {
				return
			}
		}
	}
}

func ping(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, every time.Duration, log *zap.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, every)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Debug("ping failed", zap.Error(err))
				}
				cancel()
				return
			}
		}
	}
}
