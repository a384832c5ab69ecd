package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/planning-poker-backend/internal/types"
)

// Conn is a participant's websocket connection. The View is only touched
// from the goroutine running Run.
type Conn struct {
	ws   *websocket.Conn
	view *View
}

// RoomURL builds the websocket URL for room on a server such as
// "http://localhost:4000". An empty room means the server's default.
func RoomURL(server, room string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	q := url.Values{}
	if room != "" {
		q.Set("room", room)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func Dial(ctx context.Context, wsURL, name string) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws, view: NewView(name)}, nil
}

func (c *Conn) Send(ctx context.Context, m types.ClientMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *Conn) SendAll(ctx context.Context, ms []types.ClientMessage) error {
	for _, m := range ms {
		if err := c.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Run reads until ctx ends or the server hangs up, applying every message
// to the view before handing it to onMessage. Server error messages are
// passed through, not returned.
func (c *Conn) Run(ctx context.Context, onMessage func(types.RawServerMessage, *View)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
					return nil
				}
				return err
			}
			var m types.RawServerMessage
			if err := json.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("decoding server message: %w", err)
			}
			var serr *ServerError
			if err := c.view.Apply(m); err != nil && !errors.As(err, &serr) {
				return err
			}
			if onMessage != nil {
				onMessage(m, c.view)
			}
		}
	})

	g.Go(func() error {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if err := c.ws.Ping(ctx); err != nil && ctx.Err() == nil {
					return fmt.Errorf("ping: %w", err)
				}
			}
		}
	})

	return g.Wait()
}

func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
