package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/planning-poker-backend/internal/room"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, room.Options{})
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	r1 := <-reply

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	r2 := <-reply

	if r1 == nil || r2 == nil || r1 != r2 {
		t.Fatalf("expected same room pointer")
	}
}

func TestHub_CreateTakenCodeReturnsNil(t *testing.T) {
	h := NewHub(context.Background(), room.Options{})
	ctx := context.Background()

	require.NotNil(t, h.Create(ctx, "AAA111"))
	require.Nil(t, h.Create(ctx, "AAA111"))

	r1 := h.Ensure(ctx, "AAA111")
	r2 := h.Ensure(ctx, "BBB222")
	require.NotNil(t, r1)
	require.NotNil(t, r2)
	require.Equal(t, "AAA111", r1.Code())
	require.Equal(t, []string{"AAA111", "BBB222"}, h.List(ctx))
}

func TestHub_RemoveShutsRoomDown(t *testing.T) {
	h := NewHub(context.Background(), room.Options{})
	ctx := context.Background()

	r := h.Ensure(ctx, "R1")
	out := make(chan session.Broadcast, 4)
	r.Inbox() <- room.Connect{ConnID: "a", Outbox: out}
	<-out // state

	require.True(t, h.Remove(ctx, "R1"))
	require.False(t, h.Remove(ctx, "R1"))
	require.Nil(t, h.Get(ctx, "R1"))

	select {
	case _, ok := <-out:
		require.False(t, ok, "outbox should be closed")
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("room was not shut down")
	}
}

func TestHub_ShutdownStopsRoomsAndRequests(t *testing.T) {
	h := NewHub(context.Background(), room.Options{})
	ctx := context.Background()
	r := h.Ensure(ctx, "R1")

	h.Inbox() <- ShutdownHub{}
	select {
	case <-r.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("room still running after hub shutdown")
	}
	select {
	case <-h.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("hub still running")
	}
	require.Nil(t, h.Get(ctx, "R1"))
}
