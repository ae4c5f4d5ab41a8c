package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypingRelayedWithoutEcho(t *testing.T) {
	s, fu, fr, fm := newTestServer(t)
	fr.grant("r1", "u1")
	fr.grant("r1", "u2")
	c1 := connect(t, s, fu, "u1")
	c2 := connect(t, s, fu, "u2")
	joinRoom(t, s, c1, "r1")
	joinRoom(t, s, c2, "r1")

	dispatch(s, c1, EventTyping, `{"roomId":"r1","isTyping":true}`)

	f := awaitFrame(t, c2, EventUserTyping)
	var p UserTypingPayload
	payloadInto(t, f, &p)
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, "r1", p.RoomID)
	require.True(t, p.IsTyping)

	// never back to the sender, never persisted
	refuteFrame(t, c1, EventUserTyping)
	require.Equal(t, 0, fm.count())
}

func TestTypingStopRelayed(t *testing.T) {
	s, fu, fr, _ := newTestServer(t)
	fr.grant("r1", "u1")
	fr.grant("r1", "u2")
	c1 := connect(t, s, fu, "u1")
	c2 := connect(t, s, fu, "u2")
	joinRoom(t, s, c1, "r1")
	joinRoom(t, s, c2, "r1")

	dispatch(s, c1, EventTyping, `{"roomId":"r1","isTyping":false}`)

	f := awaitFrame(t, c2, EventUserTyping)
	var p UserTypingPayload
	payloadInto(t, f, &p)
	require.False(t, p.IsTyping)
}

func TestTypingOutsideTrackedRoomDropped(t *testing.T) {
	s, fu, fr, _ := newTestServer(t)
	fr.grant("r1", "u2")
	member := connect(t, s, fu, "u2")
	joinRoom(t, s, member, "r1")

	outsider := connect(t, s, fu, "u1") // never joined r1
	dispatch(s, outsider, EventTyping, `{"roomId":"r1","isTyping":true}`)

	// dropped silently: no relay, no error back
	refuteFrame(t, member, EventUserTyping)
	refuteFrame(t, outsider, EventError)
}
