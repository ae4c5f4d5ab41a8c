package gateway

import (
	"testing"

	"CityTalk/tools/ids"

	"github.com/stretchr/testify/require"
)

func boundClient(userID string) *Client {
	c := NewClient(ids.GenerateString(), nil, "127.0.0.1", 8)
	c.UserID = userID
	return c
}

func TestRegistryBindIsBidirectional(t *testing.T) {
	r := NewRegistry()
	c := boundClient("u1")

	require.Nil(t, r.Bind(c))

	got, ok := r.Get(c.ConnID)
	require.True(t, ok)
	require.Equal(t, c, got)

	got, ok = r.ConnOf("u1")
	require.True(t, ok)
	require.Equal(t, c, got)
	require.True(t, r.IsOnline("u1"))
	require.True(t, r.Alive(c.ConnID))
}

func TestRegistryLastHandshakeWins(t *testing.T) {
	r := NewRegistry()
	c1 := boundClient("u1")
	c2 := boundClient("u1")

	require.Nil(t, r.Bind(c1))
	evicted := r.Bind(c2)
	require.Equal(t, c1, evicted)

	// the old connection is fully gone from both directions
	_, ok := r.Get(c1.ConnID)
	require.False(t, ok)
	require.False(t, r.Alive(c1.ConnID))

	cur, ok := r.ConnOf("u1")
	require.True(t, ok)
	require.Equal(t, c2, cur)
	require.Equal(t, 1, r.Len())
}

func TestRegistryUnbindStaleClientIsNoop(t *testing.T) {
	r := NewRegistry()
	c1 := boundClient("u1")
	c2 := boundClient("u1")

	r.Bind(c1)
	r.Bind(c2) // evicts c1

	// the evicted client's late disconnect must not tear down the new session
	require.False(t, r.Unbind(c1))
	require.True(t, r.IsOnline("u1"))

	require.True(t, r.Unbind(c2))
	require.False(t, r.IsOnline("u1"))
}

func TestRegistryOneUserPerConnection(t *testing.T) {
	r := NewRegistry()
	c1 := boundClient("u1")
	c2 := boundClient("u2")
	r.Bind(c1)
	r.Bind(c2)

	// every conn id maps to exactly one user
	seen := make(map[string]string)
	for _, c := range r.All() {
		prev, dup := seen[c.ConnID]
		require.False(t, dup, "conn %s already mapped to %s", c.ConnID, prev)
		seen[c.ConnID] = c.UserID
	}
	require.Len(t, seen, 2)
	require.ElementsMatch(t, []string{"u1", "u2"}, r.ListOnline())
}

func TestRegistryClientsForSkipsDeadConns(t *testing.T) {
	r := NewRegistry()
	c1 := boundClient("u1")
	c2 := boundClient("u2")
	r.Bind(c1)
	r.Bind(c2)
	r.Unbind(c2)

	clients := r.ClientsFor([]string{c1.ConnID, c2.ConnID, "never-existed"})
	require.Len(t, clients, 1)
	require.Equal(t, c1, clients[0])
}
