package gateway

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomTrackerJoinLeave(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")
	tr.Join("r1", "c2")

	require.True(t, tr.Contains("r1", "c1"))
	require.Equal(t, 2, tr.Count("r1"))
	require.ElementsMatch(t, []string{"c1", "c2"}, tr.Snapshot("r1"))

	require.True(t, tr.Leave("r1", "c1"))
	require.False(t, tr.Leave("r1", "c1")) // already gone
	require.Equal(t, 1, tr.Count("r1"))
}

func TestRoomTrackerDropsEmptyRoom(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")
	tr.Leave("r1", "c1")

	require.Empty(t, tr.Rooms())
	require.Equal(t, 0, tr.Count("r1"))
}

func TestRoomTrackerRemoveConn(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")
	tr.Join("r2", "c1")
	tr.Join("r2", "c2")

	affected := tr.RemoveConn("c1")
	require.ElementsMatch(t, []string{"r1", "r2"}, affected)
	require.Empty(t, tr.RoomsOf("c1"))
	require.ElementsMatch(t, []string{"r2"}, tr.Rooms()) // r1 emptied out
}

func TestRoomTrackerReplaceKeepsRacingJoins(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")
	tr.Join("r1", "c2")

	read := tr.Snapshot("r1")
	// c3 joins between the reconciler's read and its replace
	tr.Join("r1", "c3")
	tr.Replace("r1", read, []string{"c1"})

	require.ElementsMatch(t, []string{"c1", "c3"}, tr.Snapshot("r1"))
}

func TestRoomTrackerReplaceHonorsRacingLeaves(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")
	tr.Join("r1", "c2")

	read := tr.Snapshot("r1")
	// c2 leaves between the reconciler's read and its replace; keeping it
	// must not resurrect it
	tr.Leave("r1", "c2")
	tr.Replace("r1", read, []string{"c1", "c2"})

	require.ElementsMatch(t, []string{"c1"}, tr.Snapshot("r1"))
}

func TestRoomTrackerReplaceLeaveOfOnlySurvivorDropsRoom(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c0") // dead, to be pruned
	tr.Join("r1", "c2")

	read := tr.Snapshot("r1")
	tr.Leave("r1", "c2")
	tr.Replace("r1", read, []string{"c2"})

	require.False(t, tr.Contains("r1", "c2"))
	require.Empty(t, tr.Rooms())
}

func TestRoomTrackerReplaceEmptyDropsRoom(t *testing.T) {
	tr := NewRoomTracker()
	tr.Join("r1", "c1")

	read := tr.Snapshot("r1")
	tr.Replace("r1", read, nil)
	require.Empty(t, tr.Rooms())
}

func TestRoomTrackerConcurrentJoins(t *testing.T) {
	tr := NewRoomTracker()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Join("r1", fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	require.Equal(t, n, tr.Count("r1"))
}
