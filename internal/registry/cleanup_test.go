package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomExists(reg *Registry, id string) func() bool {
	return func() bool {
		_, ok := reg.GetRoom(id)
		return ok
	}
}

func roomGone(reg *Registry, id string) func() bool {
	return func() bool {
		_, ok := reg.GetRoom(id)
		return !ok
	}
}

func TestEmptyRoomDeletedAfterGracePeriod(t *testing.T) {
	reg := New(nil, 30*time.Millisecond)
	defer reg.Close()
	reg.CreateRoom("r1")
	reg.Join("r1", member("c1", "alice"), false)

	_, _, _, ok := reg.Leave("c1")
	require.True(t, ok)

	require.Eventually(t, roomGone(reg, "r1"), time.Second, 5*time.Millisecond)
}

func TestRejoinCancelsCleanup(t *testing.T) {
	reg := New(nil, 60*time.Millisecond)
	defer reg.Close()
	reg.CreateRoom("r1")
	reg.Join("r1", member("c1", "alice"), false)
	reg.Leave("c1")

	// Rejoin shortly before the deadline.
	time.Sleep(40 * time.Millisecond)
	_, err := reg.Join("r1", member("c2", "bob"), false)
	require.NoError(t, err)

	// Well past the original deadline the room must still exist and must
	// contain the new member.
	time.Sleep(80 * time.Millisecond)
	info, ok := reg.GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, 1, info.Participants)
}

func TestCleanupTimerReplacedNotStacked(t *testing.T) {
	reg := New(nil, 50*time.Millisecond)
	defer reg.Close()
	reg.CreateRoom("r1")

	// Two empty/rejoin cycles in a row; the second leave re-arms rather
	// than stacking a timer, so the deadline counts from the second leave.
	reg.Join("r1", member("c1", "alice"), false)
	reg.Leave("c1")
	reg.Join("r1", member("c2", "bob"), false)
	reg.Leave("c2")

	time.Sleep(20 * time.Millisecond)
	assert.True(t, roomExists(reg, "r1")())
	require.Eventually(t, roomGone(reg, "r1"), time.Second, 5*time.Millisecond)
}

func TestFireChecksEmptinessBeforeDeleting(t *testing.T) {
	reg := New(nil, 20*time.Millisecond)
	defer reg.Close()
	reg.CreateRoom("r1")
	reg.Join("r1", member("c1", "alice"), false)
	reg.Leave("c1")

	// Occupy the room again and let the original deadline pass.
	_, err := reg.Join("r1", member("c2", "bob"), false)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	info, ok := reg.GetRoom("r1")
	require.True(t, ok)
	assert.Equal(t, 1, info.Participants)
}

func TestCloseStopsPendingTimers(t *testing.T) {
	reg := New(nil, 20*time.Millisecond)
	reg.CreateRoom("r1")
	reg.Join("r1", member("c1", "alice"), false)
	reg.Leave("c1")

	reg.Close()
	time.Sleep(60 * time.Millisecond)

	// The timer was stopped with the room intact.
	_, ok := reg.GetRoom("r1")
	assert.True(t, ok)
}
