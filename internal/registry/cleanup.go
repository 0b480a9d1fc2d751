package registry

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Deferred deletion of empty rooms. Each room id has at most one armed timer;
// arming replaces any existing timer rather than stacking a second one, and
// any join cancels it. Arm, cancel and fire all run under the registry mutex,
// so a timer can never delete a room that has regained a member.

// armCleanupLocked schedules deletion of roomID after the grace period.
// Caller holds r.mu.
func (r *Registry) armCleanupLocked(roomID string) {
	if r.closed {
		return
	}
	if timer, armed := r.cleanup[roomID]; armed {
		timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(r.cleanupDelay, func() {
		// t is visible here: expire acquires r.mu, which the goroutine
		// that assigned t held at the time.
		r.expire(roomID, t)
	})
	r.cleanup[roomID] = t

	r.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"delay":   r.cleanupDelay,
	}).Info("Room empty, scheduled for deletion")
}

// cancelCleanupLocked disarms the timer for roomID if one is pending.
// Caller holds r.mu.
func (r *Registry) cancelCleanupLocked(roomID string) {
	timer, armed := r.cleanup[roomID]
	if !armed {
		return
	}
	timer.Stop()
	delete(r.cleanup, roomID)
	r.log.WithField("room_id", roomID).Info("Room cleanup cancelled")
}

// expire runs when a cleanup timer fires without being cancelled. It
// re-checks under the lock that this timer is still the armed one and that
// the room is still empty: a join racing the firing either removed the timer
// entry first, or its member makes the emptiness check fail; either way
// nothing occupied is ever deleted.
func (r *Registry) expire(roomID string, fired *time.Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, armed := r.cleanup[roomID]
	if !armed || current != fired {
		return
	}
	delete(r.cleanup, roomID)

	room, exists := r.rooms[roomID]
	if !exists || len(room.Members) > 0 {
		return
	}

	delete(r.rooms, roomID)
	r.log.WithField("room_id", roomID).Info("Room deleted after grace period")
}
