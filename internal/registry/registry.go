package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/models"
	"github.com/kindlyrobotics/huddle/internal/snapshot"
)

var (
	// ErrRoomNotFound is returned when a join names a room that does not
	// exist and the creating flag is not set. A join never fabricates a
	// room on its own.
	ErrRoomNotFound = errors.New("room not found")

	// ErrAlreadyJoined is returned when a connection that already occupies
	// a room attempts a second join.
	ErrAlreadyJoined = errors.New("connection already joined a room")
)

// Registry is the authoritative in-memory map of rooms and their membership.
// It owns room creation, lookup and deletion policy, the connection-to-room
// index used on disconnect, and the deferred cleanup of empty rooms.
//
// One mutex guards rooms, the connection index and the cleanup timers, so the
// cross-structure invariants (index entry iff member entry, timer iff empty
// room) hold atomically. Room churn is low enough that per-room locking buys
// nothing here.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*models.Room
	connRoom map[string]string
	cleanup  map[string]*time.Timer

	store        snapshot.Store
	cleanupDelay time.Duration
	log          *logrus.Entry
	closed       bool

	// saveMu serializes snapshot writes; saveSeq (under mu) and savedSeq
	// (under saveMu) order them so a slow older write never clobbers a
	// newer snapshot.
	saveMu   sync.Mutex
	saveSeq  uint64
	savedSeq uint64
}

// New creates an empty registry. The store may be nil, in which case no
// snapshot is ever written (useful in tests).
func New(store snapshot.Store, cleanupDelay time.Duration) *Registry {
	return &Registry{
		rooms:        make(map[string]*models.Room),
		connRoom:     make(map[string]string),
		cleanup:      make(map[string]*time.Timer),
		store:        store,
		cleanupDelay: cleanupDelay,
		log:          logrus.WithField("component", "registry"),
	}
}

// LoadSnapshot populates the registry with empty durable rooms from the
// persisted snapshot. Failures are logged and swallowed: persistence is
// advisory and the live registry works from memory regardless.
func (r *Registry) LoadSnapshot(ctx context.Context) int {
	if r.store == nil {
		return 0
	}
	records, err := r.store.Load(ctx)
	if err != nil {
		r.log.WithError(err).Warn("Failed to load room snapshot, starting empty")
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	loaded := 0
	for _, rec := range records {
		if _, exists := r.rooms[rec.RoomID]; exists {
			continue
		}
		r.rooms[rec.RoomID] = &models.Room{
			ID:        rec.RoomID,
			CreatedAt: rec.CreatedAt,
			Durable:   true,
		}
		loaded++
	}
	if loaded > 0 {
		r.log.WithField("rooms", loaded).Info("Loaded rooms from snapshot")
	}
	return loaded
}

// CreateRoom inserts a new durable room, or returns the existing one
// unchanged. Duplicate creation is not a failure. The snapshot is written
// only when a room was actually inserted.
func (r *Registry) CreateRoom(id string) (models.RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createRoomLocked(id)
}

func (r *Registry) createRoomLocked(id string) (models.RoomInfo, bool) {
	if room, exists := r.rooms[id]; exists {
		return roomInfo(room), false
	}
	room := &models.Room{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Durable:   true,
	}
	r.rooms[id] = room
	r.log.WithField("room_id", id).Info("Room created")
	r.saveSnapshotLocked()
	return roomInfo(room), true
}

// GetRoom is a pure lookup with no side effects.
func (r *Registry) GetRoom(id string) (models.RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, exists := r.rooms[id]
	if !exists {
		return models.RoomInfo{}, false
	}
	return roomInfo(room), true
}

// Join resolves the room per the creating flag and adds the member to it,
// cancelling any pending cleanup, binding the connection index and computing
// the existing-participants snapshot, all under one lock. The returned list
// reflects membership just before the joiner's own add, in join order, so it
// is always consistent with the broadcast the other members receive.
func (r *Registry) Join(roomID string, member models.Member, creating bool) ([]models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.connRoom[member.ConnectionID]; bound {
		return nil, ErrAlreadyJoined
	}

	room, exists := r.rooms[roomID]
	if !exists {
		if !creating {
			return nil, ErrRoomNotFound
		}
		r.createRoomLocked(roomID)
		room = r.rooms[roomID]
	}

	r.cancelCleanupLocked(roomID)

	others := make([]models.Member, len(room.Members))
	copy(others, room.Members)

	room.Members = append(room.Members, member)
	r.connRoom[member.ConnectionID] = roomID

	r.log.WithFields(logrus.Fields{
		"room_id":       roomID,
		"connection_id": member.ConnectionID,
		"user_id":       member.UserID,
		"participants":  len(room.Members),
	}).Info("Member joined room")

	return others, nil
}

// Leave removes the connection's member entry from its room, unbinds the
// index and, if the room is now empty, arms the cleanup timer. It returns the
// removed member (for the departure broadcast) and the remaining members.
// ok is false when the connection was not in any room.
func (r *Registry) Leave(connectionID string) (string, models.Member, []models.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, bound := r.connRoom[connectionID]
	if !bound {
		return "", models.Member{}, nil, false
	}
	delete(r.connRoom, connectionID)

	room, exists := r.rooms[roomID]
	if !exists {
		return "", models.Member{}, nil, false
	}

	removed, found := room.MemberByConnection(connectionID)
	if !found {
		return "", models.Member{}, nil, false
	}

	kept := room.Members[:0]
	for _, m := range room.Members {
		if m.ConnectionID != connectionID {
			kept = append(kept, m)
		}
	}
	room.Members = kept

	remaining := make([]models.Member, len(room.Members))
	copy(remaining, room.Members)

	if len(room.Members) == 0 {
		r.armCleanupLocked(roomID)
	}

	r.log.WithFields(logrus.Fields{
		"room_id":       roomID,
		"connection_id": connectionID,
		"participants":  len(room.Members),
	}).Info("Member left room")

	return roomID, removed, remaining, true
}

// RoomOf resolves the room a live connection currently occupies.
func (r *Registry) RoomOf(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.connRoom[connectionID]
	return roomID, ok
}

// ListOthers returns the room's members in join order, excluding the given
// connection. Missing room yields an empty list.
func (r *Registry) ListOthers(roomID, excludeConnectionID string) []models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}
	others := make([]models.Member, 0, len(room.Members))
	for _, m := range room.Members {
		if m.ConnectionID != excludeConnectionID {
			others = append(others, m)
		}
	}
	return others
}

// Close stops all pending cleanup timers. The registry must not be used
// afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timer := range r.cleanup {
		timer.Stop()
		delete(r.cleanup, id)
	}
}

// saveSnapshotLocked schedules a snapshot write of the current durable rooms.
// The write happens on a background goroutine so a slow disk or network never
// stalls the signaling path. Writes are serialized under saveMu and carry a
// sequence number taken under the registry lock; a write whose snapshot is
// older than one already persisted is skipped, so two closely spaced creates
// cannot race their saves into a lost update.
func (r *Registry) saveSnapshotLocked() {
	if r.store == nil {
		return
	}
	records := make([]snapshot.RoomRecord, 0, len(r.rooms))
	for _, room := range r.rooms {
		if room.Durable {
			records = append(records, snapshot.RoomRecord{
				RoomID:    room.ID,
				CreatedAt: room.CreatedAt,
			})
		}
	}
	r.saveSeq++
	seq := r.saveSeq

	go func() {
		r.saveMu.Lock()
		defer r.saveMu.Unlock()
		if seq < r.savedSeq {
			return
		}
		r.savedSeq = seq

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.store.Save(ctx, records); err != nil {
			r.log.WithError(err).Warn("Failed to save room snapshot")
		}
	}()
}

func roomInfo(room *models.Room) models.RoomInfo {
	return models.RoomInfo{
		RoomID:       room.ID,
		Participants: len(room.Members),
		CreatedAt:    room.CreatedAt,
		Exists:       true,
	}
}
