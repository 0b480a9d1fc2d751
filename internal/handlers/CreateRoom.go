package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/registry"
)

// CreateRoom handles POST /api/room/create. Creation is idempotent: a room id
// that already exists returns the existing room unchanged.
func CreateRoom(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RoomID string `json:"roomId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.RoomID == "" {
			writeError(w, http.StatusBadRequest, "roomId is required")
			return
		}

		info, created := reg.CreateRoom(req.RoomID)
		if created {
			logrus.WithField("room_id", req.RoomID).Info("Room created via API")
		}

		writeJSON(w, http.StatusOK, info)
	}
}
