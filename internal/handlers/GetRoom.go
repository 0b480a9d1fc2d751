package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kindlyrobotics/huddle/internal/registry"
)

// GetRoom handles GET /api/room/{roomId}.
func GetRoom(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomId"]

		info, ok := reg.GetRoom(roomID)
		if !ok {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		info.Exists = false // flag is part of the create response only
		writeJSON(w, http.StatusOK, info)
	}
}
