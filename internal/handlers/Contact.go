package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/contacts"
)

// Contact handles POST /api/contact: validates and stores a contact-form
// submission.
func Contact(store contacts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		msg, err := store.SaveMessage(r.Context(),
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Email),
			strings.TrimSpace(req.Message),
		)
		if errors.Is(err, contacts.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, "Name, Email, and Message are required")
			return
		}
		if err != nil {
			logrus.WithError(err).Error("Failed to save contact message")
			writeError(w, http.StatusInternalServerError, "Failed to save message")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"id":      msg.ID,
		})
	}
}
