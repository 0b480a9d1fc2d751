package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// IceHandler serves ICE server configuration to clients. With Twilio
// credentials configured it fetches short-lived TURN credentials; otherwise
// it falls back to public STUN servers. The service itself never relays
// media.
type IceHandler struct {
	twilioClient *twilio.RestClient
}

func NewIceHandler(accountSID, authToken string) *IceHandler {
	h := &IceHandler{}
	if accountSID != "" && authToken != "" {
		h.twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return h
}

var fallbackIceServers = []map[string]any{
	{"urls": "stun:stun.l.google.com:19302"},
	{"urls": "stun:stun1.l.google.com:19302"},
}

// GetIceServers handles GET /api/ice-servers.
func (h *IceHandler) GetIceServers(w http.ResponseWriter, r *http.Request) {
	if h.twilioClient == nil {
		writeJSON(w, http.StatusOK, map[string]any{"iceServers": fallbackIceServers})
		return
	}

	ttl := 86400
	token, err := h.twilioClient.Api.CreateToken(&twilioApi.CreateTokenParams{
		Ttl: &ttl,
	})
	if err != nil {
		logrus.WithError(err).Warn("Twilio token request failed, returning STUN fallback")
		writeJSON(w, http.StatusOK, map[string]any{"iceServers": fallbackIceServers})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"iceServers": token.IceServers})
}
