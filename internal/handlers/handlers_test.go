package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlyrobotics/huddle/internal/contacts"
	"github.com/kindlyrobotics/huddle/internal/models"
	"github.com/kindlyrobotics/huddle/internal/registry"
	"github.com/kindlyrobotics/huddle/internal/signaling"
)

func newTestRouter(t *testing.T) (*mux.Router, *registry.Registry) {
	t.Helper()
	reg := registry.New(nil, time.Minute)
	t.Cleanup(reg.Close)

	r := mux.NewRouter()
	r.HandleFunc("/api/health", HealthCheck).Methods("GET")
	r.HandleFunc("/api/room/create", CreateRoom(reg)).Methods("POST")
	r.HandleFunc("/api/room/{roomId}", GetRoom(reg)).Methods("GET")
	r.HandleFunc("/api/contact", Contact(contacts.NewFileStore(t.TempDir()))).Methods("POST")
	r.HandleFunc("/api/ice-servers", NewIceHandler("", "").GetIceServers).Methods("GET")
	return r, reg
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, "GET", "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateRoomContract(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/room/create", `{"roomId":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.RoomInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "r1", info.RoomID)
	assert.Equal(t, 0, info.Participants)
	assert.True(t, info.Exists)
	assert.False(t, info.CreatedAt.IsZero())

	// Idempotent: same id returns the same room.
	rec = doJSON(t, router, "POST", "/api/room/create", `{"roomId":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var again models.RoomInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, info.CreatedAt, again.CreatedAt)
}

func TestCreateRoomValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/room/create", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/api/room/create", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRoom(t *testing.T) {
	router, reg := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/room/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Room not found")

	reg.CreateRoom("r1")
	rec = doJSON(t, router, "GET", "/api/room/r1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.RoomInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "r1", info.RoomID)
	assert.Equal(t, 0, info.Participants)
}

func TestContactEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "POST", "/api/contact",
		`{"name":"alice","email":"alice@example.com","message":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ID)

	rec = doJSON(t, router, "POST", "/api/contact", `{"name":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIceServersFallback(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, "GET", "/api/ice-servers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		IceServers []map[string]any `json:"iceServers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.IceServers)
	assert.Contains(t, resp.IceServers[0]["urls"], "stun:")
}

func TestServeWsOriginAllowlist(t *testing.T) {
	reg := registry.New(nil, time.Minute)
	t.Cleanup(reg.Close)
	handler := ServeWs(signaling.NewHub(reg), []string{"http://localhost:3000"})

	upgradeReq := func(origin string) *http.Request {
		req := httptest.NewRequest("GET", "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	// Non-allowlisted browser origins are refused at the handshake.
	rec := httptest.NewRecorder()
	handler(rec, upgradeReq("http://evil.example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Allowlisted and origin-less requests pass the origin check. The
	// recorder cannot be hijacked, so a passing check surfaces as a 500
	// from the upgrader rather than a 403.
	rec = httptest.NewRecorder()
	handler(rec, upgradeReq("http://localhost:3000"))
	assert.NotEqual(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, upgradeReq(""))
	assert.NotEqual(t, http.StatusForbidden, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	router, _ := newTestRouter(t)
	router.Use(CORS([]string{"http://localhost:3000"}))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
