package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	actorhost "wordshift/internal/actorhost"
	directory "wordshift/internal/directory"
	ratelimit "wordshift/internal/ratelimit"
	room "wordshift/internal/room"
	words "wordshift/internal/words"
)

type fixedSource struct {
	approved []string
}

func (f *fixedSource) LoadWordReview() ([]string, []string, error) {
	return f.approved, nil, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	host := actorhost.New(actorhost.NewMemoryBackend())
	pool := words.NewPool(&fixedSource{approved: []string{"apple", "grape", "lemon"}})
	rooms := room.NewService(host, pool)
	dir := directory.NewService(host, rooms, pool, &directory.ArithmeticVerifier{})

	app := &App{
		Directory: dir,
		Pool:      pool,
		Limiter:   ratelimit.New(ratelimit.DefaultConfig()),
		StartTime: time.Now(),
	}

	router := gin.New()
	lobbies := router.Group("/api/lobbies")
	{
		lobbies.GET("/list", app.ListHandler)
		lobbies.POST("/challenge", app.ChallengeHandler)
		lobbies.POST("/name/validate", app.NameValidateHandler)
		lobbies.POST("/create", app.CreateHandler)
		lobbies.POST("/join", app.JoinHandler)
		lobbies.GET("/:roomId/state", app.RoomStateHandler)
		lobbies.POST("/:roomId/action", app.RoomActionHandler)
	}
	router.GET("/healthz", app.HealthzHandler)
	return router
}

func postJSON(router *gin.Engine, target string, body map[string]any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getJSON(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// solveChallenge requests a challenge over HTTP and returns the gate fields
// for the next create/join body.
func solveChallenge(t *testing.T, router *gin.Engine) map[string]any {
	t.Helper()
	w := postJSON(router, "/api/lobbies/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	var left, right int
	var op string
	prompt, _ := body["prompt"].(string)
	_, err := fmt.Sscanf(prompt, "%d %s %d", &left, &op, &right)
	require.NoError(t, err, "unparseable prompt %q", prompt)
	answer := left + right
	if op == "-" {
		answer = left - right
	}
	return map[string]any{
		"challengeId":     body["challengeId"],
		"challengeAnswer": strconv.Itoa(answer),
	}
}

func TestLobbyLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	// Empty directory.
	w := getJSON(router, "/api/lobbies/list")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["rooms"])

	// Create behind the gate.
	createBody := solveChallenge(t, router)
	createBody["roomName"] = "Friday Night"
	createBody["maxPlayers"] = 3
	w = postJSON(router, "/api/lobbies/create", createBody)
	require.Equal(t, http.StatusOK, w.Code, "create: %s", w.Body.String())
	created := decode(t, w)
	roomID, _ := created["roomId"].(string)
	hostToken, _ := created["sessionToken"].(string)
	require.Len(t, roomID, 6)
	require.NotEmpty(t, hostToken)

	// The new room shows up in the listing without secrets.
	w = getJSON(router, "/api/lobbies/list")
	listed := decode(t, w)
	rooms, _ := listed["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.NotContains(t, w.Body.String(), hostToken)

	// Join over HTTP.
	joinBody := solveChallenge(t, router)
	joinBody["roomId"] = roomID
	w = postJSON(router, "/api/lobbies/join", joinBody)
	require.Equal(t, http.StatusOK, w.Code, "join: %s", w.Body.String())
	guestToken, _ := decode(t, w)["sessionToken"].(string)
	require.NotEmpty(t, guestToken)

	// Host-scoped state.
	w = getJSON(router, "/api/lobbies/"+roomID+"/state?sessionToken="+hostToken)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)
	roomView, _ := state["room"].(map[string]any)
	require.NotNil(t, roomView)
	you, _ := roomView["you"].(map[string]any)
	require.NotNil(t, you)
	assert.Equal(t, true, you["isHost"])

	// Start, then brute-force the tiny pool until the winning word lands.
	w = postJSON(router, "/api/lobbies/"+roomID+"/action",
		map[string]any{"type": "start", "sessionToken": hostToken})
	require.Equal(t, http.StatusOK, w.Code, "start: %s", w.Body.String())

	finished := false
	for _, guess := range []string{"apple", "grape", "lemon"} {
		w = postJSON(router, "/api/lobbies/"+roomID+"/action",
			map[string]any{"type": "guess", "sessionToken": hostToken, "guess": guess})
		require.Equal(t, http.StatusOK, w.Code, "guess: %s", w.Body.String())
		result := decode(t, w)
		gr, _ := result["guessResult"].(map[string]any)
		require.NotNil(t, gr)
		if gr["correct"] == true {
			finished = true
			break
		}
	}
	require.True(t, finished, "one of the three pool words must win")

	// Finished room exposes the solution.
	w = getJSON(router, "/api/lobbies/"+roomID+"/state?sessionToken="+guestToken)
	require.Equal(t, http.StatusOK, w.Code)
	state = decode(t, w)
	roomView, _ = state["room"].(map[string]any)
	assert.Equal(t, "finished", roomView["status"])
	assert.NotEmpty(t, roomView["solution"])
}

func TestCreateWithoutGateFails(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(router, "/api/lobbies/create", map[string]any{"roomName": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStateUnknownRoomID(t *testing.T) {
	router := newTestRouter(t)
	w := getJSON(router, "/api/lobbies/bogus/state")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNameValidation(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(router, "/api/lobbies/name/validate", map[string]any{"name": "apple"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "APPLE", body["normalized"])

	w = postJSON(router, "/api/lobbies/name/validate", map[string]any{"name": "zzzzz"})
	body = decode(t, w)
	assert.Equal(t, false, body["valid"])
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	w := getJSON(router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "wordshift-lobbies", body["service"])
	assert.NotZero(t, body["approved_words"])
}
