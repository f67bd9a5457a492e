package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	constants "wordshift/internal/constants"
	directory "wordshift/internal/directory"
	models "wordshift/internal/models"
	ratelimit "wordshift/internal/ratelimit"
	room "wordshift/internal/room"
	util "wordshift/internal/util"
	words "wordshift/internal/words"
)

// App carries the wired services into the gin handlers, the way the teacher
// threads a single app value through its routes.
type App struct {
	Directory    *directory.Service
	Pool         *words.Pool
	Limiter      *ratelimit.Limiter
	StartTime    time.Time
	IsProduction bool
}

type gateFields struct {
	ChallengeID     string `json:"challengeId"`
	ChallengeAnswer string `json:"challengeAnswer"`
	VerifyToken     string `json:"verifyToken"`
}

func (g gateFields) proof() models.ChallengeProof {
	return models.ChallengeProof{
		ChallengeID: g.ChallengeID,
		Answer:      g.ChallengeAnswer,
		Token:       g.VerifyToken,
	}
}

type createBody struct {
	gateFields
	Name          string   `json:"name"`
	RoomName      string   `json:"roomName"`
	Mode          string   `json:"mode"`
	MaxPlayers    int      `json:"maxPlayers"`
	Mutators      []string `json:"mutators"`
	WordLength    int      `json:"wordLength"`
	HostSpectator bool     `json:"hostSpectator"`
}

type joinBody struct {
	gateFields
	RoomID       string `json:"roomId"`
	Name         string `json:"name"`
	SessionToken string `json:"sessionToken"`
}

type nameBody struct {
	Name string `json:"name"`
}

// ListHandler returns the live room summaries, newest activity first.
func (app *App) ListHandler(c *gin.Context) {
	status, body := app.Directory.List()
	c.JSON(status, body)
}

// ChallengeHandler mints an anti-abuse challenge for the client to solve.
func (app *App) ChallengeHandler(c *gin.Context) {
	status, body := app.Directory.IssueChallenge()
	c.JSON(status, body)
}

// NameValidateHandler reports whether a candidate name is an approved
// campaign word.
func (app *App) NameValidateHandler(c *gin.Context) {
	var body nameBody
	_ = c.ShouldBindJSON(&body)
	status, resp := app.Directory.ValidateName(body.Name)
	c.JSON(status, resp)
}

// CreateHandler allocates a room behind the anti-abuse gate.
func (app *App) CreateHandler(c *gin.Context) {
	var body createBody
	_ = c.ShouldBindJSON(&body)
	status, resp := app.Directory.Create(&directory.CreateRequest{
		Name:          body.Name,
		RoomName:      body.RoomName,
		Mode:          body.Mode,
		MaxPlayers:    body.MaxPlayers,
		Mutators:      body.Mutators,
		WordLength:    body.WordLength,
		HostSpectator: body.HostSpectator,
		Proof:         body.proof(),
	})
	c.JSON(status, resp)
}

// JoinHandler admits a player behind the anti-abuse gate.
func (app *App) JoinHandler(c *gin.Context) {
	var body joinBody
	_ = c.ShouldBindJSON(&body)
	status, resp := app.Directory.Join(&directory.JoinRequest{
		RoomID:       body.RoomID,
		Name:         body.Name,
		SessionToken: body.SessionToken,
		Proof:        body.proof(),
	})
	c.JSON(status, resp)
}

// RoomStateHandler proxies the poll read to the addressed room actor.
func (app *App) RoomStateHandler(c *gin.Context) {
	status, resp := app.Directory.RoomState(c.Param("roomId"), c.Query("sessionToken"))
	c.JSON(status, resp)
}

// RoomActionHandler proxies a session-scoped mutation to the addressed room
// actor.
func (app *App) RoomActionHandler(c *gin.Context) {
	var body room.ActionRequest
	_ = c.ShouldBindJSON(&body)
	status, resp := app.Directory.RoomAction(c.Param("roomId"), &body)
	c.JSON(status, resp)
}

// HealthzHandler reports service vitals.
func (app *App) HealthzHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)
	approved, _ := app.Pool.Approved()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"service":         "wordshift-lobbies",
		"version":         constants.Version,
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"approved_words":  len(approved),
		"tracked_clients": app.Limiter.Size(),
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
