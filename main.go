package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	actorhost "wordshift/internal/actorhost"
	directory "wordshift/internal/directory"
	handlers "wordshift/internal/handlers"
	ratelimit "wordshift/internal/ratelimit"
	review "wordshift/internal/review"
	room "wordshift/internal/room"
	store "wordshift/internal/store"
	util "wordshift/internal/util"
	words "wordshift/internal/words"
)

type serverApp struct {
	limiterMap     map[string]*rateLimiterEntry
	limiterMu      sync.RWMutex
	rateLimitRPS   int
	rateLimitBurst int
	rateLimiterTTL time.Duration
}

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Wordshift lobbies in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	db, err := store.Open(util.GetEnvStr("WORDSHIFT_DB", "data/wordshift.db"))
	if err != nil {
		util.LogFatal("Failed to open store: %v", err)
	}
	defer db.Close()

	pool := words.NewPool(db)
	approved, _ := pool.Approved()
	util.LogInfo("Approved pool primed with %d words", len(approved))

	host := actorhost.New(db)
	rooms := room.NewService(host, pool)
	dir := directory.NewService(host, rooms, pool, buildVerifier())

	reviewLimiter := ratelimit.New(ratelimit.Config{
		Window:       util.GetEnvDuration("WORD_REVIEW_RATE_WINDOW", 10*time.Second),
		MaxRequests:  util.GetEnvInt("WORD_REVIEW_RATE_MAX_REQUESTS", 25),
		BaseCooldown: util.GetEnvDuration("WORD_REVIEW_RATE_BASE_COOLDOWN", 5*time.Second),
		MaxCooldown:  util.GetEnvDuration("WORD_REVIEW_RATE_MAX_COOLDOWN", 2*time.Minute),
		TrackTTL:     util.GetEnvDuration("WORD_REVIEW_RATE_TRACK_TTL", 15*time.Minute),
	})
	reviewHandler := &review.Handler{
		Store:    db,
		Limiter:  reviewLimiter,
		AdminKey: os.Getenv("WORD_REVIEW_ADMIN_KEY"),
	}

	app := &serverApp{
		limiterMap:     make(map[string]*rateLimiterEntry),
		rateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		rateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		rateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
	}

	webApp := &handlers.App{
		Directory:    dir,
		Pool:         pool,
		Limiter:      reviewLimiter,
		StartTime:    time.Now(),
		IsProduction: isProduction,
	}

	router := gin.Default()
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	lobbies := router.Group("/api/lobbies")
	{
		lobbies.GET("/list", webApp.ListHandler)
		lobbies.POST("/challenge", webApp.ChallengeHandler)
		lobbies.POST("/name/validate", webApp.NameValidateHandler)
		lobbies.POST("/create", app.rateLimitMiddleware(), webApp.CreateHandler)
		lobbies.POST("/join", app.rateLimitMiddleware(), webApp.JoinHandler)
		lobbies.GET("/:roomId/state", webApp.RoomStateHandler)
		lobbies.POST("/:roomId/action", app.rateLimitMiddleware(), webApp.RoomActionHandler)
		lobbies.PUT("/:roomId/action", app.rateLimitMiddleware(), webApp.RoomActionHandler)
	}

	wordReview := router.Group("/api/word-review")
	wordReview.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Wordshift-Key", "X-Admin-Key"},
		MaxAge:       12 * time.Hour,
	}))
	wordReview.Any("", reviewHandler.Handle)

	router.GET("/healthz", webApp.HealthzHandler)

	app.startCleanupRoutines()
	startServer(router)
}

// buildVerifier picks the anti-abuse strategy: the externally-verified token
// gate when a verification service is configured, otherwise the self-issued
// arithmetic challenge. Never both.
func buildVerifier() directory.Verifier {
	verifyURL := strings.TrimSpace(os.Getenv("VERIFY_URL"))
	verifySecret := strings.TrimSpace(os.Getenv("VERIFY_SECRET"))
	if verifyURL != "" && verifySecret != "" {
		util.LogInfo("Anti-abuse gate: external token verification via %s", verifyURL)
		return directory.NewTokenVerifier(verifyURL, verifySecret)
	}
	util.LogInfo("Anti-abuse gate: self-issued arithmetic challenges")
	return &directory.ArithmeticVerifier{}
}

func (app *serverApp) startCleanupRoutines() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			app.cleanupStaleRateLimiters()
		}
	}()
	util.LogInfo("Started cleanup routine for rate limiters")
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}
