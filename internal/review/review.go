// Package review serves the moderation word lists: a plain read/write
// key-value accessor, admin-gated for writes and shielded by the adaptive
// rate limiter.
package review

import (
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	constants "wordshift/internal/constants"
	game "wordshift/internal/game"
	ratelimit "wordshift/internal/ratelimit"
	store "wordshift/internal/store"
	util "wordshift/internal/util"
)

var bearerPattern = regexp.MustCompile(`^Bearer\s+(.+)$`)

type Handler struct {
	Store    *store.Store
	Limiter  *ratelimit.Limiter
	AdminKey string
}

type Payload struct {
	Approved []string `json:"approved"`
	Rejected []string `json:"rejected"`
}

// NormalizePayload applies the readability filter to both lists and lets a
// rejection override an approval of the same word.
func NormalizePayload(raw *Payload) *Payload {
	approved := map[string]struct{}{}
	rejected := map[string]struct{}{}

	add := func(list []string, into map[string]struct{}) {
		for _, item := range list {
			w := game.NormalizeWord(item)
			if !game.IsReadableWord(w) {
				continue
			}
			into[w] = struct{}{}
		}
	}
	if raw != nil {
		add(raw.Approved, approved)
		add(raw.Rejected, rejected)
	}
	for w := range rejected {
		delete(approved, w)
	}

	out := &Payload{Approved: make([]string, 0, len(approved)), Rejected: make([]string, 0, len(rejected))}
	for w := range approved {
		out.Approved = append(out.Approved, w)
	}
	for w := range rejected {
		out.Rejected = append(out.Rejected, w)
	}
	sort.Strings(out.Approved)
	sort.Strings(out.Rejected)
	return out
}

func (h *Handler) adminConfigured() bool {
	return strings.TrimSpace(h.AdminKey) != ""
}

func authKeyFromRequest(c *gin.Context) string {
	if direct := strings.TrimSpace(c.GetHeader("X-Wordshift-Key")); direct != "" {
		return direct
	}
	if direct := strings.TrimSpace(c.GetHeader("X-Admin-Key")); direct != "" {
		return direct
	}
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if m := bearerPattern.FindStringSubmatch(auth); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func (h *Handler) authorized(c *gin.Context) bool {
	if !h.adminConfigured() {
		return false
	}
	provided := authKeyFromRequest(c)
	return provided != "" && provided == strings.TrimSpace(h.AdminKey)
}

// Fingerprint keys the rate limiter by network origin, client-declared
// identity and auth presence. Never by session token.
func Fingerprint(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	ua := c.Request.UserAgent()
	if len(ua) > 120 {
		ua = ua[:120]
	}
	if ua == "" {
		ua = "ua-unknown"
	}
	authState := "anon"
	if authKeyFromRequest(c) != "" {
		authState = "auth"
	}
	return ip + "|" + ua + "|" + authState
}

func queryFlag(c *gin.Context, names ...string) bool {
	for _, name := range names {
		v := strings.ToLower(c.Query(name))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
	}
	return false
}

// Handle is the whole moderation endpoint behind one route.
func (h *Handler) Handle(c *gin.Context) {
	method := c.Request.Method
	if method == http.MethodOptions {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	verdict := h.Limiter.Check(Fingerprint(c), method, time.Now())
	if verdict.Limited {
		retrySeconds := int64(verdict.RetryAfter / time.Second)
		if verdict.RetryAfter%time.Second != 0 {
			retrySeconds++
		}
		if retrySeconds < 1 {
			retrySeconds = 1
		}
		c.Header("Retry-After", strconv.FormatInt(retrySeconds, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"ok":            false,
			"error":         "Too many requests. Cooldown active.",
			"code":          constants.CodeRateLimited,
			"retryAfterMs":  retrySeconds * 1000,
			"cooldownLevel": verdict.Strikes,
			"hint":          "Slow down and retry after the cooldown period.",
		})
		return
	}

	switch method {
	case http.MethodGet:
		h.handleGet(c)
	case http.MethodPost, http.MethodPut:
		h.handleWrite(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

func (h *Handler) handleGet(c *gin.Context) {
	if queryFlag(c, "authCheck", "auth_check", "auth") {
		if !h.adminConfigured() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ok":    false,
				"error": "Admin key not configured on server",
				"hint":  "Set WORD_REVIEW_ADMIN_KEY in the service environment.",
			})
			return
		}
		if !h.authorized(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": true, "version": constants.Version})
		return
	}

	if queryFlag(c, "debug") {
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"version": constants.Version,
			"env": gin.H{
				"adminKeyConfigured": h.adminConfigured(),
			},
		})
		return
	}

	approved, rejected, err := h.Store.LoadWordReview()
	if err != nil {
		util.LogError("Word review load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "Moderation store unavailable",
			"hint":  "Check the WORDSHIFT_DB path and permissions.",
		})
		return
	}
	c.JSON(http.StatusOK, NormalizePayload(&Payload{Approved: approved, Rejected: rejected}))
}

func (h *Handler) handleWrite(c *gin.Context) {
	if !h.adminConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok":    false,
			"error": "Admin key not configured on server",
			"hint":  "Set WORD_REVIEW_ADMIN_KEY in the service environment.",
		})
		return
	}
	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
		return
	}

	var body Payload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	payload := NormalizePayload(&body)
	if err := h.Store.SaveWordReview(payload.Approved, payload.Rejected); err != nil {
		util.LogError("Word review save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "Moderation store unavailable",
			"hint":  "Check the WORDSHIFT_DB path and permissions.",
		})
		return
	}
	c.JSON(http.StatusOK, payload)
}
