package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	constants "wordshift/internal/constants"
	models "wordshift/internal/models"
	util "wordshift/internal/util"
)

// GateError carries the status and code the boundary should answer with when
// the anti-abuse gate is not satisfied.
type GateError struct {
	Status  int
	Code    string
	Message string
}

func (e *GateError) Error() string {
	return e.Message
}

// Verifier is the pluggable human-verification gate in front of create/join.
// Two interchangeable strategies exist: the self-issued arithmetic challenge
// and the externally-verified opaque token. Exactly one is active per
// deployment.
type Verifier interface {
	// Issue mints a challenge for the client, recording the expected answer
	// in the directory's challenge table. Strategies that verify externally
	// have nothing to issue and return nil.
	Issue(table map[string]*models.ChallengeEntry) *models.ChallengeInfo

	// Check consumes the caller's proof. Self-issued challenges are consumed
	// exactly once; replays fail.
	Check(table map[string]*models.ChallengeEntry, proof models.ChallengeProof) *GateError
}

// ArithmeticVerifier is the self-contained strategy: a small addition or
// subtraction puzzle whose expected answer lives in the directory's bounded,
// TTL-expired challenge table.
type ArithmeticVerifier struct{}

func (v *ArithmeticVerifier) Issue(table map[string]*models.ChallengeEntry) *models.ChallengeInfo {
	var left, right, answer int
	var prompt string
	if util.RandomInt(2) == 0 {
		left = util.RandomInt(8) + 2
		right = util.RandomInt(8) + 1
		answer = left + right
		prompt = fmt.Sprintf("%d + %d", left, right)
	} else {
		left = util.RandomInt(8) + 2
		right = util.RandomInt(left-1) + 1
		answer = left - right
		prompt = fmt.Sprintf("%d - %d", left, right)
	}

	now := util.NowMs()
	challengeID := util.RandomToken(constants.TokenAlphabet, constants.ChallengeIDLength)
	table[challengeID] = &models.ChallengeEntry{
		Answer:    fmt.Sprintf("%d", answer),
		CreatedAt: now,
		ExpiresAt: now + constants.ChallengeTTL.Milliseconds(),
	}
	return &models.ChallengeInfo{
		ChallengeID: challengeID,
		Prompt:      prompt + " = ?",
		ExpiresInMs: constants.ChallengeTTL.Milliseconds(),
	}
}

func (v *ArithmeticVerifier) Check(table map[string]*models.ChallengeEntry, proof models.ChallengeProof) *GateError {
	id := strings.TrimSpace(proof.ChallengeID)
	answer := strings.TrimSpace(proof.Answer)
	if id == "" || answer == "" {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Human verification is required."}
	}
	entry, ok := table[id]
	if !ok {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Verification challenge missing or expired."}
	}
	// Consumed on first presentation regardless of outcome; replays fail.
	delete(table, id)
	if util.NowMs() > entry.ExpiresAt {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Verification challenge expired. Try again."}
	}
	if answer != entry.Answer {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Verification answer is incorrect."}
	}
	return nil
}

// TokenVerifier delegates to a third-party verification service: the caller
// submits an opaque token and the directory validates it server-side.
type TokenVerifier struct {
	VerifyURL string
	Secret    string
	Client    *http.Client
}

func NewTokenVerifier(verifyURL, secret string) *TokenVerifier {
	return &TokenVerifier{
		VerifyURL: verifyURL,
		Secret:    secret,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *TokenVerifier) Issue(_ map[string]*models.ChallengeEntry) *models.ChallengeInfo {
	return nil
}

func (v *TokenVerifier) Check(_ map[string]*models.ChallengeEntry, proof models.ChallengeProof) *GateError {
	if v.VerifyURL == "" || v.Secret == "" {
		return &GateError{Status: http.StatusServiceUnavailable, Message: "Verification service is not configured."}
	}
	token := strings.TrimSpace(proof.Token)
	if token == "" {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Human verification is required."}
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	resp, err := v.Client.Post(v.VerifyURL, "application/x-www-form-urlencoded", bytes.NewBufferString(form.Encode()))
	if err != nil {
		util.LogWarn("Verification service unreachable: %v", err)
		return &GateError{Status: http.StatusBadGateway, Message: "Verification service unreachable. Try again."}
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body.Success {
		return &GateError{Status: http.StatusBadRequest, Code: constants.CodeHumanCheckFailed, Message: "Verification token was rejected."}
	}
	return nil
}
