package directory

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	models "wordshift/internal/models"
)

func TestArithmeticIssueRecordsEntry(t *testing.T) {
	table := map[string]*models.ChallengeEntry{}
	v := &ArithmeticVerifier{}
	info := v.Issue(table)
	require.NotNil(t, info)
	assert.NotEmpty(t, info.ChallengeID)
	assert.Contains(t, info.Prompt, "= ?")
	require.Contains(t, table, info.ChallengeID)
	assert.NotEmpty(t, table[info.ChallengeID].Answer)
}

func TestArithmeticCheckRequiresProof(t *testing.T) {
	v := &ArithmeticVerifier{}
	err := v.Check(map[string]*models.ChallengeEntry{}, models.ChallengeProof{})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestArithmeticCheckExpiredEntry(t *testing.T) {
	table := map[string]*models.ChallengeEntry{
		"stale": {Answer: "7", ExpiresAt: 1},
	}
	v := &ArithmeticVerifier{}
	err := v.Check(table, models.ChallengeProof{ChallengeID: "stale", Answer: "7"})
	require.NotNil(t, err)
	assert.NotContains(t, table, "stale", "expired entries are still consumed")
}

func TestTokenVerifierIssuesNothing(t *testing.T) {
	v := NewTokenVerifier("https://verify.example", "secret")
	assert.Nil(t, v.Issue(map[string]*models.ChallengeEntry{}))
}

func TestTokenVerifierAcceptsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "shh", r.PostForm.Get("secret"))
		assert.Equal(t, "tok-123", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	v := NewTokenVerifier(srv.URL, "shh")
	err := v.Check(nil, models.ChallengeProof{Token: "tok-123"})
	assert.Nil(t, err)
}

func TestTokenVerifierRejectsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	v := NewTokenVerifier(srv.URL, "shh")
	err := v.Check(nil, models.ChallengeProof{Token: "tok-123"})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestTokenVerifierRequiresToken(t *testing.T) {
	v := NewTokenVerifier("https://verify.example", "shh")
	err := v.Check(nil, models.ChallengeProof{})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestTokenVerifierUnconfigured(t *testing.T) {
	v := &TokenVerifier{Client: http.DefaultClient}
	err := v.Check(nil, models.ChallengeProof{Token: "tok"})
	require.NotNil(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}
