package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)

	token, claims, err := ti.Issue(Principal{ID: "p1", Phone: "+15551234567"})
	require.NoError(t, err)

	parsed, err := ti.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.Equal(t, "+15551234567", parsed.Phone)
}

func TestTokenIssuerRejects(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	token, _, err := ti.Issue(Principal{ID: "p1"})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ti.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(r, "companion_session")
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Bearer abc")
	token, err := ExtractTokenFromRequest(r, "companion_session")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	r.AddCookie(&http.Cookie{Name: "companion_session", Value: "from-cookie"})
	token, err = ExtractTokenFromRequest(r, "companion_session")
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token, "cookie wins over header")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractTokenFromRequest(r, "companion_session")
	assert.Error(t, err)
}

func TestPrincipalIDIsStable(t *testing.T) {
	assert.Equal(t, PrincipalID("+15551234567"), PrincipalID("+1 555 123 4567"))
	assert.NotEqual(t, PrincipalID("+15551234567"), PrincipalID("+15551234568"))
}
