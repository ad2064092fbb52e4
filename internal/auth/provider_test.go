package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-companion/internal/database/dbtest"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
)

var codePattern = regexp.MustCompile(`\d{6}`)

type fakeSender struct {
	to   []string
	body []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return nil
}

func (f *fakeSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.body, "no sms sent")
	code := codePattern.FindString(f.body[len(f.body)-1])
	require.NotEmpty(t, code)
	return code
}

func setupProvider(t *testing.T) (*OTPProvider, *fakeSender, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sender := &fakeSender{}
	p := NewOTPProvider(
		dbtest.NewSQLite(t),
		NewRedisSessionStore(client),
		sender,
		NewTokenIssuer("test-secret", time.Hour),
		OTPProviderConfig{CodeTTL: 5 * time.Minute, ResendInterval: 30 * time.Second},
		logger.Discard(),
	)
	return p, sender, mr
}

func TestSendAndVerifyCode(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+1 555 123 4567"))
	assert.Equal(t, []string{"+15551234567"}, sender.to)

	principal, token, err := p.VerifyCode(ctx, "+15551234567", sender.lastCode(t))
	require.NoError(t, err)
	assert.Equal(t, PrincipalID("+15551234567"), principal.ID)
	assert.NotEmpty(t, token)

	current, err := p.CurrentPrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, current.ID)
	assert.Equal(t, "+15551234567", current.Phone)
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	code := sender.lastCode(t)

	_, _, err := p.VerifyCode(ctx, "+15551234567", code)
	require.NoError(t, err)

	_, _, err = p.VerifyCode(ctx, "+15551234567", code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyCodeRejectsWrongAndExpiredCodes(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	code := sender.lastCode(t)

	_, _, err := p.VerifyCode(ctx, "+15557654321", code)
	assert.ErrorIs(t, err, ErrInvalidCode, "code belongs to another phone")

	p.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	_, _, err = p.VerifyCode(ctx, "+15551234567", code)
	assert.ErrorIs(t, err, ErrInvalidCode, "code expired")
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestVerifyCodeLocksOutAfterTooManyWrongCodes(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	code := sender.lastCode(t)

	for i := 0; i < DefaultMaxAttempts; i++ {
		_, _, err := p.VerifyCode(ctx, "+15551234567", wrongCode(code))
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	_, token, err := p.VerifyCode(ctx, "+15551234567", code)
	assert.ErrorIs(t, err, ErrInvalidCode, "correct code refused once the limit is hit")
	assert.Empty(t, token)
	assert.Equal(t, 1, dbtest.Count(t, p.DB, (*models.OTPCode)(nil), "phone_number = ? AND used = ?", "+15551234567", true),
		"outstanding code burned")
}

func TestVerifyCodeLockoutExpiresWithCodeLifetime(t *testing.T) {
	p, sender, mr := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	first := sender.lastCode(t)
	for i := 0; i < DefaultMaxAttempts; i++ {
		_, _, _ = p.VerifyCode(ctx, "+15551234567", wrongCode(first))
	}

	mr.FastForward(6 * time.Minute)
	require.NoError(t, p.SendCode(ctx, "+15551234567"))

	_, token, err := p.VerifyCode(ctx, "+15551234567", sender.lastCode(t))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSuccessfulVerifyResetsAttempts(t *testing.T) {
	p, sender, mr := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	code := sender.lastCode(t)
	for i := 0; i < DefaultMaxAttempts-1; i++ {
		_, _, _ = p.VerifyCode(ctx, "+15551234567", wrongCode(code))
	}
	_, _, err := p.VerifyCode(ctx, "+15551234567", code)
	require.NoError(t, err)

	assert.False(t, mr.Exists("otp_attempts:+15551234567"))
}

func TestSendCodeThrottle(t *testing.T) {
	p, _, mr := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	assert.ErrorIs(t, p.SendCode(ctx, "+15551234567"), ErrSendThrottled)
	assert.NoError(t, p.SendCode(ctx, "+15557654321"), "throttle is per phone")

	mr.FastForward(31 * time.Second)
	assert.NoError(t, p.SendCode(ctx, "+15551234567"))
}

func TestSendCodeFailureReleasesThrottle(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	sender.err = errors.New("broker down")
	assert.Error(t, p.SendCode(ctx, "+15551234567"))

	sender.err = nil
	assert.NoError(t, p.SendCode(ctx, "+15551234567"))
}

func TestSignOutRevokesSession(t *testing.T) {
	p, sender, _ := setupProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SendCode(ctx, "+15551234567"))
	_, token, err := p.VerifyCode(ctx, "+15551234567", sender.lastCode(t))
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, token))

	_, err = p.CurrentPrincipal(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)

	assert.NoError(t, p.SignOut(ctx, "garbage"), "unparseable tokens are already signed out")
}

func TestOTPRowsAreStored(t *testing.T) {
	p, _, _ := setupProvider(t)
	require.NoError(t, p.SendCode(context.Background(), "+15551234567"))
	assert.Equal(t, 1, dbtest.Count(t, p.DB, (*models.OTPCode)(nil), "phone_number = ?", "+15551234567"))
}
