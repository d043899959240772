package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := NewFileRepo(t.TempDir())
	require.NoError(t, err)
	return NewService(repo, zerolog.Nop())
}

func TestRequestOTPRejectsBadEmail(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := svc.RequestOTP("not-an-email", now)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.RequestOTP("", now)
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestVerifyOTPHappyPath(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiresAt, code, err := svc.RequestOTP("User@Example.com", now)
	require.NoError(t, err)
	require.Len(t, code, 6)
	assert.Equal(t, now.Add(svc.otpTTL), expiresAt)

	u, token, sessExp, err := svc.VerifyOTP("user@example.com", code, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", u.Email)
	assert.NotEmpty(t, token)
	assert.True(t, sessExp.After(now))

	// Codes are single use.
	_, _, _, err = svc.VerifyOTP("user@example.com", code, now.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPExpired(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, code, err := svc.RequestOTP("user@example.com", now)
	require.NoError(t, err)

	_, _, _, err = svc.VerifyOTP("user@example.com", code, now.Add(svc.otpTTL+time.Second))
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyOTPAttemptLimit(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, code, err := svc.RequestOTP("user@example.com", now)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	var last error
	for i := 0; i < svc.maxOTPAttempts; i++ {
		_, _, _, last = svc.VerifyOTP("user@example.com", wrong, now)
	}
	assert.ErrorIs(t, last, ErrTooManyOTPAttempts)

	// Challenge is burned even for the real code now.
	_, _, _, err = svc.VerifyOTP("user@example.com", code, now)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPFormat(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, _, _, err := svc.VerifyOTP("user@example.com", "12345", now)
	assert.ErrorIs(t, err, ErrInvalidOTPFormat)

	_, _, _, err = svc.VerifyOTP("user@example.com", "12a456", now)
	assert.ErrorIs(t, err, ErrInvalidOTPFormat)
}

func TestAuthenticateRequest(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, code, err := svc.RequestOTP("user@example.com", now)
	require.NoError(t, err)
	u, token, _, err := svc.VerifyOTP("user@example.com", code, now)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: svc.cookieName, Value: token})

	got, sess, ok := svc.AuthenticateRequest(req, now.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.ID, sess.UserID)

	// Expired session is rejected and removed.
	_, _, ok = svc.AuthenticateRequest(req, now.Add(svc.sessionTTL+time.Second))
	assert.False(t, ok)
	_, _, ok = svc.AuthenticateRequest(req, now.Add(time.Hour))
	assert.False(t, ok)
}

func TestRevokeSession(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, code, err := svc.RequestOTP("user@example.com", now)
	require.NoError(t, err)
	_, token, _, err := svc.VerifyOTP("user@example.com", code, now)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: svc.cookieName, Value: token})
	svc.RevokeSessionForRequest(req)

	_, _, ok := svc.AuthenticateRequest(req, now.Add(time.Minute))
	assert.False(t, ok)
}

func TestSessionCookieFlags(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	svc.SetSessionCookie(rec, req, "tok", now.Add(time.Hour))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, svc.cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}
