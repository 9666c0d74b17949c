package admin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rfpintake/internal/metrics"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	s := NewSessions("admin", "hunter22", 0, metrics.New("test"))
	s.now = func() time.Time { return now }

	_, err := s.Login("admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("Admin", "hunter22")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := s.Login("admin", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, now.Add(8*time.Hour), sess.ExpiresAt)

	now = now.Add(8 * time.Hour)
	_, err = s.Check(sess.Token)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Check(sess.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
	// истёкшая сессия удалена
	_, err = s.Check(sess.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogout(t *testing.T) {
	s := NewSessions("admin", "hunter22", time.Hour, nil)
	sess, err := s.Login("admin", "hunter22")
	require.NoError(t, err)

	s.Logout(sess.Token)
	_, err = s.Check(sess.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = s.Check("")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLoginWithoutConfiguredCredentials(t *testing.T) {
	s := NewSessions("", "", 0, nil)
	_, err := s.Login("", "")
	require.ErrorIs(t, err, ErrNotConfigured)
}
