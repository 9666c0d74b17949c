package admin

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"rfpintake/internal/metrics"
)

var (
	ErrNotConfigured      = errors.New("admin credentials are not configured")
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired, please log in again")
)

const DefaultSessionTTL = 8 * time.Hour

type Session struct {
	Token     string    `json:"token"`
	LoginTime time.Time `json:"loginTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions сессии администратора в памяти. Просроченные удаляются при обращении.
type Sessions struct {
	username string
	password string
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

func NewSessions(username, password string, ttl time.Duration, m *metrics.Metrics) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		username: username,
		password: password,
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

func (s *Sessions) Login(username, password string) (Session, error) {
	if s.username == "" || s.password == "" {
		return Session{}, ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	s.metrics.ObserveLogin(userOK && passOK)
	if !userOK || !passOK {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now()
	sess := Session{Token: uuid.NewString(), LoginTime: now, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(now)
	s.sessions[sess.Token] = sess
	return sess, nil
}

// Check проверяет токен. Сессия старше ttl удаляется.
func (s *Sessions) Check(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || token == "" {
		return Session{}, ErrUnauthenticated
	}
	if s.now().Sub(sess.LoginTime) > s.ttl {
		delete(s.sessions, token)
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

func (s *Sessions) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *Sessions) purge(now time.Time) {
	for token, sess := range s.sessions {
		if now.Sub(sess.LoginTime) > s.ttl {
			delete(s.sessions, token)
		}
	}
}
