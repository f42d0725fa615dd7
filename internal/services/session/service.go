package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/validation"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid session token")
)

// Session binds a player ID to the one connection currently allowed to act as it
type Session struct {
	PlayerID     model.PlayerID
	ConnectionID string
	Token        string
	Name         string
	Avatar       int
	CreatedAt    time.Time
	LastActivity time.Time
}

// Config holds configuration for the session service
type Config struct {
	// SessionTimeout is how long a session may go without a validated message
	SessionTimeout time.Duration
	// TokenSecret signs issued tokens when set. Unsigned tokens are plain
	// base64 of "playerId:connectionId".
	TokenSecret string
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		SessionTimeout: 24 * time.Hour,
	}
}

// Service issues and validates sessions
type Service struct {
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[model.PlayerID]*Session

	timeout time.Duration
	secret  []byte
}

// New creates a new session Service
func New(clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = DefaultConfig().SessionTimeout
	}
	var secret []byte
	if cfg.TokenSecret != "" {
		secret = []byte(cfg.TokenSecret)
	}
	return &Service{
		clock:    clock,
		logger:   logger.With(slog.String("component", "session")),
		sessions: make(map[model.PlayerID]*Session),
		timeout:  cfg.SessionTimeout,
		secret:   secret,
	}
}

// Create issues a fresh session for playerID, replacing any existing one.
// The previous holder's connection ID stops validating from this point on.
func (s *Service) Create(playerID model.PlayerID, name string, avatar int) (*Session, error) {
	if !validation.PlayerID(string(playerID)) {
		return nil, model.ErrInvalidPlayerID
	}

	connID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSessionCreationFailed, err)
	}

	now := s.clock.Now()
	session := &Session{
		PlayerID:     playerID,
		ConnectionID: connID.String(),
		Name:         name,
		Avatar:       avatar,
		CreatedAt:    now,
		LastActivity: now,
	}
	session.Token = s.issueToken(playerID, session.ConnectionID)

	s.mu.Lock()
	_, replaced := s.sessions[playerID]
	s.sessions[playerID] = session
	s.mu.Unlock()

	if replaced {
		s.logger.Info("session replaced", slog.String("player_id", string(playerID)))
	}

	copied := *session
	return &copied, nil
}

// Validate reports whether connectionID still owns playerID's session,
// refreshing its last activity if so
func (s *Service) Validate(playerID model.PlayerID, connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[playerID]
	if !ok || session.ConnectionID != connectionID {
		return false
	}
	session.LastActivity = s.clock.Now()
	return true
}

// Authorize validates the session and, when ownerID is non-empty, requires
// the caller to be that owner
func (s *Service) Authorize(playerID model.PlayerID, connectionID string, ownerID model.PlayerID) bool {
	if !s.Validate(playerID, connectionID) {
		return false
	}
	return ownerID == "" || ownerID == playerID
}

// Get returns a copy of the session for playerID
func (s *Service) Get(playerID model.PlayerID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[playerID]
	if !ok {
		return nil, false
	}
	copied := *session
	return &copied, true
}

// Remove deletes playerID's session if connectionID still owns it
func (s *Service) Remove(playerID model.PlayerID, connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[playerID]
	if !ok || session.ConnectionID != connectionID {
		return false
	}
	delete(s.sessions, playerID)
	return true
}

// ExpireInactive removes sessions idle for longer than maxAge and returns how many went.
// A zero maxAge uses the configured session timeout.
func (s *Service) ExpireInactive(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = s.timeout
	}
	cutoff := s.clock.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			expired++
		}
	}
	return expired
}

// Count returns the number of live sessions
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// VerifyToken decodes a token issued by this service. When a secret is
// configured the signature must match.
func (s *Service) VerifyToken(token string) (model.PlayerID, string, error) {
	body, sig, signed := strings.Cut(token, ".")
	if s.secret != nil {
		if !signed || !hmac.Equal([]byte(sig), []byte(s.sign(body))) {
			return "", "", ErrInvalidToken
		}
	}

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	playerID, connectionID, ok := strings.Cut(string(raw), ":")
	if !ok || playerID == "" || connectionID == "" {
		return "", "", ErrInvalidToken
	}
	return model.PlayerID(playerID), connectionID, nil
}

func (s *Service) issueToken(playerID model.PlayerID, connectionID string) string {
	body := base64.StdEncoding.EncodeToString([]byte(string(playerID) + ":" + connectionID))
	if s.secret == nil {
		return body
	}
	return body + "." + s.sign(body)
}

func (s *Service) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
