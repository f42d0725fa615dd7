package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/model"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, DefaultConfig(), testutil.NopLogger())
}

// Create tests

func (s *ServiceSuite) TestCreateSucceeds() {
	session, err := s.service.Create("alice", "Alice", 3)
	s.Require().NoError(err)

	s.Equal(model.PlayerID("alice"), session.PlayerID)
	s.NotEmpty(session.ConnectionID)
	s.Equal("Alice", session.Name)
	s.Equal(3, session.Avatar)
	s.Equal(s.clock.Now(), session.CreatedAt)
}

func (s *ServiceSuite) TestCreateRejectsInvalidPlayerID() {
	_, err := s.service.Create("not valid!", "Alice", 0)
	s.ErrorIs(err, model.ErrInvalidPlayerID)
	s.Equal(0, s.service.Count())
}

func (s *ServiceSuite) TestCreateTokenEncodesIdentity() {
	session, _ := s.service.Create("alice", "Alice", 0)

	raw, err := base64.StdEncoding.DecodeString(session.Token)
	s.Require().NoError(err)
	s.Equal("alice:"+session.ConnectionID, string(raw))
}

func (s *ServiceSuite) TestCreateAgainDemotesPreviousConnection() {
	first, _ := s.service.Create("alice", "Alice", 0)
	second, _ := s.service.Create("alice", "Alice", 0)

	s.NotEqual(first.ConnectionID, second.ConnectionID)
	s.False(s.service.Validate("alice", first.ConnectionID))
	s.True(s.service.Validate("alice", second.ConnectionID))
	s.Equal(1, s.service.Count())
}

// Validate / Authorize tests

func (s *ServiceSuite) TestValidateRefreshesActivity() {
	session, _ := s.service.Create("alice", "Alice", 0)
	s.clock.Advance(time.Hour)

	s.True(s.service.Validate("alice", session.ConnectionID))

	refreshed, ok := s.service.Get("alice")
	s.Require().True(ok)
	s.Equal(s.clock.Now(), refreshed.LastActivity)
}

func (s *ServiceSuite) TestValidateFailsForUnknownPlayer() {
	s.False(s.service.Validate("ghost", "conn"))
}

func (s *ServiceSuite) TestAuthorizeRequiresOwner() {
	session, _ := s.service.Create("alice", "Alice", 0)

	s.True(s.service.Authorize("alice", session.ConnectionID, ""))
	s.True(s.service.Authorize("alice", session.ConnectionID, "alice"))
	s.False(s.service.Authorize("alice", session.ConnectionID, "bob"))
	s.False(s.service.Authorize("alice", "other-conn", "alice"))
}

// Remove tests

func (s *ServiceSuite) TestRemoveOnlyByOwningConnection() {
	first, _ := s.service.Create("alice", "Alice", 0)
	second, _ := s.service.Create("alice", "Alice", 0)

	s.False(s.service.Remove("alice", first.ConnectionID))
	s.True(s.service.Validate("alice", second.ConnectionID))

	s.True(s.service.Remove("alice", second.ConnectionID))
	s.Equal(0, s.service.Count())
}

// ExpireInactive tests

func (s *ServiceSuite) TestExpireInactive() {
	_, _ = s.service.Create("alice", "Alice", 0)
	s.clock.Advance(2 * time.Hour)
	bob, _ := s.service.Create("bob", "Bob", 0)

	expired := s.service.ExpireInactive(time.Hour)
	s.Equal(1, expired)

	_, ok := s.service.Get("alice")
	s.False(ok)
	s.True(s.service.Validate("bob", bob.ConnectionID))
}

func (s *ServiceSuite) TestExpireInactiveDefaultsToConfiguredTimeout() {
	_, _ = s.service.Create("alice", "Alice", 0)
	s.clock.Advance(23 * time.Hour)
	s.Equal(0, s.service.ExpireInactive(0))

	s.clock.Advance(2 * time.Hour)
	s.Equal(1, s.service.ExpireInactive(0))
}

// Token tests

func (s *ServiceSuite) TestVerifyUnsignedToken() {
	session, _ := s.service.Create("alice", "Alice", 0)

	playerID, connID, err := s.service.VerifyToken(session.Token)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), playerID)
	s.Equal(session.ConnectionID, connID)
}

func (s *ServiceSuite) TestVerifySignedToken() {
	cfg := DefaultConfig()
	cfg.TokenSecret = "hunter2"
	signed := New(s.clock, cfg, testutil.NopLogger())

	session, _ := signed.Create("alice", "Alice", 0)

	playerID, _, err := signed.VerifyToken(session.Token)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), playerID)
}

func (s *ServiceSuite) TestVerifySignedTokenRejectsForgery() {
	cfg := DefaultConfig()
	cfg.TokenSecret = "hunter2"
	signed := New(s.clock, cfg, testutil.NopLogger())
	_, _ = signed.Create("alice", "Alice", 0)

	forged := base64.StdEncoding.EncodeToString([]byte("alice:made-up"))
	_, _, err := signed.VerifyToken(forged)
	s.ErrorIs(err, ErrInvalidToken)

	_, _, err = signed.VerifyToken(forged + ".bogus")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestVerifyTokenRejectsGarbage() {
	_, _, err := s.service.VerifyToken("%%%")
	s.ErrorIs(err, ErrInvalidToken)
}
