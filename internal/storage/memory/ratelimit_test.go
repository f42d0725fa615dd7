package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/storage"
)

type RateLimitsSuite struct {
	suite.Suite
	limits *RateLimits
	ctx    context.Context
	now    time.Time
}

func TestRateLimitsSuite(t *testing.T) {
	suite.Run(t, new(RateLimitsSuite))
}

func (s *RateLimitsSuite) SetupTest() {
	s.limits = NewRateLimits()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RateLimitsSuite) hit(key string, at time.Time) {
	_, err := s.limits.Hit(s.ctx, key, at, time.Second, 5)
	s.Require().NoError(err)
}

func (s *RateLimitsSuite) TestHitCountsWithinWindow() {
	hit, _ := s.limits.Hit(s.ctx, "alice", s.now, time.Second, 5)
	s.Equal(storage.HitResult{Count: 1, Reset: s.now.Add(time.Second), Allowed: true}, hit)

	hit, _ = s.limits.Hit(s.ctx, "alice", s.now.Add(500*time.Millisecond), time.Second, 5)
	s.Equal(2, hit.Count)
	s.Equal(s.now.Add(time.Second), hit.Reset)
}

func (s *RateLimitsSuite) TestRejectedHitDoesNotCount() {
	for i := 0; i < 2; i++ {
		hit, _ := s.limits.Hit(s.ctx, "alice", s.now, time.Second, 2)
		s.True(hit.Allowed)
	}

	for i := 0; i < 3; i++ {
		hit, _ := s.limits.Hit(s.ctx, "alice", s.now, time.Second, 2)
		s.False(hit.Allowed)
		s.Equal(2, hit.Count)
	}
	s.Equal(2, s.limits.windows["alice"].count)
}

func (s *RateLimitsSuite) TestHitStartsFreshWindowAtReset() {
	s.hit("alice", s.now)
	s.hit("alice", s.now)

	hit, _ := s.limits.Hit(s.ctx, "alice", s.now.Add(time.Second), time.Second, 5)
	s.Equal(1, hit.Count)
	s.Equal(s.now.Add(2*time.Second), hit.Reset)
}

func (s *RateLimitsSuite) TestPurgeDropsOldWindows() {
	s.hit("alice", s.now)
	s.hit("bob", s.now.Add(time.Hour))

	purged, err := s.limits.Purge(s.ctx, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(1, purged)

	count, _ := s.limits.Count(s.ctx)
	s.Equal(1, count)
}

func (s *RateLimitsSuite) TestForget() {
	s.hit("alice", s.now)
	_ = s.limits.Forget(s.ctx, "alice")

	count, _ := s.limits.Count(s.ctx)
	s.Equal(0, count)
}
