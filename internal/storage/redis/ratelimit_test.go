package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/storage"
)

type RateLimitsSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	limits *RateLimits
	ctx    context.Context
	now    time.Time
}

func TestRateLimitsSuite(t *testing.T) {
	suite.Run(t, new(RateLimitsSuite))
}

func (s *RateLimitsSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.limits = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RateLimitsSuite) TearDownTest() {
	if s.limits != nil {
		_ = s.limits.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *RateLimitsSuite) hit(key string, at time.Time) storage.HitResult {
	hit, err := s.limits.Hit(s.ctx, key, at, time.Second, 5)
	s.Require().NoError(err)
	return hit
}

func (s *RateLimitsSuite) TestHitCountsWithinWindow() {
	hit := s.hit("alice", s.now)
	s.Equal(storage.HitResult{Count: 1, Reset: s.now.Add(time.Second), Allowed: true}, hit)

	hit = s.hit("alice", s.now)
	s.Equal(2, hit.Count)
	s.True(hit.Allowed)
}

func (s *RateLimitsSuite) TestRejectedHitDoesNotCount() {
	for i := 0; i < 5; i++ {
		s.True(s.hit("alice", s.now).Allowed)
	}

	for i := 0; i < 3; i++ {
		hit := s.hit("alice", s.now)
		s.False(hit.Allowed)
		s.Equal(5, hit.Count)
	}
	value, err := s.mini.Get("cardarena:ratelimit:alice")
	s.Require().NoError(err)
	s.Equal("5", value)
}

func (s *RateLimitsSuite) TestHitSetsExpiry() {
	s.hit("alice", s.now)

	s.True(s.mini.Exists("cardarena:ratelimit:alice"))
	s.Equal(time.Second, s.mini.TTL("cardarena:ratelimit:alice"))
}

func (s *RateLimitsSuite) TestHitStartsFreshWindowAfterExpiry() {
	s.hit("alice", s.now)
	s.hit("alice", s.now)

	s.mini.FastForward(time.Second)

	s.Equal(1, s.hit("alice", s.now.Add(time.Second)).Count)
}

func (s *RateLimitsSuite) TestKeysAreIndependent() {
	s.hit("alice", s.now)

	s.Equal(1, s.hit("bob", s.now).Count)

	total, err := s.limits.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *RateLimitsSuite) TestForget() {
	s.hit("alice", s.now)

	s.Require().NoError(s.limits.Forget(s.ctx, "alice"))
	s.False(s.mini.Exists("cardarena:ratelimit:alice"))
}

func (s *RateLimitsSuite) TestHitFailsWhenRedisDown() {
	s.mini.Close()

	_, err := s.limits.Hit(s.ctx, "alice", s.now, time.Second, 5)
	s.Error(err)
}
