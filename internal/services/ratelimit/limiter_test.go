package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/storage"
	"github.com/darkkD11/CardArena/internal/storage/memory"
	"github.com/darkkD11/CardArena/internal/storage/redis"
	"github.com/darkkD11/CardArena/internal/testutil"
)

type LimiterSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	store   *memory.RateLimits
	limiter *Limiter
	ctx     context.Context
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.store = memory.NewRateLimits()
	s.limiter = New(s.store, s.clock, Config{Window: time.Second, Max: 20}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *LimiterSuite) TestTwentyFirstMessageRejected() {
	for i := 0; i < 20; i++ {
		s.True(s.limiter.Allow(s.ctx, "p1"), "message %d", i+1)
	}
	s.False(s.limiter.Allow(s.ctx, "p1"))
}

func (s *LimiterSuite) TestWindowResets() {
	for i := 0; i < 21; i++ {
		s.limiter.Allow(s.ctx, "p1")
	}
	s.clock.Advance(time.Second)

	s.True(s.limiter.Allow(s.ctx, "p1"))
}

func (s *LimiterSuite) TestPlayersAreIndependent() {
	for i := 0; i < 21; i++ {
		s.limiter.Allow(s.ctx, "p1")
	}
	s.True(s.limiter.Allow(s.ctx, "p2"))
}

func (s *LimiterSuite) TestRejectedMessagesDoNotExtendCount() {
	for i := 0; i < 30; i++ {
		s.limiter.Allow(s.ctx, "p1")
	}

	hit, err := s.store.Hit(s.ctx, "p1", s.clock.Now(), time.Second, 1000)
	s.Require().NoError(err)
	s.Equal(21, hit.Count)
}

func (s *LimiterSuite) TestForget() {
	for i := 0; i < 21; i++ {
		s.limiter.Allow(s.ctx, "p1")
	}
	s.limiter.Forget(s.ctx, "p1")

	s.True(s.limiter.Allow(s.ctx, "p1"))
}

func (s *LimiterSuite) TestPurgeStale() {
	s.limiter.Allow(s.ctx, "p1")
	s.clock.Advance(10 * time.Minute)
	s.limiter.Allow(s.ctx, "p2")

	purged, err := s.limiter.PurgeStale(s.ctx, 5*time.Minute)
	s.Require().NoError(err)
	s.Equal(1, purged)

	count, _ := s.limiter.Count(s.ctx)
	s.Equal(1, count)
}

func (s *LimiterSuite) TestFailsOpen() {
	limiter := New(failingStore{memory.NewRateLimits()}, s.clock, DefaultConfig(), testutil.NopLogger())

	for i := 0; i < 50; i++ {
		s.True(limiter.Allow(s.ctx, "p1"))
	}
}

func (s *LimiterSuite) TestRedisStore() {
	mr := miniredis.RunT(s.T())
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := New(redis.NewWithClient(client, redis.DefaultConfig()), s.clock, Config{Window: time.Second, Max: 2}, testutil.NopLogger())

	s.True(limiter.Allow(s.ctx, "p1"))
	s.True(limiter.Allow(s.ctx, "p1"))
	s.False(limiter.Allow(s.ctx, "p1"))

	mr.FastForward(time.Second)
	s.True(limiter.Allow(s.ctx, "p1"))
}

type failingStore struct {
	*memory.RateLimits
}

func (failingStore) Hit(context.Context, string, time.Time, time.Duration, int) (storage.HitResult, error) {
	return storage.HitResult{}, errors.New("connection refused")
}
