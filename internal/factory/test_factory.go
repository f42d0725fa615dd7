package factory

import (
	"time"

	"github.com/darkkD11/CardArena/internal/config"
	"github.com/darkkD11/CardArena/internal/dependencies/mocks"
	"github.com/darkkD11/CardArena/internal/storage"
	"github.com/darkkD11/CardArena/internal/storage/memory"
	"github.com/darkkD11/CardArena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestOption adjusts a TestApp before it is wired
type TestOption func(*testOptions)

type testOptions struct {
	cfg    config.Config
	limits storage.RateLimitStore
}

// WithConfig changes the configuration the app is wired with
func WithConfig(fn func(*config.Config)) TestOption {
	return func(o *testOptions) { fn(&o.cfg) }
}

// WithRateLimits swaps the in-memory rate-limit store
func WithRateLimits(limits storage.RateLimitStore) TestOption {
	return func(o *testOptions) { o.limits = limits }
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(opts ...TestOption) *TestApp {
	o := testOptions{cfg: config.Default(), limits: memory.NewRateLimits()}
	o.cfg.Room.BcryptCost = 4
	for _, opt := range opts {
		opt(&o)
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(o.cfg, memory.New(), o.limits, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
