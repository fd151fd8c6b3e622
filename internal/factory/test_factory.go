package factory

import (
	"time"

	"github.com/mcoot/partyquiz/internal/config"
	"github.com/mcoot/partyquiz/internal/dependencies/mocks"
	"github.com/mcoot/partyquiz/internal/storage/memory"
	"github.com/mcoot/partyquiz/internal/testutil"
)

// TestFrontendURL is the FrontendURL of every TestApp
const TestFrontendURL = "http://localhost:3000"

// TestExtraOrigin is the one ALLOWED_ORIGINS entry of every TestApp
const TestExtraOrigin = "https://quiz.example.com"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockProvider *mocks.MockIdentityProvider
}

// NewTestApp creates an App on in-memory storage with mocked clock,
// randomness and identity provider
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockProvider := mocks.NewMockIdentityProvider()

	cfg := &config.Config{
		StorageType:    config.StorageTypeMemory,
		SessionTTL:     24 * time.Hour,
		LoginStateTTL:  10 * time.Minute,
		FrontendURL:    TestFrontendURL,
		AllowedOrigins: []string{TestExtraOrigin},
	}

	app := newWithDependencies(cfg, store, mockProvider, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockProvider: mockProvider,
	}
}
