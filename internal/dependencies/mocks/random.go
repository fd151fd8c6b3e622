package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/partyquiz/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued results are returned in order. Once its queue is empty Token
// falls back to token-1, token-2, ...; Intn and String return zero values.
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int

	// TokenResults is a queue of results to return from Token
	TokenResults []string
	tokenIndex   int

	uuidCount int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// Token returns the next queued token, or a unique generated one
func (r *MockRandom) Token(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenIndex >= len(r.TokenResults) {
		r.tokenIndex++
		return fmt.Sprintf("token-%d", r.tokenIndex)
	}
	result := r.TokenResults[r.tokenIndex]
	r.tokenIndex++
	return result
}

// UUID returns sequential ids: id-1, id-2, ...
func (r *MockRandom) UUID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuidCount++
	return fmt.Sprintf("id-%d", r.uuidCount)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TokenResults = append(r.TokenResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
	r.TokenResults = nil
	r.tokenIndex = 0
	r.uuidCount = 0
}
