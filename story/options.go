package story

import (
	"math/rand"
	"time"

	"github.com/npillmayer/goink"
	"github.com/npillmayer/schuko/gconf"
)

// Configuration keys read through gconf, if a global configuration has been
// initialized.
const (
	ConfExternalFallbacks = "ink.external-fallbacks" // bool
	ConfStorySeed         = "ink.story-seed"         // int
	ConfAsyncBudget       = "ink.async-budget-ms"    // int, used by players
)

// ErrorHandler receives the errors and warnings of a continuation.
type ErrorHandler func(e *goink.Error)

// Option configures a story.
type Option func(*Story)

// WithFallbacks allows unbound external functions to fall back to ink
// functions of the same name.
func WithFallbacks(allow bool) Option {
	return func(s *Story) {
		s.allowExternalFallbacks = allow
	}
}

// WithSeed sets the seed for random numbers and shuffles.
func WithSeed(seed int) Option {
	return func(s *Story) {
		s.seed = seed
		s.seedSet = true
	}
}

// WithErrorHandler installs a handler for story errors. Continuations will
// then pass issues to the handler instead of returning them.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Story) {
		s.OnError = h
	}
}

// configure applies global configuration first, then options.
func (s *Story) configure(opts []Option) {
	s.allowExternalFallbacks = gconf.GetBool(ConfExternalFallbacks)
	if gconf.IsSet(ConfStorySeed) {
		s.seed = gconf.GetInt(ConfStorySeed)
		s.seedSet = true
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.seedSet {
		s.seed = timeSeed()
	}
}

// timeSeed derives a story seed in [0…100) from the clock.
func timeSeed() int {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return r.Intn(100)
}

// DefaultAsyncBudget returns the configured time budget for ContinueAsync,
// or 0 if none is configured.
func DefaultAsyncBudget() time.Duration {
	return time.Duration(gconf.GetInt(ConfAsyncBudget)) * time.Millisecond
}
