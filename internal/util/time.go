package util

import (
	"fmt"
	"sync"
	"time"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/store"
)

// TimeProvider is a global time utility that handles timezone-aware time operations
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

var (
	globalTimeProvider *TimeProvider
	timeProviderMu     sync.Mutex
)

// InitializeTimeProvider initializes the global time provider with the specified timezone
func InitializeTimeProvider(timezone string) error {
	timeProviderMu.Lock()
	defer timeProviderMu.Unlock()

	provider := &TimeProvider{}
	if err := provider.SetTimezone(timezone); err != nil {
		return err
	}
	globalTimeProvider = provider
	return nil
}

// GetTimeProvider returns the global time provider instance
// If not initialized, it defaults to Local timezone
func GetTimeProvider() *TimeProvider {
	if globalTimeProvider == nil {
		InitializeTimeProvider("Local")
	}
	return globalTimeProvider
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London", timezone, err)
		}
		loc = l
	}
	tp.location = loc
	return nil
}

// Now returns the current time in the configured timezone, truncated to
// the minute granularity the ledger works at.
func (tp *TimeProvider) Now() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return time.Now().In(tp.location).Truncate(time.Minute)
}

// ParseTimeArg parses a user-supplied timestamp. Accepted forms:
// empty (meaning now), the full "2006-01-02 15:04" layout, or a bare
// "15:04" interpreted as today. Timestamps in the future are rejected.
func (tp *TimeProvider) ParseTimeArg(arg string) (time.Time, error) {
	now := tp.Now()
	if arg == "" {
		return now, nil
	}

	tp.mu.RLock()
	loc := tp.location
	tp.mu.RUnlock()

	parsed, err := time.ParseInLocation(model.TimeLayout, arg, loc)
	if err != nil {
		day := now.Format(model.DateLayout)
		parsed, err = time.ParseInLocation(model.TimeLayout, day+" "+arg, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse %q as a time (want %q or %q)", arg, model.TimeLayout, "15:04")
		}
	}

	if parsed.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", store.ErrInvalidTimeRange, parsed.Format(model.TimeLayout))
	}
	return parsed, nil
}
