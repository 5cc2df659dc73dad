// Package policy holds the moderation settings that admins can change at
// runtime: idle threshold, dry-run switch, admin and protected user lists.
//
// Settings is a plain value passed explicitly to every operation that needs
// it. Holder is the single mutable copy owned by the running bot.
package policy

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aatumaykin/idlebot/internal/constants"
)

// DefaultIdleThresholdDays is used when configuration does not set a threshold.
const DefaultIdleThresholdDays = constants.DefaultIdleThresholdDays

var (
	ErrInvalidThreshold = errors.New("idle threshold must be a positive number of days")
)

// Settings is a snapshot of moderation settings.
type Settings struct {
	IdleThresholdDays int
	DryRun            bool
	AdminIDs          []string
	ProtectedIDs      []string
}

// Default returns the conservative defaults: 30 days, dry run on, no admins.
func Default() Settings {
	return Settings{
		IdleThresholdDays: DefaultIdleThresholdDays,
		DryRun:            true,
	}
}

// Validate checks the invariants of a settings value.
func (s Settings) Validate() error {
	if s.IdleThresholdDays <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, s.IdleThresholdDays)
	}
	return nil
}

// IsAdmin reports exact membership of userID in the admin list.
func (s Settings) IsAdmin(userID string) bool {
	return slices.Contains(s.AdminIDs, userID)
}

// IsProtected reports exact membership of userID in the protected list.
func (s Settings) IsProtected(userID string) bool {
	return slices.Contains(s.ProtectedIDs, userID)
}

// ProtectedSet returns the protected list as a set.
func (s Settings) ProtectedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ProtectedIDs))
	for _, id := range s.ProtectedIDs {
		set[id] = struct{}{}
	}
	return set
}

// Clone returns a deep copy so callers can't alias the holder's slices.
func (s Settings) Clone() Settings {
	s.AdminIDs = slices.Clone(s.AdminIDs)
	s.ProtectedIDs = slices.Clone(s.ProtectedIDs)
	return s
}

// Holder guards the live settings of a running bot.
type Holder struct {
	mu       sync.RWMutex
	settings Settings
}

// NewHolder validates initial and wraps it.
func NewHolder(initial Settings) (*Holder, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &Holder{settings: initial.Clone()}, nil
}

// Get returns a copy of the current settings.
func (h *Holder) Get() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings.Clone()
}

// SetThreshold changes the idle threshold. Non-positive values are rejected
// and leave the current value untouched.
func (h *Holder) SetThreshold(days int) error {
	if days <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, days)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.IdleThresholdDays = days
	return nil
}

// SetDryRun toggles dry-run mode.
func (h *Holder) SetDryRun(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.DryRun = enabled
}
