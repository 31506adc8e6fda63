// Package profile supplies the user profile preamble included in built
// contexts. The static provider covers single-tenant deployments; the
// in-memory provider allows per-user profiles to be registered at runtime.
package profile

import (
	"context"
	"fmt"
	"sync"
)

// DefaultBusinessType is the business descriptor used when none is
// configured.
const DefaultBusinessType = "Painting Contractor"

// StaticProvider renders the same profile shape for every user, varying only
// the user id.
type StaticProvider struct {
	businessType string
}

// NewStaticProvider creates a provider with the given business type, falling
// back to DefaultBusinessType when empty.
func NewStaticProvider(businessType string) *StaticProvider {
	if businessType == "" {
		businessType = DefaultBusinessType
	}
	return &StaticProvider{businessType: businessType}
}

// Profile implements core.ProfileProvider.
func (p *StaticProvider) Profile(_ context.Context, userID string) (string, error) {
	return fmt.Sprintf("User ID: %s\nBusiness Type: %s", userID, p.businessType), nil
}

// InMemoryProvider stores per-user profile strings, falling back to a static
// profile for unknown users.
type InMemoryProvider struct {
	mu       sync.RWMutex
	profiles map[string]string
	fallback *StaticProvider
}

// NewInMemoryProvider creates an empty provider with the default fallback.
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		profiles: make(map[string]string),
		fallback: NewStaticProvider(""),
	}
}

// Set registers the profile text for a user.
func (p *InMemoryProvider) Set(userID, profile string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[userID] = profile
}

// Profile implements core.ProfileProvider.
func (p *InMemoryProvider) Profile(ctx context.Context, userID string) (string, error) {
	p.mu.RLock()
	text, ok := p.profiles[userID]
	p.mu.RUnlock()
	if ok {
		return text, nil
	}
	return p.fallback.Profile(ctx, userID)
}
