package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/mfx/internal/models"
)

// ManifestState keeps the organization details and history that manifest tasks invalidate.
//
// It implements [Refresher].
type ManifestState struct {
	resources      ResourceProvider
	history        HistoryProvider
	organizationID int
	feed           *HistoryFeed

	mu      sync.RWMutex
	details ManifestDetails
}

var _ Refresher = (*ManifestState)(nil)

// NewManifestState tracks the organization organizationID. A nil feed gets one holding
// [DefaultHistoryLimit] entries.
func NewManifestState(resources ResourceProvider, history HistoryProvider, organizationID int, feed *HistoryFeed) *ManifestState {
	if feed == nil {
		feed = NewHistoryFeed(DefaultHistoryLimit)
	}
	return &ManifestState{
		resources:      resources,
		history:        history,
		organizationID: organizationID,
		feed:           feed,
	}
}

// Refresh reloads the organization, re-derives its details and reloads the history.
func (s *ManifestState) Refresh(ctx context.Context) error {
	org, err := s.resources.GetOrganization(ctx, s.organizationID)
	if err != nil {
		return fmt.Errorf("failed to fetch organization %d: %w", s.organizationID, err)
	}

	details := DeriveDetails(org)
	s.mu.Lock()
	s.details = details
	s.mu.Unlock()

	return s.RefreshHistory(ctx)
}

// RefreshHistory reloads the history feed.
func (s *ManifestState) RefreshHistory(ctx context.Context) error {
	entries, err := s.history.ManifestHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch manifest history: %w", err)
	}
	s.feed.Replace(entries)
	return nil
}

// Details returns the last derived details.
func (s *ManifestState) Details() ManifestDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.details
}

// Feed returns the history feed.
func (s *ManifestState) Feed() *HistoryFeed {
	return s.feed
}

// History returns the displayed history entries and whether more exist.
func (s *ManifestState) History() ([]models.HistoryEntry, bool) {
	return s.feed.Displayed(), s.feed.HasMore()
}
