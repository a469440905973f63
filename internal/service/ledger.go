package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

// CapacityLedger enforces 0 <= bookedSlots <= capacity. Each call is a single
// store update, so the check and the write happen under the campaign's record lock.
type CapacityLedger struct {
	store repository.Store
}

// NewCapacityLedger constructs a CapacityLedger over store.
func NewCapacityLedger(store repository.Store) *CapacityLedger {
	return &CapacityLedger{store: store}
}

// ReserveSlot claims one slot of the campaign, failing with ErrCampaignFull when none remain.
func (l *CapacityLedger) ReserveSlot(ctx context.Context, campaignID string) (model.Campaign, error) {
	c, err := l.store.UpdateCampaign(ctx, campaignID, func(c *model.Campaign) error {
		if c.BookedSlots >= c.Capacity {
			return ErrCampaignFull
		}
		c.BookedSlots++
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCampaignFull):
			return model.Campaign{}, ErrCampaignFull
		case errors.Is(err, repository.ErrNotFound):
			return model.Campaign{}, ErrCampaignNotFound
		}
		return model.Campaign{}, fmt.Errorf("reserve slot: %w", err)
	}
	return c, nil
}

// ReleaseSlot returns one slot to the campaign. The counter never drops below zero.
func (l *CapacityLedger) ReleaseSlot(ctx context.Context, campaignID string) (model.Campaign, error) {
	c, err := l.store.UpdateCampaign(ctx, campaignID, func(c *model.Campaign) error {
		if c.BookedSlots > 0 {
			c.BookedSlots--
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Campaign{}, ErrCampaignNotFound
		}
		return model.Campaign{}, fmt.Errorf("release slot: %w", err)
	}
	return c, nil
}
