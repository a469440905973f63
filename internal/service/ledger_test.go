package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityLedger(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryServices(t)
	c := mustCampaign(t, svc, "Lakefront", 2)

	got, err := svc.Ledger.ReserveSlot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookedSlots)

	got, err = svc.Ledger.ReserveSlot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.BookedSlots)

	_, err = svc.Ledger.ReserveSlot(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCampaignFull)
	assert.Equal(t, 2, bookedSlots(t, store, c.ID), "a rejected reservation leaves the counter unchanged")

	got, err = svc.Ledger.ReleaseSlot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BookedSlots)
}

func TestCapacityLedgerReleaseClampsAtZero(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryServices(t)
	c := mustCampaign(t, svc, "Well", 3)

	got, err := svc.Ledger.ReleaseSlot(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BookedSlots)
	assert.Equal(t, 0, bookedSlots(t, store, c.ID))
}

func TestCapacityLedgerMissingCampaign(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryServices(t)

	_, err := svc.Ledger.ReserveSlot(ctx, "missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	_, err = svc.Ledger.ReleaseSlot(ctx, "missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}
