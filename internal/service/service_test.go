package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/database"
	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

func newMemoryServices(t *testing.T) (*Services, repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	return New(store, zap.NewNop()), store
}

func newSQLiteServices(t *testing.T) (*Services, repository.Store) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, zap.NewNop()), store
}

var backends = map[string]func(t *testing.T) (*Services, repository.Store){
	"memory": newMemoryServices,
	"sqlite": newSQLiteServices,
}

func mustUser(t *testing.T, svc *Services, name string) model.User {
	t.Helper()
	u, err := svc.Users.Register(context.Background(), model.RegisterRequest{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	})
	require.NoError(t, err)
	return u
}

func mustCampaign(t *testing.T, svc *Services, title string, capacity int) model.Campaign {
	t.Helper()
	c, err := svc.Campaigns.CreateCampaign(context.Background(), "admin", model.CreateCampaignRequest{
		Title:    title,
		Date:     "2026-05-01",
		Time:     "09:00 AM",
		Location: "Uppalapadu Lake",
		Capacity: capacity,
	})
	require.NoError(t, err)
	return c
}

func bookedSlots(t *testing.T, store repository.Store, campaignID string) int {
	t.Helper()
	c, err := store.GetCampaign(context.Background(), campaignID)
	require.NoError(t, err)
	return c.BookedSlots
}

func confirmedCount(t *testing.T, store repository.Store, campaignID string) int {
	t.Helper()
	bs, err := store.ListBookings(context.Background(), repository.BookingFilter{
		CampaignID: campaignID,
		Status:     model.BookingConfirmed,
	})
	require.NoError(t, err)
	return len(bs)
}

// faultStore wraps a store and injects failures into selected writes.
type faultStore struct {
	repository.Store

	mu                   sync.Mutex
	insertBookingErr     error
	updateBookingErr     error
	updateCampaignCalls  int
	failUpdateCampaignAt int // 1-based call number; 0 disables
}

var errInjected = errors.New("injected fault")

func (f *faultStore) InsertBooking(ctx context.Context, b model.Booking) error {
	f.mu.Lock()
	err := f.insertBookingErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.InsertBooking(ctx, b)
}

func (f *faultStore) UpdateBooking(ctx context.Context, id string, mutate repository.BookingMutation) (model.Booking, error) {
	f.mu.Lock()
	err := f.updateBookingErr
	f.mu.Unlock()
	if err != nil {
		return model.Booking{}, err
	}
	return f.Store.UpdateBooking(ctx, id, mutate)
}

func (f *faultStore) UpdateCampaign(ctx context.Context, id string, mutate repository.CampaignMutation) (model.Campaign, error) {
	f.mu.Lock()
	f.updateCampaignCalls++
	fail := f.failUpdateCampaignAt != 0 && f.updateCampaignCalls == f.failUpdateCampaignAt
	f.mu.Unlock()
	if fail {
		return model.Campaign{}, errInjected
	}
	return f.Store.UpdateCampaign(ctx, id, mutate)
}
