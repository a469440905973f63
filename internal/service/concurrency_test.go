package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	const (
		capacity = 5
		bidders  = 40
	)
	for name, newServices := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newServices(t)
			c := mustCampaign(t, svc, "Crowded", capacity)

			users := make([]model.User, bidders)
			for i := range users {
				users[i] = mustUser(t, svc, fmt.Sprintf("bidder%02d", i))
			}

			results := make([]model.BookingResult, bidders)
			var g errgroup.Group
			for i, u := range users {
				g.Go(func() error {
					b, err := svc.Bookings.CreateBooking(ctx, u.ID, c.ID)
					results[i] = model.BookingResult{UserID: u.ID, Booking: b, Error: err}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			var booked, full int
			codes := make(map[string]bool)
			for _, r := range results {
				switch {
				case r.Error == nil:
					booked++
					assert.Equal(t, r.UserID, r.Booking.UserID)
					codes[r.Booking.ConfirmationCode] = true
				case errors.Is(r.Error, ErrCampaignFull):
					full++
				default:
					t.Errorf("bidder %s: unexpected error %v", r.UserID, r.Error)
				}
			}

			assert.Equal(t, capacity, booked)
			assert.Equal(t, bidders-capacity, full)
			assert.Len(t, codes, capacity)
			assert.Equal(t, capacity, bookedSlots(t, store, c.ID))
			assert.Equal(t, capacity, confirmedCount(t, store, c.ID))
		})
	}
}

func TestConcurrentDuplicateBookingsYieldOne(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryServices(t)
	u := mustUser(t, svc, "eager")
	c := mustCampaign(t, svc, "Roomy", 50)

	var (
		wg      sync.WaitGroup
		ok      atomic.Int32
		already atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Bookings.CreateBooking(ctx, u.ID, c.ID)
			if err == nil {
				ok.Add(1)
			} else if errors.Is(err, ErrAlreadyBooked) {
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 19, already.Load())
	assert.Equal(t, 1, bookedSlots(t, store, c.ID))
}

func TestConcurrentCreateAndCancelKeepCounterConsistent(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryServices(t)
	c := mustCampaign(t, svc, "Churn", 3)

	users := make([]model.User, 6)
	for i := range users {
		users[i] = mustUser(t, svc, fmt.Sprintf("churn%d", i))
	}

	var g errgroup.Group
	for _, u := range users {
		g.Go(func() error {
			for range 10 {
				b, err := svc.Bookings.CreateBooking(ctx, u.ID, c.ID)
				if errors.Is(err, ErrCampaignFull) {
					continue
				}
				if err != nil {
					return err
				}
				if _, err := svc.Bookings.CancelBooking(ctx, b.ID); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 0, bookedSlots(t, store, c.ID))
	assert.Equal(t, 0, confirmedCount(t, store, c.ID))
	assert.Zero(t, svc.Bookings.locks.size())
}

func TestDifferentCampaignsDoNotShareALock(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryServices(t)
	u := mustUser(t, svc, "parallel")
	blocked := mustCampaign(t, svc, "Blocked", 1)
	free := mustCampaign(t, svc, "Free", 1)

	unlock := svc.Bookings.locks.Lock(blocked.ID)
	defer unlock()

	// Completes even though another campaign's lock is held.
	_, err := svc.Bookings.CreateBooking(ctx, u.ID, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bookedSlots(t, store, free.ID))
	assert.Equal(t, 0, bookedSlots(t, store, blocked.ID))
}

// slowReadStore widens the window between reading a booking and acting on it.
type slowReadStore struct {
	repository.Store
	delay time.Duration
}

func (s slowReadStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	time.Sleep(s.delay)
	return s.Store.GetBooking(ctx, id)
}

func TestConcurrentCancelAcrossInstancesReleasesOnce(t *testing.T) {
	const rounds = 50
	store := slowReadStore{Store: repository.NewMemoryStore(), delay: 2 * time.Millisecond}
	first := New(store, zap.NewNop())
	second := New(store, zap.NewNop())
	ctx := context.Background()

	ravi := mustUser(t, first, "ravi")
	priya := mustUser(t, first, "priya")

	for i := 0; i < rounds; i++ {
		c := mustCampaign(t, first, fmt.Sprintf("Round %d", i), 2)
		target, err := first.Bookings.CreateBooking(ctx, ravi.ID, c.ID)
		require.NoError(t, err)
		_, err = first.Bookings.CreateBooking(ctx, priya.ID, c.ID)
		require.NoError(t, err)

		var g errgroup.Group
		for _, svc := range []*Services{first, second} {
			g.Go(func() error {
				b, err := svc.Bookings.CancelBooking(ctx, target.ID)
				if err != nil {
					return err
				}
				if b.Status != model.BookingCancelled {
					return fmt.Errorf("round %d: status %s", i, b.Status)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		require.Equal(t, 1, bookedSlots(t, store, c.ID), "round %d", i)
		require.Equal(t, 1, confirmedCount(t, store, c.ID), "round %d", i)
	}
}
