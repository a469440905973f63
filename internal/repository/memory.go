package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/uppalapadu/watersafe/internal/model"
)

// MemoryStore keeps every record in process memory. Mutations hold a single
// mutex only for the duration of the map operation.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]model.User
	emails    map[string]string
	campaigns map[string]model.Campaign
	bookings  map[string]model.Booking
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]model.User),
		emails:    make(map[string]string),
		campaigns: make(map[string]model.Campaign),
		bookings:  make(map[string]model.Booking),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []model.User
	if filter.IDs == nil {
		for _, u := range s.users {
			users = append(users, u)
		}
	} else {
		seen := make(map[string]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if u, ok := s.users[id]; ok {
				users = append(users, u)
			}
		}
	}
	sortUsers(users)
	return users, nil
}

func (s *MemoryStore) InsertUser(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("insert user %s: %w", user.ID, ErrDuplicateID)
	}
	key := strings.ToLower(user.Email)
	if _, ok := s.emails[key]; ok {
		return ErrDuplicateEmail
	}
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return model.Campaign{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return model.Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]model.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var campaigns []model.Campaign
	for _, c := range s.campaigns {
		if filter.matches(c) {
			campaigns = append(campaigns, c)
		}
	}
	sortCampaigns(campaigns)
	return campaigns, nil
}

func (s *MemoryStore) InsertCampaign(ctx context.Context, campaign model.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[campaign.ID]; ok {
		return fmt.Errorf("insert campaign %s: %w", campaign.ID, ErrDuplicateID)
	}
	s.campaigns[campaign.ID] = campaign
	return nil
}

func (s *MemoryStore) UpdateCampaign(ctx context.Context, id string, mutate CampaignMutation) (model.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return model.Campaign{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return model.Campaign{}, ErrNotFound
	}
	if err := mutate(&c); err != nil {
		return model.Campaign{}, err
	}
	c.ID = id
	s.campaigns[id] = c
	return c, nil
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return ErrNotFound
	}
	for bid, b := range s.bookings {
		if b.CampaignID == id {
			delete(s.bookings, bid)
		}
	}
	delete(s.campaigns, id)
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bookings []model.Booking
	for _, b := range s.bookings {
		if filter.matches(b) {
			bookings = append(bookings, b)
		}
	}
	sortBookings(bookings)
	return bookings, nil
}

func (s *MemoryStore) InsertBooking(ctx context.Context, booking model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[booking.ID]; ok {
		return fmt.Errorf("insert booking %s: %w", booking.ID, ErrDuplicateID)
	}
	if booking.Status == model.BookingConfirmed {
		for _, b := range s.bookings {
			if b.Status == model.BookingConfirmed && b.UserID == booking.UserID && b.CampaignID == booking.CampaignID {
				return ErrConfirmedBookingExists
			}
		}
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *MemoryStore) UpdateBooking(ctx context.Context, id string, mutate BookingMutation) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	if err := mutate(&b); err != nil {
		return model.Booking{}, err
	}
	b.ID = id
	s.bookings[id] = b
	return b, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
