// Package repository implements the entity store for users, campaigns and bookings.
// Three backends share one contract: an in-memory map store, PostgreSQL via pgx,
// and SQLite via modernc.org/sqlite.
package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/uppalapadu/watersafe/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when inserting a record whose id already exists.
var ErrDuplicateID = errors.New("duplicate id")

// ErrDuplicateEmail is returned when a user with the same email (case-insensitive) exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrConfirmedBookingExists is returned when inserting a second Confirmed booking
// for the same (user, campaign) pair.
var ErrConfirmedBookingExists = errors.New("confirmed booking already exists for this user and campaign")

// CampaignMutation edits a campaign in place. Returning an error aborts the update.
type CampaignMutation func(c *model.Campaign) error

// BookingMutation edits a booking in place. Returning an error aborts the update.
type BookingMutation func(b *model.Booking) error

// UserFilter selects users. A nil IDs slice matches every user.
type UserFilter struct {
	IDs []string
}

// CampaignFilter selects campaigns.
type CampaignFilter struct {
	ExcludeStatus model.CampaignStatus
}

// BookingFilter selects bookings. Empty fields match anything.
type BookingFilter struct {
	UserID     string
	CampaignID string
	Status     model.BookingStatus
}

// Store is the persistence contract used by the services. It performs no business
// validation; UpdateCampaign and UpdateBooking apply the mutation while holding the
// record's lock and commit only if the mutation succeeds.
type Store interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	InsertUser(ctx context.Context, user model.User) error

	GetCampaign(ctx context.Context, id string) (model.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]model.Campaign, error)
	InsertCampaign(ctx context.Context, campaign model.Campaign) error
	UpdateCampaign(ctx context.Context, id string, mutate CampaignMutation) (model.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error

	GetBooking(ctx context.Context, id string) (model.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	InsertBooking(ctx context.Context, booking model.Booking) error
	UpdateBooking(ctx context.Context, id string, mutate BookingMutation) (model.Booking, error)

	Close() error
}

func (f BookingFilter) matches(b model.Booking) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.CampaignID != "" && b.CampaignID != f.CampaignID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

func (f CampaignFilter) matches(c model.Campaign) bool {
	return f.ExcludeStatus == "" || c.Status != f.ExcludeStatus
}

// sortUsers orders users by id so every backend returns the same sequence.
func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

// sortBookings orders bookings by creation time, then id.
func sortBookings(bookings []model.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].BookingDate.Equal(bookings[j].BookingDate) {
			return bookings[i].BookingDate.Before(bookings[j].BookingDate)
		}
		return bookings[i].ID < bookings[j].ID
	})
}

// sortCampaigns orders campaigns by event date, latest first, then id.
func sortCampaigns(campaigns []model.Campaign) {
	sort.Slice(campaigns, func(i, j int) bool {
		if !campaigns[i].Date.Equal(campaigns[j].Date) {
			return campaigns[i].Date.After(campaigns[j].Date)
		}
		return campaigns[i].ID < campaigns[j].ID
	})
}
