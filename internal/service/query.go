package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

// QueryService builds read-only views over the store. It never mutates.
type QueryService struct {
	store repository.Store
}

// NewQueryService constructs a QueryService.
func NewQueryService(store repository.Store) *QueryService {
	return &QueryService{store: store}
}

// ListCampaigns returns campaigns in reverse chronological order of their event
// date. With activeOnly set, Completed campaigns are left out.
func (s *QueryService) ListCampaigns(ctx context.Context, activeOnly bool) ([]model.Campaign, error) {
	var filter repository.CampaignFilter
	if activeOnly {
		filter.ExcludeStatus = model.CampaignCompleted
	}
	campaigns, err := s.store.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, Internal("list campaigns", err)
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	return campaigns, nil
}

// GetCampaign returns a single campaign.
func (s *QueryService) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Campaign{}, ErrCampaignNotFound
		}
		return model.Campaign{}, Internal("get campaign", err)
	}
	return c, nil
}

// GetCampaignDetail returns the campaign and the users holding a confirmed
// booking for it, ordered by user id.
func (s *QueryService) GetCampaignDetail(ctx context.Context, id string) (model.CampaignDetail, error) {
	var (
		campaign model.Campaign
		bookings []model.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaign, err = s.store.GetCampaign(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.store.ListBookings(gctx, repository.BookingFilter{
			CampaignID: id,
			Status:     model.BookingConfirmed,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CampaignDetail{}, ErrCampaignNotFound
		}
		return model.CampaignDetail{}, Internal("get campaign detail", err)
	}

	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
	}
	participants, err := s.store.ListUsers(ctx, repository.UserFilter{IDs: userIDs})
	if err != nil {
		return model.CampaignDetail{}, Internal("list participants", err)
	}
	if participants == nil {
		participants = []model.User{}
	}
	return model.CampaignDetail{Campaign: campaign, Participants: participants}, nil
}

// GetUserBookings returns every booking of the user, in any status, joined with
// its campaign. Bookings whose campaign no longer exists are dropped.
func (s *QueryService) GetUserBookings(ctx context.Context, userID string) ([]model.UserBooking, error) {
	bookings, err := s.store.ListBookings(ctx, repository.BookingFilter{UserID: userID})
	if err != nil {
		return nil, Internal("list user bookings", err)
	}

	campaigns := make(map[string]model.Campaign)
	result := make([]model.UserBooking, 0, len(bookings))
	for _, b := range bookings {
		c, ok := campaigns[b.CampaignID]
		if !ok {
			c, err = s.store.GetCampaign(ctx, b.CampaignID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, Internal("load booking campaign", err)
			}
			campaigns[b.CampaignID] = c
		}
		result = append(result, model.UserBooking{Booking: b, Campaign: c})
	}
	return result, nil
}

// ListCampaignAvailability returns active campaigns annotated with the user's booking state.
// A campaign the user already booked reports booked even when it is also full.
func (s *QueryService) ListCampaignAvailability(ctx context.Context, userID string) ([]model.CampaignAvailability, error) {
	var (
		campaigns []model.Campaign
		bookings  []model.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = s.store.ListCampaigns(gctx, repository.CampaignFilter{ExcludeStatus: model.CampaignCompleted})
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.store.ListBookings(gctx, repository.BookingFilter{
			UserID: userID,
			Status: model.BookingConfirmed,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, Internal("list campaign availability", err)
	}

	booked := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		booked[b.CampaignID] = struct{}{}
	}
	result := make([]model.CampaignAvailability, 0, len(campaigns))
	for _, c := range campaigns {
		state := model.StateOpen
		if _, ok := booked[c.ID]; ok {
			state = model.StateBooked
		} else if c.IsFull() {
			state = model.StateFull
		}
		result = append(result, model.CampaignAvailability{
			Campaign:       c,
			RemainingSlots: c.Remaining(),
			BookingState:   state,
		})
	}
	return result, nil
}

// Stats aggregates dashboard counters across all campaigns.
func (s *QueryService) Stats(ctx context.Context) (model.Stats, error) {
	var (
		campaigns []model.Campaign
		confirmed []model.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = s.store.ListCampaigns(gctx, repository.CampaignFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		confirmed, err = s.store.ListBookings(gctx, repository.BookingFilter{Status: model.BookingConfirmed})
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Stats{}, Internal("compute stats", err)
	}

	stats := model.Stats{
		TotalCampaigns:    len(campaigns),
		ConfirmedBookings: len(confirmed),
	}
	for _, c := range campaigns {
		stats.TotalParticipants += c.BookedSlots
		if c.Status == model.CampaignUpcoming {
			stats.UpcomingCampaigns++
		}
	}
	return stats, nil
}
