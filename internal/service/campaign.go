package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

// CampaignService handles administrator actions on campaigns.
type CampaignService struct {
	store repository.Store
	locks *keyLock
	log   *zap.Logger
	newID func() string
}

// NewCampaignService constructs a CampaignService with its dependencies.
func NewCampaignService(store repository.Store, locks *keyLock, log *zap.Logger) *CampaignService {
	return &CampaignService{store: store, locks: locks, log: log, newID: newID}
}

// CreateCampaign validates the request and stores a new Upcoming campaign with no bookings.
func (s *CampaignService) CreateCampaign(ctx context.Context, createdBy string, req model.CreateCampaignRequest) (model.Campaign, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)
	if err := req.Validate(); err != nil {
		return model.Campaign{}, Validation(err)
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return model.Campaign{}, Validationf("date: %v", err)
	}

	c := model.Campaign{
		ID:          s.newID(),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		Capacity:    req.Capacity,
		BookedSlots: 0,
		Status:      model.CampaignUpcoming,
		CreatedBy:   createdBy,
	}
	if err := s.store.InsertCampaign(ctx, c); err != nil {
		return model.Campaign{}, Internal("create campaign", err)
	}
	s.log.Info("campaign created", zap.String("campaign_id", c.ID), zap.Int("capacity", c.Capacity))
	return c, nil
}

// UpdateCampaign applies a partial update. Capacity may not drop below the
// number of confirmed bookings, and bookedSlots is never writable here.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, req model.UpdateCampaignRequest) (model.Campaign, error) {
	if err := req.Validate(); err != nil {
		return model.Campaign{}, Validation(err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	c, err := s.store.UpdateCampaign(ctx, id, func(c *model.Campaign) error {
		if req.Title != nil {
			c.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			c.Description = strings.TrimSpace(*req.Description)
		}
		if req.Date != nil {
			date, err := model.ParseDate(*req.Date)
			if err != nil {
				return Validationf("date: %v", err)
			}
			c.Date = date
		}
		if req.Time != nil {
			c.Time = strings.TrimSpace(*req.Time)
		}
		if req.Location != nil {
			c.Location = strings.TrimSpace(*req.Location)
		}
		if req.Capacity != nil {
			if *req.Capacity < c.BookedSlots {
				return Validationf("capacity %d is below the %d slots already booked", *req.Capacity, c.BookedSlots)
			}
			c.Capacity = *req.Capacity
		}
		if req.Status != nil {
			c.Status = *req.Status
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Campaign{}, ErrCampaignNotFound
		}
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return model.Campaign{}, svcErr
		}
		return model.Campaign{}, Internal("update campaign", err)
	}
	s.log.Info("campaign updated", zap.String("campaign_id", c.ID))
	return c, nil
}

// DeleteCampaign removes a campaign together with all of its bookings.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.DeleteCampaign(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCampaignNotFound
		}
		return Internal("delete campaign", err)
	}
	s.log.Info("campaign deleted", zap.String("campaign_id", id))
	return nil
}
