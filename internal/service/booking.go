package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

// BookingService is the only entry point that creates or cancels bookings.
// Every operation runs under the campaign's key lock, so a create and a cancel
// for the same (user, campaign) pair never interleave, while different
// campaigns proceed in parallel.
type BookingService struct {
	store  repository.Store
	ledger *CapacityLedger
	locks  *keyLock
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

var errAlreadyCancelled = errors.New("booking already cancelled")

// NewBookingService constructs a BookingService.
func NewBookingService(store repository.Store, ledger *CapacityLedger, locks *keyLock, log *zap.Logger) *BookingService {
	return &BookingService{
		store:  store,
		ledger: ledger,
		locks:  locks,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  newID,
	}
}

// CreateBooking claims one slot of campaignID for userID.
//
// Order of checks: campaign exists, user exists, no confirmed booking for the
// pair, a slot is free. The slot reservation and the booking insert form one
// unit: if the insert fails the reservation is released before returning.
func (s *BookingService) CreateBooking(ctx context.Context, userID, campaignID string) (_ model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("campaign.id", campaignID),
	))
	defer func() { endSpan(span, err) }()

	req := model.CreateBookingRequest{UserID: strings.TrimSpace(userID), CampaignID: strings.TrimSpace(campaignID)}
	if err := req.Validate(); err != nil {
		return model.Booking{}, Validation(err)
	}

	unlock := s.locks.Lock(req.CampaignID)
	defer unlock()

	if _, err := s.store.GetCampaign(ctx, req.CampaignID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Booking{}, ErrCampaignNotFound
		}
		return model.Booking{}, Internal("load campaign", err)
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Booking{}, ErrUserNotFound
		}
		return model.Booking{}, Internal("load user", err)
	}

	existing, err := s.store.ListBookings(ctx, repository.BookingFilter{
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		Status:     model.BookingConfirmed,
	})
	if err != nil {
		return model.Booking{}, Internal("check existing booking", err)
	}
	if len(existing) > 0 {
		return model.Booking{}, ErrAlreadyBooked
	}

	if _, err := s.ledger.ReserveSlot(ctx, req.CampaignID); err != nil {
		if errors.Is(err, ErrCampaignFull) || errors.Is(err, ErrCampaignNotFound) {
			return model.Booking{}, err
		}
		return model.Booking{}, Internal("reserve slot", err)
	}

	booking := model.Booking{
		ID:               s.newID(),
		UserID:           req.UserID,
		CampaignID:       req.CampaignID,
		BookingDate:      s.now(),
		Status:           model.BookingConfirmed,
		ConfirmationCode: model.ConfirmationCode(req.UserID, req.CampaignID),
	}
	if insertErr := s.store.InsertBooking(ctx, booking); insertErr != nil {
		if _, releaseErr := s.ledger.ReleaseSlot(context.WithoutCancel(ctx), req.CampaignID); releaseErr != nil {
			s.log.Error("ledger rollback failed after booking insert error",
				zap.String("campaign_id", req.CampaignID),
				zap.String("user_id", req.UserID),
				zap.NamedError("insert_error", insertErr),
				zap.NamedError("release_error", releaseErr),
			)
			return model.Booking{}, Internal("create booking", errors.Join(insertErr, releaseErr))
		}
		if errors.Is(insertErr, repository.ErrConfirmedBookingExists) {
			return model.Booking{}, ErrAlreadyBooked
		}
		s.log.Error("booking insert failed; slot released",
			zap.String("campaign_id", req.CampaignID),
			zap.String("user_id", req.UserID),
			zap.Error(insertErr),
		)
		return model.Booking{}, Internal("create booking", insertErr)
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("campaign_id", booking.CampaignID),
		zap.String("user_id", booking.UserID),
	)
	return booking, nil
}

// CancelBooking moves a confirmed booking to Cancelled and returns its slot.
// Cancelling an already cancelled booking succeeds without touching the ledger.
// If the release fails the booking is put back to Confirmed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (_ model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CancelBooking", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
	))
	defer func() { endSpan(span, err) }()

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return model.Booking{}, Validationf("booking id is required")
	}

	current, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Booking{}, ErrBookingNotFound
		}
		return model.Booking{}, Internal("load booking", err)
	}

	unlock := s.locks.Lock(current.CampaignID)
	defer unlock()

	// The status flip is the guarded step: only the caller that moves the
	// booking out of Confirmed releases its slot, even across instances.
	updated, err := s.store.UpdateBooking(ctx, bookingID, func(b *model.Booking) error {
		if b.Status == model.BookingCancelled {
			return errAlreadyCancelled
		}
		b.Status = model.BookingCancelled
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errAlreadyCancelled):
			cancelled, getErr := s.store.GetBooking(ctx, bookingID)
			if getErr != nil {
				return model.Booking{}, Internal("load booking", getErr)
			}
			return cancelled, nil
		case errors.Is(err, repository.ErrNotFound):
			return model.Booking{}, ErrBookingNotFound
		}
		return model.Booking{}, Internal("cancel booking", err)
	}

	if _, releaseErr := s.ledger.ReleaseSlot(ctx, updated.CampaignID); releaseErr != nil &&
		!errors.Is(releaseErr, ErrCampaignNotFound) {
		_, restoreErr := s.store.UpdateBooking(context.WithoutCancel(ctx), bookingID, func(b *model.Booking) error {
			b.Status = model.BookingConfirmed
			return nil
		})
		if restoreErr != nil {
			s.log.Error("booking status rollback failed after release error",
				zap.String("booking_id", bookingID),
				zap.String("campaign_id", updated.CampaignID),
				zap.NamedError("release_error", releaseErr),
				zap.NamedError("restore_error", restoreErr),
			)
			return model.Booking{}, Internal("cancel booking", errors.Join(releaseErr, restoreErr))
		}
		return model.Booking{}, Internal("release slot", releaseErr)
	}

	s.log.Info("booking cancelled",
		zap.String("booking_id", updated.ID),
		zap.String("campaign_id", updated.CampaignID),
		zap.String("user_id", updated.UserID),
	)
	return updated, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
