// Package model defines the core domain types for the campaign booking system.
package model

import (
	"fmt"
	"time"
)

// Role distinguishes campaign administrators from ordinary participants.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// CampaignStatus is set by an administrator; it is not derived from Date.
type CampaignStatus string

const (
	CampaignUpcoming  CampaignStatus = "Upcoming"
	CampaignOngoing   CampaignStatus = "Ongoing"
	CampaignCompleted CampaignStatus = "Completed"
)

// Valid reports whether s is one of the known campaign statuses.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignUpcoming, CampaignOngoing, CampaignCompleted:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a booking: Confirmed, then optionally Cancelled.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

// User is a registered participant or administrator.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Village string `json:"village"`
	Phone   string `json:"phone"`
}

// Campaign represents a scheduled water-testing event with a finite number of slots.
type Campaign struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        time.Time      `json:"date"`
	Time        string         `json:"time"`
	Location    string         `json:"location"`
	Capacity    int            `json:"capacity"`
	BookedSlots int            `json:"bookedSlots"`
	Status      CampaignStatus `json:"status"`
	CreatedBy   string         `json:"createdBy"`
}

// Remaining returns the number of free slots.
func (c *Campaign) Remaining() int {
	if c.BookedSlots >= c.Capacity {
		return 0
	}
	return c.Capacity - c.BookedSlots
}

// IsFull returns true when no slots remain.
func (c *Campaign) IsFull() bool {
	return c.BookedSlots >= c.Capacity
}

// Booking represents a user's claim on one slot of a campaign.
type Booking struct {
	ID               string        `json:"id"`
	UserID           string        `json:"userId"`
	CampaignID       string        `json:"campaignId"`
	BookingDate      time.Time     `json:"bookingDate"`
	Status           BookingStatus `json:"status"`
	ConfirmationCode string        `json:"confirmationCode"`
}

// ConfirmationCode derives the human-readable code printed on a booking.
// It is informational only and carries no secret.
func ConfirmationCode(userID, campaignID string) string {
	return fmt.Sprintf("UWSI-%s-%s", userID, campaignID)
}

// CampaignDetail is a campaign together with the users holding a confirmed booking for it.
type CampaignDetail struct {
	Campaign
	Participants []User `json:"participants"`
}

// UserBooking pairs a booking with the campaign it refers to.
type UserBooking struct {
	Booking  Booking  `json:"booking"`
	Campaign Campaign `json:"campaign"`
}

// BookingState is the per-user view of whether a campaign can still be booked.
type BookingState string

const (
	StateBooked BookingState = "booked"
	StateFull   BookingState = "full"
	StateOpen   BookingState = "open"
)

// CampaignAvailability is a campaign as seen by one user.
type CampaignAvailability struct {
	Campaign
	RemainingSlots int          `json:"remainingSlots"`
	BookingState   BookingState `json:"bookingState"`
}

// Stats summarises the campaign portfolio for the admin dashboard.
type Stats struct {
	TotalCampaigns    int `json:"totalCampaigns"`
	TotalParticipants int `json:"totalParticipants"`
	UpcomingCampaigns int `json:"upcomingCampaigns"`
	ConfirmedBookings int `json:"confirmedBookings"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// BookingResult pairs a booking attempt with its outcome.
type BookingResult struct {
	UserID  string
	Booking Booking
	Error   error
}
