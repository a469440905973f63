package model

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// dateLayouts are the accepted encodings of a campaign date.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a campaign date given either as RFC 3339 or as a bare calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func validDate(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := ParseDate(s)
	return err
}

// CreateCampaignRequest is the payload for creating a new campaign.
type CreateCampaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
}

func (req *CreateCampaignRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Date, validation.Required, validation.By(validDate)),
		validation.Field(&req.Time, validation.Required, validation.Length(1, 20)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 200)),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1), validation.Max(100_000)),
	)
}

// UpdateCampaignRequest patches an existing campaign. Nil fields are left untouched.
type UpdateCampaignRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Date        *string         `json:"date,omitempty"`
	Time        *string         `json:"time,omitempty"`
	Location    *string         `json:"location,omitempty"`
	Capacity    *int            `json:"capacity,omitempty"`
	Status      *CampaignStatus `json:"status,omitempty"`
}

func (req *UpdateCampaignRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Date, validation.NilOrNotEmpty, validation.By(func(value interface{}) error {
			if p, ok := value.(*string); ok && p != nil {
				return validDate(*p)
			}
			return nil
		})),
		validation.Field(&req.Time, validation.NilOrNotEmpty, validation.Length(1, 20)),
		validation.Field(&req.Location, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&req.Capacity, validation.NilOrNotEmpty, validation.Min(1), validation.Max(100_000)),
		validation.Field(&req.Status, validation.NilOrNotEmpty,
			validation.In(CampaignUpcoming, CampaignOngoing, CampaignCompleted)),
	)
}

// CreateBookingRequest is the payload for booking a slot.
type CreateBookingRequest struct {
	UserID     string `json:"userId"`
	CampaignID string `json:"campaignId"`
}

func (req *CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.CampaignID, validation.Required),
	)
}

// RegisterRequest is the payload for creating a participant account.
type RegisterRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Village string `json:"village"`
	Phone   string `json:"phone"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Village, validation.Length(0, 100)),
		validation.Field(&req.Phone, validation.Length(0, 20)),
	)
}

// LoginRequest is the payload for signing in by email.
type LoginRequest struct {
	Email string `json:"email"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

// LoginResponse carries the signed-in user and a bearer token.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// QuestionRequest is a free-text question for the guide assistant.
type QuestionRequest struct {
	Question string `json:"question"`
}

func (req *QuestionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Question, validation.Required, validation.Length(1, 2000)),
	)
}

// AnswerResponse wraps the assistant's reply.
type AnswerResponse struct {
	Answer string `json:"answer"`
}
