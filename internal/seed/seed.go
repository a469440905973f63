// Package seed loads the demo portfolio of users, campaigns and bookings.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/service"
)

// AdminEmail identifies the seeded administrator account.
const AdminEmail = "admin@safewater.in"

var participants = []model.RegisterRequest{
	{Name: "Ravi Kumar", Email: "ravi@example.com", Village: "Uppalapadu Center", Phone: "0987654321"},
	{Name: "Priya Sharma", Email: "priya@example.com", Village: "Lake View Colony", Phone: "1122334455"},
	{Name: "Anil Reddy", Email: "anil@example.com", Village: "Green Valley", Phone: "2233445566"},
	{Name: "Akhil Varma", Email: "akhil@example.com", Village: "New Colony", Phone: "3344556677"},
}

type demoCampaign struct {
	req    model.CreateCampaignRequest
	offset time.Duration
	status model.CampaignStatus
	// emails of participants holding a confirmed booking
	bookedBy []string
}

const day = 24 * time.Hour

var campaigns = []demoCampaign{
	{
		req: model.CreateCampaignRequest{
			Title:       "Lakefront Water Quality Check",
			Description: "Join us for a comprehensive water quality test near the main lake. We will be using E. coli testing kits to ensure the safety of our primary water source.",
			Time:        "09:00 AM",
			Location:    "Uppalapadu Lake Entrance",
			Capacity:    20,
		},
		offset:   3 * day,
		status:   model.CampaignUpcoming,
		bookedBy: []string{"ravi@example.com", "priya@example.com"},
	},
	{
		req: model.CreateCampaignRequest{
			Title:       "Community Well Sanitation Drive",
			Description: "A campaign focused on testing the community well water. We will also demonstrate proper well maintenance techniques.",
			Time:        "10:30 AM",
			Location:    "Village Community Well",
			Capacity:    15,
		},
		offset:   10 * day,
		status:   model.CampaignUpcoming,
		bookedBy: []string{"anil@example.com"},
	},
	{
		req: model.CreateCampaignRequest{
			Title:       "River Bend Contaminant Check",
			Description: "Testing the water at the river bend, a popular spot for locals. Your participation is crucial.",
			Time:        "02:00 PM",
			Location:    "River Bend Point",
			Capacity:    25,
		},
		status: model.CampaignOngoing,
	},
	{
		req: model.CreateCampaignRequest{
			Title:       "Post-Rainfall Water Assessment",
			Description: "Assessing water quality after the recent heavy rainfall to check for runoff contamination.",
			Time:        "08:00 AM",
			Location:    "Various points across Uppalapadu",
			Capacity:    30,
		},
		offset:   -5 * day,
		status:   model.CampaignCompleted,
		bookedBy: []string{"ravi@example.com"},
	},
}

// Demo loads the demo data through the services, so every booked slot is
// backed by a confirmed booking. It does nothing if the admin account exists.
func Demo(ctx context.Context, svc *service.Services, now time.Time, log *zap.Logger) error {
	_, err := svc.Users.Login(ctx, model.LoginRequest{Email: AdminEmail})
	switch {
	case err == nil:
		log.Info("demo data already present, skipping seed")
		return nil
	case !errors.Is(err, service.ErrUserNotFound):
		return fmt.Errorf("check existing seed: %w", err)
	}

	admin, err := svc.Users.CreateAdmin(ctx, model.User{
		Name:    "Admin User",
		Email:   AdminEmail,
		Village: "Uppalapadu",
		Phone:   "1234567890",
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	users := make(map[string]string, len(participants))
	for _, req := range participants {
		u, err := svc.Users.Register(ctx, req)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", req.Email, err)
		}
		users[u.Email] = u.ID
	}

	for _, dc := range campaigns {
		req := dc.req
		req.Date = now.Add(dc.offset).UTC().Format(time.RFC3339)
		c, err := svc.Campaigns.CreateCampaign(ctx, admin.ID, req)
		if err != nil {
			return fmt.Errorf("seed campaign %q: %w", req.Title, err)
		}
		for _, email := range dc.bookedBy {
			if _, err := svc.Bookings.CreateBooking(ctx, users[email], c.ID); err != nil {
				return fmt.Errorf("seed booking %s/%q: %w", email, req.Title, err)
			}
		}
		if dc.status != model.CampaignUpcoming {
			status := dc.status
			if _, err := svc.Campaigns.UpdateCampaign(ctx, c.ID, model.UpdateCampaignRequest{Status: &status}); err != nil {
				return fmt.Errorf("seed campaign status %q: %w", req.Title, err)
			}
		}
	}

	log.Info("demo data seeded",
		zap.Int("users", len(participants)+1),
		zap.Int("campaigns", len(campaigns)),
	)
	return nil
}
