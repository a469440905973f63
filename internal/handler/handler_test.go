package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/assistant"
	"github.com/uppalapadu/watersafe/internal/auth"
	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
	"github.com/uppalapadu/watersafe/internal/service"
)

type fakeAssistant struct {
	answer string
	image  assistant.Image
	err    error
}

func (f *fakeAssistant) AnswerQuestion(_ context.Context, q string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.answer + " (" + q + ")", nil
}

func (f *fakeAssistant) GenerateExampleImage(context.Context) (assistant.Image, error) {
	if f.err != nil {
		return assistant.Image{}, f.err
	}
	return f.image, nil
}

type testServer struct {
	*httptest.Server
	svc        *service.Services
	guide      *fakeAssistant
	admin      model.User
	adminToken string
	user       model.User
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	svc := service.New(repository.NewMemoryStore(), zap.NewNop())
	issuer := auth.NewIssuer("test-secret", time.Hour)
	guide := &fakeAssistant{
		answer: "Boil it",
		image:  assistant.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	srv := httptest.NewServer(NewRouter(New(svc, issuer, guide, zap.NewNop())))
	t.Cleanup(srv.Close)

	admin, err := svc.Users.CreateAdmin(ctx, model.User{Name: "Admin User", Email: "admin@safewater.in"})
	require.NoError(t, err)
	adminToken, err := issuer.Issue(admin)
	require.NoError(t, err)

	user, err := svc.Users.Register(ctx, model.RegisterRequest{Name: "Ravi Kumar", Email: "ravi@example.com"})
	require.NoError(t, err)
	userToken, err := issuer.Issue(user)
	require.NoError(t, err)

	return &testServer{
		Server: srv, svc: svc, guide: guide,
		admin: admin, adminToken: adminToken,
		user: user, userToken: userToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) createCampaign(t *testing.T, title string, capacity int) model.Campaign {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/campaigns", s.adminToken, model.CreateCampaignRequest{
		Title: title, Date: "2026-05-01", Time: "09:00 AM", Location: "Uppalapadu Lake", Capacity: capacity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Campaign](t, resp)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/users", "", model.RegisterRequest{
		Name: "Priya Sharma", Email: "Priya@Example.com", Village: "Lake View Colony",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	priya := decode[model.User](t, resp)
	assert.Equal(t, "priya@example.com", priya.Email)
	assert.Equal(t, model.RoleUser, priya.Role)

	resp = s.do(t, http.MethodPost, "/users", "", model.RegisterRequest{Name: "Priya Two", Email: "priya@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[model.ErrorResponse](t, resp)
	assert.Equal(t, "conflict", errBody.Kind)

	resp = s.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{Email: "PRIYA@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[model.LoginResponse](t, resp)
	assert.Equal(t, priya.ID, login.User.ID)
	require.NotEmpty(t, login.Token)

	resp = s.do(t, http.MethodGet, "/users/"+priya.ID, login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, priya, decode[model.User](t, resp))

	resp = s.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{Email: "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedBodies(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/users", "", `{"name": "X", "email": "x@example.com", "role": "admin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")

	resp = s.do(t, http.MethodPost, "/bookings", s.userToken, `{"userId":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", decode[model.ErrorResponse](t, resp).Kind)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)
	create := model.CreateCampaignRequest{Title: "Well", Date: "2026-05-01", Time: "10:30 AM", Location: "Well", Capacity: 5}

	resp := s.do(t, http.MethodPost, "/campaigns", "", create)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/campaigns", s.userToken, create)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode[model.ErrorResponse](t, resp).Kind)

	resp = s.do(t, http.MethodGet, "/admin/stats", s.userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/users/"+s.user.ID+"/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/users/"+s.user.ID+"/bookings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Listing campaigns is public.
	resp = s.do(t, http.MethodGet, "/campaigns", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicRoutesIgnoreStaleTokens(t *testing.T) {
	s := newTestServer(t)
	c := s.createCampaign(t, "Lakefront Testing", 5)

	stale, err := auth.NewIssuer("rotated-secret", time.Hour).Issue(s.user)
	require.NoError(t, err)

	for _, token := range []string{stale, "not-a-jwt"} {
		resp := s.do(t, http.MethodGet, "/campaigns", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = s.do(t, http.MethodGet, "/campaigns/"+c.ID, token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = s.do(t, http.MethodPost, "/auth/login", token, model.LoginRequest{Email: s.user.Email})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, decode[model.LoginResponse](t, resp).Token)

		resp = s.do(t, http.MethodPost, "/bookings", token, model.CreateBookingRequest{UserID: s.user.ID, CampaignID: c.ID})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestCampaignLifecycle(t *testing.T) {
	s := newTestServer(t)

	c := s.createCampaign(t, "Lakefront Water Quality Check", 2)
	assert.Equal(t, 0, c.BookedSlots)
	assert.Equal(t, model.CampaignUpcoming, c.Status)
	assert.Equal(t, s.admin.ID, c.CreatedBy)

	resp := s.do(t, http.MethodPost, "/campaigns", s.adminToken, model.CreateCampaignRequest{
		Title: "No slots", Date: "2026-05-01", Time: "09:00", Location: "Nowhere", Capacity: 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/bookings", s.userToken, model.CreateBookingRequest{UserID: s.user.ID, CampaignID: c.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	zero := 0
	resp = s.do(t, http.MethodPatch, "/campaigns/"+c.ID, s.adminToken, model.UpdateCampaignRequest{Capacity: &zero})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	completed := model.CampaignCompleted
	resp = s.do(t, http.MethodPatch, "/campaigns/"+c.ID, s.adminToken, model.UpdateCampaignRequest{Status: &completed})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.CampaignCompleted, decode[model.Campaign](t, resp).Status)

	resp = s.do(t, http.MethodGet, "/campaigns?active=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.Campaign](t, resp))

	resp = s.do(t, http.MethodGet, "/campaigns?active=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/campaigns/"+c.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[model.CampaignDetail](t, resp)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, s.user.ID, detail.Participants[0].ID)

	resp = s.do(t, http.MethodGet, "/admin/stats", s.adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Stats{TotalCampaigns: 1, TotalParticipants: 1, ConfirmedBookings: 1}, decode[model.Stats](t, resp))

	resp = s.do(t, http.MethodDelete, "/campaigns/"+c.ID, s.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/campaigns/"+c.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/users/"+s.user.ID+"/bookings", s.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.UserBooking](t, resp))
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	c := s.createCampaign(t, "Single slot", 1)

	other, err := s.svc.Users.Register(context.Background(), model.RegisterRequest{Name: "Anil Reddy", Email: "anil@example.com"})
	require.NoError(t, err)

	book := func(userID, campaignID string) *http.Response {
		return s.do(t, http.MethodPost, "/bookings", s.userToken, model.CreateBookingRequest{UserID: userID, CampaignID: campaignID})
	}

	resp := book(s.user.ID, c.ID)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decode[model.Booking](t, resp)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.Equal(t, fmt.Sprintf("UWSI-%s-%s", s.user.ID, c.ID), booking.ConfirmationCode)

	resp = book(s.user.ID, c.ID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = book(other.ID, c.ID)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, service.ErrCampaignFull.Message, decode[model.ErrorResponse](t, resp).Error)

	resp = book(s.user.ID, "missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/users/"+other.ID+"/campaigns", s.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	avail := decode[[]model.CampaignAvailability](t, resp)
	require.Len(t, avail, 1)
	assert.Equal(t, model.StateFull, avail[0].BookingState)

	resp = s.do(t, http.MethodDelete, "/bookings/"+booking.ID, s.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.BookingCancelled, decode[model.Booking](t, resp).Status)

	resp = s.do(t, http.MethodDelete, "/bookings/"+booking.ID, s.userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "cancel is idempotent")

	resp = s.do(t, http.MethodDelete, "/bookings/never-existed", s.userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = book(other.ID, c.ID)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/users/"+s.user.ID+"/bookings", s.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]model.UserBooking](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, model.BookingCancelled, history[0].Booking.Status)
	assert.Equal(t, c.ID, history[0].Campaign.ID)
}

func TestAssistantEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/assistant/questions", s.userToken, model.QuestionRequest{Question: "Is it safe?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Boil it (Is it safe?)", decode[model.AnswerResponse](t, resp).Answer)

	resp = s.do(t, http.MethodPost, "/assistant/questions", s.userToken, model.QuestionRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/assistant/example-image", s.userToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, s.guide.image.Data, body)

	s.guide.err = fmt.Errorf("%w: quota", assistant.ErrUnavailable)
	resp = s.do(t, http.MethodPost, "/assistant/questions", s.userToken, model.QuestionRequest{Question: "Again?"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "service_unavailable", decode[model.ErrorResponse](t, resp).Kind)

	resp = s.do(t, http.MethodGet, "/assistant/example-image", s.userToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodOptions, "/bookings", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
