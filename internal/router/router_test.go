package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/booking"
	"github.com/iliyamo/studio-booking/internal/catalog"
	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/repository"
	"github.com/iliyamo/studio-booking/internal/utils"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubCatalog struct{}

func (stubCatalog) ListSessions(context.Context, catalog.Filter) ([]catalog.SessionView, error) {
	return []catalog.SessionView{}, nil
}

func (stubCatalog) ListInstructors(context.Context) ([]catalog.InstructorView, error) {
	return []catalog.InstructorView{}, nil
}

type stubBooker struct{}

func (stubBooker) RequestBooking(context.Context, string, uint64) (booking.Result, error) {
	return booking.Result{Booked: true}, nil
}

type stubBookings struct{}

func (stubBookings) ListByUser(context.Context, string) ([]repository.UserBooking, error) {
	return nil, nil
}

type stubWaitlist struct{}

func (stubWaitlist) ListByUser(context.Context, string) ([]repository.UserWaitlistEntry, error) {
	return nil, nil
}

func TestRoutes(t *testing.T) {
	const secret = "router-secret"
	e := New(Deps{
		Log:       zap.NewNop(),
		JWTSecret: secret,
		RateLimit: config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, KeyStrategy: "user_route", Prefix: "t"},
		Ready:     okPinger{},
		Public:    handler.NewPublicHandler(stubCatalog{}, nil),
		Bookings:  handler.NewBookingHandler(stubBooker{}, stubBookings{}, stubWaitlist{}, nil),
	})
	token, err := utils.SignIdentityToken(secret, "", "user-1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   bool
		want   int
	}{
		{"liveness", http.MethodGet, "/healthz", "", false, http.StatusOK},
		{"readiness", http.MethodGet, "/readyz", "", false, http.StatusOK},
		{"sessions", http.MethodGet, "/v1/sessions", "", false, http.StatusOK},
		{"instructors", http.MethodGet, "/v1/instructors", "", false, http.StatusOK},
		{"booking needs token", http.MethodPost, "/v1/bookings", `{"sessionId":1}`, false, http.StatusUnauthorized},
		{"booking", http.MethodPost, "/v1/bookings", `{"sessionId":1}`, true, http.StatusCreated},
		{"booking rate limited", http.MethodPost, "/v1/bookings", `{"sessionId":1}`, true, http.StatusTooManyRequests},
		{"my bookings", http.MethodGet, "/v1/me/bookings", "", true, http.StatusOK},
		{"my waitlist", http.MethodGet, "/v1/me/waitlist", "", true, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		if tt.auth {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}
