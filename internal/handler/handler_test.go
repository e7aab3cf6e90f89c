package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/booking"
	"github.com/iliyamo/studio-booking/internal/catalog"
	"github.com/iliyamo/studio-booking/internal/middleware"
	"github.com/iliyamo/studio-booking/internal/repository"
)

type fakeBooker struct {
	res  booking.Result
	err  error
	user string
	sid  uint64
}

func (f *fakeBooker) RequestBooking(ctx context.Context, userID string, sessionID uint64) (booking.Result, error) {
	f.user, f.sid = userID, sessionID
	return f.res, f.err
}

type fakeBookingLister struct {
	items []repository.UserBooking
	err   error
}

func (f fakeBookingLister) ListByUser(ctx context.Context, userID string) ([]repository.UserBooking, error) {
	return f.items, f.err
}

type fakeWaitlistLister struct {
	items []repository.UserWaitlistEntry
}

func (f fakeWaitlistLister) ListByUser(ctx context.Context, userID string) ([]repository.UserWaitlistEntry, error) {
	return f.items, nil
}

type fakeCatalog struct {
	filter catalog.Filter
	err    error
}

func (f *fakeCatalog) ListSessions(ctx context.Context, flt catalog.Filter) ([]catalog.SessionView, error) {
	f.filter = flt
	return []catalog.SessionView{{ID: 1, Title: "Yoga", Tags: []string{}}}, f.err
}

func (f *fakeCatalog) ListInstructors(ctx context.Context) ([]catalog.InstructorView, error) {
	return []catalog.InstructorView{{ID: 2, Name: "Dana"}}, f.err
}

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newContext(method, target, body, user string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != "" {
		c.Set(middleware.ContextUserID, user)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestBookingHandler_Create(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		body   string
		res    booking.Result
		err    error
		status int
		code   string
	}{
		{"booked", "user-1", `{"sessionId": 5}`, booking.Result{Booked: true}, nil, http.StatusCreated, ""},
		{"waitlisted", "user-1", `{"sessionId": 5}`, booking.Result{Waitlisted: true, Position: 3}, nil, http.StatusCreated, ""},
		{"anonymous", "", `{"sessionId": 5}`, booking.Result{}, nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"bad json", "user-1", `{"sessionId":`, booking.Result{}, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing session", "user-1", `{}`, booking.Result{}, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"not found", "user-1", `{"sessionId": 5}`, booking.Result{}, booking.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"already booked", "user-1", `{"sessionId": 5}`, booking.Result{}, booking.ErrAlreadyBooked, http.StatusBadRequest, "ALREADY_BOOKED"},
		{"already waitlisted", "user-1", `{"sessionId": 5}`, booking.Result{}, booking.ErrAlreadyWaitlisted, http.StatusBadRequest, "ALREADY_WAITLISTED"},
		{"conflict", "user-1", `{"sessionId": 5}`, booking.Result{}, booking.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"integrity", "user-1", `{"sessionId": 5}`, booking.Result{}, booking.ErrIntegrityViolation, http.StatusInternalServerError, "INTERNAL"},
		{"store down", "user-1", `{"sessionId": 5}`, booking.Result{}, errors.New("dial tcp"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeBooker{res: tt.res, err: tt.err}
			h := NewBookingHandler(engine, fakeBookingLister{}, fakeWaitlistLister{}, nil)
			c, rec := newContext(http.MethodPost, "/v1/bookings", tt.body, tt.user)
			if err := h.Create(c); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			body := decode(t, rec)
			if tt.code != "" {
				if body["code"] != tt.code {
					t.Errorf("code = %v, want %s", body["code"], tt.code)
				}
				return
			}
			if body["success"] != true || engine.user != "user-1" || engine.sid != 5 {
				t.Errorf("body = %v, engine saw %q/%d", body, engine.user, engine.sid)
			}
			if tt.res.Waitlisted {
				if body["waitlisted"] != true || body["position"] != float64(3) {
					t.Errorf("body = %v, want waitlisted at 3", body)
				}
			} else if _, ok := body["position"]; ok {
				t.Errorf("position present for a booking: %v", body)
			}
		})
	}
}

func TestBookingHandler_ConflictSetsRetryAfter(t *testing.T) {
	h := NewBookingHandler(&fakeBooker{err: booking.ErrConflict}, fakeBookingLister{}, fakeWaitlistLister{}, nil)
	c, rec := newContext(http.MethodPost, "/v1/bookings", `{"sessionId": 1}`, "user-1")
	_ = h.Create(c)
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
}

func TestBookingHandler_ListMine(t *testing.T) {
	items := []repository.UserBooking{{ID: 1, SessionSummary: repository.SessionSummary{SessionID: 3, Title: "Yoga"}}}
	h := NewBookingHandler(&fakeBooker{}, fakeBookingLister{items: items}, fakeWaitlistLister{}, nil)

	c, rec := newContext(http.MethodGet, "/v1/me/bookings", "", "user-1")
	if err := h.ListMine(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got, _ := decode(t, rec)["items"].([]any)
	if len(got) != 1 {
		t.Errorf("items = %v", got)
	}

	h = NewBookingHandler(&fakeBooker{}, fakeBookingLister{err: errors.New("boom")}, fakeWaitlistLister{}, nil)
	c, rec = newContext(http.MethodGet, "/v1/me/bookings", "", "user-1")
	_ = h.ListMine(c)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestBookingHandler_ListMyWaitlist(t *testing.T) {
	h := NewBookingHandler(&fakeBooker{}, fakeBookingLister{}, fakeWaitlistLister{items: []repository.UserWaitlistEntry{{ID: 9, Position: 2}}}, nil)
	c, rec := newContext(http.MethodGet, "/v1/me/waitlist", "", "user-1")
	if err := h.ListMyWaitlist(c); err != nil {
		t.Fatal(err)
	}
	items, _ := decode(t, rec)["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["position"] != float64(2) {
		t.Errorf("items = %v", items)
	}

	c, rec = newContext(http.MethodGet, "/v1/me/waitlist", "", "")
	_ = h.ListMyWaitlist(c)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestPublicHandler_ListSessions(t *testing.T) {
	cat := &fakeCatalog{}
	h := NewPublicHandler(cat, nil)

	c, rec := newContext(http.MethodGet, "/v1/sessions?type=outdoor&q=run", "", "")
	if err := h.ListSessions(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cat.filter.Type != "outdoor" || cat.filter.Query != "run" {
		t.Errorf("filter = %+v", cat.filter)
	}

	c, rec = newContext(http.MethodGet, "/v1/sessions?type=underwater", "", "")
	_ = h.ListSessions(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type status = %d, want 400", rec.Code)
	}
}

func TestPublicHandler_ListInstructors(t *testing.T) {
	h := NewPublicHandler(&fakeCatalog{err: errors.New("db down")}, nil)
	c, rec := newContext(http.MethodGet, "/v1/instructors", "", "")
	_ = h.ListInstructors(c)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestReady(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/readyz", "", "")
	_ = Ready(pingFunc(func(context.Context) error { return nil }))(c)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	c, rec = newContext(http.MethodGet, "/readyz", "", "")
	_ = Ready(pingFunc(func(context.Context) error { return errors.New("down") }))(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
