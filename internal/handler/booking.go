package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/booking"
	"github.com/iliyamo/studio-booking/internal/repository"
)

// Booker is the booking engine as seen by the HTTP layer.
type Booker interface {
	RequestBooking(ctx context.Context, userID string, sessionID uint64) (booking.Result, error)
}

// BookingLister lists a user's bookings.
type BookingLister interface {
	ListByUser(ctx context.Context, userID string) ([]repository.UserBooking, error)
}

// WaitlistLister lists a user's waitlist entries.
type WaitlistLister interface {
	ListByUser(ctx context.Context, userID string) ([]repository.UserWaitlistEntry, error)
}

// BookingHandler serves the authenticated booking routes.  JWTAuth must run
// before every method.
type BookingHandler struct {
	engine   Booker
	bookings BookingLister
	waitlist WaitlistLister
	log      *zap.Logger
	// retryAfter is sent with 409 responses.
	retryAfter int
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(engine Booker, bookings BookingLister, waitlist WaitlistLister, log *zap.Logger) *BookingHandler {
	if engine == nil || bookings == nil || waitlist == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{engine: engine, bookings: bookings, waitlist: waitlist, log: log, retryAfter: 1}
}

type bookingRequest struct {
	SessionID uint64 `json:"sessionId" validate:"required,gt=0"`
}

type bookingResponse struct {
	Success    bool `json:"success"`
	Waitlisted bool `json:"waitlisted"`
	Position   *int `json:"position,omitempty"`
}

// Create handles POST /v1/bookings.  It answers 201 with the booking
// outcome, either a seat or a waitlist position.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", validationMessage(err))
	}

	res, err := h.engine.RequestBooking(c.Request().Context(), userID, req.SessionID)
	if err != nil {
		return h.bookingError(c, err)
	}
	out := bookingResponse{Success: true, Waitlisted: res.Waitlisted}
	if res.Waitlisted {
		pos := res.Position
		out.Position = &pos
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *BookingHandler) bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrUnauthenticated):
		return unauthorized(c)
	case errors.Is(err, booking.ErrSessionNotFound):
		return fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
	case errors.Is(err, booking.ErrAlreadyBooked):
		return fail(c, http.StatusBadRequest, "ALREADY_BOOKED", "you have already booked this session")
	case errors.Is(err, booking.ErrAlreadyWaitlisted):
		return fail(c, http.StatusBadRequest, "ALREADY_WAITLISTED", "you are already on the waitlist for this session")
	case errors.Is(err, booking.ErrConflict):
		c.Response().Header().Set("Retry-After", strconv.Itoa(h.retryAfter))
		return fail(c, http.StatusConflict, "CONFLICT", "the session is busy, please retry")
	case errors.Is(err, booking.ErrIntegrityViolation):
		// Already logged at error level by the engine.
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to create booking")
	default:
		h.log.Error("booking request failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to create booking")
	}
}

// ListMine handles GET /v1/me/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("list bookings failed", zap.String("user_id", userID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to list bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// ListMyWaitlist handles GET /v1/me/waitlist.
func (h *BookingHandler) ListMyWaitlist(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.waitlist.ListByUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("list waitlist failed", zap.String("user_id", userID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to list waitlist")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
