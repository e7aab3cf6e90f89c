package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/catalog"
)

// Catalog is the read model served by the public routes.
type Catalog interface {
	ListSessions(ctx context.Context, f catalog.Filter) ([]catalog.SessionView, error)
	ListInstructors(ctx context.Context) ([]catalog.InstructorView, error)
}

// PublicHandler serves the unauthenticated listing routes.
type PublicHandler struct {
	catalog Catalog
	log     *zap.Logger
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(cat Catalog, log *zap.Logger) *PublicHandler {
	if cat == nil {
		panic("nil catalog passed to NewPublicHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PublicHandler{catalog: cat, log: log}
}

// ListSessions handles GET /v1/sessions?type=&difficulty=&q=.
func (h *PublicHandler) ListSessions(c echo.Context) error {
	var f catalog.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid query parameters")
	}
	if err := c.Validate(&f); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", validationMessage(err))
	}
	list, err := h.catalog.ListSessions(c.Request().Context(), f)
	if err != nil {
		h.log.Error("list sessions failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to list sessions")
	}
	return c.JSON(http.StatusOK, list)
}

// ListInstructors handles GET /v1/instructors.
func (h *PublicHandler) ListInstructors(c echo.Context) error {
	list, err := h.catalog.ListInstructors(c.Request().Context())
	if err != nil {
		h.log.Error("list instructors failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL", "failed to list instructors")
	}
	return c.JSON(http.StatusOK, list)
}
