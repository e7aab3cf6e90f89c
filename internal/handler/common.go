// Package handler exposes the HTTP API of the booking service.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-booking/internal/middleware"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator using struct tags named "validate".
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorBody{Error: msg, Code: code})
}

// validationMessage turns validator errors into a short message naming
// the first offending field.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return "invalid " + ve[0].Field()
	}
	return "invalid request"
}

// getUserID returns the verified user id set by middleware.JWTAuth.
func getUserID(c echo.Context) (string, error) {
	uid := middleware.UserID(c)
	if uid == "" {
		return "", errors.New("no user_id in context")
	}
	return uid, nil
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "UNAUTHENTICATED", "unauthorized")
}
