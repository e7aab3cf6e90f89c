// Package catalog assembles the public listing of upcoming sessions and
// instructors.  It only reads and never shares a transaction with the
// booking path.
package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/repository"
)

// Reader is the read side of the store used by Service.
type Reader interface {
	ListUpcoming(ctx context.Context, from time.Time) ([]repository.CatalogRow, error)
	ListActiveInstructors(ctx context.Context) ([]model.Instructor, error)
}

// Filter narrows ListSessions.  Empty fields match everything.
type Filter struct {
	Type       string `query:"type" validate:"omitempty,oneof=indoor outdoor"`
	Difficulty string `query:"difficulty" validate:"omitempty,max=50"`
	Query      string `query:"q" validate:"omitempty,max=100"`
}

// SessionView is one session shaped for display.
type SessionView struct {
	ID                  uint64   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Instructor          string   `json:"instructor"`
	Type                string   `json:"type"`
	Duration            int      `json:"duration"`
	MaxParticipants     int      `json:"maxParticipants"`
	CurrentParticipants int      `json:"currentParticipants"`
	SpotsLeft           int      `json:"spotsLeft"`
	Waitlist            int      `json:"waitlist"`
	Difficulty          string   `json:"difficulty"`
	Time                string   `json:"time"`
	Date                string   `json:"date"`
	Location            string   `json:"location"`
	Price               float64  `json:"price"`
	Rating              float64  `json:"rating"`
	Reviews             int      `json:"reviews"`
	Image               *string  `json:"image"`
	Tags                []string `json:"tags"`
}

// InstructorView is an active instructor shaped for display.
type InstructorView struct {
	ID             uint64   `json:"id"`
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Bio            string   `json:"bio"`
	Specialties    []string `json:"specialties"`
	Certifications []string `json:"certifications"`
	Image          *string  `json:"image"`
}

// Service builds catalog views.
type Service struct {
	reader Reader
	now    func() time.Time
}

// NewService returns a Service reading from r.
func NewService(r Reader) *Service {
	return &Service{reader: r, now: time.Now}
}

// ListSessions returns sessions dated today or later that match f.
// Sessions without waitlist entries or reviews report 0 for those fields.
func (s *Service) ListSessions(ctx context.Context, f Filter) ([]SessionView, error) {
	rows, err := s.reader.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]SessionView, 0, len(rows))
	for _, r := range rows {
		if !f.matches(r) {
			continue
		}
		out = append(out, sessionView(r))
	}
	return out, nil
}

// ListInstructors returns active instructors.
func (s *Service) ListInstructors(ctx context.Context) ([]InstructorView, error) {
	list, err := s.reader.ListActiveInstructors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]InstructorView, 0, len(list))
	for _, in := range list {
		out = append(out, InstructorView{
			ID:             in.ID,
			Name:           in.Name,
			Role:           in.Role,
			Bio:            in.Bio,
			Specialties:    nonNil(in.Specialties),
			Certifications: nonNil(in.Certifications),
			Image:          in.ImageURL,
		})
	}
	return out, nil
}

func sessionView(r repository.CatalogRow) SessionView {
	v := SessionView{
		ID:                  r.SessionID,
		Title:               r.Type.Title,
		Description:         r.Type.Description,
		Instructor:          r.InstructorName,
		Type:                r.Type.Category,
		Duration:            r.Type.DurationMinutes,
		MaxParticipants:     r.Type.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		SpotsLeft:           max(r.Type.MaxParticipants-r.CurrentParticipants, 0),
		Difficulty:          r.Type.DifficultyLevel,
		Time:                hhmm(r.StartTime) + " - " + hhmm(r.EndTime),
		Date:                r.Date.Format("2006-01-02"),
		Location:            r.Location,
		Price:               float64(r.Type.PriceCents) / 100,
		Reviews:             r.ReviewCount,
		Image:               r.Type.ImageURL,
		Tags:                nonNil(r.Type.Tags),
	}
	if r.WaitlistCount != nil {
		v.Waitlist = *r.WaitlistCount
	}
	if r.AvgRating != nil {
		v.Rating = math.Round(*r.AvgRating*100) / 100
	}
	return v
}

func (f Filter) matches(r repository.CatalogRow) bool {
	if f.Type != "" && !strings.EqualFold(f.Type, r.Type.Category) {
		return false
	}
	if f.Difficulty != "" && !strings.EqualFold(f.Difficulty, r.Type.DifficultyLevel) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Type.Title), q) || strings.Contains(strings.ToLower(r.InstructorName), q) {
		return true
	}
	for _, tag := range r.Type.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func hhmm(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
