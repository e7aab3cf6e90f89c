package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/studio-booking/internal/model"
)

// CatalogRepo is the read-only projection of sessions, session types,
// instructors and the waitlist/review aggregates.  It never takes locks and
// is not used by the booking path.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo with the given DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CatalogRow is one upcoming session joined with its type and instructor.
// WaitlistCount and AvgRating are nil when the session has no waitlist
// entries or no reviews; the catalog service decides how to present that.
type CatalogRow struct {
	SessionID           uint64
	Date                time.Time
	StartTime           string // "HH:MM:SS"
	EndTime             string // "HH:MM:SS"
	Location            string
	CurrentParticipants int
	Status              string
	Type                model.SessionType
	InstructorName      string
	WaitlistCount       *int
	AvgRating           *float64
	ReviewCount         int
}

// ListUpcoming returns sessions dated on or after from, ordered by date and
// start time.
func (r *CatalogRepo) ListUpcoming(ctx context.Context, from time.Time) ([]CatalogRow, error) {
	const q = `SELECT s.id, s.session_date, s.start_time, s.end_time, s.location, s.current_participants, s.status,
                      st.id, st.title, COALESCE(st.description, ''), st.duration, st.max_participants, st.price_cents,
                      st.difficulty_level, st.session_type, st.tags, st.image_url,
                      i.name, w.cnt, r.avg_rating, COALESCE(r.cnt, 0)
               FROM sessions s
               JOIN session_types st ON st.id = s.session_type_id
               JOIN instructors i ON i.id = s.instructor_id
               LEFT JOIN (SELECT session_id, COUNT(*) AS cnt FROM waitlist GROUP BY session_id) w ON w.session_id = s.id
               LEFT JOIN (SELECT session_id, AVG(rating) AS avg_rating, COUNT(*) AS cnt FROM reviews GROUP BY session_id) r ON r.session_id = s.id
               WHERE s.session_date >= ?
               ORDER BY s.session_date, s.start_time`
	rows, err := r.db.QueryContext(ctx, q, from.Format(dateLayout))
	if err != nil {
		return nil, classify("list upcoming sessions", err)
	}
	defer rows.Close()
	out := make([]CatalogRow, 0)
	for rows.Next() {
		var row CatalogRow
		var tags []byte
		var image sql.NullString
		var waitlist sql.NullInt64
		var rating sql.NullFloat64
		if err := rows.Scan(
			&row.SessionID, &row.Date, &row.StartTime, &row.EndTime, &row.Location, &row.CurrentParticipants, &row.Status,
			&row.Type.ID, &row.Type.Title, &row.Type.Description, &row.Type.DurationMinutes, &row.Type.MaxParticipants, &row.Type.PriceCents,
			&row.Type.DifficultyLevel, &row.Type.Category, &tags, &image,
			&row.InstructorName, &waitlist, &rating, &row.ReviewCount,
		); err != nil {
			return nil, classify("scan session", err)
		}
		if row.Type.Tags, err = decodeStringList(tags); err != nil {
			return nil, classify("decode tags", err)
		}
		if image.Valid {
			u := image.String
			row.Type.ImageURL = &u
		}
		if waitlist.Valid {
			n := int(waitlist.Int64)
			row.WaitlistCount = &n
		}
		if rating.Valid {
			v := rating.Float64
			row.AvgRating = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list upcoming sessions", err)
	}
	return out, nil
}

// ListActiveInstructors returns active instructors ordered by name.
func (r *CatalogRepo) ListActiveInstructors(ctx context.Context) ([]model.Instructor, error) {
	const q = `SELECT id, name, email, role, COALESCE(bio, ''), specialties, certifications, image_url, active
               FROM instructors
               WHERE active = TRUE
               ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify("list instructors", err)
	}
	defer rows.Close()
	out := make([]model.Instructor, 0)
	for rows.Next() {
		var in model.Instructor
		var specialties, certifications []byte
		var image sql.NullString
		if err := rows.Scan(&in.ID, &in.Name, &in.Email, &in.Role, &in.Bio, &specialties, &certifications, &image, &in.Active); err != nil {
			return nil, classify("scan instructor", err)
		}
		if in.Specialties, err = decodeStringList(specialties); err != nil {
			return nil, classify("decode specialties", err)
		}
		if in.Certifications, err = decodeStringList(certifications); err != nil {
			return nil, classify("decode certifications", err)
		}
		if image.Valid {
			u := image.String
			in.ImageURL = &u
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list instructors", err)
	}
	return out, nil
}

// Ping checks that the database answers.  Used by the readiness probe.
func (r *CatalogRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
