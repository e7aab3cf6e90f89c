package model

// SessionType is the reusable template a Session instantiates.  It is
// read-only input for the booking engine.
type SessionType struct {
	ID              uint64   // session_types.id
	Title           string   // session_types.title
	Description     string   // session_types.description
	DurationMinutes int      // session_types.duration
	MaxParticipants int      // session_types.max_participants
	PriceCents      uint32   // session_types.price_cents, snapshotted into bookings
	DifficultyLevel string   // session_types.difficulty_level (beginner, intermediate, advanced)
	Category        string   // session_types.session_type (indoor, outdoor)
	Tags            []string // session_types.tags (JSON)
	ImageURL        *string  // session_types.image_url (nullable)
}

// Session categories.
const (
	CategoryIndoor  = "indoor"
	CategoryOutdoor = "outdoor"
)
