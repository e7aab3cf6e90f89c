package model

// Instructor leads sessions.  Specialties and certifications are stored as
// JSON arrays in the `instructors` table.
type Instructor struct {
	ID             uint64   // instructors.id
	Name           string   // instructors.name
	Email          string   // instructors.email
	Role           string   // instructors.role
	Bio            string   // instructors.bio
	Specialties    []string // instructors.specialties (JSON)
	Certifications []string // instructors.certifications (JSON)
	ImageURL       *string  // instructors.image_url (nullable)
	Active         bool     // instructors.active
}
