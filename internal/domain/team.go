package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team is a canonical entity with a display name and a short name.
type Team struct {
	ID        uuid.UUID
	Sport     string
	Name      string
	ShortName string
	CreatedAt time.Time
}

// TeamAlias maps a scraped string, as seen on a particular source, to a
// canonical Team. Seeded aliases may hold the raw string; the resolver's
// write-backs hold the normalized form. The entity resolver
// (internal/resolver) consults this table, by raw and then by normalized
// text, before falling back to similarity scoring.
type TeamAlias struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	Alias      string
	SourceName string
	CreatedAt  time.Time
}

// Sport is static taxonomy, read-only for the scraper except for initial
// seeding performed by sync-fixtures the first time a sport is enabled.
type Sport struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// Competition is static taxonomy scoped to a Sport.
type Competition struct {
	ID      uuid.UUID
	SportID uuid.UUID
	Name    string
	Slug    string
}
