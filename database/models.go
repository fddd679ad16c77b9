package database

import (
	"time"

	"github.com/rs/zerolog"
)

// Run is one recorded backup or restore run for a site. Reporting data only:
// the append-only run log stays the authoritative record, and losing catalog
// rows loses nothing but history for the `runs` command.
type Run struct {
	ID        uint   `gorm:"primaryKey"`
	Site      string `gorm:"index"`
	Kind      string // "backup" or "restore"
	StartedAt time.Time
	Seconds   float64
	Steps     int
	Failed    int
	Commit    string // commit involved, when one was
	Error     string
	CreatedAt time.Time
}

func (r Run) MarshalZerologObject(e *zerolog.Event) {
	e.Str("site", r.Site)
	e.Str("kind", r.Kind)
	e.Time("started_at", r.StartedAt)
	e.Int("steps", r.Steps)
	e.Int("failed", r.Failed)

	if r.Commit != "" {
		e.Str("commit", r.Commit)
	}
	if r.Error != "" {
		e.Str("error", r.Error)
	}
}
