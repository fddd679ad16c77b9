package config

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultExcludes are mirrored neither into snapshots nor onto restore
// targets. Applied when the config file does not set its own list.
var DefaultExcludes = []string{
	"cache",
	"caches",
	"logs",
	"*.log",
	"tmp",
	"node_modules",
}

type Config struct {
	// BackupRoot holds one snapshot repository per site, keyed by label.
	BackupRoot string `json:"backup_root"`
	// Database is the run catalog path. Optional; the --database flag wins.
	Database string `json:"database,omitempty"`
	DBHost   string `json:"db_host,omitempty"`
	DBPort   string `json:"db_port,omitempty"`
	// Excludes replace DefaultExcludes when set.
	Excludes    []string  `json:"excludes,omitempty"`
	MaxDumpSize SizeValue `json:"max_dump_size,omitempty"`
	Sites       []Site    `json:"sites"`
}

// Site is one entry of the site registry. Label is the unique key; the
// snapshot repository for the site lives at <backup_root>/<label>.
type Site struct {
	SourceDir  string `json:"source_dir"`
	Label      string `json:"label"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	Enable     bool   `json:"enable"`
	Schedule   string `json:"cron,omitempty"`
}

func (s Site) MarshalZerologObject(e *zerolog.Event) {
	e.Str("source_dir", s.SourceDir)
	e.Str("label", s.Label)
	e.Str("db_name", s.DBName)
	e.Bool("enable", s.Enable)

	if s.Schedule != "" {
		e.Str("schedule", s.Schedule)
	}
}

// RepoPath returns the site's snapshot repository path under backupRoot.
func (s Site) RepoPath(backupRoot string) string {
	return filepath.Join(backupRoot, s.Label)
}

// DumpArtifact returns the file name of the site's database dump inside the
// repository. The artifact is excluded from version control.
func (s Site) DumpArtifact() string {
	return s.DBName + "_backup.sql"
}

// Site looks a site up by label.
func (c *Config) Site(label string) (Site, error) {
	for _, s := range c.Sites {
		if s.Label == label {
			return s, nil
		}
	}
	return Site{}, UnknownSiteError{Label: label}
}
