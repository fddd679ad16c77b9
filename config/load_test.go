package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesnap/sitesnap/config"
)

var goodConfig = `
{
	"backup_root": "/var/backups/sites",
	"max_dump_size": "512MB",
	"sites": [
		{
			"source_dir": "/srv/www/alpha",
			"label": "alpha",
			"db_name": "alpha_db",
			"db_user": "alpha_user",
			"db_password": "secret",
			"enable": true,
			"cron": "0 3 * * *"
		},
		{
			"source_dir": "/srv/www/beta",
			"label": "beta",
			"db_name": "beta_db",
			"db_user": "beta_user",
			"db_password": "secret",
			"enable": false
		}
	]
}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := config.LoadFromFile(writeConfig(t, goodConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/backups/sites", cfg.BackupRoot)
	assert.Len(t, cfg.Sites, 2)
	assert.Equal(t, int64(512000000), cfg.MaxDumpSize.Size)
	assert.Equal(t, config.DefaultExcludes, cfg.Excludes, "defaults applied when excludes unset")
	assert.Equal(t, "127.0.0.1", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadFromFileRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid json",
			content: `{"backup_root": `,
		},
		{
			name:    "missing backup root",
			content: `{"sites": []}`,
		},
		{
			name: "empty label",
			content: `{"backup_root": "/b", "sites": [
				{"source_dir": "/s", "label": "", "db_name": "d", "db_user": "u"}]}`,
		},
		{
			name: "empty source dir",
			content: `{"backup_root": "/b", "sites": [
				{"source_dir": "", "label": "a", "db_name": "d", "db_user": "u"}]}`,
		},
		{
			name: "missing database user",
			content: `{"backup_root": "/b", "sites": [
				{"source_dir": "/s", "label": "a", "db_name": "d", "db_user": ""}]}`,
		},
		{
			name: "duplicate label",
			content: `{"backup_root": "/b", "sites": [
				{"source_dir": "/s1", "label": "a", "db_name": "d1", "db_user": "u"},
				{"source_dir": "/s2", "label": "a", "db_name": "d2", "db_user": "u"}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFromFile(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestSiteLookup(t *testing.T) {
	cfg, err := config.LoadFromFile(writeConfig(t, goodConfig))
	require.NoError(t, err)

	site, err := cfg.Site("alpha")
	require.NoError(t, err)
	assert.Equal(t, "/srv/www/alpha", site.SourceDir)

	_, err = cfg.Site("nope")
	require.Error(t, err)
	var unknown config.UnknownSiteError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Label)
}

func TestSitePaths(t *testing.T) {
	site := config.Site{Label: "alpha", DBName: "alpha_db"}

	assert.Equal(t, "/var/backups/alpha", site.RepoPath("/var/backups"))
	assert.Equal(t, "alpha_db_backup.sql", site.DumpArtifact())
}
