package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/sitesnap/sitesnap/database"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	cli, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)
	require.NoError(t, cli.AutoMigrate(&database.Run{}))

	return &database.Database{
		Cli:    cli,
		Logger: zerolog.New(zerolog.NewTestWriter(t)),
	}
}

func TestRecordAndRecentRuns(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.RecordRun(ctx, &database.Run{
		Site: "blog", Kind: "backup", StartedAt: base, Steps: 3, Commit: "aaa1111",
	}))
	require.NoError(t, db.RecordRun(ctx, &database.Run{
		Site: "shop", Kind: "backup", StartedAt: base.Add(time.Minute), Steps: 3, Failed: 1, Error: "dump failed",
	}))
	require.NoError(t, db.RecordRun(ctx, &database.Run{
		Site: "blog", Kind: "restore", StartedAt: base.Add(2 * time.Minute), Steps: 3, Commit: "aaa1111",
	}))

	runs, err := db.RecentRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "restore", runs[0].Kind, "most recent first")

	runs, err = db.RecentRuns(ctx, "blog", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, "blog", run.Site)
	}

	runs, err = db.RecentRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRunDryRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	db.DryRun = true

	require.NoError(t, db.RecordRun(ctx, &database.Run{Site: "blog", Kind: "backup", StartedAt: time.Now()}))

	runs, err := db.RecentRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
