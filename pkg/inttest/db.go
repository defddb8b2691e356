package inttest

import (
	"io"
	"log/slog"
	"testing"

	_ "github.com/lib/pq" // postgres driver
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/redisctl/im-redis/pkg/config"
	"github.com/redisctl/im-redis/pkg/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB creates a PostgreSQL container. Gorm is connected to the DB and runs the migrations.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()
	SkipIfShort(t)

	container, err := gnomock.Start(
		postgres.Preset(
			postgres.WithUser("im", "im"),
			postgres.WithDatabase("test_im_redis"),
		),
	)
	require.NoError(t, err, "failed to start DB")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop DB") })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := storage.NewDatabase(logger, config.Postgresql{
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     "im",
		Password:     "im",
		DatabaseName: "test_im_redis",
	})
	require.NoError(t, err, "failed to setup DB")
	return db
}
