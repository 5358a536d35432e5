//go:build integration

package testinfra

import (
	"context"
	"os/exec"
	"testing"
	"time"

	appMigrations "github.com/cantinaverde/cantina/internal/app/migrations"
	"github.com/cantinaverde/cantina/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the server version the schema is tested against
const PostgresImage = "postgres:16-alpine"

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// ContainerLogger adapts testcontainers logging to testing.T.
type ContainerLogger struct {
	t *testing.T
}

// Printf implements testcontainers.Logging.
func (l *ContainerLogger) Printf(format string, v ...interface{}) {
	l.t.Logf(format, v...)
}

// StartPostgres runs a PostgreSQL container, applies every migration and
// returns a pool. The container and pool are released when the test ends.
func StartPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("cantina_verde"),
		postgres.WithUsername("cantina_user"),
		postgres.WithPassword("cantina_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLogger(&ContainerLogger{t: t}),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := appMigrations.NewMigrator(pool).Migrate(ctx, migrations.Files); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return pool
}
