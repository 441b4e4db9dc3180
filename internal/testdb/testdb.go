// AngelaMos | 2026
// testdb.go

// Package testdb hands repository tests a real Postgres with the
// application schema applied and every table empty.
package testdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/templates/go-microblog/internal/config"
	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

// URLEnv points tests at an existing database instead of starting a
// container.
const URLEnv = "TEST_DATABASE_URL"

var (
	startOnce sync.Once
	shared    *core.Database
	startErr  error
)

// Open returns the shared database for this test binary. The container is
// started on first use and reaped when the process exits. Tests are
// skipped when neither URLEnv nor a Docker daemon is available.
func Open(t *testing.T) *core.Database {
	t.Helper()

	url := os.Getenv(URLEnv)
	if url == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	startOnce.Do(func() {
		shared, startErr = start(url)
	})
	if startErr != nil {
		t.Fatalf("start test database: %v", startErr)
	}

	ctx := context.Background()
	if _, err := shared.DB.ExecContext(ctx,
		`TRUNCATE posts, users, roles RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("reset test database: %v", err)
	}
	return shared
}

func start(url string) (*core.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if url == "" {
		ctr, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("microblog"),
			postgres.WithUsername("microblog"),
			postgres.WithPassword("microblog"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute),
			),
		)
		if err != nil {
			return nil, err
		}
		if url, err = ctr.ConnectionString(ctx, "sslmode=disable"); err != nil {
			return nil, err
		}
	}

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		return nil, err
	}
	if err := db.ApplySchema(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return db, nil
}
