package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// StartPostgresContainer starts a throwaway PostgreSQL container and points the TEST_DB_*
// variables at it. The returned func terminates the container.
func StartPostgresContainer(ctx context.Context) (func(context.Context) error, error) {
	// Ryuk needs a privileged sidecar that is unavailable on most CI runners.
	if os.Getenv("TESTCONTAINERS_RYUK_DISABLED") == "" {
		_ = os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     testDBDefaultUser,
				"POSTGRES_PASSWORD": testDBDefaultPassword,
				"POSTGRES_DB":       testDBDefaultName,
			},
			// The server logs readiness twice: once for the init pass and once for real.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container port: %w", err)
	}

	for k, v := range map[string]string{
		"TEST_DB_HOST":     host,
		"TEST_DB_PORT":     port.Port(),
		"TEST_DB_USER":     testDBDefaultUser,
		"TEST_DB_PASSWORD": testDBDefaultPassword,
		"TEST_DB_NAME":     testDBDefaultName,
	} {
		if setErr := os.Setenv(k, v); setErr != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("set %s: %w", k, setErr)
		}
	}

	return func(ctx context.Context) error {
		return container.Terminate(ctx)
	}, nil
}

// RunWithContainer is meant for TestMain. With TEST_DB_CONTAINER=1 it runs the package's tests
// against a fresh container; otherwise it runs them against the configured TEST_DB_* server.
func RunWithContainer(m *testing.M) int {
	if !envBool("TEST_DB_CONTAINER") {
		return m.Run()
	}

	ctx := context.Background()
	stop, err := StartPostgresContainer(ctx)
	if err != nil {
		log.Printf("testutil: %v", err)
		return 1
	}
	code := m.Run()
	if stopErr := stop(ctx); stopErr != nil {
		log.Printf("testutil: terminate container: %v", stopErr)
	}
	return code
}
