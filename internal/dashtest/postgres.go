package dashtest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// IntegrationEnv opts a test run into container-backed tests.
const IntegrationEnv = "DASHBOARD_INTEGRATION"

type PostgresContainer struct {
	Ctx       context.Context
	Container *postgres.PostgresContainer
	URI       string
}

type StdoutLogConsumer struct{}

func (lc *StdoutLogConsumer) Accept(l tc.Log) {
	if l.LogType == "STDERR" {
		if _, err := fmt.Fprintln(os.Stdout, string(l.Content)); err != nil {
			fmt.Println("Error writing to stdout:", err)
		}
	}
}

// SkipUnlessIntegration skips t unless IntegrationEnv is set and the run
// is not -short.
func SkipUnlessIntegration(t testing.TB) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) == "" {
		t.Skipf("skipping integration test; set %s=1 to run", IntegrationEnv)
	}
}

// SetupPostgres starts a throwaway postgres container and snapshots its
// empty state. Restore brings it back between tests.
func SetupPostgres(t testing.TB) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	g := StdoutLogConsumer{}

	pgc, err := postgres.Run(
		ctx,
		"postgres:18.1-alpine",
		postgres.WithDatabase("dashboard"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		tc.WithLogConsumerConfig(&tc.LogConsumerConfig{
			Consumers: []tc.LogConsumer{&g},
		}),
		postgres.BasicWaitStrategies(),
	)
	tc.CleanupContainer(t, pgc)
	require.NoError(t, err)

	dbURL, err := pgc.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return &PostgresContainer{Ctx: ctx, Container: pgc, URI: dbURL}
}
