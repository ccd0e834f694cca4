package postgres_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/testhelper"
)

func TestPoolCollector(t *testing.T) {
	pool := testhelper.SetupTestDB(t)

	c := postgres.NewPoolCollector(pool)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 7, testutil.CollectAndCount(c))

	expected := `
# HELP oldmanfooty_db_pool_max_conns Configured pool size.
# TYPE oldmanfooty_db_pool_max_conns gauge
oldmanfooty_db_pool_max_conns 8
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "oldmanfooty_db_pool_max_conns"))
}
