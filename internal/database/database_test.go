package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	// Check if the 'clubs' table was created
	var clubsTableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='clubs'").Scan(&clubsTableName)
	require.NoError(t, err, "Querying for clubs table should not produce an error")
	assert.Equal(t, "clubs", clubsTableName, "The 'clubs' table should be created")

	// Check if the 'requests' table was created
	var requestsTableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='requests'").Scan(&requestsTableName)
	require.NoError(t, err, "Querying for requests table should not produce an error")
	assert.Equal(t, "requests", requestsTableName, "The 'requests' table should be created")

	var metricsTableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='metrics'").Scan(&metricsTableName)
	require.NoError(t, err)
	assert.Equal(t, "metrics", metricsTableName)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	// Running the migrations a second time against the same connection is a no-op.
	require.NoError(t, migrate(db))
}
