package audit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcontext/server/internal/store"
)

func TestLogger_Write_InsertsRow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	l := New(st)

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(sqlmock.AnyArg(), "session_created", "agent-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	l.Write(context.Background(), Record{EventType: "session_created", AgentID: "agent-1"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogger_Write_ToleratesStoreFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	l := New(st)

	mock.ExpectExec("INSERT INTO audit_log").WillReturnError(assert.AnError)

	assert.NotPanics(t, func() {
		l.Write(context.Background(), Record{EventType: "session_created", AgentID: "agent-1"})
	})
}

func TestLogger_List_AppliesFilters(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	l := New(st)

	cols := []string{"id", "timestamp", "event_type", "agent_id", "session_id", "resource", "action", "result", "metadata"}
	mock.ExpectQuery("SELECT \\* FROM audit_log WHERE 1=1 AND agent_id = \\? ORDER BY timestamp DESC LIMIT \\?").
		WithArgs("agent-1", 100).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err = l.List(context.Background(), Filter{AgentID: "agent-1"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedact_RedactsSensitiveFieldsRecursively(t *testing.T) {
	input := map[string]interface{}{
		"agent":   "claude",
		"token":   "sct_abc123",
		"profile": map[string]interface{}{"api_key": "xyz", "name": "demo"},
	}
	got := redact(input)

	assert.Equal(t, "claude", got["agent"])
	assert.Equal(t, "[REDACTED]", got["token"])
	nested := got["profile"].(map[string]interface{})
	assert.Equal(t, "[REDACTED]", nested["api_key"])
	assert.Equal(t, "demo", nested["name"])
}
