package memory

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcontext/server/internal/store"
)

func setupMemoryTest(t *testing.T) (*Core, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	return New(st), mock, func() { mockDB.Close() }
}

func TestSetMemory_InsertsWhenAbsent(t *testing.T) {
	core, mock, cleanup := setupMemoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM agent_memory").
		WithArgs("agent-1", "pref", sqlmock.AnyArg()).
		WillReturnError(sqlx.ErrNotMapped)
	mock.ExpectExec("INSERT INTO agent_memory").WillReturnResult(sqlmock.NewResult(7, 1))

	sessionID := "abcdefgh"
	ttl := int64(60)
	entry, err := core.SetMemory(context.Background(), "agent-1", "pref", "value", &sessionID, &ttl, true, nil)
	require.Nil(t, err)
	assert.Equal(t, int64(7), entry.ID)
	require.NotNil(t, entry.ExpiresAt)
	assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
}

func TestGetMemory_RejectsExpiredEntry(t *testing.T) {
	core, mock, cleanup := setupMemoryTest(t)
	defer cleanup()

	past := time.Now().UTC().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "agent_id", "session_id", "key", "value", "metadata", "created_at", "updated_at", "expires_at"}).
		AddRow(1, "agent-1", nil, "pref", "value", nil, past.Add(-time.Hour), past.Add(-time.Hour), past)
	mock.ExpectQuery("SELECT \\* FROM agent_memory").WithArgs("agent-1", "pref").WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM agent_memory WHERE id").WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := core.GetMemory(context.Background(), "agent-1", "pref", nil)
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
}

func TestListMemory_RejectsSessionScopeWithoutSessionID(t *testing.T) {
	core, _, cleanup := setupMemoryTest(t)
	defer cleanup()

	_, err := core.ListMemory(context.Background(), "agent-1", nil, ScopeSession, "", 10)
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
}

func TestSweep_DeletesExpiredRows(t *testing.T) {
	core, mock, cleanup := setupMemoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM agent_memory WHERE expires_at").WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := core.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
