package auth

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

func setupManagerTest(t *testing.T) (*Manager, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)

	kr := testKeyring(t)
	policy := NewPolicy(nil)
	mgr := NewManager(kr, st, policy, time.Hour)

	return mgr, mock, func() { mockDB.Close() }
}

func TestManager_Issue_StoresProtectedToken(t *testing.T) {
	mgr, mock, cleanup := setupManagerTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO protected_tokens").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "agent-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := mgr.Issue(context.Background(), "agent-1", "claude", []Permission{PermRead, PermWrite})
	require.NoError(t, err)
	assert.Contains(t, result.ProtectedToken, "sct_")
	assert.Equal(t, []Permission{PermRead, PermWrite}, result.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Resolve_ReturnsNilForMissingToken(t *testing.T) {
	mgr, mock, cleanup := setupManagerTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT token_id").
		WithArgs("sct_nonexistent").
		WillReturnError(sqlx.ErrNotMapped)

	claims, err := mgr.Resolve(context.Background(), "sct_nonexistent")
	require.NoError(t, err)
	assert.Nil(t, claims)
}

func TestManager_Resolve_ReturnsNilForExpiredRow(t *testing.T) {
	mgr, mock, cleanup := setupManagerTest(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"token_id", "encrypted_payload", "agent_id", "expires_at", "created_at"}).
		AddRow("sct_expired", []byte("irrelevant"), "agent-1", time.Now().UTC().Add(-time.Hour), time.Now().UTC().Add(-2*time.Hour))
	mock.ExpectQuery("SELECT token_id").WithArgs("sct_expired").WillReturnRows(rows)

	claims, err := mgr.Resolve(context.Background(), "sct_expired")
	require.NoError(t, err)
	assert.Nil(t, claims)
}

func TestManager_Sweep_DeletesExpiredRows(t *testing.T) {
	mgr, mock, cleanup := setupManagerTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM protected_tokens WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := mgr.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
