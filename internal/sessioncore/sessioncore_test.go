package sessioncore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcontext/server/internal/audit"
	"github.com/sharedcontext/server/internal/model"
	"github.com/sharedcontext/server/internal/store"
)

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Publish(sessionID, eventType string, data map[string]interface{}) {
	f.events = append(f.events, eventType)
}

func setupCoreTest(t *testing.T) (*Core, sqlmock.Sqlmock, *fakeNotifier, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	notifier := &fakeNotifier{}
	core := New(st, audit.New(st), notifier)

	return core, mock, notifier, func() { mockDB.Close() }
}

func TestVisibilityPredicate(t *testing.T) {
	predicate, args := visibilityPredicate(Identity{AgentID: "agent-a", AgentType: "claude", HasAdmin: false})
	assert.Contains(t, predicate, "visibility = 'public'")
	assert.Contains(t, predicate, "sender = ?")
	assert.NotContains(t, predicate, "admin_only'")
	assert.Equal(t, []interface{}{"agent-a", "claude"}, args)

	adminPredicate, _ := visibilityPredicate(Identity{AgentID: "agent-a", AgentType: "claude", HasAdmin: true})
	assert.Contains(t, adminPredicate, "admin_only")
}

func TestCreateSession_RejectsEmptyPurpose(t *testing.T) {
	core, _, _, cleanup := setupCoreTest(t)
	defer cleanup()

	_, err := core.CreateSession(context.Background(), "", nil, "agent-1")
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
}

func TestCreateSession_InsertsRow(t *testing.T) {
	core, mock, _, cleanup := setupCoreTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "build a widget", sqlmock.AnyArg(), sqlmock.AnyArg(), true, "agent-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session, err := core.CreateSession(context.Background(), "build a widget", nil, "agent-1")
	require.Nil(t, err)
	assert.True(t, len(session.ID) >= 8 && len(session.ID) <= 64)
	assert.True(t, session.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMessage_RejectsAdminOnlyWithoutAdmin(t *testing.T) {
	core, _, _, cleanup := setupCoreTest(t)
	defer cleanup()

	_, err := core.AddMessage(context.Background(), "abcdefgh", "hello", model.VisibilityAdminOnly, "", nil, nil,
		Identity{AgentID: "agent-1", AgentType: "claude", HasAdmin: false})
	require.NotNil(t, err)
	assert.Equal(t, "PERMISSION_DENIED", err.Code)
}

func TestAddMessage_RejectsInactiveSession(t *testing.T) {
	core, mock, _, cleanup := setupCoreTest(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "purpose", "created_at", "updated_at", "is_active", "created_by", "metadata"}).
		AddRow("abcdefgh", "p", time.Now(), time.Now(), false, "agent-1", nil)
	mock.ExpectQuery("SELECT \\* FROM sessions").WithArgs("abcdefgh").WillReturnRows(rows)

	_, err := core.AddMessage(context.Background(), "abcdefgh", "hello", model.VisibilityPublic, "", nil, nil,
		Identity{AgentID: "agent-1", AgentType: "claude"})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
}

func TestAddMessage_PublishesEventOnSuccess(t *testing.T) {
	core, mock, notifier, cleanup := setupCoreTest(t)
	defer cleanup()

	sessionRows := sqlmock.NewRows([]string{"id", "purpose", "created_at", "updated_at", "is_active", "created_by", "metadata"}).
		AddRow("abcdefgh", "p", time.Now(), time.Now(), true, "agent-1", nil)
	mock.ExpectQuery("SELECT \\* FROM sessions").WithArgs("abcdefgh").WillReturnRows(sessionRows)
	mock.ExpectExec("INSERT INTO messages").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("UPDATE sessions SET updated_at").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	msg, err := core.AddMessage(context.Background(), "abcdefgh", "hello world", model.VisibilityPublic, "", nil, nil,
		Identity{AgentID: "agent-1", AgentType: "claude"})
	require.Nil(t, err)
	assert.Equal(t, int64(42), msg.ID)
	assert.Contains(t, notifier.events, "message_added")
}
