package search

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedcontext/server/internal/sessioncore"
	"github.com/sharedcontext/server/internal/store"
)

func setupSearchTest(t *testing.T) (*Core, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "sqlmock")
	st := store.NewForTesting(db, store.EngineSQLite)
	return New(st), mock, func() { mockDB.Close() }
}

var messageCols = []string{"id", "session_id", "sender", "sender_type", "content", "visibility", "message_type", "metadata", "timestamp", "parent_message_id"}

func TestSearchContext_FiltersByThresholdAndSorts(t *testing.T) {
	core, mock, cleanup := setupSearchTest(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(messageCols).
		AddRow(1, "abcdefgh", "agent-1", "claude", "please deploy the build", "public", "agent_response", nil, now.Add(-time.Minute), nil).
		AddRow(2, "abcdefgh", "agent-1", "claude", "totally unrelated text", "public", "agent_response", nil, now, nil)
	mock.ExpectQuery("SELECT \\* FROM messages").WillReturnRows(rows)

	results, err := core.SearchContext(context.Background(), "abcdefgh", "deploy", 60, 10, ScopeContent,
		sessioncore.Identity{AgentID: "agent-1", AgentType: "claude"})
	require.Nil(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].Message.ID)
}

func TestSearchContext_RejectsEmptyQuery(t *testing.T) {
	core, _, cleanup := setupSearchTest(t)
	defer cleanup()

	_, err := core.SearchContext(context.Background(), "abcdefgh", "", 60, 10, ScopeAll, sessioncore.Identity{})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
}

func TestSearchByTimerange_RejectsInvertedRange(t *testing.T) {
	core, _, cleanup := setupSearchTest(t)
	defer cleanup()

	now := time.Now().UTC()
	_, err := core.SearchByTimerange(context.Background(), "abcdefgh", now, now.Add(-time.Hour), 10, sessioncore.Identity{})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_INPUT", err.Code)
}

func TestSearchBySender_AppliesVisibilityPredicate(t *testing.T) {
	core, mock, cleanup := setupSearchTest(t)
	defer cleanup()

	rows := sqlmock.NewRows(messageCols)
	mock.ExpectQuery("SELECT \\* FROM messages WHERE session_id = \\? AND sender = \\?").
		WillReturnRows(rows)

	results, err := core.SearchBySender(context.Background(), "abcdefgh", "agent-1", 10, sessioncore.Identity{AgentID: "agent-1", AgentType: "claude"})
	require.Nil(t, err)
	assert.Empty(t, results)
}
