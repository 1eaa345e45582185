package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/models"
)

func TestPreferenceListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "key", "value", "type", "updated_at"}).
		AddRow("u1", models.PrefOverrideWeekEnabled, "true", string(models.PreferenceTypeBoolean), now).
		AddRow("u1", models.PrefOverrideWeekLabel, "B", string(models.PreferenceTypeWeekLabel), now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_preferences WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(rows)

	prefs, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, "B", prefs[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceGetMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND key = $2")).
		WithArgs("u1", models.PrefTitle).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u1", models.PrefTitle)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectExec("INSERT INTO user_preferences .* ON CONFLICT \\(user_id, key\\)").WillReturnResult(sqlmock.NewResult(1, 1))

	pref := &models.Preference{UserID: "u1", Key: models.PrefPrimaryColor, Value: "#000000", Type: models.PreferenceTypeColor}
	require.NoError(t, repo.Upsert(context.Background(), pref))
	assert.False(t, pref.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceBulkUpsertUsesTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_preferences").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_preferences").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	prefs := []models.Preference{
		{UserID: "u1", Key: models.PrefOverrideWeekEnabled, Value: "true", Type: models.PreferenceTypeBoolean},
		{UserID: "u1", Key: models.PrefOverrideWeekLabel, Value: "A", Type: models.PreferenceTypeWeekLabel},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), prefs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceListUserIDsWithValue(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM user_preferences WHERE key = $1 AND value = $2")).
		WithArgs(models.PrefNotificationsEnabled, "true").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2"))

	ids, err := repo.ListUserIDsWithValue(context.Background(), models.PrefNotificationsEnabled, "true")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
