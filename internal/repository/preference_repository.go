package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-planner-api/internal/models"
)

// PreferenceRepository persists per-user key/value preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByUser returns every stored preference of a user.
func (r *PreferenceRepository) ListByUser(ctx context.Context, userID string) ([]models.Preference, error) {
	const query = `SELECT user_id, key, value, type, updated_at FROM user_preferences WHERE user_id = $1 ORDER BY key ASC`
	var prefs []models.Preference
	if err := r.db.SelectContext(ctx, &prefs, query, userID); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Get fetches one preference. Returns sql.ErrNoRows when unset.
func (r *PreferenceRepository) Get(ctx context.Context, userID, key string) (*models.Preference, error) {
	const query = `SELECT user_id, key, value, type, updated_at FROM user_preferences WHERE user_id = $1 AND key = $2`
	var pref models.Preference
	if err := r.db.GetContext(ctx, &pref, query, userID, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &pref, nil
}

// Upsert inserts or replaces a preference.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertPreferenceQuery, pref); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// BulkUpsert applies all preferences in one transaction.
func (r *PreferenceRepository) BulkUpsert(ctx context.Context, prefs []models.Preference) error {
	if len(prefs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk preference tx: %w", err)
	}
	now := time.Now().UTC()
	for i := range prefs {
		prefs[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertPreferenceQuery, prefs[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk upsert preference: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk preference tx: %w", err)
	}
	return nil
}

// ListUserIDsWithValue returns users whose key is set to value, e.g. notifications_enabled=true.
func (r *PreferenceRepository) ListUserIDsWithValue(ctx context.Context, key, value string) ([]string, error) {
	const query = `SELECT user_id FROM user_preferences WHERE key = $1 AND value = $2 ORDER BY user_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, key, value); err != nil {
		return nil, fmt.Errorf("list users by preference: %w", err)
	}
	return ids, nil
}

const upsertPreferenceQuery = `INSERT INTO user_preferences (user_id, key, value, type, updated_at)
VALUES (:user_id, :key, :value, :type, :updated_at)
ON CONFLICT (user_id, key)
DO UPDATE SET value = EXCLUDED.value, type = EXCLUDED.type, updated_at = EXCLUDED.updated_at`
