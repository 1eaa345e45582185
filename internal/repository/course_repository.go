package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-planner-api/internal/models"
)

const courseColumns = `id, user_id, title, start_time, end_time, day_of_week, materials, week_type, created_at`

// CourseRepository persists recurring courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByUser returns every course of a user ordered by day then start time.
func (r *CourseRepository) ListByUser(ctx context.Context, userID string) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE user_id = $1 ORDER BY day_of_week ASC, start_time ASC, created_at ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByUserAndDay returns a user's courses on one ISO weekday (1=Mon..7=Sun).
func (r *CourseRepository) ListByUserAndDay(ctx context.Context, userID string, day int) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE user_id = $1 AND day_of_week = $2 ORDER BY start_time ASC, created_at ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID, day); err != nil {
		return nil, fmt.Errorf("list courses by day: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course owned by userID. Returns sql.ErrNoRows when absent.
func (r *CourseRepository) FindByID(ctx context.Context, userID, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 AND user_id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course, assigning id and created_at when unset.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	prepareCourse(course)
	if _, err := r.db.NamedExecContext(ctx, insertCourseQuery, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// BulkCreate inserts all courses in one transaction.
func (r *CourseRepository) BulkCreate(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk course tx: %w", err)
	}
	for i := range courses {
		prepareCourse(&courses[i])
		if _, err := tx.NamedExecContext(ctx, insertCourseQuery, courses[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk create course: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk course tx: %w", err)
	}
	return nil
}

// Delete removes a course owned by userID. Returns sql.ErrNoRows when nothing matched.
func (r *CourseRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM courses WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const insertCourseQuery = `INSERT INTO courses (id, user_id, title, start_time, end_time, day_of_week, materials, week_type, created_at)
VALUES (:id, :user_id, :title, :start_time, :end_time, :day_of_week, :materials, :week_type, :created_at)`

func prepareCourse(course *models.Course) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	if course.Materials == nil {
		course.Materials = pq.StringArray{}
	}
}
