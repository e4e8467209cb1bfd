package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/repository"
)

var _ repository.MealRepository = (*DB)(nil)

const mealColumns = `id, user_id, name, calories, protein, carbs, fat, fiber, meal_type,
	logged_at, image_url, serving_factor, serving_estimated, serving_unit,
	serving_confidence, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*model.Meal, error) {
	var (
		m          model.Meal
		loggedAt   int64
		factor     sql.NullFloat64
		estimated  string
		unit       string
		confidence string
	)
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Calories,
		&m.Protein,
		&m.Carbs,
		&m.Fat,
		&m.Fiber,
		&m.Type,
		&loggedAt,
		&m.ImageURL,
		&factor,
		&estimated,
		&unit,
		&confidence,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.LoggedAt = fromMillis(loggedAt)
	if factor.Valid {
		m.Serving = &model.Serving{
			Factor:     factor.Float64,
			Estimated:  estimated,
			Unit:       unit,
			Confidence: model.Confidence(confidence),
		}
	}
	return &m, nil
}

// servingColumns flattens the optional serving metadata.
func servingColumns(s *model.Serving) (sql.NullFloat64, string, string, string) {
	if s == nil {
		return sql.NullFloat64{}, "", "", ""
	}
	return sql.NullFloat64{Float64: s.Factor, Valid: true}, s.Estimated, s.Unit, string(s.Confidence)
}

// Create inserts meal, assigning its ID and timestamps in place.
func (db *DB) Create(ctx context.Context, meal *model.Meal) error {
	meal.ID = xid.New().String()
	ts := now()
	meal.CreatedAt = ts
	meal.UpdatedAt = ts
	meal.LoggedAt = meal.LoggedAt.UTC().Truncate(time.Millisecond)

	factor, estimated, unit, confidence := servingColumns(meal.Serving)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO meals (`+mealColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID,
		meal.UserID,
		meal.Name,
		meal.Calories,
		meal.Protein,
		meal.Carbs,
		meal.Fat,
		meal.Fiber,
		meal.Type,
		toMillis(meal.LoggedAt),
		meal.ImageURL,
		factor,
		estimated,
		unit,
		confidence,
		meal.CreatedAt,
		meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating meal: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound when no meal has id.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE id = ?`, id)

	m, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}
	return m, nil
}

// List returns the filtered meals ordered by logged_at DESC. Ties are broken
// by id so paging is stable.
func (db *DB) List(ctx context.Context, f repository.MealFilter) ([]model.Meal, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{f.UserID}
	)
	if !f.From.IsZero() {
		where = append(where, "logged_at >= ?")
		args = append(args, toMillis(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "logged_at < ?")
		args = append(args, toMillis(f.To))
	}

	query := `SELECT ` + mealColumns + ` FROM meals WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY logged_at DESC, id DESC`

	// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meal rows: %w", err)
	}
	return meals, nil
}

// Update overwrites every mutable column of meal. The last write wins.
func (db *DB) Update(ctx context.Context, meal *model.Meal) error {
	meal.UpdatedAt = now()
	meal.LoggedAt = meal.LoggedAt.UTC().Truncate(time.Millisecond)
	factor, estimated, unit, confidence := servingColumns(meal.Serving)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE meals
		 SET name = ?, calories = ?, protein = ?, carbs = ?, fat = ?, fiber = ?,
		     meal_type = ?, logged_at = ?, image_url = ?, serving_factor = ?,
		     serving_estimated = ?, serving_unit = ?, serving_confidence = ?,
		     updated_at = ?
		 WHERE id = ?`,
		meal.Name,
		meal.Calories,
		meal.Protein,
		meal.Carbs,
		meal.Fat,
		meal.Fiber,
		meal.Type,
		toMillis(meal.LoggedAt),
		meal.ImageURL,
		factor,
		estimated,
		unit,
		confidence,
		meal.UpdatedAt,
		meal.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}
	return requireRow(result, "meal", meal.ID)
}

// Delete removes a meal. A missing id is apperror.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}
	return requireRow(result, "meal", id)
}

// requireRow turns "0 rows affected" into a NotFound error.
func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
