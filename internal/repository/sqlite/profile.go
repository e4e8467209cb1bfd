package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// GetProfile returns apperror.ErrNotFound until the user has onboarded.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p      model.Profile
		weight sql.NullFloat64
		height sql.NullFloat64
		age    sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, daily_calorie_goal, weight, height, age, gender,
		        activity_level, username, created_at, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.DailyCalorieGoal,
		&weight,
		&height,
		&age,
		&p.Gender,
		&p.ActivityLevel,
		&p.Username,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", userID, err)
	}

	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if height.Valid {
		p.Height = &height.Float64
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	return &p, nil
}

// UpsertProfile creates the profile or replaces every field of the existing
// one. CreatedAt is preserved across updates.
func (db *DB) UpsertProfile(ctx context.Context, p *model.Profile) error {
	ts := now()
	p.UpdatedAt = ts

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (user_id, daily_calorie_goal, weight, height, age, gender,
		                       activity_level, username, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     daily_calorie_goal = excluded.daily_calorie_goal,
		     weight             = excluded.weight,
		     height             = excluded.height,
		     age                = excluded.age,
		     gender             = excluded.gender,
		     activity_level     = excluded.activity_level,
		     username           = excluded.username,
		     updated_at         = excluded.updated_at`,
		p.UserID,
		p.DailyCalorieGoal,
		nullFloat(p.Weight),
		nullFloat(p.Height),
		nullInt(p.Age),
		p.Gender,
		p.ActivityLevel,
		p.Username,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting profile %s: %w", p.UserID, err)
	}

	return db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM profiles WHERE user_id = ?`, p.UserID,
	).Scan(&p.CreatedAt)
}
