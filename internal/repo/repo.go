package repo

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilMago8/smart-habit-tracker/internal/models"
	"github.com/ilMago8/smart-habit-tracker/internal/stats"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrNoFields   = errors.New("no fields to update")
)

const uniqueViolation = "23505"

type Repo struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = `id, name, email, password_hash, bio, goals, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.Goals, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) CreateUser(ctx context.Context, name, email, passwordHash, bio, goals string) (models.User, error) {
	user, err := scanUser(r.Pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, bio, goals) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns, name, email, passwordHash, bio, goals))
	if isUniqueViolation(err) {
		return models.User{}, ErrEmailTaken
	}
	return user, err
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *Repo) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	return scanUser(r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
}

func (r *Repo) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists)
	return exists, err
}

// UpdateProfile patches the mutable profile fields. Email and password are
// not reachable through this path. Nil pointers leave a field untouched.
func (r *Repo) UpdateProfile(ctx context.Context, userID int64, name, bio, goals *string) (models.User, error) {
	builder := sq.Update("users").
		Where(sq.Eq{"id": userID}).
		PlaceholderFormat(sq.Dollar).
		Suffix("RETURNING " + userColumns)

	changed := false
	if name != nil {
		builder = builder.Set("name", *name)
		changed = true
	}
	if bio != nil {
		builder = builder.Set("bio", *bio)
		changed = true
	}
	if goals != nil {
		builder = builder.Set("goals", *goals)
		changed = true
	}
	if !changed {
		return r.GetUserByID(ctx, userID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return models.User{}, err
	}
	return scanUser(r.Pool.QueryRow(ctx, query, args...))
}

const habitColumns = `id, user_id, name, description, color, icon, target_frequency, is_active, created_at`

func scanHabit(row pgx.Row) (models.Habit, error) {
	var h models.Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Color, &h.Icon, &h.TargetFrequency, &h.IsActive, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Habit{}, ErrNotFound
	}
	return h, err
}

func (r *Repo) CreateHabit(ctx context.Context, userID int64, name, description, color, icon string, targetFrequency int) (models.Habit, error) {
	return scanHabit(r.Pool.QueryRow(ctx,
		`INSERT INTO habits (user_id, name, description, color, icon, target_frequency)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+habitColumns, userID, name, description, color, icon, targetFrequency))
}

func (r *Repo) GetHabit(ctx context.Context, habitID, userID int64) (models.Habit, error) {
	return scanHabit(r.Pool.QueryRow(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id=$1 AND user_id=$2`, habitID, userID))
}

// HabitOwned reports whether the habit exists and belongs to the user. Every
// habit mutation checks ownership before touching any row.
func (r *Repo) HabitOwned(ctx context.Context, habitID, userID int64) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM habits WHERE id=$1 AND user_id=$2)`, habitID, userID).Scan(&exists)
	return exists, err
}

// UpdateHabit applies a partial field patch, ownership-scoped.
func (r *Repo) UpdateHabit(ctx context.Context, habitID, userID int64, fields map[string]any) (models.Habit, error) {
	if len(fields) == 0 {
		return models.Habit{}, ErrNoFields
	}
	query, args, err := sq.Update("habits").
		SetMap(fields).
		Where(sq.Eq{"id": habitID, "user_id": userID}).
		PlaceholderFormat(sq.Dollar).
		Suffix("RETURNING " + habitColumns).
		ToSql()
	if err != nil {
		return models.Habit{}, err
	}
	return scanHabit(r.Pool.QueryRow(ctx, query, args...))
}

func (r *Repo) DeleteHabit(ctx context.Context, habitID, userID int64) error {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM habits WHERE id=$1 AND user_id=$2`, habitID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllHabits removes every habit owned by the user; checks go with them
// via the cascade.
func (r *Repo) DeleteAllHabits(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM habits WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ToggleCheck creates or flips the completion record for (habitID, date) in a
// single statement. The unique constraint on (habit_id, check_date) makes the
// upsert atomic: concurrent toggles serialize instead of inserting twice.
func (r *Repo) ToggleCheck(ctx context.Context, habitID int64, date time.Time) (bool, error) {
	var completed bool
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO habit_checks (habit_id, check_date, completed) VALUES ($1, $2, TRUE)
		 ON CONFLICT (habit_id, check_date)
		 DO UPDATE SET completed = NOT habit_checks.completed
		 RETURNING completed`, habitID, date).Scan(&completed)
	return completed, err
}

// ListHabitOverviews returns the user's active habits with lifetime counts,
// counts inside [weekStart, weekEnd], and today's completion state.
func (r *Repo) ListHabitOverviews(ctx context.Context, userID int64, weekStart, weekEnd, today time.Time) ([]models.HabitOverview, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT h.id, h.user_id, h.name, h.description, h.color, h.icon, h.target_frequency, h.is_active, h.created_at,
			COUNT(hc.id) FILTER (WHERE hc.completed) AS total_checks,
			COUNT(hc.id) FILTER (WHERE hc.completed AND hc.check_date BETWEEN $2 AND $3) AS week_checks,
			COALESCE(BOOL_OR(hc.completed AND hc.check_date = $4), FALSE) AS today_completed
		FROM habits h
		LEFT JOIN habit_checks hc ON hc.habit_id = h.id
		WHERE h.user_id = $1 AND h.is_active
		GROUP BY h.id
		ORDER BY h.created_at DESC`, userID, weekStart, weekEnd, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overviews := []models.HabitOverview{}
	for rows.Next() {
		var o models.HabitOverview
		var total, week int64
		if err := rows.Scan(&o.ID, &o.UserID, &o.Name, &o.Description, &o.Color, &o.Icon,
			&o.TargetFrequency, &o.IsActive, &o.CreatedAt, &total, &week, &o.TodayCompleted); err != nil {
			return nil, err
		}
		o.TotalChecks = int(total)
		o.WeekChecks = int(week)
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}

// WeeklyProgress returns the user's active habits in creation order with the
// count of completed checks inside [weekStart, weekEnd].
func (r *Repo) WeeklyProgress(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]stats.Progress, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT h.id, h.user_id, h.name, h.description, h.color, h.icon, h.target_frequency, h.is_active, h.created_at,
			COUNT(hc.id) FILTER (WHERE hc.completed AND hc.check_date BETWEEN $2 AND $3) AS completed_days
		FROM habits h
		LEFT JOIN habit_checks hc ON hc.habit_id = h.id
		WHERE h.user_id = $1 AND h.is_active
		GROUP BY h.id
		ORDER BY h.created_at ASC`, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := []stats.Progress{}
	for rows.Next() {
		var p stats.Progress
		var days int64
		if err := rows.Scan(&p.Habit.ID, &p.Habit.UserID, &p.Habit.Name, &p.Habit.Description,
			&p.Habit.Color, &p.Habit.Icon, &p.Habit.TargetFrequency, &p.Habit.IsActive,
			&p.Habit.CreatedAt, &days); err != nil {
			return nil, err
		}
		p.CompletedDays = int(days)
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// ResetProgress deletes every check transitively owned by the user and
// reports how many were removed.
func (r *Repo) ResetProgress(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.Pool.Exec(ctx, `
		DELETE FROM habit_checks
		WHERE habit_id IN (SELECT id FROM habits WHERE user_id=$1)`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// CountChecks is a test/diagnostic helper: rows for one (habit, date).
func (r *Repo) CountChecks(ctx context.Context, habitID int64, date time.Time) (int, error) {
	var n int
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM habit_checks WHERE habit_id=$1 AND check_date=$2`, habitID, date).Scan(&n)
	return n, err
}
