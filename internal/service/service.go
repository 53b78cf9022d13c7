// Package service orchestrates registration, login, profile and habit
// operations between the HTTP layer and the repository. All input validation
// lives here so handlers stay thin and storage is never reached with bad
// input.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/ilMago8/smart-habit-tracker/internal/auth"
	"github.com/ilMago8/smart-habit-tracker/internal/models"
	"github.com/ilMago8/smart-habit-tracker/internal/repo"
	"github.com/ilMago8/smart-habit-tracker/internal/stats"
)

var (
	ErrUnknownEmail  = errors.New("no account found with this email")
	ErrWrongPassword = errors.New("incorrect password")
)

// Defaults applied when habit creation omits optional fields.
const (
	DefaultColor     = "#007bff"
	DefaultIcon      = "📋"
	DefaultFrequency = 7
)

// ValidationError marks caller-fault input problems; handlers map it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(msg string) error { return &ValidationError{msg: msg} }

type Service struct {
	Repo *repo.Repo
	Auth *auth.Manager
	Now  func() time.Time
}

func New(r *repo.Repo, authManager *auth.Manager) *Service {
	return &Service{Repo: r, Auth: authManager, Now: time.Now}
}

// RegisterInput carries the validated-at-the-boundary registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Bio      string
	Goals    string
}

func ValidateRegistration(in RegisterInput) error {
	var problems []string
	if len(strings.TrimSpace(in.Name)) < 2 {
		problems = append(problems, "Name must be at least 2 characters long")
	}
	if !validEmail(strings.TrimSpace(in.Email)) {
		problems = append(problems, "Please enter a valid email address")
	}
	if len(in.Password) < 6 {
		problems = append(problems, "Password must be at least 6 characters long")
	}
	if len(problems) > 0 {
		return invalid(strings.Join(problems, ". "))
	}
	return nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	// Reject the "Name <addr>" form: the field must be a bare address.
	return err == nil && addr.Address == email
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if err := ValidateRegistration(in); err != nil {
		return models.User{}, err
	}
	hash, err := s.Auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	return s.Repo.CreateUser(ctx,
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Email),
		hash,
		strings.TrimSpace(in.Bio),
		strings.TrimSpace(in.Goals),
	)
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, "", invalid("Email and password are required")
	}
	if !validEmail(email) {
		return models.User{}, "", invalid("Please enter a valid email address")
	}
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.User{}, "", ErrUnknownEmail
		}
		return models.User{}, "", err
	}
	if err := s.Auth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.User{}, "", ErrWrongPassword
	}
	token, err := s.Auth.GenerateToken(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (models.User, error) {
	return s.Repo.GetUserByID(ctx, userID)
}

// UpdateProfile patches name/bio/goals. A provided name must still pass the
// registration length rule; nil pointers leave fields untouched.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, bio, goals *string) (models.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else if len(trimmed) < 2 {
			return models.User{}, invalid("Name must contain at least 2 characters")
		} else {
			name = &trimmed
		}
	}
	exists, err := s.Repo.UserExists(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if !exists {
		return models.User{}, repo.ErrNotFound
	}
	return s.Repo.UpdateProfile(ctx, userID, name, bio, goals)
}

// HabitInput carries habit creation fields; nil optionals take defaults.
type HabitInput struct {
	Name            string
	Description     *string
	Color           *string
	Icon            *string
	TargetFrequency *int
}

func (s *Service) CreateHabit(ctx context.Context, userID int64, in HabitInput) (models.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Habit{}, invalid("Habit name is required")
	}
	frequency := DefaultFrequency
	if in.TargetFrequency != nil {
		frequency = *in.TargetFrequency
	}
	if err := validateFrequency(frequency); err != nil {
		return models.Habit{}, err
	}
	exists, err := s.Repo.UserExists(ctx, userID)
	if err != nil {
		return models.Habit{}, err
	}
	if !exists {
		return models.Habit{}, repo.ErrNotFound
	}
	description := ""
	if in.Description != nil {
		description = *in.Description
	}
	color := DefaultColor
	if in.Color != nil && *in.Color != "" {
		color = *in.Color
	}
	icon := DefaultIcon
	if in.Icon != nil && *in.Icon != "" {
		icon = *in.Icon
	}
	return s.Repo.CreateHabit(ctx, userID, name, description, color, icon, frequency)
}

// validateFrequency guards the percentage denominator: a zero or out-of-range
// target must never reach the stats math.
func validateFrequency(frequency int) error {
	if frequency < 1 || frequency > 7 {
		return invalid("target_frequency must be between 1 and 7")
	}
	return nil
}

// HabitPatch carries the partial update fields for a habit.
type HabitPatch struct {
	Name            *string
	Description     *string
	Color           *string
	Icon            *string
	TargetFrequency *int
}

// UpdateHabit applies a partial patch. An empty patch is a no-op, not an
// error: the current row is returned unchanged.
func (s *Service) UpdateHabit(ctx context.Context, userID, habitID int64, patch HabitPatch) (models.Habit, bool, error) {
	owned, err := s.Repo.HabitOwned(ctx, habitID, userID)
	if err != nil {
		return models.Habit{}, false, err
	}
	if !owned {
		return models.Habit{}, false, repo.ErrNotFound
	}

	fields := map[string]any{}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return models.Habit{}, false, invalid("Habit name cannot be empty")
		}
		fields["name"] = trimmed
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Color != nil && *patch.Color != "" {
		fields["color"] = *patch.Color
	}
	if patch.Icon != nil && *patch.Icon != "" {
		fields["icon"] = *patch.Icon
	}
	if patch.TargetFrequency != nil {
		if err := validateFrequency(*patch.TargetFrequency); err != nil {
			return models.Habit{}, false, err
		}
		fields["target_frequency"] = *patch.TargetFrequency
	}

	// Nothing recognized in the patch: report the current row unchanged.
	if len(fields) == 0 {
		current, err := s.Repo.GetHabit(ctx, habitID, userID)
		return current, false, err
	}

	habit, err := s.Repo.UpdateHabit(ctx, habitID, userID, fields)
	if err != nil {
		return models.Habit{}, false, err
	}
	return habit, true, nil
}

func (s *Service) DeleteHabit(ctx context.Context, userID, habitID int64) error {
	owned, err := s.Repo.HabitOwned(ctx, habitID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return repo.ErrNotFound
	}
	return s.Repo.DeleteHabit(ctx, habitID, userID)
}

func (s *Service) DeleteAllHabits(ctx context.Context, userID int64) (int64, error) {
	exists, err := s.Repo.UserExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repo.ErrNotFound
	}
	return s.Repo.DeleteAllHabits(ctx, userID)
}

// ToggleCheck flips the completion record for (habit, date). An omitted date
// defaults to the server-local calendar date. Ownership is checked before any
// mutation; a foreign habit reads as missing.
func (s *Service) ToggleCheck(ctx context.Context, userID, habitID int64, dateStr string) (completed bool, date string, err error) {
	day := s.Now()
	if dateStr != "" {
		day, err = time.Parse(stats.DateLayout, dateStr)
		if err != nil {
			return false, "", invalid("date must be formatted YYYY-MM-DD")
		}
	}
	date = day.Format(stats.DateLayout)

	owned, err := s.Repo.HabitOwned(ctx, habitID, userID)
	if err != nil {
		return false, "", err
	}
	if !owned {
		return false, "", repo.ErrNotFound
	}
	completed, err = s.Repo.ToggleCheck(ctx, habitID, midnight(day))
	return completed, date, err
}

// ListHabits returns the user's active habits with counters for the ISO week
// containing now, week_completion clamped for rendering.
func (s *Service) ListHabits(ctx context.Context, userID int64) ([]models.HabitOverview, error) {
	now := s.Now()
	weekStart, weekEnd := stats.WeekBounds(now)
	overviews, err := s.Repo.ListHabitOverviews(ctx, userID, weekStart, weekEnd, midnight(now))
	if err != nil {
		return nil, err
	}
	for i := range overviews {
		raw := stats.Percentage(overviews[i].WeekChecks, overviews[i].TargetFrequency)
		overviews[i].WeekCompletion = stats.Clamp(raw)
	}
	return overviews, nil
}

// WeeklyStats builds the stats report for the ISO week containing now.
func (s *Service) WeeklyStats(ctx context.Context, userID int64) (models.StatsReport, error) {
	now := s.Now()
	weekStart, weekEnd := stats.WeekBounds(now)
	progress, err := s.Repo.WeeklyProgress(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return models.StatsReport{}, err
	}
	return stats.BuildReport(progress, now), nil
}

func (s *Service) ResetProgress(ctx context.Context, userID int64) (int64, error) {
	exists, err := s.Repo.UserExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, repo.ErrNotFound
	}
	return s.Repo.ResetProgress(ctx, userID)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
