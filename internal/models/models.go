package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	Goals        string    `json:"goals"`
	CreatedAt    time.Time `json:"created_at"`
}

type Habit struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Color           string    `json:"color"`
	Icon            string    `json:"icon"`
	TargetFrequency int       `json:"target_frequency"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type HabitCheck struct {
	ID        int64  `json:"id"`
	HabitID   int64  `json:"habit_id"`
	CheckDate string `json:"check_date"` // YYYY-MM-DD
	Completed bool   `json:"completed"`
}

// HabitOverview is a habit joined with its usage counters for the list view.
type HabitOverview struct {
	Habit
	TotalChecks    int  `json:"total_checks"`
	WeekChecks     int  `json:"week_checks"`
	TodayCompleted bool `json:"today_completed"`
	WeekCompletion int  `json:"week_completion"` // clamped to [0, 100]
}

// HabitStat is one habit's row in the weekly stats report.
type HabitStat struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"user_id"`
	Name                 string `json:"name"`
	Color                string `json:"color"`
	TargetFrequency      int    `json:"target_frequency"`
	CompletedDays        int    `json:"completed_days"`
	CompletionPercentage int    `json:"completion_percentage"`
}

type StatsSummary struct {
	TotalHabits       int    `json:"total_habits"`
	AverageCompletion int    `json:"average_completion"`
	WeekStart         string `json:"week_start"`
	WeekEnd           string `json:"week_end"`
}

type StatsReport struct {
	Habits  []HabitStat  `json:"habits"`
	Summary StatsSummary `json:"summary"`
}
