// Package stats holds the weekly progress accounting: window selection,
// completion percentages and the report summary. Everything here is pure so
// the date arithmetic and rounding rules stay testable without a database.
package stats

import (
	"sort"
	"time"

	"github.com/ilMago8/smart-habit-tracker/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// WeekBounds returns the Monday and Sunday of the ISO week containing asOf,
// truncated to dates in asOf's location.
func WeekBounds(asOf time.Time) (monday, sunday time.Time) {
	y, m, d := asOf.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, asOf.Location())

	// time.Weekday numbers Sunday as 0; ISO weeks start on Monday.
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	monday = day.AddDate(0, 0, -offset)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// Percentage returns completedDays/targetFrequency as a whole percentage,
// rounded half-up. The result is deliberately uncapped: capping is a
// rendering concern, see Clamp. targetFrequency must be positive; the
// registry rejects anything else before it can reach this point.
func Percentage(completedDays, targetFrequency int) int {
	return roundHalfUp(completedDays*100, targetFrequency)
}

// Clamp limits a raw percentage to [0, 100] for progress-bar rendering.
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Progress couples a habit with its completed-day count inside the week
// window. Callers supply habits in creation order; that order is the
// tie-breaker for the report.
type Progress struct {
	Habit         models.Habit
	CompletedDays int
}

// BuildReport assembles the weekly stats report for one user. Habits are
// ordered by completion percentage descending, ties kept in creation order.
// With no habits the summary is zeroed rather than failing on the empty mean.
func BuildReport(progress []Progress, asOf time.Time) models.StatsReport {
	monday, sunday := WeekBounds(asOf)

	habits := make([]models.HabitStat, 0, len(progress))
	sum := 0
	for _, p := range progress {
		pct := Percentage(p.CompletedDays, p.Habit.TargetFrequency)
		sum += pct
		habits = append(habits, models.HabitStat{
			ID:                   p.Habit.ID,
			UserID:               p.Habit.UserID,
			Name:                 p.Habit.Name,
			Color:                p.Habit.Color,
			TargetFrequency:      p.Habit.TargetFrequency,
			CompletedDays:        p.CompletedDays,
			CompletionPercentage: pct,
		})
	}
	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].CompletionPercentage > habits[j].CompletionPercentage
	})

	average := 0
	if len(habits) > 0 {
		average = roundHalfUp(sum, len(habits))
	}

	return models.StatsReport{
		Habits: habits,
		Summary: models.StatsSummary{
			TotalHabits:       len(habits),
			AverageCompletion: average,
			WeekStart:         monday.Format(DateLayout),
			WeekEnd:           sunday.Format(DateLayout),
		},
	}
}

// roundHalfUp divides a by b rounding .5 away from zero. Both arguments are
// non-negative everywhere this package is used.
func roundHalfUp(a, b int) int {
	return (2*a + b) / (2 * b)
}
