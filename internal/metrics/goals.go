package metrics

import (
	"math"
	"time"

	"fintrack/internal/core"
)

type GoalStatus string

const (
	StatusCompleted GoalStatus = "completed"
	StatusOverdue   GoalStatus = "overdue"
	StatusUrgent    GoalStatus = "urgent"
	StatusOnTrack   GoalStatus = "on-track"
)

// urgentDays is the horizon under which an unfinished goal is urgent.
const urgentDays = 30

type GoalProgress struct {
	Goal          core.SavingsGoal `json:"goal"`
	Progress      float64          `json:"progress"`
	Remaining     core.Money       `json:"remaining"`
	DaysLeft      int              `json:"daysLeft"`
	MonthsLeft    int              `json:"monthsLeft"`
	MonthlyTarget core.Money       `json:"monthlyTarget"`
	Status        GoalStatus       `json:"status"`
}

// Progress returns the goal's completion percentage capped at 100. A
// non-positive target is treated as a target of 1.
func Progress(g core.SavingsGoal) float64 {
	target := g.TargetAmount
	if !target.IsPositive() {
		target = core.MoneyFromInt(1)
	}
	return math.Min(g.CurrentAmount.PercentOf(target), 100)
}

// DaysLeft is the number of days until the deadline, rounded up. It is
// negative once the deadline has passed.
func DaysLeft(g core.SavingsGoal, now time.Time) int {
	return int(math.Ceil(g.TargetDate.Sub(now).Hours() / 24))
}

// Track evaluates a goal at now.
func Track(g core.SavingsGoal, now time.Time) GoalProgress {
	p := GoalProgress{
		Goal:     g,
		Progress: Progress(g),
		DaysLeft: DaysLeft(g, now),
	}
	p.MonthsLeft = int(math.Ceil(float64(p.DaysLeft) / 30))

	p.Remaining = g.TargetAmount.Sub(g.CurrentAmount)
	if p.Remaining.IsNegative() {
		p.Remaining = core.Money{}
	}
	p.MonthlyTarget = p.Remaining.DivInt(int64(max(1, p.MonthsLeft)))

	switch {
	case p.Progress >= 100:
		p.Status = StatusCompleted
	case p.DaysLeft < 0:
		p.Status = StatusOverdue
	case p.DaysLeft < urgentDays:
		p.Status = StatusUrgent
	default:
		p.Status = StatusOnTrack
	}
	return p
}

// TrackAll evaluates every goal in input order.
func TrackAll(goals []core.SavingsGoal, now time.Time) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, Track(g, now))
	}
	return out
}
