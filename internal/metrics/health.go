package metrics

import (
	"math"
	"time"

	"fintrack/internal/core"
)

const (
	emergencyWeight  = 40.0
	investmentWeight = 30.0
	adherenceWeight  = 30.0

	// DefaultHealthScore is reported when there is no spending to judge.
	DefaultHealthScore = 50.0

	emergencyMonths      = 6
	spanDays             = 30
	investmentFullRatio  = 0.5
	noBudgetPartialScore = 15.0
)

// HealthScore is the composite score and its parts. Indicators are the
// qualitative flags shown next to the score.
type HealthScore struct {
	Score         float64          `json:"score"`
	EmergencyFund float64          `json:"emergencyFund"`
	Investments   float64          `json:"investments"`
	Adherence     float64          `json:"budgetAdherence"`
	Insufficient  bool             `json:"insufficientData"`
	Indicators    HealthIndicators `json:"indicators"`
}

type HealthIndicators struct {
	EmergencyFund  string `json:"emergencyFund"`
	Investments    string `json:"investments"`
	BudgetTracking string `json:"budgetTracking"`
}

// Health scores the snapshot at now. Without any expense the score is
// DefaultHealthScore; otherwise it is the sum of three capped parts, clamped
// to [0, 100]. Budget adherence is judged on lines, the budget comparison of
// the report being shown.
func Health(s core.Snapshot, lines []BudgetLine, now time.Time) HealthScore {
	h := HealthScore{Indicators: indicators(s)}

	expenses := s.Expenses()
	if len(expenses) == 0 {
		h.Score = DefaultHealthScore
		h.Insufficient = true
		return h
	}

	var total core.Money
	earliest := expenses[0].Date
	for _, t := range expenses {
		total = total.Add(t.Amount)
		if t.Date.Before(earliest.Time) {
			earliest = t.Date
		}
	}

	var savings, invested core.Money
	for _, g := range s.Goals {
		savings = savings.Add(g.CurrentAmount)
	}
	for _, inv := range s.Investments {
		invested = invested.Add(inv.CurrentValue)
	}

	months := MonthsSpanned(earliest, now)
	monthly := total.DivInt(int64(months))

	h.EmergencyFund = capped(savings.Ratio(monthly.MulInt(emergencyMonths)), 1, emergencyWeight)
	h.Investments = capped(invested.Ratio(total), investmentFullRatio, investmentWeight)
	h.Adherence = adherence(lines)

	h.Score = math.Min(100, math.Max(0, h.EmergencyFund+h.Investments+h.Adherence))
	return h
}

// MonthsSpanned counts 30-day periods from the earliest date to now, rounded
// up and never below one.
func MonthsSpanned(earliest core.Date, now time.Time) int {
	days := now.Sub(earliest.Time).Hours() / 24
	return max(1, int(math.Ceil(days/spanDays)))
}

// capped maps ratio linearly so that full reaches weight, and caps it there.
func capped(ratio, full, weight float64) float64 {
	if ratio >= full {
		return weight
	}
	return math.Max(0, math.Min(ratio*weight/full, weight))
}

// adherence is the share of compared categories with a positive budget that
// stay at or under it, scaled to adherenceWeight. Budgeted categories without
// spending have no line and do not count.
func adherence(lines []BudgetLine) float64 {
	var total, onTrack int
	for _, l := range lines {
		if !l.Budget.IsPositive() {
			continue
		}
		total++
		if l.Percent <= 100 {
			onTrack++
		}
	}
	if total == 0 {
		return noBudgetPartialScore
	}
	return float64(onTrack) * adherenceWeight / float64(total)
}

func indicators(s core.Snapshot) HealthIndicators {
	in := HealthIndicators{EmergencyFund: "Needs Work", Investments: "None", BudgetTracking: "Not Set"}
	if len(s.Goals) > 0 {
		in.EmergencyFund = "On Track"
	}
	if len(s.Investments) > 0 {
		in.Investments = "Active"
	}
	if len(s.Budgets) > 0 {
		in.BudgetTracking = "Active"
	}
	return in
}
