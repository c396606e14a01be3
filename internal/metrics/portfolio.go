package metrics

import (
	"math"
	"sort"

	"fintrack/internal/core"
)

// TopPerformersLimit caps the performer ranking.
const TopPerformersLimit = 5

type (
	Allocation struct {
		Type    core.InvestmentType `json:"type"`
		Value   core.Money          `json:"value"`
		Percent float64             `json:"percentage"`
	}

	Performer struct {
		ID              int64               `json:"id"`
		Name            string              `json:"name"`
		Type            core.InvestmentType `json:"type"`
		TotalInvested   core.Money          `json:"totalInvested"`
		CurrentValue    core.Money          `json:"currentValue"`
		GainLoss        core.Money          `json:"gainLoss"`
		GainLossPercent float64             `json:"gainLossPercent"`
	}

	PortfolioSummary struct {
		Holdings        int          `json:"holdings"`
		TotalInvested   core.Money   `json:"totalInvested"`
		CurrentValue    core.Money   `json:"currentValue"`
		GainLoss        core.Money   `json:"totalGainLoss"`
		GainLossPercent float64      `json:"totalGainLossPercent"`
		Allocation      []Allocation `json:"allocation"`
		TopPerformers   []Performer  `json:"topPerformers"`
	}
)

// Portfolio aggregates the holdings. Allocation follows the order of
// core.InvestmentTypes and leaves out types with no positive value.
func Portfolio(investments []core.Investment) PortfolioSummary {
	s := PortfolioSummary{
		Holdings:      len(investments),
		Allocation:    []Allocation{},
		TopPerformers: []Performer{},
	}
	byType := map[core.InvestmentType]core.Money{}
	for _, inv := range investments {
		s.TotalInvested = s.TotalInvested.Add(inv.TotalInvested)
		s.CurrentValue = s.CurrentValue.Add(inv.CurrentValue)
		if inv.CurrentValue.IsPositive() {
			byType[inv.Type] = byType[inv.Type].Add(inv.CurrentValue)
		}
	}
	s.GainLoss = s.CurrentValue.Sub(s.TotalInvested)
	s.GainLossPercent = s.GainLoss.PercentOf(s.TotalInvested)

	var allocated core.Money
	for _, v := range byType {
		allocated = allocated.Add(v)
	}
	for _, typ := range core.InvestmentTypes {
		v, ok := byType[typ]
		if !ok {
			continue
		}
		s.Allocation = append(s.Allocation, Allocation{Type: typ, Value: v, Percent: v.PercentOf(allocated)})
	}

	s.TopPerformers = TopPerformers(investments, TopPerformersLimit)
	return s
}

// TopPerformers ranks holdings with positive invested and current value by
// gain percentage, best first, and keeps at most n.
func TopPerformers(investments []core.Investment, n int) []Performer {
	out := make([]Performer, 0, len(investments))
	for _, inv := range investments {
		if !inv.TotalInvested.IsPositive() || !inv.CurrentValue.IsPositive() {
			continue
		}
		gain := inv.GainLoss()
		pct := gain.PercentOf(inv.TotalInvested)
		if math.IsNaN(pct) || math.IsInf(pct, 0) {
			continue
		}
		out = append(out, Performer{
			ID:              inv.ID,
			Name:            inv.Name,
			Type:            inv.Type,
			TotalInvested:   inv.TotalInvested,
			CurrentValue:    inv.CurrentValue,
			GainLoss:        gain,
			GainLossPercent: pct,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GainLossPercent > out[j].GainLossPercent })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
